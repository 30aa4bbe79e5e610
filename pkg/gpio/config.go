// SPDX-License-Identifier: BSD-3-Clause

//go:build linux
// +build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// Direction represents the requested GPIO line direction.
type Direction int

const (
	// DirectionInput configures the GPIO line as an input.
	DirectionInput Direction = iota
	// DirectionOutput configures the GPIO line as an output.
	DirectionOutput
)

// String returns the string representation of the Direction.
func (d Direction) String() string {
	switch d {
	case DirectionInput:
		return "Input"
	case DirectionOutput:
		return "Output"
	default:
		return fmt.Sprintf("Direction(%d)", d)
	}
}

// Bias represents the GPIO line bias setting.
type Bias int

const (
	// BiasDisabled disables internal pull-up/pull-down resistors.
	BiasDisabled Bias = iota
	// BiasPullUp enables the internal pull-up resistor.
	BiasPullUp
	// BiasPullDown enables the internal pull-down resistor.
	BiasPullDown
)

// String returns the string representation of the Bias.
func (b Bias) String() string {
	switch b {
	case BiasDisabled:
		return "Disabled"
	case BiasPullUp:
		return "Pull-Up"
	case BiasPullDown:
		return "Pull-Down"
	default:
		return fmt.Sprintf("Bias(%d)", b)
	}
}

// Config holds the configuration for one line request.
type Config struct {
	Direction    Direction
	Bias         Bias
	Consumer     string
	InitialValue int
}

// lineOptions renders the request options for the underlying library.
func (c *Config) lineOptions() []gpiocdev.LineReqOption {
	opts := []gpiocdev.LineReqOption{gpiocdev.WithConsumer(c.Consumer)}
	if c.Direction == DirectionOutput {
		opts = append(opts, gpiocdev.AsOutput(c.InitialValue))
	} else {
		opts = append(opts, gpiocdev.AsInput)
	}
	switch c.Bias {
	case BiasPullUp:
		opts = append(opts, gpiocdev.WithPullUp)
	case BiasPullDown:
		opts = append(opts, gpiocdev.WithPullDown)
	}
	return opts
}

// Option represents a configuration option for a line request.
type Option interface {
	apply(*Config)
}

type directionOption struct {
	direction Direction
}

func (o *directionOption) apply(c *Config) {
	c.Direction = o.direction
}

// WithDirection sets the line direction.
func WithDirection(direction Direction) Option {
	return &directionOption{direction: direction}
}

type biasOption struct {
	bias Bias
}

func (o *biasOption) apply(c *Config) {
	c.Bias = o.bias
}

// WithBias sets the line's bias resistor configuration.
func WithBias(bias Bias) Option {
	return &biasOption{bias: bias}
}

type consumerOption struct {
	consumer string
}

func (o *consumerOption) apply(c *Config) {
	c.Consumer = o.consumer
}

// WithConsumer sets the consumer label shown in gpioinfo.
func WithConsumer(consumer string) Option {
	return &consumerOption{consumer: consumer}
}

type initialValueOption struct {
	value int
}

func (o *initialValueOption) apply(c *Config) {
	c.InitialValue = o.value
}

// WithInitialValue sets the level an output line is driven to on
// request.
func WithInitialValue(value int) Option {
	return &initialValueOption{value: value}
}
