// SPDX-License-Identifier: BSD-3-Clause

package i2cexpander

import (
	"encoding/json"
	"fmt"
)

// InputKind tags the variant of an Input.
type InputKind int

const (
	// InputKindMatrix scans xs (inputs) against ys (outputs), row-major y-outer.
	InputKindMatrix InputKind = iota
	// InputKindSingleInput samples one pin as a boolean input.
	InputKindSingleInput
	// InputKindOutput exposes one pin as a settable output.
	InputKindOutput
)

// Input describes one configured input/output group of the expander.
type Input struct {
	Kind InputKind

	// Matrix
	Xs []int
	Ys []int

	// SingleInput / Output share Pin.
	Pin int

	// SingleInput only.
	OnState  bool
	PullHigh bool
}

// Matrix builds a matrix input: xs are configured as GPIO inputs, each
// y as a GPIO output driven high in turn while all xs are sampled.
func Matrix(xs, ys []int) Input {
	return Input{Kind: InputKindMatrix, Xs: xs, Ys: ys}
}

// SingleInput builds a single discrete input. The reported bit is 1
// when the physical pin state equals onState.
func SingleInput(pin int, onState, pullHigh bool) Input {
	return Input{Kind: InputKindSingleInput, Pin: pin, OnState: onState, PullHigh: pullHigh}
}

// Output builds a single settable output pin.
func Output(pin int) Input {
	return Input{Kind: InputKindOutput, Pin: pin}
}

// Len reports how many state-vector slots this input contributes.
func (in Input) Len() int {
	if in.Kind == InputKindMatrix {
		return len(in.Xs) * len(in.Ys)
	}
	return 1
}

func (in Input) pins() []int {
	switch in.Kind {
	case InputKindMatrix:
		pins := make([]int, 0, len(in.Xs)+len(in.Ys))
		pins = append(pins, in.Xs...)
		pins = append(pins, in.Ys...)
		return pins
	default:
		return []int{in.Pin}
	}
}

// Config is the serialisable configuration of one expander driver:
// {name, address, bus (default 1), list of inputs}.
type Config struct {
	Name    string
	Address uint16
	Bus     int
	Inputs  []Input
}

// Validate rejects a configuration if any pin number is out of range
// [0,15] or reused across inputs.
func (c *Config) Validate() error {
	seen := make(map[int]bool, 16)
	for idx, in := range c.Inputs {
		for _, pin := range in.pins() {
			if pin < 0 || pin > 15 {
				return fmt.Errorf("%w: input %d pin %d", ErrPinOutOfRange, idx, pin)
			}
			if seen[pin] {
				return fmt.Errorf("%w: pin %d", ErrPinReused, pin)
			}
			seen[pin] = true
		}
	}
	return nil
}

// slotRanges returns the [start,end) state-vector range each input
// occupies, in declaration order.
func slotRanges(inputs []Input) [][2]int {
	ranges := make([][2]int, len(inputs))
	offset := 0
	for i, in := range inputs {
		n := in.Len()
		ranges[i] = [2]int{offset, offset + n}
		offset += n
	}
	return ranges
}

// ParseConfig decodes the serialized {name, address, bus, inputs} form
// produced by MarshalState back into a Config.
func ParseConfig(raw []byte) (Config, error) {
	var doc struct {
		Name    string `json:"name"`
		Address uint16 `json:"address"`
		Bus     int    `json:"bus"`
		Inputs  []struct {
			Kind     string `json:"kind"`
			Xs       []int  `json:"xs"`
			Ys       []int  `json:"ys"`
			Pin      int    `json:"pin"`
			OnState  bool   `json:"on_state"`
			PullHigh bool   `json:"pull_high"`
		} `json:"inputs"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	cfg := Config{Name: doc.Name, Address: doc.Address, Bus: doc.Bus}
	if cfg.Bus == 0 {
		cfg.Bus = 1
	}
	for _, in := range doc.Inputs {
		switch in.Kind {
		case "matrix":
			cfg.Inputs = append(cfg.Inputs, Matrix(in.Xs, in.Ys))
		case "single_input":
			cfg.Inputs = append(cfg.Inputs, SingleInput(in.Pin, in.OnState, in.PullHigh))
		case "output":
			cfg.Inputs = append(cfg.Inputs, Output(in.Pin))
		default:
			return Config{}, fmt.Errorf("%w: input kind %q", ErrConfig, in.Kind)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
