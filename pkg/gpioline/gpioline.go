// SPDX-License-Identifier: BSD-3-Clause

package gpioline

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ellabellla/lmklib-sub000/pkg/driver"
	"github.com/ellabellla/lmklib-sub000/pkg/gpio"
)

// Line configures one slot of the driver's state vector.
type Line struct {
	// Offset is the line number on the chip.
	Offset int `json:"offset"`
	// Output marks the line writable via the driver's set path.
	Output bool `json:"output,omitempty"`
	// OnState is the physical level reported as high.
	OnState bool `json:"on_state"`
	// PullHigh enables the line's pull-up bias.
	PullHigh bool `json:"pull_high,omitempty"`
}

// Config is the serialized form of a gpioline driver.
type Config struct {
	Name  string `json:"name"`
	Chip  string `json:"chip"`
	Lines []Line `json:"lines"`
}

// Validate rejects duplicate and negative offsets.
func (c Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: missing name", ErrConfig)
	}
	seen := make(map[int]struct{}, len(c.Lines))
	for _, l := range c.Lines {
		if l.Offset < 0 {
			return fmt.Errorf("%w: offset %d", ErrConfig, l.Offset)
		}
		if _, dup := seen[l.Offset]; dup {
			return fmt.Errorf("%w: offset %d reused", ErrConfig, l.Offset)
		}
		seen[l.Offset] = struct{}{}
	}
	return nil
}

// lineIO is the per-line access contract, satisfied by real character
// device lines and by fakes in tests.
type lineIO interface {
	Value() (int, error)
	SetValue(value int) error
	Close() error
}

// requestLine is swapped by tests.
var requestLine = func(chip string, l Line) (lineIO, error) {
	opts := []gpio.Option{gpio.WithConsumer("gpioline")}
	if l.Output {
		opts = append(opts, gpio.WithDirection(gpio.DirectionOutput))
	} else {
		opts = append(opts, gpio.WithDirection(gpio.DirectionInput))
		if l.PullHigh {
			opts = append(opts, gpio.WithBias(gpio.BiasPullUp))
		}
	}
	return gpio.RequestLineByNumber(chip, l.Offset, opts...)
}

// Driver is a discrete-GPIO input/output driver.
type Driver struct {
	cfg   Config
	lines []lineIO

	mu     sync.RWMutex
	states []uint16
}

var _ driver.Driver = (*Driver)(nil)

// New requests every configured line and builds the driver.
func New(cfg Config) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Driver{cfg: cfg, states: make([]uint16, len(cfg.Lines))}
	for _, l := range cfg.Lines {
		line, err := requestLine(cfg.Chip, l)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("%w: offset %d: %w", ErrConfig, l.Offset, err)
		}
		d.lines = append(d.lines, line)
	}
	return d, nil
}

// Close releases every requested line.
func (d *Driver) Close() {
	for _, line := range d.lines {
		_ = line.Close()
	}
	d.lines = nil
}

// Name implements driver.Driver.
func (d *Driver) Name() string { return d.cfg.Name }

// Tick implements driver.Driver: input lines are sampled with their
// polarity normalized; output lines report the last written state. A
// failing line keeps its previous value.
func (d *Driver) Tick(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var firstErr error
	for i, l := range d.cfg.Lines {
		if l.Output {
			continue
		}
		v, err := d.lines[i].Value()
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%w: offset %d: %w", ErrRead, l.Offset, err)
			}
			continue
		}
		high := v != 0
		if high == l.OnState {
			d.states[i] = 0xFFFF
		} else {
			d.states[i] = 0
		}
	}
	return firstErr
}

// Poll implements driver.Driver.
func (d *Driver) Poll(i int) (uint16, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if i < 0 || i >= len(d.states) {
		return 0, fmt.Errorf("%w: index %d", driver.ErrIndexOutOfRange, i)
	}
	return d.states[i], nil
}

// PollRange implements driver.Driver.
func (d *Driver) PollRange(r driver.Range) ([]uint16, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if r.Start < 0 || r.End > len(d.states) || r.Start > r.End {
		return nil, fmt.Errorf("%w: range %d..%d", driver.ErrIndexOutOfRange, r.Start, r.End)
	}
	return append([]uint16(nil), d.states[r.Start:r.End]...), nil
}

// Set implements driver.Driver.
func (d *Driver) Set(i int, v uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i < 0 || i >= len(d.cfg.Lines) {
		return fmt.Errorf("%w: index %d", driver.ErrIndexOutOfRange, i)
	}
	if !d.cfg.Lines[i].Output {
		return fmt.Errorf("%w: offset %d", ErrNotOutput, d.cfg.Lines[i].Offset)
	}
	level := 0
	if v > 0x7FFF {
		level = 1
	}
	if err := d.lines[i].SetValue(level); err != nil {
		return fmt.Errorf("%w: offset %d: %w", ErrWrite, d.cfg.Lines[i].Offset, err)
	}
	if level == 1 {
		d.states[i] = 0xFFFF
	} else {
		d.states[i] = 0
	}
	return nil
}

// MarshalState implements driver.Driver.
func (d *Driver) MarshalState() (json.RawMessage, error) {
	return json.Marshal(d.cfg)
}
