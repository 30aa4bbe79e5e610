// SPDX-License-Identifier: BSD-3-Clause

package i2cexpander

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ellabellla/lmklib-sub000/pkg/driver"
)

const (
	stateHigh uint16 = 0xFFFF
	stateLow  uint16 = 0x0000
)

// Driver is an MCP23017-class I²C GPIO-expander input source, scanning
// matrix and discrete-pin inputs over one shared bus.
type Driver struct {
	cfg    Config
	ranges [][2]int
	bus    Bus

	jobs chan jobRequest
	done chan struct{}
	once sync.Once

	// lastGood and olat are touched only by the worker goroutine.
	lastGood [][]uint16
	olatA    byte
	olatB    byte

	mu    sync.RWMutex
	state []uint16
}

var _ driver.Driver = (*Driver)(nil)

// New builds an expander driver. cfg is validated; out-of-range or
// reused pins are rejected at build time.
func New(cfg Config, bus Bus) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d := &Driver{
		cfg:      cfg,
		ranges:   slotRanges(cfg.Inputs),
		bus:      bus,
		jobs:     make(chan jobRequest),
		done:     make(chan struct{}),
		lastGood: make([][]uint16, len(cfg.Inputs)),
	}
	total := 0
	for i, in := range cfg.Inputs {
		d.lastGood[i] = make([]uint16, in.Len())
		total += in.Len()
	}
	d.state = make([]uint16, total)

	go d.runWorker()

	if _, err := d.call(d.setupJob); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

// Close stops the driver's worker goroutine.
func (d *Driver) Close() {
	d.once.Do(func() { close(d.done) })
}

// Name implements driver.Driver.
func (d *Driver) Name() string { return d.cfg.Name }

// setupJob configures IODIR/GPPU/OLAT for every declared input.
func (d *Driver) setupJob(bus Bus) (any, error) {
	var iodirA, iodirB, gppuA, gppuB byte = 0xFF, 0xFF, 0x00, 0x00
	var olatA, olatB byte

	for _, in := range d.cfg.Inputs {
		switch in.Kind {
		case InputKindMatrix:
			for _, x := range in.Xs {
				isB, bit := portBit(x)
				if isB {
					iodirB = setBit(iodirB, bit, true)
				} else {
					iodirA = setBit(iodirA, bit, true)
				}
			}
			for _, y := range in.Ys {
				isB, bit := portBit(y)
				if isB {
					iodirB = setBit(iodirB, bit, false)
					olatB = setBit(olatB, bit, false)
				} else {
					iodirA = setBit(iodirA, bit, false)
					olatA = setBit(olatA, bit, false)
				}
			}
		case InputKindSingleInput:
			isB, bit := portBit(in.Pin)
			if isB {
				iodirB = setBit(iodirB, bit, true)
				gppuB = setBit(gppuB, bit, in.PullHigh)
			} else {
				iodirA = setBit(iodirA, bit, true)
				gppuA = setBit(gppuA, bit, in.PullHigh)
			}
		case InputKindOutput:
			isB, bit := portBit(in.Pin)
			if isB {
				iodirB = setBit(iodirB, bit, false)
			} else {
				iodirA = setBit(iodirA, bit, false)
			}
		}
	}

	for _, w := range []struct {
		reg byte
		val byte
	}{
		{regIODIRA, iodirA}, {regIODIRB, iodirB},
		{regGPPUA, gppuA}, {regGPPUB, gppuB},
		{regOLATA, olatA}, {regOLATB, olatB},
	} {
		if err := bus.WriteRegister(w.reg, w.val); err != nil {
			return nil, err
		}
	}
	d.olatA, d.olatB = olatA, olatB
	return nil, nil
}

// Tick refreshes the state vector by reading every configured input in
// declaration order. A failing individual read retains the
// last good sub-vector for that input rather than failing the whole tick.
func (d *Driver) Tick(ctx context.Context) error {
	result, err := d.call(d.tickJob)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBusIO, err)
	}
	vec := result.([]uint16)

	d.mu.Lock()
	d.state = vec
	d.mu.Unlock()
	return nil
}

func (d *Driver) tickJob(bus Bus) (any, error) {
	out := make([]uint16, 0, len(d.state)+len(d.cfg.Inputs))
	for i, in := range d.cfg.Inputs {
		sub, err := d.readInput(bus, in)
		if err != nil {
			out = append(out, d.lastGood[i]...)
			continue
		}
		d.lastGood[i] = sub
		out = append(out, sub...)
	}
	return out, nil
}

func (d *Driver) readInput(bus Bus, in Input) ([]uint16, error) {
	switch in.Kind {
	case InputKindMatrix:
		return d.readMatrix(bus, in)
	case InputKindSingleInput:
		return d.readSingle(bus, in)
	case InputKindOutput:
		isB, bit := portBit(in.Pin)
		var olat byte
		if isB {
			olat = d.olatB
		} else {
			olat = d.olatA
		}
		if olat&(1<<bit) != 0 {
			return []uint16{stateHigh}, nil
		}
		return []uint16{stateLow}, nil
	default:
		return nil, fmt.Errorf("unknown input kind %d", in.Kind)
	}
}

func (d *Driver) readMatrix(bus Bus, in Input) ([]uint16, error) {
	out := make([]uint16, 0, len(in.Xs)*len(in.Ys))
	for _, y := range in.Ys {
		if err := d.setOutputPin(bus, y, true); err != nil {
			return nil, err
		}

		gpioA, err := bus.ReadRegister(regGPIOA)
		if err != nil {
			_ = d.setOutputPin(bus, y, false)
			return nil, err
		}
		gpioB, err := bus.ReadRegister(regGPIOB)
		if err != nil {
			_ = d.setOutputPin(bus, y, false)
			return nil, err
		}

		for _, x := range in.Xs {
			isB, bit := portBit(x)
			var reg byte
			if isB {
				reg = gpioB
			} else {
				reg = gpioA
			}
			if reg&(1<<bit) != 0 {
				out = append(out, stateHigh)
			} else {
				out = append(out, stateLow)
			}
		}

		if err := d.setOutputPin(bus, y, false); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (d *Driver) setOutputPin(bus Bus, pin int, high bool) error {
	isB, bit := portBit(pin)
	if isB {
		d.olatB = setBit(d.olatB, bit, high)
		return bus.WriteRegister(regOLATB, d.olatB)
	}
	d.olatA = setBit(d.olatA, bit, high)
	return bus.WriteRegister(regOLATA, d.olatA)
}

func (d *Driver) readSingle(bus Bus, in Input) ([]uint16, error) {
	isB, bit := portBit(in.Pin)
	var reg byte
	var err error
	if isB {
		reg, err = bus.ReadRegister(regGPIOB)
	} else {
		reg, err = bus.ReadRegister(regGPIOA)
	}
	if err != nil {
		return nil, err
	}
	physicalHigh := reg&(1<<bit) != 0
	if physicalHigh == in.OnState {
		return []uint16{stateHigh}, nil
	}
	return []uint16{stateLow}, nil
}

// Poll implements driver.Driver.
func (d *Driver) Poll(i int) (uint16, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if i < 0 || i >= len(d.state) {
		return 0, ErrIndexOutOfRange
	}
	return d.state[i], nil
}

// PollRange implements driver.Driver.
func (d *Driver) PollRange(r driver.Range) ([]uint16, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if r.Start < 0 || r.End > len(d.state) || r.Start > r.End {
		return nil, ErrIndexOutOfRange
	}
	out := make([]uint16, r.Len())
	copy(out, d.state[r.Start:r.End])
	return out, nil
}

// Set routes (index, value) to the output whose slot range contains
// index; it fails if that input is not an output.
func (d *Driver) Set(index int, value uint16) error {
	inputIdx := -1
	for i, rng := range d.ranges {
		if index >= rng[0] && index < rng[1] {
			inputIdx = i
			break
		}
	}
	if inputIdx == -1 {
		return ErrIndexOutOfRange
	}
	in := d.cfg.Inputs[inputIdx]
	if in.Kind != InputKindOutput {
		return fmt.Errorf("%w: index %d", ErrNotOutput, index)
	}

	high := value >= 0x8000
	level := stateLow
	if high {
		level = stateHigh
	}
	_, err := d.call(func(bus Bus) (any, error) {
		if err := d.setOutputPin(bus, in.Pin, high); err != nil {
			return nil, err
		}
		d.lastGood[inputIdx] = []uint16{level}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBusIO, err)
	}

	d.mu.Lock()
	if index < len(d.state) {
		d.state[index] = level
	}
	d.mu.Unlock()
	return nil
}

// serializedInput is the JSON form of one Input.
type serializedInput struct {
	Kind     string `json:"kind"`
	Xs       []int  `json:"xs,omitempty"`
	Ys       []int  `json:"ys,omitempty"`
	Pin      int    `json:"pin,omitempty"`
	OnState  bool   `json:"on_state,omitempty"`
	PullHigh bool   `json:"pull_high,omitempty"`
}

var kindNames = map[InputKind]string{
	InputKindMatrix:      "matrix",
	InputKindSingleInput: "single_input",
	InputKindOutput:      "output",
}

// MarshalState implements driver.Driver, serializing {name, address,
// bus, inputs}.
func (d *Driver) MarshalState() (json.RawMessage, error) {
	inputs := make([]serializedInput, len(d.cfg.Inputs))
	for i, in := range d.cfg.Inputs {
		inputs[i] = serializedInput{
			Kind: kindNames[in.Kind], Xs: in.Xs, Ys: in.Ys,
			Pin: in.Pin, OnState: in.OnState, PullHigh: in.PullHigh,
		}
	}
	bus := d.cfg.Bus
	if bus == 0 {
		bus = 1
	}
	return json.Marshal(struct {
		Name    string            `json:"name"`
		Address uint16            `json:"address"`
		Bus     int               `json:"bus"`
		Inputs  []serializedInput `json:"inputs"`
	}{Name: d.cfg.Name, Address: d.cfg.Address, Bus: bus, Inputs: inputs})
}
