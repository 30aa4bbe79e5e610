// SPDX-License-Identifier: BSD-3-Clause

package i2cexpander

import (
	"context"
	"errors"
	"testing"

	"github.com/ellabellla/lmklib-sub000/pkg/driver"
)

// fakeBus simulates an MCP23017's registers in memory. A GPIOA/B read
// returns the stored register value unless gpioOverrides holds a value
// for that register in the current read pair, letting tests script a
// scan sequence.
type fakeBus struct {
	regs          map[byte]byte
	gpioOverrides []map[byte]byte // one override map applied per successive GPIOA/B read pair
	readCount     int
	failNext      bool
}

func newFakeBus() *fakeBus {
	return &fakeBus{regs: map[byte]byte{regIODIRA: 0xFF, regIODIRB: 0xFF}}
}

func (b *fakeBus) ReadRegister(reg byte) (byte, error) {
	if b.failNext {
		b.failNext = false
		return 0, errors.New("simulated bus failure")
	}
	if (reg == regGPIOA || reg == regGPIOB) && len(b.gpioOverrides) > 0 {
		idx := b.readCount / 2
		if idx < len(b.gpioOverrides) {
			if v, ok := b.gpioOverrides[idx][reg]; ok {
				b.readCount++
				return v, nil
			}
		}
		b.readCount++
	}
	return b.regs[reg], nil
}

func (b *fakeBus) WriteRegister(reg byte, val byte) error {
	b.regs[reg] = val
	return nil
}

func TestConfigValidateRejectsOutOfRangePin(t *testing.T) {
	cfg := Config{Name: "kb", Inputs: []Input{SingleInput(16, true, false)}}
	if err := cfg.Validate(); !errors.Is(err, ErrPinOutOfRange) {
		t.Fatalf("want ErrPinOutOfRange, got %v", err)
	}
}

func TestConfigValidateRejectsReusedPin(t *testing.T) {
	cfg := Config{Name: "kb", Inputs: []Input{
		SingleInput(3, true, false),
		Output(3),
	}}
	if err := cfg.Validate(); !errors.Is(err, ErrPinReused) {
		t.Fatalf("want ErrPinReused, got %v", err)
	}
}

func TestSingleInputOnStatePolarity(t *testing.T) {
	bus := newFakeBus()
	bus.regs[regGPIOA] = 0x01 // pin 0 physically high

	cfg := Config{Name: "d", Inputs: []Input{SingleInput(0, true, false)}}
	d, err := New(cfg, bus)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	if err := d.Tick(context.Background()); err != nil {
		t.Fatal(err)
	}
	v, err := d.Poll(0)
	if err != nil {
		t.Fatal(err)
	}
	if v != stateHigh {
		t.Fatalf("want stateHigh (onState=true, physical high), got %#x", v)
	}
}

func TestSingleInputFailureRetainsLastGood(t *testing.T) {
	bus := newFakeBus()
	bus.regs[regGPIOA] = 0x01

	cfg := Config{Name: "d", Inputs: []Input{SingleInput(0, true, false)}}
	d, err := New(cfg, bus)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	if err := d.Tick(context.Background()); err != nil {
		t.Fatal(err)
	}
	first, _ := d.Poll(0)

	bus.failNext = true
	if err := d.Tick(context.Background()); err != nil {
		t.Fatal(err)
	}
	second, _ := d.Poll(0)

	if first != second {
		t.Fatalf("want retained last-good value across failed read: %#x != %#x", first, second)
	}
}

func TestOutputSetRoutesAndRejectsNonOutput(t *testing.T) {
	bus := newFakeBus()
	cfg := Config{Name: "d", Inputs: []Input{
		SingleInput(0, true, false), // slot 0
		Output(1),                  // slot 1
	}}
	d, err := New(cfg, bus)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	if err := d.Set(0, 0xFFFF); !errors.Is(err, ErrNotOutput) {
		t.Fatalf("want ErrNotOutput, got %v", err)
	}
	if err := d.Set(1, 0xFFFF); err != nil {
		t.Fatal(err)
	}
	v, err := d.Poll(1)
	if err != nil {
		t.Fatal(err)
	}
	if v != stateHigh {
		t.Fatalf("want output slot reflecting Set, got %#x", v)
	}
	if bus.regs[regOLATA]&(1<<1) == 0 {
		t.Fatalf("want OLATA bit 1 set after Set")
	}
}

func TestMatrixLenMatchesXsYs(t *testing.T) {
	in := Matrix([]int{0, 1, 2}, []int{8, 9})
	if in.Len() != 6 {
		t.Fatalf("want 6 slots for 3 xs * 2 ys, got %d", in.Len())
	}
}

var _ driver.Driver = (*Driver)(nil)
