// SPDX-License-Identifier: BSD-3-Clause

package function

import (
	"context"
	"log/slog"

	"github.com/ellabellla/lmklib-sub000/pkg/driver"
	"github.com/ellabellla/lmklib-sub000/pkg/log"
)

// Output drives an output-capable driver slot to a configured state on
// the rising edge.
type Output struct {
	driverName string
	idx        *value
	state      *value
	prevState  State
	drivers    *driver.Registry
	logger     *slog.Logger
}

// NewOutput builds an Output.
func NewOutput(driverName string, idx, state *value, drivers *driver.Registry) *Output {
	return &Output{driverName: driverName, idx: idx, state: state, drivers: drivers, logger: log.GetGlobalLogger()}
}

// Event implements Function.
func (o *Output) Event(ctx context.Context, state State) ReturnCommand {
	if Rising(state, o.prevState) {
		d, err := o.drivers.Get(o.driverName)
		if err != nil {
			o.logger.ErrorContext(ctx, "output binding driver lookup failed", "driver", o.driverName, "error", err)
		} else if err := d.Set(int(o.idx.i64()), o.state.u16()); err != nil {
			o.logger.ErrorContext(ctx, "output binding set failed", "driver", o.driverName, "error", err)
		}
	}
	o.prevState = state
	return None()
}

// Descriptor implements Function.
func (o *Output) Descriptor() Descriptor {
	return describe("Output", struct {
		DriverName string `json:"driver_name"`
		Idx        Param  `json:"idx"`
		State      Param  `json:"state"`
	}{o.driverName, describedParam(o.idx), describedParam(o.state)})
}

// Flip toggles an output-capable driver slot between low and high on
// the rising edge.
type Flip struct {
	driverName string
	idx        *value
	prevState  State
	drivers    *driver.Registry
	logger     *slog.Logger
}

// NewFlip builds a Flip.
func NewFlip(driverName string, idx *value, drivers *driver.Registry) *Flip {
	return &Flip{driverName: driverName, idx: idx, drivers: drivers, logger: log.GetGlobalLogger()}
}

// Event implements Function.
func (f *Flip) Event(ctx context.Context, state State) ReturnCommand {
	if Rising(state, f.prevState) {
		d, err := f.drivers.Get(f.driverName)
		if err != nil {
			f.logger.ErrorContext(ctx, "flip binding driver lookup failed", "driver", f.driverName, "error", err)
		} else {
			idx := int(f.idx.i64())
			current, err := d.Poll(idx)
			if err != nil {
				f.logger.ErrorContext(ctx, "flip binding poll failed", "driver", f.driverName, "error", err)
			} else {
				var next uint16
				if Low(current) {
					next = 0xFFFF
				}
				if err := d.Set(idx, next); err != nil {
					f.logger.ErrorContext(ctx, "flip binding set failed", "driver", f.driverName, "error", err)
				}
			}
		}
	}
	f.prevState = state
	return None()
}

// Descriptor implements Function.
func (f *Flip) Descriptor() Descriptor {
	return describe("Flip", struct {
		DriverName string `json:"driver_name"`
		Idx        Param  `json:"idx"`
	}{f.driverName, describedParam(f.idx)})
}
