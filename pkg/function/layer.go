// SPDX-License-Identifier: BSD-3-Clause

package function

import (
	"context"
	"encoding/json"
)

// Up advances the current layer on the rising edge.
type Up struct {
	prevState State
}

// Event implements Function.
func (u *Up) Event(_ context.Context, state State) ReturnCommand {
	rising := Rising(state, u.prevState)
	u.prevState = state
	if rising {
		return ReturnCommand{Kind: ReturnUp}
	}
	return None()
}

// Descriptor implements Function.
func (u *Up) Descriptor() Descriptor { return Descriptor{Tag: "Up"} }

// Down retreats the current layer on the rising edge.
type Down struct {
	prevState State
}

// Event implements Function.
func (d *Down) Event(_ context.Context, state State) ReturnCommand {
	rising := Rising(state, d.prevState)
	d.prevState = state
	if rising {
		return ReturnCommand{Kind: ReturnDown}
	}
	return None()
}

// Descriptor implements Function.
func (d *Down) Descriptor() Descriptor { return Descriptor{Tag: "Down"} }

// Switch makes its layer current on the rising edge.
type Switch struct {
	layer     *value
	prevState State
}

// NewSwitch builds a Switch.
func NewSwitch(layer *value) *Switch { return &Switch{layer: layer} }

// Event implements Function.
func (s *Switch) Event(_ context.Context, state State) ReturnCommand {
	rising := Rising(state, s.prevState)
	s.prevState = state
	if rising {
		return ReturnCommand{Kind: ReturnSwitch, Index: int(s.layer.i64())}
	}
	return None()
}

// Descriptor implements Function.
func (s *Switch) Descriptor() Descriptor {
	raw, _ := json.Marshal(describedParam(s.layer))
	return Descriptor{Tag: "Switch", Params: raw}
}

// Shift overlays its layer while held: Shift on the rising edge,
// UnShift of the same layer on the falling edge.
type Shift struct {
	layer     *value
	prevState State
}

// NewShift builds a Shift.
func NewShift(layer *value) *Shift { return &Shift{layer: layer} }

// Event implements Function.
func (s *Shift) Event(_ context.Context, state State) ReturnCommand {
	defer func() { s.prevState = state }()
	if Rising(state, s.prevState) {
		return ReturnCommand{Kind: ReturnShift, Index: int(s.layer.i64())}
	}
	if Falling(state, s.prevState) {
		return ReturnCommand{Kind: ReturnUnshift, Index: int(s.layer.i64())}
	}
	return None()
}

// Descriptor implements Function.
func (s *Shift) Descriptor() Descriptor {
	raw, _ := json.Marshal(describedParam(s.layer))
	return Descriptor{Tag: "Shift", Params: raw}
}
