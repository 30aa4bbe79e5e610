// SPDX-License-Identifier: BSD-3-Clause

package function

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ellabellla/lmklib-sub000/pkg/cmdpool"
	"github.com/ellabellla/lmklib-sub000/pkg/driver"
	"github.com/ellabellla/lmklib-sub000/pkg/hidio"
	"github.com/ellabellla/lmklib-sub000/pkg/midi"
	"github.com/ellabellla/lmklib-sub000/pkg/msgbus"
	"github.com/ellabellla/lmklib-sub000/pkg/variables"
)

// Builder materializes Descriptors into runtime Functions. It holds a
// handle to every collaborator a function variant may need; it never
// owns them.
type Builder struct {
	hid     *hidio.Queue
	midi    *midi.Controller
	pool    *cmdpool.Pool
	drivers *driver.Registry
	bus     msgbus.Publisher
	host    Host
	vars    *variables.Table
}

// NewBuilder creates a Builder over the given collaborators. Any of
// them may be nil. Only External checks its collaborator (the module
// host) at build time; every other variant is built with whatever
// handle the Builder holds, nil included.
func NewBuilder(hid *hidio.Queue, controller *midi.Controller, pool *cmdpool.Pool, drivers *driver.Registry, bus msgbus.Publisher, host Host, vars *variables.Table) *Builder {
	return &Builder{hid: hid, midi: controller, pool: pool, drivers: drivers, bus: bus, host: host, vars: vars}
}

// resolve turns a Param into a value, registering variable-backed
// parameters with the table. def is the JSON default used when the
// parameter defines or references a variable with no default of its
// own.
func (b *Builder) resolve(p Param, def string) *value {
	switch {
	case p.Var != "":
		return newVarValue(p.Var, json.RawMessage(def), b.vars)
	case p.DefName != "":
		d := p.Default
		if len(d) == 0 {
			d = json.RawMessage(def)
		}
		return newVarValue(p.DefName, d, b.vars)
	default:
		c := p.Const
		if len(c) == 0 {
			c = json.RawMessage(def)
		}
		return newConstValue(c)
	}
}

func decodeParams[T any](d Descriptor) (T, error) {
	var out T
	if err := json.Unmarshal(d.Params, &out); err != nil {
		return out, fmt.Errorf("%w: %s: %w", ErrInvalidDescriptor, d.Tag, err)
	}
	return out, nil
}

// Build materializes d. A "None" descriptor builds to a nil Function,
// which the layout engine treats as a transparent cell.
func (b *Builder) Build(ctx context.Context, d Descriptor) (Function, error) {
	switch d.Tag {
	case "", "None":
		return nil, nil

	case "Key":
		char, err := decodeParams[string](d)
		if err != nil {
			return nil, err
		}
		if char == "" {
			return nil, fmt.Errorf("%w: Key: empty character", ErrInvalidDescriptor)
		}
		return NewKey([]rune(char)[0], b.hid)

	case "Special":
		name, err := decodeParams[string](d)
		if err != nil {
			return nil, err
		}
		return NewSpecial(name, b.hid)

	case "Modifier":
		name, err := decodeParams[string](d)
		if err != nil {
			return nil, err
		}
		return NewModifierKey(name, b.hid)

	case "Shortcut":
		params, err := decodeParams[struct {
			Modifiers []string      `json:"modifiers"`
			Keys      []shortcutKey `json:"keys"`
		}](d)
		if err != nil {
			return nil, err
		}
		return NewShortcut(params.Modifiers, params.Keys, b.hid)

	case "String", "StringLn":
		p, err := decodeParams[Param](d)
		if err != nil {
			return nil, err
		}
		return NewBasicString(b.resolve(p, `""`), d.Tag == "StringLn", b.hid), nil

	case "ComplexString", "ComplexStringLn":
		params, err := decodeParams[struct {
			Str    Param `json:"str"`
			Layout Param `json:"layout"`
		}](d)
		if err != nil {
			return nil, err
		}
		return NewComplexString(b.resolve(params.Str, `""`), b.resolve(params.Layout, `""`), d.Tag == "ComplexStringLn", b.hid), nil

	case "Up":
		return &Up{}, nil

	case "Down":
		return &Down{}, nil

	case "Switch":
		p, err := decodeParams[Param](d)
		if err != nil {
			return nil, err
		}
		return NewSwitch(b.resolve(p, "0")), nil

	case "Shift":
		p, err := decodeParams[Param](d)
		if err != nil {
			return nil, err
		}
		return NewShift(b.resolve(p, "0")), nil

	case "LeftClick":
		return NewClick(hidio.MouseLeft, b.hid), nil

	case "RightClick":
		return NewClick(hidio.MouseRight, b.hid), nil

	case "Move":
		params, err := decodeParams[struct {
			Dir       Axis  `json:"dir"`
			Invert    Param `json:"invert"`
			SlopeX    Param `json:"slope_x"`
			SlopeY    Param `json:"slope_y"`
			Maximum   Param `json:"maximum"`
			Threshold Param `json:"threshold"`
		}](d)
		if err != nil {
			return nil, err
		}
		return NewMouseMove(params.Dir,
			b.resolve(params.Invert, "false"),
			b.resolve(params.SlopeX, "1"),
			b.resolve(params.SlopeY, "1"),
			b.resolve(params.Maximum, "65535"),
			b.resolve(params.Threshold, "0"),
			b.hid), nil

	case "Scroll":
		params, err := decodeParams[struct {
			Period    Param `json:"period"`
			Invert    Param `json:"invert"`
			SlopeX    Param `json:"slope_x"`
			SlopeY    Param `json:"slope_y"`
			Maximum   Param `json:"maximum"`
			Threshold Param `json:"threshold"`
		}](d)
		if err != nil {
			return nil, err
		}
		return NewMouseScroll(
			b.resolve(params.Period, "0"),
			b.resolve(params.Invert, "false"),
			b.resolve(params.SlopeX, "1"),
			b.resolve(params.SlopeY, "1"),
			b.resolve(params.Maximum, "65535"),
			b.resolve(params.Threshold, "0"),
			b.hid), nil

	case "ImmediateMove":
		params, err := decodeParams[struct {
			X Param `json:"x"`
			Y Param `json:"y"`
		}](d)
		if err != nil {
			return nil, err
		}
		return NewImmediateMove(b.resolve(params.X, "0"), b.resolve(params.Y, "0"), b.hid), nil

	case "ImmediateScroll":
		p, err := decodeParams[Param](d)
		if err != nil {
			return nil, err
		}
		return NewImmediateScroll(b.resolve(p, "0"), b.hid), nil

	case "ConstMove":
		params, err := decodeParams[struct {
			X Param `json:"x"`
			Y Param `json:"y"`
		}](d)
		if err != nil {
			return nil, err
		}
		return NewConstMove(b.resolve(params.X, "0"), b.resolve(params.Y, "0"), b.hid), nil

	case "ConstScroll":
		params, err := decodeParams[struct {
			Amount Param `json:"amount"`
			Period Param `json:"period"`
		}](d)
		if err != nil {
			return nil, err
		}
		return NewConstScroll(b.resolve(params.Amount, "0"), b.resolve(params.Period, "0"), b.hid), nil

	case "Note":
		params, err := decodeParams[struct {
			Channel  Param `json:"channel"`
			Note     Param `json:"note"`
			Velocity Param `json:"velocity"`
		}](d)
		if err != nil {
			return nil, err
		}
		return NewNote(b.resolve(params.Channel, "0"), b.resolve(params.Note, "60"), b.resolve(params.Velocity, "64"), b.midi), nil

	case "ConstPitchBend":
		params, err := decodeParams[struct {
			Channel Param `json:"channel"`
			Bend    Param `json:"bend"`
		}](d)
		if err != nil {
			return nil, err
		}
		return NewConstPitchBend(b.resolve(params.Channel, "0"), b.resolve(params.Bend, "8192"), b.midi), nil

	case "PitchBend":
		params, err := decodeParams[struct {
			Channel   Param `json:"channel"`
			Invert    Param `json:"invert"`
			SlopeX    Param `json:"slope_x"`
			SlopeY    Param `json:"slope_y"`
			Maximum   Param `json:"maximum"`
			Threshold Param `json:"threshold"`
		}](d)
		if err != nil {
			return nil, err
		}
		return NewPitchBend(
			b.resolve(params.Channel, "0"),
			b.resolve(params.Invert, "false"),
			b.resolve(params.SlopeX, "1"),
			b.resolve(params.SlopeY, "1"),
			b.resolve(params.Maximum, "65535"),
			b.resolve(params.Threshold, "0"),
			b.midi), nil

	case "Instrument":
		params, err := decodeParams[struct {
			Channel    Param `json:"channel"`
			Instrument Param `json:"instrument"`
		}](d)
		if err != nil {
			return nil, err
		}
		return NewInstrument(b.resolve(params.Channel, "0"), b.resolve(params.Instrument, "0"), b.midi), nil

	case "Bash":
		p, err := decodeParams[Param](d)
		if err != nil {
			return nil, err
		}
		return NewBash(b.resolve(p, `""`), b.pool), nil

	case "Pipe":
		p, err := decodeParams[Param](d)
		if err != nil {
			return nil, err
		}
		return NewPipe(b.resolve(p, `""`), b.pool, b.hid), nil

	case "Log":
		params, err := decodeParams[[]Param](d)
		if err != nil {
			return nil, err
		}
		if len(params) != 2 {
			return nil, fmt.Errorf("%w: Log expects [level, message]", ErrInvalidDescriptor)
		}
		return NewLog(b.resolve(params[0], `"Info"`), b.resolve(params[1], `""`)), nil

	case "NanoMsg":
		params, err := decodeParams[struct {
			Topic      byte         `json:"topic"`
			Format     string       `json:"format"`
			DriverData []DriverData `json:"driver_data"`
		}](d)
		if err != nil {
			return nil, err
		}
		return NewNanoMsg(params.Topic, params.Format, params.DriverData, b.drivers, b.bus), nil

	case "Output":
		params, err := decodeParams[struct {
			DriverName string `json:"driver_name"`
			Idx        Param  `json:"idx"`
			State      Param  `json:"state"`
		}](d)
		if err != nil {
			return nil, err
		}
		return NewOutput(params.DriverName, b.resolve(params.Idx, "0"), b.resolve(params.State, "0"), b.drivers), nil

	case "Flip":
		params, err := decodeParams[struct {
			DriverName string `json:"driver_name"`
			Idx        Param  `json:"idx"`
		}](d)
		if err != nil {
			return nil, err
		}
		return NewFlip(params.DriverName, b.resolve(params.Idx, "0"), b.drivers), nil

	case "SwitchHid":
		params, err := decodeParams[struct {
			Name Param `json:"name"`
		}](d)
		if err != nil {
			return nil, err
		}
		return NewSwitchHid(b.resolve(params.Name, `""`), b.hid), nil

	case "ToggleHid":
		params, err := decodeParams[struct {
			Modes Param `json:"modes"`
		}](d)
		if err != nil {
			return nil, err
		}
		return NewToggleHid(b.resolve(params.Modes, "[]"), b.hid), nil

	case "SendHidCommand":
		params, err := decodeParams[struct {
			Name    Param `json:"name"`
			Command Param `json:"command"`
		}](d)
		if err != nil {
			return nil, err
		}
		return NewSendHidCommand(b.resolve(params.Name, `""`), b.resolve(params.Command, `""`), b.hid), nil

	case "External":
		params, err := decodeParams[struct {
			Module string          `json:"module"`
			Func   json.RawMessage `json:"func"`
		}](d)
		if err != nil {
			return nil, err
		}
		if b.host == nil {
			return nil, fmt.Errorf("%w: External: no module host", ErrInvalidDescriptor)
		}
		id, err := b.host.LoadFunction(ctx, params.Module, params.Func)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrModuleCall, params.Module, err)
		}
		return NewExternal(params.Module, params.Func, id, b.host), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDescriptor, d.Tag)
	}
}
