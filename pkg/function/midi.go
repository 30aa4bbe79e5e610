// SPDX-License-Identifier: BSD-3-Clause

package function

import (
	"context"
	"log/slog"

	"github.com/ellabellla/lmklib-sub000/pkg/log"
	"github.com/ellabellla/lmklib-sub000/pkg/midi"
)

// Note plays a MIDI note while high: note-on at the rising edge,
// note-off at the falling edge.
type Note struct {
	channel   *value
	note      *value
	velocity  *value
	prevState State
	midi      *midi.Controller
	logger    *slog.Logger
}

// NewNote builds a Note.
func NewNote(channel, note, velocity *value, controller *midi.Controller) *Note {
	return &Note{channel: channel, note: note, velocity: velocity, midi: controller, logger: log.GetGlobalLogger()}
}

// Event implements Function.
func (n *Note) Event(ctx context.Context, state State) ReturnCommand {
	if Rising(state, n.prevState) {
		if err := n.midi.NoteOn(n.channel.u8(), n.note.u8(), n.velocity.u8()); err != nil {
			n.logger.ErrorContext(ctx, "note-on failed", "error", err)
		}
	} else if Falling(state, n.prevState) {
		if err := n.midi.NoteOff(n.channel.u8(), n.note.u8()); err != nil {
			n.logger.ErrorContext(ctx, "note-off failed", "error", err)
		}
	}
	n.prevState = state
	return None()
}

// Descriptor implements Function.
func (n *Note) Descriptor() Descriptor {
	return describe("Note", struct {
		Channel  Param `json:"channel"`
		Note     Param `json:"note"`
		Velocity Param `json:"velocity"`
	}{describedParam(n.channel), describedParam(n.note), describedParam(n.velocity)})
}

// ConstPitchBend applies a fixed bend while high and recenters the
// wheel on release.
type ConstPitchBend struct {
	channel   *value
	bend      *value
	prevState State
	midi      *midi.Controller
	logger    *slog.Logger
}

// NewConstPitchBend builds a ConstPitchBend.
func NewConstPitchBend(channel, bend *value, controller *midi.Controller) *ConstPitchBend {
	return &ConstPitchBend{channel: channel, bend: bend, midi: controller, logger: log.GetGlobalLogger()}
}

// Event implements Function.
func (c *ConstPitchBend) Event(ctx context.Context, state State) ReturnCommand {
	if Rising(state, c.prevState) {
		if err := c.midi.PitchBend(c.channel.u8(), c.bend.u16()); err != nil {
			c.logger.ErrorContext(ctx, "pitch bend failed", "error", err)
		}
	} else if Falling(state, c.prevState) {
		if err := c.midi.PitchBend(c.channel.u8(), midi.PitchBendCenter); err != nil {
			c.logger.ErrorContext(ctx, "pitch bend recenter failed", "error", err)
		}
	}
	c.prevState = state
	return None()
}

// Descriptor implements Function.
func (c *ConstPitchBend) Descriptor() Descriptor {
	return describe("ConstPitchBend", struct {
		Channel Param `json:"channel"`
		Bend    Param `json:"bend"`
	}{describedParam(c.channel), describedParam(c.bend)})
}

// PitchBend maps an analog state onto the 14-bit bend range with the
// same sigmoid scaling as the mouse axes.
type PitchBend struct {
	channel   *value
	invert    *value
	slopeX    *value
	slopeY    *value
	maximum   *value
	threshold *value
	midi      *midi.Controller
	logger    *slog.Logger
}

// NewPitchBend builds an analog PitchBend.
func NewPitchBend(channel, invert, slopeX, slopeY, maximum, threshold *value, controller *midi.Controller) *PitchBend {
	return &PitchBend{channel: channel, invert: invert, slopeX: slopeX, slopeY: slopeY, maximum: maximum, threshold: threshold, midi: controller, logger: log.GetGlobalLogger()}
}

// Event implements Function.
func (p *PitchBend) Event(ctx context.Context, state State) ReturnCommand {
	normalized := normalize(state, p.maximum.f64())
	if pastThreshold(normalized, p.threshold.f64()) {
		val := curve(normalized, p.invert.boolean(), p.slopeY.f64(), p.slopeX.f64())
		// Scale the signed byte onto the 14-bit range around center.
		bend := int32(midi.PitchBendCenter) + int32(val)*int32(midi.PitchBendCenter)/128
		if bend < 0 {
			bend = 0
		}
		if bend > int32(midi.PitchBendMax) {
			bend = int32(midi.PitchBendMax)
		}
		if err := p.midi.PitchBend(p.channel.u8(), uint16(bend)); err != nil {
			p.logger.ErrorContext(ctx, "pitch bend failed", "error", err)
		}
	}
	return None()
}

// Descriptor implements Function.
func (p *PitchBend) Descriptor() Descriptor {
	return describe("PitchBend", struct {
		Channel   Param `json:"channel"`
		Invert    Param `json:"invert"`
		SlopeX    Param `json:"slope_x"`
		SlopeY    Param `json:"slope_y"`
		Maximum   Param `json:"maximum"`
		Threshold Param `json:"threshold"`
	}{describedParam(p.channel), describedParam(p.invert), describedParam(p.slopeX), describedParam(p.slopeY), describedParam(p.maximum), describedParam(p.threshold)})
}

// Instrument selects a program on the rising edge.
type Instrument struct {
	channel    *value
	instrument *value
	prevState  State
	midi       *midi.Controller
	logger     *slog.Logger
}

// NewInstrument builds an Instrument.
func NewInstrument(channel, instrument *value, controller *midi.Controller) *Instrument {
	return &Instrument{channel: channel, instrument: instrument, midi: controller, logger: log.GetGlobalLogger()}
}

// Event implements Function.
func (i *Instrument) Event(ctx context.Context, state State) ReturnCommand {
	if Rising(state, i.prevState) {
		if err := i.midi.ProgramChange(i.channel.u8(), i.instrument.u8()); err != nil {
			i.logger.ErrorContext(ctx, "program change failed", "error", err)
		}
	}
	i.prevState = state
	return None()
}

// Descriptor implements Function.
func (i *Instrument) Descriptor() Descriptor {
	return describe("Instrument", struct {
		Channel    Param `json:"channel"`
		Instrument Param `json:"instrument"`
	}{describedParam(i.channel), describedParam(i.instrument)})
}
