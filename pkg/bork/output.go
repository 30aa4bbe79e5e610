// SPDX-License-Identifier: BSD-3-Clause

package bork

import (
	"context"

	"github.com/ellabellla/lmklib-sub000/pkg/hidio"
	"github.com/ellabellla/lmklib-sub000/pkg/keycode"
)

// Output is the HID surface the interpreter drives. Press means a full
// down/up pair; hold and release manage the report state directly.
// Flushes are issued by the main loop after every command.
type Output interface {
	PressChar(c rune) error
	HoldChar(c rune) error
	ReleaseChar(c rune) error
	PressKeycode(code byte) error
	HoldKeycode(code byte) error
	ReleaseKeycode(code byte) error
	PressModifier(m keycode.Modifier) error
	HoldModifier(m keycode.Modifier) error
	ReleaseModifier(m keycode.Modifier) error
	PressString(s string) error
	PressButton(b hidio.MouseButton) error
	HoldButton(b hidio.MouseButton) error
	ReleaseButton(b hidio.MouseButton) error
	MoveMouse(x, y int8) error
	LED(n int) (bool, error)
	FlushKeyboard() error
	FlushMouse() error
}

// HIDOutput adapts the HID worker's command queue (and its LED reader)
// onto the interpreter's Output surface.
type HIDOutput struct {
	ctx    context.Context
	queue  *hidio.Queue
	worker *hidio.Worker
}

var _ Output = (*HIDOutput)(nil)

// NewHIDOutput creates an Output over a running HID worker.
func NewHIDOutput(ctx context.Context, worker *hidio.Worker) *HIDOutput {
	return &HIDOutput{ctx: ctx, queue: worker.Queue(), worker: worker}
}

func (h *HIDOutput) charEntry(c rune) (keycode.Entry, error) {
	return keycode.ResolveBasic(c)
}

// PressChar implements Output.
func (h *HIDOutput) PressChar(c rune) error {
	return h.queue.Type(h.ctx, string(c), "")
}

// HoldChar implements Output.
func (h *HIDOutput) HoldChar(c rune) error {
	entry, err := h.charEntry(c)
	if err != nil {
		return err
	}
	if entry.Modifier != 0 {
		if err := h.queue.HoldMod(h.ctx, entry.Modifier); err != nil {
			return err
		}
	}
	return h.queue.HoldKeyChar(h.ctx, entry.Keycode)
}

// ReleaseChar implements Output.
func (h *HIDOutput) ReleaseChar(c rune) error {
	entry, err := h.charEntry(c)
	if err != nil {
		return err
	}
	if entry.Modifier != 0 {
		if err := h.queue.ReleaseMod(h.ctx, entry.Modifier); err != nil {
			return err
		}
	}
	return h.queue.ReleaseKeyChar(h.ctx, entry.Keycode)
}

// PressKeycode implements Output.
func (h *HIDOutput) PressKeycode(code byte) error {
	if err := h.HoldKeycode(code); err != nil {
		return err
	}
	if err := h.FlushKeyboard(); err != nil {
		return err
	}
	return h.ReleaseKeycode(code)
}

// HoldKeycode implements Output.
func (h *HIDOutput) HoldKeycode(code byte) error {
	return h.queue.Send(h.ctx, hidio.Command{Kind: hidio.HoldSpecial, Keycode: code})
}

// ReleaseKeycode implements Output.
func (h *HIDOutput) ReleaseKeycode(code byte) error {
	return h.queue.Send(h.ctx, hidio.Command{Kind: hidio.ReleaseSpecial, Keycode: code})
}

// PressModifier implements Output.
func (h *HIDOutput) PressModifier(m keycode.Modifier) error {
	if err := h.queue.HoldMod(h.ctx, m); err != nil {
		return err
	}
	if err := h.FlushKeyboard(); err != nil {
		return err
	}
	return h.queue.ReleaseMod(h.ctx, m)
}

// HoldModifier implements Output.
func (h *HIDOutput) HoldModifier(m keycode.Modifier) error {
	return h.queue.HoldMod(h.ctx, m)
}

// ReleaseModifier implements Output.
func (h *HIDOutput) ReleaseModifier(m keycode.Modifier) error {
	return h.queue.ReleaseMod(h.ctx, m)
}

// PressString implements Output.
func (h *HIDOutput) PressString(s string) error {
	return h.queue.Type(h.ctx, s, "")
}

// PressButton implements Output.
func (h *HIDOutput) PressButton(b hidio.MouseButton) error {
	if err := h.queue.HoldButton(h.ctx, b); err != nil {
		return err
	}
	if err := h.FlushMouse(); err != nil {
		return err
	}
	return h.queue.ReleaseButton(h.ctx, b)
}

// HoldButton implements Output.
func (h *HIDOutput) HoldButton(b hidio.MouseButton) error {
	return h.queue.HoldButton(h.ctx, b)
}

// ReleaseButton implements Output.
func (h *HIDOutput) ReleaseButton(b hidio.MouseButton) error {
	return h.queue.ReleaseButton(h.ctx, b)
}

// MoveMouse implements Output.
func (h *HIDOutput) MoveMouse(x, y int8) error {
	return h.queue.Move(h.ctx, x, y)
}

// LED implements Output: n is 1..5 for NumLock, CapsLock, ScrollLock,
// Compose, Kana.
func (h *HIDOutput) LED(n int) (bool, error) {
	b, err := h.worker.ReadLED()
	if err != nil {
		return false, err
	}
	if n < 1 || n > 5 {
		return false, nil
	}
	return b&(1<<(n-1)) != 0, nil
}

// FlushKeyboard implements Output.
func (h *HIDOutput) FlushKeyboard() error {
	return h.queue.FlushKeyboardReport(h.ctx)
}

// FlushMouse implements Output.
func (h *HIDOutput) FlushMouse() error {
	return h.queue.FlushMouseReport(h.ctx)
}
