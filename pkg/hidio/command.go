// SPDX-License-Identifier: BSD-3-Clause

package hidio

import (
	"context"

	"github.com/ellabellla/lmklib-sub000/pkg/keycode"
)

// MouseButton names one of the three buttons the mouse state tracks.
type MouseButton int

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle
)

// Kind tags the variant of a Command.
type Kind int

const (
	HoldKey Kind = iota
	ReleaseKey
	HoldSpecial
	ReleaseSpecial
	HoldModifier
	ReleaseModifier
	HoldMouseButton
	ReleaseMouseButton
	PressString
	Scroll
	Move
	FlushKeyboard
	FlushMouse
	SwitchBackend
	SendBackendCommand
)

// Command is one tagged record enqueued on the HID worker's channel
//. Only the fields relevant to Kind are read.
type Command struct {
	Kind Kind

	Keycode  byte
	Modifier keycode.Modifier
	Button   MouseButton

	Text   string
	Layout string // "" selects the plain ASCII press-string path

	DX, DY int8
	Amount int8

	Backend string
	Data    []byte
}

// Queue is the multi-producer send endpoint callers hold instead of a
// Backend reference.
type Queue struct {
	ch chan Command
}

func newQueue(size int) *Queue {
	return &Queue{ch: make(chan Command, size)}
}

// Send enqueues cmd, blocking if the channel is full. It respects ctx
// cancellation so a caller never deadlocks against a dead worker.
func (q *Queue) Send(ctx context.Context, cmd Command) error {
	select {
	case q.ch <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HoldKeyChar enqueues holding keycode kc.
func (q *Queue) HoldKeyChar(ctx context.Context, kc byte) error {
	return q.Send(ctx, Command{Kind: HoldKey, Keycode: kc})
}

// ReleaseKeyChar enqueues releasing kc.
func (q *Queue) ReleaseKeyChar(ctx context.Context, kc byte) error {
	return q.Send(ctx, Command{Kind: ReleaseKey, Keycode: kc})
}

// HoldMod enqueues holding a modifier bit.
func (q *Queue) HoldMod(ctx context.Context, m keycode.Modifier) error {
	return q.Send(ctx, Command{Kind: HoldModifier, Modifier: m})
}

// ReleaseMod enqueues releasing a modifier bit.
func (q *Queue) ReleaseMod(ctx context.Context, m keycode.Modifier) error {
	return q.Send(ctx, Command{Kind: ReleaseModifier, Modifier: m})
}

// HoldButton enqueues pressing a mouse button.
func (q *Queue) HoldButton(ctx context.Context, b MouseButton) error {
	return q.Send(ctx, Command{Kind: HoldMouseButton, Button: b})
}

// ReleaseButton enqueues releasing a mouse button.
func (q *Queue) ReleaseButton(ctx context.Context, b MouseButton) error {
	return q.Send(ctx, Command{Kind: ReleaseMouseButton, Button: b})
}

// Type enqueues typing text. layout == "" selects the plain ASCII table
// (space/tab/newline map to their scancodes); a non-empty layout name
// resolves each character through that named keyboard-layout table.
func (q *Queue) Type(ctx context.Context, text, layout string) error {
	return q.Send(ctx, Command{Kind: PressString, Text: text, Layout: layout})
}

// Move enqueues a relative mouse move.
func (q *Queue) Move(ctx context.Context, dx, dy int8) error {
	return q.Send(ctx, Command{Kind: Move, DX: dx, DY: dy})
}

// ScrollBy enqueues a relative scroll.
func (q *Queue) ScrollBy(ctx context.Context, amount int8) error {
	return q.Send(ctx, Command{Kind: Scroll, Amount: amount})
}

// FlushKeyboardReport enqueues serializing the accumulated keyboard state as
// one report.
func (q *Queue) FlushKeyboardReport(ctx context.Context) error {
	return q.Send(ctx, Command{Kind: FlushKeyboard})
}

// FlushMouseReport enqueues serializing the accumulated mouse state as
// one report.
func (q *Queue) FlushMouseReport(ctx context.Context) error {
	return q.Send(ctx, Command{Kind: FlushMouse})
}

// SwitchActiveBackend enqueues switching the active HID backend.
func (q *Queue) SwitchActiveBackend(ctx context.Context, name string) error {
	return q.Send(ctx, Command{Kind: SwitchBackend, Backend: name})
}

// SendToBackend enqueues a plugin-defined opaque command for the named backend.
func (q *Queue) SendToBackend(ctx context.Context, name string, data []byte) error {
	return q.Send(ctx, Command{Kind: SendBackendCommand, Backend: name, Data: data})
}
