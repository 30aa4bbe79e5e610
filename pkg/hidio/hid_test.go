// SPDX-License-Identifier: BSD-3-Clause

package hidio

import (
	"context"
	"testing"
)

type fakeBackend struct {
	name      string
	keyboard  [][]byte
	mouse     [][]byte
	led       byte
}

func (f *fakeBackend) Name() string { return f.name }
func (f *fakeBackend) WriteKeyboard(r []byte) error {
	cp := append([]byte(nil), r...)
	f.keyboard = append(f.keyboard, cp)
	return nil
}
func (f *fakeBackend) WriteMouse(r []byte) error {
	cp := append([]byte(nil), r...)
	f.mouse = append(f.mouse, cp)
	return nil
}
func (f *fakeBackend) ReadLED() (byte, error) { return f.led, nil }

func newTestWorker(backend Backend) *Worker {
	w := New(
		WithBackend(backend.Name(), backend),
		WithActiveBackend(backend.Name()),
		WithQueueSize(32),
	)
	w.logger = nil
	return w
}

func TestPressStringRepeatedCharEmitsDistinctDownEvents(t *testing.T) {
	backend := &fakeBackend{name: "usb"}
	w := newTestWorker(backend)
	ctx := context.Background()

	w.apply(ctx, Command{Kind: PressString, Text: "aa"})

	if len(backend.keyboard) < 3 {
		t.Fatalf("want at least 3 keyboard reports, got %d", len(backend.keyboard))
	}

	keyPressed := func(r []byte) bool { return r[2] != 0 }
	if !keyPressed(backend.keyboard[0]) {
		t.Fatalf("report 0 should be a keydown, got %v", backend.keyboard[0])
	}
	if keyPressed(backend.keyboard[1]) {
		t.Fatalf("report 1 should be a keyup, got %v", backend.keyboard[1])
	}
	if !keyPressed(backend.keyboard[2]) {
		t.Fatalf("report 2 should be a keydown, got %v", backend.keyboard[2])
	}
	if backend.keyboard[0][2] != backend.keyboard[2][2] {
		t.Fatalf("both keydowns should carry the same keycode for 'a','a'")
	}
}

func TestHoldReleaseFlushKeyboard(t *testing.T) {
	backend := &fakeBackend{name: "usb"}
	w := newTestWorker(backend)
	ctx := context.Background()

	w.apply(ctx, Command{Kind: HoldKey, Keycode: 0x04})
	w.apply(ctx, Command{Kind: FlushKeyboard})
	w.apply(ctx, Command{Kind: FlushKeyboard})
	w.apply(ctx, Command{Kind: ReleaseKey, Keycode: 0x04})
	w.apply(ctx, Command{Kind: FlushKeyboard})

	if len(backend.keyboard) != 3 {
		t.Fatalf("want 3 reports, got %d", len(backend.keyboard))
	}
	if backend.keyboard[0][2] != 0x04 || backend.keyboard[1][2] != 0x04 {
		t.Fatalf("first two reports should hold 0x04")
	}
	if backend.keyboard[2][2] != 0 {
		t.Fatalf("final report should have released 0x04")
	}
}

func TestSwitchBackendRejectsUnknown(t *testing.T) {
	backend := &fakeBackend{name: "usb"}
	w := newTestWorker(backend)
	ctx := context.Background()

	w.apply(ctx, Command{Kind: SwitchBackend, Backend: "plugin9000"})
	if w.active != "usb" {
		t.Fatalf("active backend should be unchanged, got %q", w.active)
	}

	w.apply(ctx, Command{Kind: SwitchBackend, Backend: "usb"})
	if w.active != "usb" {
		t.Fatalf("switching to the same backend should be idempotent")
	}
}
