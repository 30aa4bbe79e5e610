// SPDX-License-Identifier: BSD-3-Clause

package hidio

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/ellabellla/lmklib-sub000/pkg/keycode"
	"github.com/ellabellla/lmklib-sub000/pkg/log"
	"github.com/ellabellla/lmklib-sub000/service"
)

// CommandSink is implemented by backends that accept plugin-defined,
// opaque "send command" traffic.
type CommandSink interface {
	SendCommand(data []byte) error
}

// Worker is the single long-lived HID output worker. It owns
// the keyboard/mouse state buffers and the registered backends, and
// drains commands from its Queue serially: there is no cross-command
// reordering.
type Worker struct {
	config
	logger *slog.Logger

	mu        sync.Mutex
	heldKeys  []byte // up to maxKeys simultaneous, in press order
	modifiers keycode.Modifier
	mouseBtn  byte
	mouseDX   int8
	mouseDY   int8
	scroll    int8

	queue *Queue
}

var _ service.Service = (*Worker)(nil)

// New creates a HID worker. Callers obtain a send endpoint with Queue()
// before or after Run starts; sends are buffered up to the queue size
// and block only while that buffer is full.
func New(opts ...Option) *Worker {
	cfg := config{
		name:      "hidio",
		queueSize: 64,
		backends:  make(map[string]Backend),
		maxKeys:   6,
	}
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	return &Worker{
		config: cfg,
		queue:  newQueue(cfg.queueSize),
	}
}

// Queue returns the worker's command send endpoint.
func (w *Worker) Queue() *Queue { return w.queue }

// Name implements service.Service.
func (w *Worker) Name() string { return w.name }

// Run implements service.Service: drains the command channel until ctx
// is canceled. Device write failures are logged and do not stop the
// worker: the next command retries implicitly.
func (w *Worker) Run(ctx context.Context, _ nats.InProcessConnProvider) error {
	w.logger = log.GetGlobalLogger().With("service", w.name)
	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-w.queue.ch:
			w.apply(ctx, cmd)
		}
	}
}

func (w *Worker) apply(ctx context.Context, cmd Command) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch cmd.Kind {
	case HoldKey, HoldSpecial:
		w.holdKeyLocked(cmd.Keycode)
	case ReleaseKey, ReleaseSpecial:
		w.releaseKeyLocked(cmd.Keycode)
	case HoldModifier:
		w.modifiers |= cmd.Modifier
	case ReleaseModifier:
		w.modifiers &^= cmd.Modifier
	case HoldMouseButton:
		w.mouseBtn |= 1 << uint(cmd.Button)
	case ReleaseMouseButton:
		w.mouseBtn &^= 1 << uint(cmd.Button)
	case PressString:
		w.pressStringLocked(ctx, cmd.Text, cmd.Layout)
	case Move:
		w.mouseDX, w.mouseDY = cmd.DX, cmd.DY
		w.flushMouseLocked()
	case Scroll:
		w.scroll = cmd.Amount
		w.flushMouseLocked()
	case FlushKeyboard:
		w.flushKeyboardLocked()
	case FlushMouse:
		w.flushMouseLocked()
	case SwitchBackend:
		w.switchBackendLocked(cmd.Backend)
	case SendBackendCommand:
		w.sendBackendCommandLocked(cmd.Backend, cmd.Data)
	}
}

// pressStringLocked types each character of text individually. A
// release is always flushed between two consecutive characters (even
// identical ones) so that repeated characters produce distinct
// key-down events rather than a single unchanged report the host would not re-trigger on.
func (w *Worker) pressStringLocked(ctx context.Context, text, layout string) {
	for _, r := range text {
		var entry keycode.Entry
		var err error
		if layout == "" {
			entry, err = keycode.ResolveBasic(r)
		} else {
			entry, err = keycode.Resolve(layout, r)
		}
		if err != nil {
			w.logError(ctx, "press-string: unmapped rune", "rune", string(r), "layout", layout, "error", err)
			continue
		}

		if entry.Modifier != 0 {
			w.modifiers |= entry.Modifier
		}
		w.holdKeyLocked(entry.Keycode)
		w.flushKeyboardLocked()
		w.releaseAllLocked()
		if entry.Modifier != 0 {
			w.modifiers &^= entry.Modifier
		}
		w.flushKeyboardLocked()
	}
}

func (w *Worker) holdKeyLocked(kc byte) {
	for _, k := range w.heldKeys {
		if k == kc {
			return
		}
	}
	if len(w.heldKeys) >= w.maxKeys {
		return
	}
	w.heldKeys = append(w.heldKeys, kc)
}

func (w *Worker) releaseKeyLocked(kc byte) {
	for i, k := range w.heldKeys {
		if k == kc {
			w.heldKeys = append(w.heldKeys[:i], w.heldKeys[i+1:]...)
			return
		}
	}
}

func (w *Worker) releaseAllLocked() {
	w.heldKeys = w.heldKeys[:0]
}

func (w *Worker) flushKeyboardLocked() {
	backend := w.backends[w.active]
	if backend == nil {
		return
	}
	report := make([]byte, 8)
	report[0] = byte(w.modifiers)
	for i, k := range w.heldKeys {
		if i >= 6 {
			break
		}
		report[2+i] = k
	}
	if err := backend.WriteKeyboard(report); err != nil && w.logger != nil {
		w.logger.Error("keyboard report write failed", "backend", w.active, "error", err)
	}
}

func (w *Worker) flushMouseLocked() {
	backend := w.backends[w.active]
	if backend == nil {
		return
	}
	report := []byte{w.mouseBtn, byte(w.mouseDX), byte(w.mouseDY), byte(w.scroll)}
	if err := backend.WriteMouse(report); err != nil && w.logger != nil {
		w.logger.Error("mouse report write failed", "backend", w.active, "error", err)
	}
}

func (w *Worker) switchBackendLocked(name string) {
	if _, ok := w.backends[name]; !ok {
		if w.logger != nil {
			w.logger.Error("switch to unknown HID backend rejected", "backend", name)
		}
		return
	}
	w.active = name
}

func (w *Worker) sendBackendCommandLocked(name string, data []byte) {
	backend, ok := w.backends[name]
	if !ok {
		if w.logger != nil {
			w.logger.Error("send command to unknown HID backend rejected", "backend", name)
		}
		return
	}
	sink, ok := backend.(CommandSink)
	if !ok {
		if w.logger != nil {
			w.logger.Error("backend does not accept send commands", "backend", name)
		}
		return
	}
	if err := sink.SendCommand(data); err != nil && w.logger != nil {
		w.logger.Error("backend send command failed", "backend", name, "error", err)
	}
}

// ReadLED reads the LED lock-state byte from the active backend:
// bits 1..5 map to NumLock/CapsLock/ScrollLock/Compose/Kana.
func (w *Worker) ReadLED() (byte, error) {
	w.mu.Lock()
	backend := w.backends[w.active]
	w.mu.Unlock()
	if backend == nil {
		return 0, ErrNoActiveBackend
	}
	return backend.ReadLED()
}

func (w *Worker) logError(ctx context.Context, msg string, args ...any) {
	if w.logger != nil {
		w.logger.ErrorContext(ctx, msg, args...)
	}
}
