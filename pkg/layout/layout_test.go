// SPDX-License-Identifier: BSD-3-Clause

package layout

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/ellabellla/lmklib-sub000/pkg/driver"
	"github.com/ellabellla/lmklib-sub000/pkg/function"
	"github.com/ellabellla/lmklib-sub000/pkg/hidio"
	"github.com/ellabellla/lmklib-sub000/pkg/variables"
)

type fakeDriver struct {
	mu     sync.Mutex
	name   string
	states []uint16
}

func (f *fakeDriver) Name() string               { return f.name }
func (f *fakeDriver) Tick(context.Context) error { return nil }
func (f *fakeDriver) Poll(i int) (uint16, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.states[i], nil
}
func (f *fakeDriver) PollRange(r driver.Range) ([]uint16, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint16(nil), f.states[r.Start:r.End]...), nil
}
func (f *fakeDriver) Set(i int, v uint16) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[i] = v
	return nil
}
func (f *fakeDriver) MarshalState() (json.RawMessage, error) { return json.RawMessage(`{}`), nil }

func (f *fakeDriver) set(i int, v uint16) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[i] = v
}

type fakeBackend struct {
	mu       sync.Mutex
	keyboard [][]byte
}

func (f *fakeBackend) Name() string { return "usb" }
func (f *fakeBackend) WriteKeyboard(r []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keyboard = append(f.keyboard, append([]byte(nil), r...))
	return nil
}
func (f *fakeBackend) WriteMouse([]byte) error { return nil }
func (f *fakeBackend) ReadLED() (byte, error)  { return 0, nil }

func (f *fakeBackend) heldKeys() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	var held []byte
	for _, report := range f.keyboard {
		for _, kc := range report[2:] {
			if kc != 0 {
				held = append(held, kc)
			}
		}
	}
	return held
}

func (f *fakeBackend) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keyboard = nil
}

type fixture struct {
	layout  *Layout
	drivers *driver.Registry
	backend *fakeBackend
	kb      *fakeDriver
	stop    func()
}

func newFixture(t *testing.T, doc Document) *fixture {
	t.Helper()
	backend := &fakeBackend{}
	worker := hidio.New(
		hidio.WithBackend(backend.Name(), backend),
		hidio.WithActiveBackend(backend.Name()),
	)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx, nil)
		close(done)
	}()

	registry := driver.NewRegistry()
	kb := &fakeDriver{name: "kb", states: make([]uint16, 8)}
	if err := registry.Add(kb); err != nil {
		t.Fatal(err)
	}

	builder := function.NewBuilder(worker.Queue(), nil, nil, registry, nil, nil, variables.NewTable())
	l, err := Build(context.Background(), doc, registry, builder)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return &fixture{
		layout:  l,
		drivers: registry,
		backend: backend,
		kb:      kb,
		stop: func() {
			cancel()
			<-done
		},
	}
}

// settle waits for the HID worker to drain what the poll enqueued.
func settle() { time.Sleep(20 * time.Millisecond) }

func key(c string) function.Descriptor {
	return function.Descriptor{Tag: "Key", Params: json.RawMessage(`"` + c + `"`)}
}

func none() function.Descriptor { return function.NoneDescriptor() }

func TestBindRejectsOverlapAndOutOfBounds(t *testing.T) {
	l := New(2, 2, driver.NewRegistry(), nil)

	if err := l.Bind(Address{Kind: AddressSingle, Name: "kb", Index: 0, Root: [2]int{0, 0}}); err != nil {
		t.Fatalf("first bind: %v", err)
	}
	err := l.Bind(Address{Kind: AddressSingle, Name: "kb", Index: 1, Root: [2]int{0, 0}})
	if !errors.Is(err, ErrInUse) {
		t.Fatalf("overlapping bind error = %v, want ErrInUse", err)
	}
	err = l.Bind(Address{Kind: AddressSingle, Name: "kb", Index: 2, Root: [2]int{2, 0}})
	if !errors.Is(err, ErrOutsideBounds) {
		t.Fatalf("out-of-bounds bind error = %v, want ErrOutsideBounds", err)
	}
	err = l.Bind(Address{Kind: AddressMatrix, Name: "kb", Input: driver.Range{Start: 0, End: 3}, Width: 2, Root: [2]int{0, 1}})
	if !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("ragged matrix bind error = %v, want ErrInvalidSize", err)
	}
}

func TestKeystrokeScenario(t *testing.T) {
	doc := Document{
		Width:  1,
		Height: 1,
		Bound: []Address{
			{Kind: AddressSingle, Name: "kb", Index: 0, Root: [2]int{0, 0}},
		},
		Layers: [][][]function.Descriptor{{{key("a")}}},
	}
	f := newFixture(t, doc)
	defer f.stop()

	ctx := context.Background()
	for _, state := range []uint16{0, 65535, 65535, 0} {
		f.kb.set(0, state)
		f.layout.Poll(ctx)
	}
	settle()

	reports := f.backend.keyboard
	if len(reports) != 3 {
		t.Fatalf("got %d reports, want 3 (hold, sustained, release)", len(reports))
	}
	const keycodeA = 0x04
	if reports[0][2] != keycodeA || reports[1][2] != keycodeA || reports[2][2] != 0 {
		t.Fatalf("report sequence wrong: %v", reports)
	}
}

func TestShiftOverlayScenario(t *testing.T) {
	shift1 := function.Descriptor{Tag: "Shift", Params: json.RawMessage(`{"Const":1}`)}
	doc := Document{
		Width:  2,
		Height: 2,
		Bound: []Address{
			{Kind: AddressSingle, Name: "kb", Index: 0, Root: [2]int{0, 0}},
			{Kind: AddressSingle, Name: "kb", Index: 1, Root: [2]int{1, 0}},
			{Kind: AddressSingle, Name: "kb", Index: 2, Root: [2]int{0, 1}},
		},
		Layers: [][][]function.Descriptor{
			{{key("x"), none()}, {shift1, none()}},
			{{none(), key("y")}, {none(), none()}},
		},
	}
	f := newFixture(t, doc)
	defer f.stop()
	ctx := context.Background()

	// Shift cell high and (0,0) high: layer commands apply after the full
	// pass, so (0,0) still dispatches on layer 0's 'x' and the shift then
	// makes layer 1 current.
	f.kb.set(2, 65535)
	f.kb.set(0, 65535)
	f.layout.Poll(ctx)
	settle()
	held := f.backend.heldKeys()
	const keycodeX, keycodeY = 0x1B, 0x1C
	if len(held) == 0 || held[0] != keycodeX {
		t.Fatalf("expected fall-through hold of 'x', held=%v", held)
	}
	if f.layout.CurrentLayer() != 1 {
		t.Fatalf("current layer = %d, want 1", f.layout.CurrentLayer())
	}

	// Releasing everything then pressing (1,0) with shift low: layer 0 is
	// current again and its cell (1,0) is empty — nothing typed.
	f.kb.set(0, 0)
	f.kb.set(2, 0)
	f.layout.Poll(ctx)
	if f.layout.CurrentLayer() != 0 {
		t.Fatalf("unshift should restore layer 0, got %d", f.layout.CurrentLayer())
	}
	f.backend.reset()
	f.kb.set(1, 65535)
	f.layout.Poll(ctx)
	settle()
	if held := f.backend.heldKeys(); len(held) != 0 {
		t.Fatalf("expected no output on layer 0, held=%v", held)
	}
	f.kb.set(1, 0)
	f.layout.Poll(ctx)

	// Shift high and (1,0) high: layer 1's 'y' runs.
	f.backend.reset()
	f.kb.set(2, 65535)
	f.layout.Poll(ctx)
	f.kb.set(1, 65535)
	f.layout.Poll(ctx)
	settle()
	held = f.backend.heldKeys()
	if len(held) == 0 || held[0] != keycodeY {
		t.Fatalf("expected hold of 'y' on shifted layer, held=%v", held)
	}
}

func TestShiftTraceDiscipline(t *testing.T) {
	grid := [][]function.Descriptor{{none()}}
	doc := Document{
		Width:  1,
		Height: 1,
		Layers: [][][]function.Descriptor{grid, grid, grid},
	}
	f := newFixture(t, doc)
	defer f.stop()
	l := f.layout

	depth := l.NumLayers()
	if err := l.Shift(1); err != nil {
		t.Fatal(err)
	}
	if err := l.Shift(2); err != nil {
		t.Fatal(err)
	}
	// Unshift the interior entry: current stays at the topmost shift.
	if err := l.Unshift(1); err != nil {
		t.Fatal(err)
	}
	if l.CurrentLayer() != 2 {
		t.Fatalf("interior unshift moved current to %d", l.CurrentLayer())
	}
	// Unshift the topmost entry: restores its recorded start.
	if err := l.Unshift(2); err != nil {
		t.Fatal(err)
	}
	if l.CurrentLayer() != 1 {
		t.Fatalf("topmost unshift restored %d, want 1", l.CurrentLayer())
	}
	if l.NumLayers() != depth {
		t.Fatalf("stack depth changed: %d → %d", depth, l.NumLayers())
	}
}

func TestSwitchIdempotentAndUpDown(t *testing.T) {
	grid := [][]function.Descriptor{{none()}}
	doc := Document{
		Width:  1,
		Height: 1,
		Layers: [][][]function.Descriptor{grid, grid},
	}
	f := newFixture(t, doc)
	defer f.stop()
	l := f.layout

	if err := l.SwitchLayer(1); err != nil {
		t.Fatal(err)
	}
	if err := l.SwitchLayer(1); err != nil {
		t.Fatal(err)
	}
	if l.CurrentLayer() != 1 {
		t.Fatalf("switch not idempotent, current = %d", l.CurrentLayer())
	}

	if err := l.SwitchLayer(0); err != nil {
		t.Fatal(err)
	}
	if err := l.UpLayer(); err != nil {
		t.Fatal(err)
	}
	if err := l.DownLayer(); err != nil {
		t.Fatal(err)
	}
	if l.CurrentLayer() != 0 {
		t.Fatalf("up;down should return to 0, got %d", l.CurrentLayer())
	}
}

func TestEmptyStackPollIsNoOp(t *testing.T) {
	doc := Document{
		Width:  1,
		Height: 1,
		Bound: []Address{
			{Kind: AddressSingle, Name: "kb", Index: 0, Root: [2]int{0, 0}},
		},
	}
	f := newFixture(t, doc)
	defer f.stop()

	f.kb.set(0, 65535)
	f.layout.Poll(context.Background())
	settle()
	if len(f.backend.keyboard) != 0 {
		t.Fatalf("empty stack emitted %d reports", len(f.backend.keyboard))
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	doc := Document{
		Width:  3,
		Height: 2,
		Bound: []Address{
			{Kind: AddressMatrix, Name: "kb", Input: driver.Range{Start: 0, End: 4}, Width: 2, Root: [2]int{0, 0}},
			{Kind: AddressSingle, Name: "kb", Index: 4, Root: [2]int{2, 0}},
		},
		Layers: [][][]function.Descriptor{
			{
				{key("a"), key("b"), none()},
				{key("c"), none(), none()},
			},
		},
	}
	f := newFixture(t, doc)
	defer f.stop()

	got := f.layout.Document()
	if !reflect.DeepEqual(got.Bound, doc.Bound) {
		t.Fatalf("addresses changed: %+v vs %+v", got.Bound, doc.Bound)
	}

	raw, err := json.Marshal(got)
	if err != nil {
		t.Fatal(err)
	}
	var decoded Document
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	rebuilt := newFixture(t, decoded)
	defer rebuilt.stop()
	if !reflect.DeepEqual(rebuilt.layout.Document().Bound, doc.Bound) {
		t.Fatalf("re-deserialized addresses changed")
	}
	if got, want := rebuilt.layout.Document().Layers[0][0][0].Tag, "Key"; got != want {
		t.Fatalf("layer cell tag = %q, want %q", got, want)
	}
}
