// SPDX-License-Identifier: BSD-3-Clause

package function

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/ellabellla/lmklib-sub000/pkg/driver"
	"github.com/ellabellla/lmklib-sub000/pkg/hidio"
	"github.com/ellabellla/lmklib-sub000/pkg/variables"
)

type fakeBackend struct {
	mu       sync.Mutex
	keyboard [][]byte
	mouse    [][]byte
}

func (f *fakeBackend) Name() string { return "usb" }
func (f *fakeBackend) WriteKeyboard(r []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keyboard = append(f.keyboard, append([]byte(nil), r...))
	return nil
}
func (f *fakeBackend) WriteMouse(r []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mouse = append(f.mouse, append([]byte(nil), r...))
	return nil
}
func (f *fakeBackend) ReadLED() (byte, error) { return 0, nil }

func (f *fakeBackend) keyboardReports() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.keyboard...)
}

// startHID runs a HID worker over a fake backend and returns the queue,
// the backend, and a stop function.
func startHID(t *testing.T) (*hidio.Queue, *fakeBackend, func()) {
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
	return worker.Queue(), backend, func() {
		cancel()
		<-done
	}
}

func waitForReports(t *testing.T, backend *fakeBackend, n int) [][]byte {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		reports := backend.keyboardReports()
		if len(reports) >= n {
			return reports
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d reports, have %d", n, len(reports))
		}
		time.Sleep(time.Millisecond)
	}
}

func TestStateHelpersMidpoint(t *testing.T) {
	if !High(32768) {
		t.Error("32768 should be high")
	}
	if !Low(32767) {
		t.Error("32767 should be low")
	}
	if !Rising(32768, 32767) {
		t.Error("32767→32768 should be rising")
	}
	if Rising(32768, 32768) {
		t.Error("32768→32768 should not be rising")
	}
	if !Falling(0, 65535) {
		t.Error("65535→0 should be falling")
	}
}

func TestKeyEdgeBehavior(t *testing.T) {
	queue, backend, stop := startHID(t)
	defer stop()

	key, err := NewKey('a', queue)
	if err != nil {
		t.Fatalf("NewKey: %v", err)
	}

	ctx := context.Background()
	for _, state := range []State{0, 65535, 65535, 0} {
		key.Event(ctx, state)
	}

	// Rising edge: one report with 'a' held. Sustained high: the same
	// report again. Falling edge: one empty report.
	reports := waitForReports(t, backend, 3)
	if len(reports) != 3 {
		t.Fatalf("got %d reports, want 3", len(reports))
	}
	const keycodeA = 0x04
	if reports[0][2] != keycodeA {
		t.Errorf("first report should hold 'a', got % x", reports[0])
	}
	if reports[1][2] != keycodeA {
		t.Errorf("second report should still hold 'a', got % x", reports[1])
	}
	if !bytes.Equal(reports[2], make([]byte, 8)) {
		t.Errorf("final report should be empty, got % x", reports[2])
	}
}

func TestShortcutPressesModifiersBeforeKeys(t *testing.T) {
	queue, backend, stop := startHID(t)
	defer stop()

	shortcut, err := NewShortcut([]string{"LeftCtrl"}, []shortcutKey{{Char: "c"}}, queue)
	if err != nil {
		t.Fatalf("NewShortcut: %v", err)
	}

	shortcut.Event(context.Background(), 65535)

	reports := waitForReports(t, backend, 2)
	if reports[0][0] == 0 || reports[0][2] == 0 {
		t.Errorf("chord report should carry modifier and key, got % x", reports[0])
	}
	if !bytes.Equal(reports[1], make([]byte, 8)) {
		t.Errorf("release report should be empty, got % x", reports[1])
	}
}

func TestCurveClampsToSignedByte(t *testing.T) {
	if got := curve(1, false, 100, 100); got != 127 {
		t.Errorf("saturated positive curve = %d, want 127", got)
	}
	if got := curve(-1, false, 100, 100); got != -128 {
		t.Errorf("saturated negative curve = %d, want -128", got)
	}
	if got := curve(0, false, 1, 1); got != 0 {
		t.Errorf("centered curve = %d, want 0", got)
	}
	if got := curve(1, true, 100, 100); got != -128 {
		t.Errorf("inverted saturated curve = %d, want -128", got)
	}
}

type stubDriver struct {
	name   string
	states []uint16
	sets   map[int]uint16
}

func (s *stubDriver) Name() string                   { return s.name }
func (s *stubDriver) Tick(context.Context) error     { return nil }
func (s *stubDriver) Poll(i int) (uint16, error)     { return s.states[i], nil }
func (s *stubDriver) PollRange(r driver.Range) ([]uint16, error) {
	return s.states[r.Start:r.End], nil
}
func (s *stubDriver) Set(i int, v uint16) error {
	if s.sets == nil {
		s.sets = make(map[int]uint16)
	}
	s.sets[i] = v
	s.states[i] = v
	return nil
}
func (s *stubDriver) MarshalState() (json.RawMessage, error) { return json.RawMessage(`{}`), nil }

type stubBus struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (s *stubBus) Publish(topic byte, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload := append([]byte{topic}, body...)
	s.payloads = append(s.payloads, payload)
	return nil
}

func TestNanoMsgPayloadFormatting(t *testing.T) {
	registry := driver.NewRegistry()
	if err := registry.Add(&stubDriver{name: "a", states: []uint16{1}}); err != nil {
		t.Fatal(err)
	}
	if err := registry.Add(&stubDriver{name: "b", states: []uint16{2, 3}}); err != nil {
		t.Fatal(err)
	}
	bus := &stubBus{}

	fn := NewNanoMsg(7, "x:#,y:#", []DriverData{
		{Name: "a", Idx: []int{0}},
		{Name: "b", Idx: []int{0, 1}},
	}, registry, bus)

	fn.Event(context.Background(), 65535)

	want := append([]byte{7}, []byte("x:[1],y:[2, 3]")...)
	if len(bus.payloads) != 1 || !bytes.Equal(bus.payloads[0], want) {
		t.Fatalf("published %q, want %q", bus.payloads, want)
	}
}

func TestFlipTogglesOutput(t *testing.T) {
	registry := driver.NewRegistry()
	d := &stubDriver{name: "out", states: []uint16{0}}
	if err := registry.Add(d); err != nil {
		t.Fatal(err)
	}
	table := variables.NewTable()
	b := NewBuilder(nil, nil, nil, registry, nil, nil, table)

	flip := NewFlip("out", b.resolve(ConstParam(0), "0"), registry)
	ctx := context.Background()

	flip.Event(ctx, 65535)
	if d.sets[0] != 0xFFFF {
		t.Fatalf("first flip should set high, got %d", d.sets[0])
	}
	flip.Event(ctx, 0)
	flip.Event(ctx, 65535)
	if d.sets[0] != 0 {
		t.Fatalf("second flip should set low, got %d", d.sets[0])
	}
}

func TestDescriptorRoundTrip(t *testing.T) {
	table := variables.NewTable()
	queue, _, stop := startHID(t)
	defer stop()
	b := NewBuilder(queue, nil, nil, driver.NewRegistry(), nil, nil, table)

	cases := []string{
		`"Up"`,
		`"Down"`,
		`"LeftClick"`,
		`"RightClick"`,
		`{"Key":"a"}`,
		`{"Special":"Enter"}`,
		`{"Modifier":"LeftShift"}`,
		`{"Switch":{"Const":2}}`,
		`{"Shift":{"Const":1}}`,
		`{"String":{"Const":"hello"}}`,
		`{"ConstMove":{"x":{"Const":1},"y":{"Const":-1}}}`,
		`{"Bash":{"Const":"true"}}`,
	}
	ctx := context.Background()
	for _, src := range cases {
		t.Run(src, func(t *testing.T) {
			var d Descriptor
			if err := json.Unmarshal([]byte(src), &d); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			fn, err := b.Build(ctx, d)
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			got := fn.Descriptor()
			if got.Tag != d.Tag {
				t.Fatalf("round-trip tag = %q, want %q", got.Tag, d.Tag)
			}
		})
	}
}

func TestVariableBackedParameterTracksUpdates(t *testing.T) {
	table := variables.NewTable()
	v := newVarValue("speed", json.RawMessage("3"), table)
	if v.i64() != 3 {
		t.Fatalf("initial value = %d, want 3", v.i64())
	}
	table.Update("speed", "7")
	if v.i64() != 7 {
		t.Fatalf("updated value = %d, want 7", v.i64())
	}
}
