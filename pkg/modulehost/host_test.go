// SPDX-License-Identifier: BSD-3-Clause

package modulehost

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ellabellla/lmklib-sub000/pkg/function"
	"github.com/ellabellla/lmklib-sub000/pkg/state"
)

type fakeRuntime struct {
	loaded []json.RawMessage
	events []uint16
	failOn string
}

func (f *fakeRuntime) loadData(data json.RawMessage) (string, error) {
	if f.failOn == "load" {
		return "", errors.New("load refused")
	}
	f.loaded = append(f.loaded, data)
	return "7", nil
}

func (f *fakeRuntime) event(id string, st uint16) (string, error) {
	if f.failOn == "event" {
		return "", errors.New("event refused")
	}
	f.events = append(f.events, st)
	return `{"Switch":2}`, nil
}

func (f *fakeRuntime) driverName(string) (string, error) { return "ext", nil }
func (f *fakeRuntime) poll(string) ([]uint16, error)     { return []uint16{1, 2}, nil }
func (f *fakeRuntime) set(string, int, uint16) error     { return nil }
func (f *fakeRuntime) close()                            {}

func newTestWorker(t *testing.T, meta Meta, rt runtime) *worker {
	t.Helper()
	lifecycle, err := state.NewModuleLifecycleMachine("module-test")
	if err != nil {
		t.Fatal(err)
	}
	if err := lifecycle.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	_ = lifecycle.Fire(context.Background(), state.TriggerLoadComplete, nil)
	w := &worker{
		meta:      meta,
		rt:        rt,
		lifecycle: lifecycle,
		requests:  make(chan request, 16),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		ids:       make(map[string]string),
	}
	go w.run()
	t.Cleanup(w.stop)
	return w
}

func TestWorkerRoundTrip(t *testing.T) {
	rt := &fakeRuntime{}
	w := newTestWorker(t, Meta{Name: "m", Interface: InterfaceFunction, ModuleType: ImplNative}, rt)

	ctx := context.Background()
	id, err := w.loadData(ctx, json.RawMessage(`{"key":"a"}`))
	if err != nil {
		t.Fatalf("loadData: %v", err)
	}
	if id == "" {
		t.Fatal("loadData returned empty id")
	}

	out, err := w.event(ctx, id, 65535)
	if err != nil {
		t.Fatalf("event: %v", err)
	}
	if out != `{"Switch":2}` {
		t.Fatalf("event reply = %q", out)
	}
	if len(rt.events) != 1 || rt.events[0] != 65535 {
		t.Fatalf("runtime saw events %v", rt.events)
	}
}

func TestWorkerSurfacesModuleErrors(t *testing.T) {
	w := newTestWorker(t, Meta{Name: "m", Interface: InterfaceFunction, ModuleType: ImplNative}, &fakeRuntime{failOn: "event"})

	_, err := w.event(context.Background(), "7", 1)
	if !errors.Is(err, ErrModule) {
		t.Fatalf("error = %v, want ErrModule", err)
	}
	if !w.lifecycle.IsInState(state.StateFailed) {
		t.Fatalf("lifecycle state = %s, want failed", w.lifecycle.CurrentState())
	}
}

func TestStoppedWorkerIsDispatchError(t *testing.T) {
	w := newTestWorker(t, Meta{Name: "m", Interface: InterfaceFunction, ModuleType: ImplNative}, &fakeRuntime{})
	w.stop()

	_, err := w.event(context.Background(), "7", 1)
	if !errors.Is(err, ErrDispatch) {
		t.Fatalf("error = %v, want ErrDispatch", err)
	}
}

func TestParseReturn(t *testing.T) {
	cases := []struct {
		in   string
		want function.ReturnCommand
	}{
		{`"None"`, function.None()},
		{`"Up"`, function.ReturnCommand{Kind: function.ReturnUp}},
		{`"Down"`, function.ReturnCommand{Kind: function.ReturnDown}},
		{`{"Switch":3}`, function.ReturnCommand{Kind: function.ReturnSwitch, Index: 3}},
		{`{"Shift":1}`, function.ReturnCommand{Kind: function.ReturnShift, Index: 1}},
		{`{"UnShift":1}`, function.ReturnCommand{Kind: function.ReturnUnshift, Index: 1}},
		{`garbage`, function.None()},
	}
	for _, c := range cases {
		if got := parseReturn(c.in); got != c.want {
			t.Errorf("parseReturn(%q) = %+v, want %+v", c.in, got, c.want)
		}
	}
}

func TestReadMetaValidates(t *testing.T) {
	dir := t.TempDir()
	writeMeta := func(contents string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, metaFile), []byte(contents), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	writeMeta(`{"name":"osc","interface":"function","module_type":"Python"}`)
	m, err := readMeta(dir)
	if err != nil {
		t.Fatalf("readMeta: %v", err)
	}
	if m.Name != "osc" || m.Interface != InterfaceFunction || m.ModuleType != ImplPython {
		t.Fatalf("meta = %+v", m)
	}

	writeMeta(`{"name":"osc","interface":"widget","module_type":"Python"}`)
	if _, err := readMeta(dir); !errors.Is(err, ErrMeta) {
		t.Fatalf("bad interface error = %v, want ErrMeta", err)
	}

	writeMeta(`{"interface":"function","module_type":"Python"}`)
	if _, err := readMeta(dir); !errors.Is(err, ErrMeta) {
		t.Fatalf("missing name error = %v, want ErrMeta", err)
	}
}

func TestHostRejectsWrongInterface(t *testing.T) {
	h := &Host{modules: map[string]*worker{
		"drv": newTestWorker(t, Meta{Name: "drv", Interface: InterfaceDriver, ModuleType: ImplNative}, &fakeRuntime{}),
	}}

	_, err := h.LoadFunction(context.Background(), "drv", nil)
	if !errors.Is(err, ErrWrongInterface) {
		t.Fatalf("error = %v, want ErrWrongInterface", err)
	}
	_, err = h.LoadFunction(context.Background(), "missing", nil)
	if !errors.Is(err, ErrNoSuchModule) {
		t.Fatalf("error = %v, want ErrNoSuchModule", err)
	}
}
