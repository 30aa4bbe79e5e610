// SPDX-License-Identifier: BSD-3-Clause

package rpcsrv

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ellabellla/lmklib-sub000/pkg/driver"
	"github.com/ellabellla/lmklib-sub000/pkg/function"
	"github.com/ellabellla/lmklib-sub000/pkg/layout"
	"github.com/ellabellla/lmklib-sub000/pkg/log"
	"github.com/ellabellla/lmklib-sub000/pkg/variables"
)

func newTestRPC(t *testing.T) (*RPC, *layout.Layout, *variables.Table) {
	t.Helper()
	registry := driver.NewRegistry()
	table := variables.NewTable()
	builder := function.NewBuilder(nil, nil, nil, registry, nil, nil, table)

	doc := layout.Document{
		Width:  1,
		Height: 1,
		Layers: [][][]function.Descriptor{
			{{function.NoneDescriptor()}},
			{{function.NoneDescriptor()}},
		},
	}
	l, err := layout.Build(context.Background(), doc, registry, builder)
	if err != nil {
		t.Fatal(err)
	}

	rpc := New(
		WithLayout(l),
		WithVariables(table),
		WithLayoutPath(filepath.Join(t.TempDir(), "layout.json")),
	)
	rpc.logger = log.GetGlobalLogger()
	return rpc, l, table
}

func dispatch(t *testing.T, rpc *RPC, request string) string {
	t.Helper()
	var cmd Command
	if err := json.Unmarshal([]byte(request), &cmd); err != nil {
		return "false"
	}
	return rpc.handle(context.Background(), cmd)
}

func TestLayerCommands(t *testing.T) {
	rpc, l, _ := newTestRPC(t)

	if got := dispatch(t, rpc, `"NumLayers"`); got != "2" {
		t.Fatalf("NumLayers = %q", got)
	}
	if got := dispatch(t, rpc, `"LayerIdx"`); got != "0" {
		t.Fatalf("LayerIdx = %q", got)
	}
	if got := dispatch(t, rpc, `{"SwitchLayer":1}`); got != "true" {
		t.Fatalf("SwitchLayer = %q", got)
	}
	if l.CurrentLayer() != 1 {
		t.Fatalf("current layer = %d", l.CurrentLayer())
	}
	if got := dispatch(t, rpc, `{"SwitchLayer":9}`); got != "false" {
		t.Fatalf("out-of-range SwitchLayer = %q", got)
	}
	if got := dispatch(t, rpc, `"DownLayer"`); got != "true" {
		t.Fatalf("DownLayer = %q", got)
	}
	if got := dispatch(t, rpc, `"DownLayer"`); got != "false" {
		t.Fatalf("DownLayer at floor = %q", got)
	}
}

func TestAddAndRemoveLayer(t *testing.T) {
	rpc, l, _ := newTestRPC(t)

	if got := dispatch(t, rpc, `{"AddLayer":"[[{\"Key\":\"a\"}]]"}`); got != "true" {
		t.Fatalf("AddLayer = %q", got)
	}
	if l.NumLayers() != 3 {
		t.Fatalf("layers = %d, want 3", l.NumLayers())
	}
	if got := dispatch(t, rpc, `{"RemoveLayer":2}`); got != "true" {
		t.Fatalf("RemoveLayer = %q", got)
	}
	if got := dispatch(t, rpc, `{"AddLayer":"[[\"not a grid\""}`); got != "false" {
		t.Fatalf("malformed AddLayer = %q", got)
	}
}

func TestLayerListingIsJSON(t *testing.T) {
	rpc, _, _ := newTestRPC(t)
	got := dispatch(t, rpc, `"Layer"`)
	var grid [][]function.Descriptor
	if err := json.Unmarshal([]byte(got), &grid); err != nil {
		t.Fatalf("Layer reply %q does not decode: %v", got, err)
	}
	if len(grid) != 1 || len(grid[0]) != 1 {
		t.Fatalf("grid shape = %v", grid)
	}
}

func TestVariableCommands(t *testing.T) {
	rpc, _, table := newTestRPC(t)
	table.Create("speed", "3")

	if got := dispatch(t, rpc, `{"GetVariable":"speed"}`); got != `{"ret":"3"}` {
		t.Fatalf("GetVariable = %q", got)
	}
	if got := dispatch(t, rpc, `{"SetVariable":["speed","9"]}`); got != "true" {
		t.Fatalf("SetVariable = %q", got)
	}
	if got := dispatch(t, rpc, `{"GetVariable":"speed"}`); got != `{"ret":"9"}` {
		t.Fatalf("GetVariable after set = %q", got)
	}
	if got := dispatch(t, rpc, `{"GetVariable":"missing"}`); got != `{"ret":null}` {
		t.Fatalf("GetVariable missing = %q", got)
	}

	got := dispatch(t, rpc, `"Variables"`)
	if !strings.Contains(got, `"speed"`) {
		t.Fatalf("Variables listing = %q", got)
	}
}

func TestSaveLayoutWritesDocument(t *testing.T) {
	rpc, _, _ := newTestRPC(t)
	if got := dispatch(t, rpc, `"SaveLayout"`); got != "true" {
		t.Fatalf("SaveLayout = %q", got)
	}
	raw, err := os.ReadFile(rpc.layoutPath)
	if err != nil {
		t.Fatal(err)
	}
	var doc layout.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("saved layout does not decode: %v", err)
	}
	if doc.Width != 1 || len(doc.Layers) != 2 {
		t.Fatalf("saved document = %+v", doc)
	}
}

func TestCommandRoundTrip(t *testing.T) {
	cases := []Command{
		{Kind: CmdLayer},
		{Kind: CmdAddLayer, Layer: "[[]]"},
		{Kind: CmdSwitchLayer, Index: 2},
		{Kind: CmdSetVariable, Name: "a", Value: "b"},
		{Kind: CmdGetVariable, Name: "a"},
	}
	for _, c := range cases {
		raw, err := json.Marshal(c)
		if err != nil {
			t.Fatal(err)
		}
		var decoded Command
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("round-trip of %+v: %v", c, err)
		}
		if decoded != c {
			t.Fatalf("round-trip changed %+v to %+v", c, decoded)
		}
	}
}
