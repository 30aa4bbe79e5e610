// SPDX-License-Identifier: BSD-3-Clause

package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMaterializesDefaults(t *testing.T) {
	root := t.TempDir()
	d, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, path := range []string{LayoutFile, FrontendFile, LoggingFile} {
		if _, err := os.Stat(filepath.Join(root, path)); err != nil {
			t.Errorf("default %s not written: %v", path, err)
		}
	}
	if d.Frontend.HID == nil || d.Frontend.HID.Keyboard == "" {
		t.Fatalf("default frontend = %+v", d.Frontend)
	}
	if d.Logging.Level != "info" {
		t.Fatalf("default logging = %+v", d.Logging)
	}

	// A second load reads the materialized files back.
	d2, err := Load(root)
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if d2.Frontend.HID.Keyboard != d.Frontend.HID.Keyboard {
		t.Fatal("frontend did not round-trip")
	}
}

func TestFrontendVariantSet(t *testing.T) {
	raw := `["CommandPool",{"HID":{"mouse":"/dev/hidg1","keyboard":"/dev/hidg0","led":"/dev/hidg0"}},{"RPC":{"front":"a","back":"b"}}]`
	var f Frontend
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		t.Fatal(err)
	}
	if !f.CommandPool || f.MidiController {
		t.Fatalf("unit variants wrong: %+v", f)
	}
	if f.HID == nil || f.HID.Mouse != "/dev/hidg1" {
		t.Fatalf("HID variant wrong: %+v", f.HID)
	}
	if f.RPC == nil || f.RPC.Front != "a" {
		t.Fatalf("RPC variant wrong: %+v", f.RPC)
	}

	out, err := json.Marshal(f)
	if err != nil {
		t.Fatal(err)
	}
	var back Frontend
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatal(err)
	}
	if back.HID == nil || back.HID.Mouse != f.HID.Mouse || back.CommandPool != f.CommandPool {
		t.Fatal("frontend round-trip changed contents")
	}
}

func TestLoadReadsDriverFiles(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, DriversDir), 0o755); err != nil {
		t.Fatal(err)
	}
	driverJSON := `{"name":"main","address":32,"bus":1,"inputs":[]}`
	if err := os.WriteFile(filepath.Join(root, DriversDir, "main.json"), []byte(driverJSON), 0o644); err != nil {
		t.Fatal(err)
	}

	d, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Drivers) != 1 || d.Drivers[0].Name != "main" {
		t.Fatalf("drivers = %+v", d.Drivers)
	}

	if err := os.WriteFile(filepath.Join(root, DriversDir, "bad.json"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(root); err == nil {
		t.Fatal("malformed driver file should fail the load")
	}
}
