// SPDX-License-Identifier: BSD-3-Clause

package fschema

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCreateMaterializesTree(t *testing.T) {
	raw := `{
		"root": {
			"functions": {
				"hid.usb0": {
					"protocol": "1",
					"subclass": "1"
				}
			},
			"idVendor": "0x1d6b",
			"strings": {
				"manufacturer": "lmk"
			}
		}
	}`
	s, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	root := t.TempDir()
	if err := s.Create(root); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(root, "functions", "hid.usb0", "protocol"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "1" {
		t.Fatalf("protocol = %q", got)
	}
	got, err = os.ReadFile(filepath.Join(root, "idVendor"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "0x1d6b" {
		t.Fatalf("idVendor = %q", got)
	}
}

func TestCreateLinkAndMode(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "target")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	raw := `{
		"root": {
			"ln": {"data": "` + target + `", "options": {"ftype": "Link"}},
			"script": {"data": "#!/bin/sh\n", "options": {"mode": 493}}
		}
	}`
	s, err := Parse([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Create(root); err != nil {
		t.Fatal(err)
	}

	dest, err := os.Readlink(filepath.Join(root, "ln"))
	if err != nil {
		t.Fatal(err)
	}
	if dest != target {
		t.Fatalf("link dest = %q", dest)
	}
	info, err := os.Stat(filepath.Join(root, "script"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o755 {
		t.Fatalf("mode = %v", info.Mode().Perm())
	}
}

func TestPipeWritesCommandOutput(t *testing.T) {
	raw := `{"root": {"out": {"data": "echo hi", "options": {"ftype": "Pipe"}}}}`
	s, err := Parse([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	root := t.TempDir()
	if err := s.Create(root); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(filepath.Join(root, "out"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hi\n" {
		t.Fatalf("pipe output = %q", got)
	}
}
