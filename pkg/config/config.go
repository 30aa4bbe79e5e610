// SPDX-License-Identifier: BSD-3-Clause

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ellabellla/lmklib-sub000/pkg/file"
	"github.com/ellabellla/lmklib-sub000/pkg/layout"
)

// Well-known names inside the configuration directory.
const (
	DriversDir   = "drivers"
	ModulesDir   = "modules"
	LayoutFile   = "layout.json"
	FrontendFile = "frontend.json"
	LoggingFile  = "config.yaml"
)

// HIDConfig names the gadget character devices.
type HIDConfig struct {
	Mouse    string `json:"mouse"`
	Keyboard string `json:"keyboard"`
	LED      string `json:"led"`
}

// NanoMsgConfig configures the event-bus publisher.
type NanoMsgConfig struct {
	PubAddr string `json:"pub_addr"`
	SubAddr string `json:"sub_addr"`
	Timeout int64  `json:"timeout"`
}

// RPCConfig names the configuration RPC endpoints.
type RPCConfig struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// Frontend is the decoded frontend.json: a set of variants, each
// present at most once. CommandPool and MidiController are unit
// variants.
type Frontend struct {
	CommandPool    bool
	MidiController bool
	HID            *HIDConfig
	NanoMsg        *NanoMsgConfig
	RPC            *RPCConfig
}

// UnmarshalJSON decodes the variant-set form: a JSON array whose
// entries are either a bare string ("CommandPool") or a single-key
// object ({"HID": {...}}).
func (f *Frontend) UnmarshalJSON(data []byte) error {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("%w: frontend: %w", ErrParse, err)
	}
	for _, entry := range entries {
		entry = bytes.TrimSpace(entry)
		if len(entry) > 0 && entry[0] == '"' {
			var tag string
			if err := json.Unmarshal(entry, &tag); err != nil {
				return fmt.Errorf("%w: frontend: %w", ErrParse, err)
			}
			switch tag {
			case "CommandPool":
				f.CommandPool = true
			case "MidiController":
				f.MidiController = true
			default:
				return fmt.Errorf("%w: frontend variant %q", ErrParse, tag)
			}
			continue
		}
		var tagged map[string]json.RawMessage
		if err := json.Unmarshal(entry, &tagged); err != nil {
			return fmt.Errorf("%w: frontend: %w", ErrParse, err)
		}
		for tag, raw := range tagged {
			var err error
			switch tag {
			case "HID":
				f.HID = &HIDConfig{}
				err = json.Unmarshal(raw, f.HID)
			case "NanoMsg":
				f.NanoMsg = &NanoMsgConfig{}
				err = json.Unmarshal(raw, f.NanoMsg)
			case "RPC":
				f.RPC = &RPCConfig{}
				err = json.Unmarshal(raw, f.RPC)
			default:
				err = fmt.Errorf("unknown variant %q", tag)
			}
			if err != nil {
				return fmt.Errorf("%w: frontend: %w", ErrParse, err)
			}
		}
	}
	return nil
}

// MarshalJSON renders the variant-set form.
func (f Frontend) MarshalJSON() ([]byte, error) {
	var entries []any
	if f.CommandPool {
		entries = append(entries, "CommandPool")
	}
	if f.HID != nil {
		entries = append(entries, map[string]*HIDConfig{"HID": f.HID})
	}
	if f.MidiController {
		entries = append(entries, "MidiController")
	}
	if f.NanoMsg != nil {
		entries = append(entries, map[string]*NanoMsgConfig{"NanoMsg": f.NanoMsg})
	}
	if f.RPC != nil {
		entries = append(entries, map[string]*RPCConfig{"RPC": f.RPC})
	}
	return json.Marshal(entries)
}

// DefaultFrontend is the configuration materialized on first run.
func DefaultFrontend() Frontend {
	return Frontend{
		CommandPool:    true,
		MidiController: true,
		HID: &HIDConfig{
			Mouse:    "/dev/hidg1",
			Keyboard: "/dev/hidg0",
			LED:      "/dev/hidg0",
		},
		NanoMsg: &NanoMsgConfig{
			PubAddr: "layout.event",
			SubAddr: "layout.event",
			Timeout: -1,
		},
		RPC: &RPCConfig{
			Front: "ipc:///lmk/rpc-front.ipc",
			Back:  "ipc:///lmk/rpc-back.ipc",
		},
	}
}

// Logging is the decoded config.yaml.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultLogging is the logging configuration written on first run.
func DefaultLogging() Logging {
	return Logging{Level: "info", Format: "console"}
}

// DriverFile is one entry of drivers/: the file name (driver name) and
// its raw serialized configuration.
type DriverFile struct {
	Name string
	Raw  json.RawMessage
}

// Dir is a loaded configuration directory.
type Dir struct {
	Root     string
	Layout   layout.Document
	Frontend Frontend
	Logging  Logging
	Drivers  []DriverFile
}

// ModulesRoot returns the module directory scanned by the module host.
func (d *Dir) ModulesRoot() string { return filepath.Join(d.Root, ModulesDir) }

// LayoutPath returns the layout document's path for persistence.
func (d *Dir) LayoutPath() string { return filepath.Join(d.Root, LayoutFile) }

// Load reads root, materializing defaults for any missing file.
func Load(root string) (*Dir, error) {
	d := &Dir{Root: root}
	for _, sub := range []string{DriversDir, ModulesDir} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrWriteDefault, sub, err)
		}
	}

	if err := loadJSON(filepath.Join(root, LayoutFile), &d.Layout, defaultLayout); err != nil {
		return nil, err
	}
	if err := loadJSON(filepath.Join(root, FrontendFile), &d.Frontend, DefaultFrontend); err != nil {
		return nil, err
	}
	if err := loadYAML(filepath.Join(root, LoggingFile), &d.Logging, DefaultLogging); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(filepath.Join(root, DriversDir))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRead, DriversDir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		raw, err := os.ReadFile(filepath.Join(root, DriversDir, name))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrRead, name, err)
		}
		if !json.Valid(raw) {
			return nil, fmt.Errorf("%w: driver file %s", ErrParse, name)
		}
		d.Drivers = append(d.Drivers, DriverFile{
			Name: name[:len(name)-len(".json")],
			Raw:  raw,
		})
	}
	return d, nil
}

func defaultLayout() layout.Document {
	return layout.Document{Width: 1, Height: 1}
}

func loadJSON[T any](path string, out *T, def func() T) error {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		*out = def()
		data, err := json.MarshalIndent(*out, "", "  ")
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrWriteDefault, path, err)
		}
		if err := file.AtomicCreateFile(path, data, 0o644); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrWriteDefault, path, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRead, path, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrParse, path, err)
	}
	return nil
}

func loadYAML[T any](path string, out *T, def func() T) error {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		*out = def()
		data, err := yaml.Marshal(*out)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrWriteDefault, path, err)
		}
		if err := file.AtomicCreateFile(path, data, 0o644); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrWriteDefault, path, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRead, path, err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrParse, path, err)
	}
	return nil
}
