// SPDX-License-Identifier: BSD-3-Clause

package modulehost

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const metaFile = "meta.json"

// Interface names a module's kind.
type Interface string

const (
	// InterfaceFunction marks a module exposing binding functions.
	InterfaceFunction Interface = "function"
	// InterfaceDriver marks a module exposing input drivers.
	InterfaceDriver Interface = "driver"
)

// Implementation names a module's implementation type.
type Implementation string

const (
	// ImplNative is a shared object exposing the stable plugin ABI.
	ImplNative Implementation = "ABIStable"
	// ImplPython is a Python file bridged over a subprocess.
	ImplPython Implementation = "Python"
)

// Meta is the contents of a module directory's meta.json.
type Meta struct {
	Name       string         `json:"name"`
	Interface  Interface      `json:"interface"`
	ModuleType Implementation `json:"module_type"`
}

// readMeta loads and validates dir/meta.json.
func readMeta(dir string) (Meta, error) {
	raw, err := os.ReadFile(filepath.Join(dir, metaFile))
	if err != nil {
		return Meta{}, fmt.Errorf("%w: %s: %w", ErrMeta, dir, err)
	}
	var m Meta
	if err := json.Unmarshal(raw, &m); err != nil {
		return Meta{}, fmt.Errorf("%w: %s: %w", ErrMeta, dir, err)
	}
	if m.Name == "" {
		return Meta{}, fmt.Errorf("%w: %s: missing name", ErrMeta, dir)
	}
	switch m.Interface {
	case InterfaceFunction, InterfaceDriver:
	default:
		return Meta{}, fmt.Errorf("%w: %s: interface %q", ErrMeta, dir, m.Interface)
	}
	switch m.ModuleType {
	case ImplNative, ImplPython:
	default:
		return Meta{}, fmt.Errorf("%w: %s: module_type %q", ErrMeta, dir, m.ModuleType)
	}
	return m, nil
}

// implementationPath returns the module's code file for its type.
func implementationPath(dir string, impl Implementation) string {
	if impl == ImplPython {
		return filepath.Join(dir, "module.py")
	}
	return filepath.Join(dir, "module.so")
}
