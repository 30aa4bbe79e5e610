// SPDX-License-Identifier: BSD-3-Clause

package modulehost

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/ellabellla/lmklib-sub000/pkg/function"
	"github.com/ellabellla/lmklib-sub000/pkg/log"
)

// Host owns the loaded module workers, keyed by module name.
type Host struct {
	modules map[string]*worker
	logger  *slog.Logger
}

var _ function.Host = (*Host)(nil)

// Load scans root for module directories and starts a worker for each
// one. A directory that fails to load is logged and skipped; the
// remaining modules still come up.
func Load(root string) (*Host, error) {
	logger := log.GetGlobalLogger().With("component", "modulehost")
	h := &Host{modules: make(map[string]*worker), logger: logger}

	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return h, nil
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrMeta, root, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		dir := filepath.Join(root, name)
		meta, err := readMeta(dir)
		if err != nil {
			logger.Error("skipping module directory", "dir", dir, "error", err)
			continue
		}
		w, err := startWorker(meta, implementationPath(dir, meta.ModuleType))
		if err != nil {
			logger.Error("module failed to load", "module", meta.Name, "error", err)
			continue
		}
		h.modules[meta.Name] = w
		logger.Info("module loaded", "module", meta.Name, "interface", meta.Interface, "type", meta.ModuleType)
	}
	return h, nil
}

// Close stops every module worker.
func (h *Host) Close() {
	for _, w := range h.modules {
		w.stop()
	}
}

// Names returns the loaded module names.
func (h *Host) Names() []string {
	names := make([]string, 0, len(h.modules))
	for name := range h.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// get resolves a module worker of the wanted interface.
func (h *Host) get(name string, iface Interface) (*worker, error) {
	w, ok := h.modules[name]
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", ErrDispatch, ErrNoSuchModule, name)
	}
	if w.meta.Interface != iface {
		return nil, fmt.Errorf("%w: %s is a %s module", ErrWrongInterface, name, w.meta.Interface)
	}
	return w, nil
}

// LoadFunction implements function.Host.
func (h *Host) LoadFunction(ctx context.Context, module string, data json.RawMessage) (string, error) {
	w, err := h.get(module, InterfaceFunction)
	if err != nil {
		return "", err
	}
	return w.loadData(ctx, data)
}

// FunctionEvent implements function.Host.
func (h *Host) FunctionEvent(ctx context.Context, module, id string, state uint16) (function.ReturnCommand, error) {
	w, err := h.get(module, InterfaceFunction)
	if err != nil {
		return function.None(), err
	}
	encoded, err := w.event(ctx, id, state)
	if err != nil {
		return function.None(), err
	}
	return parseReturn(encoded), nil
}

// LoadDriver loads data into a driver module, returning the instance id.
func (h *Host) LoadDriver(ctx context.Context, module string, data json.RawMessage) (string, error) {
	w, err := h.get(module, InterfaceDriver)
	if err != nil {
		return "", err
	}
	return w.loadData(ctx, data)
}

// DriverName reads the driver name of a loaded driver instance.
func (h *Host) DriverName(ctx context.Context, module, id string) (string, error) {
	w, err := h.get(module, InterfaceDriver)
	if err != nil {
		return "", err
	}
	return w.driverName(ctx, id)
}

// DriverPoll reads the full state vector of a loaded driver instance.
func (h *Host) DriverPoll(ctx context.Context, module, id string) ([]uint16, error) {
	w, err := h.get(module, InterfaceDriver)
	if err != nil {
		return nil, err
	}
	return w.poll(ctx, id)
}

// DriverSet drives an output slot of a loaded driver instance.
func (h *Host) DriverSet(ctx context.Context, module, id string, idx int, state uint16) error {
	w, err := h.get(module, InterfaceDriver)
	if err != nil {
		return err
	}
	return w.set(ctx, id, idx, state)
}

// parseReturn decodes a module's layer-command reply: "None", "Up",
// "Down", {"Switch":n}, {"Shift":n}, or {"UnShift":n}. Anything else
// is treated as no command.
func parseReturn(encoded string) function.ReturnCommand {
	var tag string
	if json.Unmarshal([]byte(encoded), &tag) == nil {
		switch tag {
		case "Up":
			return function.ReturnCommand{Kind: function.ReturnUp}
		case "Down":
			return function.ReturnCommand{Kind: function.ReturnDown}
		}
		return function.None()
	}
	var tagged map[string]int
	if json.Unmarshal([]byte(encoded), &tagged) == nil && len(tagged) == 1 {
		for tag, index := range tagged {
			switch tag {
			case "Switch":
				return function.ReturnCommand{Kind: function.ReturnSwitch, Index: index}
			case "Shift":
				return function.ReturnCommand{Kind: function.ReturnShift, Index: index}
			case "UnShift":
				return function.ReturnCommand{Kind: function.ReturnUnshift, Index: index}
			}
		}
	}
	return function.None()
}
