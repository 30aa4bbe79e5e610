// SPDX-License-Identifier: BSD-3-Clause

package modulehost

import (
	"encoding/json"
	"fmt"
	"plugin"
)

// FunctionModule is the stable ABI a native function plugin exports as
// its root-module descriptor (the "Module" symbol).
type FunctionModule interface {
	// LoadData loads an opaque configuration blob, returning an
	// instance id.
	LoadData(data []byte) (string, error)
	// Event delivers a state to an instance; the returned string is the
	// JSON-encoded layer command to apply ("None" when there is none).
	Event(id string, state uint16) (string, error)
}

// DriverModule is the stable ABI a native driver plugin exports as its
// root-module descriptor.
type DriverModule interface {
	// LoadData loads an opaque configuration blob, returning an
	// instance id.
	LoadData(data []byte) (string, error)
	// Name returns the driver name of an instance.
	Name(id string) (string, error)
	// Poll reads the instance's full state vector.
	Poll(id string) ([]uint16, error)
	// Set drives an output slot of the instance.
	Set(id string, idx int, state uint16) error
}

// runtime is the uniform contract the worker drives, satisfied by both
// the native and the Python implementations.
type runtime interface {
	loadData(data json.RawMessage) (string, error)
	event(id string, state uint16) (string, error)
	driverName(id string) (string, error)
	poll(id string) ([]uint16, error)
	set(id string, idx int, state uint16) error
	close()
}

// nativeRuntime adapts a loaded plugin's root-module descriptor.
type nativeRuntime struct {
	fn  FunctionModule
	drv DriverModule
}

// openNative loads path and resolves its "Module" symbol against the
// interface the metadata declared.
func openNative(path string, iface Interface) (*nativeRuntime, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadLibrary, path, err)
	}
	sym, err := p.Lookup("Module")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadLibrary, path, err)
	}
	rt := &nativeRuntime{}
	switch iface {
	case InterfaceFunction:
		fn, ok := sym.(FunctionModule)
		if !ok {
			if pfn, ok := sym.(*FunctionModule); ok {
				fn = *pfn
			} else {
				return nil, fmt.Errorf("%w: %s: Module is not a function module", ErrLoadLibrary, path)
			}
		}
		rt.fn = fn
	case InterfaceDriver:
		drv, ok := sym.(DriverModule)
		if !ok {
			if pdrv, ok := sym.(*DriverModule); ok {
				drv = *pdrv
			} else {
				return nil, fmt.Errorf("%w: %s: Module is not a driver module", ErrLoadLibrary, path)
			}
		}
		rt.drv = drv
	}
	return rt, nil
}

func (n *nativeRuntime) loadData(data json.RawMessage) (string, error) {
	if n.fn != nil {
		return n.fn.LoadData(data)
	}
	return n.drv.LoadData(data)
}

func (n *nativeRuntime) event(id string, state uint16) (string, error) {
	if n.fn == nil {
		return "", ErrWrongInterface
	}
	return n.fn.Event(id, state)
}

func (n *nativeRuntime) driverName(id string) (string, error) {
	if n.drv == nil {
		return "", ErrWrongInterface
	}
	return n.drv.Name(id)
}

func (n *nativeRuntime) poll(id string) ([]uint16, error) {
	if n.drv == nil {
		return nil, ErrWrongInterface
	}
	return n.drv.Poll(id)
}

func (n *nativeRuntime) set(id string, idx int, state uint16) error {
	if n.drv == nil {
		return ErrWrongInterface
	}
	return n.drv.Set(id, idx, state)
}

func (n *nativeRuntime) close() {}
