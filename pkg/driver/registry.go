// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/ellabellla/lmklib-sub000/pkg/log"
)

// Registry owns a name→Driver map and is the sole object the layout
// engine's tick loop talks to.
type Registry struct {
	mu      sync.RWMutex
	drivers map[string]Driver
	order   []string
	logger  *slog.Logger
}

// NewRegistry creates an empty driver registry.
func NewRegistry() *Registry {
	return &Registry{
		drivers: make(map[string]Driver),
		logger:  log.GetGlobalLogger().With("component", "driver.Registry"),
	}
}

// Add registers d under its own Name(). Driver names are unique within
// a registry; a duplicate is rejected.
func (r *Registry) Add(d Driver) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := d.Name()
	if _, exists := r.drivers[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	r.drivers[name] = d
	r.order = append(r.order, name)
	return nil
}

// Remove drops a driver from the registry.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.drivers, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Get returns the driver registered under name.
func (r *Registry) Get(name string) (Driver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.drivers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return d, nil
}

// Tick invokes Tick on every registered driver sequentially, in
// registration order. A failing driver's error is logged
// and does not stop the pass over the remaining drivers.
func (r *Registry) Tick(ctx context.Context) {
	r.mu.RLock()
	names := append([]string(nil), r.order...)
	r.mu.RUnlock()

	for _, name := range names {
		r.mu.RLock()
		d, ok := r.drivers[name]
		r.mu.RUnlock()
		if !ok {
			continue
		}
		if err := d.Tick(ctx); err != nil {
			r.logger.ErrorContext(ctx, "driver tick failed", "driver", name, "error", err)
		}
	}
}

// Names returns the registered driver names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// MarshalState serializes every registered driver's configuration,
// keyed by name.
func (r *Registry) MarshalState() (json.RawMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]json.RawMessage, len(r.drivers))
	for name, d := range r.drivers {
		raw, err := d.MarshalState()
		if err != nil {
			return nil, fmt.Errorf("marshal driver %s: %w", name, err)
		}
		out[name] = raw
	}
	return json.Marshal(out)
}

// ValidateUnique checks that a set of names contains no duplicates,
// used when deserializing a driver configuration directory.
func ValidateUnique(names []string) error {
	seen := make(map[string]struct{}, len(names))
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	for _, n := range sorted {
		if _, ok := seen[n]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateName, n)
		}
		seen[n] = struct{}{}
	}
	return nil
}
