// SPDX-License-Identifier: BSD-3-Clause

package modulehost

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ellabellla/lmklib-sub000/pkg/driver"
)

// ExternalDriver adapts a driver-module instance onto the driver
// registry's contract. Its state vector is refreshed by Tick through
// the module worker; a failed refresh retains the last good vector.
type ExternalDriver struct {
	module string
	id     string
	name   string
	data   json.RawMessage
	host   *Host

	mu     sync.RWMutex
	states []uint16
}

var _ driver.Driver = (*ExternalDriver)(nil)

// NewExternalDriver loads data into a driver module and wraps the
// resulting instance.
func NewExternalDriver(ctx context.Context, host *Host, module string, data json.RawMessage) (*ExternalDriver, error) {
	instanceID, err := host.LoadDriver(ctx, module, data)
	if err != nil {
		return nil, err
	}
	name, err := host.DriverName(ctx, module, instanceID)
	if err != nil {
		return nil, err
	}
	states, err := host.DriverPoll(ctx, module, instanceID)
	if err != nil {
		return nil, err
	}
	return &ExternalDriver{
		module: module,
		id:     instanceID,
		name:   name,
		data:   data,
		host:   host,
		states: states,
	}, nil
}

// Name implements driver.Driver.
func (d *ExternalDriver) Name() string { return d.name }

// Tick implements driver.Driver.
func (d *ExternalDriver) Tick(ctx context.Context) error {
	states, err := d.host.DriverPoll(ctx, d.module, d.id)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.states = states
	d.mu.Unlock()
	return nil
}

// Poll implements driver.Driver.
func (d *ExternalDriver) Poll(i int) (uint16, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if i < 0 || i >= len(d.states) {
		return 0, fmt.Errorf("%w: index %d", driver.ErrIndexOutOfRange, i)
	}
	return d.states[i], nil
}

// PollRange implements driver.Driver.
func (d *ExternalDriver) PollRange(r driver.Range) ([]uint16, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if r.Start < 0 || r.End > len(d.states) || r.Start > r.End {
		return nil, fmt.Errorf("%w: range %d..%d", driver.ErrIndexOutOfRange, r.Start, r.End)
	}
	return append([]uint16(nil), d.states[r.Start:r.End]...), nil
}

// Set implements driver.Driver.
func (d *ExternalDriver) Set(i int, v uint16) error {
	return d.host.DriverSet(context.Background(), d.module, d.id, i, v)
}

// MarshalState implements driver.Driver.
func (d *ExternalDriver) MarshalState() (json.RawMessage, error) {
	return json.Marshal(struct {
		Module string          `json:"module"`
		Data   json.RawMessage `json:"data"`
	}{d.module, d.data})
}
