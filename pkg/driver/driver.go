// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"context"
	"encoding/json"
)

// Range is a contiguous slice of a driver's state vector, used by
// Driver.PollRange and by Address matrix bindings.
type Range struct {
	Start int
	End   int // exclusive
}

// Len reports the number of indices in r.
func (r Range) Len() int { return r.End - r.Start }

// Driver is a named source (and optional sink) of u16 states. Implementations are expected to be fast and non-blocking at
// this layer; a driver that talks to slow hardware owns its own worker
// thread internally and treats Tick/Poll/Set as request/reply against
// it (e.g. pkg/i2cexpander).
type Driver interface {
	// Name returns the driver's unique name.
	Name() string
	// Tick refreshes the driver's internal state vector.
	Tick(ctx context.Context) error
	// Poll reads a single scalar from the state vector.
	Poll(i int) (uint16, error)
	// PollRange reads a contiguous slice of the state vector.
	PollRange(r Range) ([]uint16, error)
	// Set writes v to index i if that index is output-capable.
	Set(i int, v uint16) error
	// MarshalState returns the driver's serialized configuration.
	MarshalState() (json.RawMessage, error)
}
