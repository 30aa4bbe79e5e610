// SPDX-License-Identifier: BSD-3-Clause

package driver

import "errors"

var (
	// ErrDuplicateName indicates a driver name is already registered.
	ErrDuplicateName = errors.New("duplicate driver name")
	// ErrNotFound indicates no driver is registered under a given name.
	ErrNotFound = errors.New("driver not found")
	// ErrNotWritable indicates Set was called on a driver/index with no output capability.
	ErrNotWritable = errors.New("driver input is not an output")
	// ErrIndexOutOfRange indicates poll/set addressed an index outside the state vector.
	ErrIndexOutOfRange = errors.New("driver state index out of range")
	// ErrTick indicates a driver's Tick failed (logged by callers, not fatal).
	ErrTick = errors.New("driver tick failed")
)
