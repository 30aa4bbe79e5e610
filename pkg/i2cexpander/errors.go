// SPDX-License-Identifier: BSD-3-Clause

package i2cexpander

import "errors"

var (
	// ErrPinOutOfRange indicates a pin number outside [0,15].
	ErrPinOutOfRange = errors.New("MCP23017 pin out of range")
	// ErrPinReused indicates the same pin is referenced by more than one input.
	ErrPinReused = errors.New("MCP23017 pin reused across inputs")
	// ErrNotOutput indicates Set targeted an index that is not output-capable.
	ErrNotOutput = errors.New("MCP23017 index is not an output")
	// ErrIndexOutOfRange indicates an index outside the driver's state vector.
	ErrIndexOutOfRange = errors.New("MCP23017 state index out of range")
	// ErrBusIO indicates an I²C register read/write failed.
	ErrBusIO = errors.New("MCP23017 bus I/O failed")
	// ErrWorkerStopped indicates a request was made after the worker goroutine exited.
	ErrWorkerStopped = errors.New("MCP23017 worker stopped")
	// ErrConfig indicates a serialized configuration that does not decode.
	ErrConfig = errors.New("invalid MCP23017 configuration")
)
