// SPDX-License-Identifier: BSD-3-Clause

package modulehost

import "errors"

var (
	// ErrNoSuchModule indicates a module name with no loaded worker.
	ErrNoSuchModule = errors.New("no such module")

	// ErrWrongInterface indicates a function call routed to a driver
	// module or vice versa.
	ErrWrongInterface = errors.New("module does not implement the requested interface")

	// ErrMeta indicates a module directory whose meta.json is missing
	// or malformed.
	ErrMeta = errors.New("invalid module metadata")

	// ErrLoadLibrary indicates the module's implementation could not be
	// loaded.
	ErrLoadLibrary = errors.New("failed to load module implementation")

	// ErrModule indicates a call that failed inside the module; the
	// module-supplied message is preserved in the wrap.
	ErrModule = errors.New("module call failed")

	// ErrDispatch indicates a call that could not be delivered to the
	// module's worker.
	ErrDispatch = errors.New("module dispatch failed")
)
