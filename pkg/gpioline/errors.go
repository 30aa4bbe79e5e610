// SPDX-License-Identifier: BSD-3-Clause

package gpioline

import "errors"

var (
	// ErrConfig indicates an invalid line configuration.
	ErrConfig = errors.New("invalid gpio line configuration")

	// ErrNotOutput indicates a set on a line configured as input.
	ErrNotOutput = errors.New("gpio line is not an output")

	// ErrRead indicates a line read failure.
	ErrRead = errors.New("gpio line read failed")

	// ErrWrite indicates a line write failure.
	ErrWrite = errors.New("gpio line write failed")
)
