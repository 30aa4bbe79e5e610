// SPDX-License-Identifier: BSD-3-Clause

package function

import "errors"

var (
	// ErrUnknownDescriptor indicates a descriptor tag the builder does
	// not recognize.
	ErrUnknownDescriptor = errors.New("unknown function descriptor")

	// ErrInvalidDescriptor indicates a descriptor whose parameters do
	// not decode.
	ErrInvalidDescriptor = errors.New("invalid function descriptor")

	// ErrUnknownKey indicates a key or special-key name with no keycode.
	ErrUnknownKey = errors.New("unknown key name")

	// ErrUnknownModifier indicates an unrecognized modifier name.
	ErrUnknownModifier = errors.New("unknown modifier name")

	// ErrModuleCall indicates an external module dispatch failed.
	ErrModuleCall = errors.New("external module call failed")
)
