// SPDX-License-Identifier: BSD-3-Clause

package layout

import "errors"

var (
	// ErrOutsideBounds indicates an address rectangle reaching beyond
	// the layout plane.
	ErrOutsideBounds = errors.New("binding outside bounds of layout")

	// ErrInUse indicates an address rectangle overlapping an existing
	// binding.
	ErrInUse = errors.New("section already in use")

	// ErrInvalidSize indicates a matrix address whose input range does
	// not divide evenly into rows, or a layer whose shape does not
	// match the layout.
	ErrInvalidSize = errors.New("binding is an invalid size")

	// ErrNoSuchLayer indicates a layer index outside the stack.
	ErrNoSuchLayer = errors.New("no such layer")

	// ErrDecode indicates a layout document that does not parse.
	ErrDecode = errors.New("layout document does not decode")
)
