// SPDX-License-Identifier: BSD-3-Clause

package keycode

import "errors"

var (
	// ErrUnknownLayout indicates a layout name has no registered table.
	ErrUnknownLayout = errors.New("unknown keyboard layout")
	// ErrUnmappedRune indicates a rune has no entry in the layout's table.
	ErrUnmappedRune = errors.New("rune has no keycode in layout")
	// ErrUnknownKeyName indicates a special-key or modifier name with no
	// registered code.
	ErrUnknownKeyName = errors.New("unknown key name")
)
