// SPDX-License-Identifier: BSD-3-Clause

// Package keycode maps characters to USB HID keyboard usage codes.
//
// A Layout resolves a rune to the (modifier, keycode) pair a real
// keyboard of that locale would send. The "us" layout is built in;
// additional named layouts are registered the same way a plugin driver
// would be, so they can be swapped without touching callers.
package keycode
