// SPDX-License-Identifier: BSD-3-Clause

package keycode

import "fmt"

// specials maps special-key names, as they appear in layout documents
// and scripts, to their USB HID usage codes.
var specials = map[string]byte{
	"Enter":          0x28,
	"Escape":         0x29,
	"Backspace":      0x2A,
	"Tab":            0x2B,
	"Space":          0x2C,
	"CapsLock":       0x39,
	"F1":             0x3A,
	"F2":             0x3B,
	"F3":             0x3C,
	"F4":             0x3D,
	"F5":             0x3E,
	"F6":             0x3F,
	"F7":             0x40,
	"F8":             0x41,
	"F9":             0x42,
	"F10":            0x43,
	"F11":            0x44,
	"F12":            0x45,
	"PrintScreen":    0x46,
	"ScrollLock":     0x47,
	"Pause":          0x48,
	"Insert":         0x49,
	"Home":           0x4A,
	"PageUp":         0x4B,
	"Delete":         0x4C,
	"End":            0x4D,
	"PageDown":       0x4E,
	"RightArrow":     0x4F,
	"LeftArrow":      0x50,
	"DownArrow":      0x51,
	"UpArrow":        0x52,
	"NumLock":        0x53,
	"Menu":           0x65,
	"Mute":           0x7F,
	"VolumeUp":       0x80,
	"VolumeDown":     0x81,
}

// modifiers maps modifier names to their report bits.
var modifiers = map[string]Modifier{
	"LeftCtrl":   ModLeftCtrl,
	"LeftShift":  ModLeftShift,
	"LeftAlt":    ModLeftAlt,
	"LeftGUI":    ModLeftGUI,
	"RightCtrl":  ModRightCtrl,
	"RightShift": ModRightShift,
	"RightAlt":   ModRightAlt,
	"RightGUI":   ModRightGUI,
}

// SpecialByName resolves a special-key name to its usage code.
func SpecialByName(name string) (byte, error) {
	kc, ok := specials[name]
	if !ok {
		return 0, fmt.Errorf("%w: special key %q", ErrUnknownKeyName, name)
	}
	return kc, nil
}

// SpecialName returns the name registered for a special usage code, or
// "" when none is.
func SpecialName(kc byte) string {
	for name, code := range specials {
		if code == kc {
			return name
		}
	}
	return ""
}

// ModifierByName resolves a modifier name to its report bit.
func ModifierByName(name string) (Modifier, error) {
	m, ok := modifiers[name]
	if !ok {
		return 0, fmt.Errorf("%w: modifier %q", ErrUnknownKeyName, name)
	}
	return m, nil
}

// ModifierName returns the name of a single modifier bit, or "".
func ModifierName(m Modifier) string {
	for name, bit := range modifiers {
		if bit == m {
			return name
		}
	}
	return ""
}
