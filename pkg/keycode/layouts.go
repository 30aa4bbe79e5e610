// SPDX-License-Identifier: BSD-3-Clause

package keycode

// HID keyboard usage IDs for the alphanumeric block, shared by every
// QWERTY-derived layout; locale tables below only override the entries
// that actually move.
const (
	usageA = 0x04
	usage1 = 0x1E
	usage0 = 0x27
)

func baseQwertyTable() Table {
	t := make(Table, 64)
	for i := 0; i < 26; i++ {
		r := rune('a' + i)
		t[r] = Entry{Keycode: byte(usageA + i)}
		t[rune('A'+i)] = Entry{Modifier: ModLeftShift, Keycode: byte(usageA + i)}
	}
	// Digit row: usage IDs run 1..9,0 rather than 0..9.
	for i := 0; i < 9; i++ {
		t[rune('1'+i)] = Entry{Keycode: byte(usage1 + i)}
	}
	t['0'] = Entry{Keycode: usage0}
	t[' '] = Entry{Keycode: KeySpace}
	t['\t'] = Entry{Keycode: KeyTab}
	t['\n'] = Entry{Keycode: KeyEnter}
	t['\r'] = Entry{Keycode: KeyEnter}
	t['-'] = Entry{Keycode: 0x2D}
	t['='] = Entry{Keycode: 0x2E}
	t['.'] = Entry{Keycode: 0x37}
	t[','] = Entry{Keycode: 0x36}
	t['/'] = Entry{Keycode: 0x38}
	t[';'] = Entry{Keycode: 0x33}
	t['\''] = Entry{Keycode: 0x34}
	t['!'] = Entry{Modifier: ModLeftShift, Keycode: usage1}
	t['@'] = Entry{Modifier: ModLeftShift, Keycode: usage1 + 1}
	t['#'] = Entry{Modifier: ModLeftShift, Keycode: usage1 + 2}
	t['$'] = Entry{Modifier: ModLeftShift, Keycode: usage1 + 3}
	t['%'] = Entry{Modifier: ModLeftShift, Keycode: usage1 + 4}
	t['_'] = Entry{Modifier: ModLeftShift, Keycode: 0x2D}
	t['+'] = Entry{Modifier: ModLeftShift, Keycode: 0x2E}
	t['?'] = Entry{Modifier: ModLeftShift, Keycode: 0x38}
	return t
}

var usTable = baseQwertyTable()

// ukTable differs from us only in the punctuation row; the corpus's
// "uk" layout kept the alphanumeric block identical to "us".
var ukTable = func() Table {
	t := baseQwertyTable()
	t['"'] = Entry{Modifier: ModLeftShift, Keycode: 0x1F} // shift+2 on ISO UK
	t['£'] = Entry{Modifier: ModLeftShift, Keycode: 0x20} // shift+3 on ISO UK
	return t
}()

// deTable is QWERTZ: y and z swap position relative to us.
var deTable = func() Table {
	t := baseQwertyTable()
	t['y'], t['z'] = Entry{Keycode: usageA + 25}, Entry{Keycode: usageA + 24}
	t['Y'], t['Z'] = Entry{Modifier: ModLeftShift, Keycode: usageA + 25}, Entry{Modifier: ModLeftShift, Keycode: usageA + 24}
	return t
}()

// frTable is AZERTY: a/q and w/z swap, and the digit row requires shift.
var frTable = func() Table {
	t := baseQwertyTable()
	t['a'], t['q'] = Entry{Keycode: usageA + 16}, Entry{Keycode: usageA}
	t['w'], t['z'] = Entry{Keycode: usageA + 25}, Entry{Keycode: usageA + 22}
	for i := 0; i < 9; i++ {
		t[rune('1'+i)] = Entry{Modifier: ModLeftShift, Keycode: byte(usage1 + i)}
	}
	t['0'] = Entry{Modifier: ModLeftShift, Keycode: usage0}
	return t
}()
