// SPDX-License-Identifier: BSD-3-Clause

package function

import (
	"context"
	"encoding/json"

	"github.com/ellabellla/lmklib-sub000/pkg/hidio"
	"github.com/ellabellla/lmklib-sub000/pkg/keycode"
)

// Key holds a plain character key while its state is high.
type Key struct {
	char      rune
	keycode   byte
	modifier  keycode.Modifier
	prevState State
	hid       *hidio.Queue
}

// NewKey builds a Key from a printable character.
func NewKey(char rune, hid *hidio.Queue) (*Key, error) {
	entry, err := keycode.ResolveBasic(char)
	if err != nil {
		return nil, err
	}
	return &Key{char: char, keycode: entry.Keycode, modifier: entry.Modifier, hid: hid}, nil
}

// Event implements Function.
func (k *Key) Event(ctx context.Context, state State) ReturnCommand {
	if Rising(state, k.prevState) {
		if k.modifier != 0 {
			_ = k.hid.HoldMod(ctx, k.modifier)
		}
		_ = k.hid.HoldKeyChar(ctx, k.keycode)
		_ = k.hid.FlushKeyboardReport(ctx)
	} else if Falling(state, k.prevState) {
		_ = k.hid.ReleaseKeyChar(ctx, k.keycode)
		if k.modifier != 0 {
			_ = k.hid.ReleaseMod(ctx, k.modifier)
		}
		_ = k.hid.FlushKeyboardReport(ctx)
	} else if High(state) {
		// A sustained high re-sends the unchanged report; the key stays
		// held without a second key-down.
		_ = k.hid.FlushKeyboardReport(ctx)
	}
	k.prevState = state
	return None()
}

// Descriptor implements Function.
func (k *Key) Descriptor() Descriptor {
	return describe("Key", string(k.char))
}

// Special holds a named special key (Enter, F1, arrows, ...) while its
// state is high.
type Special struct {
	name      string
	keycode   byte
	prevState State
	hid       *hidio.Queue
}

// NewSpecial builds a Special from its key name.
func NewSpecial(name string, hid *hidio.Queue) (*Special, error) {
	kc, err := keycode.SpecialByName(name)
	if err != nil {
		return nil, err
	}
	return &Special{name: name, keycode: kc, hid: hid}, nil
}

// Event implements Function.
func (s *Special) Event(ctx context.Context, state State) ReturnCommand {
	if Rising(state, s.prevState) {
		_ = s.hid.Send(ctx, hidio.Command{Kind: hidio.HoldSpecial, Keycode: s.keycode})
		_ = s.hid.FlushKeyboardReport(ctx)
	} else if Falling(state, s.prevState) {
		_ = s.hid.Send(ctx, hidio.Command{Kind: hidio.ReleaseSpecial, Keycode: s.keycode})
		_ = s.hid.FlushKeyboardReport(ctx)
	}
	s.prevState = state
	return None()
}

// Descriptor implements Function.
func (s *Special) Descriptor() Descriptor {
	return describe("Special", s.name)
}

// ModifierKey holds a modifier bit while its state is high.
type ModifierKey struct {
	name      string
	modifier  keycode.Modifier
	prevState State
	hid       *hidio.Queue
}

// NewModifierKey builds a ModifierKey from its modifier name.
func NewModifierKey(name string, hid *hidio.Queue) (*ModifierKey, error) {
	m, err := keycode.ModifierByName(name)
	if err != nil {
		return nil, err
	}
	return &ModifierKey{name: name, modifier: m, hid: hid}, nil
}

// Event implements Function.
func (m *ModifierKey) Event(ctx context.Context, state State) ReturnCommand {
	if Rising(state, m.prevState) {
		_ = m.hid.HoldMod(ctx, m.modifier)
		_ = m.hid.FlushKeyboardReport(ctx)
	} else if Falling(state, m.prevState) {
		_ = m.hid.ReleaseMod(ctx, m.modifier)
		_ = m.hid.FlushKeyboardReport(ctx)
	}
	m.prevState = state
	return None()
}

// Descriptor implements Function.
func (m *ModifierKey) Descriptor() Descriptor {
	return describe("Modifier", m.name)
}

// shortcutKey is one pressed entry of a Shortcut: either a character or
// a special-key name.
type shortcutKey struct {
	Char    string `json:"char,omitempty"`
	Special string `json:"special,omitempty"`
}

// Shortcut presses a chord on the rising edge: all modifiers, then all
// keys, one flush, then releases keys before modifiers and flushes
// again. The order is fixed so the host always sees the modifiers
// applied to every key of the chord.
type Shortcut struct {
	modifierNames []string
	modifier      keycode.Modifier
	keys          []shortcutKey
	keycodes      []byte
	prevState     State
	hid           *hidio.Queue
}

// NewShortcut builds a Shortcut from modifier names and key entries.
func NewShortcut(modifierNames []string, keys []shortcutKey, hid *hidio.Queue) (*Shortcut, error) {
	var mods keycode.Modifier
	for _, name := range modifierNames {
		m, err := keycode.ModifierByName(name)
		if err != nil {
			return nil, err
		}
		mods |= m
	}
	keycodes := make([]byte, 0, len(keys))
	for _, k := range keys {
		switch {
		case k.Special != "":
			kc, err := keycode.SpecialByName(k.Special)
			if err != nil {
				return nil, err
			}
			keycodes = append(keycodes, kc)
		case k.Char != "":
			entry, err := keycode.ResolveBasic([]rune(k.Char)[0])
			if err != nil {
				return nil, err
			}
			keycodes = append(keycodes, entry.Keycode)
		}
	}
	return &Shortcut{
		modifierNames: modifierNames,
		modifier:      mods,
		keys:          keys,
		keycodes:      keycodes,
		hid:           hid,
	}, nil
}

// Event implements Function.
func (s *Shortcut) Event(ctx context.Context, state State) ReturnCommand {
	if Rising(state, s.prevState) {
		_ = s.hid.HoldMod(ctx, s.modifier)
		for _, kc := range s.keycodes {
			_ = s.hid.HoldKeyChar(ctx, kc)
		}
		_ = s.hid.FlushKeyboardReport(ctx)
		for _, kc := range s.keycodes {
			_ = s.hid.ReleaseKeyChar(ctx, kc)
		}
		_ = s.hid.ReleaseMod(ctx, s.modifier)
		_ = s.hid.FlushKeyboardReport(ctx)
	}
	s.prevState = state
	return None()
}

// Descriptor implements Function.
func (s *Shortcut) Descriptor() Descriptor {
	return describe("Shortcut", struct {
		Modifiers []string      `json:"modifiers"`
		Keys      []shortcutKey `json:"keys"`
	}{s.modifierNames, s.keys})
}

// BasicString types its text through the plain ASCII table on the
// rising edge. The newline variant appends Enter.
type BasicString struct {
	text      *value
	newline   bool
	prevState State
	hid       *hidio.Queue
}

// NewBasicString builds a BasicString.
func NewBasicString(text *value, newline bool, hid *hidio.Queue) *BasicString {
	return &BasicString{text: text, newline: newline, hid: hid}
}

// Event implements Function.
func (b *BasicString) Event(ctx context.Context, state State) ReturnCommand {
	if Rising(state, b.prevState) {
		text := b.text.str()
		if b.newline {
			text += "\n"
		}
		_ = b.hid.Type(ctx, text, "")
		_ = b.hid.FlushKeyboardReport(ctx)
	}
	b.prevState = state
	return None()
}

// Descriptor implements Function.
func (b *BasicString) Descriptor() Descriptor {
	tag := "String"
	if b.newline {
		tag = "StringLn"
	}
	raw, _ := json.Marshal(describedParam(b.text))
	return Descriptor{Tag: tag, Params: raw}
}

// ComplexString types its text through a named keyboard-layout table on
// the rising edge.
type ComplexString struct {
	text      *value
	layout    *value
	newline   bool
	prevState State
	hid       *hidio.Queue
}

// NewComplexString builds a ComplexString.
func NewComplexString(text, layout *value, newline bool, hid *hidio.Queue) *ComplexString {
	return &ComplexString{text: text, layout: layout, newline: newline, hid: hid}
}

// Event implements Function.
func (c *ComplexString) Event(ctx context.Context, state State) ReturnCommand {
	if Rising(state, c.prevState) {
		text := c.text.str()
		if c.newline {
			text += "\n"
		}
		_ = c.hid.Type(ctx, text, c.layout.str())
		_ = c.hid.FlushKeyboardReport(ctx)
	}
	c.prevState = state
	return None()
}

// Descriptor implements Function.
func (c *ComplexString) Descriptor() Descriptor {
	tag := "ComplexString"
	if c.newline {
		tag = "ComplexStringLn"
	}
	return describe(tag, struct {
		Str    Param `json:"str"`
		Layout Param `json:"layout"`
	}{describedParam(c.text), describedParam(c.layout)})
}
