// SPDX-License-Identifier: BSD-3-Clause

package keycode

import "testing"

func TestResolveBasic(t *testing.T) {
	cases := []struct {
		r    rune
		want Entry
	}{
		{'a', Entry{Keycode: usageA}},
		{'A', Entry{Modifier: ModLeftShift, Keycode: usageA}},
		{'1', Entry{Keycode: usage1}},
		{'0', Entry{Keycode: usage0}},
		{' ', Entry{Keycode: KeySpace}},
		{'\n', Entry{Keycode: KeyEnter}},
	}
	for _, c := range cases {
		got, err := ResolveBasic(c.r)
		if err != nil {
			t.Fatalf("ResolveBasic(%q): %v", c.r, err)
		}
		if got != c.want {
			t.Errorf("ResolveBasic(%q) = %+v, want %+v", c.r, got, c.want)
		}
	}
}

func TestResolveUnknownLayout(t *testing.T) {
	if _, err := Resolve("klingon", 'a'); err != ErrUnknownLayout {
		t.Fatalf("want ErrUnknownLayout, got %v", err)
	}
}

func TestResolveDEQwertz(t *testing.T) {
	e, err := Resolve("de", 'z')
	if err != nil {
		t.Fatal(err)
	}
	if e.Keycode != usageA+24 {
		t.Errorf("de 'z' keycode = %#x, want %#x", e.Keycode, usageA+24)
	}
}

func TestResolveFRAzerty(t *testing.T) {
	e, err := Resolve("fr", 'q')
	if err != nil {
		t.Fatal(err)
	}
	if e.Keycode != usageA {
		t.Errorf("fr 'q' keycode = %#x, want %#x (where 'a' sits on us)", e.Keycode, usageA)
	}
}

// Irish and Italian layouts are carried as known-fail from the original
// corpus: the layout table is an external collaborator and
// neither locale is registered here, so these are expected-skip.
func TestResolveIrishLayout(t *testing.T) {
	if !Known("irish") {
		t.Skip("irish layout not implemented upstream; expected-skip")
	}
	if _, err := Resolve("irish", '€'); err != nil {
		t.Fatal(err)
	}
}

func TestResolveItalianLayout(t *testing.T) {
	if !Known("italian") {
		t.Skip("italian layout not implemented upstream; expected-skip")
	}
	if _, err := Resolve("italian", 'ò'); err != nil {
		t.Fatal(err)
	}
}
