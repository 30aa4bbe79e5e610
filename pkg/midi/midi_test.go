// SPDX-License-Identifier: BSD-3-Clause

package midi

import (
	"bytes"
	"testing"
)

func TestChannelVoiceEncoding(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf)

	if err := c.NoteOn(2, 60, 100); err != nil {
		t.Fatalf("NoteOn: %v", err)
	}
	if err := c.NoteOff(2, 60); err != nil {
		t.Fatalf("NoteOff: %v", err)
	}
	if err := c.PitchBend(0, PitchBendCenter); err != nil {
		t.Fatalf("PitchBend: %v", err)
	}
	if err := c.ProgramChange(1, 25); err != nil {
		t.Fatalf("ProgramChange: %v", err)
	}

	want := []byte{
		0x92, 60, 100,
		0x82, 60, 0,
		0xE0, 0x00, 0x40,
		0xC1, 25,
	}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("encoded stream = %#v, want %#v", buf.Bytes(), want)
	}
}

func TestPitchBendClamps(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf)
	if err := c.PitchBend(0, 0xFFFF); err != nil {
		t.Fatalf("PitchBend: %v", err)
	}
	want := []byte{0xE0, 0x7F, 0x7F}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("clamped bend = %#v, want %#v", buf.Bytes(), want)
	}
}

func TestRejectsOutOfRange(t *testing.T) {
	c := New(&bytes.Buffer{})
	if err := c.NoteOn(16, 60, 100); err == nil {
		t.Fatal("expected channel range error")
	}
	if err := c.NoteOn(0, 200, 100); err == nil {
		t.Fatal("expected data range error")
	}
}
