// SPDX-License-Identifier: BSD-3-Clause

// Package midi serializes channel-voice messages to a raw MIDI byte
// stream, typically the ALSA rawmidi character device exposed by the
// gadget's MIDI function. Only the message kinds bindings generate are
// implemented: note on/off, pitch bend, and program change.
package midi
