// SPDX-License-Identifier: BSD-3-Clause

// Package function implements the leaf binding objects the layout
// engine dispatches to. A Function observes one u16 state per tick,
// reacts to level and edge changes against the previously delivered
// state, and may emit HID commands, MIDI messages, subprocess spawns,
// bus publications, or driver writes through the collaborator handles
// baked in at build time. Its return value is a layer-stack command the
// engine applies after the tick completes.
//
// Functions are materialized from Descriptors, the tagged serialized
// form stored in layout documents, by a Builder holding every
// collaborator. Descriptor parameters are either constants or named
// variable references resolved against the shared variables table, so
// a binding's behavior can be retuned at runtime without rebuilding the
// layout.
package function
