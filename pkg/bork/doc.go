// SPDX-License-Identifier: BSD-3-Clause

// Package bork implements the embedded scripting language driving the
// HID abstraction from script files. A script is a stream of literal
// characters typed verbatim, backslash escapes, and angle-bracket
// commands: chords, hold/release, flow control, variable assignment,
// expression evaluation, mouse motion, shell pipes, sleeps, and
// function definitions and calls.
//
// The parser is single-pass and stream-oriented: it consumes one
// command at a time from a cursor over the source and maintains a nest
// stack (if, while, pipe, function) plus live symbol tables for
// variable and function types. Type mismatches are parse errors. The
// interpreter drives the parser directly, using the cursor primitives
// jmpNext and jmpEnd for flow control instead of building a tree, and
// flushes the keyboard and mouse after every interpreted command.
package bork
