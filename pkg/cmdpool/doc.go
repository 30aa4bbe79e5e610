// SPDX-License-Identifier: BSD-3-Clause

// Package cmdpool owns every subprocess the key server spawns on behalf
// of user bindings. Shell commands are started through a shared Pool
// whose reaper loop collects finished children on a fixed interval, so
// a stuck child never stalls the tick loop and a finished one never
// lingers as a zombie.
//
// The pool offers three spawn shapes:
//
//   - Spawn: fire-and-forget, for bindings that only trigger a command.
//   - RunCaptured: run to completion and return stdout, for script
//     interpolation of command output.
//   - RunPiped: stream stdout line-oriented into a caller-supplied
//     sink, for bindings that type a command's output as keystrokes.
//
// All shapes execute the command string via "/bin/sh -c".
package cmdpool
