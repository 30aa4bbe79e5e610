// SPDX-License-Identifier: BSD-3-Clause

// Package variables implements the shared observable key→string
// store: a name maps to an ordered list of per-subscriber update
// channels, decoupling the RPC server from the function runtime. A
// Variable bound to a name holds its own receiver and the last string
// it received; a read picks up a pending update only when asked, and the
// typed accessors parse the cached string at that point.
package variables
