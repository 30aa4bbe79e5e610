// SPDX-License-Identifier: BSD-3-Clause

// Package rpcsrv serves the configuration RPC: a request/reply endpoint
// on the embedded message bus for inspecting and mutating the live
// layout and variables table. Requests are JSON-encoded commands; the
// reply is a literal string for boolean outcomes, a small primitive, a
// JSON array for listings, or a {"ret": ...} envelope for fallible
// reads. A failed command renders as "false" or an error envelope
// rather than closing the connection.
//
// The service holds the layout write lock only for the single mutation
// it is servicing, so the tick loop and RPC interleave safely.
package rpcsrv
