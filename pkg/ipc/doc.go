// SPDX-License-Identifier: BSD-3-Clause

// Package ipc carries the shared vocabulary of the embedded message
// bus: the subject constants every service publishes and subscribes
// on, the connection-provider contract, a no-op stub service for trees
// that re-use an external bus, and the error-reply helper for micro
// endpoints.
//
// Subjects are constants rather than ad hoc strings so the config RPC,
// the event publisher, and the telemetry collector cannot drift apart:
//
//	nc.Subscribe(ipc.SubjectLayoutEvent, handle)
//	nc.Request(ipc.SubjectConfigRPC, payload, timeout)
//
// SubjectVariablePrefix names the subject space for variables, with the
// variable name as the suffix, and SubjectVariableAll is the matching
// wildcard. The variables table does not publish on these subjects; its
// updates reach in-process subscribers only.
package ipc
