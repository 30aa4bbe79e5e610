// SPDX-License-Identifier: BSD-3-Clause

// Package msgbus publishes binding-generated event payloads onto the
// embedded message bus. A payload is a single topic byte followed by a
// caller-formatted body; subscribers filter on the topic byte after
// receiving, mirroring a raw pub/sub socket rather than per-topic
// subjects.
//
// The bus connection is established lazily from the in-process
// connection provider handed to every service, so a Publisher can be
// constructed before the IPC service has started.
package msgbus
