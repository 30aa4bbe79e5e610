// SPDX-License-Identifier: BSD-3-Clause

// Package id generates identifiers: ephemeral UUIDs for module and
// function instances handed out by the module host, and a persistent
// per-device identity for the operator.
//
// NewID returns a fresh UUID string; every load-data call on a module
// worker gets one as its opaque instance id.
//
// GetOrCreatePersistentID reads an identity file, creating it with a
// new UUID on first run:
//
//	deviceID, err := id.GetOrCreatePersistentID("keyserver", "/var/lmk/id")
//	if err != nil {
//		// fall back to an ephemeral id
//		deviceID = id.NewID()
//	}
//
// The operator uses this to keep a stable identity across restarts
// without requiring pre-provisioning; a read-only filesystem degrades
// to an ephemeral id, and the failure is logged at error level.
package id
