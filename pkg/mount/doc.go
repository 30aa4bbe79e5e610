// SPDX-License-Identifier: BSD-3-Clause

// Package mount verifies and repairs the pseudo-filesystem mounts the
// key server depends on at startup. Init normally sets these up, but
// the gadget path breaks quietly when it has not: the installer needs
// configfs under /sys/kernel/config and the HID worker needs devtmpfs
// for /dev/hidg*, so the operator calls SetupMounts rather than
// relying on the boot environment.
//
// Already-present mounts are left untouched (EBUSY is success) and the
// final state is verified against /proc/mounts, so running on a fully
// booted system is a no-op. Failures are collected and returned
// together; the operator logs them and continues, since a partially
// mounted system may still be able to run.
package mount
