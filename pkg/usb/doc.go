// SPDX-License-Identifier: BSD-3-Clause

//go:build linux
// +build linux

// Package usb materializes the key server's USB gadget through the
// Linux configfs subsystem: the gadget directory with its identifiers
// and strings, the HID keyboard and mouse functions with their report
// descriptors, an optional mass-storage LUN, and binding to a UDC.
//
// The gadget service installer is the only consumer:
//
//	cfg := usb.DefaultGadgetConfig()
//	if err := usb.CreateGadget(ctx, cfg); err != nil {
//		return err
//	}
//	if err := usb.BindGadget(ctx, cfg.Name); err != nil {
//		return err
//	}
//
// Once bound, the kernel exposes /dev/hidg* character devices; the HID
// output worker owns report serialization and writes to them directly.
// This package never touches reports, only the configfs tree.
//
// Failures map onto the package's sentinel errors so the installer can
// distinguish an already-existing gadget from a missing configfs or
// insufficient permissions with errors.Is.
//
// Requires a kernel with CONFIG_CONFIGFS_FS, CONFIG_USB_GADGET, and
// HID gadget function support, plus root for /sys/kernel/config.
package usb
