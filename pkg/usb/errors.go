// SPDX-License-Identifier: BSD-3-Clause

//go:build linux
// +build linux

package usb

import "errors"

var (
	// ErrConfigFSNotMounted indicates that configfs is not mounted at /sys/kernel/config.
	ErrConfigFSNotMounted = errors.New("configfs not mounted")

	// ErrGadgetExists indicates that a USB gadget with the specified name already exists.
	ErrGadgetExists = errors.New("USB gadget already exists")

	// ErrGadgetNotFound indicates that the specified USB gadget could not be found.
	ErrGadgetNotFound = errors.New("USB gadget not found")

	// ErrPermissionDenied indicates insufficient permissions for USB operations.
	ErrPermissionDenied = errors.New("permission denied for USB operation")

	// ErrInvalidConfig indicates that the provided gadget configuration is invalid.
	ErrInvalidConfig = errors.New("invalid USB gadget configuration")

	// ErrUDCNotFound indicates that no USB Device Controller was found.
	ErrUDCNotFound = errors.New("USB Device Controller not found")

	// ErrGadgetNotBound indicates that the gadget is not bound to a UDC.
	ErrGadgetNotBound = errors.New("USB gadget not bound")

	// ErrFileNotFound indicates that a required file was not found.
	ErrFileNotFound = errors.New("file not found")
)
