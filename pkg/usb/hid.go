// SPDX-License-Identifier: BSD-3-Clause

//go:build linux
// +build linux

package usb

import (
	"fmt"
	"os"
	"path/filepath"
)

// HID report descriptors
var (
	// keyboardReportDescriptor is the standard USB HID boot keyboard
	// report descriptor: one modifier byte, one reserved byte, six key
	// slots, and LED output bits for the lock-state read-back path.
	keyboardReportDescriptor = []byte{
		0x05, 0x01, // USAGE_PAGE (Generic Desktop)
		0x09, 0x06, // USAGE (Keyboard)
		0xa1, 0x01, // COLLECTION (Application)
		0x05, 0x07, //   USAGE_PAGE (Keyboard)
		0x19, 0xe0, //   USAGE_MINIMUM (Keyboard LeftControl)
		0x29, 0xe7, //   USAGE_MAXIMUM (Keyboard Right GUI)
		0x15, 0x00, //   LOGICAL_MINIMUM (0)
		0x25, 0x01, //   LOGICAL_MAXIMUM (1)
		0x75, 0x01, //   REPORT_SIZE (1)
		0x95, 0x08, //   REPORT_COUNT (8)
		0x81, 0x02, //   INPUT (Data,Var,Abs)
		0x95, 0x01, //   REPORT_COUNT (1)
		0x75, 0x08, //   REPORT_SIZE (8)
		0x81, 0x03, //   INPUT (Cnst,Var,Abs)
		0x95, 0x05, //   REPORT_COUNT (5)
		0x75, 0x01, //   REPORT_SIZE (1)
		0x05, 0x08, //   USAGE_PAGE (LEDs)
		0x19, 0x01, //   USAGE_MINIMUM (Num Lock)
		0x29, 0x05, //   USAGE_MAXIMUM (Kana)
		0x91, 0x02, //   OUTPUT (Data,Var,Abs)
		0x95, 0x01, //   REPORT_COUNT (1)
		0x75, 0x03, //   REPORT_SIZE (3)
		0x91, 0x03, //   OUTPUT (Cnst,Var,Abs)
		0x95, 0x06, //   REPORT_COUNT (6)
		0x75, 0x08, //   REPORT_SIZE (8)
		0x15, 0x00, //   LOGICAL_MINIMUM (0)
		0x25, 0x65, //   LOGICAL_MAXIMUM (101)
		0x05, 0x07, //   USAGE_PAGE (Keyboard)
		0x19, 0x00, //   USAGE_MINIMUM (Reserved)
		0x29, 0x65, //   USAGE_MAXIMUM (Keyboard Application)
		0x81, 0x00, //   INPUT (Data,Ary,Abs)
		0xc0, // END_COLLECTION
	}

	// mouseReportDescriptor is a relative mouse with three buttons, two
	// signed 8-bit axes, and a wheel, matching the four-byte report the
	// HID worker serializes: {buttons, dx, dy, wheel}.
	mouseReportDescriptor = []byte{
		0x05, 0x01, // Usage Page (Generic Desktop Ctrls)
		0x09, 0x02, // Usage (Mouse)
		0xA1, 0x01, // Collection (Application)
		0x09, 0x01, //   Usage (Pointer)
		0xA1, 0x00, //   Collection (Physical)
		0x05, 0x09, //     Usage Page (Button)
		0x19, 0x01, //     Usage Minimum (0x01)
		0x29, 0x03, //     Usage Maximum (0x03)
		0x15, 0x00, //     Logical Minimum (0)
		0x25, 0x01, //     Logical Maximum (1)
		0x75, 0x01, //     Report Size (1)
		0x95, 0x03, //     Report Count (3)
		0x81, 0x02, //     Input (Data, Var, Abs)
		0x95, 0x01, //     Report Count (1)
		0x75, 0x05, //     Report Size (5)
		0x81, 0x03, //     Input (Cnst, Var, Abs)
		0x05, 0x01, //     Usage Page (Generic Desktop Ctrls)
		0x09, 0x30, //     Usage (X)
		0x09, 0x31, //     Usage (Y)
		0x09, 0x38, //     Usage (Wheel)
		0x15, 0x81, //     Logical Minimum (-127)
		0x25, 0x7F, //     Logical Maximum (127)
		0x75, 0x08, //     Report Size (8)
		0x95, 0x03, //     Report Count (3)
		0x81, 0x06, //     Input (Data, Var, Rel)
		0xC0, //   End Collection
		0xC0, // End Collection
	}
)

// createKeyboardFunction creates a HID keyboard function for the gadget.
func createKeyboardFunction(gadgetDir, configDir string) error {
	functionDir := filepath.Join(gadgetDir, "functions/hid.usb0")
	if err := os.MkdirAll(functionDir, 0755); err != nil {
		return fmt.Errorf("failed to create keyboard function directory: %w", err)
	}

	// Set keyboard attributes
	attrs := map[string]string{
		"protocol":        "1", // Keyboard
		"subclass":        "1", // Boot interface
		"report_length":   "8", // 8 bytes
		"no_out_endpoint": "0", // Enable output endpoint for LEDs
	}

	for attr, value := range attrs {
		attrPath := filepath.Join(functionDir, attr)
		if err := writeFile(attrPath, value); err != nil {
			return fmt.Errorf("failed to write keyboard %s: %w", attr, err)
		}
	}

	// Write report descriptor
	reportDescPath := filepath.Join(functionDir, "report_desc")
	if err := os.WriteFile(reportDescPath, keyboardReportDescriptor, 0644); err != nil {
		return fmt.Errorf("failed to write keyboard report descriptor: %w", err)
	}

	// Link function to configuration
	linkPath := filepath.Join(configDir, "hid.usb0")
	if err := os.Symlink(functionDir, linkPath); err != nil {
		return fmt.Errorf("failed to link keyboard function to configuration: %w", err)
	}

	return nil
}

// createMouseFunction creates a HID mouse function for the gadget.
func createMouseFunction(gadgetDir, configDir string) error {
	functionDir := filepath.Join(gadgetDir, "functions/hid.usb1")
	if err := os.MkdirAll(functionDir, 0755); err != nil {
		return fmt.Errorf("failed to create mouse function directory: %w", err)
	}

	// Set mouse attributes
	attrs := map[string]string{
		"protocol":        "2", // Mouse
		"subclass":        "0", // No subclass
		"report_length":   "4", // 4 bytes: buttons, dx, dy, wheel
		"no_out_endpoint": "1", // No output endpoint needed
	}

	for attr, value := range attrs {
		attrPath := filepath.Join(functionDir, attr)
		if err := writeFile(attrPath, value); err != nil {
			return fmt.Errorf("failed to write mouse %s: %w", attr, err)
		}
	}

	// Write report descriptor
	reportDescPath := filepath.Join(functionDir, "report_desc")
	if err := os.WriteFile(reportDescPath, mouseReportDescriptor, 0644); err != nil {
		return fmt.Errorf("failed to write mouse report descriptor: %w", err)
	}

	// Link function to configuration
	linkPath := filepath.Join(configDir, "hid.usb1")
	if err := os.Symlink(functionDir, linkPath); err != nil {
		return fmt.Errorf("failed to link mouse function to configuration: %w", err)
	}

	return nil
}
