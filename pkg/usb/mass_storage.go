// SPDX-License-Identifier: BSD-3-Clause

//go:build linux
// +build linux

package usb

import (
	"fmt"
	"os"
	"path/filepath"
)

// createMassStorageFunction creates a mass storage function for the gadget.
func createMassStorageFunction(gadgetDir, configDir string) error {
	// Create base mass storage function
	functionDir := filepath.Join(gadgetDir, "functions/mass_storage.usb0")
	if err := os.MkdirAll(functionDir, 0755); err != nil {
		return fmt.Errorf("failed to create mass storage function directory: %w", err)
	}

	// Set mass storage attributes
	attrs := map[string]string{
		"stall": "1", // Enable stall responses
	}

	for attr, value := range attrs {
		attrPath := filepath.Join(functionDir, attr)
		if err := writeFile(attrPath, value); err != nil {
			return fmt.Errorf("failed to write mass storage %s: %w", attr, err)
		}
	}

	// Create LUN 0
	lunDir := filepath.Join(functionDir, "lun.0")
	if err := os.MkdirAll(lunDir, 0755); err != nil {
		return fmt.Errorf("failed to create mass storage LUN directory: %w", err)
	}

	// Set LUN attributes
	lunAttrs := map[string]string{
		"cdrom":          "1",                        // CD-ROM mode by default
		"ro":             "1",                        // Read-only by default
		"removable":      "1",                        // Removable media
		"file":           "",                         // No file initially
		"inquiry_string": "LMK     Virtual Media   ", // SCSI inquiry string
	}

	for attr, value := range lunAttrs {
		attrPath := filepath.Join(lunDir, attr)
		if err := writeFile(attrPath, value); err != nil {
			return fmt.Errorf("failed to write mass storage LUN %s: %w", attr, err)
		}
	}

	// Link function to configuration
	linkPath := filepath.Join(configDir, "mass_storage.usb0")
	if err := os.Symlink(functionDir, linkPath); err != nil {
		return fmt.Errorf("failed to link mass storage function to configuration: %w", err)
	}

	return nil
}
