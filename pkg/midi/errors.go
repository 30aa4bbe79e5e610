// SPDX-License-Identifier: BSD-3-Clause

package midi

import "errors"

var (
	// ErrDeviceOpen indicates the raw MIDI device could not be opened.
	ErrDeviceOpen = errors.New("failed to open MIDI device")

	// ErrDeviceWrite indicates writing a message to the device failed.
	ErrDeviceWrite = errors.New("MIDI device write failed")

	// ErrInvalidChannel indicates a channel outside [0,15].
	ErrInvalidChannel = errors.New("MIDI channel out of range")

	// ErrInvalidData indicates a data byte outside the 7-bit range.
	ErrInvalidData = errors.New("MIDI data byte out of range")
)
