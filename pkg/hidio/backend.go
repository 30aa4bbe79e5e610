// SPDX-License-Identifier: BSD-3-Clause

package hidio

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// Backend is a named HID sink: something that can serialize keyboard and
// mouse reports and read back the LED lock-state byte. The built-in set
// is {"usb", "uinput"}; plugin HID modules advertise additional names
//.
type Backend interface {
	// Name returns the backend's selector name.
	Name() string
	// WriteKeyboard writes one serialized keyboard report.
	WriteKeyboard(report []byte) error
	// WriteMouse writes one serialized mouse report.
	WriteMouse(report []byte) error
	// ReadLED reads the single LED lock-state byte.
	ReadLED() (byte, error)
}

// DeviceBackend is a Backend over pre-existing USB gadget / uinput
// character devices: mouse, keyboard, and led paths. It never
// parses or constructs the underlying HID report descriptor — that is
// the gadget's job (an external collaborator, see pkg/usb) — it only
// writes the bytes handed to it.
type DeviceBackend struct {
	name string

	mu     sync.Mutex
	mouse  int
	kbd    int
	led    int
}

// NewDeviceBackend opens the three character device paths for a named
// backend ("usb" or "uinput" conventionally) using raw file descriptors.
func NewDeviceBackend(name, mousePath, keyboardPath, ledPath string) (*DeviceBackend, error) {
	mouseFD, err := unix.Open(mousePath, unix.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: open mouse device %s: %w", ErrDeviceWrite, mousePath, err)
	}
	kbdFD, err := unix.Open(keyboardPath, unix.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		_ = unix.Close(mouseFD)
		return nil, fmt.Errorf("%w: open keyboard device %s: %w", ErrDeviceWrite, keyboardPath, err)
	}
	ledFD, err := unix.Open(ledPath, unix.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		_ = unix.Close(mouseFD)
		_ = unix.Close(kbdFD)
		return nil, fmt.Errorf("%w: open led device %s: %w", ErrDeviceRead, ledPath, err)
	}
	return &DeviceBackend{name: name, mouse: mouseFD, kbd: kbdFD, led: ledFD}, nil
}

// Name implements Backend.
func (d *DeviceBackend) Name() string { return d.name }

// WriteKeyboard implements Backend.
func (d *DeviceBackend) WriteKeyboard(report []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := unix.Write(d.kbd, report); err != nil {
		return fmt.Errorf("%w: %w", ErrDeviceWrite, err)
	}
	return nil
}

// WriteMouse implements Backend.
func (d *DeviceBackend) WriteMouse(report []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := unix.Write(d.mouse, report); err != nil {
		return fmt.Errorf("%w: %w", ErrDeviceWrite, err)
	}
	return nil
}

// ReadLED implements Backend.
func (d *DeviceBackend) ReadLED() (byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var buf [1]byte
	n, err := unix.Read(d.led, buf[:])
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDeviceRead, err)
	}
	if n == 0 {
		return 0, nil
	}
	return buf[0], nil
}

// Close releases the backend's underlying file descriptors.
func (d *DeviceBackend) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var errs []error
	for _, fd := range []int{d.mouse, d.kbd, d.led} {
		if err := unix.Close(fd); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %v", ErrDeviceWrite, errs)
	}
	return nil
}
