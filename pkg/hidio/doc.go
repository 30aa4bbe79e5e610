// SPDX-License-Identifier: BSD-3-Clause

// Package hidio is the HID output abstraction: a single
// long-lived worker that owns the USB-gadget character devices (and any
// plugin-registered backend) and serializes keyboard/mouse/LED traffic
// from a multi-producer command queue. Callers never touch a device
// file directly; they hold a *Queue and send Commands.
package hidio
