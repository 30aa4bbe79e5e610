// SPDX-License-Identifier: BSD-3-Clause

package telemetry

import "errors"

var (
	// ErrServiceAlreadyStarted indicates Run was called twice.
	ErrServiceAlreadyStarted = errors.New("telemetry service already started")

	// ErrNATSConnectionFailed indicates the bus connection failed.
	ErrNATSConnectionFailed = errors.New("failed to connect to IPC bus")

	// ErrMeterSetup indicates an instrument could not be created.
	ErrMeterSetup = errors.New("failed to create metric instrument")

	// ErrBadReply indicates the configuration RPC answered with
	// something that is not a counter.
	ErrBadReply = errors.New("unexpected RPC reply")
)
