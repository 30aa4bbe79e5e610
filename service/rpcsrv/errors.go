// SPDX-License-Identifier: BSD-3-Clause

package rpcsrv

import "errors"

var (
	// ErrServiceAlreadyStarted indicates Run was called twice.
	ErrServiceAlreadyStarted = errors.New("rpc service already started")

	// ErrNATSConnectionFailed indicates the bus connection failed.
	ErrNATSConnectionFailed = errors.New("failed to connect to IPC bus")

	// ErrUnknownCommand indicates a request that is not one of the
	// supported commands.
	ErrUnknownCommand = errors.New("unknown rpc command")

	// ErrNoLayout indicates the service was started without a layout.
	ErrNoLayout = errors.New("rpc service has no layout")
)
