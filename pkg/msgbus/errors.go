// SPDX-License-Identifier: BSD-3-Clause

package msgbus

import "errors"

var (
	// ErrNotConnected indicates the bus connection could not be
	// established.
	ErrNotConnected = errors.New("message bus is not connected")

	// ErrPublish indicates publishing a payload failed.
	ErrPublish = errors.New("failed to publish payload")
)
