// SPDX-License-Identifier: BSD-3-Clause

// Package gpioline adapts discrete GPIO character-device lines onto the
// driver registry's contract, supplementing the I²C expander for
// inputs wired straight to the board. Each configured line contributes
// one slot to the driver's state vector; output lines are writable
// through the registry's set path.
package gpioline
