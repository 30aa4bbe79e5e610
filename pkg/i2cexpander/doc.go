// SPDX-License-Identifier: BSD-3-Clause

// Package i2cexpander implements the I²C GPIO-expander driver: a
// driver.Driver that scans matrix and discrete-pin inputs over
// an MCP23017-class 16-bit I/O expander. A dedicated worker goroutine is
// the sole actor on the underlying I²C bus; every bus access is a
// request/reply round trip to that goroutine, while Poll and PollRange
// read the state vector (zeroed at construction, refreshed by Tick, and
// updated by Set for output slots) under a lock.
package i2cexpander
