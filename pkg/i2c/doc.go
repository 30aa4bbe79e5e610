// SPDX-License-Identifier: BSD-3-Clause

// Package i2c provides a Go interface for communicating with I2C and
// SMBus devices on Linux systems through the /dev/i2c-N character
// devices. The GPIO-expander driver builds its register-level bus on
// top of this package.
//
// # Supported Protocols
//
//   - I2C (Inter-Integrated Circuit): raw read/write and combined
//     write-then-read transactions
//   - SMBus (System Management Bus): the command-oriented subset with
//     byte/word/block operations and optional Packet Error Checking
//
// # Basic Usage
//
//	conn, err := i2c.Open(&i2c.Config{
//		Bus:      1,
//		Address:  0x20,
//		Protocol: i2c.ProtocolSMBus,
//		Timeout:  time.Second,
//		Retries:  2,
//	})
//	if err != nil {
//		return err
//	}
//	defer conn.Close()
//
//	val, err := conn.ReadByteData(0x12)
//	if err != nil {
//		return err
//	}
//
// Functional options with NewConfig cover the same fields, among them
// timeout, 10-bit addressing, forced address claiming, retries, and
// SMBus PEC; NewConfig fills in a one-second timeout and three retries.
//
// # Error Handling
//
// Failures are wrapped in the package's sentinel errors so callers can
// distinguish configuration mistakes, adapter capabilities, bus-level
// faults, and device-level NAKs with errors.Is.
//
// # Concurrency
//
// A Conn is not safe for concurrent use. The expander driver owns each
// connection from a single worker goroutine, which is the intended
// pattern.
package i2c
