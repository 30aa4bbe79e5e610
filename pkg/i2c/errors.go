// SPDX-License-Identifier: BSD-3-Clause

package i2c

import "errors"

var (
	// Bus and device access errors.

	// ErrBusNotFound indicates that the specified I2C bus device file does not exist.
	ErrBusNotFound = errors.New("I2C bus device not found")
	// ErrBusAccessDenied indicates insufficient permissions to access the I2C bus device.
	ErrBusAccessDenied = errors.New("access denied to I2C bus device")
	// ErrBusOpenFailed indicates a failure to open the I2C bus device file.
	ErrBusOpenFailed = errors.New("failed to open I2C bus device")
	// ErrBusCloseFailed indicates a failure to close the I2C bus device file.
	ErrBusCloseFailed = errors.New("failed to close I2C bus device")

	// Device communication errors.

	// ErrDeviceNotResponding indicates that the I2C device did not acknowledge communication attempts.
	ErrDeviceNotResponding = errors.New("I2C device not responding")

	// Protocol-specific errors.

	// ErrProtocolViolation indicates a violation of the selected protocol specifications.
	ErrProtocolViolation = errors.New("protocol violation")
	// ErrSMBusNotSupported indicates that SMBus operations are not supported by the adapter.
	ErrSMBusNotSupported = errors.New("SMBus operations not supported by adapter")
	// ErrPECNotSupported indicates that Packet Error Checking is not supported by the adapter.
	ErrPECNotSupported = errors.New("packet Error Checking not supported by adapter")

	// Data and parameter validation errors.

	// ErrInvalidBusNumber indicates that the specified bus number is invalid.
	ErrInvalidBusNumber = errors.New("invalid I2C bus number")
	// ErrInvalidAddress indicates that the specified device address is invalid.
	ErrInvalidAddress = errors.New("invalid I2C device address")
	// ErrInvalidDataLength indicates that the data length is invalid for the operation.
	ErrInvalidDataLength = errors.New("invalid data length for operation")

	// Configuration errors.

	// ErrInvalidConfig indicates that the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid I2C configuration")
	// ErrInvalidProtocol indicates that the specified protocol is invalid or unsupported.
	ErrInvalidProtocol = errors.New("invalid or unsupported protocol")
	// ErrInvalidTimeout indicates that the specified timeout value is invalid.
	ErrInvalidTimeout = errors.New("invalid timeout value")
	// ErrInvalidRetryCount indicates that the specified retry count is invalid.
	ErrInvalidRetryCount = errors.New("invalid retry count")

	// Operation errors.

	// ErrOperationFailed indicates that an I2C operation failed for an unspecified reason.
	ErrOperationFailed = errors.New("I2C operation failed")
	// ErrReadFailed indicates that a read operation failed.
	ErrReadFailed = errors.New("I2C read operation failed")
	// ErrWriteFailed indicates that a write operation failed.
	ErrWriteFailed = errors.New("I2C write operation failed")
	// ErrTransactionFailed indicates that a combined I2C transaction failed.
	ErrTransactionFailed = errors.New("I2C transaction failed")

	// SMBus specific errors.

	// ErrSMBusUnsupportedCommand indicates that the SMBus command is not supported.
	ErrSMBusUnsupportedCommand = errors.New("SMBus command not supported")
)
