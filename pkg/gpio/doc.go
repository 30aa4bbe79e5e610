// SPDX-License-Identifier: BSD-3-Clause

// Package gpio wraps the Linux GPIO character-device interface for the
// discrete-line driver: requesting a line by chip and offset with a
// direction, bias, and consumer label, and mapping the library's
// errors onto this package's sentinels.
//
//	line, err := gpio.RequestLineByNumber("gpiochip0", 4,
//		gpio.WithConsumer("gpioline"),
//		gpio.WithDirection(gpio.DirectionInput),
//		gpio.WithBias(gpio.BiasPullUp),
//	)
//	if err != nil {
//		return err
//	}
//	defer line.Close()
//	v, err := line.Value()
//
// The returned line is the underlying library's handle; Value,
// SetValue, and Close are used directly by the caller.
package gpio
