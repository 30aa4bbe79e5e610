// SPDX-License-Identifier: BSD-3-Clause

package i2cexpander

import (
	"fmt"

	"github.com/ellabellla/lmklib-sub000/pkg/i2c"
)

// MCP23017 registers (IOCON.BANK=0, sequential addressing), carried
// over from the original driver's register map.
const (
	regIODIRA = 0x00
	regIODIRB = 0x01
	regIPOLA  = 0x02
	regIPOLB  = 0x03
	regGPPUA  = 0x0C
	regGPPUB  = 0x0D
	regGPIOA  = 0x12
	regGPIOB  = 0x13
	regOLATA  = 0x14
	regOLATB  = 0x15
)

// Bus is the register-level contract the driver's worker goroutine
// drives. It is satisfied by a real MCP23017 over I²C (NewI2CBus) and by
// a fake in tests.
type Bus interface {
	ReadRegister(reg byte) (byte, error)
	WriteRegister(reg byte, val byte) error
}

// i2cBus adapts an *i2c.Conn into a Bus.
type i2cBus struct {
	conn *i2c.Conn
}

// NewI2CBus opens an SMBus connection to the expander at address on
// bus (default 1) and wraps it as a Bus. The MCP23017's register
// protocol is exactly SMBus byte data: command byte, then one data
// byte.
func NewI2CBus(bus int, address uint16) (Bus, error) {
	if bus == 0 {
		bus = 1
	}
	conn, err := i2c.Open(i2c.NewConfig(
		i2c.WithBus(bus),
		i2c.WithAddress(address),
		i2c.WithProtocol(i2c.ProtocolSMBus),
		i2c.WithRetries(2),
	))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBusIO, err)
	}
	return &i2cBus{conn: conn}, nil
}

// ReadRegister implements Bus.
func (b *i2cBus) ReadRegister(reg byte) (byte, error) {
	val, err := b.conn.ReadByteData(reg)
	if err != nil {
		return 0, fmt.Errorf("%w: read register %#02x: %w", ErrBusIO, reg, err)
	}
	return val, nil
}

// WriteRegister implements Bus.
func (b *i2cBus) WriteRegister(reg byte, val byte) error {
	if err := b.conn.WriteByteData(reg, val); err != nil {
		return fmt.Errorf("%w: write register %#02x: %w", ErrBusIO, reg, err)
	}
	return nil
}

// portBit splits a pin number 0..15 into its (register-pair, bit) form:
// pins 0..7 are port A, 8..15 are port B.
func portBit(pin int) (isB bool, bit byte) {
	if pin >= 8 {
		return true, byte(pin - 8)
	}
	return false, byte(pin)
}

func setBit(reg byte, bit byte, v bool) byte {
	if v {
		return reg | (1 << bit)
	}
	return reg &^ (1 << bit)
}
