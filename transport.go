// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package adxl355

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// DebugF is the debug print function type.
type DebugF func(format string, args ...interface{})

func noop(string, ...interface{}) {}

// SPI bus parameters. The device supports clocks up to 10MHz in mode 0.
var (
	SPIFrequency = 10 * physic.MegaHertz
	SPIMode      = spi.Mode0
	SPIBits      = 8
)

// transport carries the register protocol over either I²C or SPI. On SPI
// the register address is shifted left by one and bit 0 selects read.
type transport struct {
	d     *i2c.Dev
	s     spi.Conn
	debug DebugF
}

func newI2CTransport(b i2c.Bus, addr uint16) transport {
	return transport{d: &i2c.Dev{Bus: b, Addr: addr}, debug: noop}
}

func newSPITransport(p spi.Port) (transport, error) {
	c, err := p.Connect(SPIFrequency, SPIMode, SPIBits)
	if err != nil {
		return transport{}, fmt.Errorf("%w: connect: %w", ErrBus, err)
	}
	return transport{s: c, debug: noop}, nil
}

// writeRegister writes value to reg in a single bus transaction.
func (t *transport) writeRegister(reg, value byte) error {
	t.debug("write register %#02x value %#02x", reg, value)
	var err error
	if t.d != nil {
		err = t.d.Tx([]byte{reg, value}, nil)
	} else {
		err = t.s.Tx([]byte{reg << 1, value}, nil)
	}
	if err != nil {
		return fmt.Errorf("%w: write register %#02x: %w", ErrBus, reg, err)
	}
	return nil
}

// readRegister reads a single byte from reg.
func (t *transport) readRegister(reg byte) (byte, error) {
	var buf [1]byte
	if err := t.readBurst(reg, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// readBurst reads len(buf) consecutive registers starting at reg in a
// single bus transaction.
func (t *transport) readBurst(reg byte, buf []byte) error {
	var err error
	if t.d != nil {
		err = t.d.Tx([]byte{reg}, buf)
	} else {
		w := make([]byte, len(buf)+1)
		w[0] = reg<<1 | 1
		r := make([]byte, len(buf)+1)
		if err = t.s.Tx(w, r); err == nil {
			copy(buf, r[1:])
		}
	}
	if err != nil {
		return fmt.Errorf("%w: read register %#02x: %w", ErrBus, reg, err)
	}
	t.debug("read register %#02x content %#x", reg, buf)
	return nil
}

func (t *transport) String() string {
	if t.d != nil {
		return t.d.String()
	}
	return t.s.String()
}
