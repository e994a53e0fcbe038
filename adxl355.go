// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package adxl355

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// settleDelay is how long the device needs after a reset and after leaving
// standby before its output is valid.
const settleDelay = 100 * time.Millisecond

// Temperature conversion constants from the datasheet.
const (
	tempIntercept  float64 = 1852.0 // LSB at 25°C
	tempSlope      float64 = -9.05  // LSB per °C
	tempInterceptC float64 = 25.0
)

// Opts holds the configuration options for the device.
type Opts struct {
	// Addr is the I²C address. Leave 0 to use DefaultAddr. Ignored on SPI.
	Addr uint16
	// Range is the measurement span to configure. Leave 0 to use Range2G.
	Range Range
	// ODR is the output data rate. The zero value is the 4kHz power-on
	// default and is not written to the device.
	ODR ODR
	// Clock is the time source used for the settle delays and calibration
	// pacing. Leave nil to use the wall clock.
	Clock clock.Clock
}

// DefaultOpts holds the default configuration options for the device.
var DefaultOpts = Opts{
	Addr:  DefaultAddr,
	Range: Range2G,
	ODR:   ODR4000Hz,
}

// Acceleration represents one sample of the acceleration on the three
// axes, scaled by the device's calibration factor.
type Acceleration struct {
	X float64
	Y float64
	Z float64
}

// String returns a string representation of the Acceleration.
func (a Acceleration) String() string {
	return fmt.Sprintf("X:%.4f Y:%.4f Z:%.4f", a.X, a.Y, a.Z)
}

// Dev is a driver for the ADXL355/ADXL357 accelerometer.
type Dev struct {
	t   transport
	clk clock.Clock

	mu       sync.Mutex
	shutdown chan struct{}
	halted   bool
	scale    float64
	cal      Calibration
}

// NewI2C returns an object that communicates over I²C to an ADXL355
// accelerometer. The device is reset, configured and switched into
// measurement mode. The Opts can be nil.
func NewI2C(b i2c.Bus, opts *Opts) (*Dev, error) {
	if b == nil {
		return nil, ErrNoTransport
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	addr := opts.Addr
	if addr == 0 {
		addr = DefaultAddr
	}
	return newDev(newI2CTransport(b, addr), opts)
}

// NewSPI returns an object that communicates over SPI to an ADXL355
// accelerometer. The port is connected in mode 0 at 10MHz. The Opts can
// be nil.
func NewSPI(p spi.Port, opts *Opts) (*Dev, error) {
	if p == nil {
		return nil, ErrNoTransport
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	t, err := newSPITransport(p)
	if err != nil {
		return nil, err
	}
	return newDev(t, opts)
}

func newDev(t transport, opts *Opts) (*Dev, error) {
	r := opts.Range
	if r == 0 {
		r = Range2G
	}
	if r != Range2G && r != Range4G && r != Range8G {
		return nil, fmt.Errorf("adxl355: invalid range %#02x", byte(r))
	}
	if opts.ODR > ODR3Hz {
		return nil, fmt.Errorf("adxl355: invalid output data rate %#02x", byte(opts.ODR))
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	d := &Dev{t: t, clk: clk, halted: true, scale: 1.0, cal: Calibration{Scale: 1.0}}
	if err := d.verifyIdentity(); err != nil {
		return nil, err
	}
	if err := d.reset(); err != nil {
		return nil, err
	}
	if err := d.configure(r, opts.ODR); err != nil {
		return nil, err
	}
	if err := d.start(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dev) verifyIdentity() error {
	var id [3]byte
	if err := d.t.readBurst(regDevIDAD, id[:]); err != nil {
		return err
	}
	if id[0] != devIDAD || id[1] != devIDMST || id[2] != partID {
		return fmt.Errorf("%w: got %#02x %#02x %#02x", ErrWrongDevice, id[0], id[1], id[2])
	}
	return nil
}

func (d *Dev) reset() error {
	if err := d.t.writeRegister(regReset, resetCode); err != nil {
		return err
	}
	d.clk.Sleep(settleDelay) // wait for the internal reset to finish according to the datasheet
	return nil
}

// configure ORs the requested range bits into the RANGE register. The
// merge is additive so the interrupt polarity and I²C speed bits keep
// their values; it never clears a range bit that is already set. The
// output data rate is only written when it differs from the power-on
// default.
func (d *Dev) configure(r Range, odr ODR) error {
	cur, err := d.t.readRegister(regRange)
	if err != nil {
		return err
	}
	if err := d.t.writeRegister(regRange, cur|byte(r)&rangeMask); err != nil {
		return err
	}
	if odr != ODR4000Hz {
		if err := d.t.writeRegister(regFilter, byte(odr&odrMask)); err != nil {
			return err
		}
	}
	return nil
}

// start switches from standby into measurement mode.
func (d *Dev) start() error {
	if err := d.t.writeRegister(regPowerCtl, powerCtlMeasure); err != nil {
		return err
	}
	d.clk.Sleep(settleDelay) // wait for the output to stabilize according to the datasheet
	d.halted = false
	return nil
}

// ReadAcceleration returns one three-axis sample in multiples of the
// calibrated scale factor. If no fresh sample is ready the zero vector
// and a nil error are returned; poll Status for StatusDataReady when only
// fresh samples are wanted.
func (d *Dev) ReadAcceleration() (Acceleration, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readAcceleration()
}

func (d *Dev) readAcceleration() (Acceleration, error) {
	if d.halted {
		if err := d.start(); err != nil {
			return Acceleration{}, err
		}
	}
	status, err := d.t.readRegister(regStatus)
	if err != nil {
		return Acceleration{}, err
	}
	if Status(status)&StatusDataReady == 0 {
		return Acceleration{}, nil
	}
	var frame [9]byte
	if err := d.t.readBurst(regFIFOData, frame[:]); err != nil {
		return Acceleration{}, err
	}
	return Acceleration{
		X: float64(decode20(frame[0:3])) * d.scale,
		Y: float64(decode20(frame[3:6])) * d.scale,
		Z: float64(decode20(frame[6:9])) * d.scale,
	}, nil
}

// decode20 assembles a 20-bit two's-complement sample from a MSB-first
// triplet. The low nibble of the third byte is padding.
func decode20(b []byte) int32 {
	raw := uint32(b[0])<<12 | uint32(b[1])<<4 | uint32(b[2])>>4
	if raw&0x80000 != 0 {
		return int32(raw&0x7FFFF) - 0x80000
	}
	return int32(raw)
}

// Status reads the STATUS register. StatusDataReady clears on a sample
// read, so polling it signals when ReadAcceleration will see fresh data.
func (d *Dev) Status() (Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, err := d.t.readRegister(regStatus)
	return Status(s), err
}

// Sense reads the die temperature. Implements physic.SenseEnv. Pressure
// and humidity are always 0 since the device does not measure them.
func (d *Dev) Sense(e *physic.Env) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		if err := d.start(); err != nil {
			return err
		}
	}
	return d.senseTemp(e)
}

func (d *Dev) senseTemp(e *physic.Env) error {
	e.Temperature = 0
	e.Pressure = 0
	e.Humidity = 0
	var raw [2]byte
	if err := d.t.readBurst(regTemp2, raw[:]); err != nil {
		return err
	}
	v := binary.BigEndian.Uint16(raw[:]) & 0x0FFF // upper nibble of TEMP2 is reserved
	c := tempInterceptC + (float64(v)-tempIntercept)/tempSlope
	e.Temperature = physic.ZeroCelsius + physic.Temperature(c*float64(physic.Celsius))
	return nil
}

// SenseContinuous reads the temperature at the given interval and writes
// the values to the returned channel. Implements physic.SenseEnv. To
// terminate the continuous read, call Halt().
func (d *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.shutdown != nil {
		return nil, errors.New("adxl355: SenseContinuous already running")
	}
	stop := make(chan struct{})
	d.shutdown = stop
	ch := make(chan physic.Env, 16)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		defer close(ch)
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				// Unlike Sense, do not wake a halted device; a tick
				// racing Halt must not undo the standby write.
				e := physic.Env{}
				d.mu.Lock()
				if d.halted {
					d.mu.Unlock()
					continue
				}
				err := d.senseTemp(&e)
				d.mu.Unlock()
				if err == nil {
					ch <- e
				}
			}
		}
	}()
	return ch, nil
}

// Precision returns the smallest temperature step the device can resolve.
// Implements physic.SenseEnv.
func (d *Dev) Precision(e *physic.Env) {
	e.Temperature = physic.Temperature(math.Round(float64(physic.Celsius) / -tempSlope))
	e.Pressure = 0
	e.Humidity = 0
}

// EnableDebug sets the debugging output to the provided print function.
func (d *Dev) EnableDebug(f DebugF) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.t.debug = f
}

// Halt stops any SenseContinuous reader and puts the device into standby.
// The next read switches it back into measurement mode. Implements
// conn.Resource.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.shutdown != nil {
		close(d.shutdown)
		d.shutdown = nil
	}
	if d.halted {
		return nil
	}
	if err := d.t.writeRegister(regPowerCtl, powerCtlStandby); err != nil {
		return err
	}
	d.halted = true
	return nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("adxl355: %s", d.t.String())
}

var _ conn.Resource = &Dev{}
var _ physic.SenseEnv = &Dev{}
