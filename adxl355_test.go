// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package adxl355

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

var bus i2c.Bus
var liveDevice bool

// Playback for the construction sequence: identity check, reset, range
// configuration and power-on.
var pbInit = []i2ctest.IO{
	{Addr: DefaultAddr, W: []uint8{0x00}, R: []uint8{0xad, 0x1d, 0xed}},
	{Addr: DefaultAddr, W: []uint8{0x2f, 0x52}},
	{Addr: DefaultAddr, W: []uint8{0x2c}, R: []uint8{0x81}},
	{Addr: DefaultAddr, W: []uint8{0x2c, 0x81}},
	{Addr: DefaultAddr, W: []uint8{0x2d, 0x00}},
}

// Playback for a status poll that reports no fresh sample.
var pbNotReady = []i2ctest.IO{
	{Addr: DefaultAddr, W: []uint8{0x04}, R: []uint8{0x00}},
}

// Playback for putting the device into standby.
var pbStandby = []i2ctest.IO{
	{Addr: DefaultAddr, W: []uint8{0x2d, 0x01}},
}

// Playback for leaving standby again.
var pbWake = []i2ctest.IO{
	{Addr: DefaultAddr, W: []uint8{0x2d, 0x00}},
}

// encode20 packs a sample the way the device does, MSB first with four
// padding bits in the last byte.
func encode20(v int32) []byte {
	u := uint32(v) & 0xFFFFF
	return []byte{byte(u >> 12), byte(u >> 4), byte(u&0xF) << 4}
}

// sampleOps returns the playback for one ReadAcceleration: a status poll
// followed by the 9 byte frame read.
func sampleOps(x, y, z int32) []i2ctest.IO {
	frame := append(append(encode20(x), encode20(y)...), encode20(z)...)
	return []i2ctest.IO{
		{Addr: DefaultAddr, W: []uint8{0x04}, R: []uint8{0x01}},
		{Addr: DefaultAddr, W: []uint8{0x11}, R: frame},
	}
}

// tempOps returns the playback for one temperature read.
func tempOps(v uint16) []i2ctest.IO {
	return []i2ctest.IO{
		{Addr: DefaultAddr, W: []uint8{0x06}, R: []uint8{byte(v >> 8), byte(v)}},
	}
}

func init() {
	var err error

	liveDevice = os.Getenv("ADXL355") != ""

	// Make sure periph is initialized.
	if _, err = host.Init(); err != nil {
		fmt.Println(err)
	}

	if liveDevice {
		bus, err = i2creg.Open("")
		if err != nil {
			fmt.Println(err)
		}
		// Add the recorder to dump the data stream when we're using a live device.
		bus = &i2ctest.Record{Bus: bus}
	} else {
		bus = &i2ctest.Playback{DontPanic: true}
	}
}

// getDev returns a configured device using either a real i2c bus, or a
// playback bus loaded with the given op groups.
func getDev(t *testing.T, opts *Opts, playbackOps ...[]i2ctest.IO) (*Dev, error) {
	if liveDevice {
		if recorder, ok := bus.(*i2ctest.Record); ok {
			// Clear the operations buffer.
			recorder.Ops = make([]i2ctest.IO, 0, 32)
		}
	} else {
		pb := bus.(*i2ctest.Playback)
		pb.Ops = pb.Ops[:0]
		for _, ops := range playbackOps {
			pb.Ops = append(pb.Ops, ops...)
		}
		pb.Count = 0
	}
	dev, err := NewI2C(bus, opts)
	if err != nil {
		t.Log("error constructing dev")
		t.Fatal(err)
	}
	return dev, err
}

// shutdown dumps the recorder values if we're running a live device.
func shutdown(t *testing.T) {
	if recorder, ok := bus.(*i2ctest.Record); ok {
		t.Logf("%#v", recorder.Ops)
	}
}

func TestInit(t *testing.T) {
	dev, err := getDev(t, nil, pbInit)
	if err != nil {
		t.Fatal(err)
	}
	defer shutdown(t)

	s := dev.String()
	if len(s) == 0 {
		t.Error("invalid value for String()")
	}
	cal := dev.Calibration()
	if cal.Scale != 1.0 {
		t.Errorf("expected power-on scale 1.0, got %g", cal.Scale)
	}
	if cal.OffsetX != 0 || cal.OffsetY != 0 || cal.OffsetZ != 0 {
		t.Errorf("expected zero offsets before calibration, got %s", cal)
	}
}

func TestReadAcceleration(t *testing.T) {
	dev, err := getDev(t, nil, pbInit, sampleOps(16, -1, 524287))
	if err != nil {
		t.Fatal(err)
	}
	defer shutdown(t)

	a, err := dev.ReadAcceleration()
	if err != nil {
		t.Fatal(err)
	}
	t.Log(a)
	if !liveDevice {
		if a.X != 16 || a.Y != -1 || a.Z != 524287 {
			t.Errorf("unexpected sample %s", a)
		}
	}
}

// A clear data-ready bit returns the zero vector without touching the
// sample registers.
func TestReadAccelerationNotReady(t *testing.T) {
	dev, err := getDev(t, nil, pbInit, pbNotReady)
	if err != nil {
		t.Fatal(err)
	}
	defer shutdown(t)

	a, err := dev.ReadAcceleration()
	if err != nil {
		t.Fatal(err)
	}
	if !liveDevice {
		if a.X != 0 || a.Y != 0 || a.Z != 0 {
			t.Errorf("expected the zero vector, got %s", a)
		}
	}
}

func TestDecode20(t *testing.T) {
	var tests = []struct {
		bytes  []byte
		result int32
	}{
		{bytes: []byte{0x00, 0x00, 0x00}, result: 0},
		{bytes: []byte{0x00, 0x00, 0x10}, result: 1},
		{bytes: []byte{0x7f, 0xff, 0xf0}, result: 524287},
		{bytes: []byte{0x80, 0x00, 0x00}, result: -524288},
		{bytes: []byte{0xff, 0xff, 0xf0}, result: -1},
		{bytes: []byte{0x00, 0x01, 0xe0}, result: 30},
	}
	for _, test := range tests {
		if res := decode20(test.bytes); res != test.result {
			t.Errorf("decode20(%#v) = %d, expected %d", test.bytes, res, test.result)
		}
	}

	// The full 20 bit domain survives an encode/decode round trip. The
	// step is prime so the sweep doesn't align with nibble boundaries.
	for v := int32(-524288); v <= 524287; v += 4093 {
		if res := decode20(encode20(v)); res != v {
			t.Fatalf("round trip of %d returned %d", v, res)
		}
	}
	if res := decode20(encode20(524287)); res != 524287 {
		t.Errorf("round trip of 524287 returned %d", res)
	}
}

func TestTemperature(t *testing.T) {
	if liveDevice {
		dev, err := getDev(t, nil)
		if err != nil {
			t.Fatal(err)
		}
		defer shutdown(t)
		e := physic.Env{}
		if err := dev.Sense(&e); err != nil {
			t.Fatal(err)
		}
		t.Logf("%8s", e.Temperature)
		if e.Temperature < physic.ZeroCelsius-40*physic.Celsius || e.Temperature > physic.ZeroCelsius+125*physic.Celsius {
			t.Errorf("temperature outside the operating range: %s", e.Temperature)
		}
		return
	}

	precision := physic.Env{}
	(&Dev{}).Precision(&precision)

	dev, err := getDev(t, nil, pbInit,
		tempOps(1852),
		tempOps(947),
		tempOps(1761),
		[]i2ctest.IO{{Addr: DefaultAddr, W: []uint8{0x06}, R: []uint8{0xf7, 0x3c}}},
	)
	if err != nil {
		t.Fatal(err)
	}

	// 1852 LSB is the 25°C intercept.
	e := physic.Env{}
	if err := dev.Sense(&e); err != nil {
		t.Fatal(err)
	}
	if expected := physic.ZeroCelsius + 25*physic.Celsius; e.Temperature != expected {
		t.Errorf("expected %s, got %s (%d)", expected, e.Temperature, e.Temperature)
	}
	if e.Pressure != 0 || e.Humidity != 0 {
		t.Error("this device only measures temperature")
	}

	// 905 LSB below the intercept is +100°C on the -9.05 LSB/°C slope.
	if err := dev.Sense(&e); err != nil {
		t.Fatal(err)
	}
	expected := physic.ZeroCelsius + 125*physic.Celsius
	if math.Abs(float64(expected-e.Temperature)) > float64(precision.Temperature) {
		t.Errorf("expected %s, got %s (%d)", expected, e.Temperature, e.Temperature)
	}

	// 91 LSB below the intercept is about 35.055°C.
	if err := dev.Sense(&e); err != nil {
		t.Fatal(err)
	}
	expected = physic.ZeroCelsius + physic.Temperature(35.0552486*float64(physic.Celsius))
	if math.Abs(float64(expected-e.Temperature)) > float64(precision.Temperature) {
		t.Errorf("expected %s, got %s (%d)", expected, e.Temperature, e.Temperature)
	}

	// The upper nibble of TEMP2 is reserved and must be masked off.
	if err := dev.Sense(&e); err != nil {
		t.Fatal(err)
	}
	if expected := physic.ZeroCelsius + 25*physic.Celsius; e.Temperature != expected {
		t.Errorf("expected reserved bits to be ignored, got %s", e.Temperature)
	}
}

func TestStatusBits(t *testing.T) {
	dev, err := getDev(t, nil, pbInit,
		[]i2ctest.IO{{Addr: DefaultAddr, W: []uint8{0x04}, R: []uint8{0x13}}},
	)
	if err != nil {
		t.Fatal(err)
	}
	defer shutdown(t)

	s, err := dev.Status()
	if err != nil {
		t.Fatal(err)
	}
	if liveDevice {
		t.Logf("status %#02x", byte(s))
		return
	}
	if s&StatusDataReady == 0 {
		t.Error("expected data ready to be set")
	}
	if s&StatusFIFOFull == 0 {
		t.Error("expected fifo full to be set")
	}
	if s&StatusNVMBusy == 0 {
		t.Error("expected nvm busy to be set")
	}
	if s&StatusFIFOOverrun != 0 || s&StatusActivity != 0 {
		t.Errorf("unexpected bits set in %#02x", byte(s))
	}
}

// Halt puts the device into standby and the next read brings it back.
func TestHaltRestart(t *testing.T) {
	dev, err := getDev(t, nil, pbInit, pbStandby, pbWake, sampleOps(0, 0, 10))
	if err != nil {
		t.Fatal(err)
	}
	defer shutdown(t)

	if err := dev.Halt(); err != nil {
		t.Fatal(err)
	}
	// A second Halt must not touch the bus again.
	if err := dev.Halt(); err != nil {
		t.Fatal(err)
	}
	a, err := dev.ReadAcceleration()
	if err != nil {
		t.Fatal(err)
	}
	if !liveDevice {
		if a.Z != 10 {
			t.Errorf("unexpected sample after restart: %s", a)
		}
	}
}

// The range selection accumulates into the register with a bitwise OR,
// never a full overwrite, so bits outside the mask and previously set
// range bits survive. 0x81 is the register's power-on value, high speed
// I²C plus the 2g range, so requesting 4g yields 0x83. A non-default
// data rate is written to the filter register.
func TestRangeODRConfig(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: DefaultAddr, W: []uint8{0x00}, R: []uint8{0xad, 0x1d, 0xed}},
			{Addr: DefaultAddr, W: []uint8{0x2f, 0x52}},
			{Addr: DefaultAddr, W: []uint8{0x2c}, R: []uint8{0x81}},
			{Addr: DefaultAddr, W: []uint8{0x2c, 0x83}},
			{Addr: DefaultAddr, W: []uint8{0x28, 0x05}},
			{Addr: DefaultAddr, W: []uint8{0x2d, 0x00}},
		},
		DontPanic: true,
	}
	if _, err := NewI2C(pb, &Opts{Range: Range4G, ODR: ODR125Hz}); err != nil {
		t.Fatal(err)
	}
	if err := pb.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestWrongDevice(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			// An ADXL345 answers 0xE5 on its single ID register.
			{Addr: DefaultAddr, W: []uint8{0x00}, R: []uint8{0xe5, 0x00, 0x00}},
		},
		DontPanic: true,
	}
	_, err := NewI2C(pb, nil)
	if !errors.Is(err, ErrWrongDevice) {
		t.Errorf("expected ErrWrongDevice, got %v", err)
	}
}

func TestNoTransport(t *testing.T) {
	if _, err := NewI2C(nil, nil); !errors.Is(err, ErrNoTransport) {
		t.Errorf("expected ErrNoTransport, got %v", err)
	}
}

func TestInvalidOpts(t *testing.T) {
	pb := &i2ctest.Playback{DontPanic: true}
	if _, err := NewI2C(pb, &Opts{Range: 0x7f}); err == nil {
		t.Error("expected an error for an invalid range")
	}
	if _, err := NewI2C(pb, &Opts{ODR: 0x0b}); err == nil {
		t.Error("expected an error for an invalid data rate")
	}
}

// A failed transaction surfaces as ErrBus.
func TestBusError(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: DefaultAddr, W: []uint8{0x00}, R: []uint8{0xad, 0x1d, 0xed}},
		},
		DontPanic: true,
	}
	_, err := NewI2C(pb, nil)
	if !errors.Is(err, ErrBus) {
		t.Errorf("expected ErrBus, got %v", err)
	}
}

func TestSenseContinuous(t *testing.T) {
	readCount := int32(3)

	// One temperature read per tick, then the standby write from Halt.
	pb := make([]i2ctest.IO, 0, readCount+6)
	pb = append(pb, pbInit...)
	for i := int32(0); i < readCount; i++ {
		pb = append(pb, tempOps(1852)...)
	}
	pb = append(pb, pbStandby...)

	dev, err := getDev(t, nil, pb)
	if err != nil {
		t.Fatal(err)
	}
	defer shutdown(t)

	ch, err := dev.SenseContinuous(300 * time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if _, err = dev.SenseContinuous(300 * time.Millisecond); err == nil {
		t.Error("expected an error for attempting concurrent SenseContinuous")
	}

	counter := atomic.Int32{}
	tEnd := time.Now().UnixMilli() + int64(readCount+2)*1000
	go func() {
		for {
			time.Sleep(30 * time.Millisecond)
			// Stay here until we get the expected number of reads, or the
			// time has expired.
			if counter.Load() == readCount || time.Now().UnixMilli() > tEnd {
				if err := dev.Halt(); err != nil {
					t.Error(err)
				}
				return
			}
		}
	}()

	for e := range ch {
		counter.Add(1)
		t.Log(time.Now(), e)
		if !liveDevice {
			if expected := physic.ZeroCelsius + 25*physic.Celsius; e.Temperature != expected {
				t.Errorf("expected %s, got %s", expected, e.Temperature)
			}
		}
	}
	if counter.Load() != readCount {
		t.Errorf("expected %d readings. received %d", readCount, counter.Load())
	}
}

func TestPrecision(t *testing.T) {
	e := physic.Env{}
	(&Dev{}).Precision(&e)
	// One LSB is 1/9.05 °C.
	if e.Temperature != 110497238*physic.NanoKelvin {
		t.Errorf("incorrect temperature precision value got %d expected %d", e.Temperature, 110497238*physic.NanoKelvin)
	}
	if e.Pressure != 0 || e.Humidity != 0 {
		t.Error("this device only measures temperature")
	}
}

func TestStrings(t *testing.T) {
	a := Acceleration{X: 1, Y: -0.5, Z: 9.81}
	if s := a.String(); s != "X:1.0000 Y:-0.5000 Z:9.8100" {
		t.Errorf("unexpected Acceleration.String(): %q", s)
	}
	c := Calibration{Scale: 1}
	if len(c.String()) == 0 {
		t.Error("invalid value for Calibration.String()")
	}
}
