// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package adxl355 controls an Analog Devices ADXL355 3-axis accelerometer
// over I²C or SPI. The driver is also compatible with the ADXL357, which
// shares the register file and differs only in its measurement ranges
// (±10g/±20g/±40g instead of ±2g/±4g/±8g).
//
// The sensor outputs 20-bit two's-complement samples per axis and includes
// an on-die temperature sensor. The adxl355.Dev type implements the
// physic.SenseEnv interface for temperature; acceleration is read with
// ReadAcceleration, optionally after deriving a per-device scale factor
// with Calibrate.
//
// Datasheet: https://www.analog.com/media/en/technical-documentation/data-sheets/adxl354_adxl355.pdf
package adxl355
