// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package adxl355

import (
	"fmt"
	"time"
)

const (
	// DefaultCalibrationSamples is the number of readings a Calibrate run
	// averages when 0 is passed for samples.
	DefaultCalibrationSamples = 100
	// DefaultCalibrationInterval is the pause between readings when 0 is
	// passed for interval.
	DefaultCalibrationInterval = 10 * time.Millisecond
)

// restZBias is the reading the Z axis delivers at rest under 1g with the
// power-on scale factor.
const restZBias = 10.0

// Calibration holds the result of the most recent successful Calibrate
// run.
type Calibration struct {
	// OffsetX, OffsetY and OffsetZ are the per-axis mean readings
	// observed while the device was at rest.
	OffsetX float64
	OffsetY float64
	OffsetZ float64
	// Scale is the factor applied to every acceleration sample. It is
	// 1.0 until a Calibrate run succeeds.
	Scale float64
}

func (c Calibration) String() string {
	return fmt.Sprintf("{OffsetX:%g OffsetY:%g OffsetZ:%g Scale:%g}", c.OffsetX, c.OffsetY, c.OffsetZ, c.Scale)
}

// Calibrate derives a new scale factor from readings taken while the
// device rests on a flat, level surface with the Z axis pointing up. It
// averages the given number of samples, pausing interval between reads;
// 0 selects DefaultCalibrationSamples and DefaultCalibrationInterval.
//
// The run blocks every other method until it finishes. If the averaged
// readings are degenerate, ErrCalibration is returned and the previous
// scale factor stays in effect.
func (d *Dev) Calibrate(samples int, interval time.Duration) error {
	if samples <= 0 {
		samples = DefaultCalibrationSamples
	}
	if interval <= 0 {
		interval = DefaultCalibrationInterval
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	var sumX, sumY, sumZ float64
	for i := 0; i < samples; i++ {
		a, err := d.readAcceleration()
		if err != nil {
			return err
		}
		sumX += a.X
		sumY += a.Y
		sumZ += a.Z
		d.clk.Sleep(interval)
	}
	n := float64(samples)
	meanX, meanY, meanZ := sumX/n, sumY/n, sumZ/n

	// The sensitive axis carries 1g at rest; remove it before comparing
	// the axes.
	level := meanZ - restZBias
	denom := ((level - meanX) + (level - meanY)) / 2
	if denom == 0 {
		return fmt.Errorf("%w: samples average to X:%g Y:%g Z:%g", ErrCalibration, meanX, meanY, meanZ)
	}
	d.scale = 1.0 / denom
	d.cal = Calibration{OffsetX: meanX, OffsetY: meanY, OffsetZ: meanZ, Scale: d.scale}
	return nil
}

// Calibration returns the result of the most recent successful Calibrate
// run.
func (d *Dev) Calibration() Calibration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cal
}
