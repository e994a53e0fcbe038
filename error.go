// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package adxl355

import "errors"

var (
	// ErrNoTransport is returned by the constructors when the bus or port
	// handle is nil.
	ErrNoTransport = errors.New("adxl355: no bus transport")

	// ErrWrongDevice is returned when the identity registers do not match
	// an ADXL355/ADXL357.
	ErrWrongDevice = errors.New("adxl355: unexpected device identity")

	// ErrBus wraps a failed bus transaction. The driver never retries;
	// callers own the retry policy.
	ErrBus = errors.New("adxl355: bus failure")

	// ErrCalibration is returned when the calibration samples produce a
	// degenerate geometry that would lead to a division by zero. The
	// previous scale factor stays in effect.
	ErrCalibration = errors.New("adxl355: calibration rejected, device not at rest on a flat surface")
)
