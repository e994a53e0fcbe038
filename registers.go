// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package adxl355

const (
	// DefaultAddr is the I²C address with the ASEL pin low.
	DefaultAddr uint16 = 0x1D
	// AlternateAddr is the I²C address with the ASEL pin high.
	AlternateAddr uint16 = 0x53
)

// Register map. All registers are a single byte wide.
const (
	regDevIDAD     byte = 0x00 // Analog Devices ID, always 0xAD
	regDevIDMST    byte = 0x01 // Analog Devices MEMS ID, always 0x1D
	regPartID      byte = 0x02 // Part ID, 0xED (355 in octal)
	regRevID       byte = 0x03 // Mask revision
	regStatus      byte = 0x04 // Status flags, see the Status* constants
	regFIFOEntries byte = 0x05 // Number of valid samples in the FIFO
	regTemp2       byte = 0x06 // Temperature high nibble
	regTemp1       byte = 0x07 // Temperature low byte
	regXData3      byte = 0x08 // X acceleration bits 19:12
	regXData2      byte = 0x09 // X acceleration bits 11:4
	regXData1      byte = 0x0A // X acceleration bits 3:0, upper nibble
	regYData3      byte = 0x0B // Y acceleration bits 19:12
	regYData2      byte = 0x0C // Y acceleration bits 11:4
	regYData1      byte = 0x0D // Y acceleration bits 3:0, upper nibble
	regZData3      byte = 0x0E // Z acceleration bits 19:12
	regZData2      byte = 0x0F // Z acceleration bits 11:4
	regZData1      byte = 0x10 // Z acceleration bits 3:0, upper nibble
	regFIFOData    byte = 0x11 // FIFO read port

	regOffsetXH byte = 0x1E // X offset trim bits 15:8
	regOffsetXL byte = 0x1F // X offset trim bits 7:0
	regOffsetYH byte = 0x20 // Y offset trim bits 15:8
	regOffsetYL byte = 0x21 // Y offset trim bits 7:0
	regOffsetZH byte = 0x22 // Z offset trim bits 15:8
	regOffsetZL byte = 0x23 // Z offset trim bits 7:0

	regActEnable byte = 0x24 // Activity detection axis enable
	regActThresH byte = 0x25 // Activity threshold bits 15:8
	regActThresL byte = 0x26 // Activity threshold bits 7:0
	regActCount  byte = 0x27 // Consecutive samples above threshold

	regFilter      byte = 0x28 // High-pass and output data rate selection
	regFIFOSamples byte = 0x29 // FIFO watermark
	regIntMap      byte = 0x2A // Interrupt pin mapping
	regSync        byte = 0x2B // External sync / interpolation control
	regRange       byte = 0x2C // Measurement range, see the Range* constants
	regPowerCtl    byte = 0x2D // Standby / measurement mode control
	regSelfTest    byte = 0x2E // Self test force enable
	regReset       byte = 0x2F // Write resetCode to reset the device
)

// Expected identity register values.
const (
	devIDAD  byte = 0xAD
	devIDMST byte = 0x1D
	partID   byte = 0xED
)

// resetCode written to regReset restores all registers to their defaults.
const resetCode byte = 0x52

// POWER_CTL bits. Clearing powerCtlStandby switches the device from standby
// into measurement mode.
const (
	powerCtlStandby byte = 1 << 0
	powerCtlTempOff byte = 1 << 1
	powerCtlDrdyOff byte = 1 << 2
	powerCtlMeasure byte = 0x00
)

// Range selects the measurement span. The bits are OR'd into the RANGE
// register so the interrupt polarity and I²C speed bits above them keep
// their reset values. On the ADXL357 the same codes select ±10g, ±20g
// and ±40g.
type Range byte

const (
	Range2G Range = 0x01 // ±2.048 g
	Range4G Range = 0x02 // ±4.096 g
	Range8G Range = 0x03 // ±8.192 g

	rangeMask byte = 0x03
)

// ODR selects the output data rate and low-pass filter corner written to
// the FILTER register. The low-pass corner is always a quarter of the
// output rate.
type ODR byte

const (
	ODR4000Hz ODR = iota
	ODR2000Hz
	ODR1000Hz
	ODR500Hz
	ODR250Hz
	ODR125Hz
	ODR62Hz // 62.5 Hz
	ODR31Hz // 31.25 Hz
	ODR15Hz // 15.625 Hz
	ODR7Hz  // 7.813 Hz
	ODR3Hz  // 3.906 Hz

	odrMask ODR = 0x0F
)

// Status is the content of the STATUS register.
type Status byte

const (
	// StatusDataReady is set when a complete sample is waiting to be read
	// and clears on read.
	StatusDataReady Status = 1 << 0
	// StatusFIFOFull is set when the FIFO watermark is reached.
	StatusFIFOFull Status = 1 << 1
	// StatusFIFOOverrun is set when the FIFO has discarded data.
	StatusFIFOOverrun Status = 1 << 2
	// StatusActivity is set while activity above the configured threshold
	// is detected.
	StatusActivity Status = 1 << 3
	// StatusNVMBusy is set while the fuse ROM is being refreshed, for
	// example during the power-on reset sequence.
	StatusNVMBusy Status = 1 << 4
)
