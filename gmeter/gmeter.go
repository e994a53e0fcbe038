// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gmeter renders accelerometer readings as rows of colored cells
// on a terminal (stdout) using ANSI color codes, one bar per axis plus
// one for the magnitude.
//
// Readings are expected in g, so the bars are most useful after a
// Calibrate run has normalized the device's scale factor.
package gmeter

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/GermanBionicSystems/adxl355"
	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

// Opts represents the options available for the meter.
type Opts struct {
	// Width is the number of cells per bar. Leave 0 for the default of 60.
	Width int
	// FullScale is the reading that deflects an axis bar to its edge, in
	// g. Leave 0 for the default of 2.
	FullScale float64
	// Palette translates cell colors to terminal colors.
	Palette *ansi256.Palette
	// Writer overrides the output, mainly for tests. Leave nil to write
	// to stdout.
	Writer io.Writer

	_ struct{}
}

// rows drawn per frame: one per axis and one for the magnitude.
const rows = 4

// dim is the color of the unfilled part of a bar.
var dim = color.NRGBA{R: 28, G: 28, B: 28, A: 255}

// Meter draws bars for the three axes and the magnitude, overwriting
// itself on every Render.
type Meter struct {
	w         io.Writer
	width     int
	fullScale float64
	palette   ansi256.Palette

	drawn bool
	buf   bytes.Buffer
}

// New returns a Meter that displays at the console.
func New(opts *Opts) *Meter {
	if opts == nil {
		opts = &Opts{}
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.Writer
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	width := opts.Width
	if width <= 0 {
		width = 60
	}
	fullScale := opts.FullScale
	if fullScale <= 0 {
		fullScale = 2
	}
	return &Meter{
		w:         w,
		width:     width,
		fullScale: fullScale,
		palette:   *p,
	}
}

func (m *Meter) String() string {
	return "GMeter"
}

// Render draws one reading over the previously drawn one.
func (m *Meter) Render(a adxl355.Acceleration) error {
	// This code is designed to minimize the amount of memory allocated
	// per call.
	m.buf.Reset()
	if m.drawn {
		fmt.Fprintf(&m.buf, "\033[%dA", rows)
	}
	m.axisRow("X", a.X)
	m.axisRow("Y", a.Y)
	m.axisRow("Z", a.Z)
	m.magRow(math.Sqrt(a.X*a.X + a.Y*a.Y + a.Z*a.Z))
	m.drawn = true
	_, err := m.buf.WriteTo(m.w)
	return err
}

// Halt restores the terminal attributes.
func (m *Meter) Halt() error {
	_, err := m.w.Write([]byte("\n\033[0m"))
	return err
}

// axisRow draws a bar deflecting from the center, leftwards for negative
// readings and rightwards for positive ones.
func (m *Meter) axisRow(label string, v float64) {
	m.buf.WriteString("\r\033[0m")
	m.buf.WriteString(label)
	m.buf.WriteByte(' ')
	half := m.width / 2
	n := int(math.Round(math.Abs(v) / m.fullScale * float64(half)))
	if n > half {
		n = half // clamp off-scale readings to the edge
	}
	from, to := half-n, half
	if v >= 0 {
		from, to = half, half+n
	}
	for i := 0; i < m.width; i++ {
		if i >= from && i < to {
			io.WriteString(&m.buf, m.palette.Block(m.cell(math.Abs(float64(i-half)+0.5)/float64(half))))
		} else {
			io.WriteString(&m.buf, m.palette.Block(dim))
		}
	}
	fmt.Fprintf(&m.buf, "\033[0m % 9.4f\n", v)
}

// magRow draws the magnitude bar growing from the left edge.
func (m *Meter) magRow(mag float64) {
	m.buf.WriteString("\r\033[0mg ")
	n := int(math.Round(mag / m.fullScale * float64(m.width)))
	if n > m.width {
		n = m.width
	}
	for i := 0; i < m.width; i++ {
		if i < n {
			io.WriteString(&m.buf, m.palette.Block(m.cell(float64(i)/float64(m.width))))
		} else {
			io.WriteString(&m.buf, m.palette.Block(dim))
		}
	}
	fmt.Fprintf(&m.buf, "\033[0m % 9.4f\n", mag)
}

// cell grades from green at the center of the scale to red at the edge.
func (m *Meter) cell(f float64) color.NRGBA {
	if f > 1 {
		f = 1
	}
	return color.NRGBA{R: byte(255 * f), G: byte(255 * (1 - f)), B: 0, A: 255}
}

var _ fmt.Stringer = &Meter{}
