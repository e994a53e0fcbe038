// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package accelplot renders recorded accelerometer samples as a time
// series chart, one colored trace per axis.
package accelplot

import (
	"errors"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/GermanBionicSystems/adxl355"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

// Sample is one reading with its offset from the start of the recording.
// Plot expects samples in ascending time order.
type Sample struct {
	T time.Duration
	A adxl355.Acceleration
}

// Opts represents the options available for the chart.
type Opts struct {
	// Width and Height of the rendered image in pixels. Leave 0 for
	// 800x480.
	Width  int
	Height int
	// Magnitude adds a trace for |a| next to the three axis traces.
	Magnitude bool
	// Title is drawn in the top left corner.
	Title string

	_ struct{}
}

// Chart margins in pixels.
const (
	marginLeft   = 56
	marginRight  = 14
	marginTop    = 20
	marginBottom = 30
)

type trace struct {
	label   string
	r, g, b float64
	value   func(adxl355.Acceleration) float64
}

var axisTraces = []trace{
	{"X", 0.8, 0.1, 0.1, func(a adxl355.Acceleration) float64 { return a.X }},
	{"Y", 0.1, 0.6, 0.1, func(a adxl355.Acceleration) float64 { return a.Y }},
	{"Z", 0.1, 0.2, 0.8, func(a adxl355.Acceleration) float64 { return a.Z }},
}

var magnitudeTrace = trace{"|a|", 0.4, 0.4, 0.4, func(a adxl355.Acceleration) float64 {
	return math.Sqrt(a.X*a.X + a.Y*a.Y + a.Z*a.Z)
}}

// Plot renders the samples and returns the chart image. The Opts can be
// nil.
func Plot(samples []Sample, opts *Opts) (image.Image, error) {
	if len(samples) == 0 {
		return nil, errors.New("accelplot: no samples")
	}
	if opts == nil {
		opts = &Opts{}
	}
	w := opts.Width
	if w <= 0 {
		w = 800
	}
	h := opts.Height
	if h <= 0 {
		h = 480
	}
	traces := axisTraces
	if opts.Magnitude {
		traces = append(append([]trace{}, axisTraces...), magnitudeTrace)
	}

	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	face := truetype.NewFace(f, &truetype.Options{
		Size: 12,
	})

	dc := gg.NewContext(w, h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetFontFace(face)

	// Value range over all traces, padded so flat recordings still get a
	// visible band.
	vMin, vMax := math.Inf(1), math.Inf(-1)
	for _, s := range samples {
		for _, tr := range traces {
			v := tr.value(s.A)
			vMin = math.Min(vMin, v)
			vMax = math.Max(vMax, v)
		}
	}
	if vMax-vMin < 1e-9 {
		vMin--
		vMax++
	}
	tMax := samples[len(samples)-1].T.Seconds()
	if tMax <= 0 {
		tMax = 1
	}

	plotW := float64(w - marginLeft - marginRight)
	plotH := float64(h - marginTop - marginBottom)
	xAt := func(t float64) float64 { return marginLeft + t/tMax*plotW }
	yAt := func(v float64) float64 { return marginTop + (vMax-v)/(vMax-vMin)*plotH }

	// Grid and tick labels.
	dc.SetLineWidth(1)
	for i := 0; i <= 4; i++ {
		v := vMin + float64(i)*(vMax-vMin)/4
		dc.SetRGBA(0, 0, 0, 0.15)
		dc.DrawLine(marginLeft, yAt(v), float64(w-marginRight), yAt(v))
		dc.Stroke()
		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored(fmt.Sprintf("%.3g", v), marginLeft-6, yAt(v), 1, 0.4)

		t := float64(i) * tMax / 4
		dc.SetRGBA(0, 0, 0, 0.15)
		dc.DrawLine(xAt(t), marginTop, xAt(t), float64(h-marginBottom))
		dc.Stroke()
		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored(fmt.Sprintf("%.1fs", t), xAt(t), float64(h-marginBottom)+14, 0.5, 0.4)
	}

	// Axes.
	dc.SetRGB(0, 0, 0)
	dc.DrawLine(marginLeft, marginTop, marginLeft, float64(h-marginBottom))
	dc.DrawLine(marginLeft, float64(h-marginBottom), float64(w-marginRight), float64(h-marginBottom))
	dc.Stroke()

	// Traces.
	dc.SetLineWidth(1.5)
	for _, tr := range traces {
		dc.SetRGB(tr.r, tr.g, tr.b)
		for i, s := range samples {
			if i == 0 {
				dc.MoveTo(xAt(s.T.Seconds()), yAt(tr.value(s.A)))
			} else {
				dc.LineTo(xAt(s.T.Seconds()), yAt(tr.value(s.A)))
			}
		}
		dc.Stroke()
	}

	// Legend in the top right corner.
	lx := float64(w-marginRight) - 58
	ly := float64(marginTop) + 6
	dc.SetRGBA(1, 1, 1, 0.8)
	dc.DrawRoundedRectangle(lx-8, ly-4, 62, float64(len(traces))*16+8, 4)
	dc.Fill()
	dc.SetRGBA(0, 0, 0, 0.4)
	dc.DrawRoundedRectangle(lx-8, ly-4, 62, float64(len(traces))*16+8, 4)
	dc.Stroke()
	for i, tr := range traces {
		y := ly + float64(i)*16
		dc.SetRGB(tr.r, tr.g, tr.b)
		dc.DrawRectangle(lx, y, 10, 10)
		dc.Fill()
		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored(tr.label, lx+16, y+5, 0, 0.4)
	}

	if opts.Title != "" {
		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored(opts.Title, marginLeft, 12, 0, 0.4)
	}
	return dc.Image(), nil
}

// SavePNG renders the samples and writes the chart to path.
func SavePNG(path string, samples []Sample, opts *Opts) error {
	img, err := Plot(samples, opts)
	if err != nil {
		return err
	}
	return gg.SavePNG(path, img)
}
