// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// adxl355rec records ADXL355 samples to a CSV stream, prints a per axis
// summary and optionally renders the recording as a PNG chart.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"time"

	"github.com/GermanBionicSystems/adxl355"
	"github.com/GermanBionicSystems/adxl355/accelplot"
	"github.com/montanaflynn/stats"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

var (
	busName   = flag.String("bus", "", "I²C bus to use, the first available one if empty")
	spiPort   = flag.String("spi", "", "read over this SPI port instead of I²C")
	addr      = flag.Uint("addr", uint(adxl355.DefaultAddr), "I²C address of the device")
	rangeG    = flag.Int("range", 2, "measurement range in g: 2, 4 or 8")
	odrHz     = flag.Float64("odr", 4000, "output data rate in Hz")
	duration  = flag.Duration("duration", 10*time.Second, "length of the recording")
	interval  = flag.Duration("interval", 10*time.Millisecond, "time between samples")
	out       = flag.String("out", "", "write the samples as CSV to this file, stdout if empty")
	pngPath   = flag.String("png", "", "render the recording as a PNG chart to this file")
	magnitude = flag.Bool("magnitude", false, "add a magnitude trace to the chart")
	calibrate = flag.Bool("calibrate", false, "calibrate at rest on a flat surface first")
)

func parseRange(g int) (adxl355.Range, error) {
	switch g {
	case 2:
		return adxl355.Range2G, nil
	case 4:
		return adxl355.Range4G, nil
	case 8:
		return adxl355.Range8G, nil
	}
	return 0, fmt.Errorf("unsupported range %dg", g)
}

func parseODR(hz float64) (adxl355.ODR, error) {
	switch hz {
	case 4000:
		return adxl355.ODR4000Hz, nil
	case 2000:
		return adxl355.ODR2000Hz, nil
	case 1000:
		return adxl355.ODR1000Hz, nil
	case 500:
		return adxl355.ODR500Hz, nil
	case 250:
		return adxl355.ODR250Hz, nil
	case 125:
		return adxl355.ODR125Hz, nil
	case 62.5:
		return adxl355.ODR62Hz, nil
	case 31.25:
		return adxl355.ODR31Hz, nil
	case 15.625:
		return adxl355.ODR15Hz, nil
	case 7.813:
		return adxl355.ODR7Hz, nil
	case 3.906:
		return adxl355.ODR3Hz, nil
	}
	return 0, fmt.Errorf("unsupported output data rate %gHz", hz)
}

func open(opts *adxl355.Opts) (*adxl355.Dev, func(), error) {
	if *spiPort != "" {
		p, err := spireg.Open(*spiPort)
		if err != nil {
			return nil, nil, err
		}
		d, err := adxl355.NewSPI(p, opts)
		if err != nil {
			p.Close()
			return nil, nil, err
		}
		return d, func() { p.Close() }, nil
	}
	b, err := i2creg.Open(*busName)
	if err != nil {
		return nil, nil, err
	}
	d, err := adxl355.NewI2C(b, opts)
	if err != nil {
		b.Close()
		return nil, nil, err
	}
	return d, func() { b.Close() }, nil
}

func record(dev *adxl355.Dev) ([]accelplot.Sample, error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	defer signal.Stop(c)
	t := time.NewTicker(*interval)
	defer t.Stop()
	deadline := time.After(*duration)

	expected := int(*duration / *interval)
	samples := make([]accelplot.Sample, 0, expected+1)
	start := time.Now()
	for {
		select {
		case <-c:
			return samples, nil
		case <-deadline:
			return samples, nil
		case <-t.C:
			a, err := dev.ReadAcceleration()
			if err != nil {
				return samples, err
			}
			samples = append(samples, accelplot.Sample{T: time.Since(start), A: a})
		}
	}
}

// rowStats is the summary of one column of the recording.
type rowStats struct {
	mean, stddev, min, max float64
}

func summarize(v []float64) (rowStats, error) {
	var r rowStats
	var err error
	if r.mean, err = stats.Mean(v); err != nil {
		return r, err
	}
	if r.stddev, err = stats.StandardDeviation(v); err != nil {
		return r, err
	}
	if r.min, err = stats.Min(v); err != nil {
		return r, err
	}
	if r.max, err = stats.Max(v); err != nil {
		return r, err
	}
	return r, nil
}

func mainImpl() error {
	flag.Parse()
	if flag.NArg() != 0 {
		return fmt.Errorf("unexpected argument %q", flag.Arg(0))
	}
	if *interval <= 0 {
		return fmt.Errorf("invalid interval %s", *interval)
	}
	if *duration <= 0 {
		return fmt.Errorf("invalid duration %s", *duration)
	}
	r, err := parseRange(*rangeG)
	if err != nil {
		return err
	}
	odr, err := parseODR(*odrHz)
	if err != nil {
		return err
	}
	if _, err := host.Init(); err != nil {
		return err
	}

	dev, closeBus, err := open(&adxl355.Opts{Addr: uint16(*addr), Range: r, ODR: odr})
	if err != nil {
		return err
	}
	defer closeBus()
	defer dev.Halt()

	if *calibrate {
		log.Printf("calibrating, keep the device still on a flat surface")
		if err := dev.Calibrate(0, 0); err != nil {
			return err
		}
		log.Printf("calibration %s", dev.Calibration())
	}

	log.Printf("recording for %s", *duration)
	samples, err := record(dev)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no samples recorded")
	}

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	fmt.Fprintln(w, "t_ms,x_g,y_g,z_g")
	xs := make([]float64, len(samples))
	ys := make([]float64, len(samples))
	zs := make([]float64, len(samples))
	ms := make([]float64, len(samples))
	for i, s := range samples {
		xs[i] = s.A.X
		ys[i] = s.A.Y
		zs[i] = s.A.Z
		ms[i] = math.Sqrt(s.A.X*s.A.X + s.A.Y*s.A.Y + s.A.Z*s.A.Z)
		fmt.Fprintf(w, "%.1f,%.6f,%.6f,%.6f\n", float64(s.T)/float64(time.Millisecond), s.A.X, s.A.Y, s.A.Z)
	}

	log.Printf("%d samples over %s", len(samples), samples[len(samples)-1].T.Round(time.Millisecond))
	for _, c := range []struct {
		label string
		v     []float64
	}{{"X", xs}, {"Y", ys}, {"Z", zs}, {"|a|", ms}} {
		st, err := summarize(c.v)
		if err != nil {
			return err
		}
		log.Printf("%s mean %+.4fg stddev %.4fg min %+.4fg max %+.4fg", c.label, st.mean, st.stddev, st.min, st.max)
	}

	if *pngPath != "" {
		opts := &accelplot.Opts{
			Magnitude: *magnitude,
			Title:     fmt.Sprintf("adxl355 %s", time.Now().Format(time.RFC3339)),
		}
		if err := accelplot.SavePNG(*pngPath, samples, opts); err != nil {
			return err
		}
		log.Printf("chart written to %s", *pngPath)
	}
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "adxl355rec: %s.\n", err)
		os.Exit(1)
	}
}
