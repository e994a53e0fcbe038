// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// adxl355meter displays live readings from an ADXL355 as colored bar
// meters in the terminal.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/GermanBionicSystems/adxl355"
	"github.com/GermanBionicSystems/adxl355/gmeter"
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
	interval  = flag.Duration("interval", 50*time.Millisecond, "time between readings")
	fullScale = flag.Float64("fullscale", 2, "full scale of the bars in g")
	width     = flag.Int("width", 60, "width of the bars in cells")
	calibrate = flag.Bool("calibrate", false, "calibrate at rest on a flat surface first")
	verbose   = flag.Bool("verbose", false, "log all register accesses")
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

func mainImpl() error {
	flag.Parse()
	if flag.NArg() != 0 {
		return fmt.Errorf("unexpected argument %q", flag.Arg(0))
	}
	if *interval <= 0 {
		return fmt.Errorf("invalid interval %s", *interval)
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
	if *verbose {
		dev.EnableDebug(log.Printf)
	}

	if *calibrate {
		log.Printf("calibrating, keep the device still on a flat surface")
		if err := dev.Calibrate(0, 0); err != nil {
			return err
		}
		log.Printf("calibration %s", dev.Calibration())
	}

	m := gmeter.New(&gmeter.Opts{Width: *width, FullScale: *fullScale})
	defer m.Halt()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	t := time.NewTicker(*interval)
	defer t.Stop()
	for {
		select {
		case <-c:
			return nil
		case <-t.C:
			a, err := dev.ReadAcceleration()
			if err != nil {
				return err
			}
			if err := m.Render(a); err != nil {
				return err
			}
		}
	}
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "adxl355meter: %s.\n", err)
		os.Exit(1)
	}
}
