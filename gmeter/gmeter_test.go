// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gmeter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/GermanBionicSystems/adxl355"
)

func TestRender(t *testing.T) {
	buf := &bytes.Buffer{}
	m := New(&Opts{Width: 10, FullScale: 2, Writer: buf})

	if err := m.Render(adxl355.Acceleration{X: 1, Y: -1, Z: 2}); err != nil {
		t.Fatal(err)
	}
	frame := buf.String()
	if got := strings.Count(frame, "\n"); got != rows {
		t.Errorf("expected %d rows, got %d in %q", rows, got, frame)
	}
	for _, label := range []string{"\033[0mX ", "\033[0mY ", "\033[0mZ ", "\033[0mg "} {
		if !strings.Contains(frame, label) {
			t.Errorf("missing row %q in %q", label, frame)
		}
	}
	if !strings.Contains(frame, "1.0000") {
		t.Errorf("missing numeric readout in %q", frame)
	}

	// The second frame must rewind over the first one.
	buf.Reset()
	if err := m.Render(adxl355.Acceleration{}); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "\033[4A") {
		t.Errorf("expected the second frame to move the cursor up, got %q", buf.String())
	}
}

// Off-scale readings clamp to the edge of the bar instead of overflowing
// the row.
func TestRenderClamped(t *testing.T) {
	buf := &bytes.Buffer{}
	m := New(&Opts{Width: 8, FullScale: 2, Writer: buf})
	if err := m.Render(adxl355.Acceleration{X: 1000, Y: -1000, Z: 1000}); err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(buf.String(), "\n"); got != rows {
		t.Errorf("expected %d rows, got %d", rows, got)
	}
}

func TestHalt(t *testing.T) {
	buf := &bytes.Buffer{}
	m := New(&Opts{Width: 4, Writer: buf})
	if err := m.Halt(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(buf.String(), "\033[0m") {
		t.Errorf("expected Halt to restore the terminal, got %q", buf.String())
	}
}

func TestDefaults(t *testing.T) {
	m := New(&Opts{})
	if m.width != 60 || m.fullScale != 2 {
		t.Errorf("unexpected defaults width=%d fullScale=%g", m.width, m.fullScale)
	}
	if m.String() != "GMeter" {
		t.Errorf("unexpected String() %q", m.String())
	}
}
