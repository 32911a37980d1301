// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package analyzer

import (
	"bytes"
	"fmt"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

// ConsoleView renders a captured acquisition to the terminal as rows
// of colored blocks, one row per channel, adapted from the console LED
// strip emulator: each bucket of samples becomes a block colored green
// (any sample high) or a dim gray (all low), so a capture can be
// eyeballed without an external viewer.
type ConsoleView struct {
	w   io.Writer
	buf bytes.Buffer
}

// NewConsoleView returns a ConsoleView writing to the terminal.
func NewConsoleView() *ConsoleView {
	return &ConsoleView{w: colorable.NewColorableStdout()}
}

var (
	highColor = color.NRGBA{R: 0, G: 200, B: 0, A: 255}
	lowColor  = color.NRGBA{R: 40, G: 40, B: 40, A: 255}
)

// Render prints every enabled channel in a, one row per channel,
// labeled by name, downsampled into buckets of len(samples)/width
// samples (at least one), so a row has width or more blocks when there
// are at least width samples.
func (v *ConsoleView) Render(a *Analyzer, width int) error {
	ids := a.sortedChannelIDs()
	for _, id := range ids {
		ch := a.channels[id]
		if !ch.Enabled {
			continue
		}
		v.buf.Reset()
		fmt.Fprintf(&v.buf, "%-8s \033[0m", ch.Name)
		writeRow(&v.buf, ch.samples, width)
		v.buf.WriteString("\033[0m\n")
		if _, err := v.buf.WriteTo(v.w); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(buf *bytes.Buffer, samples []bool, width int) {
	if width <= 0 || len(samples) == 0 {
		return
	}
	bucket := len(samples) / width
	if bucket == 0 {
		bucket = 1
	}
	for i := 0; i < len(samples); i += bucket {
		end := i + bucket
		if end > len(samples) {
			end = len(samples)
		}
		high := false
		for _, s := range samples[i:end] {
			if s {
				high = true
				break
			}
		}
		c := lowColor
		if high {
			c = highColor
		}
		io.WriteString(buf, ansi256.Default.Block(c))
	}
}
