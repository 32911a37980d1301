// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package analyzer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"sort"
)

// ExportFormat selects ExportData's output encoding.
type ExportFormat string

// Supported export formats.
const (
	FormatCSV ExportFormat = "csv"
	FormatVCD ExportFormat = "vcd"
)

// ErrUnknownFormat is returned by ExportData for an unsupported format.
var ErrUnknownFormat = errors.New("analyzer: unknown export format")

func (a *Analyzer) sortedChannelIDs() []int {
	ids := make([]int, 0, len(a.channels))
	for id := range a.channels {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// ExportData writes the current capture to path in the given format.
func (a *Analyzer) ExportData(path string, format ExportFormat) error {
	switch format {
	case FormatCSV:
		return a.exportCSV(path)
	case FormatVCD:
		return a.exportVCD(path)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

func (a *Analyzer) exportCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	ids := a.sortedChannelIDs()
	header := []string{"Time"}
	for _, id := range ids {
		header = append(header, a.channels[id].Name)
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i, t := range a.timeBuffer {
		row := []string{fmt.Sprintf("%.9f", t)}
		for _, id := range ids {
			samples := a.channels[id].samples
			v := "0"
			if i < len(samples) && samples[i] {
				v = "1"
			}
			row = append(row, v)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func (a *Analyzer) exportVCD(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	ids := a.sortedChannelIDs()
	symbol := func(id int) byte { return byte('A' + id) }

	fmt.Fprintln(f, "$version sbcsim Logic Analyzer $end")
	fmt.Fprintln(f, "$timescale 1ns $end")
	fmt.Fprintln(f, "$scope module top $end")
	for i, id := range ids {
		fmt.Fprintf(f, "$var wire 1 %c %s $end\n", symbol(i), a.channels[id].Name)
	}
	fmt.Fprintln(f, "$upscope $end")
	fmt.Fprintln(f, "$enddefinitions $end")

	fmt.Fprintln(f, "$dumpvars")
	for i, id := range ids {
		samples := a.channels[id].samples
		v := byte('0')
		if len(samples) > 0 && samples[0] {
			v = '1'
		}
		fmt.Fprintf(f, "%c%c\n", v, symbol(i))
	}
	fmt.Fprintln(f, "$end")

	for i := 1; i < len(a.timeBuffer); i++ {
		timeNs := int64(a.timeBuffer[i] * 1e9)
		var changes []string
		for sym, id := range ids {
			samples := a.channels[id].samples
			if i >= len(samples) {
				continue
			}
			if samples[i] != samples[i-1] {
				v := byte('0')
				if samples[i] {
					v = '1'
				}
				changes = append(changes, fmt.Sprintf("%c%c", v, symbol(sym)))
			}
		}
		if len(changes) == 0 {
			continue
		}
		fmt.Fprintf(f, "#%d\n", timeNs)
		for _, c := range changes {
			fmt.Fprintln(f, c)
		}
	}
	return nil
}
