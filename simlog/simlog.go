// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package simlog provides the structured-ish logging sink used across
// sbcsim. It mirrors the standard library log.Logger the teacher's CLI
// tools use (see cmd/d2xx/main.go's "-v" flag and log.Lmicroseconds),
// writing through an ANSI-safe console writer the same way
// analyzer.ConsoleView renders a waveform to the terminal.
package simlog

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Default is the package-level logger every component falls back to
// when not given an explicit *Logger. Simulation-internal faults
// (recovered panics in callbacks) are always reported here so the
// kernel can keep running without propagating them, per the
// error-handling design.
var Default = New(os.Stderr)

// Logger wraps *log.Logger with a Colorize flag decided once at
// construction time via go-isatty, to avoid emitting color codes into
// a pipe or file.
type Logger struct {
	mu       sync.Mutex
	std      *log.Logger
	colorize bool
}

// New builds a Logger writing to w. If w is an *os.File, output is
// wrapped with go-colorable so ANSI sequences render correctly on all
// platforms, and colors are emitted only when isatty reports the file
// is a terminal; any other writer gets no colors.
func New(w io.Writer) *Logger {
	colorize := false
	out := w
	if f, ok := w.(*os.File); ok {
		colorize = isatty.IsTerminal(f.Fd())
		out = colorable.NewColorable(f)
	}
	return &Logger{
		std:      log.New(out, "", log.Lmicroseconds),
		colorize: colorize,
	}
}

func (l *Logger) color(code, s string) string {
	if !l.colorize {
		return s
	}
	return "\033[" + code + "m" + s + "\033[0m"
}

// Errorf reports a simulation-internal fault: logged with source and
// never fatal, per the two-tier error model.
func (l *Logger) Errorf(source, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	msg := fmt.Sprintf(format, args...)
	l.std.Printf("%s %s: %s", l.color("31", "ERROR"), source, msg)
}

// Infof logs a non-fatal informational line (acquisition started/
// stopped, device attached, ...).
func (l *Logger) Infof(source, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	msg := fmt.Sprintf(format, args...)
	l.std.Printf("%s %s: %s", l.color("36", "INFO"), source, msg)
}

// SetOutput redirects where log lines are written, discarding output
// entirely when w is nil (the teacher's "-v" flag uses ioutil.Discard
// the same way when not verbose).
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if w == nil {
		w = io.Discard
	}
	l.std.SetOutput(w)
}
