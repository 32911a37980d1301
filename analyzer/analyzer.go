// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package analyzer implements a multi-channel logic analyzer: bounded
// per-channel sample rings sampled from bound kernel.Signals, a
// trigger state machine, post-capture measurements and CSV/VCD
// export.
package analyzer

import (
	"errors"
	"fmt"

	"sbcsim/kernel"
)

// ErrTooManyChannels is returned by AddChannel once MaxChannels is reached.
var ErrTooManyChannels = errors.New("analyzer: max channels reached")

// ErrUnknownChannel is returned by operations on a channel id that was
// never added.
var ErrUnknownChannel = errors.New("analyzer: unknown channel")

// TriggerType selects the predicate an analyzer's trigger channel is
// evaluated against on every Update.
type TriggerType int

// Trigger types, mirroring the analyzer's setTrigger triggerType enum.
const (
	TriggerRisingEdge TriggerType = iota
	TriggerFallingEdge
	TriggerBothEdges
	TriggerHighLevel
	TriggerLowLevel
	TriggerPattern
)

// AcquisitionState is the analyzer's acquisition state machine state.
type AcquisitionState int

// Acquisition states.
const (
	Idle AcquisitionState = iota
	Armed
	Triggered
)

// Channel is one logic-analyzer input: a bound Signal sampled into a
// fixed-depth ring aligned to the analyzer's shared time axis.
type Channel struct {
	ID      int
	Name    string
	Signal  *kernel.Signal
	Enabled bool
	Color   string
	Invert  bool

	samples []bool

	// lastTriggerValue is this channel's own edge-detect cache. Each
	// channel keeps its own, unlike a design where a single shared
	// field on the analyzer would corrupt edge detection the moment a
	// second channel also triggers off level/pattern predicates.
	lastTriggerValue    bool
	hasLastTriggerValue bool
}

// TriggerConfig configures the trigger predicate evaluated on the
// trigger channel during ARMED.
type TriggerConfig struct {
	Channel int
	Type    TriggerType
	Pattern []bool
}

// Analyzer is a multi-channel logic analyzer.
type Analyzer struct {
	bus         *kernel.EventBus
	MaxChannels int

	channels map[int]*Channel

	SampleRate  float64
	MemoryDepth int
	TimeBase    float64

	trigger       *TriggerConfig
	AutoTrigger   bool
	TriggerTimeout float64

	acquiring bool
	triggered bool
	triggerTime float64

	timeBuffer []float64
}

// NewAnalyzer returns an Analyzer with the default sample rate (1MHz),
// memory depth (10000) and up to maxChannels channels (16 if 0 is
// passed).
func NewAnalyzer(bus *kernel.EventBus, maxChannels int) *Analyzer {
	if maxChannels <= 0 {
		maxChannels = 16
	}
	return &Analyzer{
		bus:            bus,
		MaxChannels:    maxChannels,
		channels:       make(map[int]*Channel),
		SampleRate:     1_000_000,
		MemoryDepth:    10_000,
		TimeBase:       1e-3,
		AutoTrigger:    true,
		TriggerTimeout: 5.0,
	}
}

// AddChannel registers a channel bound to sig, id must be < MaxChannels.
func (a *Analyzer) AddChannel(id int, name string, sig *kernel.Signal, color string) error {
	if id >= a.MaxChannels {
		return ErrTooManyChannels
	}
	if color == "" {
		color = "#00FF00"
	}
	a.channels[id] = &Channel{
		ID: id, Name: name, Signal: sig, Enabled: true, Color: color,
		samples: make([]bool, a.MemoryDepth),
	}
	return nil
}

// RemoveChannel unregisters channel id.
func (a *Analyzer) RemoveChannel(id int) {
	delete(a.channels, id)
}

// SetTrigger configures the trigger predicate.
func (a *Analyzer) SetTrigger(channel int, kind TriggerType, pattern []bool) {
	a.trigger = &TriggerConfig{Channel: channel, Type: kind, Pattern: pattern}
}

// StartAcquisition clears all channel buffers, rebuilds the time axis
// and moves the analyzer to ARMED (or straight to TRIGGERED if
// AutoTrigger is set).
func (a *Analyzer) StartAcquisition() {
	if len(a.channels) == 0 {
		return
	}
	a.acquiring = true
	a.triggered = false
	a.triggerTime = 0

	for _, ch := range a.channels {
		for i := range ch.samples {
			ch.samples[i] = false
		}
		ch.hasLastTriggerValue = false
	}

	period := 1.0 / a.SampleRate
	a.timeBuffer = make([]float64, a.MemoryDepth)
	for i := range a.timeBuffer {
		a.timeBuffer[i] = float64(i) * period
	}
}

// StopAcquisition halts sampling; captured buffers are retained.
func (a *Analyzer) StopAcquisition() {
	a.acquiring = false
}

// State reports the current acquisition state.
func (a *Analyzer) State() AcquisitionState {
	switch {
	case !a.acquiring:
		return Idle
	case a.triggered || a.AutoTrigger:
		return Triggered
	default:
		return Armed
	}
}

// Update advances the analyzer to sim-time now: it evaluates the
// trigger predicate (if not yet triggered) and samples every enabled
// channel at the same timestamp.
func (a *Analyzer) Update(now float64) {
	if !a.acquiring {
		return
	}

	if !a.triggered && a.trigger != nil {
		if a.checkTrigger(now) {
			a.triggered = true
			a.triggerTime = now
			if a.bus != nil {
				a.bus.Publish(kernel.Event{
					Kind: kernel.KindDeviceUpdate, Timestamp: now, Source: "analyzer",
					Payload: kernel.Payload{"event": "triggered", "trigger_time": now},
				})
			}
		}
	}

	if a.triggered || a.AutoTrigger {
		a.sampleChannels(now)
	}
}

func (a *Analyzer) checkTrigger(now float64) bool {
	tc := a.trigger
	ch, ok := a.channels[tc.Channel]
	if !ok {
		return false
	}
	current := ch.Signal.CurrentValue() > 0.5

	// Matches the defaults a first evaluation uses before any previous
	// value has been recorded: rising starts from false, falling from
	// true, so neither can spuriously fire on the very first sample.
	previous := false
	if tc.Type == TriggerFallingEdge {
		previous = true
	}
	if ch.hasLastTriggerValue {
		previous = ch.lastTriggerValue
	}

	var fired bool
	switch tc.Type {
	case TriggerRisingEdge:
		fired = current && !previous
	case TriggerFallingEdge:
		fired = !current && previous
	case TriggerBothEdges:
		fired = ch.hasLastTriggerValue && current != previous
	case TriggerHighLevel:
		fired = current
	case TriggerLowLevel:
		fired = !current
	}
	ch.lastTriggerValue = current
	ch.hasLastTriggerValue = true
	return fired
}

func (a *Analyzer) sampleChannels(now float64) {
	var timeOffset float64
	if a.triggered {
		timeOffset = now - a.triggerTime
	} else {
		timeOffset = now
	}
	idx := int(timeOffset*a.SampleRate) % a.MemoryDepth
	if idx < 0 {
		idx += a.MemoryDepth
	}

	for _, ch := range a.channels {
		if !ch.Enabled {
			continue
		}
		value := ch.Signal.CurrentValue() > 0.5
		if ch.Invert {
			value = !value
		}
		ch.samples[idx] = value
	}
}

// GetWaveformData returns the captured time axis and channel id's
// sample buffer.
func (a *Analyzer) GetWaveformData(id int) ([]float64, []bool, error) {
	ch, ok := a.channels[id]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnknownChannel, id)
	}
	times := make([]float64, len(a.timeBuffer))
	copy(times, a.timeBuffer)
	values := make([]bool, len(ch.samples))
	copy(values, ch.samples)
	return times, values, nil
}
