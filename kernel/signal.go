// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package kernel

// DefaultMaxSamples is the default bound on a Signal's sample ring.
const DefaultMaxSamples = 10000

// DigitalState is the derived logic-level state of a digital Signal.
type DigitalState int

// Digital states, using the TTL thresholds from the data model: LOW when
// value <= 0.3, HIGH when value >= 0.7, UNKNOWN in between, FLOATING
// before any value has been driven.
const (
	Floating DigitalState = iota
	Unknown
	Low
	High
)

func (s DigitalState) String() string {
	switch s {
	case Low:
		return "low"
	case High:
		return "high"
	case Unknown:
		return "unknown"
	default:
		return "floating"
	}
}

// EdgeKind is a digital transition direction.
type EdgeKind int

// Edge kinds a caller can register a callback for.
const (
	Rising EdgeKind = iota
	Falling
	BothEdges
)

// Sample is one entry in a Signal's history ring.
type Sample struct {
	Timestamp float64
	Value     float64
	State     DigitalState
}

type edgeCallback struct {
	kind EdgeKind
	fn   func(*Signal, EdgeKind, float64)
}

// Signal is a named wire carrying an analog or digital value with a
// bounded, strictly-non-decreasing-timestamp sample history and digital
// edge detection.
type Signal struct {
	Name       string
	IsAnalog   bool
	MaxSamples int

	currentValue float64
	currentState DigitalState
	lastEdgeTime float64
	hasSample    bool

	samples []Sample
	edges   []edgeCallback
}

// NewSignal returns a Signal with the default sample ring size.
func NewSignal(name string, isAnalog bool) *Signal {
	return &Signal{
		Name:         name,
		IsAnalog:     isAnalog,
		MaxSamples:   DefaultMaxSamples,
		currentState: Floating,
	}
}

// CurrentValue returns the most recently set value.
func (s *Signal) CurrentValue() float64 { return s.currentValue }

// CurrentState returns the most recently derived/assigned digital state.
func (s *Signal) CurrentState() DigitalState { return s.currentState }

// SampleCount returns the number of samples retained.
func (s *Signal) SampleCount() int { return len(s.samples) }

// LastEdgeTime returns the timestamp of the most recent rising or
// falling transition.
func (s *Signal) LastEdgeTime() float64 { return s.lastEdgeTime }

func deriveState(value float64) DigitalState {
	switch {
	case value >= 0.7:
		return High
	case value <= 0.3:
		return Low
	default:
		return Unknown
	}
}

// SetValue updates the signal's value at timestamp, deriving the
// digital state from TTL thresholds unless an explicit state is passed.
// It enforces the non-decreasing-timestamp invariant: a new sample with
// timestamp strictly less than the last recorded one panics, since it
// indicates a caller bug in the simulation driver, not a recoverable
// runtime condition. Equal timestamps are permitted.
func (s *Signal) SetValue(value, timestamp float64, state ...DigitalState) {
	if s.hasSample && len(s.samples) > 0 {
		last := s.samples[len(s.samples)-1].Timestamp
		if timestamp < last {
			panic("kernel: Signal.SetValue called with timestamp before last sample")
		}
	}
	oldState := s.currentState
	s.currentValue = value

	var newState DigitalState
	if len(state) > 0 {
		newState = state[0]
	} else if !s.IsAnalog {
		newState = deriveState(value)
	} else {
		newState = s.currentState
	}
	s.currentState = newState
	s.hasSample = true

	s.samples = append(s.samples, Sample{Timestamp: timestamp, Value: value, State: newState})
	if over := len(s.samples) - s.MaxSamples; over > 0 {
		s.samples = s.samples[over:]
	}

	if !s.IsAnalog {
		s.detectEdge(oldState, newState, timestamp)
	}
}

func (s *Signal) detectEdge(oldState, newState DigitalState, timestamp float64) {
	var kind EdgeKind
	switch {
	case oldState == Low && newState == High:
		kind = Rising
	case oldState == High && newState == Low:
		kind = Falling
	default:
		return
	}
	s.lastEdgeTime = timestamp
	for _, e := range s.edges {
		if e.kind == kind || e.kind == BothEdges {
			s.fireEdge(e.fn, kind, timestamp)
		}
	}
}

func (s *Signal) fireEdge(fn func(*Signal, EdgeKind, float64), kind EdgeKind, timestamp float64) {
	defer func() {
		if r := recover(); r != nil {
			simlogEdgeError(s.Name, r)
		}
	}()
	fn(s, kind, timestamp)
}

// OnEdge registers callback to fire synchronously whenever a transition
// matching kind occurs. Order of registration is preserved at dispatch.
func (s *Signal) OnEdge(kind EdgeKind, callback func(signal *Signal, edge EdgeKind, timestamp float64)) {
	s.edges = append(s.edges, edgeCallback{kind: kind, fn: callback})
}

// Samples returns the samples with timestamp in [start, end], using
// start=-Inf/end=+Inf when the respective bound is nil.
func (s *Signal) Samples(start, end *float64) []Sample {
	out := make([]Sample, 0, len(s.samples))
	for _, samp := range s.samples {
		if start != nil && samp.Timestamp < *start {
			continue
		}
		if end != nil && samp.Timestamp > *end {
			continue
		}
		out = append(out, samp)
	}
	return out
}

// Waveform returns aligned (times, values) arrays suitable for plotting.
func (s *Signal) Waveform(start, end *float64) (times, values []float64) {
	samples := s.Samples(start, end)
	times = make([]float64, len(samples))
	values = make([]float64, len(samples))
	for i, samp := range samples {
		times[i] = samp.Timestamp
		values[i] = samp.Value
	}
	return times, values
}

// ClearHistory discards sample history without resetting current value
// or state.
func (s *Signal) ClearHistory() {
	s.samples = nil
}

// Frequency returns the rising-edge count within the trailing window
// (seconds, measured back from the last sample) divided by the window
// length, or false if the signal is analog or no rising edge fell in the
// window.
func (s *Signal) Frequency(window float64) (float64, bool) {
	if s.IsAnalog || len(s.samples) == 0 || window <= 0 {
		return 0, false
	}
	current := s.samples[len(s.samples)-1].Timestamp
	start := current - window

	edges := 0
	last := Low
	for _, samp := range s.samples {
		if samp.Timestamp < start {
			continue
		}
		if last == Low && samp.State == High {
			edges++
		}
		last = samp.State
	}
	if edges == 0 {
		return 0, false
	}
	return float64(edges) / window, true
}

func simlogEdgeError(name string, r any) {
	logEdgeCallbackError(name, r)
}
