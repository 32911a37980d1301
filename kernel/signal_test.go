// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package kernel

import "testing"

func TestSignalSamplesAreMonotonic(t *testing.T) {
	s := NewSignal("GPIO18", false)
	times := []float64{0, 0, 0.001, 0.002, 0.002}
	for _, ts := range times {
		s.SetValue(1, ts)
	}
	samples := s.Samples(nil, nil)
	for i := 1; i < len(samples); i++ {
		if samples[i].Timestamp < samples[i-1].Timestamp {
			t.Fatalf("samples not monotonic: %v", samples)
		}
	}
}

func TestSignalRejectsTimestampBeforeLast(t *testing.T) {
	s := NewSignal("GPIO18", false)
	s.SetValue(1, 1.0)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-order timestamp")
		}
	}()
	s.SetValue(0, 0.5)
}

func TestSignalDigitalStateThresholds(t *testing.T) {
	s := NewSignal("A", false)
	s.SetValue(0.8, 0)
	if s.CurrentState() != High {
		t.Fatalf("state = %v, want High", s.CurrentState())
	}
	s.SetValue(0.2, 1)
	if s.CurrentState() != Low {
		t.Fatalf("state = %v, want Low", s.CurrentState())
	}
	s.SetValue(0.5, 2)
	if s.CurrentState() != Unknown {
		t.Fatalf("state = %v, want Unknown", s.CurrentState())
	}
}

func TestSignalEdgeDetection(t *testing.T) {
	s := NewSignal("A", false)
	type edge struct {
		kind EdgeKind
		ts   float64
	}
	var got []edge
	s.OnEdge(BothEdges, func(sig *Signal, k EdgeKind, ts float64) {
		got = append(got, edge{k, ts})
	})
	s.SetValue(0, 0) // floating -> low, no edge
	s.SetValue(1, 1) // low -> high: rising
	s.SetValue(0, 2) // high -> low: falling

	if len(got) != 2 {
		t.Fatalf("edges = %v, want 2 entries", got)
	}
	if got[0].kind != Rising || got[0].ts != 1 {
		t.Fatalf("first edge = %+v, want rising@1", got[0])
	}
	if got[1].kind != Falling || got[1].ts != 2 {
		t.Fatalf("second edge = %+v, want falling@2", got[1])
	}
}

func TestSignalRingEviction(t *testing.T) {
	s := NewSignal("A", true)
	s.MaxSamples = 3
	for i := 0; i < 5; i++ {
		s.SetValue(float64(i), float64(i))
	}
	samples := s.Samples(nil, nil)
	if len(samples) != 3 {
		t.Fatalf("len(samples) = %d, want 3", len(samples))
	}
	if samples[0].Timestamp != 2 {
		t.Fatalf("oldest retained sample = %v, want timestamp 2", samples[0])
	}
}

func TestSignalFrequency(t *testing.T) {
	s := NewSignal("A", false)
	// 4 full periods of a 1Hz square wave, one sample at each edge.
	for i := 0; i < 4; i++ {
		base := float64(i)
		s.SetValue(1, base)
		s.SetValue(0, base+0.5)
	}
	freq, ok := s.Frequency(4.0)
	if !ok {
		t.Fatal("Frequency() ok = false")
	}
	if freq < 0.5 || freq > 1.5 {
		t.Fatalf("freq = %v, want ~1Hz", freq)
	}
}

func TestSignalFrequencyAnalogIsNone(t *testing.T) {
	s := NewSignal("A", true)
	s.SetValue(1, 0)
	if _, ok := s.Frequency(1); ok {
		t.Fatal("analog signal should not report a frequency")
	}
}
