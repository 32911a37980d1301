// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package analyzer

// EdgeKind names a found edge's direction, for FindEdges.
type EdgeKind string

// Edge kinds FindEdges can report.
const (
	EdgeRising  EdgeKind = "rising"
	EdgeFalling EdgeKind = "falling"
	EdgeBoth    EdgeKind = "both"
)

// Edge is one transition found by FindEdges.
type Edge struct {
	Time float64
	Kind EdgeKind
}

// windowed returns the (times, values) pair for channel id restricted
// to [startTime, endTime]; endTime of nil means the full buffer.
func (a *Analyzer) windowed(id int, startTime float64, endTime *float64) ([]float64, []bool, error) {
	times, values, err := a.GetWaveformData(id)
	if err != nil {
		return nil, nil, err
	}
	if len(times) == 0 {
		return times, values, nil
	}
	end := times[len(times)-1]
	if endTime != nil {
		end = *endTime
	}
	var ot []float64
	var ov []bool
	for i, t := range times {
		if t >= startTime && t <= end {
			ot = append(ot, t)
			ov = append(ov, values[i])
		}
	}
	return ot, ov, nil
}

// MeasureFrequency returns the reciprocal of the mean inter-rising-edge
// period of channel id within [startTime, endTime], or ok=false if
// fewer than two rising edges are present.
func (a *Analyzer) MeasureFrequency(id int, startTime float64, endTime *float64) (float64, bool) {
	times, values, err := a.windowed(id, startTime, endTime)
	if err != nil || len(values) < 3 {
		return 0, false
	}

	var edgeTimes []float64
	for i := 1; i < len(values); i++ {
		if !values[i-1] && values[i] {
			edgeTimes = append(edgeTimes, times[i])
		}
	}
	if len(edgeTimes) < 2 {
		return 0, false
	}

	var sum float64
	for i := 1; i < len(edgeTimes); i++ {
		sum += edgeTimes[i] - edgeTimes[i-1]
	}
	avgPeriod := sum / float64(len(edgeTimes)-1)
	if avgPeriod <= 0 {
		return 0, false
	}
	return 1.0 / avgPeriod, true
}

// MeasureDutyCycle returns the percentage of high samples in channel
// id within [startTime, endTime].
func (a *Analyzer) MeasureDutyCycle(id int, startTime float64, endTime *float64) (float64, bool) {
	_, values, err := a.windowed(id, startTime, endTime)
	if err != nil || len(values) == 0 {
		return 0, false
	}
	high := 0
	for _, v := range values {
		if v {
			high++
		}
	}
	return float64(high) / float64(len(values)) * 100.0, true
}

// FindEdges returns every transition of the requested kind in channel
// id's captured buffer, in time order.
func (a *Analyzer) FindEdges(id int, kind EdgeKind) ([]Edge, error) {
	times, values, err := a.GetWaveformData(id)
	if err != nil {
		return nil, err
	}
	var edges []Edge
	for i := 1; i < len(values); i++ {
		switch {
		case !values[i-1] && values[i] && (kind == EdgeRising || kind == EdgeBoth):
			edges = append(edges, Edge{Time: times[i], Kind: EdgeRising})
		case values[i-1] && !values[i] && (kind == EdgeFalling || kind == EdgeBoth):
			edges = append(edges, Edge{Time: times[i], Kind: EdgeFalling})
		}
	}
	return edges, nil
}

// Statistics summarizes the current acquisition.
type Statistics struct {
	Channels    int
	SampleRate  float64
	MemoryDepth int
	Triggered   bool
	TriggerTime float64

	PerChannel map[int]ChannelStats
}

// ChannelStats is one channel's slice of Statistics.
type ChannelStats struct {
	Name        string
	Transitions int
	HighTime    float64
	DutyCycle   float64
}

// GetStatistics summarizes every channel's captured buffer.
func (a *Analyzer) GetStatistics() Statistics {
	stats := Statistics{
		Channels:    len(a.channels),
		SampleRate:  a.SampleRate,
		MemoryDepth: a.MemoryDepth,
		Triggered:   a.triggered,
		TriggerTime: a.triggerTime,
		PerChannel:  make(map[int]ChannelStats, len(a.channels)),
	}
	for id, ch := range a.channels {
		transitions := 0
		high := 0
		for i, v := range ch.samples {
			if v {
				high++
			}
			if i > 0 && ch.samples[i-1] != v {
				transitions++
			}
		}
		stats.PerChannel[id] = ChannelStats{
			Name:        ch.Name,
			Transitions: transitions,
			HighTime:    float64(high) / a.SampleRate,
			DutyCycle:   float64(high) / float64(len(ch.samples)) * 100,
		}
	}
	return stats
}
