// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package decoder

import (
	"fmt"
	"sort"
)

// UARTThreshold is the digitization threshold used by DecodeUART.
const UARTThreshold = defaultThreshold

// UARTConfig parameterizes DecodeUART the way Port.Configure
// parameterizes live UART framing.
type UARTConfig struct {
	BaudRate int
	DataBits int
	Parity   string // "none", "even", "odd"
	StopBits int
}

// DefaultUARTConfig is 9600 8N1.
func DefaultUARTConfig() UARTConfig {
	return UARTConfig{BaudRate: 9600, DataBits: 8, Parity: "none", StopBits: 1}
}

// DecodeUART decodes one or both of "TX"/"RX" channels into DATA
// Frames, one per byte, sorted by start time. A parity mismatch is
// recorded on the frame's Err field rather than dropping the byte.
func DecodeUART(signals map[string]Channel, cfg UARTConfig) []Frame {
	var frames []Frame
	if tx, ok := signals["TX"]; ok {
		frames = append(frames, decodeUARTLine(tx, "TX", cfg)...)
	}
	if rx, ok := signals["RX"]; ok {
		frames = append(frames, decodeUARTLine(rx, "RX", cfg)...)
	}
	sortFramesByStart(frames)
	return frames
}

func decodeUARTLine(ch Channel, lineName string, cfg UARTConfig) []Frame {
	var frames []Frame
	if len(ch.Times) == 0 {
		return frames
	}

	bits := digitize(ch.Values, UARTThreshold)

	bitTime := 1.0 / float64(cfg.BaudRate)
	sampleRate := 1e6
	if len(ch.Times) > 1 && ch.Times[1] > ch.Times[0] {
		sampleRate = 1.0 / (ch.Times[1] - ch.Times[0])
	}
	samplesPerBit := int(sampleRate * bitTime)
	if samplesPerBit < 1 {
		samplesPerBit = 1
	}

	i := 0
	for i < len(bits)-samplesPerBit*10 {
		mid := i + samplesPerBit/2
		if bits[i] && mid < len(bits) && !bits[mid] {
			frameStart := ch.Times[i]
			value, parityOK, next, ok := decodeUARTByte(bits, i, samplesPerBit, cfg)
			if ok {
				frameEnd := at(ch.Times, next)
				desc := fmt.Sprintf("%s: 0x%02X", lineName, value)
				if value >= 32 && value <= 126 {
					desc += fmt.Sprintf(" (%q)", rune(value))
				}
				errStr := ""
				if cfg.Parity != "none" && !parityOK {
					errStr = "Parity error"
				}
				frames = append(frames, Frame{
					StartTime: frameStart, EndTime: frameEnd,
					Kind:        EventData,
					Data:        map[string]any{"value": value, "line": lineName},
					Description: desc,
					Err:         errStr,
				})
			}
			i = next
		} else {
			i++
		}
	}
	return frames
}

func decodeUARTByte(bits []bool, start, samplesPerBit int, cfg UARTConfig) (value int, parityOK bool, next int, ok bool) {
	i := start + samplesPerBit // skip start bit

	for bit := 0; bit < cfg.DataBits; bit++ {
		if i+samplesPerBit/2 >= len(bits) {
			return 0, false, i, false
		}
		if bits[i+samplesPerBit/2] {
			value |= 1 << bit
		}
		i += samplesPerBit
	}

	parityOK = true
	if cfg.Parity != "none" {
		if i+samplesPerBit/2 >= len(bits) {
			return 0, false, i, false
		}
		parityBit := bits[i+samplesPerBit/2]
		ones := popcount(value) % 2
		expected := ones
		if cfg.Parity == "odd" {
			expected = (ones + 1) % 2
		}
		parityOK = parityBit == (expected == 1)
		i += samplesPerBit
	}

	i += samplesPerBit * cfg.StopBits
	return value, parityOK, i, true
}

func popcount(v int) int {
	n := 0
	for v != 0 {
		n += v & 1
		v >>= 1
	}
	return n
}

func sortFramesByStart(frames []Frame) {
	sort.Slice(frames, func(i, j int) bool { return frames[i].StartTime < frames[j].StartTime })
}
