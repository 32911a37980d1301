// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package decoder

import "fmt"

// SPIThreshold is the clock/data digitization threshold used by DecodeSPI.
const SPIThreshold = defaultThreshold

// DecodeSPI decodes an SPI bus capture into DATA Frames, one per byte
// transferred. It requires "SCLK" and "MOSI" channels; "MISO" and "CS"
// are optional. If CS is present, decoding is gated to CS-active
// (low) intervals. mode selects which SCLK edge samples data: modes
// 0 and 2 sample on the rising edge, 1 and 3 on the falling edge.
func DecodeSPI(signals map[string]Channel, mode int) []Frame {
	var frames []Frame

	sclk, ok := signals["SCLK"]
	if !ok {
		return frames
	}
	mosi, ok := signals["MOSI"]
	if !ok {
		return frames
	}
	if len(sclk.Times) == 0 {
		return frames
	}

	n := len(sclk.Times)
	if len(mosi.Times) < n {
		n = len(mosi.Times)
	}
	times := sclk.Times[:n]
	sclkBits := digitize(sclk.Values[:n], SPIThreshold)
	mosiBits := digitize(mosi.Values[:n], SPIThreshold)

	misoBits := make([]bool, n)
	if ch, ok := signals["MISO"]; ok {
		misoBits = digitize(ch.Values[:min(n, len(ch.Values))], SPIThreshold)
	}

	var csBits []bool
	if ch, ok := signals["CS"]; ok {
		csBits = digitize(ch.Values[:min(n, len(ch.Values))], SPIThreshold)
	}

	sampleOnRising := mode == 0 || mode == 2

	i := 0
	for i < n-16 {
		if csBits != nil && i < len(csBits) && csBits[i] {
			i++
			continue
		}
		byteStart := i
		m, s, next, ok := decodeSPIByte(sclkBits, mosiBits, misoBits, i, sampleOnRising)
		if ok {
			frames = append(frames, Frame{
				StartTime: at(times, byteStart), EndTime: at(times, next),
				Kind:        EventData,
				Data:        map[string]any{"mosi": m, "miso": s},
				Description: fmt.Sprintf("MOSI: 0x%02X, MISO: 0x%02X", m, s),
			})
		}
		i = next
	}
	return frames
}

func decodeSPIByte(sclk, mosi, miso []bool, start int, sampleOnRising bool) (mosiByte, misoByte, next int, ok bool) {
	i := start
	for bit := 0; bit < 8; bit++ {
		if sampleOnRising {
			for i < len(sclk)-1 && !(!sclk[i] && sclk[i+1]) {
				i++
			}
		} else {
			for i < len(sclk)-1 && !(sclk[i] && !sclk[i+1]) {
				i++
			}
		}
		if i >= len(sclk)-1 {
			return 0, 0, i, false
		}
		i++
		if i >= len(mosi) {
			return 0, 0, i, false
		}
		mosiBit, misoBit := 0, 0
		if mosi[i] {
			mosiBit = 1
		}
		if i < len(miso) && miso[i] {
			misoBit = 1
		}
		mosiByte = (mosiByte << 1) | mosiBit
		misoByte = (misoByte << 1) | misoBit
	}
	return mosiByte, misoByte, i, true
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
