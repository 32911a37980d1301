// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package decoder

import "fmt"

// I2CThreshold is the clock/data digitization threshold used by DecodeI2C.
const I2CThreshold = defaultThreshold

// DecodeI2C decodes an I2C bus capture into a Frame sequence. It
// requires "SCL" and "SDA" channels; signals are aligned by truncating
// to the shorter of the two.
func DecodeI2C(signals map[string]Channel) []Frame {
	var frames []Frame

	scl, ok := signals["SCL"]
	if !ok {
		return frames
	}
	sda, ok := signals["SDA"]
	if !ok {
		return frames
	}
	if len(scl.Times) == 0 || len(sda.Times) == 0 {
		return frames
	}

	n := len(scl.Times)
	if len(sda.Times) < n {
		n = len(sda.Times)
	}
	times := scl.Times[:n]
	sclBits := digitize(scl.Values[:n], I2CThreshold)
	sdaBits := digitize(sda.Values[:n], I2CThreshold)

	i := 0
	for i < n-1 {
		if sclBits[i] && sclBits[i+1] && sdaBits[i] && !sdaBits[i+1] {
			startTime := times[i]
			i = decodeI2CTransaction(&frames, times, sclBits, sdaBits, i, startTime)
		} else {
			i++
		}
	}
	return frames
}

func decodeI2CTransaction(frames *[]Frame, times []float64, scl, sda []bool, startIdx int, startTime float64) int {
	*frames = append(*frames, Frame{
		StartTime: startTime, EndTime: startTime,
		Kind: EventStart, Description: "START condition",
	})

	i := startIdx + 1
	address, ok := decodeI2CByte(scl, sda, i)
	if !ok {
		return i
	}
	i = address.next

	rw := address.value&0x01 != 0
	addr7 := (address.value >> 1) & 0x7F
	*frames = append(*frames, Frame{
		StartTime: times[startIdx], EndTime: at(times, i),
		Kind:        EventAddress,
		Data:        map[string]any{"address": addr7, "read": rw},
		Description: fmt.Sprintf("Address: 0x%02X %s", addr7, rwLetter(rw)),
	})

	ack, ok := decodeI2CAck(scl, sda, i)
	if !ok {
		return i
	}
	i = ack.next
	appendAckFrame(frames, times, i, ack.value)

	for i < len(times)-8 {
		if isI2CStop(scl, sda, i) {
			*frames = append(*frames, Frame{
				StartTime: times[i], EndTime: times[i],
				Kind: EventStop, Description: "STOP condition",
			})
			break
		}

		dataByte, ok := decodeI2CByte(scl, sda, i)
		if !ok {
			break
		}
		byteStart := i
		i = dataByte.next
		*frames = append(*frames, Frame{
			StartTime: at(times, byteStart), EndTime: at(times, i),
			Kind:        EventData,
			Data:        dataByte.value,
			Description: fmt.Sprintf("Data: 0x%02X (%d)", dataByte.value, dataByte.value),
		})

		ack, ok = decodeI2CAck(scl, sda, i)
		if !ok {
			break
		}
		i = ack.next
		appendAckFrame(frames, times, i, ack.value)
	}
	return i
}

func appendAckFrame(frames *[]Frame, times []float64, i int, ack bool) {
	kind, desc := EventNack, "NACK"
	if ack {
		kind, desc = EventAck, "ACK"
	}
	*frames = append(*frames, Frame{
		StartTime: at(times, i-1), EndTime: at(times, i),
		Kind: kind, Data: ack, Description: desc,
	})
}

type byteResult struct {
	value int
	next  int
}

// decodeI2CByte reads 8 bits MSB-first, sampling SDA on every SCL
// rising edge, starting the scan at idx.
func decodeI2CByte(scl, sda []bool, idx int) (byteResult, bool) {
	if idx+16 >= len(scl) {
		return byteResult{}, false
	}
	value := 0
	i := idx
	for bit := 0; bit < 8; bit++ {
		for i < len(scl)-1 && !(!scl[i] && scl[i+1]) {
			i++
		}
		if i >= len(scl)-1 {
			return byteResult{}, false
		}
		i++
		if i < len(sda) {
			v := 0
			if sda[i] {
				v = 1
			}
			value = (value << 1) | v
		}
		for i < len(scl)-1 && scl[i] {
			i++
		}
	}
	return byteResult{value: value, next: i}, true
}

type ackResult struct {
	value bool
	next  int
}

// decodeI2CAck samples the 9th clock; ACK is SDA low.
func decodeI2CAck(scl, sda []bool, idx int) (ackResult, bool) {
	if idx+2 >= len(scl) {
		return ackResult{}, false
	}
	i := idx
	for i < len(scl)-1 && !(!scl[i] && scl[i+1]) {
		i++
	}
	if i >= len(scl)-1 {
		return ackResult{}, false
	}
	i++
	if i >= len(sda) {
		return ackResult{}, false
	}
	return ackResult{value: !sda[i], next: i + 1}, true
}

func isI2CStop(scl, sda []bool, idx int) bool {
	if idx+1 >= len(scl) {
		return false
	}
	return scl[idx] && scl[idx+1] && !sda[idx] && sda[idx+1]
}

func rwLetter(read bool) string {
	if read {
		return "R"
	}
	return "W"
}

func at(times []float64, idx int) float64 {
	if idx >= len(times) {
		idx = len(times) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return times[idx]
}
