// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package devicekit

import (
	"errors"
	"fmt"
	"math"

	"sbcsim/kernel"
)

// ErrAssertion is wrapped by every assertion failure this package
// returns, so callers can errors.Is against it independent of message.
var ErrAssertion = errors.New("devicekit: assertion failed")

// Assertions checks simulation outcomes against the recorded event
// bus history, ported from testkit/assertions.py. Unlike the Python
// original, these never poll a wall clock: the waiting assertions
// (AssertPinHigh/Low, AssertPinToggled, AssertI2CWrite/Read) tick clk
// themselves until the condition is found in the bus history, the
// deadline is reached, or the clock stops running, with no real-time
// sleep. AssertPWMFrequency and AssertEventSequence check the history
// as it stands without advancing clk.
type Assertions struct {
	bus *kernel.EventBus
	clk *kernel.Clock
}

// NewAssertions returns Assertions driving clk forward and inspecting bus.
func NewAssertions(bus *kernel.EventBus, clk *kernel.Clock) *Assertions {
	return &Assertions{bus: bus, clk: clk}
}

func (a *Assertions) advanceUntil(deadline float64, found func() bool) bool {
	if found() {
		return true
	}
	for a.clk.Now() < deadline {
		if !a.clk.Tick() {
			return false
		}
		if found() {
			return true
		}
	}
	return false
}

// AssertPinHigh waits up to withinSeconds of simulated time for a
// gpio_state event reporting pin driven high.
func (a *Assertions) AssertPinHigh(pin int, withinSeconds float64) error {
	deadline := a.clk.Now() + withinSeconds
	ok := a.advanceUntil(deadline, func() bool {
		for _, e := range a.bus.GetEvents(kernel.KindGPIOState, nil, nil) {
			if asInt(e.Payload["pin"]) == pin && asFloat(e.Payload["value"]) == 1 {
				return true
			}
		}
		return false
	})
	if !ok {
		return fmt.Errorf("%w: pin %d did not go HIGH within %.3fs", ErrAssertion, pin, withinSeconds)
	}
	return nil
}

// AssertPinLow waits up to withinSeconds of simulated time for a
// gpio_state event reporting pin driven low.
func (a *Assertions) AssertPinLow(pin int, withinSeconds float64) error {
	deadline := a.clk.Now() + withinSeconds
	ok := a.advanceUntil(deadline, func() bool {
		for _, e := range a.bus.GetEvents(kernel.KindGPIOState, nil, nil) {
			if asInt(e.Payload["pin"]) == pin && asFloat(e.Payload["value"]) == 0 {
				return true
			}
		}
		return false
	})
	if !ok {
		return fmt.Errorf("%w: pin %d did not go LOW within %.3fs", ErrAssertion, pin, withinSeconds)
	}
	return nil
}

// AssertPinToggled waits up to withinSeconds for pin to have accumulated
// at least minEdges gpio_edge events.
func (a *Assertions) AssertPinToggled(pin, minEdges int, withinSeconds float64) error {
	deadline := a.clk.Now() + withinSeconds
	count := 0
	ok := a.advanceUntil(deadline, func() bool {
		count = 0
		for _, e := range a.bus.GetEvents(kernel.KindGPIOEdge, nil, nil) {
			if asInt(e.Payload["pin"]) == pin {
				count++
			}
		}
		return count >= minEdges
	})
	if !ok {
		return fmt.Errorf("%w: pin %d only toggled %d times, want %d within %.3fs", ErrAssertion, pin, count, minEdges, withinSeconds)
	}
	return nil
}

// AssertPWMFrequency checks the mean period between recorded rising
// edges on pin against expectedHz within tolerance.
func (a *Assertions) AssertPWMFrequency(pin int, expectedHz, toleranceHz float64) error {
	var risingTimes []float64
	for _, e := range a.bus.GetEvents(kernel.KindGPIOEdge, nil, nil) {
		if asInt(e.Payload["pin"]) == pin && e.Payload["edge"] == "rising" {
			risingTimes = append(risingTimes, e.Timestamp)
		}
	}
	if len(risingTimes) < 2 {
		return fmt.Errorf("%w: need at least 2 rising edges to measure frequency on pin %d", ErrAssertion, pin)
	}
	var sum float64
	for i := 1; i < len(risingTimes); i++ {
		sum += risingTimes[i] - risingTimes[i-1]
	}
	avgPeriod := sum / float64(len(risingTimes)-1)
	if avgPeriod <= 0 {
		return fmt.Errorf("%w: non-positive average period on pin %d", ErrAssertion, pin)
	}
	measured := 1.0 / avgPeriod
	if math.Abs(measured-expectedHz) > toleranceHz {
		return fmt.Errorf("%w: PWM frequency %.2fHz not within %.2fHz of expected %.2fHz on pin %d",
			ErrAssertion, measured, toleranceHz, expectedHz, pin)
	}
	return nil
}

// AssertI2CWrite waits up to withinSeconds for an i2c_transaction write
// event matching address and data exactly.
func (a *Assertions) AssertI2CWrite(address uint16, data []byte, withinSeconds float64) error {
	deadline := a.clk.Now() + withinSeconds
	ok := a.advanceUntil(deadline, func() bool {
		for _, e := range a.bus.GetEvents(kernel.KindI2CTransaction, nil, nil) {
			if asInt(e.Payload["address"]) != int(address) {
				continue
			}
			if r, _ := e.Payload["read"].(bool); r {
				continue
			}
			if got, _ := e.Payload["data"].([]byte); bytesEqual(got, data) {
				return true
			}
		}
		return false
	})
	if !ok {
		return fmt.Errorf("%w: I2C write to 0x%02X with data %v not found within %.3fs", ErrAssertion, address, data, withinSeconds)
	}
	return nil
}

// AssertI2CRead waits up to withinSeconds for an i2c_transaction read
// event matching address and length, returning its data.
func (a *Assertions) AssertI2CRead(address uint16, length int, withinSeconds float64) ([]byte, error) {
	deadline := a.clk.Now() + withinSeconds
	var result []byte
	ok := a.advanceUntil(deadline, func() bool {
		for _, e := range a.bus.GetEvents(kernel.KindI2CTransaction, nil, nil) {
			if asInt(e.Payload["address"]) != int(address) {
				continue
			}
			if r, _ := e.Payload["read"].(bool); !r {
				continue
			}
			data, _ := e.Payload["data"].([]byte)
			if len(data) != length {
				continue
			}
			result = data
			return true
		}
		return false
	})
	if !ok {
		return nil, fmt.Errorf("%w: I2C read from 0x%02X length %d not found within %.3fs", ErrAssertion, address, length, withinSeconds)
	}
	return result, nil
}

// ExpectedEvent is one entry in an AssertEventSequence expectation list.
type ExpectedEvent struct {
	Kind      kernel.Kind
	Source    string
	Data      map[string]any
	Timestamp *float64
}

// AssertEventSequence checks that the bus history contains, in order,
// an event matching each entry of expected (subsequent entries may
// match later events; earlier events may be skipped). If an entry
// specifies Timestamp, the matching event's timestamp must be within
// toleranceSeconds of it.
func (a *Assertions) AssertEventSequence(expected []ExpectedEvent, toleranceSeconds float64) error {
	all := a.bus.GetEvents("", nil, nil)

	idx := 0
	for _, exp := range expected {
		found := false
		for idx < len(all) {
			e := all[idx]
			idx++
			if !eventMatches(e, exp) {
				continue
			}
			if exp.Timestamp != nil && math.Abs(e.Timestamp-*exp.Timestamp) > toleranceSeconds {
				return fmt.Errorf("%w: event timing mismatch: expected %.6f, got %.6f (tolerance %.6fs)",
					ErrAssertion, *exp.Timestamp, e.Timestamp, toleranceSeconds)
			}
			found = true
			break
		}
		if !found {
			return fmt.Errorf("%w: expected event not found: %+v", ErrAssertion, exp)
		}
	}
	return nil
}

func eventMatches(e kernel.Event, exp ExpectedEvent) bool {
	if exp.Kind != "" && e.Kind != exp.Kind {
		return false
	}
	if exp.Source != "" && e.Source != exp.Source {
		return false
	}
	for k, v := range exp.Data {
		if e.Payload[k] != v {
			return false
		}
	}
	return true
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case uint16:
		return int(n)
	default:
		return -1
	}
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return math.NaN()
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
