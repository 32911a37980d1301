// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package kernel implements the deterministic simulation core: a
// monotonic Clock, a recordable Event Bus, a priority Scheduler and the
// Signal model that peripheral controllers publish into.
package kernel

import "fmt"

// Kind identifies the category of an Event.
type Kind string

// The event kinds the simulator publishes.
const (
	KindGPIOEdge          Kind = "gpio_edge"
	KindGPIOState         Kind = "gpio_state"
	KindI2CTransaction    Kind = "i2c_transaction"
	KindSPITransaction    Kind = "spi_transaction"
	KindUARTData          Kind = "uart_data"
	KindPWMUpdate         Kind = "pwm_update"
	KindDeviceUpdate      Kind = "device_update"
	KindSimulationStart   Kind = "simulation_start"
	KindSimulationStop    Kind = "simulation_stop"
	KindSimulationReset   Kind = "simulation_reset"
)

// Payload is a keyed map of scalars/lists attached to an Event.
type Payload map[string]any

// Event is an immutable record of something that happened in the
// simulation at a precise timestamp.
type Event struct {
	Kind      Kind
	Timestamp float64 // simulation seconds
	Source    string
	Payload   Payload
}

func (e Event) String() string {
	return fmt.Sprintf("%s@%.9f[%s] %v", e.Kind, e.Timestamp, e.Source, e.Payload)
}

// clone returns a deep-enough copy of the event so that a caller of
// GetEvents cannot mutate the bus's internal history through the
// returned payload map.
func (e Event) clone() Event {
	p := make(Payload, len(e.Payload))
	for k, v := range e.Payload {
		p[k] = v
	}
	e.Payload = p
	return e
}
