// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pwm provides a standalone PWM channel controller, driving a
// bound kernel.Signal from a periodic tick-driven waveform. It
// coexists with gpio.Controller's own PWM subsystem (spec'd in
// gpio/pwm.go): which one owns a given pin is decided purely by which
// API a caller used to start PWM on it, not by any shared state here.
package pwm

import (
	"errors"
	"fmt"

	"sbcsim/kernel"
)

// ErrUnknownChannel is returned by operations on a channel id that was
// never created via NewChannel.
var ErrUnknownChannel = errors.New("pwm: unknown channel")

// Channel is one PWM output: a frequency/duty pair driving a Signal.
type Channel struct {
	ID        int
	Signal    *kernel.Signal
	frequency float64
	duty      float64
	enabled   bool
	state     bool
}

// Controller owns a set of independent PWM channels, each bound to its
// own Signal (so the logic analyzer can capture it like any other
// digital line).
type Controller struct {
	bus      *kernel.EventBus
	channels map[int]*Channel
}

// NewController returns an empty Controller publishing pwm_update
// events to bus.
func NewController(bus *kernel.EventBus) *Controller {
	return &Controller{bus: bus, channels: make(map[int]*Channel)}
}

// NewChannel creates channel id with the given starting frequency,
// disabled, and backed by a freshly named Signal.
func (c *Controller) NewChannel(id int, frequency float64) *Channel {
	ch := &Channel{ID: id, frequency: frequency, Signal: kernel.NewSignal(fmt.Sprintf("PWM%d", id), false)}
	c.channels[id] = ch
	return ch
}

func (c *Controller) channel(id int) (*Channel, error) {
	ch, ok := c.channels[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownChannel, id)
	}
	return ch, nil
}

// SetFrequency changes channel id's frequency.
func (c *Controller) SetFrequency(id int, hz float64) error {
	ch, err := c.channel(id)
	if err != nil {
		return err
	}
	ch.frequency = hz
	return nil
}

// SetDutyCycle changes channel id's duty percent, clamped to [0,100].
func (c *Controller) SetDutyCycle(id int, duty float64) error {
	ch, err := c.channel(id)
	if err != nil {
		return err
	}
	switch {
	case duty < 0:
		duty = 0
	case duty > 100:
		duty = 100
	}
	ch.duty = duty
	return nil
}

// StartPWM enables channel id's output.
func (c *Controller) StartPWM(id int) error {
	ch, err := c.channel(id)
	if err != nil {
		return err
	}
	ch.enabled = true
	return nil
}

// StopPWM disables channel id's output and drives its Signal low.
func (c *Controller) StopPWM(id int, now float64) error {
	ch, err := c.channel(id)
	if err != nil {
		return err
	}
	ch.enabled = false
	ch.state = false
	ch.Signal.SetValue(0, now)
	return nil
}

// Update advances every enabled channel to sim-time now, computing the
// instantaneous waveform value (square wave at frequency/duty) and
// updating its Signal only on a state change, the same tick-driven
// approach gpio.Controller.UpdateSoftwarePWM uses. The kernel calls
// this once per tick for every active channel.
func (c *Controller) Update(now float64) {
	for _, ch := range c.channels {
		if !ch.enabled || ch.frequency <= 0 {
			continue
		}
		period := 1.0 / ch.frequency
		highTime := period * ch.duty / 100.0
		cycleTime := fmod(now, period)
		newState := cycleTime < highTime
		if newState != ch.state {
			ch.state = newState
			v := 0.0
			if newState {
				v = 1.0
			}
			ch.Signal.SetValue(v, now)
			c.bus.Publish(kernel.Event{
				Kind: kernel.KindPWMUpdate, Timestamp: now, Source: fmt.Sprintf("PWM%d", ch.ID),
				Payload: kernel.Payload{"channel": ch.ID, "value": v, "frequency": ch.frequency, "duty": ch.duty},
			})
		}
	}
}

func fmod(x, y float64) float64 {
	if y == 0 {
		return x
	}
	n := float64(int64(x / y))
	return x - n*y
}
