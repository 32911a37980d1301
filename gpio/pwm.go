// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gpio

import "fmt"

func clampDuty(duty float64) float64 {
	switch {
	case duty < 0:
		return 0
	case duty > 100:
		return 100
	default:
		return duty
	}
}

// SetupPWMHardware enables a pin's fixed hardware PWM channel (per the
// board's PWMChannel assignment) at frequency/duty. It fails with
// ErrInvalidPin if the pin has no hardware PWM channel.
func (c *Controller) SetupPWMHardware(pin int, frequency, duty float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch, ok := c.hwPWM[pin]
	if !ok {
		return fmt.Errorf("%w: pin %d has no hardware PWM channel", ErrInvalidPin, pin)
	}
	ch.frequency = frequency
	ch.duty = clampDuty(duty)
	ch.enabled = true
	c.updateHardwarePWMRegisters(ch)

	// GPIO12/13 carry PWM on ALT0, GPIO18/19 carry it on ALT5, per the
	// BCM2711 alternate function table.
	mode := Alt0
	if pin == 18 || pin == 19 {
		mode = Alt5
	}
	c.regs.updateFunctionSelect(pin, mode)
	if st, ok := c.pins[pin]; ok {
		st.mode = mode
	} else {
		c.pins[pin] = &pinState{bcm: pin, mode: mode}
	}
	return nil
}

func (c *Controller) updateHardwarePWMRegisters(ch *hardwarePWM) {
	if !ch.enabled || ch.frequency <= 0 {
		return
	}
	rangeValue := uint32(PWMClockHz / ch.frequency)
	dataValue := uint32(float64(rangeValue) * ch.duty / 100)
	c.regs.updatePWM(ch.channel, rangeValue, dataValue, true)
}

// SetupPWMSoftware configures pin for tick-driven software PWM at
// frequency, starting disabled. The pin is set to Output.
func (c *Controller) SetupPWMSoftware(pin int, frequency float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.pinInfo(pin); !ok {
		return fmt.Errorf("%w: %d", ErrInvalidPin, pin)
	}
	sw, ok := c.swPWM[pin]
	if !ok {
		sw = &softwarePWM{}
		c.swPWM[pin] = sw
	}
	sw.frequency = frequency
	if st, ok := c.pins[pin]; ok {
		st.mode = Output
	} else {
		c.pins[pin] = &pinState{bcm: pin, mode: Output}
	}
	return nil
}

// StartPWM enables PWM output on pin at duty percent. A pin wired to a
// hardware PWM channel on the board always uses that channel, even if
// SetupPWMSoftware was also called for it.
func (c *Controller) StartPWM(pin int, duty float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	duty = clampDuty(duty)
	if ch, ok := c.hwPWM[pin]; ok {
		ch.duty = duty
		ch.enabled = true
		c.updateHardwarePWMRegisters(ch)
		return nil
	}
	if sw, ok := c.swPWM[pin]; ok {
		sw.duty = duty
		sw.enabled = true
		return nil
	}
	return fmt.Errorf("%w: pin %d has no PWM configured", ErrWrongMode, pin)
}

// StopPWM disables PWM output on pin. A software-PWM pin is driven low
// at the most recent timestamp passed to Output.
func (c *Controller) StopPWM(pin int) {
	c.mu.Lock()
	if ch, ok := c.hwPWM[pin]; ok {
		ch.enabled = false
		c.regs.updatePWM(ch.channel, c.regs.GetRegister(pwmRangeName(ch.channel)), 0, false)
		c.mu.Unlock()
		return
	}
	if sw, ok := c.swPWM[pin]; ok {
		sw.enabled = false
		now := c.lastPublished
		c.mu.Unlock()
		_ = c.Output(pin, 0, now)
		return
	}
	c.mu.Unlock()
}

func pwmRangeName(channel int) string {
	if channel == 0 {
		return "PWMRNG1"
	}
	return "PWMRNG2"
}

// ChangeDutyCycle updates the duty percent of an already-enabled PWM
// output (hardware or software) on pin.
func (c *Controller) ChangeDutyCycle(pin int, duty float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	duty = clampDuty(duty)
	if ch, ok := c.hwPWM[pin]; ok && ch.enabled {
		ch.duty = duty
		c.updateHardwarePWMRegisters(ch)
		return nil
	}
	if sw, ok := c.swPWM[pin]; ok && sw.enabled {
		sw.duty = duty
		return nil
	}
	return fmt.Errorf("%w: pin %d has no active PWM", ErrWrongMode, pin)
}

// ChangeFrequency updates the frequency of an already-enabled PWM
// output (hardware or software) on pin.
func (c *Controller) ChangeFrequency(pin int, frequency float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ch, ok := c.hwPWM[pin]; ok && ch.enabled {
		ch.frequency = frequency
		c.updateHardwarePWMRegisters(ch)
		return nil
	}
	if sw, ok := c.swPWM[pin]; ok && sw.enabled {
		sw.frequency = frequency
		return nil
	}
	return fmt.Errorf("%w: pin %d has no active PWM", ErrWrongMode, pin)
}

// UpdateSoftwarePWM advances every enabled software-PWM pin to sim-time
// now. It is the kernel's tick hook: called once per tick, it computes
// cycleTime = now mod period and drives the pin high while
// cycleTime < period*duty/100, publishing a Signal sample only when the
// output actually changes state.
func (c *Controller) UpdateSoftwarePWM(now float64) {
	c.mu.Lock()
	type change struct {
		pin   int
		state bool
	}
	var changes []change
	for pin, sw := range c.swPWM {
		if !sw.enabled || sw.frequency <= 0 {
			continue
		}
		period := 1.0 / sw.frequency
		highTime := period * sw.duty / 100.0
		cycleTime := fmod(now, period)
		newState := cycleTime < highTime
		if newState != sw.state {
			sw.state = newState
			changes = append(changes, change{pin: pin, state: newState})
		}
	}
	c.mu.Unlock()

	for _, ch := range changes {
		v := 0
		if ch.state {
			v = 1
		}
		_ = c.Output(ch.pin, v, now)
	}
}

func fmod(x, y float64) float64 {
	if y == 0 {
		return x
	}
	n := float64(int64(x / y))
	return x - n*y
}
