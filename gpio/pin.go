// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gpio

import (
	"errors"
	"fmt"
	"time"

	pgpio "periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/physic"
)

// Pin adapts one Controller-owned BCM GPIO number to periph's
// conn/gpio.PinIO interface. It is stateless; all state lives in the
// Controller, the same split hostextra/d2xx's syncPin uses against its
// syncBus.
type Pin struct {
	ctrl *Controller
	num  int
}

// String implements conn.Resource.
func (p *Pin) String() string { return p.Name() }

// Halt implements conn.Resource. GPIO pins have nothing to halt.
func (p *Pin) Halt() error { return nil }

// Name implements pin.Pin.
func (p *Pin) Name() string { return fmt.Sprintf("GPIO%d", p.num) }

// Number implements pin.Pin.
func (p *Pin) Number() int { return p.num }

// Function implements pin.Pin.
func (p *Pin) Function() string {
	info, ok := p.ctrl.pinInfo(p.num)
	if !ok {
		return ""
	}
	return string(info.Function)
}

// In implements gpio.PinIn: configures the pin as input with the given
// pull. Edge triggering is requested via Controller.AddEventDetect, not
// through periph's WaitForEdge, so a non-NoEdge request here is
// rejected.
func (p *Pin) In(pull pgpio.Pull, edge pgpio.Edge) error {
	if edge != pgpio.NoEdge {
		return errors.New("gpio: use Controller.AddEventDetect for edge triggering")
	}
	return p.ctrl.Setup(p.num, Input, fromPeriphPull(pull))
}

// Read implements gpio.PinIn.
func (p *Pin) Read() pgpio.Level {
	v, err := p.ctrl.Input(p.num)
	if err != nil {
		return pgpio.Low
	}
	return v != 0
}

// WaitForEdge implements gpio.PinIn. Simulated pins are driven
// synchronously, so blocking wait is not supported; callers should use
// Controller.AddEventDetect instead.
func (p *Pin) WaitForEdge(timeout time.Duration) bool {
	return false
}

// DefaultPull implements gpio.PinIn.
func (p *Pin) DefaultPull() pgpio.Pull { return pgpio.Float }

// Pull implements gpio.PinIn.
func (p *Pin) Pull() pgpio.Pull {
	st, ok := p.ctrl.pins[p.num]
	if !ok {
		return pgpio.Float
	}
	switch {
	case st.pullUp:
		return pgpio.PullUp
	case st.pullDown:
		return pgpio.PullDown
	default:
		return pgpio.Float
	}
}

// Out implements gpio.PinOut.
func (p *Pin) Out(l pgpio.Level) error {
	v := 0
	if l {
		v = 1
	}
	return p.ctrl.Output(p.num, v, p.ctrl.now())
}

// PWM implements gpio.PinOut: starts (or reconfigures) the pin's
// hardware PWM channel if it has one, otherwise falls back to software
// PWM.
func (p *Pin) PWM(duty pgpio.Duty, freq physic.Frequency) error {
	dutyPercent := float64(duty) * 100 / float64(pgpio.DutyMax)
	hz := float64(freq) / float64(physic.Hertz)
	if _, ok := p.ctrl.hwPWM[p.num]; ok {
		return p.ctrl.SetupPWMHardware(p.num, hz, dutyPercent)
	}
	if err := p.ctrl.SetupPWMSoftware(p.num, hz); err != nil {
		return err
	}
	return p.ctrl.StartPWM(p.num, dutyPercent)
}

func fromPeriphPull(pull pgpio.Pull) PullMode {
	switch pull {
	case pgpio.PullUp:
		return PullUp
	case pgpio.PullDown:
		return PullDown
	default:
		return PullOff
	}
}

// now is a placeholder hook for periph.PinOut.Out callers that don't
// carry a simulated timestamp; it reports the most recent timestamp
// passed to Controller.Output on any pin, else 0. Code that cares about
// precise timestamps should call Controller.Output directly instead of
// going through the periph.io adapter.
func (c *Controller) now() float64 {
	return c.lastPublished
}
