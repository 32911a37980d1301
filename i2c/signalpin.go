// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package i2c

import (
	"errors"
	"time"

	"sbcsim/kernel"

	pgpio "periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/physic"
)

// signalPin is a read-only gpio.PinIO view over a kernel.Signal, used
// to expose the bus's SCL/SDA lines through i2c.Pins without giving
// periph.io callers write access to bus timing internals.
type signalPin struct {
	sig *kernel.Signal
}

func (s signalPin) String() string { return s.sig.Name }
func (s signalPin) Halt() error    { return nil }
func (s signalPin) Name() string   { return s.sig.Name }
func (s signalPin) Number() int    { return -1 }
func (s signalPin) Function() string {
	return "i2c"
}

func (s signalPin) In(pull pgpio.Pull, edge pgpio.Edge) error {
	return errors.New("i2c: bus lines are not independently configurable")
}

func (s signalPin) Read() pgpio.Level {
	return s.sig.CurrentState() == kernel.High
}

func (s signalPin) WaitForEdge(timeout time.Duration) bool { return false }
func (s signalPin) DefaultPull() pgpio.Pull                { return pgpio.PullUp }
func (s signalPin) Pull() pgpio.Pull                        { return pgpio.PullUp }

func (s signalPin) Out(l pgpio.Level) error {
	return errors.New("i2c: bus lines are driven by transactions, not directly")
}

func (s signalPin) PWM(duty pgpio.Duty, f physic.Frequency) error {
	return errors.New("i2c: PWM not supported on bus lines")
}

var _ pgpio.PinIO = signalPin{}
