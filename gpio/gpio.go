// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gpio simulates a BCM2711-style GPIO controller: pin modes,
// pulls, edge detection with debounce, and both hardware and software
// PWM. Pins implement periph.io/x/periph/conn/gpio.PinIO so code
// written against periph's interfaces runs unmodified against the
// simulator.
package gpio

import (
	"errors"
	"fmt"
	"sync"

	"sbcsim/board"
	"sbcsim/kernel"

	pgpio "periph.io/x/periph/conn/gpio"
)

// Sentinel errors, matching the fault taxonomy's invalid_pin/wrong_mode/
// pull_conflict conditions.
var (
	ErrInvalidPin   = errors.New("gpio: invalid or non-GPIO-capable pin")
	ErrWrongMode    = errors.New("gpio: pin not configured for this operation")
	ErrPullConflict = errors.New("gpio: pull-up and pull-down cannot both be set")
)

// Mode is a pin's configured direction or alternate function.
type Mode int

// Pin modes, matching the state machine UNCONFIGURED -> INPUT | OUTPUT
// | ALT_n.
const (
	Unconfigured Mode = iota
	Input
	Output
	Alt0
	Alt1
	Alt2
	Alt3
	Alt4
	Alt5
)

func (m Mode) String() string {
	switch m {
	case Input:
		return "input"
	case Output:
		return "output"
	case Alt0, Alt1, Alt2, Alt3, Alt4, Alt5:
		return fmt.Sprintf("alt%d", int(m-Alt0))
	default:
		return "unconfigured"
	}
}

// PullMode is the pin's pull resistor configuration.
type PullMode int

// Pull modes, RPi.GPIO-compatible naming.
const (
	PullOff PullMode = iota
	PullUp
	PullDown
)

// PWMClockHz is the BCM2711 PWM peripheral clock, used by hardware PWM
// range/data computation.
const PWMClockHz = 19200000

type hardwarePWM struct {
	channel   int
	pin       int
	frequency float64
	duty      float64
	enabled   bool
}

type softwarePWM struct {
	frequency float64
	duty      float64
	enabled   bool
	state     bool
}

type edgeRegistration struct {
	edge      kernel.EdgeKind
	callback  func(pin int)
	bounceSec float64
}

// pinState is the full per-pin state spec.md's data model calls for.
type pinState struct {
	bcm          int
	mode         Mode
	value        int
	pullUp       bool
	pullDown     bool
	driveMilliAmps int
	slewFast     bool
	bounceSeconds float64
	lastEdgeTime float64
	edgeSeen     bool // lastEdgeTime holds a real edge, not the zero value
}

// Controller simulates the BCM2711 GPIO block: pin modes, pulls, edge
// detection, hardware and software PWM. All mutating methods serialize
// under a single re-entrant-by-convention mutex, matching the Python
// original's threading.RLock usage — Go has no re-entrant mutex, so
// internal helpers that already hold the lock are unexported and never
// re-acquire it.
type Controller struct {
	mu      sync.Mutex
	board   board.Model
	bus     *kernel.EventBus
	regs    BCMRegisters

	pins    map[int]*pinState
	signals map[int]*kernel.Signal

	edgeCallbacks map[int][]edgeRegistration

	hwPWM map[int]*hardwarePWM // keyed by pin
	swPWM map[int]*softwarePWM // keyed by pin

	// lastPublished is the most recent timestamp passed to Output, used
	// as a fallback "now" by the periph.io PinOut adapter, which has no
	// timestamp parameter of its own.
	lastPublished float64
}

// NewController returns a Controller bound to the given board model and
// publishing pin/PWM events to bus.
func NewController(model board.Model, bus *kernel.EventBus) *Controller {
	c := &Controller{
		board:         model,
		bus:           bus,
		pins:          make(map[int]*pinState),
		signals:       make(map[int]*kernel.Signal),
		edgeCallbacks: make(map[int][]edgeRegistration),
		hwPWM:         make(map[int]*hardwarePWM),
		swPWM:         make(map[int]*softwarePWM),
	}
	for _, p := range model.Pins() {
		if p.PWMChannel != nil {
			c.hwPWM[p.BCM] = &hardwarePWM{channel: *p.PWMChannel, pin: p.BCM, frequency: 1000}
		}
	}
	return c
}

func (c *Controller) signal(pin int) *kernel.Signal {
	s, ok := c.signals[pin]
	if !ok {
		s = kernel.NewSignal(fmt.Sprintf("GPIO%d", pin), false)
		s.OnEdge(kernel.BothEdges, c.onSignalEdge)
		c.signals[pin] = s
	}
	return s
}

// Signal returns the Signal backing pin, for the logic analyzer to
// attach channels to. Returns nil if the pin was never configured.
func (c *Controller) Signal(pin int) *kernel.Signal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.signals[pin]
}

func (c *Controller) pinInfo(pin int) (board.PinInfo, bool) {
	return c.board.Pin(pin)
}

// Setup configures pin's direction and pull resistor. Non-GPIO-capable
// pins (those absent from the board's header table) are rejected with
// ErrInvalidPin.
func (c *Controller) Setup(pin int, mode Mode, pull PullMode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.pinInfo(pin); !ok {
		return fmt.Errorf("%w: %d", ErrInvalidPin, pin)
	}

	st := &pinState{bcm: pin, mode: mode}
	switch pull {
	case PullUp:
		st.pullUp = true
	case PullDown:
		st.pullDown = true
	}
	c.pins[pin] = st
	c.regs.updateFunctionSelect(pin, mode)

	initial := 0
	if st.pullUp {
		initial = 1
	}
	st.value = initial
	c.signal(pin).SetValue(float64(initial), 0.0)
	c.regs.updateLevel(pin, initial != 0)
	return nil
}

func (c *Controller) get(pin int) (*pinState, error) {
	st, ok := c.pins[pin]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPin, pin)
	}
	return st, nil
}

// Output drives pin to value (0 or 1) at simulated time now. Requires
// the pin to be configured Output.
func (c *Controller) Output(pin int, value int, now float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, err := c.get(pin)
	if err != nil {
		return err
	}
	if st.mode != Output {
		return fmt.Errorf("%w: pin %d is %s, not output", ErrWrongMode, pin, st.mode)
	}
	st.value = value
	c.signal(pin).SetValue(float64(value), now)
	c.regs.updateLevel(pin, value != 0)
	c.lastPublished = now

	c.bus.Publish(kernel.Event{
		Kind: kernel.KindGPIOState, Timestamp: now, Source: fmt.Sprintf("GPIO%d", pin),
		Payload: kernel.Payload{"pin": pin, "value": value},
	})
	return nil
}

// Input returns pin's effective value: the last externally/internally
// driven value, or the pull resistor's resting value if the pin has
// never been driven away from it.
func (c *Controller) Input(pin int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, err := c.get(pin)
	if err != nil {
		return 0, err
	}
	return st.value, nil
}

// AddEventDetect registers callback to fire (synchronously, from within
// whichever goroutine drives the signal) whenever pin transitions per
// edge. If bounceMs > 0, transitions within bounceMs of the previous
// one are suppressed.
func (c *Controller) AddEventDetect(pin int, edge kernel.EdgeKind, callback func(pin int), bounceMs float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.get(pin); err != nil {
		return err
	}
	c.edgeCallbacks[pin] = append(c.edgeCallbacks[pin], edgeRegistration{
		edge: edge, callback: callback, bounceSec: bounceMs / 1000.0,
	})
	c.regs.updateEdgeEnable(pin, edge == kernel.Rising || edge == kernel.BothEdges, edge == kernel.Falling || edge == kernel.BothEdges)
	return nil
}

// RemoveEventDetect clears every edge registration on pin.
func (c *Controller) RemoveEventDetect(pin int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.edgeCallbacks, pin)
	c.regs.updateEdgeEnable(pin, false, false)
}

func (c *Controller) onSignalEdge(sig *kernel.Signal, edge kernel.EdgeKind, timestamp float64) {
	var pin int
	if _, err := fmt.Sscanf(sig.Name, "GPIO%d", &pin); err != nil {
		return
	}

	edgeName := "rising"
	if edge == kernel.Falling {
		edgeName = "falling"
	}
	c.bus.Publish(kernel.Event{
		Kind: kernel.KindGPIOEdge, Timestamp: timestamp, Source: sig.Name,
		Payload: kernel.Payload{"pin": pin, "edge": edgeName, "value": sig.CurrentValue()},
	})

	st := c.pins[pin]
	regs := c.edgeCallbacks[pin]
	for i := range regs {
		reg := &regs[i]
		if reg.edge != edge && reg.edge != kernel.BothEdges {
			continue
		}
		if reg.bounceSec > 0 && st != nil && st.edgeSeen && timestamp-st.lastEdgeTime < reg.bounceSec {
			continue
		}
		c.fireEdgeCallback(reg.callback, pin)
	}
	if st != nil {
		st.lastEdgeTime = timestamp
		st.edgeSeen = true
	}
}

func (c *Controller) fireEdgeCallback(cb func(pin int), pin int) {
	defer func() {
		if r := recover(); r != nil {
			logEdgeDispatchError(pin, r)
		}
	}()
	cb(pin)
}

// InjectGlitch schedules a brief inverse pulse on pin starting at now
// and lasting durationMicros, for fault-injection tests.
func (c *Controller) InjectGlitch(pin int, durationMicros float64, now float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	sig, ok := c.signals[pin]
	if !ok {
		return fmt.Errorf("%w: %d", ErrInvalidPin, pin)
	}
	original := sig.CurrentValue()
	glitch := 1.0 - original
	sig.SetValue(glitch, now)
	sig.SetValue(original, now+durationMicros/1e6)
	return nil
}

// GetRegister reads the BCM register mirror by name, for debugging.
func (c *Controller) GetRegister(name string) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.regs.GetRegister(name)
}

// SetRegister overwrites the BCM register mirror by name, for advanced
// test setup.
func (c *Controller) SetRegister(name string, value uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.regs.SetRegister(name, value)
}

// Pin returns a periph.io/x/periph/conn/gpio.PinIO view of pin, usable
// with any library written against periph's interfaces.
func (c *Controller) Pin(pin int) pgpio.PinIO {
	return &Pin{ctrl: c, num: pin}
}

