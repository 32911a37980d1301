// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package kernel

import "errors"

// ErrNegativeDelay is returned when a Timer delay is negative.
var ErrNegativeDelay = errors.New("kernel: timer delay must be >= 0")

// MinTimestepMicros and MaxTimestepMicros bound the Clock's fixed
// timestep.
const (
	MinTimestepMicros = 1
	MaxTimestepMicros = 1000
)

// TimerID identifies a scheduled Timer for cancellation.
type TimerID uint64

type timer struct {
	id       TimerID
	fireAt   float64
	callback func()
	repeat   float64 // 0 means one-shot
	active   bool
}

// Clock is the simulator's monotonic, fixed-timestep virtual clock. It
// owns all Timers; a driver loop advances it by calling Tick or
// AdvanceTo.
type Clock struct {
	timestepSeconds float64
	now             float64
	running         bool
	paused          bool

	timers   []*timer
	nextID   TimerID
}

// NewClock returns a Clock with the given timestep in microseconds,
// clamped to [MinTimestepMicros, MaxTimestepMicros].
func NewClock(timestepMicros int) *Clock {
	if timestepMicros < MinTimestepMicros {
		timestepMicros = MinTimestepMicros
	}
	if timestepMicros > MaxTimestepMicros {
		timestepMicros = MaxTimestepMicros
	}
	return &Clock{timestepSeconds: float64(timestepMicros) / 1e6}
}

// Now returns the current simulation time in seconds.
func (c *Clock) Now() float64 { return c.now }

// NowMicros returns the current simulation time in microseconds.
func (c *Clock) NowMicros() int64 { return int64(c.now * 1e6) }

// Running reports whether the clock currently advances on Tick.
func (c *Clock) Running() bool { return c.running && !c.paused }

// Start begins advancing the clock on Tick calls.
func (c *Clock) Start() { c.running = true }

// Stop halts the clock and clears any pause state.
func (c *Clock) Stop() {
	c.running = false
	c.paused = false
}

// Pause temporarily suspends Tick without dropping timers.
func (c *Clock) Pause() { c.paused = true }

// Resume undoes Pause.
func (c *Clock) Resume() { c.paused = false }

// Reset zeroes simulation time and drops all timers. It does not change
// running/paused state.
func (c *Clock) Reset() {
	c.now = 0
	c.timers = nil
}

// Tick advances simulation time by exactly one timestep, fires every due
// timer (insertion order for equal fireAt), and reschedules repeating
// timers. It returns false without advancing if the clock is not
// running.
func (c *Clock) Tick() bool {
	if !c.Running() {
		return false
	}
	c.now += c.timestepSeconds
	c.fireDueTimers()
	return true
}

func (c *Clock) fireDueTimers() {
	due := c.timers[:0:0]
	remaining := c.timers[:0]
	for _, t := range c.timers {
		if t.active && t.fireAt <= c.now {
			due = append(due, t)
		} else if t.active {
			remaining = append(remaining, t)
		}
	}
	c.timers = remaining
	for _, t := range due {
		c.fireOne(t)
		if t.repeat > 0 && t.active {
			t.fireAt = c.now + t.repeat
			c.timers = append(c.timers, t)
		}
	}
}

func (c *Clock) fireOne(t *timer) {
	defer func() {
		if r := recover(); r != nil {
			logTimerError(r)
		}
	}()
	t.callback()
}

// AdvanceTo repeatedly ticks until Now() >= target or the clock stops
// running.
func (c *Clock) AdvanceTo(target float64) {
	for c.now < target && c.Running() {
		c.Tick()
	}
}

// ScheduleTimer arranges for callback to fire at Now()+delay (seconds).
// If repeat > 0, the timer reschedules itself every repeat seconds after
// firing. delay must be >= 0.
func (c *Clock) ScheduleTimer(delay float64, callback func(), repeat float64) (TimerID, error) {
	if delay < 0 {
		return 0, ErrNegativeDelay
	}
	c.nextID++
	t := &timer{
		id:       c.nextID,
		fireAt:   c.now + delay,
		callback: callback,
		repeat:   repeat,
		active:   true,
	}
	c.timers = append(c.timers, t)
	return t.id, nil
}

// CancelTimer marks a timer inactive; cancellation is idempotent.
func (c *Clock) CancelTimer(id TimerID) {
	for _, t := range c.timers {
		if t.id == id {
			t.active = false
			return
		}
	}
}
