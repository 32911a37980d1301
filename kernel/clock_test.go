// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package kernel

import "testing"

func TestClockTickAdvancesByTimestep(t *testing.T) {
	c := NewClock(100) // 100us
	c.Start()
	if !c.Tick() {
		t.Fatal("Tick() = false, want true while running")
	}
	if got, want := c.Now(), 0.0001; got != want {
		t.Fatalf("Now() = %v, want %v", got, want)
	}
}

func TestClockTickStoppedReturnsFalse(t *testing.T) {
	c := NewClock(1)
	if c.Tick() {
		t.Fatal("Tick() = true, want false before Start")
	}
}

func TestClockTimersFireInInsertionOrderAtSameTime(t *testing.T) {
	c := NewClock(1000) // 1ms
	c.Start()
	var order []int
	c.ScheduleTimer(0.001, func() { order = append(order, 1) }, 0)
	c.ScheduleTimer(0.001, func() { order = append(order, 2) }, 0)
	c.ScheduleTimer(0.001, func() { order = append(order, 3) }, 0)
	c.Tick()
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("fire order = %v, want [1 2 3]", order)
	}
}

func TestClockRepeatingTimerReschedules(t *testing.T) {
	c := NewClock(1000)
	c.Start()
	fires := 0
	c.ScheduleTimer(0.001, func() { fires++ }, 0.001)
	for i := 0; i < 5; i++ {
		c.Tick()
	}
	if fires != 5 {
		t.Fatalf("fires = %d, want 5", fires)
	}
}

func TestClockCancelTimer(t *testing.T) {
	c := NewClock(1000)
	c.Start()
	fired := false
	id, _ := c.ScheduleTimer(0.001, func() { fired = true }, 0)
	c.CancelTimer(id)
	c.Tick()
	if fired {
		t.Fatal("cancelled timer fired")
	}
	// cancellation is idempotent
	c.CancelTimer(id)
}

func TestClockNegativeDelayRejected(t *testing.T) {
	c := NewClock(1)
	if _, err := c.ScheduleTimer(-1, func() {}, 0); err != ErrNegativeDelay {
		t.Fatalf("err = %v, want ErrNegativeDelay", err)
	}
}

func TestClockAdvanceTo(t *testing.T) {
	c := NewClock(100) // 100us
	c.Start()
	c.AdvanceTo(0.001)
	if c.Now() < 0.001 {
		t.Fatalf("Now() = %v, want >= 0.001", c.Now())
	}
}

func TestClockReset(t *testing.T) {
	c := NewClock(100)
	c.Start()
	c.ScheduleTimer(1, func() {}, 0)
	c.Tick()
	c.Reset()
	if c.Now() != 0 {
		t.Fatalf("Now() after Reset = %v, want 0", c.Now())
	}
}

func TestClockTimestepClamped(t *testing.T) {
	c := NewClock(0)
	if c.timestepSeconds != float64(MinTimestepMicros)/1e6 {
		t.Fatalf("timestep not clamped to minimum")
	}
	c2 := NewClock(100000)
	if c2.timestepSeconds != float64(MaxTimestepMicros)/1e6 {
		t.Fatalf("timestep not clamped to maximum")
	}
}
