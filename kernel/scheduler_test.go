// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package kernel

import "testing"

func TestSchedulerOrdersByTimePriorityThenSequence(t *testing.T) {
	s := NewScheduler()
	var order []string
	s.ScheduleAt(1.0, 5, func() { order = append(order, "t1p5") })
	s.ScheduleAt(1.0, 1, func() { order = append(order, "t1p1") })
	s.ScheduleAt(0.5, 0, func() { order = append(order, "t0.5p0") })
	s.ScheduleAt(1.0, 1, func() { order = append(order, "t1p1-second") })

	s.ProcessEvents(2.0)

	want := []string{"t0.5p0", "t1p1", "t1p1-second", "t1p5"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestSchedulerCancelSkipsDispatch(t *testing.T) {
	s := NewScheduler()
	fired := false
	id := s.ScheduleAt(1.0, 0, func() { fired = true })
	if !s.Cancel(id) {
		t.Fatal("Cancel returned false for live entry")
	}
	if s.Cancel(id) != true {
		t.Fatal("Cancel should be idempotent and keep returning true for a known id")
	}
	s.ProcessEvents(2.0)
	if fired {
		t.Fatal("cancelled entry fired")
	}
}

func TestSchedulerProcessEventsOnlyDueEntries(t *testing.T) {
	s := NewScheduler()
	n := 0
	s.ScheduleAt(5.0, 0, func() { n++ })
	dispatched := s.ProcessEvents(1.0)
	if dispatched != 0 || n != 0 {
		t.Fatalf("dispatched early: n=%d dispatched=%d", n, dispatched)
	}
	dispatched = s.ProcessEvents(5.0)
	if dispatched != 1 || n != 1 {
		t.Fatalf("n=%d dispatched=%d, want 1/1", n, dispatched)
	}
}

func TestSchedulerPeekNextTimeSkipsCancelled(t *testing.T) {
	s := NewScheduler()
	id := s.ScheduleAt(1.0, 0, func() {})
	s.ScheduleAt(2.0, 0, func() {})
	s.Cancel(id)
	next, ok := s.PeekNextTime()
	if !ok || next != 2.0 {
		t.Fatalf("PeekNextTime() = %v, %v; want 2.0, true", next, ok)
	}
}

func TestSchedulerActiveEventCount(t *testing.T) {
	s := NewScheduler()
	id := s.ScheduleAt(1.0, 0, func() {})
	s.ScheduleAt(2.0, 0, func() {})
	s.Cancel(id)
	if s.EventCount() != 2 {
		t.Fatalf("EventCount() = %d, want 2", s.EventCount())
	}
	if s.ActiveEventCount() != 1 {
		t.Fatalf("ActiveEventCount() = %d, want 1", s.ActiveEventCount())
	}
}
