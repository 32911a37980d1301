// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package kernel

import "container/heap"

// ScheduledEventID identifies an entry in the Scheduler for cancellation.
type ScheduledEventID uint64

type scheduledEvent struct {
	time      float64
	priority  int
	sequence  uint64 // tie-breaker, assigned at insertion, makes dispatch deterministic
	id        ScheduledEventID
	callback  func()
	cancelled bool
	index     int // heap.Interface bookkeeping
}

// schedHeap is a min-heap ordered by (time, priority, sequence).
type schedHeap []*scheduledEvent

func (h schedHeap) Len() int { return len(h) }
func (h schedHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.time != b.time {
		return a.time < b.time
	}
	if a.priority != b.priority {
		return a.priority < b.priority
	}
	return a.sequence < b.sequence
}
func (h schedHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *schedHeap) Push(x any) {
	e := x.(*scheduledEvent)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *schedHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// Scheduler is a min-heap of future callbacks keyed by (time, priority),
// with ties broken by a monotonically assigned sequence number so
// dispatch order is fully deterministic (spec invariant: scheduler
// determinism).
type Scheduler struct {
	heap     schedHeap
	byID     map[ScheduledEventID]*scheduledEvent
	nextID   ScheduledEventID
	nextSeq  uint64
}

// NewScheduler returns an empty Scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{byID: make(map[ScheduledEventID]*scheduledEvent)}
}

// ScheduleAt inserts callback to run when ProcessEvents is called with
// now >= time, ordered by (time, priority, insertion order).
func (s *Scheduler) ScheduleAt(time float64, priority int, callback func()) ScheduledEventID {
	s.nextID++
	s.nextSeq++
	e := &scheduledEvent{
		time:     time,
		priority: priority,
		sequence: s.nextSeq,
		id:       s.nextID,
		callback: callback,
	}
	heap.Push(&s.heap, e)
	s.byID[e.id] = e
	return e.id
}

// Cancel marks id's entry cancelled. Cancelled entries are skipped at
// dispatch and lazily removed. Idempotent; returns false if id is
// unknown.
func (s *Scheduler) Cancel(id ScheduledEventID) bool {
	e, ok := s.byID[id]
	if !ok {
		return false
	}
	e.cancelled = true
	return true
}

// ProcessEvents pops and dispatches every non-cancelled entry with
// time <= now, in (time, priority, sequence) order, and returns how many
// were dispatched.
func (s *Scheduler) ProcessEvents(now float64) int {
	dispatched := 0
	for s.heap.Len() > 0 && s.heap[0].time <= now {
		e := heap.Pop(&s.heap).(*scheduledEvent)
		delete(s.byID, e.id)
		if e.cancelled {
			continue
		}
		s.fireOne(e)
		dispatched++
	}
	return dispatched
}

func (s *Scheduler) fireOne(e *scheduledEvent) {
	defer func() {
		if r := recover(); r != nil {
			logScheduledEventError(r)
		}
	}()
	e.callback()
}

// PeekNextTime returns the time of the next non-cancelled entry, skipping
// (and discarding) any cancelled entries at the head of the heap. Returns
// false if no entry remains.
func (s *Scheduler) PeekNextTime() (float64, bool) {
	for s.heap.Len() > 0 && s.heap[0].cancelled {
		e := heap.Pop(&s.heap).(*scheduledEvent)
		delete(s.byID, e.id)
	}
	if s.heap.Len() == 0 {
		return 0, false
	}
	return s.heap[0].time, true
}

// Clear removes all scheduled entries.
func (s *Scheduler) Clear() {
	s.heap = nil
	s.byID = make(map[ScheduledEventID]*scheduledEvent)
}

// EventCount returns the number of pending entries, including cancelled
// ones not yet popped.
func (s *Scheduler) EventCount() int { return s.heap.Len() }

// ActiveEventCount returns the number of non-cancelled pending entries.
func (s *Scheduler) ActiveEventCount() int {
	n := 0
	for _, e := range s.heap {
		if !e.cancelled {
			n++
		}
	}
	return n
}
