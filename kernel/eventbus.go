// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package kernel

// DefaultHistoryLimit is the default bound on recorded event history.
const DefaultHistoryLimit = 10000

// Subscription is the handle a subscriber holds. Dropping it (calling
// Close) removes the subscriber from the bus. This plays the role of a
// weak reference without needing a GC-visible weak pointer: the bus
// never holds a Subscription alive on the subscriber's behalf, and the
// subscriber is expected to Close it when done.
type Subscription struct {
	bus  *EventBus
	kind Kind
	id   uint64
}

// Close removes the subscription from the bus. Idempotent.
func (s *Subscription) Close() {
	if s == nil || s.bus == nil {
		return
	}
	s.bus.unsubscribe(s.kind, s.id)
	s.bus = nil
}

type subscriber struct {
	id uint64
	cb func(Event)
}

// EventBus is a synchronous, same-thread pub/sub bus with a bounded,
// optionally recorded history. It is not safe for concurrent use from
// multiple goroutines; callers publishing from another goroutine (for
// example a UART hardware bridge) must serialize externally.
type EventBus struct {
	subs      map[Kind][]subscriber
	nextSubID uint64

	recording bool
	history   []Event
	limit     int
}

// NewEventBus returns a ready-to-use bus with the default history
// limit.
func NewEventBus() *EventBus {
	return &EventBus{
		subs:  make(map[Kind][]subscriber),
		limit: DefaultHistoryLimit,
	}
}

// SetHistoryLimit changes the bound on recorded history. It does not
// retroactively trim existing history.
func (b *EventBus) SetHistoryLimit(n int) {
	if n > 0 {
		b.limit = n
	}
}

// Subscribe registers callback for events of the given kind and returns
// a Subscription the caller should Close when no longer interested.
func (b *EventBus) Subscribe(kind Kind, callback func(Event)) *Subscription {
	b.nextSubID++
	id := b.nextSubID
	b.subs[kind] = append(b.subs[kind], subscriber{id: id, cb: callback})
	return &Subscription{bus: b, kind: kind, id: id}
}

func (b *EventBus) unsubscribe(kind Kind, id uint64) {
	list := b.subs[kind]
	for i, s := range list {
		if s.id == id {
			b.subs[kind] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// Publish records event if recording is enabled, then delivers it
// synchronously to every current subscriber of its kind. A callback must
// not call Publish again for the same event; cycles are the caller's
// responsibility to avoid. A panicking callback is recovered and does
// not prevent delivery to the remaining subscribers.
func (b *EventBus) Publish(event Event) {
	if b.recording {
		b.history = append(b.history, event.clone())
		if over := len(b.history) - b.limit; over > 0 {
			b.history = b.history[over:]
		}
	}
	for _, s := range b.subs[event.Kind] {
		b.dispatch(s.cb, event)
	}
}

func (b *EventBus) dispatch(cb func(Event), event Event) {
	defer func() {
		if r := recover(); r != nil {
			logEventCallbackError(event, r)
		}
	}()
	cb(event)
}

// StartRecording begins appending published events to history, clearing
// any prior history first.
func (b *EventBus) StartRecording() {
	b.recording = true
	b.history = nil
}

// StopRecording stops recording and returns the accumulated history.
// The returned slice is a copy; mutating it does not affect the bus.
func (b *EventBus) StopRecording() []Event {
	b.recording = false
	return b.GetEvents("", nil, nil)
}

// GetEvents returns a filtered copy of the recorded history. An empty
// kind matches every kind. start/end are optional timestamp bounds.
func (b *EventBus) GetEvents(kind Kind, start, end *float64) []Event {
	out := make([]Event, 0, len(b.history))
	for _, e := range b.history {
		if kind != "" && e.Kind != kind {
			continue
		}
		if start != nil && e.Timestamp < *start {
			continue
		}
		if end != nil && e.Timestamp > *end {
			continue
		}
		out = append(out, e.clone())
	}
	return out
}

// ClearHistory discards recorded events without stopping recording.
func (b *EventBus) ClearHistory() {
	b.history = nil
}
