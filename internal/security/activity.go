// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"sort"
	"sync"
)

// ActivityKind is a class of user input that counts as activity.
type ActivityKind int

const (
	ActivityPointerDown ActivityKind = iota
	ActivityPointerMove
	ActivityKeyDown
	ActivityScroll
	ActivityTouchStart
)

// ActivityKinds lists every kind the session monitor listens for.
var ActivityKinds = []ActivityKind{
	ActivityPointerDown,
	ActivityPointerMove,
	ActivityKeyDown,
	ActivityScroll,
	ActivityTouchStart,
}

// String returns the event name.
func (k ActivityKind) String() string {
	switch k {
	case ActivityPointerDown:
		return "pointer-down"
	case ActivityPointerMove:
		return "pointer-move"
	case ActivityKeyDown:
		return "key-down"
	case ActivityScroll:
		return "scroll"
	case ActivityTouchStart:
		return "touch-start"
	default:
		return "unknown"
	}
}

// ActivitySource delivers activity events to registered listeners.
type ActivitySource interface {
	// Listen registers fn for the given kinds and returns a func that
	// removes the registration. The returned func is idempotent.
	Listen(kinds []ActivityKind, fn func(ActivityKind)) (stop func())
}

// ActivityBus is an ActivitySource fed by the host UI.
type ActivityBus struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]activityListener
}

type activityListener struct {
	kinds map[ActivityKind]bool
	fn    func(ActivityKind)
}

// NewActivityBus returns an empty bus.
func NewActivityBus() *ActivityBus {
	return &ActivityBus{listeners: make(map[int]activityListener)}
}

// Listen implements ActivitySource.
func (b *ActivityBus) Listen(kinds []ActivityKind, fn func(ActivityKind)) func() {
	set := make(map[ActivityKind]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = activityListener{kinds: set, fn: fn}
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			b.mu.Unlock()
		})
	}
}

// Emit delivers kind to every listener registered for it, in registration
// order. Listeners run on the caller's goroutine, outside the bus lock.
func (b *ActivityBus) Emit(kind ActivityKind) {
	b.mu.Lock()
	ids := make([]int, 0, len(b.listeners))
	for id, l := range b.listeners {
		if l.kinds[kind] {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	fns := make([]func(ActivityKind), len(ids))
	for i, id := range ids {
		fns[i] = b.listeners[id].fn
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(kind)
	}
}

// ListenerCount returns the number of registered listeners.
func (b *ActivityBus) ListenerCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}
