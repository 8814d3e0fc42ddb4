// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package clock

import (
	"sync"
	"time"
)

// =============================================================================
// INTERFACES
// =============================================================================

// Timer is a handle to a scheduled callback.
type Timer interface {
	// Stop cancels the callback. It reports whether the call stopped the
	// timer; false means the callback already ran or was already stopped.
	Stop() bool
}

// Clock is the source of time and deferred callbacks for the session layer.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// =============================================================================
// REAL CLOCK
// =============================================================================

type realClock struct{}

// Real returns a Clock backed by the time package.
func Real() Clock {
	return realClock{}
}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// =============================================================================
// DISPATCHED CLOCK
// =============================================================================

// Dispatcher hands a callback to an event loop for execution.
type Dispatcher func(fn func())

// Dispatched wraps base so that every AfterFunc callback is handed to
// dispatch instead of running on the timer goroutine. Stopping the timer
// after the callback was handed off but before the loop ran it still
// suppresses the callback.
func Dispatched(base Clock, dispatch Dispatcher) Clock {
	return &dispatchedClock{base: base, dispatch: dispatch}
}

type dispatchedClock struct {
	base     Clock
	dispatch Dispatcher
}

func (c *dispatchedClock) Now() time.Time { return c.base.Now() }

func (c *dispatchedClock) AfterFunc(d time.Duration, f func()) Timer {
	t := &dispatchedTimer{}
	t.inner = c.base.AfterFunc(d, func() {
		c.dispatch(func() {
			if t.claim() {
				f()
			}
		})
	})
	return t
}

type dispatchedTimer struct {
	mu    sync.Mutex
	inner Timer
	done  bool
}

// claim marks the timer as fired. It returns false if Stop won the race.
func (t *dispatchedTimer) claim() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

func (t *dispatchedTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	t.inner.Stop()
	return true
}
