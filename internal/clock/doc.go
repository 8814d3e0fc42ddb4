// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package clock provides the time source and cancellable deferred callbacks
// used by the session monitor, the lockout manager and the notification
// center.
//
// Three implementations are provided:
//
//   - Real: wall clock, callbacks on timer goroutines
//   - Fake: manually advanced, callbacks run inside Advance
//   - Dispatched: wraps another clock and hands callbacks to an event loop
//
// # Usage
//
//	clk := clock.Dispatched(clock.Real(), func(fn func()) {
//	    program.Send(app.RunMsg(fn))
//	})
//	t := clk.AfterFunc(25*time.Minute, monitor.onWarning)
//	defer t.Stop()
package clock
