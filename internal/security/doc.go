// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package security implements authentication and idle-session control for
// verifier.
//
// # Key Types
//
//   - AuthManager: login, logout, first-password creation, password change
//     and reset requests against a directory.Directory
//   - SessionMonitor: idle timeout state machine (Inactive, Active, Warning,
//     Expired) driven by user activity
//   - ActivityBus: fan-out of user input events to the monitor
//   - IdentityVault: persistence of the signed-in identity in the remember
//     or session-only storage scope
//   - LockoutManager: failed-attempt counting and temporary lockout
//   - AuditLogger: JSON audit trail of security events
//
// # Session Lifecycle
//
// The monitor subscribes to AuthManager. When a user signs in it starts
// listening for activity and arms two timers: a warning at timeout minus
// lead, and an expiry at timeout. Every activity event cancels both and
// re-arms them. When the expiry timer fires the monitor calls
// AuthManager.Expire, which signs the user out and clears both scopes.
//
// # Usage
//
//	auth := security.NewAuthManager(dir, vault,
//	    security.WithNavigator(nav),
//	    security.WithAuditLogger(audit),
//	)
//	bus := security.NewActivityBus()
//	monitor := security.NewSessionMonitor(auth, bus,
//	    security.WithMonitorClock(clk),
//	    security.WithSessionPolicy(security.DefaultSessionPolicy()),
//	)
//	monitor.Start()
//	defer monitor.Stop()
package security
