// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app wires the verifier services together and runs the TUI.
//
// # Services
//
// NewServices builds the logger, audit trail, credential directory, identity
// vault, lockout manager, auth manager and session monitor from a Config.
// The CLI commands use the same graph without a UI.
//
// # Event Loop
//
// Every state change happens on the Bubble Tea update loop:
//
//   - key and mouse input is emitted on the activity bus from Update
//   - session timers use a dispatched clock whose callbacks arrive as RunMsg
//   - login submissions come back as LoginDueMsg after the simulated latency
//   - config reloads arrive as ConfigReloadedMsg from the file watcher
//
// The Model is the navigator of the auth manager and an observer of both
// the auth manager and the session monitor, so those callbacks run inside
// Update as well and never call Program.Send.
package app
