// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for verifier.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - SessionConfig: Idle timeout and warning lead
//   - SecurityConfig: Lockout, audit and password policy settings
//   - Watcher: Reloads config.toml when it changes on disk
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (VERIFIER_*), including those from .env files
//   - ~/.verifier/config.toml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	timeout := cfg.SessionTimeout()
package config
