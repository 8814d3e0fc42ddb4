// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry provides the structured application log for verifier.
//
// The terminal UI owns stdout and stderr while it runs, so the log is always
// written to a file. Level "off" produces a no-op logger.
//
// # Usage
//
//	logger, closeLog, err := telemetry.NewLogger(cfg.Log)
//	if err != nil {
//	    return err
//	}
//	defer closeLog()
//	logger.Info("verifier started", zap.String("directory", cfg.Auth.Directory))
//
// # Privacy
//
// Passwords and two-factor codes are never passed to the logger. Usernames
// in failure paths are reduced with security.MaskIdentifier first.
package telemetry
