// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the key/value scopes that hold a persisted
// identity between runs.
//
// Two lifetimes exist:
//
//   - Remember: a durable JSON file under the config directory, sealed with
//     an HMAC so a hand-edited file cannot grant a session
//   - Session: a file under $XDG_RUNTIME_DIR, which the login manager
//     removes when the user's OS session ends, or plain memory when no
//     runtime directory exists
//
// # Usage
//
//	secret, err := storage.LoadOrCreateSecret(filepath.Join(dir, "identity.key"))
//	remember := storage.NewFileStore(cfg.Identity.RememberPath, storage.NewSealer(secret, "identity"))
//	session := storage.NewMemoryStore()
//	_ = remember.Set("verifier_userName", "admin@verify.com")
package storage
