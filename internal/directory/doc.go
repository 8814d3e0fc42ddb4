// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package directory provides the credential directory: the store of staff
// accounts that login, password creation and password reset consult.
//
// # Key Types
//
//   - Account: username, bcrypt hash (empty until the user creates one),
//     role and optional TOTP secret
//   - Directory: lookup and update operations
//   - MemoryDirectory: process-local backend
//   - SQLiteDirectory: durable backend on modernc.org/sqlite
//
// Password hashes are produced by the security package; this package never
// sees a plaintext password except while seeding demo accounts.
//
// # Usage
//
//	dir, err := directory.OpenSQLite(ctx, cfg.Auth.DatabasePath)
//	if err != nil {
//	    return err
//	}
//	defer dir.Close()
//	err = directory.Seed(ctx, dir, directory.DemoAccounts(), hasher.Hash)
package directory
