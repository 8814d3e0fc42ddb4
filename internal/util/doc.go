// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small file and text helpers shared by the identity
// store, the config layer and the terminal views.
//
// # Key Functions
//
//   - WriteFileAtomic: temp file, fsync, rename; never leaves a partial file
//   - Truncate: cell-width aware truncation with an ellipsis
//   - PadRight: pad to a display width
//
// # Usage
//
//	if err := util.WriteFileAtomic(path, data, 0600); err != nil {
//	    return err
//	}
//	label := util.Truncate(userName, 24)
package util
