// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists conversation state between runs.
//
// Message history, the analyzed user profile, and the latest match results
// are stored as JSON files under the data directory, written atomically so
// a crash never leaves a half-written file behind. The visit counter and
// the match history log live in a small SQLite database.
package storage
