// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend implements the candidate search service client.
//
// The backend exposes two endpoints: a chat-assistant search that returns
// candidate partners for a conversation transcript, and a health probe the
// UI polls to show connectivity in the status bar. Search responses arrive
// in several envelope shapes depending on server version, so decoding is
// tolerant: a bare array, a wrapper with a "data" field, or a wrapper with
// a "people" field all work, and anything else yields zero candidates.
package backend
