// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the conversation orchestrator for the flowos TUI.
//
// The Model drives the three-stage matching conversation: it streams
// assistant replies into a single placeholder message, falls back to canned
// responses when the remote assistant fails, analyzes user text into a
// profile, computes roster matches when the final stage is reached, and
// manages candidate selection and contact push. Backend health and the
// visitor count are polled on a fixed interval and surfaced in the status
// bar.
//
// Streaming happens in a goroutine; tokens flow back into the Bubble Tea
// loop as messages and are batched by StreamingBuffer so rendering stays
// at a capped frame rate.
package chat
