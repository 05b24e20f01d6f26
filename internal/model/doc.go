// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model defines the core data structures shared across flowos.
//
// It contains the chat message and conversation types used by the UI and
// storage layers, plus the matching domain types (user profile, roster
// person, match result) and the conversation stage machine.
//
// The types here are deliberately free of UI and transport concerns so
// that the analyzer, matcher, and persistence code can share them without
// importing each other.
package model
