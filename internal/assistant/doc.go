// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package assistant implements the remote assistant client.
//
// The assistant speaks an OpenAI-compatible chat-completions protocol with
// Server-Sent Events streaming. The client supports both a blocking Chat
// call and a token-callback ChatStream, with retry and exponential backoff
// for transient failures. Errors that interrupt a stream preserve the
// partial content received so far, so the UI can decide whether to keep or
// replace it.
package assistant
