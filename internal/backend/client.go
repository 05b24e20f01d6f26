// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultTimeout is the timeout for search requests.
	DefaultTimeout = 30 * time.Second

	// HealthTimeout is the timeout for health checks.
	HealthTimeout = 5 * time.Second

	// MaxResponseSize caps how much of a search response we read.
	MaxResponseSize = 4 * 1024 * 1024
)

// ErrOffline indicates the backend health check failed.
var ErrOffline = errors.New("backend offline")

// =============================================================================
// TYPES
// =============================================================================

// Candidate is a search result returned by the backend.
type Candidate struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	MBTI        string   `json:"mbti"`
	Contact     string   `json:"contact"`
	Tags        []string `json:"tags"`
}

// searchRequest is the chat-assistant request body.
type searchRequest struct {
	SessionID string   `json:"session_id"`
	Messages  []string `json:"messages"`
}

// searchEnvelope covers the wrapper shapes the backend may respond with.
type searchEnvelope struct {
	Data   []Candidate `json:"data"`
	People []Candidate `json:"people"`
}

// Client talks to the candidate search backend.
type Client struct {
	baseURL      string
	sessionID    string
	httpClient   *http.Client
	healthClient *http.Client
}

// NewClient creates a backend client for the given base URL.
// A fresh session ID is generated for the lifetime of the client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		sessionID: uuid.NewString(),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		healthClient: &http.Client{
			Timeout: HealthTimeout,
		},
	}
}

// SessionID returns the session identifier sent with search requests.
func (c *Client) SessionID() string {
	return c.sessionID
}

// IsConfigured returns true if a base URL is set.
func (c *Client) IsConfigured() bool {
	return c.baseURL != ""
}

// =============================================================================
// CANDIDATE SEARCH
// =============================================================================

// SearchCandidates sends the conversation transcript to the backend and
// returns the candidates it found. The response envelope is probed in
// order: bare array, {"data": [...]}, {"people": [...]}. Any other valid
// JSON decodes to zero candidates without error.
func (c *Client) SearchCandidates(ctx context.Context, messages []string) ([]Candidate, error) {
	if !c.IsConfigured() {
		return nil, errors.New("backend URL not configured")
	}

	reqBody := searchRequest{
		SessionID: c.sessionID,
		Messages:  messages,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat-assistant", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("search failed: HTTP %d", resp.StatusCode)
	}

	return decodeCandidates(body)
}

// decodeCandidates probes the known envelope shapes.
func decodeCandidates(body []byte) ([]Candidate, error) {
	// First try: bare array
	var bare []Candidate
	if err := json.Unmarshal(body, &bare); err == nil {
		return bare, nil
	}

	// Second try: wrapper object
	var env searchEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if env.Data != nil {
		return env.Data, nil
	}
	if env.People != nil {
		return env.People, nil
	}

	// Valid JSON we don't recognize: treat as no results
	return nil, nil
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// CheckHealth probes the backend health endpoint. Returns nil when the
// backend is reachable and answering with a 2xx status, ErrOffline
// otherwise. Transport errors count as offline.
func (c *Client) CheckHealth(ctx context.Context) error {
	if !c.IsConfigured() {
		return ErrOffline
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/health", nil)
	if err != nil {
		return ErrOffline
	}

	resp, err := c.healthClient.Do(req)
	if err != nil {
		return ErrOffline
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ErrOffline
	}
	return nil
}

// =============================================================================
// FORMATTING
// =============================================================================

const missingField = "未提供"

// FormatCandidates renders candidates as a markdown card list.
func FormatCandidates(candidates []Candidate) string {
	if len(candidates) == 0 {
		return "没有找到符合条件的搭子，换个描述再试试吧。"
	}

	var b strings.Builder
	for i, c := range candidates {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "👤 **搭子 %d**\n", i+1)
		fmt.Fprintf(&b, "姓名：%s\n", orMissing(c.Name))
		fmt.Fprintf(&b, "描述：%s\n", orMissing(c.Description))
		fmt.Fprintf(&b, "MBTI：%s\n", orMissing(c.MBTI))
		fmt.Fprintf(&b, "联系方式：%s\n", orMissing(c.Contact))
		fmt.Fprintf(&b, "标签：%s\n", orMissing(strings.Join(c.Tags, "、")))
	}
	return b.String()
}

func orMissing(s string) string {
	if strings.TrimSpace(s) == "" {
		return missingField
	}
	return s
}
