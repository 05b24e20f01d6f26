// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchCandidatesBareArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat-assistant", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req.SessionID)
		assert.Equal(t, []string{"想找一起跑步的"}, req.Messages)

		fmt.Fprint(w, `[{"name":"小李","description":"爱跑步","mbti":"ENFP","contact":"wx: xiaoli","tags":["跑步","早起"]}]`)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	candidates, err := client.SearchCandidates(context.Background(), []string{"想找一起跑步的"})

	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "小李", candidates[0].Name)
	assert.Equal(t, "ENFP", candidates[0].MBTI)
}

func TestSearchCandidatesEnvelopes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"data wrapper", `{"data":[{"name":"a"},{"name":"b"}]}`, 2},
		{"people wrapper", `{"people":[{"name":"a"}]}`, 1},
		{"empty data", `{"data":[]}`, 0},
		{"unknown object", `{"status":"ok"}`, 0},
		{"empty array", `[]`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			client := NewClient(server.URL)
			candidates, err := client.SearchCandidates(context.Background(), nil)

			require.NoError(t, err)
			assert.Len(t, candidates, tt.want)
		})
	}
}

func TestSearchCandidatesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.SearchCandidates(context.Background(), nil)
	assert.ErrorContains(t, err, "HTTP 500")
}

func TestSearchCandidatesInvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not json at all")
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.SearchCandidates(context.Background(), nil)
	assert.ErrorContains(t, err, "decode")
}

func TestSearchCandidatesNotConfigured(t *testing.T) {
	client := NewClient("")
	_, err := client.SearchCandidates(context.Background(), nil)
	assert.Error(t, err)
}

func TestSessionIDStablePerClient(t *testing.T) {
	client := NewClient("http://localhost:1")
	assert.NotEmpty(t, client.SessionID())
	assert.Equal(t, client.SessionID(), client.SessionID())
	assert.NotEqual(t, client.SessionID(), NewClient("http://localhost:1").SessionID())
}

func TestCheckHealthOnline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	assert.NoError(t, client.CheckHealth(context.Background()))
}

func TestCheckHealthOffline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	assert.ErrorIs(t, client.CheckHealth(context.Background()), ErrOffline)
}

func TestCheckHealthUnreachable(t *testing.T) {
	// Nothing listens on this port.
	client := NewClient("http://127.0.0.1:1")
	assert.ErrorIs(t, client.CheckHealth(context.Background()), ErrOffline)
}

func TestFormatCandidates(t *testing.T) {
	out := FormatCandidates([]Candidate{
		{Name: "小李", Description: "爱跑步", MBTI: "ENFP", Contact: "wx: xiaoli", Tags: []string{"跑步", "早起"}},
		{Name: "小王"},
	})

	assert.Contains(t, out, "👤 **搭子 1**")
	assert.Contains(t, out, "👤 **搭子 2**")
	assert.Contains(t, out, "姓名：小李")
	assert.Contains(t, out, "标签：跑步、早起")

	// Missing fields fall back to the placeholder
	assert.Contains(t, out, "描述：未提供")
	assert.Contains(t, out, "MBTI：未提供")
	assert.Contains(t, out, "联系方式：未提供")
}

func TestFormatCandidatesEmpty(t *testing.T) {
	out := FormatCandidates(nil)
	assert.Contains(t, out, "没有找到")
}
