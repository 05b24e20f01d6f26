// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stats

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisitorCountFlatField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer share-token", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.URL.Query().Get("startAt"))
		assert.NotEmpty(t, r.URL.Query().Get("endAt"))

		fmt.Fprint(w, `{"visitors": 1523}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "share-token")
	count, ok := client.VisitorCount(context.Background())

	assert.True(t, ok)
	assert.Equal(t, 1523, count)
}

func TestVisitorCountWrappedValue(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"pageviews":{"value":9000},"visitors":{"value":321}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	count, ok := client.VisitorCount(context.Background())

	assert.True(t, ok)
	assert.Equal(t, 321, count)
}

func TestVisitorCountKeyPriority(t *testing.T) {
	// "visitors" wins over "count" regardless of object order.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"count": 5, "visitors": 42}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	count, ok := client.VisitorCount(context.Background())

	assert.True(t, ok)
	assert.Equal(t, 42, count)
}

func TestVisitorCountTimeRange(t *testing.T) {
	var gotStart, gotEnd string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotStart = r.URL.Query().Get("startAt")
		gotEnd = r.URL.Query().Get("endAt")
		fmt.Fprint(w, `{"visitors": 1}`)
	}))
	defer server.Close()

	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	client := NewClient(server.URL, "")
	client.now = func() time.Time { return fixed }

	_, ok := client.VisitorCount(context.Background())
	require.True(t, ok)

	start, err := strconv.ParseInt(gotStart, 10, 64)
	require.NoError(t, err)
	end, err := strconv.ParseInt(gotEnd, 10, 64)
	require.NoError(t, err)

	assert.Equal(t, fixed.UnixMilli(), end)
	assert.Equal(t, fixed.Add(-DefaultRange).UnixMilli(), start)
}

func TestVisitorCountPlaceholderOnFailure(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "down", http.StatusBadGateway)
		}},
		{"invalid json", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "garbage")
		}},
		{"no known keys", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"something":"else"}`)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewClient(server.URL, "")
			count, ok := client.VisitorCount(context.Background())

			assert.False(t, ok)
			assert.GreaterOrEqual(t, count, 1000)
			assert.Less(t, count, 2000)
		})
	}
}

func TestVisitorCountUnreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "")
	count, ok := client.VisitorCount(context.Background())

	assert.False(t, ok)
	assert.GreaterOrEqual(t, count, 1000)
	assert.Less(t, count, 2000)
}

func TestVisitorCountNotConfigured(t *testing.T) {
	client := NewClient("", "")
	count, ok := client.VisitorCount(context.Background())

	assert.False(t, ok)
	assert.GreaterOrEqual(t, count, 1000)
	assert.Less(t, count, 2000)
}
