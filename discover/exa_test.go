package discover

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExaSearch(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"requestId": "r1",
			"results": [
				{"id": "1", "url": "https://a.example", "title": "A", "author": "Ada", "publishedDate": "2025-03-09T00:00:00.000Z", "text": "alpha"}
			],
			"costDollars": {"total": 0.006}
		}`))
	}))
	defer server.Close()

	exa, err := NewExa("secret", WithBaseURL(server.URL))
	require.NoError(t, err)

	results, err := exa.Search(context.Background(), Query{
		Text:            "news on go",
		Category:        "news",
		NumResults:      2,
		PublishedAfter:  time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
		PublishedBefore: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, "news on go", got["query"])
	assert.Equal(t, "news", got["category"])
	assert.Equal(t, float64(2), got["numResults"])
	assert.Equal(t, "2025-03-02", got["startPublishedDate"])
	assert.Equal(t, "2025-03-10", got["endPublishedDate"])
	assert.Equal(t, map[string]any{"text": true}, got["contents"])

	require.Len(t, results.Hits, 1)
	assert.Equal(t, Hit{
		URL:       "https://a.example",
		Title:     "A",
		Author:    "Ada",
		Published: "2025-03-09T00:00:00.000Z",
		Text:      "alpha",
	}, results.Hits[0])
	assert.Equal(t, 0.006, results.Cost["total"])
}

func TestExaSearch_OmitsOpenFields(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	defer server.Close()

	exa, err := NewExa("secret", WithBaseURL(server.URL))
	require.NoError(t, err)

	results, err := exa.Search(context.Background(), Query{Text: "go", NumResults: 8})
	require.NoError(t, err)
	assert.Empty(t, results.Hits)
	assert.NotContains(t, got, "category")
	assert.NotContains(t, got, "startPublishedDate")
	assert.NotContains(t, got, "endPublishedDate")
}

func TestExaSearch_Retries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"results": [{"url": "https://a.example", "text": "a"}]}`))
	}))
	defer server.Close()

	exa, err := NewExa("secret", WithBaseURL(server.URL), WithRetryDelay(time.Millisecond))
	require.NoError(t, err)

	results, err := exa.Search(context.Background(), Query{Text: "go"})
	require.NoError(t, err)
	assert.Len(t, results.Hits, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestExaSearch_ClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer server.Close()

	exa, err := NewExa("wrong", WithBaseURL(server.URL), WithRetryDelay(time.Millisecond))
	require.NoError(t, err)

	_, err = exa.Search(context.Background(), Query{Text: "go"})
	require.ErrorIs(t, err, ErrSearchFailed)
	assert.Contains(t, err.Error(), "status 401")
	assert.Contains(t, err.Error(), "bad key")
	assert.Equal(t, int32(1), calls.Load())
}

func TestNewExa_Validation(t *testing.T) {
	_, err := NewExa("")
	assert.ErrorIs(t, err, ErrAPIKeyRequired)

	_, err = NewExa("k", WithMaxAttempts(0))
	assert.Error(t, err)
}
