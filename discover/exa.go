// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package discover

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/poiesic/pagewise/retry"
)

// DefaultExaURL is the Exa API base URL.
const DefaultExaURL = "https://api.exa.ai"

const exaDateLayout = "2006-01-02"

// Exa searches the web through the Exa search API.
type Exa struct {
	apiKey      string
	baseURL     string
	client      *http.Client
	maxAttempts int
	retryDelay  time.Duration
}

var _ Searcher = (*Exa)(nil)

// ExaOption configures an Exa client.
type ExaOption func(*Exa) error

// WithBaseURL overrides the API endpoint.
// Default is DefaultExaURL.
func WithBaseURL(url string) ExaOption {
	return func(e *Exa) error {
		e.baseURL = url
		return nil
	}
}

// WithHTTPClient sets the HTTP client.
// Default is a client with a 60s timeout.
func WithHTTPClient(client *http.Client) ExaOption {
	return func(e *Exa) error {
		if client != nil {
			e.client = client
		}
		return nil
	}
}

// WithMaxAttempts sets how many times a failed search is tried.
// Default is retry.DefaultMaxAttempts.
func WithMaxAttempts(n int) ExaOption {
	return func(e *Exa) error {
		if n < 1 {
			return retry.ErrInvalidMaxAttempts
		}
		e.maxAttempts = n
		return nil
	}
}

// WithRetryDelay sets the delay before the first retry. Later retries
// double it.
// Default is retry.DefaultBaseDelay.
func WithRetryDelay(d time.Duration) ExaOption {
	return func(e *Exa) error {
		e.retryDelay = d
		return nil
	}
}

// NewExa creates an Exa client authenticated with apiKey.
func NewExa(apiKey string, opts ...ExaOption) (*Exa, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyRequired
	}
	e := &Exa{
		apiKey:      apiKey,
		baseURL:     DefaultExaURL,
		client:      &http.Client{Timeout: 60 * time.Second},
		maxAttempts: retry.DefaultMaxAttempts,
		retryDelay:  retry.DefaultBaseDelay,
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

type exaContents struct {
	Text bool `json:"text"`
}

type exaSearchRequest struct {
	Query              string      `json:"query"`
	Category           string      `json:"category,omitempty"`
	NumResults         int         `json:"numResults,omitempty"`
	StartPublishedDate string      `json:"startPublishedDate,omitempty"`
	EndPublishedDate   string      `json:"endPublishedDate,omitempty"`
	Contents           exaContents `json:"contents"`
}

type exaResult struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	PublishedDate string `json:"publishedDate"`
	Text          string `json:"text"`
}

type exaSearchResponse struct {
	RequestID   string         `json:"requestId"`
	Results     []exaResult    `json:"results"`
	CostDollars map[string]any `json:"costDollars"`
}

// Search runs query and returns hits with their page text.
// Server errors and rate limits are retried with backoff.
func (e *Exa) Search(ctx context.Context, query Query) (*Results, error) {
	reqBody := exaSearchRequest{
		Query:      query.Text,
		Category:   query.Category,
		NumResults: query.NumResults,
		Contents:   exaContents{Text: true},
	}
	if !query.PublishedAfter.IsZero() {
		reqBody.StartPublishedDate = query.PublishedAfter.UTC().Format(exaDateLayout)
	}
	if !query.PublishedBefore.IsZero() {
		reqBody.EndPublishedDate = query.PublishedBefore.UTC().Format(exaDateLayout)
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var resp exaSearchResponse
	err = retry.WithBackoff(ctx, func(ctx context.Context) error {
		return e.post(ctx, "/search", body, &resp)
	}, e.maxAttempts, e.retryDelay)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}

	results := &Results{
		Hits: make([]Hit, 0, len(resp.Results)),
		Cost: resp.CostDollars,
	}
	for _, r := range resp.Results {
		results.Hits = append(results.Hits, Hit{
			URL:       r.URL,
			Title:     r.Title,
			Author:    r.Author,
			Published: r.PublishedDate,
			Text:      r.Text,
		})
	}
	return results, nil
}

func (e *Exa) post(ctx context.Context, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("exa error (status %d): %s", resp.StatusCode, bytes.TrimSpace(respBody))
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return retry.Permanent(err)
		}
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return retry.Permanent(fmt.Errorf("decode response: %w", err))
	}
	return nil
}
