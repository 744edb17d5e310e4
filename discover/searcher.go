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
	"context"
	"strings"
	"time"

	"github.com/poiesic/pagewise/storage"
)

// Query is one search request.
type Query struct {
	Text       string
	Category   string // empty searches every category
	NumResults int

	// PublishedAfter and PublishedBefore bound the publication date.
	// Zero values leave that side open.
	PublishedAfter  time.Time
	PublishedBefore time.Time
}

// Hit is one search result with its page text.
type Hit struct {
	URL       string
	Title     string
	Author    string
	Published string
	Text      string
}

// Results is the answer to one Query. Cost is the provider's usage report
// and is stored verbatim on every persisted record.
type Results struct {
	Hits []Hit
	Cost map[string]any
}

// Searcher runs web searches that return page contents.
type Searcher interface {
	Search(ctx context.Context, query Query) (*Results, error)
}

// Template turns a topic into a Query.
type Template struct {
	// Prompt contains a {query} placeholder replaced by the topic.
	Prompt     string
	Category   string
	NumResults int

	// Recency limits hits to those published within this long before now.
	// Zero disables the limit.
	Recency time.Duration
}

// DefaultTemplates returns the general, research paper and news templates.
func DefaultTemplates() []Template {
	return []Template{
		{
			Prompt:     "What are the best beginner, intermediate, and advanced resources for learning {query}?",
			NumResults: 8,
		},
		{
			Prompt:     "What are the best research papers for learning {query}?",
			Category:   "research paper",
			NumResults: 2,
		},
		{
			Prompt:     "What is the latest news on {query}?",
			Category:   "news",
			NumResults: 2,
			Recency:    8 * 24 * time.Hour,
		},
	}
}

// Query builds the search request for topic. Dates are whole UTC days.
func (t Template) Query(topic string, now time.Time) Query {
	q := Query{
		Text:       strings.ReplaceAll(t.Prompt, "{query}", topic),
		Category:   t.Category,
		NumResults: t.NumResults,
	}
	if t.Recency > 0 {
		today := storage.Day(now)
		q.PublishedAfter = today.Add(-t.Recency)
		q.PublishedBefore = today
	}
	return q
}
