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
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/pagewise/core"
	"github.com/poiesic/pagewise/extract"
	"github.com/poiesic/pagewise/storage"
)

// SourceType is the type tag of discovered records.
const SourceType = "discovered"

// Batch is the outcome of one query template.
type Batch struct {
	core.BatchReport

	Query string         `json:"query"`
	Cost  map[string]any `json:"usage,omitempty"`
	Error string         `json:"error,omitempty"`
}

// Report is the outcome of one Discover call, one batch per template in
// template order.
type Report struct {
	Topic   string  `json:"topic"`
	Batches []Batch `json:"batches"`
}

// Discoverer finds and stores web sources for a topic.
type Discoverer struct {
	searcher  Searcher
	sink      storage.SourceRepository
	admission AdmissionCheck
	templates []Template
	text      *extract.Text
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Discoverer.
type Option func(*Discoverer) error

// WithAdmission sets the check run before every discovery.
// Default is AllowAll.
func WithAdmission(check AdmissionCheck) Option {
	return func(d *Discoverer) error {
		if check == nil {
			check = AllowAll{}
		}
		d.admission = check
		return nil
	}
}

// WithTemplates replaces the query templates.
// Default is DefaultTemplates().
func WithTemplates(templates ...Template) Option {
	return func(d *Discoverer) error {
		if len(templates) == 0 {
			return ErrNoTemplates
		}
		d.templates = templates
		return nil
	}
}

// WithPolicy sets the chunking policy for hit text.
// Default is extract.DefaultPolicy().
func WithPolicy(policy extract.Policy) Option {
	return func(d *Discoverer) error {
		d.text = extract.NewText(policy)
		return nil
	}
}

// WithLogger sets the logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Discoverer) error {
		if logger == nil {
			logger = slog.Default()
		}
		d.logger = logger.With("component", "discoverer")
		return nil
	}
}

// WithClock sets the time source used for recency windows.
func WithClock(now func() time.Time) Option {
	return func(d *Discoverer) error {
		if now != nil {
			d.now = now
		}
		return nil
	}
}

// NewDiscoverer creates a Discoverer that searches with searcher and
// writes hits to sink.
func NewDiscoverer(searcher Searcher, sink storage.SourceRepository, opts ...Option) (*Discoverer, error) {
	if searcher == nil {
		return nil, ErrSearcherRequired
	}
	if sink == nil {
		return nil, ErrSinkRequired
	}
	d := &Discoverer{
		searcher:  searcher,
		sink:      sink,
		admission: AllowAll{},
		templates: DefaultTemplates(),
		text:      extract.NewText(extract.DefaultPolicy()),
		now:       time.Now,
		logger:    slog.Default().With("component", "discoverer"),
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Discover runs every template for topic on behalf of owner. A failed
// search is recorded on its batch and does not stop the others.
//
// Discover fails only when the request is malformed or rejected by the
// admission check, in which case nothing is searched.
func (d *Discoverer) Discover(ctx context.Context, owner core.Owner, topic string) (*Report, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrTopicRequired
	}
	if owner.UserID == "" {
		return nil, ErrOwnerRequired
	}
	if err := d.admission.Admit(ctx, owner); err != nil {
		d.logger.Info("discovery rejected", "user_id", owner.UserID, "error", err)
		return nil, err
	}

	now := d.now()
	report := &Report{Topic: topic, Batches: make([]Batch, 0, len(d.templates))}
	for _, tmpl := range d.templates {
		report.Batches = append(report.Batches, d.run(ctx, owner, tmpl.Query(topic, now)))
	}
	return report, nil
}

func (d *Discoverer) run(ctx context.Context, owner core.Owner, query Query) Batch {
	batch := Batch{
		BatchReport: core.BatchReport{BatchID: uuid.NewString(), Results: []core.ExtractionResult{}},
		Query:       query.Text,
	}
	logger := d.logger.With("batch_id", batch.BatchID, "category", query.Category)

	start := time.Now()
	found, err := d.searcher.Search(ctx, query)
	if err != nil {
		logger.Error("search failed", "error", err)
		batch.Error = err.Error()
		return batch
	}
	batch.Cost = found.Cost

	for _, hit := range found.Hits {
		batch.Results = append(batch.Results, d.convert(ctx, hit))
	}
	d.persist(ctx, logger, owner, &batch)
	logger.Info("discovery batch finished",
		"hits", len(found.Hits), "failed", batch.Failed(), "duration", time.Since(start))
	return batch
}

// convert chunks a hit's text into pages. The first page carries the hit's
// url, title and publication date.
func (d *Discoverer) convert(ctx context.Context, hit Hit) core.ExtractionResult {
	name := hit.Title
	if name == "" {
		name = hit.URL
	}

	result := extract.Process(ctx, d.text, []byte(hit.Text), name)
	result.Origin = core.OriginDiscovered
	result.SourceType = SourceType
	if result.Failed() {
		return result
	}

	first := &result.Pages[0]
	first.SetMetadata("url", hit.URL)
	first.SetMetadata("title", hit.Title)
	if hit.Published != "" {
		first.SetMetadata("published", hit.Published)
	}
	if hit.Author != "" {
		first.SetMetadata("author", hit.Author)
	}
	result.Size = int64(len(hit.Text))
	result.Checksum = core.Checksum([]byte(hit.Text))
	return result
}

// persist writes the batch's successful results with one bulk insert.
func (d *Discoverer) persist(ctx context.Context, logger *slog.Logger, owner core.Owner, batch *Batch) {
	var (
		indexes []int
		records []*core.SourceRecord
	)
	for i := range batch.Results {
		if batch.Results[i].Failed() {
			continue
		}
		record := core.NewSourceRecord(owner, batch.BatchID, &batch.Results[i])
		record.Usage = batch.Cost
		indexes = append(indexes, i)
		records = append(records, record)
	}
	if len(records) == 0 {
		return
	}

	ids, err := d.sink.InsertMany(ctx, records...)
	if err == nil && len(ids) != len(records) {
		err = fmt.Errorf("sink returned %d ids for %d records", len(ids), len(records))
	}
	if err != nil {
		logger.Error("failed to persist discovered sources", "records", len(records), "error", err)
		for _, i := range indexes {
			batch.Results[i].PersistError = err.Error()
		}
		return
	}
	for k, i := range indexes {
		batch.Results[i].ID = ids[k]
	}
}
