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


package ingestion

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/pagewise/core"
	"github.com/poiesic/pagewise/drive"
	"github.com/poiesic/pagewise/extract"
	"github.com/poiesic/pagewise/storage"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxUploadSize is the per-item size cap.
const DefaultMaxUploadSize = 20 << 20

// Coordinator runs batches of uploads, URLs and drive references through
// the extractors and persists the successful results.
type Coordinator struct {
	registry      *extract.Registry
	web           extract.Extractor
	sink          storage.SourceRepository
	driveClients  drive.ClientFactory
	pool          *ants.Pool
	maxUploadSize int64
	timeout       time.Duration
	monitor       monitors
	logger        *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator) error

// WithPoolSize sets the number of items extracted at once across all groups.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(c *Coordinator) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if c.pool != nil {
			c.pool.Release()
		}
		c.pool = pool
		return nil
	}
}

// WithLogger sets the logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger.With("component", "coordinator")
		return nil
	}
}

// WithMaxUploadSize sets the largest item that is extracted.
// Default is DefaultMaxUploadSize.
func WithMaxUploadSize(n int64) Option {
	return func(c *Coordinator) error {
		if n <= 0 {
			return ErrInvalidMaxUploadSize
		}
		c.maxUploadSize = n
		return nil
	}
}

// WithTimeout bounds a whole run. Items that have not finished when it
// elapses are reported as cancelled. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) error {
		c.timeout = d
		return nil
	}
}

// WithDriveClientFactory enables drive references.
func WithDriveClientFactory(factory drive.ClientFactory) Option {
	return func(c *Coordinator) error {
		c.driveClients = factory
		return nil
	}
}

// WithWebExtractor replaces the extractor used for URLs.
// Default is extract.DefaultWebPage.
func WithWebExtractor(ex extract.Extractor) Option {
	return func(c *Coordinator) error {
		c.web = ex
		return nil
	}
}

// WithMonitor adds monitors that observe every run.
func WithMonitor(m ...Monitor) Option {
	return func(c *Coordinator) error {
		for _, mon := range m {
			if mon != nil {
				c.monitor = append(c.monitor, mon)
			}
		}
		return nil
	}
}

// NewCoordinator creates a coordinator that routes uploads and drive
// files through registry and writes successful results to sink.
func NewCoordinator(registry *extract.Registry, sink storage.SourceRepository, opts ...Option) (*Coordinator, error) {
	if registry == nil {
		return nil, ErrRegistryRequired
	}
	if sink == nil {
		return nil, ErrSinkRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	c := &Coordinator{
		registry:      registry,
		sink:          sink,
		pool:          pool,
		maxUploadSize: DefaultMaxUploadSize,
		logger:        slog.Default().With("component", "coordinator"),
	}
	for _, opt := range opts {
		if optErr := opt(c); optErr != nil {
			c.Release()
			return nil, optErr
		}
	}
	if c.web == nil {
		c.web = extract.DefaultWebPage(extract.DefaultPolicy())
	}
	return c, nil
}

// Run processes one batch. Uploads, URLs and drive references run as
// three concurrent groups sharing the worker pool; every item yields
// exactly one result and failures never abort the batch. Each group's
// successful results are persisted with one bulk write.
//
// Results are ordered uploads first, then URLs, then drive files in
// resolution order, each group in input order.
//
// Run only fails when the batch is malformed, before any extraction.
func (c *Coordinator) Run(ctx context.Context, batch *core.Batch) (*core.BatchReport, error) {
	if err := core.ValidateBatch(batch); err != nil {
		return nil, err
	}

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	report := &core.BatchReport{BatchID: uuid.NewString()}
	logger := c.logger.With("batch_id", report.BatchID)
	logger.Info("batch started",
		"uploads", len(batch.Uploads), "urls", len(batch.URLs), "drive_ids", len(batch.DriveIDs))

	var uploads, urls, drives []core.ExtractionResult
	var g errgroup.Group
	g.Go(func() error {
		uploads = c.runGroup(ctx, runCtx, core.OriginUpload, batch, report.BatchID, c.uploadTasks(batch.Uploads))
		return nil
	})
	g.Go(func() error {
		urls = c.runGroup(ctx, runCtx, core.OriginURL, batch, report.BatchID, c.urlTasks(batch.URLs))
		return nil
	})
	g.Go(func() error {
		tasks := c.driveTasks(runCtx, batch.DriveIDs, batch.DriveToken)
		drives = c.runGroup(ctx, runCtx, core.OriginDrive, batch, report.BatchID, tasks)
		return nil
	})
	_ = g.Wait()

	report.Results = make([]core.ExtractionResult, 0, len(uploads)+len(urls)+len(drives))
	report.Results = append(report.Results, uploads...)
	report.Results = append(report.Results, urls...)
	report.Results = append(report.Results, drives...)

	logger.Info("batch finished", "succeeded", report.Succeeded(), "failed", report.Failed())
	c.monitor.Finished(report)
	return report, nil
}

// runGroup extracts the tasks of one group and persists its successes.
// Persistence uses the caller's context so results that finished before
// the run timeout are still stored.
func (c *Coordinator) runGroup(ctx, runCtx context.Context, origin core.Origin, batch *core.Batch, batchID string, tasks []task) []core.ExtractionResult {
	if len(tasks) == 0 {
		return nil
	}
	c.monitor.ItemsQueued(origin, len(tasks))
	results := c.collect(runCtx, origin, tasks)
	c.persist(ctx, origin, batch.Owner, batchID, results)
	return results
}

// Release releases the worker pool.
// The coordinator should not be used after calling Release.
func (c *Coordinator) Release() {
	if c.pool != nil {
		c.pool.Release()
	}
}
