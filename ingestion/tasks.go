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
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/pagewise/core"
	"github.com/poiesic/pagewise/drive"
	"github.com/poiesic/pagewise/extract"
)

const driveFailedPrefix = "Failed to process Google Drive files"

// task is one batch item. Items rejected before extraction carry their
// result and never reach the worker pool.
type task struct {
	name       string
	sourceType string
	size       int64
	result     *core.ExtractionResult
	run        func(ctx context.Context) core.ExtractionResult
}

// stamp fills the fields every result of the task carries.
func (t *task) stamp(result *core.ExtractionResult, origin core.Origin) {
	result.Origin = origin
	result.SourceType = t.sourceType
	if result.Size == 0 {
		result.Size = t.size
	}
}

func rejected(name string, err error) *core.ExtractionResult {
	result := core.NewErrorResult(name, err)
	return &result
}

func cancelled(err error) error {
	return fmt.Errorf("%w: %w", core.ErrCancelled, err)
}

// uploadTasks sniffs, size-checks and routes each upload.
func (c *Coordinator) uploadTasks(uploads []core.Upload) []task {
	tasks := make([]task, len(uploads))
	for i, upload := range uploads {
		contentType := core.DetectContentType(upload.Filename, upload.ContentType, upload.Content)
		t := task{
			name:       upload.Filename,
			sourceType: core.SourceType(contentType, upload.Filename),
			size:       int64(len(upload.Content)),
		}

		ex, err := c.registry.Lookup(contentType)
		switch {
		case t.size > c.maxUploadSize:
			t.result = rejected(t.name, core.SizeLimitError(c.maxUploadSize))
		case err != nil:
			t.result = rejected(t.name, core.ErrUnsupportedType)
		default:
			content, name := upload.Content, upload.Filename
			t.run = func(ctx context.Context) core.ExtractionResult {
				result := extract.Process(ctx, ex, content, name)
				if !result.Failed() {
					result.Checksum = core.Checksum(content)
				}
				return result
			}
		}
		tasks[i] = t
	}
	return tasks
}

// urlTasks routes every URL to the web-page extractor.
func (c *Coordinator) urlTasks(urls []string) []task {
	tasks := make([]task, len(urls))
	for i, raw := range urls {
		target := strings.TrimSpace(raw)
		tasks[i] = task{
			name:       target,
			sourceType: "url",
			run: func(ctx context.Context) core.ExtractionResult {
				return extract.Process(ctx, c.web, []byte(target), target)
			},
		}
	}
	return tasks
}

// driveTasks resolves the drive references and routes each leaf by its
// drive reported mime type. Resolution failures become rejected tasks.
func (c *Coordinator) driveTasks(ctx context.Context, ids []string, token string) []task {
	if len(ids) == 0 {
		return nil
	}

	resolver, err := c.newResolver(ctx, token)
	if err != nil {
		c.logger.Error("drive access failed", "error", err)
		failure := core.Tag(core.ErrResolverFailure, fmt.Errorf("%s: %w", driveFailedPrefix, err))
		tasks := make([]task, len(ids))
		for i, id := range ids {
			tasks[i] = task{name: id, sourceType: "drive", result: rejected(id, failure)}
		}
		return tasks
	}

	entries := resolver.Resolve(ctx, ids)
	tasks := make([]task, len(entries))
	for i, entry := range entries {
		t := task{name: entry.DisplayName(), sourceType: "drive", size: entry.Size}
		if entry.Err != nil {
			t.result = rejected(t.name, entry.Err)
			tasks[i] = t
			continue
		}

		ex, err := c.registry.Lookup(entry.MimeType)
		if err != nil {
			t.result = rejected(t.name, core.UnsupportedTypeError(entry.MimeType))
			tasks[i] = t
			continue
		}

		name := t.name
		t.run = func(ctx context.Context) core.ExtractionResult {
			content, err := resolver.Fetch(ctx, entry)
			if err != nil {
				return core.NewErrorResult(name, err)
			}
			result := extract.Process(ctx, ex, content, name)
			result.Size = int64(len(content))
			if !result.Failed() {
				result.Checksum = core.Checksum(content)
			}
			return result
		}
		tasks[i] = t
	}
	return tasks
}

func (c *Coordinator) newResolver(ctx context.Context, token string) (*drive.Resolver, error) {
	if c.driveClients == nil {
		return nil, ErrDriveNotConfigured
	}
	client, err := c.driveClients(ctx, token)
	if err != nil {
		return nil, err
	}
	return drive.NewResolver(client, drive.WithMaxSize(c.maxUploadSize), drive.WithLogger(c.logger))
}

// finished is a task result reported by a worker.
type finished struct {
	index   int
	result  core.ExtractionResult
	elapsed time.Duration
}

// collect runs tasks on the pool and gathers their results by position.
// When ctx ends first, unfinished tasks are reported as cancelled and
// their late results are dropped.
func (c *Coordinator) collect(ctx context.Context, origin core.Origin, tasks []task) []core.ExtractionResult {
	results := make([]core.ExtractionResult, len(tasks))
	done := make([]bool, len(tasks))

	pending := 0
	for i := range tasks {
		if tasks[i].result != nil {
			c.finish(origin, &tasks[i], &results[i], *tasks[i].result, 0)
			done[i] = true
			continue
		}
		pending++
	}
	if pending == 0 {
		return results
	}

	// Buffered for every task so late workers never block
	ch := make(chan finished, len(tasks))
	go c.submit(ctx, tasks, ch)

	for pending > 0 {
		select {
		case f := <-ch:
			c.finish(origin, &tasks[f.index], &results[f.index], f.result, f.elapsed)
			done[f.index] = true
			pending--
		case <-ctx.Done():
			c.drain(origin, tasks, results, done, ch)
			unfinished := 0
			for i := range tasks {
				if !done[i] {
					c.finish(origin, &tasks[i], &results[i], core.NewErrorResult(tasks[i].name, cancelled(ctx.Err())), 0)
					unfinished++
				}
			}
			c.logger.Warn("group cancelled", "origin", origin, "unfinished", unfinished)
			return results
		}
	}
	return results
}

// drain takes results that arrived together with the cancellation.
func (c *Coordinator) drain(origin core.Origin, tasks []task, results []core.ExtractionResult, done []bool, ch <-chan finished) {
	for {
		select {
		case f := <-ch:
			c.finish(origin, &tasks[f.index], &results[f.index], f.result, f.elapsed)
			done[f.index] = true
		default:
			return
		}
	}
}

func (c *Coordinator) submit(ctx context.Context, tasks []task, ch chan<- finished) {
	for i := range tasks {
		if tasks[i].result != nil {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		index, t := i, tasks[i]
		err := c.pool.Submit(func() {
			start := time.Now()
			var result core.ExtractionResult
			if err := ctx.Err(); err != nil {
				result = core.NewErrorResult(t.name, cancelled(err))
			} else {
				result = t.run(ctx)
			}
			ch <- finished{index: index, result: result, elapsed: time.Since(start)}
		})
		if err != nil {
			ch <- finished{index: index, result: core.NewErrorResult(t.name, err)}
		}
	}
}

func (c *Coordinator) finish(origin core.Origin, t *task, slot *core.ExtractionResult, result core.ExtractionResult, elapsed time.Duration) {
	t.stamp(&result, origin)
	*slot = result
	if result.Failed() {
		c.logger.Warn("item failed", "origin", origin, "name", result.Filename, "kind", result.ErrorKind, "error", result.Error)
	} else {
		c.logger.Debug("item extracted", "origin", origin, "name", result.Filename, "pages", result.PageCount, "elapsed", elapsed)
	}
	c.monitor.ItemFinished(origin, slot, elapsed)
}
