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

package drive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/pagewise/core"
)

// DefaultMaxSize is the download cap used when none is configured.
const DefaultMaxSize = 20 << 20

const (
	resolveFailedPrefix  = "Failed to resolve drive file"
	listFailedPrefix     = "Failed to list drive folder"
	downloadFailedPrefix = "Failed to download drive file"
)

// Entry is one resolved leaf, or the error that stopped resolution of a
// reference or a folder branch.
type Entry struct {
	FileID   string
	Name     string
	MimeType string
	Size     int64
	Err      error
}

// DisplayName returns the name to report for the entry, falling back to
// its id when the name is unknown.
func (e *Entry) DisplayName() string {
	if e.Name != "" {
		return e.Name
	}
	return e.FileID
}

// Resolver expands drive references into leaf files.
type Resolver struct {
	client  Client
	maxSize int64
	logger  *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver) error

// WithMaxSize sets the largest file Fetch will download.
func WithMaxSize(n int64) Option {
	return func(r *Resolver) error {
		if n <= 0 {
			return ErrInvalidMaxSize
		}
		r.maxSize = n
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) error {
		r.logger = logger.With("component", "drive-resolver")
		return nil
	}
}

// NewResolver creates a resolver over client.
func NewResolver(client Client, opts ...Option) (*Resolver, error) {
	if client == nil {
		return nil, ErrClientRequired
	}
	r := &Resolver{
		client:  client,
		maxSize: DefaultMaxSize,
		logger:  slog.Default().With("component", "drive-resolver"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Resolve expands ids into leaf entries, depth-first in input order.
// Folders are listed page by page until the listing is exhausted.
// A failure on one reference or branch becomes an error entry and the
// remaining siblings are still resolved. Every id yields at least one
// entry unless it is an empty folder.
func (r *Resolver) Resolve(ctx context.Context, ids []string) []Entry {
	var entries []Entry
	visited := make(map[string]bool)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			entries = append(entries, Entry{FileID: id, Err: cancelled(err)})
			continue
		}
		file, err := r.client.GetFile(ctx, id)
		if err != nil {
			r.logger.Warn("drive reference failed", "file_id", id, "error", err)
			entries = append(entries, Entry{FileID: id, Err: resolverError(resolveFailedPrefix, id, err)})
			continue
		}
		entries = r.walk(ctx, file, visited, entries)
	}
	return entries
}

// walk appends the leaves under file to entries.
func (r *Resolver) walk(ctx context.Context, file *File, visited map[string]bool, entries []Entry) []Entry {
	if !file.IsFolder() {
		return append(entries, Entry{FileID: file.ID, Name: file.Name, MimeType: file.MimeType, Size: file.Size})
	}
	// A file may have several parents, so the same folder can be reached twice
	if visited[file.ID] {
		return entries
	}
	visited[file.ID] = true

	pageToken := ""
	for {
		if err := ctx.Err(); err != nil {
			return append(entries, Entry{FileID: file.ID, Name: file.Name, MimeType: file.MimeType, Err: cancelled(err)})
		}
		children, next, err := r.client.ListChildren(ctx, file.ID, pageToken)
		if err != nil {
			r.logger.Warn("drive folder listing failed", "folder_id", file.ID, "error", err)
			return append(entries, Entry{
				FileID:   file.ID,
				Name:     file.Name,
				MimeType: file.MimeType,
				Err:      resolverError(listFailedPrefix, file.DisplayName(), err),
			})
		}
		for i := range children {
			entries = r.walk(ctx, &children[i], visited, entries)
		}
		if next == "" {
			return entries
		}
		pageToken = next
	}
}

// Fetch downloads the content of a resolved leaf. Files larger than the
// configured cap fail with a size-limit error without being read in full.
func (r *Resolver) Fetch(ctx context.Context, entry Entry) ([]byte, error) {
	if entry.Err != nil {
		return nil, entry.Err
	}
	if entry.MimeType == FolderMimeType {
		return nil, ErrFolderDownload
	}
	if entry.Size > r.maxSize {
		return nil, core.SizeLimitError(r.maxSize)
	}

	content, err := r.client.Download(ctx, entry.FileID, r.maxSize)
	switch {
	case err == nil:
		return content, nil
	case errors.Is(err, core.ErrSizeLimitExceeded):
		return nil, core.SizeLimitError(r.maxSize)
	case ctx.Err() != nil:
		return nil, cancelled(ctx.Err())
	default:
		return nil, resolverError(downloadFailedPrefix, entry.DisplayName(), err)
	}
}

// MaxSize returns the download cap.
func (r *Resolver) MaxSize() int64 {
	return r.maxSize
}

func resolverError(prefix, subject string, err error) error {
	return core.Tag(core.ErrResolverFailure, fmt.Errorf("%s %s: %w", prefix, subject, err))
}

func cancelled(err error) error {
	return fmt.Errorf("%w: %w", core.ErrCancelled, err)
}
