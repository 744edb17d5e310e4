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


package postgres

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/poiesic/pagewise/core"
	"github.com/poiesic/pagewise/storage"
)

var sourceColumns = []string{
	"id", "user_id", "workspace_id", "name", "type", "origin", "size",
	"page_count", "pages", "batch_id", "checksum", "usage", "created_at",
}

const selectSources = `SELECT id, user_id, workspace_id, name, type, origin, size,
	page_count, pages, batch_id, checksum, usage, created_at FROM sources`

// SourceRepository stores normalized sources in PostgreSQL.
type SourceRepository struct {
	db *sql.DB
}

var _ storage.SourceRepository = (*SourceRepository)(nil)

// NewSourceRepository creates a SourceRepository on db.
func NewSourceRepository(db *sql.DB) (storage.SourceRepository, error) {
	if db == nil {
		return nil, ErrDBRequired
	}
	return &SourceRepository{db: db}, nil
}

// Close is a no-op; the caller owns the database handle.
func (r *SourceRepository) Close() error {
	return nil
}

// InsertMany reserves ids from the table sequence and bulk loads the
// records with COPY in one transaction.
func (r *SourceRepository) InsertMany(ctx context.Context, records ...*core.SourceRecord) ([]core.ID, error) {
	if len(records) == 0 {
		return nil, nil
	}
	for i, record := range records {
		if record == nil {
			return nil, fmt.Errorf("%w: record %d is nil", storage.ErrInvalidRecord, i)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	ids, err := reserveIDs(ctx, tx, len(records))
	if err != nil {
		return nil, mapError(err)
	}

	now := time.Now().UTC()
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("sources", sourceColumns...))
	if err != nil {
		return nil, err
	}
	for i, record := range records {
		values, err := copyValues(record, ids[i], now)
		if err != nil {
			stmt.Close()
			return nil, err
		}
		if _, err := stmt.ExecContext(ctx, values...); err != nil {
			stmt.Close()
			return nil, mapError(err)
		}
	}
	// An argument-less Exec flushes the COPY buffer
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return nil, mapError(err)
	}
	if err := stmt.Close(); err != nil {
		return nil, mapError(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, mapError(err)
	}

	for i, record := range records {
		record.ID = ids[i]
		if record.CreatedAt.IsZero() {
			record.CreatedAt = now
		}
	}
	return ids, nil
}

func reserveIDs(ctx context.Context, tx *sql.Tx, n int) ([]core.ID, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT nextval(pg_get_serial_sequence('sources', 'id')) FROM generate_series(1, $1)`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]core.ID, 0, n)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, core.ID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) != n {
		return nil, fmt.Errorf("reserved %d ids, want %d", len(ids), n)
	}
	return ids, nil
}

// copyValues returns the COPY row of record in sourceColumns order.
func copyValues(record *core.SourceRecord, id core.ID, now time.Time) ([]any, error) {
	pages, err := storage.MarshalPages(record.Pages)
	if err != nil {
		return nil, err
	}
	var usage any
	if len(record.Usage) > 0 {
		data, err := json.Marshal(record.Usage)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
		}
		usage = string(jsonbSafe(data))
	}
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	return []any{
		int64(id), record.UserID, record.WorkspaceID, textSafe(record.Name), record.Type,
		string(record.Origin), record.Size, record.PageCount, string(jsonbSafe(pages)),
		record.BatchID, record.Checksum, usage, createdAt,
	}, nil
}

// jsonbSafe rewrites every \u0000 escape in encoded JSON as \ufffd.
// PostgreSQL jsonb cannot hold U+0000 and rejects the whole COPY otherwise.
func jsonbSafe(data []byte) []byte {
	const nul, replacement = `\u0000`, `\ufffd`
	if !bytes.Contains(data, []byte(nul)) {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] != '\\' || i+1 == len(data) {
			out = append(out, data[i])
			continue
		}
		if bytes.HasPrefix(data[i:], []byte(nul)) {
			out = append(out, replacement...)
			i += len(nul) - 1
			continue
		}
		// any other escape, including an escaped backslash, is copied whole
		out = append(out, data[i], data[i+1])
		i++
	}
	return out
}

// textSafe replaces NUL characters, which text columns reject.
func textSafe(s string) string {
	return strings.ReplaceAll(s, "\x00", "\uFFFD")
}

// GetSource retrieves a single record by id.
func (r *SourceRepository) GetSource(ctx context.Context, id core.ID) (*core.SourceRecord, error) {
	records, err := r.query(ctx, selectSources+` WHERE id = $1`, int64(id))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, storage.ErrNotFound
	}
	return records[0], nil
}

// GetSources retrieves records by id in the order given, skipping missing ones.
func (r *SourceRepository) GetSources(ctx context.Context, ids ...core.ID) ([]*core.SourceRecord, error) {
	if len(ids) == 0 {
		return []*core.SourceRecord{}, nil
	}
	keys := make([]int64, len(ids))
	for i, id := range ids {
		keys[i] = int64(id)
	}
	records, err := r.query(ctx, selectSources+` WHERE id = ANY($1)`, pq.Array(keys))
	if err != nil {
		return nil, err
	}
	return inOrder(ids, records), nil
}

// FindByBatch returns the records of one batch run, ordered by id.
func (r *SourceRepository) FindByBatch(ctx context.Context, batchID string) ([]*core.SourceRecord, error) {
	return r.query(ctx, selectSources+` WHERE batch_id = $1 ORDER BY id`, batchID)
}

// FindByChecksum returns the records with the given content checksum, ordered by id.
func (r *SourceRepository) FindByChecksum(ctx context.Context, checksum string) ([]*core.SourceRecord, error) {
	return r.query(ctx, selectSources+` WHERE checksum = $1 ORDER BY id`, checksum)
}

func (r *SourceRepository) query(ctx context.Context, query string, args ...any) ([]*core.SourceRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var records []*core.SourceRecord
	for rows.Next() {
		record, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSource(row scanner) (*core.SourceRecord, error) {
	var (
		record core.SourceRecord
		id     int64
		origin string
		pages  []byte
		usage  []byte
	)
	err := row.Scan(&id, &record.UserID, &record.WorkspaceID, &record.Name, &record.Type,
		&origin, &record.Size, &record.PageCount, &pages, &record.BatchID, &record.Checksum,
		&usage, &record.CreatedAt)
	if err != nil {
		return nil, err
	}
	record.ID = core.ID(id)
	record.Origin = core.Origin(origin)
	record.CreatedAt = record.CreatedAt.UTC()

	if record.Pages, err = storage.UnmarshalPages(pages); err != nil {
		return nil, err
	}
	if len(usage) > 0 {
		if err := json.Unmarshal(usage, &record.Usage); err != nil {
			return nil, fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
		}
	}
	return &record, nil
}

// inOrder arranges records to follow ids, dropping ids with no record.
func inOrder(ids []core.ID, records []*core.SourceRecord) []*core.SourceRecord {
	byID := make(map[core.ID]*core.SourceRecord, len(records))
	for _, record := range records {
		byID[record.ID] = record
	}
	out := make([]*core.SourceRecord, 0, len(records))
	for _, id := range ids {
		if record, ok := byID[id]; ok {
			out = append(out, record)
		}
	}
	return out
}

// mapError translates driver errors into storage sentinels.
func mapError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return fmt.Errorf("%w: %s", storage.ErrDuplicateKey, pqErr.Message)
	}
	if errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %w", storage.ErrStorageClosed, err)
	}
	return err
}
