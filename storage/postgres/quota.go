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
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/poiesic/pagewise/storage"
)

// QuotaRepository keeps daily counters in PostgreSQL.
type QuotaRepository struct {
	db *sql.DB
}

var _ storage.QuotaRepository = (*QuotaRepository)(nil)

// NewQuotaRepository creates a QuotaRepository on db.
func NewQuotaRepository(db *sql.DB) (storage.QuotaRepository, error) {
	if db == nil {
		return nil, ErrDBRequired
	}
	return &QuotaRepository{db: db}, nil
}

// Close is a no-op; the caller owns the database handle.
func (r *QuotaRepository) Close() error {
	return nil
}

// Increment adds n to the counter of key for the UTC day of t.
func (r *QuotaRepository) Increment(ctx context.Context, key string, t time.Time, n int) (int, error) {
	query := `
		INSERT INTO quota_usage (key, day, count)
		VALUES ($1, $2, $3)
		ON CONFLICT (key, day) DO UPDATE
		SET count = quota_usage.count + EXCLUDED.count
		RETURNING count
	`
	var count int
	err := r.db.QueryRowContext(ctx, query, key, storage.Day(t), n).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to increment quota: %w", mapError(err))
	}
	return count, nil
}

// Count returns the counter of key for the UTC day of t.
func (r *QuotaRepository) Count(ctx context.Context, key string, t time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count FROM quota_usage WHERE key = $1 AND day = $2`, key, storage.Day(t)).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get quota: %w", mapError(err))
	}
	return count, nil
}
