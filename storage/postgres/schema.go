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

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS sources (
	id           BIGSERIAL PRIMARY KEY,
	user_id      TEXT NOT NULL,
	workspace_id TEXT NOT NULL,
	name         TEXT NOT NULL,
	type         TEXT NOT NULL,
	origin       TEXT NOT NULL,
	size         BIGINT NOT NULL DEFAULT 0,
	page_count   INTEGER NOT NULL,
	pages        JSONB NOT NULL,
	batch_id     TEXT NOT NULL DEFAULT '',
	checksum     TEXT NOT NULL DEFAULT '',
	usage        JSONB,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS sources_batch_id_idx ON sources (batch_id);
CREATE INDEX IF NOT EXISTS sources_checksum_idx ON sources (checksum);

CREATE TABLE IF NOT EXISTS quota_usage (
	key   TEXT NOT NULL,
	day   DATE NOT NULL,
	count INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (key, day)
);
`

// Open connects to the database at dsn and creates the schema if needed.
// The caller owns the returned handle.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the sources and quota tables if they don't exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
