package storage

import (
	"context"
	"time"

	"github.com/poiesic/pagewise/core"
)

// Repository is the lifecycle shared by every store.
type Repository interface {
	// Close releases resources held by the repository.
	Close() error
}

// SourceRepository is the persistence sink for normalized sources.
type SourceRepository interface {
	Repository

	// InsertMany stores records in one bulk write and returns their
	// generated ids in input order. IDs and CreatedAt are set on the
	// records. Either every record is stored or none is.
	InsertMany(ctx context.Context, records ...*core.SourceRecord) ([]core.ID, error)

	// GetSource retrieves a single record by id.
	// Returns ErrNotFound if the record doesn't exist.
	GetSource(ctx context.Context, id core.ID) (*core.SourceRecord, error)

	// GetSources retrieves records by id in the order given.
	// Missing ids are skipped.
	GetSources(ctx context.Context, ids ...core.ID) ([]*core.SourceRecord, error)

	// FindByBatch returns the records persisted by one batch run, ordered by id.
	FindByBatch(ctx context.Context, batchID string) ([]*core.SourceRecord, error)

	// FindByChecksum returns the records whose raw content had checksum,
	// ordered by id.
	FindByChecksum(ctx context.Context, checksum string) ([]*core.SourceRecord, error)
}

// QuotaRepository keeps per-key daily counters.
type QuotaRepository interface {
	Repository

	// Increment adds n to the counter of key for the UTC day containing t
	// and returns the new value.
	Increment(ctx context.Context, key string, t time.Time, n int) (int, error)

	// Count returns the counter of key for the UTC day containing t.
	Count(ctx context.Context, key string, t time.Time) (int, error)
}

// Day truncates t to the start of its UTC day. Quota counters are keyed by it.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
