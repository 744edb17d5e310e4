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


package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/pagewise/core"
	"github.com/poiesic/pagewise/storage"
)

// SourceRepository stores normalized sources in BadgerDB.
type SourceRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.SourceRepository = (*SourceRepository)(nil)

// NewSourceRepository creates a SourceRepository on backend.
func NewSourceRepository(backend *Backend) (storage.SourceRepository, error) {
	return newSourceRepository(backend)
}

func newSourceRepository(backend *Backend) (*SourceRepository, error) {
	idSeq, err := backend.GetSequence(sourceIDSeq)
	if err != nil {
		return nil, err
	}
	return &SourceRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the id sequence. The backend stays open.
func (r *SourceRepository) Close() error {
	return r.idSeq.Release()
}

// InsertMany stores records in one transaction.
func (r *SourceRepository) InsertMany(ctx context.Context, records ...*core.SourceRecord) ([]core.ID, error) {
	if len(records) == 0 {
		return nil, nil
	}
	for i, record := range records {
		if record == nil {
			return nil, fmt.Errorf("%w: record %d is nil", storage.ErrInvalidRecord, i)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids := make([]core.ID, len(records))
	now := time.Now().UTC()
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for i, record := range records {
			next, err := nextID(r.idSeq)
			if err != nil {
				return err
			}
			ids[i] = core.ID(next)
			if err := writeSource(tx, record, ids[i], now); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	// Only publish ids once the write is durable
	for i, record := range records {
		record.ID = ids[i]
		if record.CreatedAt.IsZero() {
			record.CreatedAt = now
		}
	}
	return ids, nil
}

func writeSource(tx *badger.Txn, record *core.SourceRecord, id core.ID, now time.Time) error {
	stored := *record
	stored.ID = id
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}

	value, err := storage.MarshalSourceRecord(&stored)
	if err != nil {
		return err
	}
	if err := tx.Set(makeSourceKey(id), value); err != nil {
		return err
	}
	if stored.BatchID != "" {
		if err := tx.Set(makeSourceBatchKey(stored.BatchID, id), nil); err != nil {
			return err
		}
	}
	if stored.Checksum != "" {
		if err := tx.Set(makeSourceChecksumKey(stored.Checksum, id), nil); err != nil {
			return err
		}
	}
	return nil
}

// GetSource retrieves a single record by id.
func (r *SourceRepository) GetSource(ctx context.Context, id core.ID) (*core.SourceRecord, error) {
	var result *core.SourceRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readSource(tx, id)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetSources retrieves records by id, skipping missing ones.
func (r *SourceRepository) GetSources(ctx context.Context, ids ...core.ID) ([]*core.SourceRecord, error) {
	results := make([]*core.SourceRecord, 0, len(ids))
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			record, err := readSource(tx, id)
			if err != nil {
				return err
			}
			if record != nil {
				results = append(results, record)
			}
		}
		return nil
	}, false)
	return results, err
}

// FindByBatch returns the records of one batch run, ordered by id.
func (r *SourceRepository) FindByBatch(ctx context.Context, batchID string) ([]*core.SourceRecord, error) {
	return r.findByIndex(makePartialSourceBatchKey(batchID))
}

// FindByChecksum returns the records with the given content checksum, ordered by id.
func (r *SourceRepository) FindByChecksum(ctx context.Context, checksum string) ([]*core.SourceRecord, error) {
	return r.findByIndex(makePartialSourceChecksumKey(checksum))
}

// findByIndex walks index keys under prefix; each key ends in a record id.
func (r *SourceRepository) findByIndex(prefix []byte) ([]*core.SourceRecord, error) {
	var results []*core.SourceRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			id, err := storage.UnmarshalID(key[len(prefix):])
			if err != nil {
				return err
			}
			record, err := readSource(tx, id)
			if err != nil {
				return err
			}
			if record != nil {
				results = append(results, record)
			}
		}
		return nil
	}, false)
	return results, err
}

// readSource returns nil, nil when the record doesn't exist.
func readSource(tx *badger.Txn, id core.ID) (*core.SourceRecord, error) {
	item, err := tx.Get(makeSourceKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var record *core.SourceRecord
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalSourceRecord(val)
		return unmarshalErr
	})
	return record, err
}
