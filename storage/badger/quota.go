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
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/pagewise/storage"
)

// QuotaRepository keeps daily counters in BadgerDB.
type QuotaRepository struct {
	backend *Backend
}

var _ storage.QuotaRepository = (*QuotaRepository)(nil)

// NewQuotaRepository creates a QuotaRepository on backend.
func NewQuotaRepository(backend *Backend) storage.QuotaRepository {
	return &QuotaRepository{
		backend: backend,
	}
}

// Close is a no-op; the backend owns the database.
func (r *QuotaRepository) Close() error {
	return nil
}

// Increment adds n to the counter of key for the UTC day of t.
// Concurrent increments that conflict are retried.
func (r *QuotaRepository) Increment(ctx context.Context, key string, t time.Time, n int) (int, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		var count int
		err := r.backend.WithTx(func(tx *badger.Txn) error {
			k := makeQuotaKey(key, t)
			current, err := readCount(tx, k)
			if err != nil {
				return err
			}
			count = current + n
			if err := tx.Set(k, storage.MarshalCount(count)); err != nil {
				return err
			}
			return tx.Commit()
		}, true)
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		return count, err
	}
}

// Count returns the counter of key for the UTC day of t.
func (r *QuotaRepository) Count(ctx context.Context, key string, t time.Time) (int, error) {
	var count int
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		count, err = readCount(tx, makeQuotaKey(key, t))
		return err
	}, false)
	return count, err
}

func readCount(tx *badger.Txn, key []byte) (int, error) {
	item, err := tx.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var count int
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		count, unmarshalErr = storage.UnmarshalCount(val)
		return unmarshalErr
	})
	return count, err
}
