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


// Package storage provides the storage abstraction layer for pagewise.
//
// This package defines repository interfaces that decouple the ingestion
// pipeline from the store that keeps its output. SourceRepository is the
// persistence sink the batch coordinator writes to; QuotaRepository keeps
// the daily counters used by discovery admission.
//
// # Backends
//
//   - storage/badger: embedded BadgerDB, also used in memory by tests
//   - storage/postgres: PostgreSQL through lib/pq
//
// Public constructors return the interfaces:
//
//	sources, err := badger.NewSourceRepository(backend)  // storage.SourceRepository
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	sources, err := badger.NewSourceRepository(backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sources.Close()
//
//	ids, err := sources.InsertMany(ctx, records...)
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
