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
	"fmt"
	"time"

	"github.com/poiesic/pagewise/core"
	"github.com/poiesic/pagewise/storage"
)

// Key prefixes for different data types
const (
	sourcePrefix         = "src:"
	sourceBatchPrefix    = "srcbat:"
	sourceChecksumPrefix = "srcsum:"
	sourceIDSeq          = "srcseq"
	quotaPrefix          = "quota:"
)

// makeSourceKey generates a key for a source record by ID.
// Format: prefix + big-endian id, so a prefix scan walks records in id order.
func makeSourceKey(id core.ID) []byte {
	return append([]byte(sourcePrefix), storage.MarshalID(id)...)
}

// makeSourceBatchKey generates a composite key for the batch index.
// Format: prefix:batchID:id
func makeSourceBatchKey(batchID string, id core.ID) []byte {
	return append(makePartialSourceBatchKey(batchID), storage.MarshalID(id)...)
}

// makePartialSourceBatchKey generates the scan prefix for one batch.
func makePartialSourceBatchKey(batchID string) []byte {
	return []byte(sourceBatchPrefix + batchID + ":")
}

// makeSourceChecksumKey generates a composite key for the checksum index.
// Format: prefix:checksum:id
func makeSourceChecksumKey(checksum string, id core.ID) []byte {
	return append(makePartialSourceChecksumKey(checksum), storage.MarshalID(id)...)
}

// makePartialSourceChecksumKey generates the scan prefix for one checksum.
func makePartialSourceChecksumKey(checksum string) []byte {
	return []byte(sourceChecksumPrefix + checksum + ":")
}

// makeQuotaKey generates the counter key of key on the UTC day of t.
// Format: prefix:key:YYYY-MM-DD
func makeQuotaKey(key string, t time.Time) []byte {
	return []byte(fmt.Sprintf("%s%s:%s", quotaPrefix, key, storage.Day(t).Format(time.DateOnly)))
}
