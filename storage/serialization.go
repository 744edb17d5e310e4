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

package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/poiesic/pagewise/core"
)

// MarshalID serializes an ID to 8 big-endian bytes, so encoded ids sort
// in numeric order.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(id))
	return buf
}

// UnmarshalID decodes an ID written by MarshalID.
func UnmarshalID(data []byte) (core.ID, error) {
	if len(data) < 8 {
		return 0, ErrTruncatedData
	}
	return core.ID(binary.BigEndian.Uint64(data)), nil
}

// MarshalCount serializes a counter value.
func MarshalCount(n int) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(n))
	return buf
}

// UnmarshalCount decodes a counter written by MarshalCount.
func UnmarshalCount(data []byte) (int, error) {
	if len(data) < 8 {
		return 0, ErrTruncatedData
	}
	return int(binary.BigEndian.Uint64(data)), nil
}

// MarshalSourceRecord serializes a SourceRecord to JSON.
func MarshalSourceRecord(record *core.SourceRecord) ([]byte, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalSourceRecord decodes a SourceRecord written by MarshalSourceRecord.
func UnmarshalSourceRecord(data []byte) (*core.SourceRecord, error) {
	var record core.SourceRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &record, nil
}

// MarshalPages serializes the pages column of a record.
func MarshalPages(pages []core.Page) ([]byte, error) {
	if pages == nil {
		pages = []core.Page{}
	}
	data, err := json.Marshal(pages)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalPages decodes a pages column written by MarshalPages.
func UnmarshalPages(data []byte) ([]core.Page, error) {
	var pages []core.Page
	if err := json.Unmarshal(data, &pages); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return pages, nil
}
