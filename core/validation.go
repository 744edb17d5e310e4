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


package core

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidatePages checks the page sequence invariants.
//
// Validation rules:
//   - page numbers start at 1 and are contiguous
//   - no page is empty (no text, no tables, no media)
//   - every table row is aligned to its columns
func ValidatePages(pages []Page) error {
	for i := range pages {
		page := &pages[i]
		if page.Number != i+1 {
			return fmt.Errorf("%w: page %d has number %d", ErrInvalidPage, i+1, page.Number)
		}
		if page.IsEmpty() {
			return fmt.Errorf("%w: page %d is empty", ErrInvalidPage, page.Number)
		}
		for t, table := range page.Tables {
			for r, row := range table.Rows {
				if len(table.Columns) > 0 && len(row) != len(table.Columns) {
					return fmt.Errorf("%w: page %d table %d row %d has %d cells for %d columns",
						ErrInvalidPage, page.Number, t, r, len(row), len(table.Columns))
				}
			}
		}
	}
	return nil
}

// ValidateResult checks that exactly one of pages and error is populated
// and that the page count matches.
func ValidateResult(result *ExtractionResult) error {
	if result == nil {
		return fmt.Errorf("%w: result is nil", ErrInvalidResult)
	}
	if result.Failed() {
		if len(result.Pages) > 0 {
			return fmt.Errorf("%w: failed result carries pages", ErrInvalidResult)
		}
		return nil
	}
	if result.PageCount != len(result.Pages) {
		return fmt.Errorf("%w: page_count %d for %d pages", ErrInvalidResult, result.PageCount, len(result.Pages))
	}
	if err := ValidatePages(result.Pages); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidResult, err)
	}
	return nil
}

// ValidateBatch rejects malformed input before any extraction begins.
//
// Validation rules:
//   - URLs parse as absolute http or https URLs
//   - drive ids are non-blank
//   - a drive token accompanies drive ids
func ValidateBatch(batch *Batch) error {
	if batch == nil {
		return fmt.Errorf("%w: batch is nil", ErrInvalidBatch)
	}
	for i, raw := range batch.URLs {
		if err := ValidateURL(raw); err != nil {
			return fmt.Errorf("%w: url %d: %w", ErrInvalidBatch, i, err)
		}
	}
	for i, id := range batch.DriveIDs {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: drive id %d is blank", ErrInvalidBatch, i)
		}
	}
	if len(batch.DriveIDs) > 0 && batch.DriveToken == "" {
		return fmt.Errorf("%w: drive ids given without a drive token", ErrInvalidBatch)
	}
	return nil
}

// ValidateURL checks that raw is an absolute http(s) URL with a host.
func ValidateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}
