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


package extract

import (
	"context"
	"errors"
	"fmt"

	"github.com/poiesic/pagewise/core"
)

// ErrNoContent is reported when an item yields no non-empty pages.
var ErrNoContent = errors.New("no content extracted")

// Extractor converts one raw payload of a known content family into pages.
//
// Implementations return plain errors; Process turns them into a per-item
// result. An Extractor must be safe for concurrent use and must not keep
// state between calls.
type Extractor interface {
	// Family names the content family in failure reasons, e.g. "CSV".
	Family() string

	// Extract splits content into pages numbered from 1. Pages that carry
	// no text, tables or media are dropped by Process.
	Extract(ctx context.Context, content []byte, filename string) ([]core.Page, error)
}

// Process runs ex on one payload and never fails: every error and panic is
// converted into an error result carrying a human-readable reason. A payload
// that yields no non-empty pages is an extraction failure.
func Process(ctx context.Context, ex Extractor, content []byte, filename string) (result core.ExtractionResult) {
	family := ex.Family()
	defer func() {
		if r := recover(); r != nil {
			result = core.NewErrorResult(filename, describe(family, fmt.Errorf("panic: %v", r)))
		}
	}()

	if err := ctx.Err(); err != nil {
		return core.NewErrorResult(filename, describe(family, err))
	}

	pages, err := ex.Extract(ctx, content, filename)
	if err != nil {
		return core.NewErrorResult(filename, describe(family, err))
	}

	pages = compactPages(pages)
	if len(pages) == 0 {
		return core.NewErrorResult(filename, describe(family, ErrNoContent))
	}
	if err := core.ValidatePages(pages); err != nil {
		return core.NewErrorResult(filename, describe(family, err))
	}
	return core.NewPagesResult(filename, pages)
}

// describe builds the reason reported for a failed item. Unsupported and
// size-limit errors are reported verbatim; cancellations read
// "Processing cancelled: <cause>"; everything else is prefixed with the
// family, as in "Failed to process CSV: <cause>".
func describe(family string, err error) error {
	class := core.Classify(err)
	switch class {
	case core.ErrUnsupportedType, core.ErrSizeLimitExceeded:
		return err
	case core.ErrCancelled:
		if errors.Is(err, core.ErrCancelled) {
			return err
		}
		return fmt.Errorf("%w: %w", core.ErrCancelled, err)
	default:
		return core.Tag(class, fmt.Errorf("%s %s: %w", failurePrefix, family, err))
	}
}

const failurePrefix = "Failed to process"

// compactPages drops empty pages and renumbers the rest from 1.
func compactPages(pages []core.Page) []core.Page {
	out := make([]core.Page, 0, len(pages))
	for _, page := range pages {
		if page.IsEmpty() {
			continue
		}
		page.Number = len(out) + 1
		if page.Tables == nil {
			page.Tables = []core.Table{}
		}
		if page.Media == nil {
			page.Media = []core.MediaAsset{}
		}
		out = append(out, page)
	}
	return out
}
