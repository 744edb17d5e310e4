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
	"context"
	"errors"
	"fmt"
)

// Extraction error taxonomy. Every member is converted into a per-item
// error result and never fails a whole batch.
var (
	// ErrUnsupportedType indicates no extractor is registered for a content type.
	ErrUnsupportedType = errors.New("Unsupported file type")

	// ErrSizeLimitExceeded indicates an item is larger than the configured cap.
	ErrSizeLimitExceeded = errors.New("File size exceeds")

	// ErrExtractionFailure indicates the content could not be parsed.
	ErrExtractionFailure = errors.New("extraction failed")

	// ErrProviderFailure indicates an inference or transcription provider failed.
	ErrProviderFailure = errors.New("provider failed")

	// ErrFetchFailure indicates remote content could not be fetched.
	ErrFetchFailure = errors.New("fetch failed")

	// ErrResolverFailure indicates a cloud-drive reference could not be resolved.
	ErrResolverFailure = errors.New("resolver failed")

	// ErrCancelled indicates an item did not finish before the batch was cancelled.
	ErrCancelled = errors.New("Processing cancelled")
)

// Validation errors
var (
	// ErrInvalidBatch indicates a malformed batch detected before extraction.
	ErrInvalidBatch = errors.New("invalid batch")

	// ErrInvalidPage indicates a page sequence broke the page invariants.
	ErrInvalidPage = errors.New("invalid page")

	// ErrInvalidResult indicates a result has both or neither of pages and error.
	ErrInvalidResult = errors.New("invalid extraction result")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrUnsupportedType, "unsupported_type"},
	{ErrSizeLimitExceeded, "size_limit_exceeded"},
	{ErrProviderFailure, "provider_failure"},
	{ErrFetchFailure, "fetch_failure"},
	{ErrResolverFailure, "resolver_failure"},
	{ErrCancelled, "cancelled"},
	{ErrExtractionFailure, "extraction_failure"},
}

// Classify maps err to its taxonomy member. Errors outside the taxonomy are
// extraction failures; context errors count as cancellation.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.err
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrCancelled
	}
	return ErrExtractionFailure
}

// KindOf returns the short taxonomy name for err, or "" for nil.
func KindOf(err error) string {
	class := Classify(err)
	for _, k := range kinds {
		if class == k.err {
			return k.name
		}
	}
	return ""
}

// Tag marks err as a member of the taxonomy kind while keeping its message.
// Tag returns nil when err is nil.
func Tag(kind, err error) error {
	if err == nil {
		return nil
	}
	return &taggedError{kind: kind, err: err}
}

type taggedError struct {
	kind error
	err  error
}

func (e *taggedError) Error() string   { return e.err.Error() }
func (e *taggedError) Unwrap() []error { return []error{e.kind, e.err} }

// SizeLimitError reports an item larger than limit bytes, as in
// "File size exceeds 20MB".
func SizeLimitError(limit int64) error {
	return fmt.Errorf("%w %s", ErrSizeLimitExceeded, FormatSize(limit))
}

// UnsupportedTypeError reports a content type no extractor handles, as in
// "Unsupported file type: application/zip".
func UnsupportedTypeError(contentType string) error {
	if contentType == "" {
		return ErrUnsupportedType
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
}

// FormatSize renders a byte count in whole megabytes when it is an exact
// multiple of a MiB, and in bytes otherwise.
func FormatSize(n int64) string {
	const mib = 1 << 20
	if n > 0 && n%mib == 0 {
		return fmt.Sprintf("%dMB", n/mib)
	}
	return fmt.Sprintf("%d bytes", n)
}
