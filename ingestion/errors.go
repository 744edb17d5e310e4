package ingestion

import (
	"errors"
	"fmt"
)

var (
	// ErrRegistryRequired is returned when an extractor registry is not provided.
	ErrRegistryRequired = errors.New("extractor registry required")

	// ErrSinkRequired is returned when a source repository is not provided.
	ErrSinkRequired = errors.New("source repository required")

	// ErrInvalidMaxUploadSize is returned for a non-positive upload cap.
	ErrInvalidMaxUploadSize = errors.New("max upload size must be positive")

	// ErrDriveNotConfigured is reported for drive references when the
	// coordinator has no drive client factory.
	ErrDriveNotConfigured = errors.New("drive access is not configured")

	// ErrPersistFailed indicates the sink did not store a group as asked.
	ErrPersistFailed = errors.New("persist failed")
)

func errShortInsert(got, want int) error {
	return fmt.Errorf("%w: sink returned %d ids for %d records", ErrPersistFailed, got, want)
}
