package extract

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/poiesic/pagewise/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// funcExtractor adapts a function to the Extractor interface.
type funcExtractor struct {
	family string
	fn     func(ctx context.Context, content []byte, filename string) ([]core.Page, error)
}

func (f funcExtractor) Family() string { return f.family }

func (f funcExtractor) Extract(ctx context.Context, content []byte, filename string) ([]core.Page, error) {
	return f.fn(ctx, content, filename)
}

func TestProcess_Success(t *testing.T) {
	ex := funcExtractor{family: "TXT", fn: func(ctx context.Context, content []byte, filename string) ([]core.Page, error) {
		return []core.Page{
			{Number: 1, Text: "first"},
			{Number: 2},
			{Number: 3, Text: "third"},
		}, nil
	}}

	result := Process(context.Background(), ex, []byte("x"), "notes.txt")

	require.False(t, result.Failed())
	assert.Equal(t, "notes.txt", result.Filename)
	assert.Equal(t, 2, result.PageCount)
	require.Len(t, result.Pages, 2)
	assert.Equal(t, 1, result.Pages[0].Number)
	assert.Equal(t, 2, result.Pages[1].Number)
	assert.Equal(t, "third", result.Pages[1].Text)
	assert.NotNil(t, result.Pages[0].Tables)
	assert.NotNil(t, result.Pages[0].Media)
}

func TestProcess_ErrorReasons(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		reason string
		kind   string
	}{
		{
			name:   "extraction failure is prefixed with the family",
			err:    errors.New("bad header"),
			reason: "Failed to process CSV: bad header",
			kind:   "extraction_failure",
		},
		{
			name:   "unsupported type is verbatim",
			err:    core.ErrUnsupportedType,
			reason: "Unsupported file type",
			kind:   "unsupported_type",
		},
		{
			name:   "provider failure keeps its kind",
			err:    fmt.Errorf("%w: quota", core.ErrProviderFailure),
			reason: "Failed to process CSV: provider failed: quota",
			kind:   "provider_failure",
		},
		{
			name:   "deadline becomes a cancellation",
			err:    context.DeadlineExceeded,
			reason: "Processing cancelled: context deadline exceeded",
			kind:   "cancelled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := funcExtractor{family: "CSV", fn: func(ctx context.Context, content []byte, filename string) ([]core.Page, error) {
				return nil, tt.err
			}}
			result := Process(context.Background(), ex, nil, "data.csv")

			require.True(t, result.Failed())
			assert.Equal(t, tt.reason, result.Error)
			assert.Equal(t, tt.kind, result.ErrorKind)
			assert.Nil(t, result.Pages)
			assert.Zero(t, result.PageCount)
		})
	}
}

func TestProcess_RecoversPanics(t *testing.T) {
	ex := funcExtractor{family: "DOCX", fn: func(ctx context.Context, content []byte, filename string) ([]core.Page, error) {
		var pages []core.Page
		_ = pages[3]
		return nil, nil
	}}

	result := Process(context.Background(), ex, nil, "report.docx")

	require.True(t, result.Failed())
	assert.Contains(t, result.Error, "Failed to process DOCX: panic:")
	assert.Equal(t, "extraction_failure", result.ErrorKind)
}

func TestProcess_RejectsMisalignedRows(t *testing.T) {
	ex := funcExtractor{family: "CSV", fn: func(ctx context.Context, content []byte, filename string) ([]core.Page, error) {
		return []core.Page{{
			Number: 1,
			Tables: []core.Table{{Columns: []string{"a", "b"}, Rows: [][]string{{"1"}}}},
		}}, nil
	}}

	result := Process(context.Background(), ex, nil, "bad.csv")

	require.True(t, result.Failed())
	assert.Contains(t, result.Error, "Failed to process CSV:")
}

func TestProcess_CancelledBeforeStart(t *testing.T) {
	called := false
	ex := funcExtractor{family: "TXT", fn: func(ctx context.Context, content []byte, filename string) ([]core.Page, error) {
		called = true
		return nil, nil
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := Process(ctx, ex, nil, "late.txt")

	assert.False(t, called)
	assert.Equal(t, "Processing cancelled: context canceled", result.Error)
}

func TestUnsupported(t *testing.T) {
	result := Process(context.Background(), Unsupported{}, []byte{0x00}, "blob.bin")
	assert.Equal(t, "Unsupported file type", result.Error)
	assert.Equal(t, "unsupported_type", result.ErrorKind)
}

func TestProcess_NoPagesIsAFailure(t *testing.T) {
	ex := funcExtractor{family: "PDF", fn: func(ctx context.Context, content []byte, filename string) ([]core.Page, error) {
		return []core.Page{{Number: 1}, {Number: 2, Tables: []core.Table{}}}, nil
	}}

	result := Process(context.Background(), ex, []byte("%PDF"), "scan.pdf")

	require.True(t, result.Failed())
	assert.Equal(t, "Failed to process PDF: no content extracted", result.Error)
	assert.Equal(t, "extraction_failure", result.ErrorKind)
	assert.Nil(t, result.Pages)
	assert.ErrorIs(t, describe("PDF", ErrNoContent), core.ErrExtractionFailure)
}
