package extract

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/poiesic/pagewise/core"
)

var errNoColumns = errors.New("no columns to parse from file")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSV reads delimited text in row windows, one table per page.
type CSV struct {
	window int
}

var _ Extractor = (*CSV)(nil)

// NewCSV creates a delimited-text extractor using policy.RowWindow.
func NewCSV(policy Policy) *CSV {
	return &CSV{window: policy.Normalize().RowWindow}
}

func (x *CSV) Family() string { return "CSV" }

// Extract reads the header once and emits a page for every RowWindow data
// rows. Rows wider than the header widen it with unnamed columns and
// shorter rows are padded, so no cell is lost.
func (x *CSV) Extract(ctx context.Context, content []byte, filename string) ([]core.Page, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(content, utf8BOM)))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errNoColumns
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	window := newRowWindow(header, x.window)

	var pages []core.Page
	flush := func() {
		if window.empty() {
			return
		}
		pages = append(pages, core.Page{
			Number: len(pages) + 1,
			Tables: []core.Table{window.take()},
		})
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}
		if window.add(record) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			flush()
		}
	}
	flush()
	return pages, nil
}
