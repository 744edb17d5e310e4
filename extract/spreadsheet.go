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
	"bytes"
	"context"
	"fmt"

	"github.com/poiesic/pagewise/core"
	"github.com/xuri/excelize/v2"
)

// Spreadsheet reads every sheet of a workbook in row windows.
type Spreadsheet struct {
	window int
}

var _ Extractor = (*Spreadsheet)(nil)

// NewSpreadsheet creates a workbook extractor using policy.RowWindow.
func NewSpreadsheet(policy Policy) *Spreadsheet {
	return &Spreadsheet{window: policy.Normalize().RowWindow}
}

func (x *Spreadsheet) Family() string { return "XLSX" }

// Extract treats the first row of each sheet as its header and emits one
// page per RowWindow data rows. Page numbers continue across sheets and
// each page records its sheet_name.
func (x *Spreadsheet) Extract(ctx context.Context, content []byte, filename string) ([]core.Page, error) {
	workbook, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer workbook.Close()

	var pages []core.Page
	for _, sheet := range workbook.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sheetPages, err := x.readSheet(workbook, sheet, len(pages))
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", sheet, err)
		}
		pages = append(pages, sheetPages...)
	}
	return pages, nil
}

func (x *Spreadsheet) readSheet(workbook *excelize.File, sheet string, offset int) ([]core.Page, error) {
	rows, err := workbook.Rows(sheet)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Error()
	}
	header, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	window := newRowWindow(header, x.window)

	var pages []core.Page
	flush := func() {
		if window.empty() {
			return
		}
		page := core.Page{
			Number: offset + len(pages) + 1,
			Tables: []core.Table{window.take()},
		}
		page.SetMetadata("sheet_name", sheet)
		pages = append(pages, page)
	}

	for rows.Next() {
		cells, err := rows.Columns()
		if err != nil {
			return nil, err
		}
		if window.add(cells) {
			flush()
		}
	}
	if err := rows.Error(); err != nil {
		return nil, err
	}
	flush()
	return pages, nil
}
