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
	"encoding/base64"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/poiesic/pagewise/core"
)

var disablePDFConfigDir sync.Once

// PDF emits one page per PDF page that has extractable text or embedded
// images.
type PDF struct{}

var _ Extractor = (*PDF)(nil)

// NewPDF creates a PDF extractor.
func NewPDF() *PDF {
	// pdfcpu otherwise writes a config directory under the user's home.
	disablePDFConfigDir.Do(api.DisableConfigDir)
	return &PDF{}
}

func (x *PDF) Family() string { return "PDF" }

// Extract reads the plain text and embedded images of every page. Pages
// with neither are skipped; "pdf_page" metadata keeps the index in the
// source document.
func (x *PDF) Extract(ctx context.Context, content []byte, filename string) ([]core.Page, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, err
	}
	images := pageImages(content)

	total := reader.NumPage()
	pages := make([]core.Page, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := pageText(reader, i)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		if text == "" && len(images[i]) == 0 {
			continue
		}
		page := core.Page{Number: len(pages) + 1, Text: text, Media: images[i]}
		page.SetMetadata("pdf_page", i)
		pages = append(pages, page)
	}
	return pages, nil
}

// pageText extracts one page. The PDF library panics on some malformed
// content streams; those pages are reported as errors.
func pageText(reader *pdf.Reader, n int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed page: %v", r)
		}
	}()

	page := reader.Page(n)
	if page.V.IsNull() {
		return "", nil
	}
	text, err = page.GetPlainText(nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// pageImages returns the embedded images of every page keyed by page
// number, in object order. A document pdfcpu rejects, or one that makes
// it panic, yields no images and keeps its text pages.
func pageImages(content []byte) (out map[int][]core.MediaAsset) {
	out = make(map[int][]core.MediaAsset)
	defer func() {
		if r := recover(); r != nil {
			out = map[int][]core.MediaAsset{}
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	extracted, err := api.ExtractImagesRaw(bytes.NewReader(content), nil, conf)
	if err != nil {
		return out
	}
	for _, byObj := range extracted {
		for _, objNr := range slices.Sorted(maps.Keys(byObj)) {
			img := byObj[objNr]
			data, err := io.ReadAll(img)
			if err != nil || len(data) == 0 {
				continue
			}
			out[img.PageNr] = append(out[img.PageNr], core.MediaAsset{
				Format: img.FileType,
				Data:   base64.StdEncoding.EncodeToString(data),
				Width:  img.Width,
				Height: img.Height,
			})
		}
	}
	return out
}
