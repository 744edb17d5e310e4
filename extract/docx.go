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
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/pagewise/core"
)

// Docx paginates word-processing documents by accumulated paragraph length.
type Docx struct {
	threshold int
}

var _ Extractor = (*Docx)(nil)

// NewDocx creates a word-processing extractor using policy.ParagraphThreshold.
func NewDocx(policy Policy) *Docx {
	return &Docx{threshold: policy.Normalize().ParagraphThreshold}
}

func (x *Docx) Family() string { return "DOCX" }

// Extract streams the main document part. Non-blank paragraphs accumulate
// on the open page until their combined length exceeds the threshold,
// which closes the page. Tables and inline images attach whole to the page
// open where they occur; images the body never references go to the last
// page.
func (x *Docx) Extract(ctx context.Context, content []byte, filename string) ([]core.Page, error) {
	pkg, err := openPackage(content)
	if err != nil {
		return nil, err
	}
	part := pkg.mainPart("word/document.xml")
	data, err := pkg.read(part)
	if err != nil {
		return nil, err
	}
	rels, err := pkg.relationships(part)
	if err != nil {
		return nil, err
	}

	b := &docxPages{
		threshold:  x.threshold,
		pkg:        pkg,
		rels:       rels,
		referenced: make(map[string]bool),
	}
	if err := b.parse(ctx, data); err != nil {
		return nil, err
	}
	return b.finish(), nil
}

// docxPages accumulates pages while the document XML is streamed.
type docxPages struct {
	threshold  int
	pkg        *ooxmlPackage
	rels       *partRels
	referenced map[string]bool

	pages   []core.Page
	text    []string
	textLen int
	tables  []core.Table
	media   []core.MediaAsset
}

func (b *docxPages) parse(ctx context.Context, data []byte) error {
	decoder := xml.NewDecoder(bytes.NewReader(data))

	var (
		table      tableBuilder
		para       strings.Builder
		paraDepth  int
		paraImages []string
		inText     bool
	)

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("parse document: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			local := t.Name.Local
			if table.start(local) {
				continue
			}
			switch local {
			case "p":
				paraDepth++
				if paraDepth == 1 && !table.active() {
					para.Reset()
					paraImages = paraImages[:0]
				}
			case "t":
				inText = true
			case "tab":
				b.write(&table, &para, "\t")
			case "br", "cr":
				b.write(&table, &para, "\n")
			case "blip", "imagedata":
				id := attrNS(t, relationshipsNS, "embed")
				if id == "" {
					id = attrNS(t, relationshipsNS, "id")
				}
				if id == "" {
					continue
				}
				if paraDepth > 0 && !table.active() {
					paraImages = append(paraImages, id)
				} else {
					b.attachImage(id)
				}
			}

		case xml.CharData:
			if inText {
				b.write(&table, &para, string(t))
			}

		case xml.EndElement:
			local := t.Name.Local
			if finished, ok := table.end(local); ok {
				b.tables = append(b.tables, finished)
				continue
			}
			switch local {
			case "t":
				inText = false
			case "p":
				if paraDepth == 1 && !table.active() {
					if err := ctx.Err(); err != nil {
						return err
					}
					b.addParagraph(para.String(), paraImages)
				} else if paraDepth > 1 && !table.active() {
					para.WriteByte('\n')
				}
				paraDepth = max(paraDepth-1, 0)
			}
		}
	}
}

func (b *docxPages) write(table *tableBuilder, para *strings.Builder, s string) {
	if table.active() {
		table.write(s)
		return
	}
	para.WriteString(s)
}

func (b *docxPages) addParagraph(text string, images []string) {
	if strings.TrimSpace(text) != "" {
		b.text = append(b.text, text)
		b.textLen += utf8.RuneCountInString(text)
	}
	for _, id := range images {
		b.attachImage(id)
	}
	if b.textLen > b.threshold {
		b.closePage()
	}
}

func (b *docxPages) attachImage(id string) {
	if b.referenced[id] {
		return
	}
	asset, ok := b.pkg.media(b.rels, id)
	if !ok {
		return
	}
	b.referenced[id] = true
	b.media = append(b.media, asset)
}

func (b *docxPages) openEmpty() bool {
	return len(b.text) == 0 && len(b.tables) == 0 && len(b.media) == 0
}

func (b *docxPages) closePage() {
	if b.openEmpty() {
		return
	}
	b.pages = append(b.pages, core.Page{
		Number: len(b.pages) + 1,
		Text:   strings.Join(b.text, "\n"),
		Tables: b.tables,
		Media:  b.media,
	})
	b.text, b.textLen, b.tables, b.media = nil, 0, nil, nil
}

// finish attaches unreferenced images and closes the last page.
func (b *docxPages) finish() []core.Page {
	var orphans []core.MediaAsset
	for _, rel := range b.rels.order {
		if rel.Type != imageRT || b.referenced[rel.ID] {
			continue
		}
		if asset, ok := b.pkg.media(b.rels, rel.ID); ok {
			b.referenced[rel.ID] = true
			orphans = append(orphans, asset)
		}
	}

	if b.openEmpty() && len(b.pages) > 0 {
		last := &b.pages[len(b.pages)-1]
		last.Media = append(last.Media, orphans...)
		return b.pages
	}
	b.media = append(b.media, orphans...)
	b.closePage()
	return b.pages
}
