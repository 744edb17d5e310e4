package extract

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/poiesic/pagewise/core"
)

// Pptx emits one page per slide.
type Pptx struct{}

var _ Extractor = (*Pptx)(nil)

// NewPptx creates a slide-deck extractor.
func NewPptx() *Pptx {
	return &Pptx{}
}

func (x *Pptx) Family() string { return "PPTX" }

// Extract walks the slides in presentation order. Slides with no text,
// tables or pictures are skipped; the remaining pages stay contiguous and
// carry their 1-based slide index in the "slide" metadata key.
func (x *Pptx) Extract(ctx context.Context, content []byte, filename string) ([]core.Page, error) {
	pkg, err := openPackage(content)
	if err != nil {
		return nil, err
	}
	presentation := pkg.mainPart("ppt/presentation.xml")
	slides, err := slideParts(pkg, presentation)
	if err != nil {
		return nil, err
	}

	pages := make([]core.Page, 0, len(slides))
	for i, slide := range slides {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := readSlide(pkg, slide)
		if err != nil {
			return nil, fmt.Errorf("slide %d: %w", i+1, err)
		}
		if page.IsEmpty() {
			continue
		}
		page.Number = len(pages) + 1
		page.SetMetadata("slide", i+1)
		pages = append(pages, page)
	}
	return pages, nil
}

// slideParts lists the slide part names in presentation order.
func slideParts(pkg *ooxmlPackage, presentation string) ([]string, error) {
	data, err := pkg.read(presentation)
	if err != nil {
		return nil, err
	}
	rels, err := pkg.relationships(presentation)
	if err != nil {
		return nil, err
	}

	var parts []string
	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			return parts, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse presentation: %w", err)
		}
		el, ok := tok.(xml.StartElement)
		if !ok || el.Name.Local != "sldId" {
			continue
		}
		rel, ok := rels.byID[attrNS(el, relationshipsNS, "id")]
		if !ok {
			continue
		}
		parts = append(parts, resolveTarget(presentation, rel.Target))
	}
}

// readSlide collects the text shapes, tables and pictures of one slide.
// Group shapes are flattened in document order.
func readSlide(pkg *ooxmlPackage, part string) (core.Page, error) {
	data, err := pkg.read(part)
	if err != nil {
		return core.Page{}, err
	}
	rels, err := pkg.relationships(part)
	if err != nil {
		return core.Page{}, err
	}

	var (
		page    core.Page
		texts   []string
		table   tableBuilder
		inShape bool
		paras   []string
		para    strings.Builder
		inText  bool
		inPic   bool
		picID   string
		picW    int
		picH    int
	)

	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return core.Page{}, fmt.Errorf("parse %s: %w", part, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			local := t.Name.Local
			if table.start(local) {
				continue
			}
			switch local {
			case "sp":
				inShape = true
				paras = paras[:0]
			case "p":
				if inShape && !table.active() {
					para.Reset()
				}
			case "t":
				inText = true
			case "br":
				if table.active() {
					table.write("\n")
				} else if inShape {
					para.WriteByte('\n')
				}
			case "pic":
				inPic, picID, picW, picH = true, "", 0, 0
			case "blip":
				if inPic {
					picID = attrNS(t, relationshipsNS, "embed")
				}
			case "ext":
				// a:xfrm/a:ext carries the display size; a:extLst/a:ext does not
				if inPic && attr(t, "cx") != "" {
					picW, picH = attrInt(t, "cx"), attrInt(t, "cy")
				}
			}

		case xml.CharData:
			if !inText {
				continue
			}
			if table.active() {
				table.write(string(t))
			} else if inShape {
				para.Write(t)
			}

		case xml.EndElement:
			local := t.Name.Local
			if finished, ok := table.end(local); ok {
				page.Tables = append(page.Tables, finished)
				continue
			}
			switch local {
			case "t":
				inText = false
			case "p":
				if inShape && !table.active() {
					paras = append(paras, para.String())
				}
			case "sp":
				if text := strings.Join(paras, "\n"); strings.TrimSpace(text) != "" {
					texts = append(texts, text)
				}
				inShape = false
			case "pic":
				if asset, ok := pkg.media(rels, picID); ok {
					asset.Width, asset.Height = picW, picH
					page.Media = append(page.Media, asset)
				}
				inPic = false
			}
		}
	}

	page.Text = strings.Join(texts, "\n")
	return page, nil
}
