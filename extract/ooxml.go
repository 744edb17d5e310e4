package extract

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/poiesic/pagewise/core"
)

const (
	relationshipsNS  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	officeDocumentRT = relationshipsNS + "/officeDocument"
	imageRT          = relationshipsNS + "/image"

	// maxPartSize bounds a single decompressed package part.
	maxPartSize = 256 << 20
)

// ooxmlPackage is an opened Office Open XML zip container.
type ooxmlPackage struct {
	files map[string]*zip.File
}

type relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr"`
}

type relationshipsXML struct {
	Relationships []relationship `xml:"Relationship"`
}

// partRels holds the relationships of one part, in document order.
type partRels struct {
	part  string
	order []relationship
	byID  map[string]relationship
}

func openPackage(content []byte) (*ooxmlPackage, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, err
	}
	pkg := &ooxmlPackage{files: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		pkg.files[strings.TrimPrefix(f.Name, "/")] = f
	}
	return pkg, nil
}

func (p *ooxmlPackage) read(name string) ([]byte, error) {
	f, ok := p.files[name]
	if !ok {
		return nil, fmt.Errorf("%s not found in archive", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxPartSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if len(data) > maxPartSize {
		return nil, fmt.Errorf("%s exceeds %d bytes", name, maxPartSize)
	}
	return data, nil
}

// relationships loads the .rels file of part. A part without one has no
// relationships.
func (p *ooxmlPackage) relationships(part string) (*partRels, error) {
	rels := &partRels{part: part, byID: make(map[string]relationship)}

	relsPath := path.Join(path.Dir(part), "_rels", path.Base(part)+".rels")
	if part == "" {
		relsPath = "_rels/.rels"
	}
	if _, ok := p.files[relsPath]; !ok {
		return rels, nil
	}
	data, err := p.read(relsPath)
	if err != nil {
		return nil, err
	}

	var parsed relationshipsXML
	if err := xml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse %s: %w", relsPath, err)
	}
	rels.order = parsed.Relationships
	for _, rel := range parsed.Relationships {
		rels.byID[rel.ID] = rel
	}
	return rels, nil
}

// mainPart returns the officeDocument part named by the root relationships,
// or fallback when the package does not declare one.
func (p *ooxmlPackage) mainPart(fallback string) string {
	root, err := p.relationships("")
	if err != nil {
		return fallback
	}
	for _, rel := range root.order {
		if rel.Type == officeDocumentRT {
			return resolveTarget("", rel.Target)
		}
	}
	return fallback
}

// media loads the image a relationship points at. External and missing
// targets report false.
func (p *ooxmlPackage) media(rels *partRels, id string) (core.MediaAsset, bool) {
	rel, ok := rels.byID[id]
	if !ok || strings.EqualFold(rel.TargetMode, "External") {
		return core.MediaAsset{}, false
	}
	data, err := p.read(resolveTarget(rels.part, rel.Target))
	if err != nil {
		return core.MediaAsset{}, false
	}
	return core.MediaAsset{
		Format: strings.TrimPrefix(strings.ToLower(path.Ext(rel.Target)), "."),
		Data:   base64.StdEncoding.EncodeToString(data),
	}, true
}

// resolveTarget resolves a relationship target against its source part.
func resolveTarget(part, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Join(path.Dir(part), target)
}

// attr returns the value of the attribute with the given local name.
func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// attrNS returns the value of the attribute with the given namespace and
// local name.
func attrNS(el xml.StartElement, space, local string) string {
	for _, a := range el.Attr {
		if a.Name.Space == space && a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// attrInt parses a numeric attribute, returning 0 when absent or invalid.
func attrInt(el xml.StartElement, local string) int {
	n, err := strconv.Atoi(attr(el, local))
	if err != nil {
		return 0
	}
	return n
}

// tableBuilder collects the rows of a table while its XML is streamed.
// Nested tables contribute their text to the enclosing cell.
type tableBuilder struct {
	depth int
	rows  [][]string
	row   []string
	cell  strings.Builder
	paras int
}

func (t *tableBuilder) active() bool { return t.depth > 0 }

// start handles a start element and reports whether it was table markup.
func (t *tableBuilder) start(local string) bool {
	switch local {
	case "tbl":
		t.depth++
		if t.depth == 1 {
			t.rows = nil
		}
		return true
	case "tr":
		if t.depth == 1 {
			t.row = nil
		}
		return true
	case "tc":
		if t.depth == 1 {
			t.cell.Reset()
			t.paras = 0
		}
		return true
	case "p":
		if t.depth > 0 {
			if t.paras > 0 {
				t.cell.WriteByte('\n')
			}
			t.paras++
		}
		return false
	}
	return false
}

// end handles an end element and returns the finished table, if any.
func (t *tableBuilder) end(local string) (core.Table, bool) {
	switch local {
	case "tc":
		if t.depth == 1 {
			t.row = append(t.row, t.cell.String())
		}
	case "tr":
		if t.depth == 1 {
			t.rows = append(t.rows, t.row)
		}
	case "tbl":
		t.depth--
		if t.depth == 0 && len(t.rows) > 0 {
			return tableFromRows(t.rows), true
		}
	}
	return core.Table{}, false
}

func (t *tableBuilder) write(s string) {
	t.cell.WriteString(s)
}
