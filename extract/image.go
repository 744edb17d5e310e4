package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/poiesic/pagewise/ai"
	"github.com/poiesic/pagewise/core"
)

// Image delegates OCR, table detection and classification to an
// ImageAnalyzer and emits exactly one page.
type Image struct {
	analyzer ai.ImageAnalyzer
	maxDim   int
}

var _ Extractor = (*Image)(nil)

// NewImage creates an image extractor using policy.MaxImageDimension.
func NewImage(analyzer ai.ImageAnalyzer, policy Policy) *Image {
	return &Image{analyzer: analyzer, maxDim: policy.Normalize().MaxImageDimension}
}

func (x *Image) Family() string { return "image" }

// Extract decodes the image for its dimensions, downscales the provider
// payload when either side exceeds the limit, and stores the original
// bytes as the page's single media asset. A provider failure fails the
// whole item.
func (x *Image) Extract(ctx context.Context, content []byte, filename string) ([]core.Page, error) {
	img, err := imaging.Decode(bytes.NewReader(content), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	format, mimeType := imageFormat(filename, content)
	payload := content
	if width > x.maxDim || height > x.maxDim {
		var buf bytes.Buffer
		resized := imaging.Fit(img, x.maxDim, x.maxDim, imaging.Lanczos)
		if err := imaging.Encode(&buf, resized, encodeFormat(mimeType)); err != nil {
			return nil, fmt.Errorf("encode image: %w", err)
		}
		payload = buf.Bytes()
	}

	analysis, err := x.analyzer.AnalyzeImage(ctx, payload, mimeType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrProviderFailure, err)
	}

	page := core.Page{
		Number: 1,
		Text:   analysis.Text,
		Tables: convertTables(analysis.Tables),
		Media: []core.MediaAsset{{
			Format: format,
			Data:   base64.StdEncoding.EncodeToString(content),
			Width:  width,
			Height: height,
		}},
	}
	page.SetMetadata("type", analysis.Type)
	page.SetMetadata("description", analysis.Description)
	return []core.Page{page}, nil
}

// imageFormat returns the format tag and MIME type of an image, preferring
// the filename extension over sniffing.
func imageFormat(filename string, content []byte) (string, string) {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(filename)), ".")
	switch ext {
	case "png":
		return ext, core.ContentTypePNG
	case "jpg", "jpeg":
		return ext, core.ContentTypeJPEG
	}
	mimeType := core.NormalizeContentType(http.DetectContentType(content))
	if mimeType == core.ContentTypePNG {
		return "png", mimeType
	}
	return "jpeg", core.ContentTypeJPEG
}

func encodeFormat(mimeType string) imaging.Format {
	if mimeType == core.ContentTypePNG {
		return imaging.PNG
	}
	return imaging.JPEG
}

// convertTables aligns provider tables to their columns.
func convertTables(tables []ai.Table) []core.Table {
	out := make([]core.Table, 0, len(tables))
	for _, t := range tables {
		if len(t.Columns) == 0 {
			out = append(out, tableFromRows(t.Rows))
			continue
		}
		rows := make([][]string, 0, len(t.Rows))
		for _, row := range t.Rows {
			rows = append(rows, alignRow(row, len(t.Columns)))
		}
		out = append(out, core.Table{Columns: t.Columns, Rows: rows})
	}
	return out
}
