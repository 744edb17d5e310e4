package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF lays out numbered objects with a matching cross-reference table.
// objects[i] is the body of object i+1.
func buildPDF(objects []string) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func stream(dict string, data []byte) string {
	return fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", dict, len(data), data)
}

func jpegImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 30, G: 120, B: 220, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

// textAndScanPDF has a text page, a blank page and a page holding only an
// embedded JPEG.
func textAndScanPDF(t *testing.T, photo []byte) []byte {
	t.Helper()
	text := []byte("BT /F1 12 Tf 20 150 Td (Quarterly report) Tj ET")
	draw := []byte("q 80 0 0 60 20 20 cm /Im0 Do Q")
	return buildPDF([]string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R 4 0 R 5 0 R] /Count 3 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 200] /Resources << /Font << /F1 6 0 R >> >> /Contents 7 0 R >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 200] /Resources << >> /Contents 8 0 R >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 200] /Resources << /XObject << /Im0 9 0 R >> >> /Contents 10 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		stream("", text),
		stream("", []byte("")),
		stream("/Type /XObject /Subtype /Image /Width 8 /Height 6 /ColorSpace /DeviceRGB /BitsPerComponent 8 /Filter /DCTDecode", photo),
		stream("", draw),
	})
}

func TestPDF_KeepsImageOnlyPages(t *testing.T) {
	photo := jpegImage(t, 8, 6)
	content := textAndScanPDF(t, photo)

	result := Process(context.Background(), NewPDF(), content, "scan.pdf")
	require.False(t, result.Failed(), result.Error)
	require.Equal(t, 2, result.PageCount)

	first := result.Pages[0]
	assert.Contains(t, first.Text, "Quarterly report")
	assert.Empty(t, first.Media)
	assert.Equal(t, 1, first.Metadata["pdf_page"])

	scan := result.Pages[1]
	assert.Equal(t, 2, scan.Number)
	assert.Empty(t, scan.Text)
	assert.Equal(t, 3, scan.Metadata["pdf_page"])
	require.Len(t, scan.Media, 1)

	asset := scan.Media[0]
	assert.Equal(t, "jpg", asset.Format)
	assert.Equal(t, 8, asset.Width)
	assert.Equal(t, 6, asset.Height)
	raw, err := base64.StdEncoding.DecodeString(asset.Data)
	require.NoError(t, err)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Width)
	assert.Equal(t, 6, cfg.Height)
}

func TestPDF_TextOnlyDocument(t *testing.T) {
	content := buildPDF([]string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 200] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		stream("", []byte("BT /F1 12 Tf 20 150 Td (Hello) Tj ET")),
	})

	pages, err := NewPDF().Extract(context.Background(), content, "hello.pdf")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Contains(t, pages[0].Text, "Hello")
	assert.Empty(t, pages[0].Media)
}

func TestPDF_Invalid(t *testing.T) {
	result := Process(context.Background(), NewPDF(), []byte("%PDF-1.4 truncated"), "paper.pdf")
	require.True(t, result.Failed())
	assert.Contains(t, result.Error, "Failed to process PDF:")
}
