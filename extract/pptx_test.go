package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pptxNamespaces = `xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" ` +
	`xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" ` +
	`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`

const slideRelType = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"

func slideXML(tree string) string {
	return `<p:sld ` + pptxNamespaces + `><p:cSld><p:spTree>` + tree + `</p:spTree></p:cSld></p:sld>`
}

func TestPptx_Slides(t *testing.T) {
	titleShape := `<p:sp><p:txBody><a:p><a:r><a:t>Quarterly</a:t></a:r><a:r><a:t> review</a:t></a:r></a:p>` +
		`<a:p><a:r><a:t>Q3 2025</a:t></a:r></a:p></p:txBody></p:sp>`
	emptyShape := `<p:sp><p:txBody><a:p></a:p></p:txBody></p:sp>`
	tableFrame := `<p:graphicFrame><a:graphic><a:graphicData><a:tbl>` +
		`<a:tr><a:tc><a:txBody><a:p><a:r><a:t>Metric</a:t></a:r></a:p></a:txBody></a:tc>` +
		`<a:tc><a:txBody><a:p><a:r><a:t>Value</a:t></a:r></a:p></a:txBody></a:tc></a:tr>` +
		`<a:tr><a:tc><a:txBody><a:p><a:r><a:t>Revenue</a:t></a:r></a:p></a:txBody></a:tc>` +
		`<a:tc><a:txBody><a:p><a:r><a:t>12</a:t></a:r></a:p></a:txBody></a:tc></a:tr>` +
		`</a:tbl></a:graphicData></a:graphic></p:graphicFrame>`
	group := `<p:grpSp><p:grpSpPr><a:xfrm><a:ext cx="1" cy="1"/></a:xfrm></p:grpSpPr>` +
		`<p:pic><p:blipFill><a:blip r:embed="rId1"><a:extLst><a:ext uri="{28A0092B}"/></a:extLst></a:blip></p:blipFill>` +
		`<p:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="914400" cy="457200"/></a:xfrm></p:spPr></p:pic>` +
		`<p:sp><p:txBody><a:p><a:r><a:t>Grouped text</a:t></a:r></a:p></p:txBody></p:sp></p:grpSp>`

	content := zipFiles(t, map[string]string{
		"ppt/presentation.xml": `<p:presentation ` + pptxNamespaces + `><p:sldIdLst>` +
			`<p:sldId id="256" r:id="rId2"/><p:sldId id="257" r:id="rId3"/><p:sldId id="258" r:id="rId4"/>` +
			`</p:sldIdLst></p:presentation>`,
		"ppt/_rels/presentation.xml.rels": `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
			`<Relationship Id="rId2" Type="` + slideRelType + `" Target="slides/slide1.xml"/>` +
			`<Relationship Id="rId3" Type="` + slideRelType + `" Target="slides/slide2.xml"/>` +
			`<Relationship Id="rId4" Type="` + slideRelType + `" Target="slides/slide3.xml"/>` +
			`</Relationships>`,
		"ppt/slides/slide1.xml": slideXML(titleShape + emptyShape + tableFrame),
		"ppt/slides/slide2.xml": slideXML(emptyShape),
		"ppt/slides/slide3.xml": slideXML(group),
		"ppt/slides/_rels/slide3.xml.rels": `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
			`<Relationship Id="rId1" Type="` + imageRelType + `" Target="../media/image1.png"/>` +
			`</Relationships>`,
		"ppt/media/image1.png": "png-bytes",
	})

	result := Process(context.Background(), NewPptx(), content, "deck.pptx")
	require.False(t, result.Failed(), result.Error)
	require.Equal(t, 2, result.PageCount)

	first := result.Pages[0]
	assert.Equal(t, 1, first.Number)
	assert.Equal(t, "Quarterly review\nQ3 2025", first.Text)
	require.Len(t, first.Tables, 1)
	assert.Equal(t, []string{"Metric", "Value"}, first.Tables[0].Columns)
	assert.Equal(t, [][]string{{"Revenue", "12"}}, first.Tables[0].Rows)
	assert.Equal(t, 1, first.Metadata["slide"])

	second := result.Pages[1]
	assert.Equal(t, 2, second.Number)
	assert.Equal(t, "Grouped text", second.Text)
	require.Len(t, second.Media, 1)
	assert.Equal(t, "png", second.Media[0].Format)
	assert.Equal(t, 914400, second.Media[0].Width)
	assert.Equal(t, 457200, second.Media[0].Height)
	assert.Equal(t, 3, second.Metadata["slide"])
}

func TestPptx_MissingPresentation(t *testing.T) {
	content := zipFiles(t, map[string]string{"readme.txt": "not a deck"})
	result := Process(context.Background(), NewPptx(), content, "deck.pptx")
	require.True(t, result.Failed())
	assert.Equal(t, "Failed to process PPTX: ppt/presentation.xml not found in archive", result.Error)
}
