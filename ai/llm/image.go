package llm

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/pagewise/ai"
	"github.com/tmc/langchaingo/llms"
)

// ImageAnalyzer implements ai.ImageAnalyzer with a multimodal chat model.
type ImageAnalyzer struct {
	client      llms.Model
	model       string
	maxAttempts int
	logger      *slog.Logger
}

var _ ai.ImageAnalyzer = (*ImageAnalyzer)(nil)

// imageTable and imageAnswer match the structure requested from the model.
type imageTable struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

type imageAnswer struct {
	Text        string       `json:"text"`
	Tables      []imageTable `json:"tables"`
	Description string       `json:"description"`
	Type        string       `json:"type"`
}

func newImageAnalyzer(client llms.Model, config *ai.Config) *ImageAnalyzer {
	return &ImageAnalyzer{
		client:      client,
		model:       config.VisionModel,
		maxAttempts: config.MaxAttempts,
		logger:      slog.Default().With("component", "llm-image-analyzer"),
	}
}

// AnalyzeImage runs OCR, table detection and classification on one image.
func (a *ImageAnalyzer) AnalyzeImage(ctx context.Context, image []byte, mimeType string) (*ai.ImageAnalysis, error) {
	var answer imageAnswer
	err := generateJSON(ctx, a.client, a.logger, jsonRequest{
		model:       a.model,
		prompt:      buildImagePrompt(),
		mimeType:    mimeType,
		payload:     image,
		maxAttempts: a.maxAttempts,
	}, &answer)
	if err != nil {
		return nil, err
	}

	analysis := &ai.ImageAnalysis{
		Text:        strings.TrimSpace(answer.Text),
		Description: strings.TrimSpace(answer.Description),
		Type:        strings.ToLower(strings.TrimSpace(answer.Type)),
		Tables:      make([]ai.Table, 0, len(answer.Tables)),
	}
	for _, t := range answer.Tables {
		if len(t.Columns) == 0 && len(t.Rows) == 0 {
			continue
		}
		analysis.Tables = append(analysis.Tables, ai.Table{
			Columns: t.Columns,
			Rows:    alignRows(t.Columns, t.Rows),
		})
	}

	a.logger.Debug("analyzed image",
		"type", analysis.Type,
		"text_len", len(analysis.Text),
		"tables", len(analysis.Tables))
	return analysis, nil
}

// alignRows pads or truncates every row to the column count. Models
// occasionally drop empty trailing cells.
func alignRows(columns []string, rows [][]string) [][]string {
	if len(columns) == 0 {
		return rows
	}
	aligned := make([][]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(columns))
		copy(cells, row)
		aligned[i] = cells
	}
	return aligned
}
