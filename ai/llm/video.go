package llm

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"github.com/poiesic/pagewise/ai"
	"github.com/tmc/langchaingo/llms"
)

// VideoAnalyzer implements ai.VideoAnalyzer with a multimodal chat model.
type VideoAnalyzer struct {
	client      llms.Model
	model       string
	maxAttempts int
	logger      *slog.Logger
}

var _ ai.VideoAnalyzer = (*VideoAnalyzer)(nil)

type keyMoment struct {
	// Models answer with either "12.5" or 12.5
	Timestamp   json.RawMessage `json:"timestamp"`
	Description string          `json:"description"`
}

type videoAnswer struct {
	Transcript string      `json:"transcript"`
	Summary    string      `json:"summary"`
	KeyMoments []keyMoment `json:"key_moments"`
}

func newVideoAnalyzer(client llms.Model, config *ai.Config) *VideoAnalyzer {
	return &VideoAnalyzer{
		client:      client,
		model:       config.VideoModel,
		maxAttempts: config.MaxAttempts,
		logger:      slog.Default().With("component", "llm-video-analyzer"),
	}
}

// AnalyzeVideo sends the whole video in one request.
func (a *VideoAnalyzer) AnalyzeVideo(ctx context.Context, video []byte, mimeType string) (*ai.VideoAnalysis, error) {
	var answer videoAnswer
	err := generateJSON(ctx, a.client, a.logger, jsonRequest{
		model:       a.model,
		prompt:      buildVideoPrompt(),
		mimeType:    mimeType,
		payload:     video,
		maxAttempts: a.maxAttempts,
	}, &answer)
	if err != nil {
		return nil, err
	}

	analysis := &ai.VideoAnalysis{
		Transcript: strings.TrimSpace(answer.Transcript),
		Summary:    strings.TrimSpace(answer.Summary),
		KeyMoments: make([]ai.KeyMoment, 0, len(answer.KeyMoments)),
	}
	for _, m := range answer.KeyMoments {
		analysis.KeyMoments = append(analysis.KeyMoments, ai.KeyMoment{
			Timestamp:   timestampString(m.Timestamp),
			Description: strings.TrimSpace(m.Description),
		})
	}

	a.logger.Debug("analyzed video", "key_moments", len(analysis.KeyMoments))
	return analysis, nil
}

// timestampString renders a JSON string or number timestamp as text.
func timestampString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strings.TrimSpace(string(raw))
}
