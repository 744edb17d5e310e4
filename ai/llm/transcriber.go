package llm

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/pagewise/ai"
	"github.com/tmc/langchaingo/llms"
)

// Transcriber implements ai.Transcriber with an audio-capable chat model.
type Transcriber struct {
	client      llms.Model
	model       string
	maxAttempts int
	logger      *slog.Logger
}

var _ ai.Transcriber = (*Transcriber)(nil)

type transcriptAnswer struct {
	Transcript string `json:"transcript"`
}

func newTranscriber(client llms.Model, config *ai.Config) *Transcriber {
	return &Transcriber{
		client:      client,
		model:       config.TranscriptionModel,
		maxAttempts: config.MaxAttempts,
		logger:      slog.Default().With("component", "llm-transcriber"),
	}
}

// Transcribe returns the transcript of one audio payload.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	var answer transcriptAnswer
	err := generateJSON(ctx, t.client, t.logger, jsonRequest{
		model:       t.model,
		prompt:      transcriptionPrompt,
		mimeType:    mimeType,
		payload:     audio,
		maxAttempts: t.maxAttempts,
	}, &answer)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer.Transcript), nil
}
