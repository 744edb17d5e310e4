package llm

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/tmc/langchaingo/llms"
)

// ErrNoChoices is returned when the model answers without any choice.
var ErrNoChoices = errors.New("model returned no choices")

// jsonRequest is one multimodal request whose answer must decode into out.
type jsonRequest struct {
	model       string
	prompt      string
	mimeType    string
	payload     []byte
	maxAttempts int
}

// generateJSON sends the payload and prompt to the model in JSON mode and
// decodes the answer into out. Malformed answers are retried up to
// maxAttempts times; transport errors are returned immediately.
func generateJSON(ctx context.Context, client llms.Model, logger *slog.Logger, req jsonRequest, out any) error {
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.BinaryPart(req.mimeType, req.payload),
				llms.TextPart(req.prompt),
			},
		},
	}

	attempts := req.maxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		response, err := client.GenerateContent(ctx, content,
			llms.WithModel(req.model),
			llms.WithTemperature(0.0),
			llms.WithJSONMode(),
		)
		if err != nil {
			logger.Error("failed to generate content", "attempt", attempt+1, "model", req.model, "err", err)
			return err
		}

		if len(response.Choices) < 1 {
			logger.Debug("no choices returned from model", "model", req.model)
			return ErrNoChoices
		}

		responseText := repairJSON(stripCodeFences(response.Choices[0].Content))

		if err := json.Unmarshal([]byte(responseText), out); err != nil {
			lastErr = err
			logger.Warn("error parsing model response",
				"attempt", attempt+1,
				"response", truncate(responseText, 200),
				"err", err)
			continue
		}

		return nil
	}

	logger.Error("failed to parse model response after retries", "model", req.model, "err", lastErr)
	return lastErr
}
