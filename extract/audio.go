package extract

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/poiesic/pagewise/ai"
	"github.com/poiesic/pagewise/core"
)

// Audio transcribes recordings in fixed-duration chunks.
type Audio struct {
	transcriber ai.Transcriber
	chunk       time.Duration
}

var _ Extractor = (*Audio)(nil)

// NewAudio creates an audio extractor using policy.AudioChunk.
func NewAudio(transcriber ai.Transcriber, policy Policy) *Audio {
	return &Audio{transcriber: transcriber, chunk: policy.Normalize().AudioChunk}
}

func (x *Audio) Family() string { return "audio" }

// Extract splits the recording and transcribes the chunks one at a time,
// in order. Each chunk with a non-empty transcript becomes a page with
// chunk_start and chunk_end offsets in seconds.
func (x *Audio) Extract(ctx context.Context, content []byte, filename string) ([]core.Page, error) {
	mimeType := core.ContentTypeForFilename(filename)
	if !strings.HasPrefix(mimeType, "audio/") {
		mimeType = core.ContentTypeMP3
		if isWAV(content) {
			mimeType = core.ContentTypeWAV
		}
	}

	chunks, err := splitAudio(content, mimeType, x.chunk)
	if err != nil {
		return nil, err
	}

	pages := make([]core.Page, 0, len(chunks))
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		transcript, err := x.transcriber.Transcribe(ctx, chunk.data, mimeType)
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %d: %w", core.ErrProviderFailure, i+1, err)
		}
		transcript = strings.TrimSpace(transcript)
		if transcript == "" {
			continue
		}
		page := core.Page{Number: len(pages) + 1, Text: transcript}
		page.SetMetadata("chunk_start", seconds(chunk.start))
		page.SetMetadata("chunk_end", seconds(chunk.end))
		pages = append(pages, page)
	}
	return pages, nil
}

// seconds rounds d to milliseconds and returns it in seconds.
func seconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*1000) / 1000
}
