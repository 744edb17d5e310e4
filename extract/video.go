package extract

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/poiesic/pagewise/ai"
	"github.com/poiesic/pagewise/core"
)

var errEmptyAnalysis = errors.New("provider returned an empty analysis")

// Video delegates transcription and summarization to a VideoAnalyzer and
// emits exactly one page.
type Video struct {
	analyzer ai.VideoAnalyzer
}

var _ Extractor = (*Video)(nil)

// NewVideo creates a video extractor.
func NewVideo(analyzer ai.VideoAnalyzer) *Video {
	return &Video{analyzer: analyzer}
}

func (x *Video) Family() string { return "video" }

// Extract sends the whole video in one request. The page text is the
// transcript, or the summary when the video has no speech.
func (x *Video) Extract(ctx context.Context, content []byte, filename string) ([]core.Page, error) {
	mimeType := mime.TypeByExtension(strings.ToLower(path.Ext(filename)))
	if !strings.HasPrefix(mimeType, "video/") {
		mimeType = core.ContentTypeMP4
	}

	analysis, err := x.analyzer.AnalyzeVideo(ctx, content, mimeType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrProviderFailure, err)
	}

	text := strings.TrimSpace(analysis.Transcript)
	if text == "" {
		text = strings.TrimSpace(analysis.Summary)
	}
	if text == "" {
		return nil, core.Tag(core.ErrProviderFailure, errEmptyAnalysis)
	}

	moments := make([]map[string]string, 0, len(analysis.KeyMoments))
	for _, m := range analysis.KeyMoments {
		moments = append(moments, map[string]string{
			"timestamp":   m.Timestamp,
			"description": m.Description,
		})
	}

	page := core.Page{Number: 1, Text: text}
	page.SetMetadata("summary", analysis.Summary)
	page.SetMetadata("key_moments", moments)
	return []core.Page{page}, nil
}
