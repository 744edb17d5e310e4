package extract

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/poiesic/pagewise/core"
)

var errInvalidUTF8 = errors.New("content is not valid UTF-8")

// Text splits UTF-8 text into fixed-size character windows.
type Text struct {
	window int
}

var _ Extractor = (*Text)(nil)

// NewText creates a plain-text extractor using policy.TextWindow.
func NewText(policy Policy) *Text {
	return &Text{window: policy.Normalize().TextWindow}
}

func (x *Text) Family() string { return "TXT" }

// Extract emits one page per window of at most TextWindow characters.
// Empty content yields no pages.
func (x *Text) Extract(ctx context.Context, content []byte, filename string) ([]core.Page, error) {
	if !utf8.Valid(content) {
		return nil, errInvalidUTF8
	}

	runes := []rune(string(content))
	pages := make([]core.Page, 0, len(runes)/x.window+1)
	for start := 0; start < len(runes); start += x.window {
		end := min(start+x.window, len(runes))
		pages = append(pages, core.Page{
			Number: len(pages) + 1,
			Text:   string(runes[start:end]),
		})
	}
	return pages, nil
}
