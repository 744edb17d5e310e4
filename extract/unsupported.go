package extract

import (
	"context"

	"github.com/poiesic/pagewise/core"
)

// Unsupported rejects every payload with core.ErrUnsupportedType.
type Unsupported struct{}

var _ Extractor = Unsupported{}

func (Unsupported) Family() string { return "file" }

func (Unsupported) Extract(ctx context.Context, content []byte, filename string) ([]core.Page, error) {
	return nil, core.ErrUnsupportedType
}
