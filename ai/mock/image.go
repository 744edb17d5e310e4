package mock

import (
	"context"
	"sync"

	"github.com/poiesic/pagewise/ai"
)

// MockImageAnalyzer is a test double for ai.ImageAnalyzer.
// It allows custom behavior injection via function fields.
type MockImageAnalyzer struct {
	// AnalyzeImageFunc is called by AnalyzeImage if set.
	// If nil, returns a document with no text.
	AnalyzeImageFunc func(ctx context.Context, image []byte, mimeType string) (*ai.ImageAnalysis, error)

	mu        sync.Mutex
	callCount int
	mimeTypes []string
}

// NewMockImageAnalyzer creates a mock image analyzer with default behavior.
func NewMockImageAnalyzer() *MockImageAnalyzer {
	return &MockImageAnalyzer{}
}

// AnalyzeImage records the call and delegates to AnalyzeImageFunc.
func (m *MockImageAnalyzer) AnalyzeImage(ctx context.Context, image []byte, mimeType string) (*ai.ImageAnalysis, error) {
	m.mu.Lock()
	m.callCount++
	m.mimeTypes = append(m.mimeTypes, mimeType)
	fn := m.AnalyzeImageFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, image, mimeType)
	}
	return &ai.ImageAnalysis{
		Description: "mock image",
		Type:        "document",
		Tables:      []ai.Table{},
	}, nil
}

// CallCount returns the number of times AnalyzeImage was called.
func (m *MockImageAnalyzer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// MimeTypes returns the content types passed to AnalyzeImage, in call order.
func (m *MockImageAnalyzer) MimeTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.mimeTypes...)
}

// Reset clears the call history and custom function.
func (m *MockImageAnalyzer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.mimeTypes = nil
	m.AnalyzeImageFunc = nil
}
