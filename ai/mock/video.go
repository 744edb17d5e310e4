package mock

import (
	"context"
	"sync"

	"github.com/poiesic/pagewise/ai"
)

// MockVideoAnalyzer is a test double for ai.VideoAnalyzer.
type MockVideoAnalyzer struct {
	// AnalyzeVideoFunc is called by AnalyzeVideo if set.
	AnalyzeVideoFunc func(ctx context.Context, video []byte, mimeType string) (*ai.VideoAnalysis, error)

	mu        sync.Mutex
	callCount int
}

// NewMockVideoAnalyzer creates a mock video analyzer with default behavior.
func NewMockVideoAnalyzer() *MockVideoAnalyzer {
	return &MockVideoAnalyzer{}
}

// AnalyzeVideo returns a fixed transcript unless AnalyzeVideoFunc is set.
func (m *MockVideoAnalyzer) AnalyzeVideo(ctx context.Context, video []byte, mimeType string) (*ai.VideoAnalysis, error) {
	m.mu.Lock()
	m.callCount++
	fn := m.AnalyzeVideoFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, video, mimeType)
	}
	return &ai.VideoAnalysis{
		Transcript: "mock transcript",
		Summary:    "mock summary",
		KeyMoments: []ai.KeyMoment{},
	}, nil
}

// CallCount returns the number of times AnalyzeVideo was called.
func (m *MockVideoAnalyzer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and custom function.
func (m *MockVideoAnalyzer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.AnalyzeVideoFunc = nil
}
