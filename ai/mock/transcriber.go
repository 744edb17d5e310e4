package mock

import (
	"context"
	"fmt"
	"sync"
)

// MockTranscriber is a test double for ai.Transcriber.
// Payload sizes are recorded in call order so tests can assert chunking.
type MockTranscriber struct {
	// TranscribeFunc is called by Transcribe if set.
	// If nil, returns "chunk N" where N counts calls from 1.
	TranscribeFunc func(ctx context.Context, audio []byte, mimeType string) (string, error)

	mu        sync.Mutex
	callCount int
	sizes     []int
}

// NewMockTranscriber creates a mock transcriber with default behavior.
func NewMockTranscriber() *MockTranscriber {
	return &MockTranscriber{}
}

// Transcribe records the payload size and returns a transcript.
func (m *MockTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	m.mu.Lock()
	m.callCount++
	n := m.callCount
	m.sizes = append(m.sizes, len(audio))
	fn := m.TranscribeFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, audio, mimeType)
	}
	return fmt.Sprintf("chunk %d", n), nil
}

// CallCount returns the number of times Transcribe was called.
func (m *MockTranscriber) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Sizes returns the payload length of each call, in call order.
func (m *MockTranscriber) Sizes() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.sizes...)
}

// Reset clears the call history and custom function.
func (m *MockTranscriber) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.sizes = nil
	m.TranscribeFunc = nil
}
