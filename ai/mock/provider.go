// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mock

import "github.com/poiesic/pagewise/ai"

// MockProvider is a test double for ai.AIProvider.
// It aggregates the mock analyzers and transcriber.
type MockProvider struct {
	image       *MockImageAnalyzer
	video       *MockVideoAnalyzer
	transcriber *MockTranscriber
	closed      bool
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.AIProvider interface for consistency with production constructors.
// Use the GetMock* methods to access concrete types for test assertions.
func NewMockProvider() ai.AIProvider {
	return &MockProvider{
		image:       NewMockImageAnalyzer(),
		video:       NewMockVideoAnalyzer(),
		transcriber: NewMockTranscriber(),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
// Nil services are replaced with defaults.
func NewMockProviderWithServices(image *MockImageAnalyzer, video *MockVideoAnalyzer, transcriber *MockTranscriber) ai.AIProvider {
	if image == nil {
		image = NewMockImageAnalyzer()
	}
	if video == nil {
		video = NewMockVideoAnalyzer()
	}
	if transcriber == nil {
		transcriber = NewMockTranscriber()
	}
	return &MockProvider{
		image:       image,
		video:       video,
		transcriber: transcriber,
	}
}

// ImageAnalyzer returns the mock image analyzer.
func (p *MockProvider) ImageAnalyzer() ai.ImageAnalyzer {
	return p.image
}

// VideoAnalyzer returns the mock video analyzer.
func (p *MockProvider) VideoAnalyzer() ai.VideoAnalyzer {
	return p.video
}

// Transcriber returns the mock transcriber.
func (p *MockProvider) Transcriber() ai.Transcriber {
	return p.transcriber
}

// Close marks the provider closed.
func (p *MockProvider) Close() error {
	p.closed = true
	return nil
}

// Closed reports whether Close was called.
func (p *MockProvider) Closed() bool {
	return p.closed
}

// GetMockImageAnalyzer returns the underlying mock image analyzer for test assertions.
func (p *MockProvider) GetMockImageAnalyzer() *MockImageAnalyzer {
	return p.image
}

// GetMockVideoAnalyzer returns the underlying mock video analyzer for test assertions.
func (p *MockProvider) GetMockVideoAnalyzer() *MockVideoAnalyzer {
	return p.video
}

// GetMockTranscriber returns the underlying mock transcriber for test assertions.
func (p *MockProvider) GetMockTranscriber() *MockTranscriber {
	return p.transcriber
}
