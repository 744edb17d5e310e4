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


// Package ai provides abstractions for the inference services used by pagewise.
//
// Extractors that cannot parse their content locally (images, video, audio)
// delegate to providers through the interfaces in this package, so the
// extraction pipeline depends on abstractions rather than on a vendor SDK.
//
// # Interfaces
//
//   - ImageAnalyzer: OCR, table detection and classification of images
//   - VideoAnalyzer: transcript, summary and key moments of a video
//   - Transcriber: speech-to-text for audio chunks
//   - AIProvider: aggregates the services for initialization and shutdown
//
// # Implementation Packages
//
//   - ai/llm: production implementation on top of langchaingo (Gemini or an
//     OpenAI-compatible server)
//   - ai/mock: test doubles for unit testing without external services
//
// # Constructor Return Type Pattern
//
// Public constructors (llm.NewProvider) return INTERFACE types to keep callers
// decoupled from the backend. Test constructors (mock.NewMockImageAnalyzer and
// friends) return CONCRETE types so tests can inject behavior and assert call
// counts. mock.NewMockProvider returns the interface and exposes the concrete
// mocks through GetMockImageAnalyzer, GetMockVideoAnalyzer and GetMockTranscriber.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithAPIKey(os.Getenv("GEMINI_API_KEY")))
//	provider, err := llm.NewProvider(ctx, config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	analysis, err := provider.ImageAnalyzer().AnalyzeImage(ctx, data, "image/png")
package ai
