// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.ImageAnalyzer,
// ai.VideoAnalyzer, ai.Transcriber and ai.AIProvider for use in unit tests.
// The mocks let extractors run without a model and make their behavior
// deterministic.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	provider := mock.NewMockProvider()
//	text, err := provider.Transcriber().Transcribe(ctx, chunk, "audio/wav")
//
//	// Custom behavior injection
//	images := mock.NewMockImageAnalyzer()
//	images.AnalyzeImageFunc = func(ctx context.Context, b []byte, mt string) (*ai.ImageAnalysis, error) {
//	    return &ai.ImageAnalysis{Text: "Invoice #42", Type: "invoice"}, nil
//	}
//
//	// Check call counts
//	count := images.CallCount()
//
// # Default Behavior
//
//   - MockImageAnalyzer: a "document" with no text or tables
//   - MockVideoAnalyzer: a fixed transcript and summary
//   - MockTranscriber: "chunk N" for the Nth call
//   - MockProvider: aggregates the three
package mock
