package ai

import "context"

// ImageAnalyzer extracts text, tables and a classification from an image.
// Implementations must be thread-safe for concurrent use.
type ImageAnalyzer interface {
	// AnalyzeImage performs OCR, table detection and classification on the
	// image bytes. mimeType is the image's content type (e.g. "image/png").
	// Returns an error if the provider call fails or its answer is unusable.
	AnalyzeImage(ctx context.Context, image []byte, mimeType string) (*ImageAnalysis, error)
}

// VideoAnalyzer produces a transcript, summary and key moments for a video.
// Implementations must be thread-safe for concurrent use.
type VideoAnalyzer interface {
	// AnalyzeVideo sends the whole video to the provider in one request.
	AnalyzeVideo(ctx context.Context, video []byte, mimeType string) (*VideoAnalysis, error)
}

// Transcriber converts speech to text.
// Implementations must be thread-safe for concurrent use.
type Transcriber interface {
	// Transcribe returns the transcript of one audio payload. Callers that
	// split long recordings submit chunks one at a time, in order.
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// AIProvider aggregates inference services for convenient initialization and lifecycle management.
type AIProvider interface {
	// ImageAnalyzer returns the image analysis service.
	ImageAnalyzer() ImageAnalyzer

	// VideoAnalyzer returns the video analysis service.
	VideoAnalyzer() VideoAnalyzer

	// Transcriber returns the speech-to-text service.
	Transcriber() Transcriber

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
