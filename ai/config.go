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


package ai

import (
	"errors"
	"strings"
)

// Supported inference backends.
const (
	// BackendGoogleAI talks to the Gemini API and accepts image, video and
	// audio payloads.
	BackendGoogleAI = "googleai"

	// BackendOpenAI talks to an OpenAI-compatible server (Ollama, vLLM,
	// LocalAI). Only image analysis is expected to work against most of them.
	BackendOpenAI = "openai"
)

// Config holds configuration for inference providers.
type Config struct {
	// Backend selects the provider implementation.
	// Example: "googleai", "openai"
	Backend string

	// Host is the base URL of an OpenAI-compatible API. Unused by googleai.
	// Example: "http://localhost:11434/v1"
	Host string

	// APIKey authenticates against the backend. Required for googleai.
	APIKey string

	// VisionModel analyzes images (OCR, tables, classification).
	// Example: "gemini-2.0-flash", "llava:13b"
	VisionModel string

	// VideoModel produces transcripts, summaries and key moments for videos.
	VideoModel string

	// TranscriptionModel transcribes audio chunks.
	TranscriptionModel string

	// MaxAttempts bounds generation attempts when a response is not valid JSON.
	// Default: 3
	MaxAttempts int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithBackend sets the provider backend.
func WithBackend(backend string) ConfigOption {
	return func(c *Config) {
		c.Backend = backend
	}
}

// WithHost sets the OpenAI-compatible host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithAPIKey sets the backend API key.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithModel sets the vision, video and transcription models to the same model.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.VisionModel = model
		c.VideoModel = model
		c.TranscriptionModel = model
	}
}

// WithVisionModel sets the image analysis model.
func WithVisionModel(model string) ConfigOption {
	return func(c *Config) {
		c.VisionModel = model
	}
}

// WithVideoModel sets the video analysis model.
func WithVideoModel(model string) ConfigOption {
	return func(c *Config) {
		c.VideoModel = model
	}
}

// WithTranscriptionModel sets the audio transcription model.
func WithTranscriptionModel(model string) ConfigOption {
	return func(c *Config) {
		c.TranscriptionModel = model
	}
}

// WithMaxAttempts sets the number of generation attempts per request.
func WithMaxAttempts(n int) ConfigOption {
	return func(c *Config) {
		c.MaxAttempts = n
	}
}

// DefaultConfig returns a Config targeting Gemini with one model for every task.
// The API key is left empty and must be supplied.
func DefaultConfig() *Config {
	defaultModel := "gemini-2.0-flash"
	return &Config{
		Backend:            BackendGoogleAI,
		VisionModel:        defaultModel,
		VideoModel:         defaultModel,
		TranscriptionModel: defaultModel,
		MaxAttempts:        3,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithAPIKey(os.Getenv("GEMINI_API_KEY")),
//	)
//
// Example with a local OpenAI-compatible server:
//
//	cfg := NewConfig(
//	    WithBackend(BackendOpenAI),
//	    WithHost("http://localhost:11434"),
//	    WithModel("llava:13b"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// The backend name is lower-cased and OpenAI-compatible hosts get the /v1
// suffix most servers expect.
func (c *Config) Normalize() {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == BackendOpenAI && c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		c.Host = strings.TrimSuffix(c.Host, "/")
		c.Host = c.Host + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	switch c.Backend {
	case BackendGoogleAI:
		if c.APIKey == "" {
			return errors.New("ai config: APIKey is required for the googleai backend")
		}
	case BackendOpenAI:
		if c.Host == "" {
			return errors.New("ai config: Host is required for the openai backend")
		}
	default:
		return errors.New("ai config: Backend must be googleai or openai")
	}
	if c.VisionModel == "" {
		return errors.New("ai config: VisionModel is required")
	}
	if c.VideoModel == "" {
		return errors.New("ai config: VideoModel is required")
	}
	if c.TranscriptionModel == "" {
		return errors.New("ai config: TranscriptionModel is required")
	}
	if c.MaxAttempts < 1 {
		return errors.New("ai config: MaxAttempts must be at least 1")
	}
	return nil
}
