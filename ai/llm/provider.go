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


package llm

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/pagewise/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
)

// Provider implements ai.AIProvider on top of a langchaingo model.
// All services share one client.
type Provider struct {
	config      *ai.Config
	client      llms.Model
	image       *ImageAnalyzer
	video       *VideoAnalyzer
	transcriber *Transcriber
	logger      *slog.Logger
}

// NewProvider creates a provider for the configured backend.
// The config is validated and normalized before use.
//
// Returns ai.AIProvider interface (not *Provider) to keep callers
// independent of the backend.
func NewProvider(ctx context.Context, config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := newClient(ctx, config)
	if err != nil {
		return nil, err
	}
	return newProvider(client, config), nil
}

// NewProviderWithModel creates a provider around an existing langchaingo model.
// Useful for backends this package does not construct itself.
func NewProviderWithModel(client llms.Model, config *ai.Config) (ai.AIProvider, error) {
	if client == nil {
		return nil, fmt.Errorf("llm: model is required")
	}
	config.Normalize()
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	return newProvider(client, config), nil
}

func newProvider(client llms.Model, config *ai.Config) *Provider {
	return &Provider{
		config:      config,
		client:      client,
		image:       newImageAnalyzer(client, config),
		video:       newVideoAnalyzer(client, config),
		transcriber: newTranscriber(client, config),
		logger:      slog.Default().With("component", "llm-provider", "backend", config.Backend),
	}
}

// newClient builds the langchaingo client for the configured backend.
func newClient(ctx context.Context, config *ai.Config) (llms.Model, error) {
	switch config.Backend {
	case ai.BackendGoogleAI:
		return googleai.New(ctx,
			googleai.WithAPIKey(config.APIKey),
			googleai.WithDefaultModel(config.VisionModel),
		)
	case ai.BackendOpenAI:
		// Local OpenAI-compatible servers accept any token
		token := config.APIKey
		if token == "" {
			token = "none"
		}
		return openai.New(
			openai.WithBaseURL(config.Host),
			openai.WithToken(token),
			openai.WithModel(config.VisionModel),
		)
	default:
		return nil, fmt.Errorf("llm: unsupported backend %q", config.Backend)
	}
}

// ImageAnalyzer returns the image analysis service.
func (p *Provider) ImageAnalyzer() ai.ImageAnalyzer {
	return p.image
}

// VideoAnalyzer returns the video analysis service.
func (p *Provider) VideoAnalyzer() ai.VideoAnalyzer {
	return p.video
}

// Transcriber returns the speech-to-text service.
func (p *Provider) Transcriber() ai.Transcriber {
	return p.transcriber
}

// Close releases the underlying client when it holds resources.
func (p *Provider) Close() error {
	p.logger.Debug("closing provider")
	if closer, ok := p.client.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
