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


package extract

import "time"

// Policy holds the chunking constants shared by the extractors.
type Policy struct {
	// TextWindow is the number of characters per plain-text page.
	// Default: 500
	TextWindow int `yaml:"text_window"`

	// RowWindow is the number of data rows per tabular page.
	// Default: 1000
	RowWindow int `yaml:"row_window"`

	// ParagraphThreshold closes a word-processing page once its paragraphs
	// exceed this many characters.
	// Default: 500
	ParagraphThreshold int `yaml:"paragraph_threshold"`

	// AudioChunk is the duration of audio transcribed per request.
	// Default: 10m
	AudioChunk time.Duration `yaml:"audio_chunk"`

	// MaxImageDimension bounds the longest side of images sent to the
	// provider. Larger images are downscaled; the stored asset keeps the
	// original bytes.
	// Default: 2048
	MaxImageDimension int `yaml:"max_image_dimension"`

	// FetchTimeout bounds each web page and image request.
	// Default: 30s
	FetchTimeout time.Duration `yaml:"fetch_timeout"`

	// UserAgent is sent with every web request.
	UserAgent string `yaml:"user_agent"`
}

// DefaultPolicy returns the default chunking policy.
func DefaultPolicy() Policy {
	return Policy{
		TextWindow:         500,
		RowWindow:          1000,
		ParagraphThreshold: 500,
		AudioChunk:         10 * time.Minute,
		MaxImageDimension:  2048,
		FetchTimeout:       30 * time.Second,
		UserAgent:          "pagewise/1.0 (+https://github.com/poiesic/pagewise)",
	}
}

// Normalize replaces unset or invalid fields with their defaults.
func (p Policy) Normalize() Policy {
	d := DefaultPolicy()
	if p.TextWindow < 1 {
		p.TextWindow = d.TextWindow
	}
	if p.RowWindow < 1 {
		p.RowWindow = d.RowWindow
	}
	if p.ParagraphThreshold < 1 {
		p.ParagraphThreshold = d.ParagraphThreshold
	}
	if p.AudioChunk <= 0 {
		p.AudioChunk = d.AudioChunk
	}
	if p.MaxImageDimension < 1 {
		p.MaxImageDimension = d.MaxImageDimension
	}
	if p.FetchTimeout <= 0 {
		p.FetchTimeout = d.FetchTimeout
	}
	if p.UserAgent == "" {
		p.UserAgent = d.UserAgent
	}
	return p
}
