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

import (
	"net/http"
	"slices"

	"github.com/poiesic/pagewise/ai"
	"github.com/poiesic/pagewise/core"
)

// Entry binds an Extractor to the content types it handles.
type Entry struct {
	ContentTypes []string
	Extractor    Extractor
}

// Register returns an Entry for NewRegistry.
func Register(ex Extractor, contentTypes ...string) Entry {
	return Entry{ContentTypes: contentTypes, Extractor: ex}
}

// Registry maps normalized content types to extractors.
// It is populated once by NewRegistry and never mutated afterwards, so
// lookups need no locking.
type Registry struct {
	extractors map[string]Extractor
}

// NewRegistry builds a registry from entries. Later entries win when a
// content type is registered twice.
func NewRegistry(entries ...Entry) *Registry {
	r := &Registry{extractors: make(map[string]Extractor)}
	for _, entry := range entries {
		if entry.Extractor == nil {
			continue
		}
		for _, ct := range entry.ContentTypes {
			ct = core.NormalizeContentType(ct)
			if ct == "" {
				continue
			}
			r.extractors[ct] = entry.Extractor
		}
	}
	return r
}

// Lookup returns the extractor for a content type. Parameters and case are
// ignored. Unknown types return core.ErrUnsupportedType.
func (r *Registry) Lookup(contentType string) (Extractor, error) {
	if ex, ok := r.extractors[core.NormalizeContentType(contentType)]; ok {
		return ex, nil
	}
	return nil, core.ErrUnsupportedType
}

// ContentTypes returns the registered content types in sorted order.
func (r *Registry) ContentTypes() []string {
	types := make([]string, 0, len(r.extractors))
	for ct := range r.extractors {
		types = append(types, ct)
	}
	slices.Sort(types)
	return types
}

// DefaultRegistry registers the built-in extractors under the content types
// accepted for upload. Image, audio and video extractors are only
// registered when provider is non-nil; without one those types are
// reported as unsupported. Payloads that sniff as opaque binary are routed
// to Unsupported.
func DefaultRegistry(provider ai.AIProvider, policy Policy) *Registry {
	policy = policy.Normalize()

	entries := []Entry{
		Register(NewPDF(), core.ContentTypePDF),
		Register(NewDocx(policy), core.ContentTypeMSWord, core.ContentTypeDocx),
		Register(NewPptx(), core.ContentTypeMSPowerPnt, core.ContentTypePptx),
		Register(NewText(policy), core.ContentTypeText),
		Register(NewCSV(policy), core.ContentTypeCSV, core.ContentTypeMSExcel),
		Register(NewSpreadsheet(policy), core.ContentTypeXlsx),
		Register(Unsupported{}, core.ContentTypeOctetStream),
	}
	if provider != nil {
		entries = append(entries,
			Register(NewAudio(provider.Transcriber(), policy), core.ContentTypeMP3, core.ContentTypeWAV),
			Register(NewImage(provider.ImageAnalyzer(), policy), core.ContentTypeJPEG, core.ContentTypePNG),
			Register(NewVideo(provider.VideoAnalyzer()), core.ContentTypeMP4),
		)
	}
	return NewRegistry(entries...)
}

// DefaultWebPage returns the web-page extractor used for URLs.
func DefaultWebPage(policy Policy) *WebPage {
	policy = policy.Normalize()
	return NewWebPage(&http.Client{Timeout: policy.FetchTimeout}, policy)
}
