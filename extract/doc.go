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


// Package extract turns raw payloads into normalized pages.
//
// Each content family has one Extractor. A Registry, built once with
// NewRegistry or DefaultRegistry, maps normalized content types to
// extractors and is read-only afterwards. Process wraps an extractor call
// so that every failure, including a panic, becomes an error result.
//
// Pagination follows a Policy:
//
//   - Text: fixed character windows
//   - CSV and XLSX: fixed row windows, one table per page, the header row
//     repeated on every page of its sheet
//   - DOCX: paragraphs accumulate until a length threshold closes the page
//   - PPTX: one page per non-empty slide
//   - PDF: one page per page with text
//   - Image, video and web page: exactly one page
//   - Audio: one page per fixed-duration chunk, transcribed in order
//
// # Usage
//
//	registry := extract.DefaultRegistry(provider, extract.DefaultPolicy())
//	ex, err := registry.Lookup("text/csv")
//	if err != nil {
//	    // core.ErrUnsupportedType
//	}
//	result := extract.Process(ctx, ex, content, "people.csv")
package extract
