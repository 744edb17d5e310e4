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


// Package ingestion runs batches of uploads, URLs and drive references
// through the extractors and persists what they produce.
//
// A Coordinator handles one batch at a time:
//
//   - uploads are sniffed, size checked and routed through the registry
//   - URLs go to the web-page extractor
//   - drive references are resolved into files, then routed by their mime type
//
// The three groups run concurrently on one bounded worker pool. Every item
// yields exactly one result, and results are collected by position so the
// report order never depends on completion order. The successful results
// of each group are written to the sink with a single bulk insert.
//
// Monitors observe a run: ProgressMonitor prints progress lines and
// Metrics exports Prometheus counters.
package ingestion
