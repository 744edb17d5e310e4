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

// Package discover finds web sources for a topic and stores them next to
// the sources users ingest themselves.
//
// A Discoverer runs a fixed set of query templates against a Searcher.
// Each template produces one batch: its hits are chunked into pages like
// plain text and written to the sink with a single bulk insert. An
// AdmissionCheck runs before any search so callers can cap how often an
// owner discovers.
//
// Exa is the shipped Searcher:
//
//	searcher, err := discover.NewExa(os.Getenv("EXA_API_KEY"))
//	quota, err := discover.NewDailyQuota(quotas, 10)
//	d, err := discover.NewDiscoverer(searcher, sources, discover.WithAdmission(quota))
//	report, err := d.Discover(ctx, owner, "category theory")
package discover
