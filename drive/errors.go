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

package drive

import "errors"

var (
	// ErrClientRequired is returned when a resolver is built without a client.
	ErrClientRequired = errors.New("drive client is required")

	// ErrTokenRequired is returned when a client is built without an access token.
	ErrTokenRequired = errors.New("drive access token is required")

	// ErrInvalidMaxSize is returned for a non-positive download cap.
	ErrInvalidMaxSize = errors.New("max download size must be positive")

	// ErrFolderDownload is returned when Fetch is called on a folder entry.
	ErrFolderDownload = errors.New("cannot download a folder")
)
