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

import (
	"context"

	"github.com/poiesic/pagewise/core"
)

// FolderMimeType is the mime type drives report for folders.
const FolderMimeType = core.ContentTypeDriveFolder

// File is the metadata of one drive file or folder.
type File struct {
	ID       string
	Name     string
	MimeType string
	Size     int64
}

// IsFolder reports whether f is a folder.
func (f *File) IsFolder() bool {
	return f.MimeType == FolderMimeType
}

// DisplayName returns the file name, or its id when the name is unknown.
func (f *File) DisplayName() string {
	if f.Name != "" {
		return f.Name
	}
	return f.ID
}

// Client is the subset of a cloud-drive API the resolver needs.
// Implementations must be safe for concurrent use.
type Client interface {
	// GetFile returns the metadata of one file or folder.
	GetFile(ctx context.Context, id string) (*File, error)

	// ListChildren returns one page of the non-trashed children of a folder
	// and the token of the next page, or "" on the last page.
	ListChildren(ctx context.Context, folderID, pageToken string) ([]File, string, error)

	// Download returns the content of a file. Implementations fail once
	// more than limit bytes have been read.
	Download(ctx context.Context, id string, limit int64) ([]byte, error)
}

// ClientFactory builds a client bound to one caller supplied access token.
// Tokens are refreshed outside this package.
type ClientFactory func(ctx context.Context, token string) (Client, error)
