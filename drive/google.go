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
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/poiesic/pagewise/core"
	"github.com/poiesic/pagewise/retry"
	"golang.org/x/oauth2"
	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	fileFields = "id, name, mimeType, size"
	listFields = "nextPageToken, files(id, name, mimeType, size)"
)

// GoogleClient implements Client with the Google Drive v3 API.
type GoogleClient struct {
	service     *gdrive.Service
	maxAttempts int
}

var _ Client = (*GoogleClient)(nil)

// NewGoogleClient creates a client that authenticates every call with
// token. Extra client options are applied after the token source, so a
// caller can point the client at another endpoint.
func NewGoogleClient(ctx context.Context, token string, opts ...option.ClientOption) (*GoogleClient, error) {
	if token == "" {
		return nil, ErrTokenRequired
	}
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	clientOpts := append([]option.ClientOption{option.WithTokenSource(source)}, opts...)

	service, err := gdrive.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating drive service: %w", err)
	}
	return &GoogleClient{service: service, maxAttempts: retry.DefaultMaxAttempts}, nil
}

// GoogleClientFactory is a ClientFactory for the Google Drive API.
func GoogleClientFactory(ctx context.Context, token string) (Client, error) {
	return NewGoogleClient(ctx, token)
}

// GetFile returns the metadata of one file or folder.
func (c *GoogleClient) GetFile(ctx context.Context, id string) (*File, error) {
	var file *gdrive.File
	err := retry.WithBackoff(ctx, func(ctx context.Context) error {
		var err error
		file, err = c.service.Files.Get(id).
			Fields(fileFields).
			SupportsAllDrives(true).
			Context(ctx).
			Do()
		return classify(err)
	}, c.maxAttempts, retry.DefaultBaseDelay)
	if err != nil {
		return nil, err
	}
	return toFile(file), nil
}

// ListChildren returns one page of the non-trashed children of folderID.
func (c *GoogleClient) ListChildren(ctx context.Context, folderID, pageToken string) ([]File, string, error) {
	query := fmt.Sprintf("'%s' in parents and trashed=false", folderID)

	var list *gdrive.FileList
	err := retry.WithBackoff(ctx, func(ctx context.Context) error {
		call := c.service.Files.List().
			Q(query).
			Fields(listFields).
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		var err error
		list, err = call.Do()
		return classify(err)
	}, c.maxAttempts, retry.DefaultBaseDelay)
	if err != nil {
		return nil, "", err
	}

	files := make([]File, 0, len(list.Files))
	for _, f := range list.Files {
		files = append(files, *toFile(f))
	}
	return files, list.NextPageToken, nil
}

// Download returns the content of a file, failing once more than limit
// bytes have been read. A non-positive limit disables the cap.
// Downloads are not retried.
func (c *GoogleClient) Download(ctx context.Context, id string, limit int64) ([]byte, error) {
	resp, err := c.service.Files.Get(id).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if limit <= 0 {
		return io.ReadAll(resp.Body)
	}
	if resp.ContentLength > limit {
		return nil, core.SizeLimitError(limit)
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(content)) > limit {
		return nil, core.SizeLimitError(limit)
	}
	return content, nil
}

func toFile(f *gdrive.File) *File {
	return &File{ID: f.Id, Name: f.Name, MimeType: f.MimeType, Size: f.Size}
}

// classify stops retries on client errors other than rate limiting.
func classify(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != http.StatusTooManyRequests {
			return retry.Permanent(err)
		}
	}
	return err
}
