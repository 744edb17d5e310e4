package drive

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/poiesic/pagewise/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func newDriveServer(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	getCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/files/doc1", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("alt") == "media" {
			_, _ = w.Write([]byte("document body"))
			return
		}
		getCalls++
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "doc1", "name": "notes.txt", "mimeType": "text/plain", "size": "13",
		})
	})
	mux.HandleFunc("/files/nope", func(w http.ResponseWriter, r *http.Request) {
		getCalls++
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 404, "message": "File not found: nope."},
		})
	})
	mux.HandleFunc("/files", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "'folder1' in parents and trashed=false", r.URL.Query().Get("q"))
		if r.URL.Query().Get("pageToken") == "" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"nextPageToken": "p2",
				"files":         []map[string]any{{"id": "a", "name": "a.pdf", "mimeType": "application/pdf"}},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"files": []map[string]any{{"id": "b", "name": "b", "mimeType": FolderMimeType}},
		})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &getCalls
}

func newTestGoogleClient(t *testing.T, server *httptest.Server) *GoogleClient {
	t.Helper()
	client, err := NewGoogleClient(context.Background(), "token",
		option.WithEndpoint(server.URL+"/"),
		option.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)
	return client
}

func TestGoogleClient_GetFileAndDownload(t *testing.T) {
	server, _ := newDriveServer(t)
	client := newTestGoogleClient(t, server)

	file, err := client.GetFile(context.Background(), "doc1")
	require.NoError(t, err)
	assert.Equal(t, &File{ID: "doc1", Name: "notes.txt", MimeType: "text/plain", Size: 13}, file)

	content, err := client.Download(context.Background(), "doc1", 1024)
	require.NoError(t, err)
	assert.Equal(t, "document body", string(content))

	_, err = client.Download(context.Background(), "doc1", 4)
	assert.ErrorIs(t, err, core.ErrSizeLimitExceeded)
}

func TestGoogleClient_NotFoundIsNotRetried(t *testing.T) {
	server, getCalls := newDriveServer(t)
	client := newTestGoogleClient(t, server)

	_, err := client.GetFile(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, 1, *getCalls)
}

func TestGoogleClient_ListChildren(t *testing.T) {
	server, _ := newDriveServer(t)
	client := newTestGoogleClient(t, server)

	files, next, err := client.ListChildren(context.Background(), "folder1", "")
	require.NoError(t, err)
	assert.Equal(t, "p2", next)
	require.Len(t, files, 1)
	assert.Equal(t, "a.pdf", files[0].Name)

	files, next, err = client.ListChildren(context.Background(), "folder1", next)
	require.NoError(t, err)
	assert.Empty(t, next)
	require.Len(t, files, 1)
	assert.True(t, files[0].IsFolder())
}

func TestNewGoogleClient_RequiresToken(t *testing.T) {
	_, err := NewGoogleClient(context.Background(), "")
	assert.ErrorIs(t, err, ErrTokenRequired)
}
