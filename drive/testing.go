package drive

import (
	"context"
	"fmt"
	"sync"

	"github.com/poiesic/pagewise/core"
)

// MemoryClient is an in-memory Client for tests. Folder listings are
// served PageSize children at a time.
type MemoryClient struct {
	mu       sync.Mutex
	files    map[string]*memoryFile
	PageSize int

	// GetErrors and ListErrors fail GetFile and ListChildren for the keyed ids.
	GetErrors  map[string]error
	ListErrors map[string]error

	listCalls int
	downloads []string
}

type memoryFile struct {
	file     File
	content  []byte
	children []string
}

// NewMemoryClient creates an empty in-memory drive.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		files:      make(map[string]*memoryFile),
		PageSize:   100,
		GetErrors:  make(map[string]error),
		ListErrors: make(map[string]error),
	}
}

// AddFolder adds a folder under parent ("" for the root).
func (c *MemoryClient) AddFolder(id, name, parent string) {
	c.add(parent, &memoryFile{file: File{ID: id, Name: name, MimeType: FolderMimeType}})
}

// AddFile adds a file under parent ("" for the root).
func (c *MemoryClient) AddFile(id, name, mimeType, parent string, content []byte) {
	c.add(parent, &memoryFile{
		file:    File{ID: id, Name: name, MimeType: mimeType, Size: int64(len(content))},
		content: content,
	})
}

func (c *MemoryClient) add(parent string, f *memoryFile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files[f.file.ID] = f
	if p, ok := c.files[parent]; ok {
		p.children = append(p.children, f.file.ID)
	}
}

// GetFile implements Client.
func (c *MemoryClient) GetFile(ctx context.Context, id string) (*File, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.GetErrors[id]; err != nil {
		return nil, err
	}
	f, ok := c.files[id]
	if !ok {
		return nil, fmt.Errorf("file %s not found", id)
	}
	file := f.file
	return &file, nil
}

// ListChildren implements Client. Page tokens are child offsets.
func (c *MemoryClient) ListChildren(ctx context.Context, folderID, pageToken string) ([]File, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listCalls++
	if err := c.ListErrors[folderID]; err != nil {
		return nil, "", err
	}
	f, ok := c.files[folderID]
	if !ok {
		return nil, "", fmt.Errorf("folder %s not found", folderID)
	}

	start := 0
	if pageToken != "" {
		if _, err := fmt.Sscanf(pageToken, "%d", &start); err != nil {
			return nil, "", fmt.Errorf("bad page token %q", pageToken)
		}
	}
	end := min(start+max(c.PageSize, 1), len(f.children))

	files := make([]File, 0, end-start)
	for _, id := range f.children[start:end] {
		files = append(files, c.files[id].file)
	}
	next := ""
	if end < len(f.children) {
		next = fmt.Sprintf("%d", end)
	}
	return files, next, nil
}

// Download implements Client.
func (c *MemoryClient) Download(ctx context.Context, id string, limit int64) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.downloads = append(c.downloads, id)
	f, ok := c.files[id]
	if !ok {
		return nil, fmt.Errorf("file %s not found", id)
	}
	if limit > 0 && int64(len(f.content)) > limit {
		return nil, core.SizeLimitError(limit)
	}
	return append([]byte(nil), f.content...), nil
}

// ListCalls returns the number of ListChildren calls.
func (c *MemoryClient) ListCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listCalls
}

// Downloads returns the downloaded ids in call order.
func (c *MemoryClient) Downloads() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.downloads...)
}

// Factory returns a ClientFactory that always hands out c.
func (c *MemoryClient) Factory() ClientFactory {
	return func(ctx context.Context, token string) (Client, error) {
		if token == "" {
			return nil, ErrTokenRequired
		}
		return c, nil
	}
}
