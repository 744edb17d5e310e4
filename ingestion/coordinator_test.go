package ingestion

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/pagewise/core"
	"github.com/poiesic/pagewise/drive"
	"github.com/poiesic/pagewise/extract"
	"github.com/poiesic/pagewise/storage"
	"github.com/poiesic/pagewise/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubExtractor returns the content as one text page. Items named in
// delays finish late; items named in blocked wait for release.
type stubExtractor struct {
	mu      sync.Mutex
	calls   []string
	delays  map[string]time.Duration
	blocked map[string]bool
	release chan struct{}
}

func newStubExtractor() *stubExtractor {
	return &stubExtractor{
		delays:  make(map[string]time.Duration),
		blocked: make(map[string]bool),
		release: make(chan struct{}),
	}
}

func (s *stubExtractor) Family() string { return "TXT" }

func (s *stubExtractor) Extract(ctx context.Context, content []byte, filename string) ([]core.Page, error) {
	s.mu.Lock()
	s.calls = append(s.calls, filename)
	delay, blocked := s.delays[filename], s.blocked[filename]
	s.mu.Unlock()

	time.Sleep(delay)
	if blocked {
		<-s.release
	}
	return []core.Page{{Number: 1, Text: string(content)}}, nil
}

func (s *stubExtractor) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// failingSink rejects every write.
type failingSink struct {
	storage.SourceRepository
	err error
}

func (f *failingSink) InsertMany(ctx context.Context, records ...*core.SourceRecord) ([]core.ID, error) {
	return nil, f.err
}

func newSink(t *testing.T) storage.SourceRepository {
	t.Helper()
	sources, quotas, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		quotas.Close()
		sources.Close()
		backend.Close()
	})
	return sources
}

func newCoordinator(t *testing.T, registry *extract.Registry, sink storage.SourceRepository, opts ...Option) *Coordinator {
	t.Helper()
	c, err := NewCoordinator(registry, sink, opts...)
	require.NoError(t, err)
	t.Cleanup(c.Release)
	return c
}

func textRegistry(ex extract.Extractor) *extract.Registry {
	return extract.NewRegistry(extract.Register(ex, core.ContentTypeText))
}

func owner() core.Owner {
	return core.Owner{UserID: "user-1", WorkspaceID: "ws-1"}
}

func names(results []core.ExtractionResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Filename
	}
	return out
}

func TestRun_OrderIsDeterministic(t *testing.T) {
	stub := newStubExtractor()
	stub.delays["a.txt"] = 150 * time.Millisecond
	stub.delays["https://example.com/u"] = 50 * time.Millisecond

	client := drive.NewMemoryClient()
	client.AddFolder("folder", "Folder", "")
	client.AddFile("d1", "d1.txt", core.ContentTypeText, "folder", []byte("one"))
	client.AddFile("d2", "d2.txt", core.ContentTypeText, "folder", []byte("two"))

	c := newCoordinator(t, textRegistry(stub), newSink(t),
		WithPoolSize(4),
		WithWebExtractor(stub),
		WithDriveClientFactory(client.Factory()),
	)

	report, err := c.Run(context.Background(), &core.Batch{
		Owner:      owner(),
		Uploads:    []core.Upload{{Filename: "a.txt", Content: []byte("A")}, {Filename: "b.txt", Content: []byte("B")}},
		URLs:       []string{"https://example.com/u"},
		DriveIDs:   []string{"folder"},
		DriveToken: "token",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a.txt", "b.txt", "https://example.com/u", "d1.txt", "d2.txt"}, names(report.Results))
	assert.Equal(t, 5, report.Succeeded())
	assert.NotEmpty(t, report.BatchID)

	origins := []core.Origin{core.OriginUpload, core.OriginUpload, core.OriginURL, core.OriginDrive, core.OriginDrive}
	types := []string{"txt", "txt", "url", "drive", "drive"}
	for i, r := range report.Results {
		assert.Equal(t, origins[i], r.Origin)
		assert.Equal(t, types[i], r.SourceType)
		assert.Equal(t, 1, r.PageCount)
	}
}

func TestRun_PersistsOneRecordPerSuccess(t *testing.T) {
	sink := newSink(t)
	c := newCoordinator(t, textRegistry(newStubExtractor()), sink)

	report, err := c.Run(context.Background(), &core.Batch{
		Owner:   owner(),
		Uploads: []core.Upload{{Filename: "a.txt", Content: []byte("hello")}, {Filename: "x.zip", ContentType: "application/zip", Content: []byte("PK")}},
	})
	require.NoError(t, err)
	require.Len(t, report.Results, 2)

	ok := report.Results[0]
	assert.NotZero(t, ok.ID)
	assert.Empty(t, ok.PersistError)
	assert.Zero(t, report.Results[1].ID)

	records, err := sink.FindByBatch(context.Background(), report.BatchID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	record := records[0]
	assert.Equal(t, ok.ID, record.ID)
	assert.Equal(t, "user-1", record.UserID)
	assert.Equal(t, "ws-1", record.WorkspaceID)
	assert.Equal(t, "a.txt", record.Name)
	assert.Equal(t, "txt", record.Type)
	assert.Equal(t, int64(5), record.Size)
	assert.Equal(t, core.Checksum([]byte("hello")), record.Checksum)
	assert.Equal(t, "hello", record.Pages[0].Text)
}

func TestRun_SizeLimitSkipsExtractor(t *testing.T) {
	stub := newStubExtractor()
	c := newCoordinator(t, textRegistry(stub), newSink(t), WithMaxUploadSize(4))

	report, err := c.Run(context.Background(), &core.Batch{
		Uploads: []core.Upload{{Filename: "big.txt", Content: []byte("too large")}, {Filename: "ok.txt", Content: []byte("fine")}},
	})
	require.NoError(t, err)

	big := report.Results[0]
	assert.Equal(t, "File size exceeds 4 bytes", big.Error)
	assert.Equal(t, "size_limit_exceeded", big.ErrorKind)
	assert.Nil(t, big.Pages)
	assert.False(t, report.Results[1].Failed())
	assert.Equal(t, []string{"ok.txt"}, stub.Calls())
}

func TestRun_DefaultSizeLimitMessage(t *testing.T) {
	c := newCoordinator(t, textRegistry(newStubExtractor()), newSink(t))

	report, err := c.Run(context.Background(), &core.Batch{
		Uploads: []core.Upload{{Filename: "huge.txt", Content: make([]byte, DefaultMaxUploadSize+1)}},
	})
	require.NoError(t, err)
	assert.Equal(t, "File size exceeds 20MB", report.Results[0].Error)
}

func TestRun_UnsupportedTypeKeepsBatch(t *testing.T) {
	c := newCoordinator(t, textRegistry(newStubExtractor()), newSink(t))

	report, err := c.Run(context.Background(), &core.Batch{
		Uploads: []core.Upload{
			{Filename: "archive.zip", ContentType: "application/zip", Content: []byte("PK")},
			{Filename: "notes.txt", Content: []byte("notes")},
		},
	})
	require.NoError(t, err)
	require.Len(t, report.Results, 2)

	assert.Equal(t, "Unsupported file type", report.Results[0].Error)
	assert.Equal(t, "unsupported_type", report.Results[0].ErrorKind)
	assert.Equal(t, "notes", report.Results[1].Pages[0].Text)
}

func TestRun_TwoRowCSV(t *testing.T) {
	registry := extract.DefaultRegistry(nil, extract.DefaultPolicy())
	c := newCoordinator(t, registry, newSink(t))

	report, err := c.Run(context.Background(), &core.Batch{
		Owner:   owner(),
		Uploads: []core.Upload{{Filename: "people.csv", ContentType: "text/csv", Content: []byte("name,age\nada,36\ngrace,45\n")}},
	})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)

	result := report.Results[0]
	require.False(t, result.Failed(), result.Error)
	assert.Equal(t, 1, result.PageCount)
	require.Len(t, result.Pages[0].Tables, 1)
	table := result.Pages[0].Tables[0]
	assert.Equal(t, []string{"name", "age"}, table.Columns)
	assert.Len(t, table.Rows, 2)
	assert.Equal(t, "csv", result.SourceType)
}

func TestRun_ItemsWithoutContentFailAndAreNotPersisted(t *testing.T) {
	registry := extract.DefaultRegistry(nil, extract.DefaultPolicy())
	sink := newSink(t)
	c := newCoordinator(t, registry, sink)

	report, err := c.Run(context.Background(), &core.Batch{
		Owner: owner(),
		Uploads: []core.Upload{
			{Filename: "empty.txt", ContentType: "text/plain", Content: []byte{}},
			{Filename: "header.csv", ContentType: "text/csv", Content: []byte("a,b\n")},
			{Filename: "notes.txt", ContentType: "text/plain", Content: []byte("notes")},
		},
	})
	require.NoError(t, err)
	require.Len(t, report.Results, 3)

	empty, header := report.Results[0], report.Results[1]
	assert.Equal(t, "Failed to process TXT: no content extracted", empty.Error)
	assert.Equal(t, "Failed to process CSV: no content extracted", header.Error)
	for _, r := range []core.ExtractionResult{empty, header} {
		assert.True(t, r.Failed())
		assert.Equal(t, "extraction_failure", r.ErrorKind)
		assert.Nil(t, r.Pages)
		assert.Zero(t, r.ID)
	}
	assert.NotZero(t, report.Results[2].ID)

	records, err := sink.FindByBatch(context.Background(), report.BatchID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "notes.txt", records[0].Name)
}

func TestRun_OpaqueBinaryIsUnsupported(t *testing.T) {
	registry := extract.DefaultRegistry(nil, extract.DefaultPolicy())
	sink := newSink(t)
	c := newCoordinator(t, registry, sink)

	report, err := c.Run(context.Background(), &core.Batch{
		Owner:   owner(),
		Uploads: []core.Upload{{Filename: "blob", ContentType: core.ContentTypeOctetStream, Content: []byte{0x00, 0x9f, 0x01, 0xfe}}},
	})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "Unsupported file type", report.Results[0].Error)
	assert.Equal(t, "unsupported_type", report.Results[0].ErrorKind)
	assert.Zero(t, report.Results[0].ID)
}

func TestRun_URLNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	c := newCoordinator(t, textRegistry(newStubExtractor()), newSink(t))

	report, err := c.Run(context.Background(), &core.Batch{URLs: []string{server.URL + "/missing"}})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)

	result := report.Results[0]
	assert.Equal(t, "Failed to process URL: Failed to fetch URL: 404", result.Error)
	assert.Equal(t, "fetch_failure", result.ErrorKind)
	assert.Nil(t, result.Pages)
	assert.Equal(t, "url", result.SourceType)
}

func TestRun_TimeoutReportsUnfinishedItems(t *testing.T) {
	stub := newStubExtractor()
	stub.blocked["slow.txt"] = true
	t.Cleanup(func() { close(stub.release) })

	sink := newSink(t)
	c := newCoordinator(t, textRegistry(stub), sink, WithPoolSize(2), WithTimeout(100*time.Millisecond))

	start := time.Now()
	report, err := c.Run(context.Background(), &core.Batch{
		Uploads: []core.Upload{{Filename: "slow.txt", Content: []byte("s")}, {Filename: "fast.txt", Content: []byte("f")}},
	})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)

	slow, fast := report.Results[0], report.Results[1]
	assert.Equal(t, "Processing cancelled: context deadline exceeded", slow.Error)
	assert.Equal(t, "cancelled", slow.ErrorKind)
	assert.Nil(t, slow.Pages)
	assert.False(t, fast.Failed())
	assert.NotZero(t, fast.ID, "finished items are still persisted")
}

func TestRun_DriveFailuresAreIsolated(t *testing.T) {
	client := drive.NewMemoryClient()
	client.AddFolder("root", "Root", "")
	client.AddFile("doc", "Design doc", "application/vnd.google-apps.document", "root", []byte("x"))
	client.AddFolder("locked", "Locked", "root")
	client.AddFile("ok", "ok.txt", core.ContentTypeText, "root", []byte("fine"))
	client.ListErrors["locked"] = errors.New("permission denied")

	c := newCoordinator(t, textRegistry(newStubExtractor()), newSink(t), WithDriveClientFactory(client.Factory()))

	report, err := c.Run(context.Background(), &core.Batch{DriveIDs: []string{"root", "gone"}, DriveToken: "token"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Design doc", "Locked", "ok.txt", "gone"}, names(report.Results))
	assert.Equal(t, "Unsupported file type: application/vnd.google-apps.document", report.Results[0].Error)
	assert.Equal(t, "resolver_failure", report.Results[1].ErrorKind)
	assert.False(t, report.Results[2].Failed())
	assert.Equal(t, int64(4), report.Results[2].Size)
	assert.Equal(t, "resolver_failure", report.Results[3].ErrorKind)
	assert.Equal(t, []string{"ok"}, client.Downloads(), "unsupported files are not downloaded")
}

func TestRun_DriveWithoutFactory(t *testing.T) {
	c := newCoordinator(t, textRegistry(newStubExtractor()), newSink(t))

	report, err := c.Run(context.Background(), &core.Batch{DriveIDs: []string{"a", "b"}, DriveToken: "token"})
	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	for _, r := range report.Results {
		assert.Equal(t, "Failed to process Google Drive files: drive access is not configured", r.Error)
		assert.Equal(t, "resolver_failure", r.ErrorKind)
	}
}

func TestRun_PersistFailureKeepsResults(t *testing.T) {
	sink := &failingSink{err: errors.New("connection refused")}
	c := newCoordinator(t, textRegistry(newStubExtractor()), sink)

	report, err := c.Run(context.Background(), &core.Batch{Uploads: []core.Upload{{Filename: "a.txt", Content: []byte("a")}}})
	require.NoError(t, err)

	result := report.Results[0]
	assert.False(t, result.Failed())
	assert.Equal(t, "connection refused", result.PersistError)
	assert.Zero(t, result.ID)
}

func TestRun_InvalidBatch(t *testing.T) {
	stub := newStubExtractor()
	c := newCoordinator(t, textRegistry(stub), newSink(t))

	_, err := c.Run(context.Background(), &core.Batch{
		Uploads: []core.Upload{{Filename: "a.txt", Content: []byte("a")}},
		URLs:    []string{"not a url"},
	})
	assert.ErrorIs(t, err, core.ErrInvalidBatch)

	_, err = c.Run(context.Background(), &core.Batch{DriveIDs: []string{"x"}})
	assert.ErrorIs(t, err, core.ErrInvalidBatch)
	assert.Empty(t, stub.Calls())
}

func TestRun_EmptyBatch(t *testing.T) {
	c := newCoordinator(t, textRegistry(newStubExtractor()), newSink(t))

	report, err := c.Run(context.Background(), &core.Batch{})
	require.NoError(t, err)
	assert.Empty(t, report.Results)
}

func TestNewCoordinator_Validation(t *testing.T) {
	_, err := NewCoordinator(nil, newSink(t))
	assert.ErrorIs(t, err, ErrRegistryRequired)

	_, err = NewCoordinator(textRegistry(newStubExtractor()), nil)
	assert.ErrorIs(t, err, ErrSinkRequired)

	_, err = NewCoordinator(textRegistry(newStubExtractor()), newSink(t), WithMaxUploadSize(0))
	assert.ErrorIs(t, err, ErrInvalidMaxUploadSize)
}
