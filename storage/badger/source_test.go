package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/pagewise/core"
	"github.com/poiesic/pagewise/storage"
)

func newRecord(name, batchID, checksum string) *core.SourceRecord {
	return &core.SourceRecord{
		UserID:      "user-1",
		WorkspaceID: "ws-1",
		Name:        name,
		Type:        "txt",
		Origin:      core.OriginUpload,
		Size:        5,
		PageCount:   1,
		Pages:       []core.Page{{Number: 1, Text: name, Tables: []core.Table{}, Media: []core.MediaAsset{}}},
		BatchID:     batchID,
		Checksum:    checksum,
	}
}

func TestSourceRepository_InsertAndGet(t *testing.T) {
	sources, quotas, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { quotas.Close(); sources.Close(); backend.Close() }()

	ctx := context.Background()
	records := []*core.SourceRecord{
		newRecord("a.txt", "batch-1", "sum-a"),
		newRecord("b.txt", "batch-1", "sum-b"),
	}

	ids, err := sources.InsertMany(ctx, records...)
	if err != nil {
		t.Fatalf("Failed to insert records: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("Expected 2 ids, got %d", len(ids))
	}
	if ids[0] == 0 || ids[1] <= ids[0] {
		t.Fatalf("Expected increasing non-zero ids, got %v", ids)
	}
	if records[0].ID != ids[0] || records[1].ID != ids[1] {
		t.Fatal("Expected ids to be set on the records")
	}
	if records[0].CreatedAt.IsZero() {
		t.Fatal("Expected CreatedAt to be set")
	}

	got, err := sources.GetSource(ctx, ids[1])
	if err != nil {
		t.Fatalf("Failed to get record: %v", err)
	}
	if got.Name != "b.txt" || got.ID != ids[1] || got.Pages[0].Text != "b.txt" {
		t.Fatalf("Unexpected record: %+v", got)
	}
}

func TestSourceRepository_GetMissing(t *testing.T) {
	sources, quotas, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { quotas.Close(); sources.Close(); backend.Close() }()

	if _, err := sources.GetSource(context.Background(), 999); err != storage.ErrNotFound {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestSourceRepository_GetSourcesKeepsOrder(t *testing.T) {
	sources, quotas, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { quotas.Close(); sources.Close(); backend.Close() }()

	ctx := context.Background()
	ids, err := sources.InsertMany(ctx, newRecord("a", "", ""), newRecord("b", "", ""))
	if err != nil {
		t.Fatalf("Failed to insert records: %v", err)
	}

	got, err := sources.GetSources(ctx, ids[1], 12345, ids[0])
	if err != nil {
		t.Fatalf("Failed to get records: %v", err)
	}
	if len(got) != 2 || got[0].Name != "b" || got[1].Name != "a" {
		t.Fatalf("Unexpected records: %+v", got)
	}
}

func TestSourceRepository_FindByBatchAndChecksum(t *testing.T) {
	sources, quotas, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { quotas.Close(); sources.Close(); backend.Close() }()

	ctx := context.Background()
	_, err = sources.InsertMany(ctx,
		newRecord("one", "batch-1", "same"),
		newRecord("two", "batch-2", "same"),
		newRecord("three", "batch-1", "other"),
	)
	if err != nil {
		t.Fatalf("Failed to insert records: %v", err)
	}

	batch, err := sources.FindByBatch(ctx, "batch-1")
	if err != nil {
		t.Fatalf("FindByBatch failed: %v", err)
	}
	if len(batch) != 2 || batch[0].Name != "one" || batch[1].Name != "three" {
		t.Fatalf("Unexpected batch records: %+v", batch)
	}

	// An id that prefixes another id matches nothing
	none, err := sources.FindByBatch(ctx, "batch")
	if err != nil || len(none) != 0 {
		t.Fatalf("Expected no records for prefix batch id, got %d (%v)", len(none), err)
	}

	dupes, err := sources.FindByChecksum(ctx, "same")
	if err != nil {
		t.Fatalf("FindByChecksum failed: %v", err)
	}
	if len(dupes) != 2 || dupes[0].Name != "one" || dupes[1].Name != "two" {
		t.Fatalf("Unexpected checksum records: %+v", dupes)
	}
}

func TestSourceRepository_InsertManyRejectsNil(t *testing.T) {
	sources, quotas, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { quotas.Close(); sources.Close(); backend.Close() }()

	ctx := context.Background()
	if _, err := sources.InsertMany(ctx, newRecord("a", "", ""), nil); err == nil {
		t.Fatal("Expected an error for a nil record")
	}
	ids, err := sources.InsertMany(ctx)
	if err != nil || len(ids) != 0 {
		t.Fatalf("Expected empty insert to be a no-op, got %v, %v", ids, err)
	}
}

func TestQuotaRepository_IncrementAndCount(t *testing.T) {
	sources, quotas, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { quotas.Close(); sources.Close(); backend.Close() }()

	ctx := context.Background()
	day := time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)

	if n, err := quotas.Increment(ctx, "user-1", day, 1); err != nil || n != 1 {
		t.Fatalf("Expected 1, got %d (%v)", n, err)
	}
	if n, err := quotas.Increment(ctx, "user-1", day.Add(10*time.Hour), 2); err != nil || n != 3 {
		t.Fatalf("Expected 3 later the same day, got %d (%v)", n, err)
	}

	if n, err := quotas.Count(ctx, "user-1", day); err != nil || n != 3 {
		t.Fatalf("Expected count 3, got %d (%v)", n, err)
	}
	if n, err := quotas.Count(ctx, "user-1", day.Add(24*time.Hour)); err != nil || n != 0 {
		t.Fatalf("Expected a fresh counter the next day, got %d (%v)", n, err)
	}
	if n, err := quotas.Count(ctx, "user-2", day); err != nil || n != 0 {
		t.Fatalf("Expected 0 for another key, got %d (%v)", n, err)
	}
}
