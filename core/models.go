package core

import (
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for persisted records.
// It is generated by the persistence sink (database sequences).
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// Identical content always produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Checksum returns the hex encoded BLAKE2b-256 digest of content.
func Checksum(content []byte) string {
	sum := blake2b.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Origin identifies how an item entered a batch.
type Origin string

const (
	OriginUpload     Origin = "upload"
	OriginURL        Origin = "url"
	OriginDrive      Origin = "drive"
	OriginDiscovered Origin = "discovered"
)

// RawItem is one input unit before extraction. It only lives for the
// duration of a batch call.
type RawItem struct {
	Origin      Origin
	Filename    string
	ContentType string
	Content     []byte
	Reference   string // URL or drive file id when Content is fetched lazily
	Size        int64
}

// Table is tabular data attached to a page. Column names are kept verbatim,
// duplicates included, and every row is aligned to Columns.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// MediaAsset is binary content embedded in a page as base64 text.
// Width and Height are zero when unknown.
type MediaAsset struct {
	Format string `json:"format"`
	Data   string `json:"data"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Page is the atomic unit of normalized output.
type Page struct {
	Number   int            `json:"page_number"`
	Text     string         `json:"text"`
	Tables   []Table        `json:"tables"`
	Media    []MediaAsset   `json:"images"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// IsEmpty reports whether the page carries no text, tables or media.
// Empty pages are never emitted.
func (p *Page) IsEmpty() bool {
	return p.Text == "" && len(p.Tables) == 0 && len(p.Media) == 0
}

// SetMetadata stores a metadata value, allocating the map on first use.
func (p *Page) SetMetadata(key string, value any) {
	if p.Metadata == nil {
		p.Metadata = make(map[string]any)
	}
	p.Metadata[key] = value
}

// ExtractionResult is the outcome for one item: either pages or an error,
// never both.
type ExtractionResult struct {
	ID           ID     `json:"id,omitempty"`
	Filename     string `json:"filename"`
	Origin       Origin `json:"origin,omitempty"`
	SourceType   string `json:"type,omitempty"`
	Size         int64  `json:"size,omitempty"`
	Pages        []Page `json:"pages,omitempty"`
	PageCount    int    `json:"page_count,omitempty"`
	Error        string `json:"error,omitempty"`
	ErrorKind    string `json:"error_kind,omitempty"`
	PersistError string `json:"persist_error,omitempty"`

	// Checksum of the raw content, carried to the persisted record.
	Checksum string `json:"-"`
}

// NewPagesResult builds a successful result.
func NewPagesResult(filename string, pages []Page) ExtractionResult {
	if pages == nil {
		pages = []Page{}
	}
	return ExtractionResult{
		Filename:  filename,
		Pages:     pages,
		PageCount: len(pages),
	}
}

// NewErrorResult builds a failed result. The error is classified into the
// error taxonomy and its message becomes the user visible reason.
func NewErrorResult(filename string, err error) ExtractionResult {
	return ExtractionResult{
		Filename:  filename,
		Error:     err.Error(),
		ErrorKind: KindOf(err),
	}
}

// Failed reports whether the result carries an error.
func (r *ExtractionResult) Failed() bool {
	return r.Error != ""
}

// BatchReport is the aggregated outcome of one batch run.
// Results are ordered uploads first, then URLs, then drive items.
type BatchReport struct {
	BatchID string             `json:"batch_id"`
	Results []ExtractionResult `json:"results"`
}

// Succeeded returns the number of results with pages.
func (r *BatchReport) Succeeded() int {
	n := 0
	for i := range r.Results {
		if !r.Results[i].Failed() {
			n++
		}
	}
	return n
}

// Failed returns the number of results with an error.
func (r *BatchReport) Failed() int {
	return len(r.Results) - r.Succeeded()
}

// Owner is the caller supplied ownership metadata attached to every record.
type Owner struct {
	UserID      string `json:"user_id"`
	WorkspaceID string `json:"workspace_id"`
}

// Upload is a binary supplied directly by the caller.
type Upload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Batch is one caller initiated ingestion request.
type Batch struct {
	Owner   Owner
	Uploads []Upload
	URLs    []string

	// DriveIDs are cloud-drive file or folder ids. DriveToken is the access
	// credential used for every drive call in the batch.
	DriveIDs   []string
	DriveToken string
}

// SourceRecord is the persisted form of a successful extraction.
type SourceRecord struct {
	ID          ID             `json:"id"`
	UserID      string         `json:"user_id"`
	WorkspaceID string         `json:"workspace_id"`
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Origin      Origin         `json:"origin"`
	Size        int64          `json:"size"`
	PageCount   int            `json:"page_count"`
	Pages       []Page         `json:"pages"`
	BatchID     string         `json:"batch_id,omitempty"`
	Checksum    string         `json:"checksum,omitempty"`
	Usage       map[string]any `json:"usage,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// NewSourceRecord builds the record persisted for a successful result.
func NewSourceRecord(owner Owner, batchID string, result *ExtractionResult) *SourceRecord {
	return &SourceRecord{
		UserID:      owner.UserID,
		WorkspaceID: owner.WorkspaceID,
		Name:        result.Filename,
		Type:        result.SourceType,
		Origin:      result.Origin,
		Size:        result.Size,
		PageCount:   result.PageCount,
		Pages:       result.Pages,
		BatchID:     batchID,
		Checksum:    result.Checksum,
	}
}
