package core

import (
	"mime"
	"net/http"
	"path"
	"slices"
	"strings"
)

// Content types recognized by the pipeline.
const (
	ContentTypePDF         = "application/pdf"
	ContentTypeMSWord      = "application/msword"
	ContentTypeDocx        = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ContentTypeMSPowerPnt  = "application/vnd.ms-powerpoint"
	ContentTypePptx        = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	ContentTypeText        = "text/plain"
	ContentTypeCSV         = "text/csv"
	ContentTypeMSExcel     = "application/vnd.ms-excel"
	ContentTypeXlsx        = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeMP3         = "audio/mpeg"
	ContentTypeWAV         = "audio/wav"
	ContentTypeMP4         = "video/mp4"
	ContentTypeJPEG        = "image/jpeg"
	ContentTypePNG         = "image/png"
	ContentTypeHTML        = "text/html"
	ContentTypeOctetStream = "application/octet-stream"
	ContentTypeDriveFolder = "application/vnd.google-apps.folder"
)

// allowedExtensions lists the file extensions accepted per content type.
// Order matters: the first type listing an extension wins during detection.
var allowedExtensions = []struct {
	contentType string
	extensions  []string
}{
	{ContentTypePDF, []string{".pdf"}},
	{ContentTypeMSWord, []string{".doc"}},
	{ContentTypeDocx, []string{".docx"}},
	{ContentTypeMSPowerPnt, []string{".ppt"}},
	{ContentTypePptx, []string{".pptx"}},
	{ContentTypeText, []string{".txt"}},
	{ContentTypeCSV, []string{".csv"}},
	{ContentTypeMSExcel, []string{".xls", ".csv"}},
	{ContentTypeXlsx, []string{".xlsx"}},
	{ContentTypeMP3, []string{".mp3"}},
	{ContentTypeWAV, []string{".wav"}},
	{ContentTypeMP4, []string{".mp4"}},
	{ContentTypeJPEG, []string{".jpg", ".jpeg"}},
	{ContentTypePNG, []string{".png"}},
}

// subtypeTags maps a MIME subtype to its canonical type tag candidates.
// Existing records are classified with this table; keep it stable.
var subtypeTags = map[string][]string{
	"vnd.ms-excel": {"xls", "csv"},
	"vnd.openxmlformats-officedocument.wordprocessingml.document":   {"docx"},
	"vnd.ms-powerpoint": {"ppt"},
	"vnd.openxmlformats-officedocument.presentationml.presentation": {"pptx"},
	"plain": {"txt"},
	"vnd.openxmlformats-officedocument.spreadsheetml.sheet": {"xlsx"},
	"msword": {"doc"},
}

// Canonical type tags of persisted records.
var knownTags = []string{
	"pdf", "doc", "docx", "ppt", "pptx", "xlsx", "xls", "csv", "txt",
	"url", "discovered", "drive", "mp3", "wav", "mp4", "jpg", "jpeg", "png",
}

// NormalizeContentType lower-cases a content type and strips parameters.
// "Text/CSV; charset=utf-8" becomes "text/csv".
func NormalizeContentType(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return ""
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		return mediaType
	}
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// ContentTypeForFilename returns the accepted content type for the file's
// extension, or "" when the extension is not accepted.
func ContentTypeForFilename(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		return ""
	}
	for _, entry := range allowedExtensions {
		if slices.Contains(entry.extensions, ext) {
			return entry.contentType
		}
	}
	return ""
}

// ExtensionsFor returns the accepted extensions for a content type.
func ExtensionsFor(contentType string) []string {
	contentType = NormalizeContentType(contentType)
	for _, entry := range allowedExtensions {
		if entry.contentType == contentType {
			return slices.Clone(entry.extensions)
		}
	}
	return nil
}

// DetectContentType sniffs the content type of an upload. A declared type
// wins unless it is missing or generic, then the filename extension is
// consulted, and finally the content itself.
func DetectContentType(filename, declared string, content []byte) string {
	declared = NormalizeContentType(declared)
	if declared != "" && declared != ContentTypeOctetStream {
		return declared
	}
	if byName := ContentTypeForFilename(filename); byName != "" {
		return byName
	}
	return NormalizeContentType(http.DetectContentType(content))
}

// SourceType maps a content type to the canonical type tag stored on records.
// Ambiguous subtypes are resolved by the filename suffix.
func SourceType(contentType, filename string) string {
	contentType = NormalizeContentType(contentType)
	subtype := contentType
	if i := strings.IndexByte(contentType, '/'); i >= 0 {
		subtype = contentType[i+1:]
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(filename)), ".")

	if candidates, ok := subtypeTags[subtype]; ok {
		if len(candidates) > 1 && slices.Contains(candidates, ext) {
			return ext
		}
		return candidates[0]
	}
	if slices.Contains(knownTags, ext) {
		return ext
	}
	return subtype
}
