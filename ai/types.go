package ai

// ImageCategories are the classifications suggested to image analyzers.
// Providers may answer with another category when none fits.
var ImageCategories = []string{
	"document",
	"infographic",
	"timetable",
	"invoice",
}

// Table is a table detected by an inference provider.
type Table struct {
	Columns []string
	Rows    [][]string
}

// ImageAnalysis is the structured answer for one image.
type ImageAnalysis struct {
	// Text is the OCR text. Text that belongs to a detected table is only
	// reported in Tables.
	Text string

	Tables []Table

	// Description is a scene description of the image.
	Description string

	// Type is the image classification, usually one of ImageCategories.
	Type string
}

// KeyMoment is a notable event in a video.
type KeyMoment struct {
	Timestamp   string
	Description string
}

// VideoAnalysis is the structured answer for one video.
type VideoAnalysis struct {
	Transcript string
	Summary    string
	KeyMoments []KeyMoment
}
