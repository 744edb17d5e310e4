package llm

import (
	"fmt"
	"strings"

	"github.com/poiesic/pagewise/ai"
)

const imageResponseSchema = `{
  "type": "object",
  "properties": {
    "text": {"type": "string"},
    "tables": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "columns": {"type": "array", "items": {"type": "string"}},
          "rows": {"type": "array", "items": {"type": "array", "items": {"type": "string"}}}
        },
        "required": ["columns", "rows"]
      }
    },
    "description": {"type": "string"},
    "type": {"type": "string"}
  },
  "required": ["text", "tables", "description", "type"]
}`

const imagePromptTemplate = `Analyze this image and extract all relevant information.

Output ONLY an object which complies with the schema below. Do not include any preamble or explanation.

%s

Rules:
- Put any text found in the image (OCR) in "text". If a table is detected, report it only in "tables" and keep its text out of "text".
- Classify the image in "type" as one of: %s. Use another single word category if none fits.
- Report every table as an object with "columns" (array of strings) and "rows" (array of arrays of strings). Every row has as many cells as there are columns.
- Write a detailed scene description in "description".
- If the image contains no text, return "text": "". If it contains no tables, return "tables": [].`

const videoResponseSchema = `{
  "type": "object",
  "properties": {
    "transcript": {"type": "string"},
    "summary": {"type": "string"},
    "key_moments": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "timestamp": {"type": "string"},
          "description": {"type": "string"}
        },
        "required": ["timestamp", "description"]
      }
    }
  },
  "required": ["transcript", "summary", "key_moments"]
}`

const videoPromptTemplate = `Analyze this video and extract its key information.

Output ONLY an object which complies with the schema below. Do not include any preamble or explanation.

%s

Rules:
- "transcript" holds everything said in the video, in order.
- "summary" is a brief description of the video.
- "key_moments" lists notable events, each with "timestamp" (seconds from the start) and "description".`

const transcriptionPrompt = `Transcribe this audio recording verbatim.

Output ONLY an object of the form {"transcript": "..."} with no preamble or explanation.

Rules:
- Keep the spoken language; do not translate.
- When more than one person speaks, prefix each turn with a speaker label such as "Speaker 1:".
- Mark non-speech audio events in square brackets, e.g. [laughter], [music].
- If nothing is said, return {"transcript": ""}.`

// buildImagePrompt creates the image analysis prompt with categories embedded.
func buildImagePrompt() string {
	return fmt.Sprintf(imagePromptTemplate, imageResponseSchema, strings.Join(ai.ImageCategories, ", "))
}

func buildVideoPrompt() string {
	return fmt.Sprintf(videoPromptTemplate, videoResponseSchema)
}
