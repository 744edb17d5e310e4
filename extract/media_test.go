package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"image"
	_ "image/png"
	"testing"
	"time"

	"github.com/poiesic/pagewise/ai"
	"github.com/poiesic/pagewise/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImage_Extract(t *testing.T) {
	content := pngImage(t, 40, 20)
	analyzer := mock.NewMockImageAnalyzer()
	analyzer.AnalyzeImageFunc = func(ctx context.Context, img []byte, mimeType string) (*ai.ImageAnalysis, error) {
		return &ai.ImageAnalysis{
			Text:        "Invoice #42",
			Description: "A scanned invoice",
			Type:        "invoice",
			Tables: []ai.Table{
				{Columns: []string{"item", "qty"}, Rows: [][]string{{"bolt", "4"}, {"nut"}}},
			},
		}, nil
	}

	result := Process(context.Background(), NewImage(analyzer, DefaultPolicy()), content, "scan.png")
	require.False(t, result.Failed(), result.Error)
	require.Equal(t, 1, result.PageCount)

	page := result.Pages[0]
	assert.Equal(t, "Invoice #42", page.Text)
	assert.Equal(t, "invoice", page.Metadata["type"])
	assert.Equal(t, "A scanned invoice", page.Metadata["description"])
	require.Len(t, page.Tables, 1)
	assert.Equal(t, [][]string{{"bolt", "4"}, {"nut", ""}}, page.Tables[0].Rows)

	require.Len(t, page.Media, 1)
	asset := page.Media[0]
	assert.Equal(t, "png", asset.Format)
	assert.Equal(t, 40, asset.Width)
	assert.Equal(t, 20, asset.Height)
	assert.Equal(t, base64.StdEncoding.EncodeToString(content), asset.Data)
	assert.Equal(t, []string{"image/png"}, analyzer.MimeTypes())
}

func TestImage_DownscalesProviderPayload(t *testing.T) {
	content := pngImage(t, 300, 100)
	var sent image.Config
	analyzer := mock.NewMockImageAnalyzer()
	analyzer.AnalyzeImageFunc = func(ctx context.Context, img []byte, mimeType string) (*ai.ImageAnalysis, error) {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(img))
		require.NoError(t, err)
		sent = cfg
		return &ai.ImageAnalysis{Type: "document"}, nil
	}

	pages, err := NewImage(analyzer, Policy{MaxImageDimension: 150}).Extract(context.Background(), content, "wide.png")
	require.NoError(t, err)

	assert.Equal(t, 150, sent.Width)
	assert.Equal(t, 50, sent.Height)
	assert.Equal(t, 300, pages[0].Media[0].Width)
}

func TestImage_ProviderFailureFailsItem(t *testing.T) {
	analyzer := mock.NewMockImageAnalyzer()
	analyzer.AnalyzeImageFunc = func(ctx context.Context, img []byte, mimeType string) (*ai.ImageAnalysis, error) {
		return nil, errors.New("rate limited")
	}

	result := Process(context.Background(), NewImage(analyzer, DefaultPolicy()), pngImage(t, 4, 4), "a.png")
	require.True(t, result.Failed())
	assert.Equal(t, "Failed to process image: provider failed: rate limited", result.Error)
	assert.Equal(t, "provider_failure", result.ErrorKind)
	assert.Nil(t, result.Pages)
}

func TestImage_UndecodableNeverCallsProvider(t *testing.T) {
	analyzer := mock.NewMockImageAnalyzer()
	result := Process(context.Background(), NewImage(analyzer, DefaultPolicy()), []byte("nope"), "a.jpg")
	require.True(t, result.Failed())
	assert.Equal(t, 0, analyzer.CallCount())
}

func TestVideo_Extract(t *testing.T) {
	analyzer := mock.NewMockVideoAnalyzer()
	analyzer.AnalyzeVideoFunc = func(ctx context.Context, video []byte, mimeType string) (*ai.VideoAnalysis, error) {
		assert.Equal(t, "video/mp4", mimeType)
		return &ai.VideoAnalysis{
			Transcript: "hello and welcome",
			Summary:    "An intro",
			KeyMoments: []ai.KeyMoment{{Timestamp: "3", Description: "logo"}},
		}, nil
	}

	result := Process(context.Background(), NewVideo(analyzer), []byte("mp4"), "intro.mp4")
	require.False(t, result.Failed(), result.Error)
	require.Equal(t, 1, result.PageCount)

	page := result.Pages[0]
	assert.Equal(t, "hello and welcome", page.Text)
	assert.Equal(t, "An intro", page.Metadata["summary"])
	assert.Equal(t, []map[string]string{{"timestamp": "3", "description": "logo"}}, page.Metadata["key_moments"])
}

func TestVideo_EmptyAnalysis(t *testing.T) {
	analyzer := mock.NewMockVideoAnalyzer()
	analyzer.AnalyzeVideoFunc = func(ctx context.Context, video []byte, mimeType string) (*ai.VideoAnalysis, error) {
		return &ai.VideoAnalysis{}, nil
	}
	result := Process(context.Background(), NewVideo(analyzer), []byte("mp4"), "silent.mp4")
	require.True(t, result.Failed())
	assert.Equal(t, "provider_failure", result.ErrorKind)
}

// pcmFormat is a mono 8 kHz 16-bit PCM fmt chunk: 16000 bytes per second.
func pcmFormat() []byte {
	raw := make([]byte, 16)
	binary.LittleEndian.PutUint16(raw[0:2], 1)
	binary.LittleEndian.PutUint16(raw[2:4], 1)
	binary.LittleEndian.PutUint32(raw[4:8], 8000)
	binary.LittleEndian.PutUint32(raw[8:12], 16000)
	binary.LittleEndian.PutUint16(raw[12:14], 2)
	binary.LittleEndian.PutUint16(raw[14:16], 16)
	return raw
}

func TestAudio_WAVChunksTranscribedInOrder(t *testing.T) {
	content := buildWAV(pcmFormat(), make([]byte, 40000)) // 2.5 s
	transcriber := mock.NewMockTranscriber()

	result := Process(context.Background(), NewAudio(transcriber, Policy{AudioChunk: time.Second}), content, "memo.wav")
	require.False(t, result.Failed(), result.Error)
	require.Equal(t, 3, result.PageCount)

	assert.Equal(t, []int{16044, 16044, 8044}, transcriber.Sizes())
	for i, page := range result.Pages {
		assert.Equal(t, i+1, page.Number)
	}
	assert.Equal(t, "chunk 1", result.Pages[0].Text)
	assert.Equal(t, "chunk 3", result.Pages[2].Text)
	assert.Equal(t, 0.0, result.Pages[0].Metadata["chunk_start"])
	assert.Equal(t, 1.0, result.Pages[0].Metadata["chunk_end"])
	assert.Equal(t, 2.0, result.Pages[2].Metadata["chunk_start"])
	assert.Equal(t, 2.5, result.Pages[2].Metadata["chunk_end"])
}

func TestAudio_ShortWAVSentWhole(t *testing.T) {
	content := buildWAV(pcmFormat(), make([]byte, 1600))
	transcriber := mock.NewMockTranscriber()

	pages, err := NewAudio(transcriber, DefaultPolicy()).Extract(context.Background(), content, "short.wav")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, []int{len(content)}, transcriber.Sizes())
}

func TestAudio_MP3CutOnFrameBoundaries(t *testing.T) {
	// MPEG-1 Layer III, 128 kbit/s, 44.1 kHz: 417-byte frames of 1152 samples
	frame := make([]byte, 417)
	copy(frame, []byte{0xFF, 0xFB, 0x90, 0x00})
	id3 := []byte{'I', 'D', '3', 4, 0, 0, 0, 0, 0, 5, 1, 2, 3, 4, 5}
	content := append([]byte{}, id3...)
	for i := 0; i < 100; i++ {
		content = append(content, frame...)
	}

	chunks, err := splitAudio(content, "audio/mpeg", time.Second)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, len(id3)+39*417, len(chunks[0].data))
	assert.Equal(t, 39*417, len(chunks[1].data))
	assert.Equal(t, 22*417, len(chunks[2].data))
	assert.Equal(t, chunks[0].end, chunks[1].start)
	for _, c := range chunks[1:] {
		assert.Equal(t, []byte{0xFF, 0xFB}, c.data[:2])
	}
}

func TestAudio_EmptyTranscriptsSkipped(t *testing.T) {
	content := buildWAV(pcmFormat(), make([]byte, 40000))
	transcriber := mock.NewMockTranscriber()
	transcriber.TranscribeFunc = func(ctx context.Context, audio []byte, mimeType string) (string, error) {
		if transcriber.CallCount() == 2 {
			return "  ", nil
		}
		return "speech", nil
	}

	pages, err := NewAudio(transcriber, Policy{AudioChunk: time.Second}).Extract(context.Background(), content, "gap.wav")
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, 2, pages[1].Number)
	assert.Equal(t, 2.0, pages[1].Metadata["chunk_start"])
}

func TestAudio_SilentRecordingFails(t *testing.T) {
	content := buildWAV(pcmFormat(), make([]byte, 40000))
	transcriber := mock.NewMockTranscriber()
	transcriber.TranscribeFunc = func(ctx context.Context, audio []byte, mimeType string) (string, error) {
		return "", nil
	}

	result := Process(context.Background(), NewAudio(transcriber, Policy{AudioChunk: time.Second}), content, "silence.wav")
	require.True(t, result.Failed())
	assert.Equal(t, "Failed to process audio: no content extracted", result.Error)
	assert.Equal(t, "extraction_failure", result.ErrorKind)
}

func TestAudio_ProviderFailureStopsAtFailingChunk(t *testing.T) {
	content := buildWAV(pcmFormat(), make([]byte, 40000))
	transcriber := mock.NewMockTranscriber()
	transcriber.TranscribeFunc = func(ctx context.Context, audio []byte, mimeType string) (string, error) {
		if transcriber.CallCount() == 2 {
			return "", errors.New("upstream 503")
		}
		return "ok", nil
	}

	result := Process(context.Background(), NewAudio(transcriber, Policy{AudioChunk: time.Second}), content, "x.wav")
	require.True(t, result.Failed())
	assert.Equal(t, "Failed to process audio: provider failed: chunk 2: upstream 503", result.Error)
	assert.Equal(t, 2, transcriber.CallCount())
}

func TestAudio_InvalidWAV(t *testing.T) {
	result := Process(context.Background(), NewAudio(mock.NewMockTranscriber(), DefaultPolicy()),
		[]byte("RIFF\x04\x00\x00\x00WAVE"), "broken.wav")
	require.True(t, result.Failed())
	assert.Equal(t, "Failed to process audio: invalid WAV header", result.Error)
}
