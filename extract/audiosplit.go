package extract

import (
	"bytes"
	"encoding/binary"
	"errors"
	"time"
)

var (
	errInvalidWAV = errors.New("invalid WAV header")
	errNoFrames   = errors.New("no MPEG audio frames found")
)

// audioChunk is one independently decodable slice of a recording.
type audioChunk struct {
	data  []byte
	start time.Duration
	end   time.Duration
}

// splitAudio cuts a recording into chunks of at most length. WAV data is
// cut on block boundaries and every chunk gets its own header; MP3 data is
// cut between frames. Other formats are returned as a single chunk.
func splitAudio(content []byte, mimeType string, length time.Duration) ([]audioChunk, error) {
	switch {
	case isWAV(content):
		return splitWAV(content, length)
	case mimeType == "audio/mpeg" || hasID3(content):
		return splitMP3(content, length)
	default:
		return []audioChunk{{data: content}}, nil
	}
}

func isWAV(content []byte) bool {
	return len(content) >= 12 && string(content[0:4]) == "RIFF" && string(content[8:12]) == "WAVE"
}

func hasID3(content []byte) bool {
	return len(content) >= 10 && string(content[0:3]) == "ID3"
}

// wavFormat is the payload of a RIFF "fmt " chunk.
type wavFormat struct {
	raw        []byte
	byteRate   int
	blockAlign int
}

func splitWAV(content []byte, length time.Duration) ([]audioChunk, error) {
	var (
		format    *wavFormat
		dataStart = -1
		dataLen   int
	)

	pos := 12
	for pos+8 <= len(content) {
		id := string(content[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(content[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(content) {
			// Streaming writers leave the data size unset
			size = len(content) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, errInvalidWAV
			}
			raw := content[body : body+size]
			format = &wavFormat{
				raw:        raw,
				byteRate:   int(binary.LittleEndian.Uint32(raw[8:12])),
				blockAlign: int(binary.LittleEndian.Uint16(raw[12:14])),
			}
		case "data":
			dataStart, dataLen = body, size
		}
		if dataStart >= 0 && format != nil {
			break
		}
		pos = body + size + size%2
	}

	if format == nil || dataStart < 0 || format.byteRate <= 0 || format.blockAlign <= 0 {
		return nil, errInvalidWAV
	}

	perChunk := int(float64(format.byteRate) * length.Seconds())
	perChunk -= perChunk % format.blockAlign
	if perChunk < format.blockAlign {
		perChunk = format.blockAlign
	}
	if dataLen <= perChunk {
		return []audioChunk{{
			data: content,
			end:  bytesToDuration(dataLen, format.byteRate),
		}}, nil
	}

	data := content[dataStart : dataStart+dataLen]
	chunks := make([]audioChunk, 0, dataLen/perChunk+1)
	for offset := 0; offset < len(data); offset += perChunk {
		end := min(offset+perChunk, len(data))
		chunks = append(chunks, audioChunk{
			data:  buildWAV(format.raw, data[offset:end]),
			start: bytesToDuration(offset, format.byteRate),
			end:   bytesToDuration(end, format.byteRate),
		})
	}
	return chunks, nil
}

// buildWAV wraps PCM data in a minimal RIFF container.
func buildWAV(format, data []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(20 + len(format) + len(data) + 8)
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(4+8+len(format)+8+len(data)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(format)))
	buf.Write(format)
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)
	return buf.Bytes()
}

func bytesToDuration(n, byteRate int) time.Duration {
	return time.Duration(float64(n) / float64(byteRate) * float64(time.Second))
}

// MPEG audio header tables, indexed by [version][layer][bitrate index] in
// kbit/s. version 0 is MPEG-1, 1 is MPEG-2 and 2.5; layer 0 is Layer I.
var mpegBitrates = [2][3][16]int{
	{
		{0, 32, 64, 96, 128, 160, 192, 224, 256, 288, 320, 352, 384, 416, 448, 0},
		{0, 32, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 384, 0},
		{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0},
	},
	{
		{0, 32, 48, 56, 64, 80, 96, 112, 128, 144, 160, 176, 192, 224, 256, 0},
		{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0},
		{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0},
	},
}

var mpegSampleRates = map[byte][3]int{
	3: {44100, 48000, 32000}, // MPEG-1
	2: {22050, 24000, 16000}, // MPEG-2
	0: {11025, 12000, 8000},  // MPEG-2.5
}

// mpegFrame describes one parsed MPEG audio frame header.
type mpegFrame struct {
	length   int
	duration time.Duration
}

// parseMPEGFrame decodes the 4-byte frame header at h.
func parseMPEGFrame(h []byte) (mpegFrame, bool) {
	if len(h) < 4 || h[0] != 0xFF || h[1]&0xE0 != 0xE0 {
		return mpegFrame{}, false
	}
	versionBits := (h[1] >> 3) & 0x03
	layerBits := (h[1] >> 1) & 0x03
	bitrateIdx := h[2] >> 4
	rateIdx := (h[2] >> 2) & 0x03
	padding := int((h[2] >> 1) & 0x01)

	rates, ok := mpegSampleRates[versionBits]
	if !ok || layerBits == 0 || rateIdx == 3 || bitrateIdx == 0 || bitrateIdx == 15 {
		return mpegFrame{}, false
	}
	layer := 3 - int(layerBits) // 0 = Layer I, 2 = Layer III
	version := 1
	if versionBits == 3 {
		version = 0
	}
	bitrate := mpegBitrates[version][layer][bitrateIdx] * 1000
	sampleRate := rates[rateIdx]

	var length, samples int
	switch {
	case layer == 0:
		length = (12*bitrate/sampleRate + padding) * 4
		samples = 384
	case layer == 2 && version == 1:
		length = 72*bitrate/sampleRate + padding
		samples = 576
	default:
		length = 144*bitrate/sampleRate + padding
		samples = 1152
	}
	if length < 4 {
		return mpegFrame{}, false
	}
	return mpegFrame{
		length:   length,
		duration: time.Duration(samples) * time.Second / time.Duration(sampleRate),
	}, true
}

// splitMP3 walks the frame headers, cutting a new chunk once the running
// duration reaches length. Bytes between frames stay with the preceding
// chunk; a leading ID3 tag stays with the first.
func splitMP3(content []byte, length time.Duration) ([]audioChunk, error) {
	pos := 0
	if hasID3(content) {
		size := int(content[6]&0x7F)<<21 | int(content[7]&0x7F)<<14 |
			int(content[8]&0x7F)<<7 | int(content[9]&0x7F)
		pos = min(10+size, len(content))
	}

	var (
		chunks     []audioChunk
		chunkStart = 0
		startTime  time.Duration
		elapsed    time.Duration
		frames     int
	)
	for pos+4 <= len(content) {
		frame, ok := parseMPEGFrame(content[pos : pos+4])
		if !ok {
			pos++
			continue
		}
		if elapsed-startTime >= length && pos > chunkStart {
			chunks = append(chunks, audioChunk{
				data:  content[chunkStart:pos],
				start: startTime,
				end:   elapsed,
			})
			chunkStart, startTime = pos, elapsed
		}
		frames++
		elapsed += frame.duration
		pos += frame.length
	}
	if frames == 0 {
		return nil, errNoFrames
	}
	chunks = append(chunks, audioChunk{
		data:  content[chunkStart:],
		start: startTime,
		end:   elapsed,
	})
	return chunks, nil
}
