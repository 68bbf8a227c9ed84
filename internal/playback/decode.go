package playback

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

// PCM is decoded interleaved 16-bit audio ready for a sink.
type PCM struct {
	Samples    []int16
	SampleRate int
	Channels   int
}

type container int

const (
	containerUnknown container = iota
	containerWAV
	containerMP3
)

// detectContainer picks a decoder from the media type, the source extension, then magic bytes.
func detectContainer(contentType string, source string, data []byte) container {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mediaType {
		case "audio/wav", "audio/x-wav", "audio/wave", "audio/vnd.wave":
			return containerWAV
		case "audio/mpeg", "audio/mp3":
			return containerMP3
		}
	}

	ext := strings.ToLower(path.Ext(stripQuery(source)))
	switch ext {
	case ".wav":
		return containerWAV
	case ".mp3":
		return containerMP3
	}

	if len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE" {
		return containerWAV
	}
	if len(data) >= 3 && (string(data[0:3]) == "ID3" || (data[0] == 0xff && data[1]&0xe0 == 0xe0)) {
		return containerMP3
	}
	return containerUnknown
}

func decode(kind container, data []byte) (PCM, error) {
	switch kind {
	case containerWAV:
		return decodeWAV(data)
	case containerMP3:
		return decodeMP3(data)
	default:
		return PCM{}, fmt.Errorf("unsupported audio format")
	}
}

func decodeWAV(data []byte) (PCM, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return PCM{}, fmt.Errorf("invalid wav data")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return PCM{}, fmt.Errorf("decode wav: %w", err)
	}

	depth := int(dec.BitDepth)
	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = scaleTo16(v, depth)
	}

	channels := int(dec.NumChans)
	if channels <= 0 {
		channels = 1
	}
	return PCM{Samples: samples, SampleRate: int(dec.SampleRate), Channels: channels}, nil
}

func decodeMP3(data []byte) (PCM, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return PCM{}, fmt.Errorf("decode mp3: %w", err)
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return PCM{}, fmt.Errorf("decode mp3: %w", err)
	}

	// go-mp3 always emits 16-bit little-endian stereo.
	samples := make([]int16, len(raw)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	return PCM{Samples: samples, SampleRate: dec.SampleRate(), Channels: 2}, nil
}

func scaleTo16(v int, depth int) int16 {
	switch {
	case depth == 8:
		// 8-bit wav is unsigned.
		return int16((v - 128) << 8)
	case depth > 16:
		return int16(v >> (depth - 16))
	default:
		return int16(v)
	}
}

func stripQuery(source string) string {
	if i := strings.IndexAny(source, "?#"); i >= 0 {
		return source[:i]
	}
	return source
}
