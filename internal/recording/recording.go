// Package recording buffers captured audio fragments and finalizes them into clips.
package recording

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"
)

const (
	// ContentType is the declared media type of a finalized clip upload.
	ContentType = "audio/wav"
	// UploadField is the multipart field name the speech server reads.
	UploadField = "file"
	// UploadFilename is the multipart filename attached to every upload.
	UploadFilename = "voice.wav"
)

// Format describes interleaved little-endian PCM.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// DefaultFormat is 16kHz mono s16le.
var DefaultFormat = Format{SampleRate: 16000, Channels: 1, BitDepth: 16}

// BytesPerSecond returns the PCM byte rate for f.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.Channels * (f.BitDepth / 8)
}

// Buffer is an append-only, ordered sequence of captured fragments.
type Buffer struct {
	format    Format
	fragments [][]byte
	size      int64
}

// NewBuffer creates an empty fragment buffer for one capture.
func NewBuffer(format Format) *Buffer {
	return &Buffer{format: format}
}

// Append stores a copy of fragment after all previously appended fragments.
func (b *Buffer) Append(fragment []byte) {
	if len(fragment) == 0 {
		return
	}
	chunk := make([]byte, len(fragment))
	copy(chunk, fragment)
	b.fragments = append(b.fragments, chunk)
	b.size += int64(len(chunk))
}

// Len returns the number of stored fragments.
func (b *Buffer) Len() int {
	return len(b.fragments)
}

// Size returns the total stored bytes.
func (b *Buffer) Size() int64 {
	return b.size
}

// Finalize concatenates fragments in append order into an immutable clip.
func (b *Buffer) Finalize() *Clip {
	pcm := make([]byte, 0, b.size)
	for _, fragment := range b.fragments {
		pcm = append(pcm, fragment...)
	}
	return &Clip{
		id:        uuid.NewString(),
		format:    b.format,
		pcm:       pcm,
		createdAt: time.Now(),
	}
}

// Clip is one finalized recording. Its bytes never change after Finalize.
type Clip struct {
	id        string
	format    Format
	pcm       []byte
	createdAt time.Time
}

func (c *Clip) ID() string           { return c.id }
func (c *Clip) Format() Format       { return c.format }
func (c *Clip) CreatedAt() time.Time { return c.createdAt }
func (c *Clip) Size() int64          { return int64(len(c.pcm)) }

// PCM returns a copy of the clip's raw sample bytes.
func (c *Clip) PCM() []byte {
	out := make([]byte, len(c.pcm))
	copy(out, c.pcm)
	return out
}

// Duration returns the playback length implied by the clip format.
func (c *Clip) Duration() time.Duration {
	rate := c.format.BytesPerSecond()
	if rate <= 0 {
		return 0
	}
	return time.Duration(len(c.pcm)) * time.Second / time.Duration(rate)
}

// WriteWAV encodes the clip as a PCM WAV container.
func (c *Clip) WriteWAV(w io.WriteSeeker) error {
	if c.format.BitDepth != 16 {
		return fmt.Errorf("unsupported bit depth %d", c.format.BitDepth)
	}
	channels := c.format.Channels
	if channels <= 0 {
		channels = 1
	}

	samples := make([]int, len(c.pcm)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(c.pcm[i*2:])))
	}

	enc := wav.NewEncoder(w, c.format.SampleRate, c.format.BitDepth, channels, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  c.format.SampleRate,
		},
		Data:           samples,
		SourceBitDepth: c.format.BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		_ = enc.Close()
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finish wav: %w", err)
	}
	return nil
}

// SaveWAV writes the clip to path, creating parent directories as needed.
func (c *Clip) SaveWAV(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create recording dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open recording %q: %w", path, err)
	}
	if err := c.WriteWAV(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
