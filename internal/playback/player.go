// Package playback fetches, decodes, and plays reply and preview audio.
package playback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rbright/sayback/internal/version"
)

const maxAudioBytes = 32 << 20

// PlaybackError wraps any failure to fetch, decode, or play one source.
type PlaybackError struct {
	Source string
	Err    error
}

func (e *PlaybackError) Error() string {
	return fmt.Sprintf("play %s: %v", e.Source, e.Err)
}

func (e *PlaybackError) Unwrap() error { return e.Err }

// Sink renders decoded PCM to an output device.
type Sink interface {
	Play(context.Context, PCM) error
}

// Player resolves a URL or file path into audio and plays it through a sink.
type Player struct {
	http   *http.Client
	sink   Sink
	logger *slog.Logger
}

// NewPlayer constructs a player; a nil sink plays through PulseAudio.
func NewPlayer(sink Sink, logger *slog.Logger) *Player {
	if sink == nil {
		sink = PulseSink{}
	}
	return &Player{
		http:   &http.Client{Timeout: 30 * time.Second},
		sink:   sink,
		logger: logger,
	}
}

// Play fetches, decodes, and plays source until completion or ctx cancellation.
func (p *Player) Play(ctx context.Context, source string) error {
	source = strings.TrimSpace(source)
	if source == "" {
		return &PlaybackError{Source: source, Err: errors.New("empty source")}
	}

	data, contentType, err := p.load(ctx, source)
	if err != nil {
		return &PlaybackError{Source: source, Err: err}
	}

	kind := detectContainer(contentType, source, data)
	pcm, err := decode(kind, data)
	if err != nil {
		return &PlaybackError{Source: source, Err: err}
	}

	if p.logger != nil {
		p.logger.Debug("playback start",
			"source", source,
			"sample_rate", pcm.SampleRate,
			"channels", pcm.Channels,
			"samples", len(pcm.Samples),
		)
	}

	if err := p.sink.Play(ctx, pcm); err != nil {
		return &PlaybackError{Source: source, Err: err}
	}
	return nil
}

func (p *Player) load(ctx context.Context, source string) ([]byte, string, error) {
	if !isRemote(source) {
		data, err := os.ReadFile(strings.TrimPrefix(source, "file://"))
		if err != nil {
			return nil, "", fmt.Errorf("read audio file: %w", err)
		}
		return data, "", nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("fetch audio: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read audio body: %w", err)
	}
	if len(data) > maxAudioBytes {
		return nil, "", fmt.Errorf("audio exceeds %d bytes", maxAudioBytes)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func isRemote(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
