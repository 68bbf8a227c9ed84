package playback

import (
	"context"
	"fmt"

	"github.com/jfreymuth/pulse"
)

// PulseSink plays PCM through the default PulseAudio/PipeWire sink.
type PulseSink struct{}

func (PulseSink) Play(ctx context.Context, pcm PCM) error {
	if len(pcm.Samples) == 0 {
		return nil
	}
	if pcm.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", pcm.SampleRate)
	}

	layout := pulse.PlaybackMono
	switch pcm.Channels {
	case 1:
	case 2:
		layout = pulse.PlaybackStereo
	default:
		return fmt.Errorf("unsupported channel count %d", pcm.Channels)
	}

	client, err := pulse.NewClient(
		pulse.ClientApplicationName("sayback"),
		pulse.ClientApplicationIconName("audio-speakers"),
	)
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	cursor := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if ctx.Err() != nil || cursor >= len(pcm.Samples) {
			return 0, pulse.EndOfData
		}
		n := copy(buf, pcm.Samples[cursor:])
		cursor += n
		if cursor >= len(pcm.Samples) {
			return n, pulse.EndOfData
		}
		return n, nil
	})

	stream, err := client.NewPlayback(
		reader,
		layout,
		pulse.PlaybackSampleRate(pcm.SampleRate),
		pulse.PlaybackLatency(0.1),
		pulse.PlaybackMediaName("sayback reply"),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("playback stream: %w", err)
	}
	return ctx.Err()
}
