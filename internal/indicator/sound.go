package indicator

import (
	"fmt"
	"math"
	"time"

	"github.com/jfreymuth/pulse"
)

type cueKind int

const (
	cueStart cueKind = iota + 1
	cueStop
	cueComplete
	cueCancel
)

const cueSampleRate = 16000

type tone struct {
	hz     float64
	length time.Duration
}

const cueVolume = 0.18

var cueTones = map[cueKind][]tone{
	cueStart:    {{880, 70 * time.Millisecond}, {1175, 70 * time.Millisecond}},
	cueStop:     {{620, 120 * time.Millisecond}},
	cueComplete: {{740, 65 * time.Millisecond}, {988, 90 * time.Millisecond}, {1319, 90 * time.Millisecond}},
	cueCancel:   {{480, 75 * time.Millisecond}, {360, 90 * time.Millisecond}},
}

var cuePCM = func() map[cueKind][]int16 {
	out := make(map[cueKind][]int16, len(cueTones))
	for kind, tones := range cueTones {
		out[kind] = synthesizeCue(tones)
	}
	return out
}()

func emitCue(kind cueKind) error {
	samples := cuePCM[kind]
	if len(samples) == 0 {
		return nil
	}

	client, err := pulse.NewClient(
		pulse.ClientApplicationName("sayback"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	cursor := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if cursor >= len(samples) {
			return 0, pulse.EndOfData
		}
		n := copy(buf, samples[cursor:])
		cursor += n
		if cursor >= len(samples) {
			return n, pulse.EndOfData
		}
		return n, nil
	})

	stream, err := client.NewPlayback(
		reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(cueSampleRate),
		pulse.PlaybackLatency(0.02),
		pulse.PlaybackMediaName("sayback cue"),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play cue stream: %w", err)
	}
	return nil
}

// synthesizeCue joins tones with a short silence between them.
func synthesizeCue(tones []tone) []int16 {
	gap := make([]int16, samplesFor(22*time.Millisecond))
	var pcm []int16
	for i, t := range tones {
		if i > 0 {
			pcm = append(pcm, gap...)
		}
		pcm = append(pcm, synthesizeTone(t)...)
	}
	return pcm
}

// synthesizeTone renders a sine with a linear ramp of at most 5ms at each end.
func synthesizeTone(t tone) []int16 {
	n := samplesFor(t.length)
	if n <= 0 || t.hz <= 0 {
		return nil
	}

	ramp := max(1, min(n/10, cueSampleRate/200))
	pcm := make([]int16, n)
	for i := range pcm {
		envelope := min(1, float64(i)/float64(ramp), float64(n-i-1)/float64(ramp))
		phase := 2 * math.Pi * t.hz * float64(i) / cueSampleRate
		pcm[i] = int16(math.Round(math.Sin(phase) * cueVolume * envelope * math.MaxInt16))
	}
	return pcm
}

func samplesFor(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * cueSampleRate))
}
