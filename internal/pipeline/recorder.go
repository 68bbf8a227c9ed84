// Package pipeline binds session recording to Pulse capture and local artifacts.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rbright/sayback/internal/audio"
	"github.com/rbright/sayback/internal/config"
	"github.com/rbright/sayback/internal/recording"
	"github.com/rbright/sayback/internal/session"
)

// Recorder opens Pulse captures for the session controller.
type Recorder struct {
	cfg    config.Config
	logger *slog.Logger

	selectDevice func(context.Context, string, string) (audio.Selection, error)
	startCapture func(context.Context, audio.Device, int) (session.FragmentStream, error)
	stateDir     func() (string, error)

	mu        sync.Mutex
	selection audio.Selection
}

// NewRecorder constructs a recorder from runtime config.
func NewRecorder(cfg config.Config, logger *slog.Logger) *Recorder {
	return &Recorder{
		cfg:          cfg,
		logger:       logger,
		selectDevice: audio.SelectDevice,
		startCapture: startPulseCapture,
		stateDir:     config.StateDir,
	}
}

func startPulseCapture(ctx context.Context, device audio.Device, sampleRate int) (session.FragmentStream, error) {
	capture, err := audio.StartCapture(ctx, device, sampleRate)
	if err != nil {
		return nil, err
	}
	return capture, nil
}

// Start resolves the input device and opens a capture stream.
func (r *Recorder) Start(ctx context.Context) (session.FragmentStream, error) {
	selection, err := r.selectDevice(ctx, r.cfg.Audio.Input, r.cfg.Audio.Fallback)
	if err != nil {
		return nil, &session.PermissionError{Err: err}
	}
	if selection.Warning != "" {
		r.logWarn(selection.Warning)
	}

	stream, err := r.startCapture(ctx, selection.Device, r.cfg.Audio.SampleRate)
	if err != nil {
		return nil, &session.PermissionError{Err: err}
	}

	r.mu.Lock()
	r.selection = selection
	r.mu.Unlock()

	if r.logger != nil {
		r.logger.Info("capture device selected",
			"device", describeDevice(selection.Device),
			"fallback", selection.Fallback,
			"sample_rate", r.cfg.Audio.SampleRate,
		)
	}
	return stream, nil
}

// Finalized dumps the clip under the state debug directory when debug.audio_dump
// is enabled.
func (r *Recorder) Finalized(_ context.Context, clip *recording.Clip) {
	if clip == nil || !r.cfg.Debug.AudioDump {
		return
	}

	path, err := r.debugAudioPath(clip)
	if err != nil {
		r.logWarn(fmt.Sprintf("unable to create debug audio dump: %v", err))
		return
	}
	if err := clip.SaveWAV(path); err != nil {
		r.logWarn(fmt.Sprintf("unable to write debug audio dump: %v", err))
		return
	}
	if r.logger != nil {
		r.logger.Debug("debug audio dump written", "path", path, "clip_id", clip.ID())
	}
}

// Device reports the most recently selected capture device.
func (r *Recorder) Device() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return describeDevice(r.selection.Device)
}

func (r *Recorder) debugAudioPath(clip *recording.Clip) (string, error) {
	stateDir, err := r.stateDir()
	if err != nil {
		return "", err
	}
	debugDir := filepath.Join(stateDir, "debug")
	if err := os.MkdirAll(debugDir, 0o700); err != nil {
		return "", fmt.Errorf("create debug dir: %w", err)
	}
	name := fmt.Sprintf("audio-%s.wav", clip.CreatedAt().Format("20060102-150405.000"))
	return filepath.Join(debugDir, name), nil
}

// describeDevice formats device metadata for logs.
func describeDevice(device audio.Device) string {
	description := strings.TrimSpace(device.Description)
	id := strings.TrimSpace(device.ID)
	if description == "" {
		return id
	}
	if id == "" {
		return description
	}
	return fmt.Sprintf("%s (%s)", description, id)
}

func (r *Recorder) logWarn(message string) {
	if r.logger == nil {
		return
	}
	r.logger.Warn(message)
}
