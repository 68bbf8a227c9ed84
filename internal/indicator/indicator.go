// Package indicator handles on-screen state notifications and audio cues.
package indicator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/sayback/internal/config"
	"github.com/rbright/sayback/internal/hypr"
)

// Notifier routes state notifications via Hyprland or the desktop notification
// daemon and plays synthesized cues through PulseAudio.
type Notifier struct {
	cfg      config.IndicatorConfig
	logger   *slog.Logger
	messages messages

	mu                    sync.Mutex
	desktopNotificationID uint32

	soundMu sync.Mutex
	cues    sync.WaitGroup
	emit    func(cueKind) error
}

// New creates a notifier from config.
func New(cfg config.IndicatorConfig, logger *slog.Logger) *Notifier {
	return &Notifier{
		cfg:      cfg,
		logger:   logger,
		messages: defaultMessages,
		emit:     emitCue,
	}
}

func (n *Notifier) ShowRecording(ctx context.Context) {
	n.show(ctx, iconInfo, stickyTimeoutMS, colorRecording, n.messages.recording)
}

func (n *Notifier) ShowReady(ctx context.Context) {
	n.show(ctx, iconInfo, stickyTimeoutMS, colorReady, n.messages.ready)
}

func (n *Notifier) ShowSubmitting(ctx context.Context) {
	n.show(ctx, iconInfo, stickyTimeoutMS, colorSubmitting, n.messages.submitting)
}

// ShowReply displays the assistant text for a few seconds.
func (n *Notifier) ShowReply(ctx context.Context, text string) {
	if strings.TrimSpace(text) == "" {
		n.Hide(ctx)
		return
	}
	n.show(ctx, iconOK, replyTimeoutMS, colorReply, text)
}

// ShowError displays an error message; empty text uses the generic message.
func (n *Notifier) ShowError(ctx context.Context, text string) {
	if text == "" {
		text = n.messages.errorText
	}
	timeout := n.cfg.ErrorTimeoutMS
	if timeout <= 0 {
		timeout = 1200
	}
	n.show(ctx, iconError, timeout, colorError, text)
}

func (n *Notifier) CueStart(context.Context)    { n.playCue(cueStart) }
func (n *Notifier) CueStop(context.Context)     { n.playCue(cueStop) }
func (n *Notifier) CueComplete(context.Context) { n.playCue(cueComplete) }
func (n *Notifier) CueCancel(context.Context)   { n.playCue(cueCancel) }

// Hide dismisses the active notification.
func (n *Notifier) Hide(ctx context.Context) {
	if !n.cfg.Enable {
		return
	}
	n.run(ctx, n.dismiss)
}

// Wait blocks until queued cues finish playing.
func (n *Notifier) Wait() {
	n.cues.Wait()
}

func (n *Notifier) show(ctx context.Context, icon int, timeoutMS int, color string, text string) {
	if !n.cfg.Enable {
		return
	}
	n.run(ctx, func(ctx context.Context) error {
		if n.desktop() {
			return n.notifyDesktop(ctx, timeoutMS, text)
		}
		return hypr.Notify(ctx, icon, timeoutMS, color, text)
	})
}

func (n *Notifier) dismiss(ctx context.Context) error {
	if !n.desktop() {
		return hypr.DismissNotify(ctx)
	}

	n.mu.Lock()
	id := n.desktopNotificationID
	n.desktopNotificationID = 0
	n.mu.Unlock()

	if id == 0 {
		return nil
	}
	return desktopDismiss(ctx, id)
}

func (n *Notifier) desktop() bool {
	return strings.EqualFold(strings.TrimSpace(n.cfg.Backend), config.IndicatorBackendDesktop)
}

// notifyDesktop replaces the previous desktop notification in place.
func (n *Notifier) notifyDesktop(ctx context.Context, timeoutMS int, text string) error {
	n.mu.Lock()
	replaceID := n.desktopNotificationID
	n.mu.Unlock()

	appName := strings.TrimSpace(n.cfg.DesktopAppName)
	if appName == "" {
		appName = "sayback"
	}

	id, err := desktopNotify(ctx, appName, replaceID, text, timeoutMS)
	if err != nil {
		return err
	}

	n.mu.Lock()
	n.desktopNotificationID = id
	n.mu.Unlock()
	return nil
}

// run executes an indicator operation with a bounded timeout.
func (n *Notifier) run(ctx context.Context, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, 400*time.Millisecond)
	defer cancel()
	if err := fn(runCtx); err != nil {
		n.log("indicator dispatch failed", err)
	}
}

// playCue serializes cue playback off the caller's goroutine.
func (n *Notifier) playCue(kind cueKind) {
	if !n.cfg.SoundEnable {
		return
	}
	n.cues.Add(1)
	go func() {
		defer n.cues.Done()
		n.soundMu.Lock()
		defer n.soundMu.Unlock()
		if err := n.emit(kind); err != nil {
			n.log("indicator audio cue failed", err)
		}
	}()
}

func (n *Notifier) log(message string, err error) {
	if n.logger == nil || err == nil {
		return
	}
	n.logger.Debug(message, "error", err.Error())
}
