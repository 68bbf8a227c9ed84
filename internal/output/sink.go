package output

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/sayback/internal/config"
	"github.com/rbright/sayback/internal/session"
)

const clipboardTimeout = 2 * time.Second

// Sink prints reply views and optionally copies the assistant text to the clipboard.
type Sink struct {
	out             io.Writer
	copyReply       bool
	clipboard       []string
	assistantPrefix string
	logger          *slog.Logger

	mu sync.Mutex
}

// NewSink builds a reply sink. A nil writer disables printing.
func NewSink(cfg config.Config, out io.Writer, logger *slog.Logger) *Sink {
	return &Sink{
		out:             out,
		copyReply:       cfg.Output.CopyReply,
		clipboard:       append([]string(nil), cfg.Clipboard.Argv...),
		assistantPrefix: cfg.Display.AssistantPrefix,
		logger:          logger,
	}
}

// Render implements session.Display. Clipboard failures are logged, not returned,
// so a missing wl-copy never hides a reply.
func (s *Sink) Render(ctx context.Context, view session.View) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.out != nil {
		if err := WriteView(s.out, view); err != nil {
			return fmt.Errorf("render reply: %w", err)
		}
	}

	if !s.copyReply {
		return nil
	}
	text := strings.TrimSpace(strings.TrimPrefix(view.AIText, s.assistantPrefix))
	if text == "" {
		return nil
	}

	clipCtx, cancel := context.WithTimeout(ctx, clipboardTimeout)
	defer cancel()
	if err := runCommandWithInput(clipCtx, s.clipboard, text); err != nil && s.logger != nil {
		s.logger.Warn("copy reply to clipboard failed", "error", err.Error())
	}
	return nil
}

// WriteView prints the two display lines followed by the reply audio location.
func WriteView(w io.Writer, view session.View) error {
	var b strings.Builder
	if view.UserText != "" {
		b.WriteString(view.UserText)
		b.WriteByte('\n')
	}
	if view.AIText != "" {
		b.WriteString(view.AIText)
		b.WriteByte('\n')
	}
	if view.AIAudioVisible && view.AIAudio != "" {
		fmt.Fprintf(&b, "audio: %s\n", view.AIAudio)
	}
	if b.Len() == 0 {
		return nil
	}
	_, err := io.WriteString(w, b.String())
	return err
}
