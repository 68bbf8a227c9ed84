// Package alert surfaces blocking failures through the configured backend.
package alert

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gen2brain/beeep"
	"github.com/ncruces/zenity"

	"github.com/rbright/sayback/internal/config"
	"github.com/rbright/sayback/internal/session"
)

const title = "sayback"

// Alerter dispatches alerts to one backend. The indicator backend adds nothing
// beyond the indicator's own error notification. Dialog and notify alerts run
// off the caller's goroutine so the session loop never waits on a user click.
type Alerter struct {
	backend string
	logger  *slog.Logger

	dialog func(ctx context.Context, message string) error
	notify func(message string) error

	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	pending sync.WaitGroup
}

// New returns an alerter for backend; unknown backends behave like none.
func New(backend string, logger *slog.Logger) *Alerter {
	ctx, cancel := context.WithCancel(context.Background())
	return &Alerter{
		ctx:     ctx,
		cancel:  cancel,
		backend: strings.ToLower(strings.TrimSpace(backend)),
		logger:  logger,
		dialog:  showDialog,
		notify:  showNotification,
	}
}

// Alert implements session.Alerter.
func (a *Alerter) Alert(_ context.Context, kind session.ErrorKind, message string) error {
	if a.logger != nil {
		a.logger.Warn("alert", "backend", a.backend, "kind", string(kind), "message", message)
	}

	switch a.backend {
	case config.AlertBackendDialog:
		a.async(func() error { return a.dialog(a.ctx, message) })
		return nil
	case config.AlertBackendNotify:
		a.async(func() error { return a.notify(message) })
		return nil
	default:
		return nil
	}
}

// Wait blocks until in-flight dialog or notification alerts return.
func (a *Alerter) Wait() {
	a.pending.Wait()
}

// Close dismisses open dialogs and waits for in-flight alerts.
func (a *Alerter) Close() {
	a.cancel()
	a.pending.Wait()
}

// async runs fn serialized with other alerts so dialogs never stack.
func (a *Alerter) async(fn func() error) {
	a.pending.Add(1)
	go func() {
		defer a.pending.Done()
		a.mu.Lock()
		defer a.mu.Unlock()
		if err := fn(); err != nil && a.logger != nil {
			a.logger.Debug("alert backend failed", "backend", a.backend, "error", err.Error())
		}
	}()
}

func showDialog(ctx context.Context, message string) error {
	err := zenity.Error(message,
		zenity.Title(title),
		zenity.ErrorIcon,
		zenity.Context(ctx),
	)
	if err != nil && err != zenity.ErrCanceled {
		return fmt.Errorf("zenity dialog: %w", err)
	}
	return nil
}

func showNotification(message string) error {
	if err := beeep.Alert(title, message, ""); err != nil {
		return fmt.Errorf("beeep alert: %w", err)
	}
	return nil
}
