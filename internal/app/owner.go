package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rbright/sayback/internal/alert"
	"github.com/rbright/sayback/internal/cli"
	"github.com/rbright/sayback/internal/config"
	"github.com/rbright/sayback/internal/indicator"
	"github.com/rbright/sayback/internal/ipc"
	"github.com/rbright/sayback/internal/output"
	"github.com/rbright/sayback/internal/pipeline"
	"github.com/rbright/sayback/internal/playback"
	"github.com/rbright/sayback/internal/recording"
	"github.com/rbright/sayback/internal/session"
	"github.com/rbright/sayback/internal/speech"
)

// sessionStack is one wired controller plus the collaborators that outlive a trigger.
type sessionStack struct {
	controller *session.Controller
	notifier   *indicator.Notifier
	alerter    *alert.Alerter
}

// wait blocks until background playback and cues finish, then dismisses open alerts.
func (s *sessionStack) wait() {
	s.controller.Wait()
	s.notifier.Wait()
	s.alerter.Close()
}

func (r Runner) buildSession(cfg config.Config, logger *slog.Logger, display io.Writer) (*sessionStack, error) {
	client, err := speech.NewClient(speech.Config{
		BaseURL: cfg.Server.URL,
		Path:    cfg.Server.Path,
		Timeout: time.Duration(cfg.Server.TimeoutMS) * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}

	var recorder session.Recorder
	if r.newRecorder != nil {
		recorder = r.newRecorder(cfg, logger)
	} else {
		recorder = pipeline.NewRecorder(cfg, logger)
	}

	notifier := indicator.New(cfg.Indicator, logger)
	alerter := alert.New(cfg.Alert.Backend, logger)

	deps := session.Deps{
		Recorder:  recorder,
		Submitter: client,
		Indicator: notifier,
		Alerter:   alerter,
		Display:   output.NewSink(cfg, display, logger),
	}
	if cfg.Playback.Enable {
		deps.Player = playback.NewPlayer(nil, logger)
	}

	opts := session.Options{
		UserPrefix:      cfg.Display.UserPrefix,
		AssistantPrefix: cfg.Display.AssistantPrefix,
		Autoplay:        cfg.Playback.Enable && cfg.Playback.Autoplay,
		Format: recording.Format{
			SampleRate: cfg.Audio.SampleRate,
			Channels:   1,
			BitDepth:   16,
		},
	}
	if stateDir, err := config.StateDir(); err == nil {
		opts.PreviewDir = stateDir
	} else {
		logger.Warn("preview disabled", "error", err.Error())
	}

	controller, err := session.NewController(logger, opts, deps)
	if err != nil {
		return nil, err
	}
	logger.Info("session wired", "endpoint", client.Endpoint(), "alert_backend", cfg.Alert.Backend, "playback", cfg.Playback.Enable)
	return &sessionStack{controller: controller, notifier: notifier, alerter: alerter}, nil
}

// commandStart forwards start to a live owner or becomes the owner itself.
func (r Runner) commandStart(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, cli.CommandStart)
	if handled {
		return r.report(resp, err)
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8, nil)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			resp, _, forwardErr := tryForward(ctx, socketPath, cli.CommandStart)
			return r.report(resp, forwardErr)
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	return r.runOwner(ctx, cfg, logger, listener)
}

// runOwner serves IPC triggers next to the controller loop until quit, a signal,
// or a failed first capture.
func (r Runner) runOwner(ctx context.Context, cfg config.Config, logger *slog.Logger, listener net.Listener) int {
	stack, err := r.buildSession(cfg, logger, r.Stdout)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	ownerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ownerCtx)
	g.Go(func() error {
		defer cancel()
		return stack.controller.Run(gctx)
	})
	g.Go(func() error {
		return ipc.Serve(gctx, listener, stack.controller)
	})

	logger.Info("owner started", "pid", os.Getpid())
	exitCode := 0
	outcome := stack.controller.Trigger(gctx, session.CommandCapture)
	if outcome.Err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", outcome.Err)
		exitCode = 1
		cancel()
	} else {
		writeResponse(r.Stdout, session.OutcomeResponse(outcome), false)
	}

	if err := g.Wait(); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		exitCode = 1
	}
	if outcome.Err != nil {
		// Leave the capture failure alert up until the user dismisses it.
		stack.alerter.Wait()
	}
	stack.wait()
	logger.Info("owner stopped", "exit_code", exitCode)
	return exitCode
}
