package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/rbright/sayback/internal/config"
	"github.com/rbright/sayback/internal/session"
)

const shellHelp = `commands: start, stop, submit, cancel, preview, replay, status, quit, help`

// commandShell runs a private controller driven by trigger names read from stdin.
// It does not bind the owner socket.
func (r Runner) commandShell(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	if r.Stdin == nil {
		fmt.Fprintln(r.Stderr, "error: shell requires stdin")
		return 1
	}

	stack, err := r.buildSession(cfg, logger, nil)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	shellCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(shellCtx)
	g.Go(func() error {
		defer cancel()
		return stack.controller.Run(gctx)
	})
	g.Go(func() error {
		defer cancel()
		return r.shellLoop(gctx, stack.controller)
	})

	exitCode := 0
	if err := g.Wait(); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		exitCode = 1
	}
	stack.wait()
	return exitCode
}

func (r Runner) shellLoop(ctx context.Context, controller *session.Controller) error {
	lines := readLines(ctx, r.Stdin)
	fmt.Fprintln(r.Stdout, shellHelp)

	for {
		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			return nil
		case line, ok = <-lines:
		}
		if !ok {
			line = string(session.CommandQuit)
		}

		command := strings.ToLower(strings.TrimSpace(line))
		switch command {
		case "":
			continue
		case "help", "?":
			fmt.Fprintln(r.Stdout, shellHelp)
			continue
		case "exit":
			command = string(session.CommandQuit)
		}

		outcome := controller.Trigger(ctx, session.Command(command))
		resp := session.OutcomeResponse(outcome)
		if outcome.Err != nil {
			fmt.Fprintf(r.Stderr, "error: %s\n", resp.Error)
			fmt.Fprintln(r.Stdout, resp.State)
		} else {
			writeResponse(r.Stdout, resp, true)
		}

		if session.Command(command) == session.CommandQuit {
			return nil
		}
	}
}

// readLines feeds stdin lines to a channel that closes at EOF.
func readLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}
