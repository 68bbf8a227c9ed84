package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/rbright/sayback/internal/cli"
	"github.com/rbright/sayback/internal/ipc"
)

const (
	statusTimeout  = 220 * time.Millisecond
	triggerTimeout = 3 * time.Second
)

// forwardTimeout bounds one forwarded trigger. Submit waits for the server reply.
func forwardTimeout(command cli.Command) time.Duration {
	switch command {
	case cli.CommandSubmit:
		return 0
	case cli.CommandStatus:
		return statusTimeout
	default:
		return triggerTimeout
	}
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, cli.CommandStatus)
	if !handled {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	writeResponse(r.Stdout, resp, true)
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, command cli.Command) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, command)
	if !handled {
		fmt.Fprintf(r.Stderr, "error: no active sayback session\n")
		return 1
	}
	return r.report(resp, err)
}

// report prints a forwarded response and maps it to an exit code.
func (r Runner) report(resp ipc.Response, err error) int {
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	writeResponse(r.Stdout, resp, false)
	return 0
}

// writeResponse prints the optional state, the message, then the display lines.
func writeResponse(w io.Writer, resp ipc.Response, withState bool) {
	if withState {
		state := resp.State
		if state == "" {
			state = "idle"
		}
		fmt.Fprintln(w, state)
	}
	if resp.Message != "" {
		fmt.Fprintln(w, resp.Message)
	}
	if resp.UserText != "" {
		fmt.Fprintln(w, resp.UserText)
	}
	if resp.AIText != "" {
		fmt.Fprintln(w, resp.AIText)
	}
	if resp.AudioURL != "" {
		fmt.Fprintf(w, "audio: %s\n", resp.AudioURL)
	}
}

func tryForward(ctx context.Context, socketPath string, command cli.Command) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Command: string(command)}, forwardTimeout(command))
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if isSocketMissing(err) {
		return ipc.Response{}, false, nil
	}
	if isConnectionRefused(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", command, err)
}

func isSocketMissing(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrNotExist) ||
		strings.Contains(err.Error(), "no such file or directory")
}

func isConnectionRefused(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}
