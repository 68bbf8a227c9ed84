// Package doctor runs runtime readiness diagnostics for config, tools, audio, and the speech server.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rbright/sayback/internal/audio"
	"github.com/rbright/sayback/internal/config"
	"github.com/rbright/sayback/internal/hypr"
	"github.com/rbright/sayback/internal/speech"
)

const probeTimeout = 2 * time.Second

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, loaded config.Loaded) Report {
	cfg := loaded.Config
	checks := []Check{checkConfig(loaded)}

	checks = append(checks, checkEnv("XDG_RUNTIME_DIR", func(v string) bool {
		return strings.TrimSpace(v) != ""
	}, "owner socket directory available", "XDG_RUNTIME_DIR is empty; the owner socket cannot be created"))

	checks = append(checks, checkServer(ctx, cfg))
	checks = append(checks, checkAudioSelection(ctx, cfg))

	if cfg.Indicator.Enable {
		checks = append(checks, checkIndicator(ctx, cfg.Indicator)...)
	}
	if check, ok := checkAlertBackend(cfg.Alert.Backend); ok {
		checks = append(checks, check)
	}
	if cfg.Output.CopyReply {
		checks = append(checks, checkCommand(cfg.Clipboard.Argv, "clipboard_cmd"))
	}

	return Report{Checks: checks}
}

func checkConfig(loaded config.Loaded) Check {
	message := fmt.Sprintf("loaded %q", loaded.Path)
	if !loaded.Exists {
		message = fmt.Sprintf("%q not found; using defaults", loaded.Path)
	}
	if n := len(loaded.Warnings); n > 0 {
		parts := make([]string, 0, n)
		for _, w := range loaded.Warnings {
			if w.Line > 0 {
				parts = append(parts, fmt.Sprintf("line %d: %s", w.Line, w.Message))
				continue
			}
			parts = append(parts, w.Message)
		}
		message += fmt.Sprintf(" (%d warning(s): %s)", n, strings.Join(parts, "; "))
	}
	return Check{Name: "config", Pass: true, Message: message}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(ctx context.Context, cfg config.Config) Check {
	selection, err := audio.SelectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkServer confirms the speech server answers HTTP at its base URL. Any status
// below 500 counts as reachable since the base path need not be routed.
func checkServer(ctx context.Context, cfg config.Config) Check {
	client, err := speech.NewClient(speech.Config{BaseURL: cfg.Server.URL, Path: cfg.Server.Path, Timeout: probeTimeout})
	if err != nil {
		return Check{Name: "server", Pass: false, Message: err.Error()}
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	status, err := client.Ping(probeCtx)
	if err != nil {
		return Check{Name: "server", Pass: false, Message: fmt.Sprintf("request failed: %v", err)}
	}
	if status >= 500 {
		return Check{Name: "server", Pass: false, Message: fmt.Sprintf("HTTP %d from %s", status, cfg.Server.URL)}
	}
	return Check{Name: "server", Pass: true, Message: fmt.Sprintf("reachable (HTTP %d); submissions go to %s", status, client.Endpoint())}
}

func checkIndicator(ctx context.Context, cfg config.IndicatorConfig) []Check {
	if cfg.Backend == config.IndicatorBackendDesktop {
		return []Check{checkBinary("busctl", "desktop notifications")}
	}

	checks := []Check{checkBinary("hyprctl", "hypr notifications")}
	if !checks[0].Pass {
		return checks
	}
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	name, err := hypr.QueryFocusedMonitor(probeCtx)
	if err != nil {
		return append(checks, Check{Name: "hypr.monitor", Pass: false, Message: err.Error()})
	}
	return append(checks, Check{Name: "hypr.monitor", Pass: true, Message: fmt.Sprintf("focused monitor %q", name)})
}

// checkAlertBackend reports external helpers the alert backend needs. The
// indicator and none backends need nothing beyond the indicator checks.
func checkAlertBackend(backend string) (Check, bool) {
	switch backend {
	case config.AlertBackendDialog:
		for _, bin := range []string{"zenity", "qarma", "matedialog"} {
			if path, err := exec.LookPath(bin); err == nil {
				return Check{Name: "alert.dialog", Pass: true, Message: fmt.Sprintf("dialog helper %s", path)}, true
			}
		}
		return Check{Name: "alert.dialog", Pass: false, Message: "no zenity-compatible dialog helper in PATH"}, true
	case config.AlertBackendNotify:
		return checkEnv("DBUS_SESSION_BUS_ADDRESS", func(v string) bool {
			return strings.TrimSpace(v) != ""
		}, "session bus available for notifications", "DBUS_SESSION_BUS_ADDRESS is empty; notify alerts will fail"), true
	default:
		return Check{}, false
	}
}
