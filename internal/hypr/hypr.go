// Package hypr wraps the hyprctl calls used for on-screen notifications.
package hypr

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// DefaultColor is used when Notify is called without a color.
const DefaultColor = "rgb(89b4fa)"

type monitor struct {
	Name    string `json:"name"`
	Focused bool   `json:"focused"`
}

// Notify sends a Hyprland notification.
func Notify(ctx context.Context, icon int, timeoutMS int, color string, text string) error {
	if strings.TrimSpace(color) == "" {
		color = DefaultColor
	}
	_, err := run(ctx, "--quiet", "dispatch", "notify",
		strconv.Itoa(icon), strconv.Itoa(timeoutMS), color, text)
	return err
}

// DismissNotify dismisses active Hyprland notifications.
func DismissNotify(ctx context.Context) error {
	_, err := run(ctx, "--quiet", "dispatch", "dismissnotify")
	return err
}

// QueryFocusedMonitor returns the focused monitor name, or the first monitor.
func QueryFocusedMonitor(ctx context.Context) (string, error) {
	output, err := run(ctx, "-j", "monitors")
	if err != nil {
		return "", err
	}

	var monitors []monitor
	if err := json.Unmarshal(output, &monitors); err != nil {
		return "", fmt.Errorf("decode hyprctl monitors json: %w", err)
	}
	if len(monitors) == 0 {
		return "", fmt.Errorf("hyprctl monitors returned no outputs")
	}
	for _, mon := range monitors {
		if mon.Focused {
			return strings.TrimSpace(mon.Name), nil
		}
	}
	return strings.TrimSpace(monitors[0].Name), nil
}

func run(ctx context.Context, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, "hyprctl", args...).CombinedOutput()
	if err != nil {
		trimmed := strings.TrimSpace(string(out))
		if trimmed == "" {
			return nil, fmt.Errorf("hyprctl %v failed: %w", args, err)
		}
		return nil, fmt.Errorf("hyprctl %v failed: %w (%s)", args, err, trimmed)
	}
	return out, nil
}
