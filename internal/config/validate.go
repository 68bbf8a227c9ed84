package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	rawURL := strings.TrimSpace(cfg.Server.URL)
	if rawURL == "" {
		return nil, fmt.Errorf("server.url must not be empty")
	}
	if !strings.Contains(rawURL, "://") {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("server.url %q has no scheme; assuming http", rawURL)})
		rawURL = "http://" + rawURL
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("server.url %q is not a valid URL", cfg.Server.URL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("server.url scheme must be http or https")
	}
	if !strings.HasPrefix(cfg.Server.Path, "/") {
		return nil, fmt.Errorf("server.path must start with '/'")
	}
	if cfg.Server.TimeoutMS < 0 {
		return nil, fmt.Errorf("server.timeout_ms must be >= 0")
	}

	if cfg.Audio.SampleRate < 8000 || cfg.Audio.SampleRate > 48000 {
		return nil, fmt.Errorf("audio.sample_rate must be between 8000 and 48000")
	}

	backend := strings.ToLower(cfg.Indicator.Backend)
	switch backend {
	case IndicatorBackendHypr, IndicatorBackendDesktop:
	default:
		return nil, fmt.Errorf("indicator.backend must be one of: hypr, desktop")
	}
	if backend == IndicatorBackendDesktop && cfg.Indicator.DesktopAppName == "" {
		return nil, fmt.Errorf("indicator.desktop_app_name must not be empty when indicator.backend=desktop")
	}
	if cfg.Indicator.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.error_timeout_ms must be >= 0")
	}

	switch strings.ToLower(cfg.Alert.Backend) {
	case AlertBackendIndicator, AlertBackendDialog, AlertBackendNotify, AlertBackendNone:
	default:
		return nil, fmt.Errorf("alert.backend must be one of: indicator, dialog, notify, none")
	}
	if strings.EqualFold(cfg.Alert.Backend, AlertBackendIndicator) && !cfg.Indicator.Enable {
		warnings = append(warnings, Warning{Message: "alert.backend=indicator while indicator.enable=false; alerts will only be logged"})
	}

	if cfg.Output.CopyReply && len(cfg.Clipboard.Argv) == 0 {
		return nil, fmt.Errorf("clipboard_cmd must not be empty when output.copy_reply=true")
	}
	if cfg.Playback.Autoplay && !cfg.Playback.Enable {
		warnings = append(warnings, Warning{Message: "playback.autoplay has no effect while playback.enable=false"})
	}

	return warnings, nil
}
