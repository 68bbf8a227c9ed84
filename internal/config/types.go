// Package config resolves, parses, validates, and defaults sayback configuration.
package config

// Config is the fully materialized runtime configuration.
type Config struct {
	Server    ServerConfig
	Audio     AudioConfig
	Display   DisplayConfig
	Playback  PlaybackConfig
	Indicator IndicatorConfig
	Alert     AlertConfig
	Output    OutputConfig
	Clipboard CommandConfig
	Debug     DebugConfig
}

// ServerConfig locates the speech-to-text endpoint.
type ServerConfig struct {
	URL       string
	Path      string
	TimeoutMS int
}

// AudioConfig controls input-source selection and capture format.
type AudioConfig struct {
	Input      string
	Fallback   string
	SampleRate int
}

// DisplayConfig holds the line prefixes for the two text displays.
type DisplayConfig struct {
	UserPrefix      string
	AssistantPrefix string
}

// PlaybackConfig controls reply audio playback.
type PlaybackConfig struct {
	Enable   bool
	Autoplay bool
}

// IndicatorConfig controls visual indicator and audio cue behavior.
type IndicatorConfig struct {
	Enable         bool
	Backend        string
	DesktopAppName string
	SoundEnable    bool
	ErrorTimeoutMS int
}

// AlertConfig selects how blocking failures are surfaced.
type AlertConfig struct {
	Backend string
}

// OutputConfig controls what happens with a reply beyond the display.
type OutputConfig struct {
	CopyReply bool
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

type DebugConfig struct {
	AudioDump bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}

const (
	IndicatorBackendHypr    = "hypr"
	IndicatorBackendDesktop = "desktop"

	AlertBackendIndicator = "indicator"
	AlertBackendDialog    = "dialog"
	AlertBackendNotify    = "notify"
	AlertBackendNone      = "none"
)
