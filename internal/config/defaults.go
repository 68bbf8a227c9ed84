package config

// Default returns the configuration used when no file is present.
func Default() Config {
	clipboard := "wl-copy --trim-newline"

	return Config{
		Server: ServerConfig{
			URL:  "http://127.0.0.1:8000",
			Path: "/speech-to-text",
		},
		Audio: AudioConfig{
			Input:      "default",
			Fallback:   "default",
			SampleRate: 16000,
		},
		Display: DisplayConfig{
			UserPrefix:      "User: ",
			AssistantPrefix: "Assistant: ",
		},
		Playback: PlaybackConfig{Enable: true, Autoplay: true},
		Indicator: IndicatorConfig{
			Enable:         true,
			Backend:        IndicatorBackendHypr,
			DesktopAppName: "sayback",
			SoundEnable:    true,
			ErrorTimeoutMS: 1600,
		},
		Alert:     AlertConfig{Backend: AlertBackendIndicator},
		Clipboard: CommandConfig{Raw: clipboard, Argv: mustSplitCommand(clipboard)},
	}
}
