package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Environment keys that override file values.
const (
	EnvServerURL    = "SAYBACK_SERVER_URL"
	EnvAudioInput   = "SAYBACK_AUDIO_INPUT"
	EnvAlertBackend = "SAYBACK_ALERT_BACKEND"
)

// DotenvPath returns the .env file read beside configPath.
func DotenvPath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), ".env")
}

// applyEnvironment overlays .env values and then process environment values.
// The process environment wins.
func applyEnvironment(cfg *Config, dotenvPath string, lookup func(string) (string, bool)) ([]Warning, error) {
	var warnings []Warning

	values := map[string]string{}
	if dotenvPath != "" {
		fileValues, err := godotenv.Read(dotenvPath)
		switch {
		case err == nil:
			values = fileValues
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read %s: %w", dotenvPath, err)
		}
	}

	resolve := func(key string) (string, bool) {
		if lookup != nil {
			if v, ok := lookup(key); ok {
				return v, true
			}
		}
		v, ok := values[key]
		return v, ok
	}

	defaults := Default()
	targets := []struct {
		key   string
		field string
		dst   *string
		base  string
	}{
		{EnvServerURL, "server.url", &cfg.Server.URL, defaults.Server.URL},
		{EnvAudioInput, "audio.input", &cfg.Audio.Input, defaults.Audio.Input},
		{EnvAlertBackend, "alert.backend", &cfg.Alert.Backend, defaults.Alert.Backend},
	}
	for _, target := range targets {
		v, ok := resolve(target.key)
		if !ok {
			continue
		}
		previous := *target.dst
		setString(target.dst, &v)
		// Only a value the config file set and the environment changed is worth a warning.
		if previous != target.base && previous != *target.dst {
			warnings = append(warnings, Warning{
				Message: fmt.Sprintf("%s replaces config file value for %s", target.key, target.field),
			})
		}
	}
	return warnings, nil
}
