package config

import (
	"errors"
	"fmt"
	"os"
)

// Loaded captures resolved config path, parsed values, and non-fatal warnings.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// Load resolves, reads, and parses the config file, applies environment
// overrides, and validates the result.
func Load(explicitPath string) (Loaded, error) {
	return load(explicitPath, os.LookupEnv)
}

func load(explicitPath string, lookup func(string) (string, bool)) (Loaded, error) {
	path, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	loaded := Loaded{Path: path, Config: Default()}

	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		loaded.Exists = true
		loaded.Config, err = overlayJSONC(string(content), loaded.Config)
		if err != nil {
			return Loaded{}, fmt.Errorf("parse config %q: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		loaded.Warnings = append(loaded.Warnings, Warning{
			Message: fmt.Sprintf("config file %q not found; using defaults", path),
		})
	default:
		return Loaded{}, fmt.Errorf("read config %q: %w", path, err)
	}

	envWarnings, err := applyEnvironment(&loaded.Config, DotenvPath(path), lookup)
	if err != nil {
		return Loaded{}, err
	}
	loaded.Warnings = append(loaded.Warnings, envWarnings...)

	validateWarnings, err := Validate(loaded.Config)
	if err != nil {
		return Loaded{}, fmt.Errorf("invalid config %q: %w", path, err)
	}
	loaded.Warnings = append(loaded.Warnings, validateWarnings...)
	return loaded, nil
}
