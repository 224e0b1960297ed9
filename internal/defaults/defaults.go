// Package defaults locates the platform data directory and seeds the
// editable config file there on first run.
//
// Platform paths:
//
//	macOS:   ~/Library/Application Support/TwoTruths/
//	Windows: %AppData%\TwoTruths\
//	Linux:   ~/.config/twotruths/
//
// Override with TWOTRUTHS_DATA_DIR environment variable.
package defaults

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// ConfigFile is the name of the editable config inside the data dir.
const ConfigFile = "twotruths.yaml"

// DataDir returns the platform-appropriate data directory.
//
//	macOS:   ~/Library/Application Support/TwoTruths/
//	Windows: %AppData%\TwoTruths\
//	Linux:   ~/.config/twotruths/
//
// Set TWOTRUTHS_DATA_DIR to override.
func DataDir() (string, error) {
	if dir := os.Getenv("TWOTRUTHS_DATA_DIR"); dir != "" {
		return dir, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}

	// Linux: lowercase per XDG convention
	// macOS/Windows: title case per platform convention
	if runtime.GOOS == "linux" {
		return filepath.Join(configDir, "twotruths"), nil
	}
	return filepath.Join(configDir, "TwoTruths"), nil
}

// EnsureConfig creates the data directory if it doesn't exist and writes
// content to the config file if one is not already present. Existing files
// are never overwritten, so operator edits survive upgrades. Returns the
// path of the config file.
func EnsureConfig(content []byte) (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	path := filepath.Join(dir, ConfigFile)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("failed to write default config: %w", err)
	}
	return path, nil
}
