package core

import (
	"os"
	"path/filepath"
)

// ConfigDir returns the directory for the config file and stored
// credentials, honoring DESKLINE_CONFIG_DIR for tests and scripting.
func ConfigDir() (string, error) {
	if dir := os.Getenv("DESKLINE_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "deskline"), nil
}

// StateDir returns the directory for the local database and log files.
// Resolution order: DESKLINE_STATE_DIR, XDG_STATE_HOME, ~/.local/state.
func StateDir() (string, error) {
	if dir := os.Getenv("DESKLINE_STATE_DIR"); dir != "" {
		return dir, nil
	}
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "deskline"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state", "deskline"), nil
}

// EnsureStateDir resolves the state directory and creates it.
func EnsureStateDir() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}
