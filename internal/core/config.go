package core

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// DefaultServerURL is used when neither flags, environment, nor the
// config file name a backend.
const DefaultServerURL = "http://localhost:8000"

// Config stores persistent client settings.
type Config struct {
	Version   int    `json:"version"`
	ServerURL string `json:"server_url,omitempty"`
}

// ConfigPath returns the location of the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func ensureConfigDir() (string, error) {
	path, err := ConfigPath()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	return path, nil
}

// ReadConfig reads the config file if present. A missing file is not
// an error; callers get nil and fall back to defaults.
func ReadConfig() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// WriteConfig writes the config to disk, creating the directory as
// needed.
func WriteConfig(config Config) error {
	path, err := ensureConfigDir()
	if err != nil {
		return err
	}
	if config.Version == 0 {
		config.Version = 1
	}
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

// ResolveServerURL picks the backend base URL. Precedence: explicit
// flag, DESKLINE_SERVER, BACKEND_URL (the server's own convention),
// config file, built-in default.
func ResolveServerURL(flagValue string) string {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v
	}
	if v := strings.TrimSpace(os.Getenv("DESKLINE_SERVER")); v != "" {
		return v
	}
	if v := strings.TrimSpace(os.Getenv("BACKEND_URL")); v != "" {
		return v
	}
	if config, err := ReadConfig(); err == nil && config != nil && strings.TrimSpace(config.ServerURL) != "" {
		return config.ServerURL
	}
	return DefaultServerURL
}
