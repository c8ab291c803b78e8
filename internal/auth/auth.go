// Package auth stores the logged-in principal on disk, separately
// from thread state so logout can clear credentials without touching
// the snapshot and vice versa.
package auth

import (
	"os"
	"path/filepath"

	"github.com/desklinehq/deskline/internal/core"
	"github.com/desklinehq/deskline/internal/types"
)

const credentialsFileName = "credentials.json"

func credentialsPath() (string, error) {
	dir, err := core.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, credentialsFileName), nil
}

// Load reads stored credentials if present. Returns (nil, nil) when
// the user has never logged in.
func Load() (*types.Principal, error) {
	path, err := credentialsPath()
	if err != nil {
		return nil, err
	}
	var principal types.Principal
	ok, err := readJSON(path, &principal)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &principal, nil
}

// Save writes credentials, replacing any previous login.
func Save(principal types.Principal) error {
	path, err := credentialsPath()
	if err != nil {
		return err
	}
	return writeJSONAtomic(path, principal)
}

// Clear removes stored credentials. Clearing when logged out is not
// an error.
func Clear() error {
	path, err := credentialsPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
