package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnv names the environment variable that overrides the filescan home directory.
const HomeEnv = "FILESCAN_HOME"

// GetFilescanHome returns the directory holding filescan's own state.
// Priority order:
//  1. FILESCAN_HOME environment variable (if set)
//  2. $XDG_CONFIG_HOME/filescan or the platform equivalent
//
// The directory is created if it doesn't exist
func GetFilescanHome() (string, error) {
	home := os.Getenv(HomeEnv)
	if home == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("locate user config directory: %w", err)
		}
		home = filepath.Join(base, "filescan")
	}

	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create filescan home directory: %w", err)
	}
	return home, nil
}

// DefaultHistoryDBPath returns $FILESCAN_HOME/history.db.
func DefaultHistoryDBPath() (string, error) {
	home, err := GetFilescanHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "history.db"), nil
}

// ResolveHistoryDB returns the database the history command reads.
// An explicit path wins; otherwise the default location is used.
func ResolveHistoryDB(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	return DefaultHistoryDBPath()
}
