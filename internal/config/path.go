// Package config resolves ledger settings from viper, the environment and defaults.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix viper uses for environment overrides (LEDGER_DATABASE_PATH, ...).
const EnvPrefix = "LEDGER"

// DefaultDatabasePath is where the ledger lives unless database.path says otherwise.
const DefaultDatabasePath = "~/.local/share/ledger/ledger.db"

// ExpandPath expands ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}

// DatabasePath returns the configured database location, expanded.
func DatabasePath() string {
	p := viper.GetString("database.path")
	if p == "" {
		p = DefaultDatabasePath
	}
	if p == ":memory:" {
		return p
	}
	return ExpandPath(p)
}

// ConfigDir returns the directory holding config.yaml.
func ConfigDir() string {
	return ExpandPath("~/.config/ledger")
}
