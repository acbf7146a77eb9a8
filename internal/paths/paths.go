// Package paths resolves configuration and database file locations for
// the sparrowctl CLI.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// Default file and directory names.
const (
	DefaultDatabaseName = "sparrow.db"
)

// Environment variable names for overrides.
const (
	EnvConfigDir = "SPARROW_CONFIG_DIR"
	EnvDatabase  = "SPARROW_DATABASE"
)

// platformDir holds platform-detection functions that can be overridden
// in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration
// directory.
//
// Linux:   $XDG_CONFIG_HOME/sparrow (fallback ~/.config/sparrow)
// macOS:   ~/Library/Application Support/sparrow
// Windows: %APPDATA%/sparrow
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "sparrow"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "sparrow"), nil
	default:
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "sparrow"), nil
	}
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > SPARROW_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDatabase returns the database path following the precedence
// chain: flag > config value > SPARROW_DATABASE env > $(CWD)/sparrow.db.
func ResolveDatabase(flag, configValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	if env := os.Getenv(EnvDatabase); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDatabaseName), nil
}
