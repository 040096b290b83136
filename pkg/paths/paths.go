// Package paths centralizes filesystem locations for genlink, following
// the XDG Base Directory specification with environment overrides.
package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// Environment variable names
const (
	// EnvStateDir overrides the directory holding the generation record
	EnvStateDir = "GENLINK_STATE_DIR"

	// EnvConfig overrides the configuration file location
	EnvConfig = "GENLINK_CONFIG"
)

// Names under the state and config directories.
// These define genlink's on-disk record structure and are not
// user-configurable; the state directory location is.
const (
	// AppDirName is the subdirectory used under XDG base directories
	AppDirName = "genlink"

	// StateFileName is the persisted generation record
	StateFileName = "state.json"

	// LockFileName serializes mutating operations across processes
	LockFileName = "genlink.lock"

	// LogFileName is the append-mode log file
	LogFileName = "genlink.log"

	// ConfigFileName is the default configuration file name
	ConfigFileName = "genlink.toml"
)

// DefaultStateDir returns the generation record directory: the
// GENLINK_STATE_DIR override if set, otherwise $XDG_STATE_HOME/genlink.
func DefaultStateDir() string {
	if dir := os.Getenv(EnvStateDir); dir != "" {
		return dir
	}
	return filepath.Join(xdg.StateHome, AppDirName)
}

// LogFilePath returns the log file location, kept alongside the state
// record so a single directory carries everything genlink writes.
func LogFilePath() string {
	return filepath.Join(DefaultStateDir(), LogFileName)
}

// ConfigSearchPaths returns candidate configuration files in precedence
// order: the GENLINK_CONFIG override, the XDG config file, then a
// genlink.toml in the working directory.
func ConfigSearchPaths() []string {
	var candidates []string
	if path := os.Getenv(EnvConfig); path != "" {
		candidates = append(candidates, path)
	}
	candidates = append(candidates,
		filepath.Join(xdg.ConfigHome, AppDirName, ConfigFileName),
		ConfigFileName,
	)
	return candidates
}

// FindConfig returns the first existing candidate from
// ConfigSearchPaths, or "" if none exists.
func FindConfig() string {
	for _, candidate := range ConfigSearchPaths() {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
