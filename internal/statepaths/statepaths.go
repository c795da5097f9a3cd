// Package statepaths resolves the relay's working-directory file locations
// from viper configuration.
package statepaths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	sessionFilename = "session.json"
	lockFilename    = "relay.pid"
)

func StateDir() string {
	dir := strings.TrimSpace(viper.GetString("relay.state_dir"))
	if dir == "" {
		dir = "~/.claude-relay"
	}
	return expandHomePath(dir)
}

func SessionStatePath() string {
	return filepath.Join(StateDir(), sessionFilename)
}

func LockPath() string {
	return filepath.Join(StateDir(), lockFilename)
}

// ProfilePath returns the optional static profile file, empty if unset.
func ProfilePath() string {
	path := strings.TrimSpace(viper.GetString("relay.profile_path"))
	if path == "" {
		return ""
	}
	return expandHomePath(path)
}

func expandHomePath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil && home != "" {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
