package store

import (
	"log"
	"os"
	"path/filepath"
	"strings"
)

const sqliteFileName = "tracker.sqlite"

// Store is the bridge's local persistence: a string key-value table holding the
// last edited session, plus the log of transmission attempts.
type Store struct {
	Dir string

	// Logger receives problems that are recovered from, such as an unreadable
	// legacy export. Nil discards them.
	Logger *log.Logger
}

// DefaultDir is where state lives when --dir is not given.
func DefaultDir() (string, error) {
	return ConfigDir()
}

func (s Store) Ensure() error {
	return os.MkdirAll(s.Dir, 0o755)
}

func (s Store) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
	}
}

func (s Store) sqlitePath() string {
	return filepath.Join(s.Dir, sqliteFileName)
}

// ConfigDir returns the directory holding config.toml and the database.
func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.pebble-tracker).
	if v := strings.TrimSpace(os.Getenv("PEBBLE_TRACKER_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".pebble-tracker"), nil
}
