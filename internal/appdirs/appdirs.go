package appdirs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/regenrek/splitdesk/internal/identity"
	"github.com/regenrek/splitdesk/internal/runenv"
)

// ConfigDirPath resolves the config directory without creating it.
func ConfigDirPath() (string, error) {
	if override := runenv.ConfigDir(); override != "" {
		return override, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, identity.AppSlug), nil
}

// DataDirPath resolves the data directory without creating it.
func DataDirPath() (string, error) {
	if override := runenv.DataDir(); override != "" {
		return override, nil
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, identity.AppSlug), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".local", "share", identity.AppSlug), nil
}

// RuntimeDirPath resolves the runtime directory without creating it.
func RuntimeDirPath() (string, error) {
	if override := runenv.RuntimeDir(); override != "" {
		return override, nil
	}
	if xdg := os.Getenv("XDG_RUNTIME_DIR"); xdg != "" {
		return filepath.Join(xdg, identity.AppSlug), nil
	}
	return DataDirPath()
}

// ConfigDir returns the config directory, creating it with 0700 if missing.
func ConfigDir() (string, error) {
	dir, err := ConfigDirPath()
	if err != nil {
		return "", err
	}
	return EnsureDir(dir, runenv.ConfigDir() != "")
}

// DataDir returns the directory holding the session store and local channel.
func DataDir() (string, error) {
	dir, err := DataDirPath()
	if err != nil {
		return "", err
	}
	return EnsureDir(dir, runenv.DataDir() != "")
}

// RuntimeDir returns the directory used for runtime state.
func RuntimeDir() (string, error) {
	dir, err := RuntimeDirPath()
	if err != nil {
		return "", err
	}
	return EnsureDir(dir, runenv.RuntimeDir() != "")
}

// LogsDir returns <data dir>/logs.
func LogsDir() (string, error) {
	base, err := DataDirPath()
	if err != nil {
		return "", err
	}
	return EnsureDir(filepath.Join(base, identity.LogsDirName), runenv.DataDir() != "")
}

// SessionDir returns <data dir>/session without creating it.
func SessionDir() (string, error) {
	base, err := DataDirPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, identity.SessionDirName), nil
}

// SocketPath returns the well-known local channel address.
func SocketPath() (string, error) {
	if override := runenv.SocketPath(); override != "" {
		return override, nil
	}
	dir, err := RuntimeDirPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, identity.SocketFileName), nil
}
