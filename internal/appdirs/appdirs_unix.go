//go:build !windows

package appdirs

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

var permsWarnOnce sync.Once

// EnsureDir creates dir with 0700 or tightens an existing one we own.
// User-supplied overrides only get a warning.
func EnsureDir(dir string, isOverride bool) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("app dir is empty")
	}
	info, err := os.Stat(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("stat app dir: %w", err)
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return "", fmt.Errorf("create app dir: %w", err)
		}
		return dir, nil
	}
	if !info.IsDir() {
		return "", fmt.Errorf("app dir %q is not a directory", dir)
	}
	mode := info.Mode().Perm()
	if mode&0o077 == 0 {
		return dir, nil
	}
	if isOverride {
		permsWarnOnce.Do(func() {
			slog.Warn("app dir is group/world accessible; consider chmod 0700", "path", dir, "mode", mode.String())
		})
		return dir, nil
	}
	if OwnedByCurrentUser(dir) {
		if err := os.Chmod(dir, 0o700); err != nil {
			return "", fmt.Errorf("chmod app dir: %w", err)
		}
		return dir, nil
	}
	permsWarnOnce.Do(func() {
		slog.Warn("app dir is not owned by current user; permissions unchanged", "path", dir, "mode", mode.String())
	})
	return dir, nil
}

// OwnedByCurrentUser reports whether path is owned by the effective uid.
func OwnedByCurrentUser(path string) bool {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return false
	}
	return st.Uid == uint32(unix.Geteuid())
}
