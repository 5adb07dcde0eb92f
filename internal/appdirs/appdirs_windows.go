//go:build windows

package appdirs

import (
	"fmt"
	"os"
)

func EnsureDir(dir string, _ bool) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("app dir is empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create app dir: %w", err)
	}
	return dir, nil
}

// OwnedByCurrentUser is not checked on windows.
func OwnedByCurrentUser(string) bool {
	return true
}
