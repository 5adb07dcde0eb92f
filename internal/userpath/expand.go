// Package userpath resolves "~" in paths taken from the command line, the
// config file and session records.
package userpath

import (
	"os"
	"path/filepath"
	"strings"
)

// Expand replaces a leading "~" with the home directory. "~user" forms and
// paths without a leading tilde are returned unchanged.
func Expand(path string) string {
	rest, ok := strings.CutPrefix(path, "~")
	if !ok || (rest != "" && !os.IsPathSeparator(rest[0])) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if rest == "" {
		return home
	}
	return filepath.Join(home, rest[1:])
}

// ExpandAll trims, expands and cleans each path, dropping blanks and
// duplicates while keeping the first occurrence's position.
func ExpandAll(paths []string) []string {
	out := make([]string, 0, len(paths))
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		p = filepath.Clean(Expand(p))
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
