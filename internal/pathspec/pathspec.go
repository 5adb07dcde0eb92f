// Package pathspec parses command line targets of the form
// path[:line[:column]].
package pathspec

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/regenrek/splitdesk/internal/userpath"
)

var ErrEmptyPath = errors.New("pathspec: empty path")

// Position is a zero-based cursor location.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Object is one open target. It is also the wire form of a path inside an
// open request.
type Object struct {
	Path     string    `json:"path"`
	Position *Position `json:"linecol,omitempty"`
	IsDir    bool      `json:"is_dir"`
}

func (o Object) String() string {
	if o.Position == nil {
		return o.Path
	}
	return fmt.Sprintf("%s:%d:%d", o.Path, o.Position.Line+1, o.Position.Column+1)
}

// Parse resolves arg to an absolute path. A trailing :line or :line:column
// suffix (one-based) is split off unless the whole argument names an
// existing file.
func Parse(arg string) (Object, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return Object{}, ErrEmptyPath
	}
	arg = userpath.Expand(arg)
	path, pos := arg, (*Position)(nil)
	if _, err := os.Stat(arg); err != nil {
		path, pos = splitPosition(arg)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Object{}, fmt.Errorf("pathspec: resolve %q: %w", path, err)
	}
	obj := Object{Path: abs, Position: pos}
	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		obj.IsDir = true
		obj.Position = nil
	}
	return obj, nil
}

// ParseAll parses every argument, stopping at the first error.
func ParseAll(args []string) ([]Object, error) {
	out := make([]Object, 0, len(args))
	for _, arg := range args {
		obj, err := Parse(arg)
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	return out, nil
}

// Partition splits objects into directories and files, keeping order.
func Partition(objs []Object) (dirs, files []Object) {
	for _, obj := range objs {
		if obj.IsDir {
			dirs = append(dirs, obj)
		} else {
			files = append(files, obj)
		}
	}
	return dirs, files
}

func splitPosition(arg string) (string, *Position) {
	head, last, ok := cutNumber(arg)
	if !ok {
		return arg, nil
	}
	if rest, line, ok := cutNumber(head); ok {
		return rest, &Position{Line: oneToZero(line), Column: oneToZero(last)}
	}
	return head, &Position{Line: oneToZero(last)}
}

// cutNumber splits "x:12" into "x" and 12.
func cutNumber(s string) (string, int, bool) {
	idx := strings.LastIndexByte(s, ':')
	if idx <= 0 || idx == len(s)-1 {
		return s, 0, false
	}
	n, err := strconv.Atoi(s[idx+1:])
	if err != nil || n < 0 {
		return s, 0, false
	}
	return s[:idx], n, true
}

func oneToZero(n int) int {
	if n <= 0 {
		return 0
	}
	return n - 1
}
