// Package shellenv imports the user's login shell environment when the app
// was started outside a terminal, e.g. from a desktop launcher.
package shellenv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
	"golang.org/x/term"

	"github.com/regenrek/splitdesk/internal/logging"
	"github.com/regenrek/splitdesk/internal/runenv"
)

const DefaultTimeout = 10 * time.Second

const (
	HintLoad = "load"
	HintSkip = "skip"
)

var isTerminal = term.IsTerminal

var ErrNoShell = errors.New("shellenv: SHELL is not set")

// Var is one NAME=value pair.
type Var struct {
	Key   string
	Value string
}

// Loader runs a command that prints the environment and applies it to the
// current process. Zero fields fall back to the os package.
type Loader struct {
	// Command overrides the default login shell invocation. It is split
	// with shell quoting rules.
	Command string
	Timeout time.Duration

	LookupEnv func(string) (string, bool)
	Setenv    func(string, string) error
	Output    func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NeedsLoad reports whether the login shell environment should be applied.
// A launcher hint in the environment wins; otherwise it is needed when stdin
// is not a terminal.
func NeedsLoad() bool {
	switch runenv.ShellEnv() {
	case HintLoad:
		return true
	case HintSkip:
		return false
	}
	return !isTerminal(int(os.Stdin.Fd()))
}

// LaunchHint is the NeedsLoad decision in the form passed to a re-executed
// child through runenv.ShellEnvEnv.
func LaunchHint() string {
	if NeedsLoad() {
		return HintLoad
	}
	return HintSkip
}

// Argv returns the command to run.
func (l Loader) Argv() ([]string, error) {
	if cmd := strings.TrimSpace(l.Command); cmd != "" {
		args, err := shellquote.Split(cmd)
		if err != nil {
			return nil, fmt.Errorf("shellenv: parse command: %w", err)
		}
		if len(args) == 0 {
			return nil, fmt.Errorf("shellenv: command is empty")
		}
		return args, nil
	}
	if runtime.GOOS == "windows" {
		return []string{"powershell", "-Command", `Get-ChildItem env: | ForEach-Object { "{0}={1}" -f $_.Name, $_.Value }`}, nil
	}
	shell, ok := l.lookup("SHELL")
	if !ok || strings.TrimSpace(shell) == "" {
		return nil, ErrNoShell
	}
	return []string{shell, "--login", "-c", "printenv"}, nil
}

// Load runs the command and applies every variable it printed. Variables
// whose value changes are logged; sensitive values are not.
func (l Loader) Load(ctx context.Context) ([]Var, error) {
	argv, err := l.Argv()
	if err != nil {
		return nil, err
	}
	timeout := l.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	out, err := l.output(ctx, argv[0], argv[1:]...)
	if err != nil {
		return nil, fmt.Errorf("shellenv: run %s: %w", logging.SanitizeCommand(strings.Join(argv, " ")), err)
	}
	vars := Parse(out)
	for _, v := range vars {
		if prev, ok := l.lookup(v.Key); ok && prev != v.Value {
			attrs := []any{slog.String("key", v.Key)}
			if !logging.SensitiveEnvKey(v.Key) {
				attrs = append(attrs, slog.String("previous", prev), slog.String("value", v.Value))
			}
			slog.Warn("shellenv: overwriting variable", attrs...)
		}
		if err := l.set(v.Key, v.Value); err != nil {
			slog.Warn("shellenv: set variable failed", slog.String("key", v.Key), slog.Any("err", err))
		}
	}
	slog.Info("shellenv: loaded login environment", slog.Int("vars", len(vars)))
	return vars, nil
}

// Parse reads NAME=value lines. Lines without '=' or with an empty name are
// skipped; a trailing carriage return is dropped.
func Parse(out []byte) []Var {
	var vars []Var
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimRight(line, "\r")
		key, value, ok := strings.Cut(line, "=")
		if !ok || key == "" || strings.ContainsAny(key, " \t") {
			continue
		}
		vars = append(vars, Var{Key: key, Value: value})
	}
	return vars
}

func (l Loader) lookup(key string) (string, bool) {
	if l.LookupEnv != nil {
		return l.LookupEnv(key)
	}
	return os.LookupEnv(key)
}

func (l Loader) set(key, value string) error {
	if l.Setenv != nil {
		return l.Setenv(key, value)
	}
	return os.Setenv(key, value)
}

func (l Loader) output(ctx context.Context, name string, args ...string) ([]byte, error) {
	if l.Output != nil {
		return l.Output(ctx, name, args...)
	}
	return exec.CommandContext(ctx, name, args...).Output()
}
