package entry

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/regenrek/splitdesk/internal/appdirs"
	"github.com/regenrek/splitdesk/internal/runenv"
	"github.com/regenrek/splitdesk/internal/shellenv"
)

var (
	executable   = os.Executable
	startProcess = func(cmd *exec.Cmd) error { return cmd.Start() }
)

// relaunch re-executes the binary with --wait so the launching terminal is
// released immediately. The child's stdout and stderr go to the logs dir.
// Whether the launching stdin was a terminal is decided here and passed on,
// since the child's stdin is /dev/null.
func relaunch(args []string) error {
	bin, err := executable()
	if err != nil {
		return cli.Exit(fmt.Sprintf("resolve executable: %v", err), 1)
	}
	logs, err := appdirs.LogsDir()
	if err != nil {
		return cli.Exit(fmt.Sprintf("logs dir: %v", err), 1)
	}
	stdout, err := truncate(filepath.Join(logs, "stdout.log"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer stdout.Close()
	stderr, err := truncate(filepath.Join(logs, "stderr.log"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer stderr.Close()

	cmd := exec.Command(bin, waitArgs(args)...)
	cmd.Stdout = stdout
	cmd.Env = append(os.Environ(), runenv.ShellEnvEnv+"="+shellenv.LaunchHint())
	cmd.Stderr = stderr
	detach(cmd)
	if err := startProcess(cmd); err != nil {
		return cli.Exit(fmt.Sprintf("failed to launch: %v", err), 1)
	}
	slog.Debug("entry: relaunched", slog.String("bin", bin))
	if cmd.Process != nil {
		_ = cmd.Process.Release()
	}
	return nil
}

// waitArgs puts --wait ahead of the user's arguments so it is never read as
// a path after "--".
func waitArgs(args []string) []string {
	out := []string{"--" + flagWait}
	if len(args) > 1 {
		out = append(out, args[1:]...)
	}
	return out
}

func truncate(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	return f, nil
}
