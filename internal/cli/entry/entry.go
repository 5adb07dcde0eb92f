package entry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/regenrek/splitdesk/internal/config"
	"github.com/regenrek/splitdesk/internal/identity"
	"github.com/regenrek/splitdesk/internal/logging"
)

const (
	flagNew        = "new"
	flagWait       = "wait"
	flagPluginPath = "plugin-path"
	flagVersion    = "version"
)

// Run starts the CLI and returns the process exit code.
func Run(args []string, version string) int {
	appName := identity.ResolveBinaryName(args)
	mode := logging.ModeFromArgs(args)
	cfg, cfgPath, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}
	closeLogger, err := logging.Init(context.Background(), cfg.Logging, logging.InitOptions{
		App:     identity.AppSlug,
		Version: version,
		Mode:    mode,
	})
	if err != nil {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
		slog.Error("init logging failed; using stderr fallback", "err", err)
	} else if closeLogger != nil {
		defer func() { _ = closeLogger() }()
	}

	cmd := newCommand(appName, version, cfg, cfgPath, args, os.Stdout)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cmd.Run(ctx, args); err != nil {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			if msg := exitErr.Error(); msg != "" {
				fmt.Fprintf(os.Stderr, "%s: %s\n", appName, msg)
			}
			return exitErr.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}
	return 0
}

func loadConfig() (*config.Config, string, error) {
	path, err := config.DefaultConfigPath()
	if err != nil {
		return nil, "", fmt.Errorf("resolve config: %w", err)
	}
	if path != "" {
		if _, err := config.EnsureDefault(path); err != nil {
			return nil, "", fmt.Errorf("init config: %w", err)
		}
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, "", fmt.Errorf("load config: %w", err)
	}
	return cfg, path, nil
}

func newCommand(appName, version string, cfg *config.Config, cfgPath string, args []string, stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:      appName,
		Usage:     "open files and folders in " + identity.BrandName,
		ArgsUsage: "[path[:line[:column]]...]",
		Writer:    stdout,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: flagNew, Usage: "start a new instance instead of reusing the running one"},
			&cli.BoolFlag{Name: flagWait, Usage: "run in the foreground", Hidden: true},
			&cli.StringSliceFlag{Name: flagPluginPath, Usage: "load a plugin from `PATH` (repeatable)"},
			&cli.BoolFlag{Name: flagVersion, Aliases: []string{"v"}, Usage: "print the version"},
		},
		HideVersion: true,
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool(flagVersion) {
				_, _ = fmt.Fprintf(stdout, "%s %s\n", appName, version)
				return ctx, cli.Exit("", 0)
			}
			return ctx, nil
		},
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if !cmd.Bool(flagWait) {
				return relaunch(args)
			}
			return runApp(ctx, runOptions{
				Version:     version,
				Config:      cfg,
				ConfigPath:  cfgPath,
				ForceNew:    cmd.Bool(flagNew),
				PluginPaths: cmd.StringSlice(flagPluginPath),
				Args:        cmd.Args().Slice(),
			})
		},
	}
}
