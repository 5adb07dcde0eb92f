package entry

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/regenrek/splitdesk/internal/app"
	"github.com/regenrek/splitdesk/internal/appdirs"
	"github.com/regenrek/splitdesk/internal/config"
	"github.com/regenrek/splitdesk/internal/geom"
	"github.com/regenrek/splitdesk/internal/instance"
	"github.com/regenrek/splitdesk/internal/pathspec"
	"github.com/regenrek/splitdesk/internal/runenv"
	"github.com/regenrek/splitdesk/internal/sessionstore"
	"github.com/regenrek/splitdesk/internal/shellenv"
	"github.com/regenrek/splitdesk/internal/update"
	"github.com/regenrek/splitdesk/internal/watcher"
	"github.com/regenrek/splitdesk/internal/windowmgr"
)

type runOptions struct {
	Version     string
	Config      *config.Config
	ConfigPath  string
	ForceNew    bool
	PluginPaths []string
	Args        []string
}

// runApp is the --wait process: hand off or become the instance, then run
// the UI loop until terminated.
func runApp(ctx context.Context, opts runOptions) error {
	cfg := opts.Config
	needsEnv := shellenv.NeedsLoad()
	_ = os.Unsetenv(runenv.ShellEnvEnv)
	if cfg.ShellEnvEnabled() && needsEnv {
		loader := shellenv.Loader{Command: cfg.ShellEnv.Command}
		if _, err := loader.Load(ctx); err != nil {
			slog.Error("entry: load shell environment failed", slog.Any("err", err))
		}
	}

	objs, err := pathspec.ParseAll(opts.Args)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	socket, err := appdirs.SocketPath()
	if err != nil {
		slog.Warn("entry: resolve socket path failed", slog.Any("err", err))
	}
	coord := &instance.Coordinator{SocketPath: socket, Timeout: cfg.HandoffTimeout()}
	srv, state, err := coord.Launch(ctx, objs, opts.ForceNew || cfg.Handoff.Disabled)
	if state == instance.StateHandedOff {
		// Fail closed: a failed handshake still exits without a window.
		return nil
	}
	if err != nil {
		slog.Warn("entry: single instance server unavailable", slog.Any("err", err))
	}
	var inbound <-chan instance.OpenPaths
	if srv != nil {
		defer func() { _ = srv.Close() }()
		inbound = srv.Requests()
	}

	dir, err := appdirs.SessionDir()
	if err != nil {
		return cli.Exit(fmt.Sprintf("session store: %v", err), 1)
	}
	store, err := sessionstore.NewStore(dir)
	if err != nil {
		return cli.Exit(fmt.Sprintf("session store: %v", err), 1)
	}

	var reloads <-chan struct{}
	targets := config.WatchTargets(opts.ConfigPath, opts.PluginPaths, cfg.Watch.Paths)
	if w, err := watcher.New(targets, cfg.WatchDebounce()); err != nil {
		slog.Warn("entry: config watcher unavailable", slog.Any("err", err))
	} else {
		defer func() { _ = w.Close() }()
		reloads = w.Reloads()
	}

	releases := make(chan update.Release, 1)
	if cfg.UpdateEnabled() {
		go newChecker(cfg, opts.Version).Run(ctx, releases)
	}

	mgr := windowmgr.New(store, windowmgr.Options{
		DefaultSize: geom.Size{W: cfg.Window.Width, H: cfg.Window.Height},
		Offset:      cfg.Window.Offset,
		OnEvent: func(ev windowmgr.Event) {
			slog.Debug("entry: window event", slog.String("kind", ev.Kind.String()), slog.String("window", ev.Window.String()))
		},
	})
	a := app.New(app.Options{
		Manager:    mgr,
		Config:     cfg,
		ConfigPath: opts.ConfigPath,
		Inbound:    inbound,
		Reloads:    reloads,
		Releases:   releases,
	})
	a.Startup(ctx, objs)
	slog.Info("entry: running", slog.String("state", state.String()), slog.Int("windows", mgr.Len()))
	return a.Run(ctx)
}

func newChecker(cfg *config.Config, version string) *update.Checker {
	checker := &update.Checker{
		Source:  update.NewFeedClient(cfg.Update.FeedURL),
		Current: version,
		Policy:  update.Policy{CheckInterval: cfg.UpdateInterval()},
	}
	if path, err := update.DefaultStatePath(); err == nil {
		checker.Store = update.FileStore{Path: path}
	}
	return checker
}
