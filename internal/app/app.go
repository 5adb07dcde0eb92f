// Package app runs the UI loop: the single goroutine that owns every window
// and drains background channels once per tick.
package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/regenrek/splitdesk/internal/config"
	"github.com/regenrek/splitdesk/internal/dragdrop"
	"github.com/regenrek/splitdesk/internal/instance"
	"github.com/regenrek/splitdesk/internal/pathspec"
	"github.com/regenrek/splitdesk/internal/splittree"
	"github.com/regenrek/splitdesk/internal/update"
	"github.com/regenrek/splitdesk/internal/windowmgr"
)

const (
	DefaultTickInterval = 16 * time.Millisecond
	DefaultCommandQueue = 64
)

var (
	ErrQueueFull  = errors.New("app: command queue full")
	ErrTerminated = errors.New("app: terminated")
)

type Options struct {
	Manager    *windowmgr.Manager
	Config     *config.Config
	ConfigPath string

	Inbound  <-chan instance.OpenPaths
	Reloads  <-chan struct{}
	Releases <-chan update.Release

	TickInterval time.Duration
	QueueSize    int
}

// App is not safe for concurrent use except for Dispatch.
type App struct {
	mgr        *windowmgr.Manager
	cfg        *config.Config
	configPath string

	inbound  <-chan instance.OpenPaths
	reloads  <-chan struct{}
	releases <-chan update.Release
	commands chan Command

	tick   time.Duration
	latest *update.Release
}

func New(opts Options) *App {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultCommandQueue
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = &config.Config{}
		cfg.ApplyDefaults()
	}
	return &App{
		mgr:        opts.Manager,
		cfg:        cfg,
		configPath: opts.ConfigPath,
		inbound:    opts.Inbound,
		reloads:    opts.Reloads,
		releases:   opts.Releases,
		commands:   make(chan Command, opts.QueueSize),
		tick:       opts.TickInterval,
	}
}

func (a *App) Manager() *windowmgr.Manager {
	return a.mgr
}

func (a *App) Config() *config.Config {
	return a.cfg
}

// LatestRelease is the newest release reported by the update checker.
func (a *App) LatestRelease() *update.Release {
	return a.latest
}

// Dispatch queues cmd for the next tick. It is safe from any goroutine.
func (a *App) Dispatch(cmd Command) error {
	select {
	case a.commands <- cmd:
		return nil
	default:
		return ErrQueueFull
	}
}

// Tick drains every pending input once. It returns ErrTerminated after the
// app has terminated.
func (a *App) Tick(ctx context.Context) error {
	if a.mgr.Terminated() {
		return ErrTerminated
	}
	a.drainInbound(ctx)
	a.drainReloads()
	a.drainReleases()
	a.drainCommands(ctx)
	if a.mgr.Terminated() {
		return ErrTerminated
	}
	return nil
}

// Run ticks until ctx is done or the app terminates. Cancellation is
// treated as a Terminate event.
func (a *App) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			a.mgr.Terminate(context.WithoutCancel(ctx))
			return nil
		case <-ticker.C:
			if err := a.Tick(ctx); errors.Is(err, ErrTerminated) {
				return nil
			}
			if a.mgr.Len() == 0 {
				slog.Info("app: last window closed")
				a.mgr.Terminate(ctx)
				return nil
			}
		}
	}
}

func (a *App) drainInbound(ctx context.Context) {
	for {
		select {
		case req, ok := <-a.inbound:
			if !ok {
				a.inbound = nil
				return
			}
			slog.Info("app: open request", slog.Int("paths", len(req.Paths)))
			a.mgr.OpenPaths(ctx, req.Paths)
		default:
			return
		}
	}
}

func (a *App) drainReloads() {
	select {
	case _, ok := <-a.reloads:
		if !ok {
			a.reloads = nil
			return
		}
		a.reloadConfig()
	default:
	}
}

func (a *App) reloadConfig() {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		slog.Warn("app: reload config failed", slog.String("path", a.configPath), slog.Any("err", err))
		return
	}
	a.cfg = cfg
	slog.Info("app: config reloaded", slog.String("path", a.configPath))
	a.mgr.ReloadConfig()
}

func (a *App) drainReleases() {
	for {
		select {
		case rel, ok := <-a.releases:
			if !ok {
				a.releases = nil
				return
			}
			a.latest = &rel
		default:
			return
		}
	}
}

func (a *App) drainCommands(ctx context.Context) {
	for {
		select {
		case cmd := <-a.commands:
			a.execute(ctx, cmd)
			if a.mgr.Terminated() {
				return
			}
		default:
			return
		}
	}
}

func (a *App) execute(ctx context.Context, cmd Command) {
	var err error
	switch c := cmd.(type) {
	case SaveApp:
		err = a.mgr.Save(ctx)
	case NewWindow:
		a.mgr.NewWindow(ctx, c.Folder)
	case CloseWindow:
		err = a.mgr.CloseWindow(ctx, c.ID)
	case WindowGotFocus:
		err = a.mgr.Focus(c.ID)
	case WindowClosed:
		err = a.mgr.WindowClosed(ctx, c.ID)
	case Terminate:
		a.mgr.Terminate(ctx)
	case Reopen:
		a.mgr.Reopen(ctx, c.HasVisibleWindows)
	case WindowMoved:
		err = a.mgr.MoveWindow(c.ID, c.Pos)
	case WindowResized:
		err = a.mgr.ResizeWindow(c.ID, c.Size)
	case WindowMaximized:
		err = a.mgr.SetMaximized(c.ID, c.Maximized)
	case PointerDown:
		_, err = a.mgr.PointerDown(c.Window, c.At)
	case PointerMove:
		_, err = a.mgr.PointerMove(c.Window, c.At)
	case PointerUp:
		var out dragdrop.Outcome
		out, err = a.mgr.PointerUp(c.Window, c.At)
		if err == nil && out.Kind != dragdrop.OutcomeNone {
			slog.Debug("app: drop", slog.String("outcome", out.Kind.String()), slog.Uint64("group", uint64(out.Group)))
		}
	case PointerLeave:
		err = a.mgr.PointerLeave(c.Window)
	case MiddleClick:
		_, err = a.mgr.MiddleClick(c.Window, c.At)
	case LayoutOp:
		var res splittree.ApplyResult
		res, err = a.mgr.ApplyLayout(c.Window, c.Op)
		if err == nil && len(res.Closed) > 0 {
			slog.Debug("app: layout closed tabs", slog.String("op", string(c.Op.Kind())), slog.Int("closed", len(res.Closed)))
		}
	case ConfirmTab:
		err = a.mgr.ConfirmTab(c.Window, c.Group, c.Index)
	case AddWorkspaceTab:
		_, err = a.mgr.AddTab(c.Window, c.Folder)
	case CloseWorkspaceTab:
		err = a.mgr.CloseTab(ctx, c.Window, c.Index)
	case ActivateWorkspaceTab:
		err = a.mgr.ActivateTab(c.Window, c.Index)
	case MoveWorkspaceTab:
		_, err = a.mgr.MoveTab(c.Window, c.From, c.Target, c.X, c.TabWidth)
	default:
		slog.Warn("app: unknown command", slog.String("command", cmd.Name()))
		return
	}
	if err != nil {
		slog.Warn("app: command failed", slog.String("command", cmd.Name()), slog.Any("err", err))
	}
}

// Startup opens the initial windows for objs.
func (a *App) Startup(ctx context.Context, objs []pathspec.Object) {
	a.mgr.Startup(ctx, objs)
}
