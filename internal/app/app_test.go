package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/regenrek/splitdesk/internal/instance"
	"github.com/regenrek/splitdesk/internal/pathspec"
	"github.com/regenrek/splitdesk/internal/sessionstore"
	"github.com/regenrek/splitdesk/internal/update"
	"github.com/regenrek/splitdesk/internal/windowmgr"
)

type harness struct {
	app      *App
	store    *sessionstore.Store
	inbound  chan instance.OpenPaths
	reloads  chan struct{}
	releases chan update.Release
	events   []windowmgr.Event
	cfgPath  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	store, err := sessionstore.NewStore(filepath.Join(dir, "session"))
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	h := &harness{
		store:    store,
		inbound:  make(chan instance.OpenPaths, 4),
		reloads:  make(chan struct{}, 1),
		releases: make(chan update.Release, 1),
		cfgPath:  filepath.Join(dir, "config.yml"),
	}
	mgr := windowmgr.New(store, windowmgr.Options{
		OnEvent: func(ev windowmgr.Event) { h.events = append(h.events, ev) },
	})
	h.app = New(Options{
		Manager:      mgr,
		ConfigPath:   h.cfgPath,
		Inbound:      h.inbound,
		Reloads:      h.reloads,
		Releases:     h.releases,
		TickInterval: time.Millisecond,
	})
	return h
}

func (h *harness) countEvents(kind windowmgr.EventKind) int {
	n := 0
	for _, ev := range h.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func TestTickDrainsInboundIntoActiveWindow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.app.Startup(ctx, nil)
	h.inbound <- instance.OpenPaths{Paths: []pathspec.Object{{Path: "/a.go"}}}
	h.inbound <- instance.OpenPaths{Paths: []pathspec.Object{{Path: "/b.go"}}}
	if err := h.app.Tick(ctx); err != nil {
		t.Fatalf("Tick() error: %v", err)
	}
	g := h.app.Manager().Active().ActiveTab().Tree.ActiveGroup()
	if g.Len() != 2 {
		t.Fatalf("group has %d tabs, want 2", g.Len())
	}
	if len(h.inbound) != 0 {
		t.Fatalf("inbound not drained")
	}
}

func TestCommandsRunOnTick(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.app.Startup(ctx, nil)
	first := h.app.Manager().Active()
	if err := h.app.Dispatch(NewWindow{}); err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}
	if h.app.Manager().Len() != 1 {
		t.Fatalf("command ran before tick")
	}
	_ = h.app.Tick(ctx)
	if h.app.Manager().Len() != 2 {
		t.Fatalf("windows = %d, want 2", h.app.Manager().Len())
	}
	_ = h.app.Dispatch(WindowGotFocus{ID: first.ID})
	_ = h.app.Dispatch(SaveApp{})
	_ = h.app.Tick(ctx)
	if h.app.Manager().Active() != first {
		t.Fatalf("focus not applied")
	}
	snap, err := h.store.LoadApp(ctx)
	if err != nil || len(snap.Windows) != 2 {
		t.Fatalf("LoadApp() = %#v, %v", snap, err)
	}
}

func TestTerminateStopsLoopAndIgnoresLateClose(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.app.Startup(ctx, nil)
	id := h.app.Manager().Active().ID
	_ = h.app.Dispatch(Terminate{})
	_ = h.app.Dispatch(WindowClosed{ID: id})
	if err := h.app.Tick(ctx); !errors.Is(err, ErrTerminated) {
		t.Fatalf("Tick() error = %v, want ErrTerminated", err)
	}
	if err := h.app.Tick(ctx); !errors.Is(err, ErrTerminated) {
		t.Fatalf("second Tick() error = %v", err)
	}
	snap, err := h.store.LoadApp(ctx)
	if err != nil || len(snap.Windows) != 1 {
		t.Fatalf("LoadApp() = %#v, %v", snap, err)
	}
}

func TestReopenWithoutWindows(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_ = h.app.Dispatch(Reopen{HasVisibleWindows: false})
	_ = h.app.Tick(ctx)
	if h.app.Manager().Len() != 1 {
		t.Fatalf("windows = %d, want 1", h.app.Manager().Len())
	}
}

func TestReloadNotifiesWindows(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.app.Startup(ctx, nil)
	if err := os.WriteFile(h.cfgPath, []byte("window:\n  width: 1234\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	h.reloads <- struct{}{}
	_ = h.app.Tick(ctx)
	if h.app.Config().Window.Width != 1234 {
		t.Fatalf("config not reloaded: %#v", h.app.Config().Window)
	}
	if h.countEvents(windowmgr.EventReloadConfig) != 1 {
		t.Fatalf("reload events = %d", h.countEvents(windowmgr.EventReloadConfig))
	}

	if err := os.WriteFile(h.cfgPath, []byte("window: [broken"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	h.reloads <- struct{}{}
	_ = h.app.Tick(ctx)
	if h.app.Config().Window.Width != 1234 {
		t.Fatalf("bad config should keep the previous one")
	}
}

func TestReleaseStored(t *testing.T) {
	h := newHarness(t)
	h.releases <- update.Release{TagName: "v3.0.0"}
	_ = h.app.Tick(context.Background())
	if rel := h.app.LatestRelease(); rel == nil || rel.Version() != "3.0.0" {
		t.Fatalf("latest = %#v", rel)
	}
}

func TestRunPersistsOnCancel(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	h.app.Startup(ctx, nil)
	done := make(chan error, 1)
	go func() { done <- h.app.Run(ctx) }()
	time.Sleep(10 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run() did not stop")
	}
	if _, err := h.store.LoadApp(context.Background()); err != nil {
		t.Fatalf("session not persisted: %v", err)
	}
}

func TestRunEndsWhenLastWindowCloses(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.app.Startup(ctx, nil)
	_ = h.app.Dispatch(CloseWindow{ID: h.app.Manager().Active().ID})
	done := make(chan error, 1)
	go func() { done <- h.app.Run(ctx) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run() did not stop after the last window closed")
	}
	if !h.app.Manager().Terminated() {
		t.Fatalf("manager should be terminated")
	}
}

func TestDispatchFullQueue(t *testing.T) {
	h := newHarness(t)
	h.app.commands = make(chan Command, 1)
	if err := h.app.Dispatch(SaveApp{}); err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}
	if err := h.app.Dispatch(SaveApp{}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}
