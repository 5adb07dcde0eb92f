// Package windowmgr owns the open windows, their workspace tabs and the
// startup and shutdown sequencing around the session store.
package windowmgr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/regenrek/splitdesk/internal/geom"
	"github.com/regenrek/splitdesk/internal/pathspec"
	"github.com/regenrek/splitdesk/internal/sessionstore"
	"github.com/regenrek/splitdesk/internal/tabgroup"
	"github.com/regenrek/splitdesk/internal/workspace"
)

const (
	DefaultWidth  = 800
	DefaultHeight = 600
	DefaultOffset = 50

	DefaultTabWidth  = 160
	DefaultTabHeight = 32
)

// Store is the persistence the manager needs.
type Store interface {
	SaveApp(ctx context.Context, snap sessionstore.AppSnapshot, active *sessionstore.WindowRecord) error
	LoadApp(ctx context.Context) (sessionstore.AppSnapshot, error)
	LastWindow(ctx context.Context) (sessionstore.WindowRecord, error)
}

type EventKind uint8

const (
	EventWindowOpened EventKind = iota + 1
	EventWindowClosed
	EventWindowFocused
	EventOpenFile
	EventReloadConfig
)

func (k EventKind) String() string {
	switch k {
	case EventWindowOpened:
		return "window_opened"
	case EventWindowClosed:
		return "window_closed"
	case EventWindowFocused:
		return "window_focused"
	case EventOpenFile:
		return "open_file"
	case EventReloadConfig:
		return "reload_config"
	default:
		return "unknown"
	}
}

// Event tells the presentation layer about a window-level change. File is
// set for EventOpenFile so the editor can place the cursor.
type Event struct {
	Kind   EventKind
	Window uuid.UUID
	Group  tabgroup.ID
	File   pathspec.Object
}

type Options struct {
	DefaultSize geom.Size
	Offset      float64
	// TabSize is the size of one editor tab in a group header.
	TabSize geom.Size
	Now         func() time.Time
	OnEvent     func(Event)
}

// Manager is owned by the UI goroutine and is not safe for concurrent use.
type Manager struct {
	store   Store
	opts    Options
	windows []*Window
	active  uuid.UUID

	persisted  bool
	terminated bool
}

func New(store Store, opts Options) *Manager {
	if opts.DefaultSize.W <= 0 || opts.DefaultSize.H <= 0 {
		opts.DefaultSize = geom.Size{W: DefaultWidth, H: DefaultHeight}
	}
	if opts.Offset <= 0 {
		opts.Offset = DefaultOffset
	}
	if opts.TabSize.W <= 0 || opts.TabSize.H <= 0 {
		opts.TabSize = geom.Size{W: DefaultTabWidth, H: DefaultTabHeight}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{store: store, opts: opts}
}

func (m *Manager) Windows() []*Window {
	return append([]*Window(nil), m.windows...)
}

func (m *Manager) Len() int {
	return len(m.windows)
}

func (m *Manager) Window(id uuid.UUID) (*Window, bool) {
	for _, w := range m.windows {
		if w.ID == id {
			return w, true
		}
	}
	return nil, false
}

// Active returns the focused window, falling back to the newest one.
func (m *Manager) Active() *Window {
	if w, ok := m.Window(m.active); ok {
		return w
	}
	if len(m.windows) == 0 {
		return nil
	}
	return m.windows[len(m.windows)-1]
}

func (m *Manager) Terminated() bool {
	return m.terminated
}

// Startup opens the initial windows: one per directory with files seeded into
// the first, a single unset window for files only, the last snapshot when
// nothing was named, and a default window when all of that yields nothing.
func (m *Manager) Startup(ctx context.Context, objs []pathspec.Object) {
	dirs, files := pathspec.Partition(objs)
	switch {
	case len(dirs) > 0:
		for i, dir := range dirs {
			w := m.openWindow(ctx, workspace.ForDir(dir.Path))
			if i == 0 {
				m.openFiles(w, files)
			}
		}
	case len(files) > 0:
		w := m.openWindow(ctx, workspace.Default())
		m.openFiles(w, files)
	default:
		m.restore(ctx)
	}
	if len(m.windows) == 0 {
		m.openWindow(ctx, workspace.Default())
	}
}

func (m *Manager) restore(ctx context.Context) {
	snap, err := m.store.LoadApp(ctx)
	if err != nil {
		if errors.Is(err, sessionstore.ErrNoSnapshot) {
			slog.Info("windowmgr: no session to restore")
		} else {
			slog.Warn("windowmgr: restore failed", slog.Any("err", err))
		}
		return
	}
	now := m.opts.Now()
	for _, rec := range snap.Windows {
		rec = rec.Normalize()
		w := newWindow(rec.Size, rec.Pos, m.opts.TabSize)
		w.Maximized = rec.Maximised
		for _, desc := range rec.Tabs.Workspaces {
			w.Tabs = append(w.Tabs, newWorkspaceTab(desc))
		}
		w.Active = rec.Tabs.ActiveTab
		w.Tabs[w.Active].Workspace.Touch(now)
		w.layoutActive()
		m.register(w)
	}
}

// NewWindow opens a window on folder, or an unset workspace when folder is
// empty.
func (m *Manager) NewWindow(ctx context.Context, folder string) *Window {
	desc := workspace.Default()
	if folder != "" {
		desc = workspace.ForDir(folder)
	}
	return m.openWindow(ctx, desc)
}

func (m *Manager) openWindow(ctx context.Context, desc workspace.Descriptor) *Window {
	size, pos := m.nextGeometry(ctx)
	w := newWindow(size, pos, m.opts.TabSize)
	w.AddTab(desc, m.opts.Now())
	m.register(w)
	return w
}

// nextGeometry derives a new window's frame from the active window, then the
// last persisted window, then the defaults.
func (m *Manager) nextGeometry(ctx context.Context) (geom.Size, geom.Point) {
	if w := m.Active(); w != nil {
		return w.Size, w.Pos.Add(m.opts.Offset, m.opts.Offset)
	}
	rec, err := m.store.LastWindow(ctx)
	if err == nil && rec.Size.W > 0 && rec.Size.H > 0 {
		return rec.Size, rec.Pos
	}
	if err != nil && !errors.Is(err, sessionstore.ErrNoSnapshot) {
		slog.Warn("windowmgr: read last window failed", slog.Any("err", err))
	}
	return m.opts.DefaultSize, geom.Point{}
}

// register adds w. A window opened after the last one closed starts a new
// session, which is persisted again on its own shutdown.
func (m *Manager) register(w *Window) {
	if len(m.windows) == 0 && !m.terminated {
		m.persisted = false
	}
	m.windows = append(m.windows, w)
	m.active = w.ID
	m.emit(Event{Kind: EventWindowOpened, Window: w.ID})
}

// Focus marks id as the active window.
func (m *Manager) Focus(id uuid.UUID) error {
	if _, ok := m.Window(id); !ok {
		return fmt.Errorf("%w: %s", ErrWindowNotFound, id)
	}
	if m.active != id {
		m.active = id
		m.emit(Event{Kind: EventWindowFocused, Window: id})
	}
	return nil
}

// Reopen handles the app being re-activated; without a visible window a new
// one is opened.
func (m *Manager) Reopen(ctx context.Context, hasVisibleWindows bool) {
	if hasVisibleWindows || m.terminated {
		return
	}
	m.NewWindow(ctx, "")
}

// OpenPaths opens files into the active window's active group and a new
// window per directory, then focuses the window the files went to.
func (m *Manager) OpenPaths(ctx context.Context, objs []pathspec.Object) {
	if m.terminated || len(objs) == 0 {
		return
	}
	dirs, files := pathspec.Partition(objs)
	target := m.Active()
	var last *Window
	for _, dir := range dirs {
		last = m.openWindow(ctx, workspace.ForDir(dir.Path))
	}
	if len(files) > 0 {
		if target == nil {
			target = m.openWindow(ctx, workspace.Default())
		}
		m.openFiles(target, files)
		last = target
	}
	if last != nil {
		_ = m.Focus(last.ID)
	}
}

func (m *Manager) openFiles(w *Window, files []pathspec.Object) {
	tab := w.ActiveTab()
	if tab == nil || len(files) == 0 {
		return
	}
	g := tab.Tree.EnsureGroup()
	for _, f := range files {
		g.Open(tabgroup.Editor(f.Path), true)
		m.emit(Event{Kind: EventOpenFile, Window: w.ID, Group: g.ID, File: f})
	}
	w.layoutActive()
}

// AddTab opens a new workspace tab in window id.
func (m *Manager) AddTab(id uuid.UUID, folder string) (*WorkspaceTab, error) {
	w, ok := m.Window(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWindowNotFound, id)
	}
	desc := workspace.Default()
	if folder != "" {
		desc = workspace.ForDir(folder)
	}
	return w.AddTab(desc, m.opts.Now()), nil
}

// CloseTab closes the workspace tab at index. Closing the last tab closes
// the window.
func (m *Manager) CloseTab(ctx context.Context, id uuid.UUID, index int) error {
	w, ok := m.Window(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrWindowNotFound, id)
	}
	if len(w.Tabs) == 1 && index == 0 {
		return m.CloseWindow(ctx, id)
	}
	tab, err := w.removeTab(index)
	if err != nil {
		return err
	}
	tab.Tree.Close()
	w.layoutActive()
	return nil
}

// CloseWindow removes window id. When it is the last window the session is
// persisted first, exactly once.
func (m *Manager) CloseWindow(ctx context.Context, id uuid.UUID) error {
	idx := -1
	for i, w := range m.windows {
		if w.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrWindowNotFound, id)
	}
	if len(m.windows) == 1 {
		m.persistOnce(ctx)
	}
	w := m.windows[idx]
	m.windows = append(m.windows[:idx], m.windows[idx+1:]...)
	w.close()
	if m.active == id {
		m.active = uuid.Nil
		if n := len(m.windows); n > 0 {
			m.active = m.windows[n-1].ID
		}
	}
	m.emit(Event{Kind: EventWindowClosed, Window: id})
	return nil
}

// WindowClosed reacts to the platform closing a window. After Terminate the
// session is already saved and the notification is ignored.
func (m *Manager) WindowClosed(ctx context.Context, id uuid.UUID) error {
	if m.terminated {
		return nil
	}
	return m.CloseWindow(ctx, id)
}

// Terminate persists the session and disposes every window.
func (m *Manager) Terminate(ctx context.Context) {
	if m.terminated {
		return
	}
	m.persistOnce(ctx)
	m.terminated = true
	for _, w := range m.windows {
		w.close()
		m.emit(Event{Kind: EventWindowClosed, Window: w.ID})
	}
	m.windows = nil
	m.active = uuid.Nil
}

func (m *Manager) persistOnce(ctx context.Context) {
	if m.persisted {
		return
	}
	m.persisted = true
	if err := m.Save(ctx); err != nil {
		slog.Error("windowmgr: persist session failed", slog.Any("err", err))
	}
}

// Save writes the current windows to the store.
func (m *Manager) Save(ctx context.Context) error {
	snap := m.Snapshot()
	var active *sessionstore.WindowRecord
	if w := m.Active(); w != nil {
		rec := w.Record()
		active = &rec
	}
	return m.store.SaveApp(ctx, snap, active)
}

func (m *Manager) Snapshot() sessionstore.AppSnapshot {
	snap := sessionstore.AppSnapshot{Windows: make([]sessionstore.WindowRecord, 0, len(m.windows))}
	for _, w := range m.windows {
		snap.Windows = append(snap.Windows, w.Record())
	}
	return snap
}

// ReloadConfig tells every window to re-read its configuration.
func (m *Manager) ReloadConfig() {
	for _, w := range m.windows {
		m.emit(Event{Kind: EventReloadConfig, Window: w.ID})
	}
}

func (m *Manager) emit(ev Event) {
	if m.opts.OnEvent != nil {
		m.opts.OnEvent(ev)
	}
}
