package windowmgr

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/regenrek/splitdesk/internal/geom"
	"github.com/regenrek/splitdesk/internal/pathspec"
	"github.com/regenrek/splitdesk/internal/sessionstore"
	"github.com/regenrek/splitdesk/internal/tabgroup"
	"github.com/regenrek/splitdesk/internal/workspace"
)

type fakeStore struct {
	snap    *sessionstore.AppSnapshot
	last    *sessionstore.WindowRecord
	loadErr error
	saves   int
}

func (s *fakeStore) SaveApp(_ context.Context, snap sessionstore.AppSnapshot, active *sessionstore.WindowRecord) error {
	s.saves++
	s.snap = &snap
	if active != nil {
		rec := *active
		s.last = &rec
	}
	return nil
}

func (s *fakeStore) LoadApp(context.Context) (sessionstore.AppSnapshot, error) {
	if s.loadErr != nil {
		return sessionstore.AppSnapshot{}, s.loadErr
	}
	if s.snap == nil {
		return sessionstore.AppSnapshot{}, sessionstore.ErrNoSnapshot
	}
	return *s.snap, nil
}

func (s *fakeStore) LastWindow(context.Context) (sessionstore.WindowRecord, error) {
	if s.last == nil {
		return sessionstore.WindowRecord{}, sessionstore.ErrNoSnapshot
	}
	return *s.last, nil
}

var fixedNow = time.Unix(1700000000, 0)

func newManager(store Store) (*Manager, *[]Event) {
	var events []Event
	m := New(store, Options{
		Now:     func() time.Time { return fixedNow },
		OnEvent: func(ev Event) { events = append(events, ev) },
	})
	return m, &events
}

func dirObj(path string) pathspec.Object  { return pathspec.Object{Path: path, IsDir: true} }
func fileObj(path string) pathspec.Object { return pathspec.Object{Path: path} }

func activeItems(t *testing.T, w *Window) []string {
	t.Helper()
	tab := w.ActiveTab()
	if tab == nil {
		t.Fatalf("window %s has no active tab", w.ID)
	}
	g := tab.Tree.ActiveGroup()
	if g == nil {
		return nil
	}
	var out []string
	for _, item := range g.Items() {
		out = append(out, item.ID)
	}
	return out
}

func TestStartupDirectoriesSeedFirstWindow(t *testing.T) {
	base := t.TempDir()
	a, b := filepath.Join(base, "a"), filepath.Join(base, "b")
	store := &fakeStore{last: &sessionstore.WindowRecord{Size: geom.Size{W: 1000, H: 700}, Pos: geom.Point{X: 5, Y: 5}}}
	m, _ := newManager(store)
	m.Startup(context.Background(), []pathspec.Object{dirObj(a), fileObj("/x/main.go"), dirObj(b)})

	wins := m.Windows()
	if len(wins) != 2 {
		t.Fatalf("windows = %d, want 2", len(wins))
	}
	if got := *wins[0].Tabs[0].Workspace.Path; got != a {
		t.Fatalf("first window path = %q, want %q", got, a)
	}
	if got := activeItems(t, wins[0]); len(got) != 1 || got[0] != "/x/main.go" {
		t.Fatalf("first window items = %#v", got)
	}
	if got := activeItems(t, wins[1]); len(got) != 0 {
		t.Fatalf("second window items = %#v", got)
	}
	if wins[0].Size != (geom.Size{W: 1000, H: 700}) || wins[0].Pos != (geom.Point{X: 5, Y: 5}) {
		t.Fatalf("first window geometry = %#v %#v", wins[0].Size, wins[0].Pos)
	}
	if wins[1].Pos != (geom.Point{X: 55, Y: 55}) {
		t.Fatalf("second window pos = %#v", wins[1].Pos)
	}
	if wins[0].Tabs[0].Workspace.LastOpen != fixedNow.Unix() {
		t.Fatalf("last_open not stamped")
	}
}

func TestStartupFilesOnly(t *testing.T) {
	m, events := newManager(&fakeStore{})
	m.Startup(context.Background(), []pathspec.Object{fileObj("/a.go"), fileObj("/b.go")})
	wins := m.Windows()
	if len(wins) != 1 {
		t.Fatalf("windows = %d, want 1", len(wins))
	}
	if wins[0].Tabs[0].Workspace.HasPath() {
		t.Fatalf("files-only window should have an unset workspace")
	}
	if got := activeItems(t, wins[0]); len(got) != 2 || got[0] != "/a.go" || got[1] != "/b.go" {
		t.Fatalf("items = %#v", got)
	}
	if wins[0].Size != (geom.Size{W: DefaultWidth, H: DefaultHeight}) {
		t.Fatalf("size = %#v", wins[0].Size)
	}
	opened := 0
	for _, ev := range *events {
		if ev.Kind == EventOpenFile {
			opened++
		}
	}
	if opened != 2 {
		t.Fatalf("open_file events = %d, want 2", opened)
	}
}

func TestStartupRestoresSnapshot(t *testing.T) {
	path := "/src/proj"
	store := &fakeStore{snap: &sessionstore.AppSnapshot{Windows: []sessionstore.WindowRecord{
		{Size: geom.Size{W: 900, H: 500}, Tabs: sessionstore.TabsInfo{ActiveTab: 1, Workspaces: []workspace.Descriptor{
			workspace.Default(),
			{Kind: workspace.RemoteSSH("box"), Path: &path},
		}}},
		{Size: geom.Size{W: 400, H: 300}, Maximised: true},
	}}}
	m, _ := newManager(store)
	m.Startup(context.Background(), nil)
	wins := m.Windows()
	if len(wins) != 2 {
		t.Fatalf("windows = %d, want 2", len(wins))
	}
	if wins[0].Active != 1 || wins[0].ActiveTab().Title() != "proj [SSH: box]" {
		t.Fatalf("restored tab = %d %q", wins[0].Active, wins[0].ActiveTab().Title())
	}
	if !wins[1].Maximized || len(wins[1].Tabs) != 1 || wins[1].Tabs[0].Title() != workspace.DefaultTitle {
		t.Fatalf("second window = %#v", wins[1].Record())
	}
}

func TestStartupFallsBackToDefaultWindow(t *testing.T) {
	for _, store := range []*fakeStore{{}, {loadErr: errors.New("disk on fire")}} {
		m, _ := newManager(store)
		m.Startup(context.Background(), nil)
		if m.Len() != 1 {
			t.Fatalf("windows = %d, want 1", m.Len())
		}
	}
}

func TestNewWindowOffsetsFromActive(t *testing.T) {
	m, _ := newManager(&fakeStore{})
	first := m.NewWindow(context.Background(), "")
	first.Pos = geom.Point{X: 100, Y: 80}
	first.Resize(geom.Size{W: 1024, H: 768})
	second := m.NewWindow(context.Background(), t.TempDir())
	if second.Size != first.Size || second.Pos != (geom.Point{X: 150, Y: 130}) {
		t.Fatalf("second geometry = %#v %#v", second.Size, second.Pos)
	}
	if m.Active() != second {
		t.Fatalf("new window should be active")
	}
}

func TestLastCloseSavesOnce(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	m, _ := newManager(store)
	a := m.NewWindow(ctx, "")
	b := m.NewWindow(ctx, "")
	if err := m.CloseWindow(ctx, a.ID); err != nil {
		t.Fatalf("CloseWindow() error: %v", err)
	}
	if store.saves != 0 {
		t.Fatalf("saves = %d after first close", store.saves)
	}
	if err := m.WindowClosed(ctx, b.ID); err != nil {
		t.Fatalf("WindowClosed() error: %v", err)
	}
	if store.saves != 1 || len(store.snap.Windows) != 1 {
		t.Fatalf("saves = %d snapshot = %#v", store.saves, store.snap)
	}
	if b.Tabs != nil {
		t.Fatalf("window should be disposed after persistence")
	}
	m.Terminate(ctx)
	if store.saves != 1 {
		t.Fatalf("terminate saved again: %d", store.saves)
	}
}

func TestTerminateSavesAndIgnoresLateClose(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	m, _ := newManager(store)
	a := m.NewWindow(ctx, "")
	m.NewWindow(ctx, "")
	m.Terminate(ctx)
	m.Terminate(ctx)
	if store.saves != 1 || len(store.snap.Windows) != 2 {
		t.Fatalf("saves = %d snapshot = %#v", store.saves, store.snap)
	}
	if err := m.WindowClosed(ctx, a.ID); err != nil {
		t.Fatalf("WindowClosed() after terminate error: %v", err)
	}
	if store.saves != 1 || m.Len() != 0 {
		t.Fatalf("saves = %d windows = %d", store.saves, m.Len())
	}
}

func TestOpenPathsTargetsActiveWindow(t *testing.T) {
	ctx := context.Background()
	m, events := newManager(&fakeStore{})
	a := m.NewWindow(ctx, "")
	b := m.NewWindow(ctx, "")
	if err := m.Focus(a.ID); err != nil {
		t.Fatalf("Focus() error: %v", err)
	}
	*events = nil
	m.OpenPaths(ctx, []pathspec.Object{fileObj("/one.go"), dirObj(t.TempDir())})
	if m.Len() != 3 {
		t.Fatalf("windows = %d, want 3", m.Len())
	}
	if got := activeItems(t, a); len(got) != 1 || got[0] != "/one.go" {
		t.Fatalf("active window items = %#v", got)
	}
	if got := activeItems(t, b); len(got) != 0 {
		t.Fatalf("other window items = %#v", got)
	}
	if m.Active() != a {
		t.Fatalf("files window should be focused")
	}
	last := (*events)[len(*events)-1]
	if last.Kind != EventWindowFocused || last.Window != a.ID {
		t.Fatalf("last event = %#v", last)
	}
}

func TestOpenPathsWithoutWindows(t *testing.T) {
	m, _ := newManager(&fakeStore{})
	m.OpenPaths(context.Background(), []pathspec.Object{fileObj("/x.go")})
	if m.Len() != 1 {
		t.Fatalf("windows = %d, want 1", m.Len())
	}
}

func TestWorkspaceTabs(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(&fakeStore{})
	w := m.NewWindow(ctx, "")
	for _, dir := range []string{"/p/b", "/p/c"} {
		if _, err := m.AddTab(w.ID, dir); err != nil {
			t.Fatalf("AddTab() error: %v", err)
		}
	}
	titles := func() []string {
		var out []string
		for _, tab := range w.Tabs {
			out = append(out, tab.Title())
		}
		return out
	}
	if w.Active != 2 {
		t.Fatalf("active = %d, want 2", w.Active)
	}
	// drop "c" on the left half of the first tab
	if _, err := w.MoveTab(2, 0, 10, 100); err != nil {
		t.Fatalf("MoveTab() error: %v", err)
	}
	if got := titles(); got[0] != "c" || got[1] != workspace.DefaultTitle || got[2] != "b" {
		t.Fatalf("titles = %#v", got)
	}
	if w.Active != 0 {
		t.Fatalf("active should follow the moved tab, got %d", w.Active)
	}
	// dropping on its own right half is a no-op
	if _, err := w.MoveTab(0, 0, 90, 100); err != nil {
		t.Fatalf("MoveTab() error: %v", err)
	}
	if got := titles(); got[0] != "c" {
		t.Fatalf("titles after no-op = %#v", got)
	}
	if err := m.CloseTab(ctx, w.ID, 0); err != nil {
		t.Fatalf("CloseTab() error: %v", err)
	}
	if len(w.Tabs) != 2 || w.Active != 0 {
		t.Fatalf("after close: tabs=%d active=%d", len(w.Tabs), w.Active)
	}
	if err := m.CloseTab(ctx, w.ID, 5); !errors.Is(err, ErrTabOutOfRange) {
		t.Fatalf("CloseTab(5) error = %v", err)
	}
	_ = m.CloseTab(ctx, w.ID, 1)
	if err := m.CloseTab(ctx, w.ID, 0); err != nil {
		t.Fatalf("CloseTab(last) error: %v", err)
	}
	if m.Len() != 0 {
		t.Fatalf("closing the last tab should close the window")
	}
}

func TestReopenAndReload(t *testing.T) {
	ctx := context.Background()
	m, events := newManager(&fakeStore{})
	m.Reopen(ctx, true)
	if m.Len() != 0 {
		t.Fatalf("reopen with visible windows opened one")
	}
	m.Reopen(ctx, false)
	m.Reopen(ctx, false)
	if m.Len() != 2 {
		t.Fatalf("windows = %d, want 2", m.Len())
	}
	*events = nil
	m.ReloadConfig()
	if len(*events) != 2 || (*events)[0].Kind != EventReloadConfig {
		t.Fatalf("events = %#v", *events)
	}
}

func TestOpenedFilesAreConfirmed(t *testing.T) {
	m, _ := newManager(&fakeStore{})
	m.OpenPaths(context.Background(), []pathspec.Object{fileObj("/a.go"), fileObj("/b.go")})
	g := m.Active().ActiveTab().Tree.ActiveGroup()
	for _, child := range g.Children {
		if !child.Confirmed {
			t.Fatalf("child %s should be confirmed", child.Item)
		}
	}
	if item, _ := g.ActiveItem(); item != tabgroup.Editor("/b.go") {
		t.Fatalf("active item = %v", item)
	}
}

func TestGeometryEventsReachSnapshot(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	m, _ := newManager(store)
	w := m.NewWindow(ctx, "")
	if err := m.MoveWindow(w.ID, geom.Point{X: 300, Y: 200}); err != nil {
		t.Fatalf("MoveWindow() error: %v", err)
	}
	if err := m.ResizeWindow(w.ID, geom.Size{W: 1440, H: 900}); err != nil {
		t.Fatalf("ResizeWindow() error: %v", err)
	}
	if err := m.SetMaximized(w.ID, true); err != nil {
		t.Fatalf("SetMaximized() error: %v", err)
	}
	if err := m.ResizeWindow(w.ID, geom.Size{}); err == nil {
		t.Fatalf("expected error for empty size")
	}
	if err := m.MoveWindow(uuid.New(), geom.Point{}); !errors.Is(err, ErrWindowNotFound) {
		t.Fatalf("MoveWindow(unknown) error = %v", err)
	}
	if err := m.CloseWindow(ctx, w.ID); err != nil {
		t.Fatalf("CloseWindow() error: %v", err)
	}
	rec := store.snap.Windows[0]
	if rec.Pos != (geom.Point{X: 300, Y: 200}) || rec.Size != (geom.Size{W: 1440, H: 900}) || !rec.Maximised {
		t.Fatalf("record = %#v", rec)
	}
	if w.Tabs != nil {
		t.Fatalf("window not disposed")
	}
}

func TestWindowAfterLastCloseIsPersistedAgain(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	m, _ := newManager(store)
	a := m.NewWindow(ctx, "")
	if err := m.CloseWindow(ctx, a.ID); err != nil {
		t.Fatalf("CloseWindow() error: %v", err)
	}
	b := m.NewWindow(ctx, "/p/next")
	if err := m.CloseWindow(ctx, b.ID); err != nil {
		t.Fatalf("CloseWindow() error: %v", err)
	}
	if store.saves != 2 {
		t.Fatalf("saves = %d, want 2", store.saves)
	}
	if got := store.snap.Windows[0].Tabs.Workspaces[0].Title(); got != "next" {
		t.Fatalf("second session title = %q", got)
	}
	m.Terminate(ctx)
	if store.saves != 2 {
		t.Fatalf("terminate after the last close saved again: %d", store.saves)
	}
}

func TestHeadersFollowLayout(t *testing.T) {
	m, _ := newManager(&fakeStore{})
	m.OpenPaths(context.Background(), []pathspec.Object{fileObj("/a.go"), fileObj("/b.go")})
	w := m.Active()
	g := w.ActiveTab().Tree.ActiveGroup()
	want := geom.Rect{X: DefaultTabWidth, W: DefaultTabWidth, H: DefaultTabHeight}
	if g.Children[1].Rect != want {
		t.Fatalf("second tab rect = %#v, want %#v", g.Children[1].Rect, want)
	}
	ok, err := m.PointerDown(w.ID, geom.Point{X: DefaultTabWidth + 5, Y: 5})
	if err != nil || !ok {
		t.Fatalf("PointerDown() = %v, %v", ok, err)
	}
	if err := m.ActivateTab(w.ID, 0); err != nil {
		t.Fatalf("ActivateTab() error: %v", err)
	}
	if !w.ActiveTab().Drag.Dragging() {
		t.Fatalf("re-activating the same tab should keep the drag")
	}
	if _, err := m.AddTab(w.ID, ""); err != nil {
		t.Fatalf("AddTab() error: %v", err)
	}
	if w.Tabs[0].Drag.Dragging() {
		t.Fatalf("switching workspace tabs should cancel the drag")
	}
}
