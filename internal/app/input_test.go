package app

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/regenrek/splitdesk/internal/geom"
	"github.com/regenrek/splitdesk/internal/instance"
	"github.com/regenrek/splitdesk/internal/pathspec"
	"github.com/regenrek/splitdesk/internal/splittree"
	"github.com/regenrek/splitdesk/internal/tabgroup"
	"github.com/regenrek/splitdesk/internal/windowmgr"
)

// run dispatches cmds and ticks once.
func (h *harness) run(t *testing.T, cmds ...Command) {
	t.Helper()
	for _, cmd := range cmds {
		if err := h.app.Dispatch(cmd); err != nil {
			t.Fatalf("Dispatch(%s) error: %v", cmd.Name(), err)
		}
	}
	if err := h.app.Tick(context.Background()); err != nil {
		t.Fatalf("Tick() error: %v", err)
	}
}

// openTwoFiles starts one 800x600 window whose only group holds a.go, b.go.
func openTwoFiles(t *testing.T, h *harness) (*windowmgr.Window, *splittree.Tree) {
	t.Helper()
	h.app.Startup(context.Background(), nil)
	h.inbound <- instance.OpenPaths{Paths: []pathspec.Object{{Path: "/a.go"}, {Path: "/b.go"}}}
	h.run(t)
	w := h.app.Manager().Active()
	return w, w.ActiveTab().Tree
}

func groupItems(t *testing.T, tree *splittree.Tree, id tabgroup.ID) []string {
	t.Helper()
	g, ok := tree.Group(id)
	if !ok {
		t.Fatalf("group %d missing", id)
	}
	var out []string
	for _, item := range g.Items() {
		out = append(out, item.ID)
	}
	return out
}

func TestWindowGeometryPersisted(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.app.Startup(ctx, nil)
	id := h.app.Manager().Active().ID
	h.run(t,
		WindowMoved{ID: id, Pos: geom.Point{X: 120, Y: 80}},
		WindowResized{ID: id, Size: geom.Size{W: 1280, H: 720}},
		WindowMaximized{ID: id, Maximized: true},
		SaveApp{},
	)
	snap, err := h.store.LoadApp(ctx)
	if err != nil {
		t.Fatalf("LoadApp() error: %v", err)
	}
	rec := snap.Windows[0]
	if rec.Pos != (geom.Point{X: 120, Y: 80}) || rec.Size != (geom.Size{W: 1280, H: 720}) || !rec.Maximised {
		t.Fatalf("record = %#v", rec)
	}
	last, err := h.store.LastWindow(ctx)
	if err != nil || last.Pos != rec.Pos {
		t.Fatalf("LastWindow() = %#v, %v", last, err)
	}

	h.run(t, WindowMaximized{ID: id, Maximized: false}, WindowMoved{ID: id, Pos: geom.Point{X: 5, Y: 6}}, SaveApp{})
	snap, _ = h.store.LoadApp(ctx)
	if snap.Windows[0].Maximised || snap.Windows[0].Pos != (geom.Point{X: 5, Y: 6}) {
		t.Fatalf("record after restore-down = %#v", snap.Windows[0])
	}
}

func TestPointerDragSplitsGroup(t *testing.T) {
	h := newHarness(t)
	w, tree := openTwoFiles(t, h)
	first := tree.Groups()[0]

	// grab the first tab and drop it on the right edge of the content
	h.run(t,
		PointerDown{Window: w.ID, At: geom.Point{X: 80, Y: 10}},
		PointerMove{Window: w.ID, At: geom.Point{X: 700, Y: 300}},
		PointerUp{Window: w.ID, At: geom.Point{X: 790, Y: 300}},
	)
	ids := tree.Groups()
	if len(ids) != 2 {
		t.Fatalf("groups = %d, want 2", len(ids))
	}
	if got := groupItems(t, tree, first); len(got) != 1 || got[0] != "/b.go" {
		t.Fatalf("source group = %#v", got)
	}
	if got := groupItems(t, tree, ids[1]); len(got) != 1 || got[0] != "/a.go" {
		t.Fatalf("new group = %#v", got)
	}
	if w.ActiveTab().Drag.Dragging() {
		t.Fatalf("drag state not cleared after drop")
	}
	if err := tree.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}

	// drag the border between the two groups 50px to the right
	h.run(t,
		PointerDown{Window: w.ID, At: geom.Point{X: 401, Y: 300}},
		PointerMove{Window: w.ID, At: geom.Point{X: 451, Y: 300}},
		PointerUp{Window: w.ID, At: geom.Point{X: 451, Y: 300}},
	)
	ratios, _ := tree.Ratios(tree.Root())
	if math.Abs(ratios[0]-0.5625) > 1e-9 {
		t.Fatalf("ratios = %v", ratios)
	}
	g, _ := tree.Group(ids[1])
	if g.Children[0].Rect.X != 450 {
		t.Fatalf("header not laid out after resize: %#v", g.Children[0].Rect)
	}
}

func TestPointerLeaveCancelsDrag(t *testing.T) {
	h := newHarness(t)
	w, tree := openTwoFiles(t, h)
	h.run(t, PointerDown{Window: w.ID, At: geom.Point{X: 80, Y: 10}})
	if !w.ActiveTab().Drag.Dragging() {
		t.Fatalf("press on a tab should start a drag")
	}
	h.run(t,
		PointerLeave{Window: w.ID},
		PointerUp{Window: w.ID, At: geom.Point{X: 790, Y: 300}},
	)
	if tree.GroupCount() != 1 {
		t.Fatalf("cancelled drag still split: groups = %d", tree.GroupCount())
	}
}

func TestMiddleClickClosesTab(t *testing.T) {
	h := newHarness(t)
	w, tree := openTwoFiles(t, h)
	h.run(t, MiddleClick{Window: w.ID, At: geom.Point{X: 200, Y: 10}})
	if got := groupItems(t, tree, tree.Groups()[0]); len(got) != 1 || got[0] != "/a.go" {
		t.Fatalf("items after middle click = %#v", got)
	}
}

func TestLayoutOpsAndConfirm(t *testing.T) {
	h := newHarness(t)
	w, tree := openTwoFiles(t, h)
	first := tree.Groups()[0]
	h.run(t, LayoutOp{Window: w.ID, Op: splittree.InsertGroupOp{Target: first, Direction: splittree.Horizontal}})
	if tree.GroupCount() != 2 {
		t.Fatalf("groups = %d, want 2", tree.GroupCount())
	}
	h.run(t, LayoutOp{Window: w.ID, Op: splittree.RemoveGroupOp{Group: first}})
	if tree.GroupCount() != 1 {
		t.Fatalf("groups after remove = %d, want 1", tree.GroupCount())
	}
	// a failing op is logged and leaves the tree alone
	h.run(t, LayoutOp{Window: w.ID, Op: splittree.RemoveGroupOp{Group: 999}})
	if err := tree.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}

	g := tree.EnsureGroup()
	idx, _ := g.Open(tabgroup.Editor("/preview.go"), false)
	if g.Children[idx].Confirmed {
		t.Fatalf("preview tab should start unconfirmed")
	}
	h.run(t, ConfirmTab{Window: w.ID, Group: g.ID, Index: idx})
	if !g.Children[idx].Confirmed {
		t.Fatalf("tab not confirmed")
	}
}

func TestWorkspaceTabCommands(t *testing.T) {
	h := newHarness(t)
	h.app.Startup(context.Background(), nil)
	w := h.app.Manager().Active()
	h.run(t,
		AddWorkspaceTab{Window: w.ID, Folder: "/p/b"},
		AddWorkspaceTab{Window: w.ID, Folder: "/p/c"},
		MoveWorkspaceTab{Window: w.ID, From: 2, Target: 0, X: 10, TabWidth: 100},
	)
	if len(w.Tabs) != 3 || w.Tabs[0].Title() != "c" || w.Active != 0 {
		t.Fatalf("tabs = %d first = %q active = %d", len(w.Tabs), w.Tabs[0].Title(), w.Active)
	}
	h.run(t, ActivateWorkspaceTab{Window: w.ID, Index: 2}, CloseWorkspaceTab{Window: w.ID, Index: 0})
	if len(w.Tabs) != 2 || w.ActiveTab().Title() != "b" {
		t.Fatalf("tabs = %d active = %q", len(w.Tabs), w.ActiveTab().Title())
	}
}

func TestHandoffFallbackOpensWindow(t *testing.T) {
	dir, err := os.MkdirTemp("", "sd")
	if err != nil {
		t.Fatalf("MkdirTemp() error: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	ctx := context.Background()

	objs, err := pathspec.ParseAll([]string{"x"})
	if err != nil {
		t.Fatalf("ParseAll() error: %v", err)
	}
	coord := &instance.Coordinator{SocketPath: filepath.Join(dir, "s.sock"), Timeout: 200 * time.Millisecond}
	srv, state, err := coord.Launch(ctx, objs, false)
	if err != nil {
		t.Fatalf("Launch() error: %v", err)
	}
	defer func() { _ = srv.Close() }()
	if state != instance.StateRunningAsServer {
		t.Fatalf("state = %v, want %v", state, instance.StateRunningAsServer)
	}

	h := newHarness(t)
	h.app.inbound = srv.Requests()
	h.app.Startup(ctx, objs)
	if h.app.Manager().Len() != 1 {
		t.Fatalf("windows = %d, want 1", h.app.Manager().Len())
	}
	var opened []string
	for _, ev := range h.events {
		if ev.Kind == windowmgr.EventOpenFile {
			opened = append(opened, ev.File.Path)
		}
	}
	if len(opened) != 1 || opened[0] != objs[0].Path || filepath.Base(opened[0]) != "x" {
		t.Fatalf("opened = %#v", opened)
	}
}
