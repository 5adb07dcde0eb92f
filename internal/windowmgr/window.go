package windowmgr

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/regenrek/splitdesk/internal/dragdrop"
	"github.com/regenrek/splitdesk/internal/geom"
	"github.com/regenrek/splitdesk/internal/sessionstore"
	"github.com/regenrek/splitdesk/internal/splittree"
	"github.com/regenrek/splitdesk/internal/tabgroup"
	"github.com/regenrek/splitdesk/internal/workspace"
)

var (
	ErrWindowNotFound = errors.New("windowmgr: window not found")
	ErrTabOutOfRange  = errors.New("windowmgr: workspace tab out of range")
	ErrNoActiveTab    = errors.New("windowmgr: window has no workspace tab")
)

// WorkspaceTab is one workspace tab of a window with its own split tree and
// the drag engine that feeds pointer gestures into it.
type WorkspaceTab struct {
	ID        uuid.UUID
	Workspace workspace.Descriptor
	Tree      *splittree.Tree
	Drag      *dragdrop.Engine
}

func newWorkspaceTab(desc workspace.Descriptor) *WorkspaceTab {
	tree := splittree.New()
	return &WorkspaceTab{ID: uuid.New(), Workspace: desc, Tree: tree, Drag: dragdrop.New(tree)}
}

func (t *WorkspaceTab) Title() string {
	return t.Workspace.Title()
}

// Window is an open top-level window. Tabs is never empty while the window
// is registered with a Manager.
type Window struct {
	ID        uuid.UUID
	Size      geom.Size
	Pos       geom.Point
	Maximized bool
	Tabs      []*WorkspaceTab
	Active    int

	// header is the size of one editor tab in a group header.
	header geom.Size
}

func newWindow(size geom.Size, pos geom.Point, header geom.Size) *Window {
	return &Window{ID: uuid.New(), Size: size, Pos: pos, header: header}
}

// ActiveTab returns the focused workspace tab, or nil for a window with no
// tabs.
func (w *Window) ActiveTab() *WorkspaceTab {
	if w.Active < 0 || w.Active >= len(w.Tabs) {
		return nil
	}
	return w.Tabs[w.Active]
}

// AddTab appends a workspace tab and activates it.
func (w *Window) AddTab(desc workspace.Descriptor, now time.Time) *WorkspaceTab {
	desc.Touch(now)
	tab := newWorkspaceTab(desc)
	w.Tabs = append(w.Tabs, tab)
	w.cancelDrag()
	w.Active = len(w.Tabs) - 1
	w.layoutActive()
	return tab
}

// ActivateTab focuses the tab at index.
func (w *Window) ActivateTab(index int, now time.Time) error {
	if index < 0 || index >= len(w.Tabs) {
		return fmt.Errorf("%w: %d", ErrTabOutOfRange, index)
	}
	if index != w.Active {
		w.cancelDrag()
	}
	w.Active = index
	w.Tabs[index].Workspace.Touch(now)
	w.layoutActive()
	return nil
}

// removeTab detaches the tab at index and re-clamps Active. The tab's tree is
// closed by the caller.
func (w *Window) removeTab(index int) (*WorkspaceTab, error) {
	if index < 0 || index >= len(w.Tabs) {
		return nil, fmt.Errorf("%w: %d", ErrTabOutOfRange, index)
	}
	tab := w.Tabs[index]
	w.Tabs = append(w.Tabs[:index], w.Tabs[index+1:]...)
	switch {
	case len(w.Tabs) == 0:
		w.Active = 0
	case index < w.Active:
		w.Active--
	case w.Active >= len(w.Tabs):
		w.Active = len(w.Tabs) - 1
	}
	return tab, nil
}

// MoveTab drops the tab at from onto the tab at target. Dropping on the left
// half of target puts it before target, the right half after.
func (w *Window) MoveTab(from, target int, x, tabWidth float64) (int, error) {
	if from < 0 || from >= len(w.Tabs) {
		return -1, fmt.Errorf("%w: %d", ErrTabOutOfRange, from)
	}
	if target < 0 || target >= len(w.Tabs) {
		return -1, fmt.Errorf("%w: %d", ErrTabOutOfRange, target)
	}
	slot := tabgroup.DropIndex(target, x, tabWidth)
	activeID := w.Tabs[w.Active].ID
	tab := w.Tabs[from]
	w.Tabs = append(w.Tabs[:from], w.Tabs[from+1:]...)
	if from < slot {
		slot--
	}
	w.Tabs = append(w.Tabs, nil)
	copy(w.Tabs[slot+1:], w.Tabs[slot:])
	w.Tabs[slot] = tab
	for i, t := range w.Tabs {
		if t.ID == activeID {
			w.Active = i
		}
	}
	return slot, nil
}

// Resize records the new client size and re-lays out the active tab.
func (w *Window) Resize(size geom.Size) {
	w.Size = size
	w.layoutActive()
}

// Move records the window's new screen position.
func (w *Window) Move(pos geom.Point) {
	w.Pos = pos
}

func (w *Window) SetMaximized(maximized bool) {
	w.Maximized = maximized
}

// layoutActive lays out the active tab's tree and every group header.
func (w *Window) layoutActive() {
	tab := w.ActiveTab()
	if tab == nil {
		return
	}
	tab.Tree.Layout(geom.Rect{W: w.Size.W, H: w.Size.H})
	for _, id := range tab.Tree.Groups() {
		if g, ok := tab.Tree.Group(id); ok {
			g.LayoutHeader(g.Rect, w.header.W, w.header.H)
		}
	}
}

func (w *Window) cancelDrag() {
	if tab := w.ActiveTab(); tab != nil {
		tab.Drag.Cancel()
	}
}

// Record is the persisted form of w.
func (w *Window) Record() sessionstore.WindowRecord {
	rec := sessionstore.WindowRecord{
		Size:      w.Size,
		Pos:       w.Pos,
		Maximised: w.Maximized,
		Tabs:      sessionstore.TabsInfo{ActiveTab: w.Active},
	}
	for _, tab := range w.Tabs {
		rec.Tabs.Workspaces = append(rec.Tabs.Workspaces, tab.Workspace)
	}
	return rec
}

func (w *Window) close() {
	for _, tab := range w.Tabs {
		tab.Drag.Cancel()
		tab.Tree.Close()
	}
	w.Tabs = nil
	w.Active = 0
}
