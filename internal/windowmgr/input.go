package windowmgr

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/regenrek/splitdesk/internal/dragdrop"
	"github.com/regenrek/splitdesk/internal/geom"
	"github.com/regenrek/splitdesk/internal/splittree"
	"github.com/regenrek/splitdesk/internal/tabgroup"
)

func (m *Manager) lookup(id uuid.UUID) (*Window, error) {
	w, ok := m.Window(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWindowNotFound, id)
	}
	return w, nil
}

func (m *Manager) activeTab(id uuid.UUID) (*Window, *WorkspaceTab, error) {
	w, err := m.lookup(id)
	if err != nil {
		return nil, nil, err
	}
	tab := w.ActiveTab()
	if tab == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoActiveTab, id)
	}
	return w, tab, nil
}

// MoveWindow records a platform move of window id.
func (m *Manager) MoveWindow(id uuid.UUID, pos geom.Point) error {
	w, err := m.lookup(id)
	if err != nil {
		return err
	}
	w.Move(pos)
	return nil
}

// ResizeWindow records a platform resize of window id and re-lays it out.
func (m *Manager) ResizeWindow(id uuid.UUID, size geom.Size) error {
	w, err := m.lookup(id)
	if err != nil {
		return err
	}
	if size.W <= 0 || size.H <= 0 {
		return fmt.Errorf("windowmgr: invalid size %vx%v", size.W, size.H)
	}
	w.Resize(size)
	return nil
}

func (m *Manager) SetMaximized(id uuid.UUID, maximized bool) error {
	w, err := m.lookup(id)
	if err != nil {
		return err
	}
	w.SetMaximized(maximized)
	return nil
}

// ActivateTab focuses workspace tab index of window id.
func (m *Manager) ActivateTab(id uuid.UUID, index int) error {
	w, err := m.lookup(id)
	if err != nil {
		return err
	}
	return w.ActivateTab(index, m.opts.Now())
}

// MoveTab drops workspace tab from onto target in window id's tab bar.
func (m *Manager) MoveTab(id uuid.UUID, from, target int, x, tabWidth float64) (int, error) {
	w, err := m.lookup(id)
	if err != nil {
		return -1, err
	}
	return w.MoveTab(from, target, x, tabWidth)
}

// ApplyLayout runs op on the split tree of window id's active workspace tab.
// Tabs listed in the result's Closed have left the tree for good.
func (m *Manager) ApplyLayout(id uuid.UUID, op splittree.Op) (splittree.ApplyResult, error) {
	w, tab, err := m.activeTab(id)
	if err != nil {
		return splittree.ApplyResult{}, err
	}
	tab.Drag.Cancel()
	res, err := tab.Tree.Apply(op)
	w.layoutActive()
	return res, err
}

// ConfirmTab pins editor tab index of group against preview replacement.
func (m *Manager) ConfirmTab(id uuid.UUID, group tabgroup.ID, index int) error {
	_, tab, err := m.activeTab(id)
	if err != nil {
		return err
	}
	g, ok := tab.Tree.Group(group)
	if !ok {
		return fmt.Errorf("%w: %d", splittree.ErrGroupNotFound, group)
	}
	return g.Confirm(index)
}

// PointerDown starts a border or tab drag at p. A press elsewhere inside a
// group focuses that group. It reports whether a drag started.
func (m *Manager) PointerDown(id uuid.UUID, p geom.Point) (bool, error) {
	_, tab, err := m.activeTab(id)
	if err != nil {
		return false, err
	}
	if tab.Drag.PointerDown(p) {
		if st := tab.Drag.State(); st.Kind == dragdrop.StateTab {
			_ = tab.Tree.SetActiveGroup(st.Group)
		}
		return true, nil
	}
	if gid, ok := tab.Tree.HitGroup(p); ok {
		_ = tab.Tree.SetActiveGroup(gid)
	}
	return false, nil
}

func (m *Manager) PointerMove(id uuid.UUID, p geom.Point) (dragdrop.Hover, error) {
	w, tab, err := m.activeTab(id)
	if err != nil {
		return dragdrop.Hover{}, err
	}
	if !tab.Drag.Dragging() {
		return dragdrop.Hover{}, nil
	}
	hover, err := tab.Drag.PointerMove(p)
	if tab.Drag.State().Kind == dragdrop.StateBorder {
		w.layoutActive()
	}
	return hover, err
}

// PointerUp finishes the gesture at p.
func (m *Manager) PointerUp(id uuid.UUID, p geom.Point) (dragdrop.Outcome, error) {
	w, tab, err := m.activeTab(id)
	if err != nil {
		return dragdrop.Outcome{}, err
	}
	if !tab.Drag.Dragging() {
		return dragdrop.Outcome{}, nil
	}
	out, err := tab.Drag.Drop(p)
	w.layoutActive()
	return out, err
}

// PointerLeave abandons any drag in window id.
func (m *Manager) PointerLeave(id uuid.UUID) error {
	_, tab, err := m.activeTab(id)
	if err != nil {
		return err
	}
	tab.Drag.Cancel()
	return nil
}

// MiddleClick closes the editor tab under p, if any. It reports whether a
// tab was closed.
func (m *Manager) MiddleClick(id uuid.UUID, p geom.Point) (bool, error) {
	w, tab, err := m.activeTab(id)
	if err != nil {
		return false, err
	}
	gid, ok := tab.Tree.HitGroup(p)
	if !ok {
		return false, nil
	}
	g, _ := tab.Tree.Group(gid)
	idx, _, ok := g.HitTab(p)
	if !ok {
		return false, nil
	}
	if _, err := tab.Tree.CloseChild(gid, idx); err != nil {
		return false, err
	}
	w.layoutActive()
	return true, nil
}
