package app

import (
	"github.com/google/uuid"

	"github.com/regenrek/splitdesk/internal/geom"
	"github.com/regenrek/splitdesk/internal/splittree"
	"github.com/regenrek/splitdesk/internal/tabgroup"
)

// Command is queued for the UI loop. App events share the queue.
type Command interface {
	Name() string
}

type SaveApp struct{}

// NewWindow opens a window, on Folder when set.
type NewWindow struct {
	Folder string
}

type CloseWindow struct {
	ID uuid.UUID
}

type WindowGotFocus struct {
	ID uuid.UUID
}

// WindowClosed reports that the platform already closed the window.
type WindowClosed struct {
	ID uuid.UUID
}

// Terminate is the app-wide quit event.
type Terminate struct{}

// Reopen is sent when the app is re-activated, e.g. from a dock icon.
type Reopen struct {
	HasVisibleWindows bool
}

// WindowMoved, WindowResized and WindowMaximized report platform geometry
// changes; they end up in the next snapshot.
type WindowMoved struct {
	ID  uuid.UUID
	Pos geom.Point
}

type WindowResized struct {
	ID   uuid.UUID
	Size geom.Size
}

type WindowMaximized struct {
	ID        uuid.UUID
	Maximized bool
}

// Pointer events are in window client coordinates and go to the drag engine
// of the window's active workspace tab.
type PointerDown struct {
	Window uuid.UUID
	At     geom.Point
}

type PointerMove struct {
	Window uuid.UUID
	At     geom.Point
}

type PointerUp struct {
	Window uuid.UUID
	At     geom.Point
}

// PointerLeave cancels any drag, as does losing focus or pressing escape.
type PointerLeave struct {
	Window uuid.UUID
}

// MiddleClick closes the editor tab under At.
type MiddleClick struct {
	Window uuid.UUID
	At     geom.Point
}

// LayoutOp applies Op to the split tree of the window's active workspace tab.
type LayoutOp struct {
	Window uuid.UUID
	Op     splittree.Op
}

// ConfirmTab pins an editor tab, e.g. on double click.
type ConfirmTab struct {
	Window uuid.UUID
	Group  tabgroup.ID
	Index  int
}

type AddWorkspaceTab struct {
	Window uuid.UUID
	Folder string
}

type CloseWorkspaceTab struct {
	Window uuid.UUID
	Index  int
}

type ActivateWorkspaceTab struct {
	Window uuid.UUID
	Index  int
}

// MoveWorkspaceTab drops tab From onto tab Target; X is the pointer offset
// inside Target.
type MoveWorkspaceTab struct {
	Window   uuid.UUID
	From     int
	Target   int
	X        float64
	TabWidth float64
}

func (SaveApp) Name() string        { return "save_app" }
func (NewWindow) Name() string      { return "new_window" }
func (CloseWindow) Name() string    { return "close_window" }
func (WindowGotFocus) Name() string { return "window_got_focus" }
func (WindowClosed) Name() string   { return "window_closed" }
func (Terminate) Name() string      { return "terminate" }
func (Reopen) Name() string         { return "reopen" }
func (WindowMoved) Name() string          { return "window_moved" }
func (WindowResized) Name() string        { return "window_resized" }
func (WindowMaximized) Name() string      { return "window_maximized" }
func (PointerDown) Name() string          { return "pointer_down" }
func (PointerMove) Name() string          { return "pointer_move" }
func (PointerUp) Name() string            { return "pointer_up" }
func (PointerLeave) Name() string         { return "pointer_leave" }
func (MiddleClick) Name() string          { return "middle_click" }
func (LayoutOp) Name() string             { return "layout_op" }
func (ConfirmTab) Name() string           { return "confirm_tab" }
func (AddWorkspaceTab) Name() string      { return "add_workspace_tab" }
func (CloseWorkspaceTab) Name() string    { return "close_workspace_tab" }
func (ActivateWorkspaceTab) Name() string { return "activate_workspace_tab" }
func (MoveWorkspaceTab) Name() string     { return "move_workspace_tab" }
