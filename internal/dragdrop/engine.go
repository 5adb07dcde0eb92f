// Package dragdrop turns pointer gestures into split tree mutations.
//
// The engine holds a single explicit drag state and is owned by the input
// goroutine; nothing here is safe for concurrent use.
package dragdrop

import (
	"errors"
	"fmt"

	"github.com/regenrek/splitdesk/internal/geom"
	"github.com/regenrek/splitdesk/internal/splittree"
	"github.com/regenrek/splitdesk/internal/tabgroup"
)

// BorderSlop is how close to a split border a press must land to grab it.
const BorderSlop = 4

var ErrNotDragging = errors.New("dragdrop: no drag in progress")

type StateKind uint8

const (
	StateNone StateKind = iota
	StateTab
	StateBorder
)

func (k StateKind) String() string {
	switch k {
	case StateTab:
		return "tab"
	case StateBorder:
		return "border"
	default:
		return "none"
	}
}

// State is the in-flight drag. Tab drags use Group and Index; border drags
// use Split, Border, Start and Ratios, the split's ratios at Start.
type State struct {
	Kind   StateKind
	Group  tabgroup.ID
	Index  int
	Split  splittree.SplitID
	Border int
	Start  geom.Point
	Ratios []float64
}

type OutcomeKind uint8

const (
	OutcomeNone OutcomeKind = iota
	OutcomeReorder
	OutcomeMove
	OutcomeSplit
	OutcomeResize
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeReorder:
		return "reorder"
	case OutcomeMove:
		return "move"
	case OutcomeSplit:
		return "split"
	case OutcomeResize:
		return "resize"
	default:
		return "none"
	}
}

// Outcome reports what a gesture did and where the dragged tab ended up.
type Outcome struct {
	Kind  OutcomeKind
	Group tabgroup.ID
	Index int
}

// Hover describes the drop target under the pointer during a tab drag.
type Hover struct {
	Group     tabgroup.ID
	Zone      splittree.Zone
	Highlight geom.Rect
	OverTab   bool
}

type Engine struct {
	tree  *splittree.Tree
	state State
}

func New(tree *splittree.Tree) *Engine {
	return &Engine{tree: tree}
}

func (e *Engine) State() State {
	return e.state
}

func (e *Engine) Dragging() bool {
	return e.state.Kind != StateNone
}

// BeginTabDrag starts dragging tab index of group.
func (e *Engine) BeginTabDrag(group tabgroup.ID, index int) error {
	g, ok := e.tree.Group(group)
	if !ok {
		return fmt.Errorf("%w: %d", splittree.ErrGroupNotFound, group)
	}
	if index < 0 || index >= g.Len() {
		return fmt.Errorf("%w: %d of %d", tabgroup.ErrIndexOutOfRange, index, g.Len())
	}
	e.state = State{Kind: StateTab, Group: group, Index: index}
	return nil
}

// BeginBorderDrag starts resizing the border after child border of split.
func (e *Engine) BeginBorderDrag(split splittree.SplitID, border int, at geom.Point) error {
	n, ok := e.tree.Split(split)
	if !ok {
		return fmt.Errorf("%w: %d", splittree.ErrSplitNotFound, split)
	}
	if border < 0 || border+1 >= len(n.Children) {
		return fmt.Errorf("dragdrop: split %d has no border %d", split, border)
	}
	ratios, _ := e.tree.Ratios(split)
	e.state = State{Kind: StateBorder, Split: split, Border: border, Start: at, Ratios: ratios}
	return nil
}

// PointerDown grabs a split border or a tab under p. It reports whether a
// drag started.
func (e *Engine) PointerDown(p geom.Point) bool {
	if split, border, ok := e.tree.BorderAt(p, BorderSlop); ok {
		return e.BeginBorderDrag(split, border, p) == nil
	}
	id, ok := e.tree.HitGroup(p)
	if !ok {
		return false
	}
	g, _ := e.tree.Group(id)
	idx, _, ok := g.HitTab(p)
	if !ok {
		return false
	}
	return e.BeginTabDrag(id, idx) == nil
}

// PointerMove resizes during a border drag and reports the drop target
// during a tab drag. The shift is measured from the drag start on every
// move, so the border returns under the pointer after being clamped.
func (e *Engine) PointerMove(p geom.Point) (Hover, error) {
	switch e.state.Kind {
	case StateBorder:
		n, ok := e.tree.Split(e.state.Split)
		if !ok {
			e.Cancel()
			return Hover{}, fmt.Errorf("%w: %d", splittree.ErrSplitNotFound, e.state.Split)
		}
		delta := p.X - e.state.Start.X
		if n.Direction == splittree.Horizontal {
			delta = p.Y - e.state.Start.Y
		}
		_, err := e.tree.Apply(splittree.ResizeBorderOp{
			Split:  e.state.Split,
			Border: e.state.Border,
			Delta:  delta,
			Base:   e.state.Ratios,
		})
		return Hover{}, err
	case StateTab:
		id, ok := e.tree.HitGroup(p)
		if !ok {
			return Hover{}, nil
		}
		g, _ := e.tree.Group(id)
		if _, _, onTab := g.HitTab(p); onTab {
			return Hover{Group: id, OverTab: true}, nil
		}
		zone := splittree.DropZone(g.Rect, p)
		return Hover{Group: id, Zone: zone, Highlight: splittree.ZoneRect(g.Rect, zone)}, nil
	default:
		return Hover{}, nil
	}
}

// Drop finishes the gesture at p. The drag state is cleared whatever the
// result.
func (e *Engine) Drop(p geom.Point) (Outcome, error) {
	switch e.state.Kind {
	case StateBorder:
		_, err := e.PointerMove(p)
		e.Cancel()
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Kind: OutcomeResize}, nil
	case StateTab:
		id, ok := e.tree.HitGroup(p)
		if !ok {
			e.Cancel()
			return Outcome{}, nil
		}
		g, _ := e.tree.Group(id)
		if idx, local, onTab := g.HitTab(p); onTab {
			return e.DropOnTab(id, idx, local.X, g.Children[idx].Rect.W)
		}
		return e.DropOnContent(id, p)
	default:
		return Outcome{}, ErrNotDragging
	}
}

// DropOnTab drops onto the header tab at tabIndex of target. x is the
// pointer offset inside that tab.
func (e *Engine) DropOnTab(target tabgroup.ID, tabIndex int, x, tabWidth float64) (Outcome, error) {
	return e.DropAtSlot(target, tabgroup.DropIndex(tabIndex, x, tabWidth))
}

// DropAtSlot drops the dragged tab into slot of target's header. Dropping on
// empty header space uses slot = Len.
func (e *Engine) DropAtSlot(target tabgroup.ID, slot int) (Outcome, error) {
	st, err := e.takeTab()
	if err != nil {
		return Outcome{}, err
	}
	res, err := e.tree.Apply(splittree.MoveChildOp{From: st.Group, Index: st.Index, To: target, Slot: slot})
	if err != nil {
		return Outcome{}, err
	}
	kind := OutcomeMove
	if st.Group == target {
		kind = OutcomeReorder
		if !res.Changed {
			kind = OutcomeNone
		}
	}
	return Outcome{Kind: kind, Group: res.Group, Index: res.Index}, nil
}

// DropOnContent drops into target's content area. An edge zone splits the
// tab off into a new group on that side; the middle zone moves it into
// target right after the active tab.
func (e *Engine) DropOnContent(target tabgroup.ID, p geom.Point) (Outcome, error) {
	g, ok := e.tree.Group(target)
	if !ok {
		e.Cancel()
		return Outcome{}, fmt.Errorf("%w: %d", splittree.ErrGroupNotFound, target)
	}
	zone := splittree.DropZone(g.Rect, p)
	st, err := e.takeTab()
	if err != nil {
		return Outcome{}, err
	}
	side, isEdge := zone.Side()
	if !isEdge {
		if st.Group == target {
			return Outcome{Kind: OutcomeNone, Group: target, Index: st.Index}, nil
		}
		res, err := e.tree.Apply(splittree.MoveChildOp{From: st.Group, Index: st.Index, To: target, Slot: g.Active + 1})
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Kind: OutcomeMove, Group: res.Group, Index: res.Index}, nil
	}
	res, err := e.tree.Apply(splittree.SplitChildOp{From: st.Group, Index: st.Index, Target: target, Side: side})
	if err != nil {
		return Outcome{}, err
	}
	kind := OutcomeSplit
	if res.Group == st.Group {
		kind = OutcomeNone
	}
	return Outcome{Kind: kind, Group: res.Group}, nil
}

// Cancel drops any drag state. Called on escape, pointer leave and focus
// loss.
func (e *Engine) Cancel() {
	e.state = State{}
}

func (e *Engine) takeTab() (State, error) {
	st := e.state
	e.state = State{}
	if st.Kind != StateTab {
		return State{}, ErrNotDragging
	}
	return st, nil
}
