package splittree

import (
	"errors"
	"fmt"
	"math"

	"github.com/regenrek/splitdesk/internal/geom"
	"github.com/regenrek/splitdesk/internal/tabgroup"
)

var (
	ErrGroupNotFound = errors.New("splittree: group not found")
	ErrSplitNotFound = errors.New("splittree: split not found")
	ErrSameGroup     = errors.New("splittree: source and target are the same group")
	ErrNoLayout      = errors.New("splittree: layout has not been computed")
)

// Tree owns the splits and groups of one workspace tab. It is not safe for
// concurrent use; the UI goroutine owns it.
type Tree struct {
	root   SplitID
	splits map[SplitID]*Node
	groups map[tabgroup.ID]*tabgroup.Group
	parent map[Content]SplitID
	nextID uint64

	active   tabgroup.ID
	rootRect geom.Rect

	disposers   map[Content][]func()
	subscribers []subscriber
	nextSub     uint64
}

// New returns a tree whose root split holds one empty group.
func New() *Tree {
	t := NewEmpty()
	g := t.newGroup()
	t.attach(t.root, 0, GroupContent(g.ID), 1)
	t.active = g.ID
	return t
}

// NewEmpty returns a tree with an empty root split and no groups.
func NewEmpty() *Tree {
	t := &Tree{
		splits:    map[SplitID]*Node{},
		groups:    map[tabgroup.ID]*tabgroup.Group{},
		parent:    map[Content]SplitID{},
		disposers: map[Content][]func(){},
	}
	t.root = t.newSplit(Vertical).ID
	return t
}

func (t *Tree) Root() SplitID {
	return t.root
}

func (t *Tree) Split(id SplitID) (*Node, bool) {
	n, ok := t.splits[id]
	return n, ok
}

func (t *Tree) Group(id tabgroup.ID) (*tabgroup.Group, bool) {
	g, ok := t.groups[id]
	return g, ok
}

// Groups returns group ids in depth-first, left-to-right order.
func (t *Tree) Groups() []tabgroup.ID {
	var out []tabgroup.ID
	t.walk(t.root, func(c Content) {
		if c.IsGroup() {
			out = append(out, c.GroupID())
		}
	})
	return out
}

func (t *Tree) GroupCount() int {
	return len(t.groups)
}

func (t *Tree) SplitCount() int {
	return len(t.splits)
}

// ParentOf returns the split holding c.
func (t *Tree) ParentOf(c Content) (SplitID, bool) {
	id, ok := t.parent[c]
	return id, ok
}

// ActiveGroup returns the focused group, or nil when the tree has none.
func (t *Tree) ActiveGroup() *tabgroup.Group {
	return t.groups[t.active]
}

func (t *Tree) SetActiveGroup(id tabgroup.ID) error {
	if _, ok := t.groups[id]; !ok {
		return fmt.Errorf("%w: %d", ErrGroupNotFound, id)
	}
	if t.active != id {
		t.active = id
		t.emit(EventActiveGroupChanged, GroupContent(id))
	}
	return nil
}

// EnsureGroup returns the active group, creating one under the root when the
// tree is empty.
func (t *Tree) EnsureGroup() *tabgroup.Group {
	if g := t.ActiveGroup(); g != nil {
		return g
	}
	if ids := t.Groups(); len(ids) > 0 {
		_ = t.SetActiveGroup(ids[0])
		return t.groups[ids[0]]
	}
	g := t.newGroup()
	t.attach(t.root, 0, GroupContent(g.ID), 1)
	_ = t.SetActiveGroup(g.ID)
	return g
}

// Layout computes the rectangle of every split and group from rect.
func (t *Tree) Layout(rect geom.Rect) {
	t.rootRect = rect
	t.layout(t.root, rect)
}

func (t *Tree) layout(id SplitID, rect geom.Rect) {
	n := t.splits[id]
	if n == nil {
		return
	}
	n.Rect = rect
	offset := 0.0
	for i, child := range n.Children {
		var r geom.Rect
		if n.Direction == Vertical {
			w := child.Ratio * rect.W
			if i == len(n.Children)-1 {
				w = rect.W - offset
			}
			r = geom.Rect{X: rect.X + offset, Y: rect.Y, W: w, H: rect.H}
			offset += w
		} else {
			h := child.Ratio * rect.H
			if i == len(n.Children)-1 {
				h = rect.H - offset
			}
			r = geom.Rect{X: rect.X, Y: rect.Y + offset, W: rect.W, H: h}
			offset += h
		}
		if child.Content.IsGroup() {
			if g := t.groups[child.Content.GroupID()]; g != nil {
				g.Rect = r
			}
			continue
		}
		t.layout(child.Content.SplitID(), r)
	}
}

// HitGroup returns the group whose laid-out rectangle contains p.
func (t *Tree) HitGroup(p geom.Point) (tabgroup.ID, bool) {
	for _, id := range t.Groups() {
		if t.groups[id].Rect.Contains(p) {
			return id, true
		}
	}
	return 0, false
}

func (t *Tree) walk(id SplitID, fn func(Content)) {
	n := t.splits[id]
	if n == nil {
		return
	}
	for _, child := range n.Children {
		fn(child.Content)
		if !child.Content.IsGroup() {
			t.walk(child.Content.SplitID(), fn)
		}
	}
}

// Validate checks ratio sums, parent links, reachability and that only the
// root split may have fewer than two children.
func (t *Tree) Validate() error {
	root := t.splits[t.root]
	if root == nil {
		return fmt.Errorf("%w: root %d", ErrSplitNotFound, t.root)
	}
	if len(root.Children) == 0 && len(t.groups) > 0 {
		return errors.New("splittree: root is empty but groups exist")
	}
	seen := map[Content]bool{SplitContent(t.root): true}
	var check func(n *Node) error
	check = func(n *Node) error {
		if n.ID != t.root && len(n.Children) < 2 {
			return fmt.Errorf("splittree: split %d has %d children", n.ID, len(n.Children))
		}
		sum := 0.0
		for _, child := range n.Children {
			if child.Ratio < 0 || math.IsNaN(child.Ratio) {
				return fmt.Errorf("splittree: split %d has ratio %v", n.ID, child.Ratio)
			}
			sum += child.Ratio
			if seen[child.Content] {
				return fmt.Errorf("splittree: %s reachable twice", child.Content)
			}
			seen[child.Content] = true
			if p, ok := t.parent[child.Content]; !ok || p != n.ID {
				return fmt.Errorf("splittree: %s parent link %d, want %d", child.Content, p, n.ID)
			}
			if child.Content.IsGroup() {
				if _, ok := t.groups[child.Content.GroupID()]; !ok {
					return fmt.Errorf("%w: %d", ErrGroupNotFound, child.Content.ID)
				}
				continue
			}
			next := t.splits[child.Content.SplitID()]
			if next == nil {
				return fmt.Errorf("%w: %d", ErrSplitNotFound, child.Content.ID)
			}
			if err := check(next); err != nil {
				return err
			}
		}
		if len(n.Children) > 0 && math.Abs(sum-1) > RatioTolerance {
			return fmt.Errorf("splittree: split %d ratios sum to %.12f", n.ID, sum)
		}
		return nil
	}
	if err := check(root); err != nil {
		return err
	}
	if len(seen) != len(t.splits)+len(t.groups) {
		return fmt.Errorf("splittree: %d nodes reachable, %d allocated", len(seen), len(t.splits)+len(t.groups))
	}
	if len(t.groups) > 0 {
		if _, ok := t.groups[t.active]; !ok {
			return fmt.Errorf("splittree: active group %d is not in the tree", t.active)
		}
	}
	return nil
}

func (t *Tree) allocID() uint64 {
	t.nextID++
	return t.nextID
}

func (t *Tree) newGroup() *tabgroup.Group {
	g := tabgroup.New(tabgroup.ID(t.allocID()))
	t.groups[g.ID] = g
	t.emit(EventGroupAdded, GroupContent(g.ID))
	return g
}

func (t *Tree) newSplit(dir Direction) *Node {
	n := &Node{ID: SplitID(t.allocID()), Direction: dir}
	t.splits[n.ID] = n
	t.emit(EventSplitAdded, SplitContent(n.ID))
	return n
}

// attach inserts c into split id at index with the given ratio. Callers are
// responsible for keeping the sum at 1.
func (t *Tree) attach(id SplitID, index int, c Content, ratio float64) {
	n := t.splits[id]
	if index < 0 || index > len(n.Children) {
		index = len(n.Children)
	}
	n.Children = append(n.Children, Child{})
	copy(n.Children[index+1:], n.Children[index:])
	n.Children[index] = Child{Ratio: ratio, Content: c}
	t.parent[c] = id
}

func (t *Tree) relayout() {
	if !t.rootRect.Empty() {
		t.layout(t.root, t.rootRect)
	}
}

// BorderAt finds the split border within slop pixels of p. Border i sits
// between children i and i+1. Deeper splits win over their ancestors.
func (t *Tree) BorderAt(p geom.Point, slop float64) (SplitID, int, bool) {
	var (
		found  SplitID
		border int
		ok     bool
	)
	var visit func(id SplitID)
	visit = func(id SplitID) {
		n := t.splits[id]
		if n == nil || !n.Rect.Contains(p) {
			return
		}
		edge := 0.0
		for i, child := range n.Children[:max(len(n.Children)-1, 0)] {
			if n.Direction == Vertical {
				edge += child.Ratio * n.Rect.W
				if math.Abs(p.X-(n.Rect.X+edge)) <= slop {
					found, border, ok = id, i, true
				}
			} else {
				edge += child.Ratio * n.Rect.H
				if math.Abs(p.Y-(n.Rect.Y+edge)) <= slop {
					found, border, ok = id, i, true
				}
			}
		}
		for _, child := range n.Children {
			if !child.Content.IsGroup() {
				visit(child.Content.SplitID())
			}
		}
	}
	visit(t.root)
	return found, border, ok
}
