package splittree

import (
	"errors"
	"fmt"

	"github.com/regenrek/splitdesk/internal/tabgroup"
)

type OpKind string

const (
	OpInsertGroup   OpKind = "insert_group"
	OpRemoveGroup   OpKind = "remove_group"
	OpMoveGroup     OpKind = "move_group"
	OpMoveChild     OpKind = "move_child"
	OpSplitChild    OpKind = "split_child"
	OpResizeBorder  OpKind = "resize_border"
	OpResetRatios   OpKind = "reset_ratios"
	OpCloseChildren OpKind = "close_children"
)

type Op interface {
	Kind() OpKind
}

// InsertGroupOp adds a new empty group next to Target.
type InsertGroupOp struct {
	Target    tabgroup.ID
	Direction Direction
	Before    bool
}

func (InsertGroupOp) Kind() OpKind { return OpInsertGroup }

// RemoveGroupOp closes every tab of Group and drops it from the tree.
type RemoveGroupOp struct {
	Group tabgroup.ID
}

func (RemoveGroupOp) Kind() OpKind { return OpRemoveGroup }

// MoveGroupOp detaches Source and re-inserts it at Side of Target.
type MoveGroupOp struct {
	Source tabgroup.ID
	Target tabgroup.ID
	Side   Side
}

func (MoveGroupOp) Kind() OpKind { return OpMoveGroup }

// MoveChildOp moves one tab into slot Slot of group To. Within one group Slot
// is a drop slot measured before removal.
type MoveChildOp struct {
	From  tabgroup.ID
	Index int
	To    tabgroup.ID
	Slot  int
}

func (MoveChildOp) Kind() OpKind { return OpMoveChild }

// SplitChildOp moves one tab into a new group at Side of Target.
type SplitChildOp struct {
	From   tabgroup.ID
	Index  int
	Target tabgroup.ID
	Side   Side
}

func (SplitChildOp) Kind() OpKind { return OpSplitChild }

// ResizeBorderOp shifts the border after child Border of Split by Delta
// pixels along the split's axis. When Base is set, Delta is measured from
// those ratios instead of the current ones.
type ResizeBorderOp struct {
	Split  SplitID
	Border int
	Delta  float64
	Base   []float64
}

func (ResizeBorderOp) Kind() OpKind { return OpResizeBorder }

// ResetRatiosOp gives every child of Split an equal share.
type ResetRatiosOp struct {
	Split SplitID
}

func (ResetRatiosOp) Kind() OpKind { return OpResetRatios }

// CloseChildrenOp closes the siblings of tab Ref in Group.
type CloseChildrenOp struct {
	Group tabgroup.ID
	Ref   int
	Close tabgroup.CloseKind
}

func (CloseChildrenOp) Kind() OpKind { return OpCloseChildren }

type ApplyResult struct {
	Changed bool
	// Group is the group that ends up holding the moved or new content.
	Group tabgroup.ID
	Index int
	// Closed lists tabs that left the tree and must be disposed by the caller.
	Closed []tabgroup.Child
}

// Apply runs op against the tree.
func (t *Tree) Apply(op Op) (ApplyResult, error) {
	if t == nil {
		return ApplyResult{}, errors.New("splittree: tree is nil")
	}
	switch v := op.(type) {
	case InsertGroupOp:
		g, err := t.InsertGroup(v.Target, v.Direction, v.Before)
		if err != nil {
			return ApplyResult{}, err
		}
		return ApplyResult{Changed: true, Group: g.ID}, nil
	case RemoveGroupOp:
		closed, err := t.RemoveGroup(v.Group)
		if err != nil {
			return ApplyResult{}, err
		}
		return ApplyResult{Changed: true, Closed: closed}, nil
	case MoveGroupOp:
		if err := t.MoveGroupToNewSplit(v.Source, v.Target, v.Side); err != nil {
			return ApplyResult{}, err
		}
		return ApplyResult{Changed: true, Group: v.Source}, nil
	case MoveChildOp:
		before, _ := t.Group(v.From)
		var order []string
		if before != nil && v.From == v.To {
			order = itemKeys(before)
		}
		idx, err := t.MoveChild(v.From, v.Index, v.To, v.Slot)
		if err != nil {
			return ApplyResult{}, err
		}
		changed := true
		if order != nil {
			changed = !sameKeys(order, itemKeys(before))
		}
		return ApplyResult{Changed: changed, Group: v.To, Index: idx}, nil
	case SplitChildOp:
		id, err := t.MoveChildToNewSplit(v.From, v.Index, v.Target, v.Side)
		if err != nil {
			return ApplyResult{}, err
		}
		return ApplyResult{Changed: true, Group: id}, nil
	case ResizeBorderOp:
		if err := t.ResizeBorderFrom(v.Split, v.Border, v.Base, v.Delta); err != nil {
			return ApplyResult{}, err
		}
		return ApplyResult{Changed: v.Delta != 0 || v.Base != nil}, nil
	case ResetRatiosOp:
		if err := t.ResetRatios(v.Split); err != nil {
			return ApplyResult{}, err
		}
		return ApplyResult{Changed: true}, nil
	case CloseChildrenOp:
		closed, err := t.CloseChildren(v.Group, v.Ref, v.Close)
		if err != nil {
			return ApplyResult{}, err
		}
		return ApplyResult{Changed: len(closed) > 0, Group: v.Group, Closed: closed}, nil
	default:
		return ApplyResult{}, fmt.Errorf("splittree: unknown op %T", op)
	}
}

// InsertGroup creates an empty group beside target. When target's parent
// already runs along dir the group joins it as a sibling with ratio
// 1/(n+1); otherwise target is wrapped in a new two-way split.
func (t *Tree) InsertGroup(target tabgroup.ID, dir Direction, before bool) (*tabgroup.Group, error) {
	if _, ok := t.groups[target]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrGroupNotFound, target)
	}
	g := t.newGroup()
	if err := t.insert(GroupContent(target), GroupContent(g.ID), dir, before); err != nil {
		t.dispose(GroupContent(g.ID))
		return nil, err
	}
	_ = t.SetActiveGroup(g.ID)
	t.relayout()
	return g, nil
}

// RemoveGroup drops a group and returns the tabs it still held.
func (t *Tree) RemoveGroup(id tabgroup.ID) ([]tabgroup.Child, error) {
	g, ok := t.groups[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrGroupNotFound, id)
	}
	if err := t.detach(GroupContent(id)); err != nil {
		return nil, err
	}
	closed := g.CloseAll()
	t.dispose(GroupContent(id))
	t.refocus(id)
	t.relayout()
	return closed, nil
}

// MoveGroupToNewSplit moves source to side of target. Up/Left place source
// before target.
func (t *Tree) MoveGroupToNewSplit(source, target tabgroup.ID, side Side) error {
	if source == target {
		return ErrSameGroup
	}
	for _, id := range []tabgroup.ID{source, target} {
		if _, ok := t.groups[id]; !ok {
			return fmt.Errorf("%w: %d", ErrGroupNotFound, id)
		}
	}
	if err := t.detach(GroupContent(source)); err != nil {
		return err
	}
	if err := t.insert(GroupContent(target), GroupContent(source), side.Direction(), side.Before()); err != nil {
		return err
	}
	_ = t.SetActiveGroup(source)
	t.relayout()
	return nil
}

// MoveChildToNewSplit takes tab index out of group from and places it in a
// new group at side of target. An emptied source group is removed.
func (t *Tree) MoveChildToNewSplit(from tabgroup.ID, index int, target tabgroup.ID, side Side) (tabgroup.ID, error) {
	src, ok := t.groups[from]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrGroupNotFound, from)
	}
	if _, ok := t.groups[target]; !ok {
		return 0, fmt.Errorf("%w: %d", ErrGroupNotFound, target)
	}
	if from == target && src.Len() == 1 {
		// Splitting a group's only tab off itself leaves the layout as is.
		return from, nil
	}
	child, err := src.Take(index)
	if err != nil {
		return 0, err
	}
	g := t.newGroup()
	g.Insert(0, child)
	if err := t.insert(GroupContent(target), GroupContent(g.ID), side.Direction(), side.Before()); err != nil {
		src.Insert(index, child)
		t.dispose(GroupContent(g.ID))
		return 0, err
	}
	if src.Empty() {
		if _, err := t.RemoveGroup(from); err != nil {
			return 0, err
		}
	}
	_ = t.SetActiveGroup(g.ID)
	t.relayout()
	return g.ID, nil
}

// MoveChild moves tab index of group from into group to at slot. Moving
// across groups removes an emptied source group.
func (t *Tree) MoveChild(from tabgroup.ID, index int, to tabgroup.ID, slot int) (int, error) {
	src, ok := t.groups[from]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrGroupNotFound, from)
	}
	dst, ok := t.groups[to]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrGroupNotFound, to)
	}
	if from == to {
		idx, err := src.Move(index, slot)
		if err != nil {
			return 0, err
		}
		_ = t.SetActiveGroup(to)
		return idx, nil
	}
	child, err := src.Take(index)
	if err != nil {
		return 0, err
	}
	idx := dst.Insert(slot, child)
	if src.Empty() {
		if _, err := t.RemoveGroup(from); err != nil {
			return 0, err
		}
	}
	_ = t.SetActiveGroup(to)
	return idx, nil
}

// CloseChildren applies a close-by-kind to a group. The reference tab always
// survives, so the group stays in the tree.
func (t *Tree) CloseChildren(id tabgroup.ID, ref int, kind tabgroup.CloseKind) ([]tabgroup.Child, error) {
	g, ok := t.groups[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrGroupNotFound, id)
	}
	return g.CloseByKind(ref, kind)
}

// CloseChild closes one tab. The group is removed once it is empty.
func (t *Tree) CloseChild(id tabgroup.ID, index int) (tabgroup.Child, error) {
	g, ok := t.groups[id]
	if !ok {
		return tabgroup.Child{}, fmt.Errorf("%w: %d", ErrGroupNotFound, id)
	}
	child, err := g.Close(index)
	if err != nil {
		return tabgroup.Child{}, err
	}
	if g.Empty() {
		if _, err := t.RemoveGroup(id); err != nil {
			return child, err
		}
	}
	return child, nil
}

// ResizeBorder moves the border between children border and border+1 of a
// split by delta pixels. Both neighbours are clamped at zero; the other
// children keep their size.
func (t *Tree) ResizeBorder(id SplitID, border int, delta float64) error {
	return t.ResizeBorderFrom(id, border, nil, delta)
}

// Ratios returns a copy of the child ratios of split id.
func (t *Tree) Ratios(id SplitID) ([]float64, bool) {
	n, ok := t.splits[id]
	if !ok {
		return nil, false
	}
	out := make([]float64, len(n.Children))
	for i, child := range n.Children {
		out[i] = child.Ratio
	}
	return out, true
}

// ResizeBorderFrom is ResizeBorder starting from base, the ratios captured
// when a drag began. A base that no longer matches the split's child count
// is ignored.
func (t *Tree) ResizeBorderFrom(id SplitID, border int, base []float64, delta float64) error {
	n, ok := t.splits[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrSplitNotFound, id)
	}
	if border < 0 || border+1 >= len(n.Children) {
		return fmt.Errorf("splittree: split %d has no border %d", id, border)
	}
	total := n.Rect.W
	if n.Direction == Horizontal {
		total = n.Rect.H
	}
	if total <= 0 {
		return ErrNoLayout
	}
	if len(base) == len(n.Children) {
		for i := range n.Children {
			n.Children[i].Ratio = base[i]
		}
	}
	leftPx := n.Children[border].Ratio * total
	rightPx := n.Children[border+1].Ratio * total
	if delta < -leftPx {
		delta = -leftPx
	}
	if delta > rightPx {
		delta = rightPx
	}
	n.Children[border].Ratio = (leftPx + delta) / total
	n.Children[border+1].Ratio = (rightPx - delta) / total
	normalize(n)
	t.emit(EventRatiosChanged, SplitContent(id))
	t.relayout()
	return nil
}

func (t *Tree) ResetRatios(id SplitID) error {
	n, ok := t.splits[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrSplitNotFound, id)
	}
	for i := range n.Children {
		n.Children[i].Ratio = 1 / float64(len(n.Children))
	}
	t.emit(EventRatiosChanged, SplitContent(id))
	t.relayout()
	return nil
}

func (t *Tree) insert(target, c Content, dir Direction, before bool) error {
	pid, ok := t.parent[target]
	if !ok {
		return fmt.Errorf("splittree: %s is not attached", target)
	}
	p := t.splits[pid]
	idx := p.indexOf(target)
	if idx < 0 {
		return fmt.Errorf("splittree: %s missing from split %d", target, pid)
	}
	if p.Direction == dir || len(p.Children) == 1 {
		p.Direction = dir
		n := float64(len(p.Children))
		for i := range p.Children {
			p.Children[i].Ratio *= n / (n + 1)
		}
		at := idx + 1
		if before {
			at = idx
		}
		t.attach(pid, at, c, 1/(n+1))
		normalize(p)
		t.emit(EventRatiosChanged, SplitContent(pid))
		return nil
	}
	wrap := t.newSplit(dir)
	p.Children[idx].Content = SplitContent(wrap.ID)
	t.parent[SplitContent(wrap.ID)] = pid
	first, second := target, c
	if before {
		first, second = c, target
	}
	t.attach(wrap.ID, 0, first, 0.5)
	t.attach(wrap.ID, 1, second, 0.5)
	return nil
}

// detach unlinks c from its parent without disposing it. The vacated ratio
// is shared among the remaining siblings in proportion to their size, and a
// non-root split left with one child is spliced out.
func (t *Tree) detach(c Content) error {
	pid, ok := t.parent[c]
	if !ok {
		return fmt.Errorf("splittree: %s is not attached", c)
	}
	p := t.splits[pid]
	idx := p.indexOf(c)
	if idx < 0 {
		return fmt.Errorf("splittree: %s missing from split %d", c, pid)
	}
	p.Children = append(p.Children[:idx], p.Children[idx+1:]...)
	delete(t.parent, c)
	normalize(p)
	t.emit(EventRatiosChanged, SplitContent(pid))
	t.collapse(pid)
	return nil
}

func (t *Tree) collapse(id SplitID) {
	n := t.splits[id]
	if n == nil || len(n.Children) != 1 {
		return
	}
	only := n.Children[0].Content
	if id == t.root {
		if only.IsGroup() {
			return
		}
		// Hoist the single child split so the root id stays stable.
		inner := t.splits[only.SplitID()]
		n.Direction = inner.Direction
		n.Children = inner.Children
		for _, child := range n.Children {
			t.parent[child.Content] = id
		}
		inner.Children = nil
		t.dispose(only)
		return
	}
	gpid := t.parent[SplitContent(id)]
	gp := t.splits[gpid]
	gidx := gp.indexOf(SplitContent(id))
	ratio := gp.Children[gidx].Ratio
	if inner, ok := t.splits[only.SplitID()]; ok && !only.IsGroup() && inner.Direction == gp.Direction {
		merged := make([]Child, 0, len(gp.Children)+len(inner.Children)-1)
		merged = append(merged, gp.Children[:gidx]...)
		for _, child := range inner.Children {
			merged = append(merged, Child{Ratio: child.Ratio * ratio, Content: child.Content})
			t.parent[child.Content] = gpid
		}
		merged = append(merged, gp.Children[gidx+1:]...)
		gp.Children = merged
		inner.Children = nil
		normalize(gp)
		t.dispose(only)
	} else {
		gp.Children[gidx].Content = only
		t.parent[only] = gpid
	}
	n.Children = nil
	t.dispose(SplitContent(id))
}

// refocus picks a new active group after removed left the tree.
func (t *Tree) refocus(removed tabgroup.ID) {
	if t.active != removed {
		return
	}
	t.active = 0
	if ids := t.Groups(); len(ids) > 0 {
		_ = t.SetActiveGroup(ids[0])
	}
}

// normalize rescales ratios to sum to 1, splitting evenly when the remaining
// children had no size at all.
func normalize(n *Node) {
	if len(n.Children) == 0 {
		return
	}
	sum := 0.0
	for _, child := range n.Children {
		if child.Ratio > 0 {
			sum += child.Ratio
		}
	}
	for i := range n.Children {
		switch {
		case sum <= 0:
			n.Children[i].Ratio = 1 / float64(len(n.Children))
		case n.Children[i].Ratio < 0:
			n.Children[i].Ratio = 0
		default:
			n.Children[i].Ratio /= sum
		}
	}
}

func itemKeys(g *tabgroup.Group) []string {
	out := make([]string, 0, g.Len())
	for _, item := range g.Items() {
		out = append(out, item.Key())
	}
	return out
}

func sameKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
