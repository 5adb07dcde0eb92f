package tabgroup

import (
	"errors"
	"fmt"

	"github.com/regenrek/splitdesk/internal/geom"
)

// ID identifies a group inside one split tree.
type ID uint64

var (
	ErrIndexOutOfRange = errors.New("tabgroup: index out of range")
	ErrEmpty           = errors.New("tabgroup: group is empty")
)

// CloseKind selects which siblings of a reference tab CloseByKind removes.
type CloseKind uint8

const (
	CloseOther CloseKind = iota + 1
	CloseToLeft
	CloseToRight
)

// Child is one tab. Order always equals the child's position.
type Child struct {
	Order int
	Rect  geom.Rect
	Item  Item
	// Confirmed tabs are never replaced by a preview open.
	Confirmed bool
}

// Group is an ordered set of tabs with at most one active.
type Group struct {
	ID       ID
	Active   int
	Children []Child
	Rect     geom.Rect
}

func New(id ID) *Group {
	return &Group{ID: id, Active: -1}
}

func (g *Group) Len() int {
	return len(g.Children)
}

func (g *Group) Empty() bool {
	return len(g.Children) == 0
}

// ActiveItem returns the active tab's item.
func (g *Group) ActiveItem() (Item, bool) {
	if g.Active < 0 || g.Active >= len(g.Children) {
		return Item{}, false
	}
	return g.Children[g.Active].Item, true
}

// IndexOf returns the position of item, or -1.
func (g *Group) IndexOf(item Item) int {
	key := item.Key()
	for i, child := range g.Children {
		if child.Item.Key() == key {
			return i
		}
	}
	return -1
}

// Items returns the items in tab order.
func (g *Group) Items() []Item {
	out := make([]Item, len(g.Children))
	for i, child := range g.Children {
		out[i] = child.Item
	}
	return out
}

// Open activates item, adding it if needed. An unconfirmed open replaces the
// group's current preview tab in place; otherwise the new tab goes right of
// the active one. Returns the item's index and whether a preview was evicted.
func (g *Group) Open(item Item, confirmed bool) (int, *Child) {
	if idx := g.IndexOf(item); idx >= 0 {
		g.Active = idx
		if confirmed {
			g.Children[idx].Confirmed = true
		}
		return idx, nil
	}
	if !confirmed {
		if idx := g.previewIndex(); idx >= 0 {
			evicted := g.Children[idx]
			g.Children[idx] = Child{Order: idx, Item: item}
			g.Active = idx
			return idx, &evicted
		}
	}
	idx := g.Insert(g.Active+1, Child{Item: item, Confirmed: confirmed})
	return idx, nil
}

func (g *Group) previewIndex() int {
	for i, child := range g.Children {
		if !child.Confirmed {
			return i
		}
	}
	return -1
}

// Insert places child at index (clamped to 0..Len) and makes it active.
func (g *Group) Insert(index int, child Child) int {
	if index < 0 {
		index = 0
	}
	if index > len(g.Children) {
		index = len(g.Children)
	}
	g.Children = append(g.Children, Child{})
	copy(g.Children[index+1:], g.Children[index:])
	g.Children[index] = child
	g.Active = index
	g.renumber()
	return index
}

// Take removes the child at index. When the active tab is removed the tab
// that slides into its slot becomes active, or the new last tab.
func (g *Group) Take(index int) (Child, error) {
	if err := g.checkIndex(index); err != nil {
		return Child{}, err
	}
	child := g.Children[index]
	g.Children = append(g.Children[:index], g.Children[index+1:]...)
	switch {
	case len(g.Children) == 0:
		g.Active = -1
	case index < g.Active:
		g.Active--
	case g.Active >= len(g.Children):
		g.Active = len(g.Children) - 1
	}
	g.renumber()
	return child, nil
}

// Close is Take for a user-initiated close (button, middle click, command).
func (g *Group) Close(index int) (Child, error) {
	return g.Take(index)
}

// CloseAll empties the group and returns what was removed.
func (g *Group) CloseAll() []Child {
	out := g.Children
	g.Children = nil
	g.Active = -1
	return out
}

// CloseByKind removes the siblings of ref selected by kind and returns them
// in their former order. The active tab survives when it is kept; otherwise
// ref becomes active.
func (g *Group) CloseByKind(ref int, kind CloseKind) ([]Child, error) {
	if err := g.checkIndex(ref); err != nil {
		return nil, err
	}
	var drop func(i int) bool
	switch kind {
	case CloseOther:
		drop = func(i int) bool { return i != ref }
	case CloseToLeft:
		drop = func(i int) bool { return i < ref }
	case CloseToRight:
		drop = func(i int) bool { return i > ref }
	default:
		return nil, fmt.Errorf("tabgroup: unknown close kind %d", kind)
	}
	activeKey := ""
	if item, ok := g.ActiveItem(); ok {
		activeKey = item.Key()
	}
	refKey := g.Children[ref].Item.Key()

	var kept, closed []Child
	for i, child := range g.Children {
		if drop(i) {
			closed = append(closed, child)
		} else {
			kept = append(kept, child)
		}
	}
	g.Children = kept
	g.Active = -1
	for i, child := range g.Children {
		if child.Item.Key() == activeKey {
			g.Active = i
			break
		}
	}
	if g.Active < 0 {
		for i, child := range g.Children {
			if child.Item.Key() == refKey {
				g.Active = i
				break
			}
		}
	}
	g.renumber()
	return closed, nil
}

// Activate makes index the active tab.
func (g *Group) Activate(index int) error {
	if err := g.checkIndex(index); err != nil {
		return err
	}
	g.Active = index
	return nil
}

// Confirm activates index and pins it against preview replacement. This is
// what a double click on a tab does.
func (g *Group) Confirm(index int) error {
	if err := g.Activate(index); err != nil {
		return err
	}
	g.Children[index].Confirmed = true
	return nil
}

// Move reorders within the group. to is a drop slot in 0..Len measured
// before from is removed, as produced by DropIndex. The active tab keeps its
// identity.
func (g *Group) Move(from, to int) (int, error) {
	if err := g.checkIndex(from); err != nil {
		return 0, err
	}
	if to < 0 || to > len(g.Children) {
		return 0, fmt.Errorf("%w: drop slot %d", ErrIndexOutOfRange, to)
	}
	if from < to {
		to--
	}
	if from == to {
		return to, nil
	}
	activeKey := ""
	if item, ok := g.ActiveItem(); ok {
		activeKey = item.Key()
	}
	child := g.Children[from]
	g.Children = append(g.Children[:from], g.Children[from+1:]...)
	g.Children = append(g.Children, Child{})
	copy(g.Children[to+1:], g.Children[to:])
	g.Children[to] = child
	for i, c := range g.Children {
		if c.Item.Key() == activeKey {
			g.Active = i
			break
		}
	}
	g.renumber()
	return to, nil
}

// DropIndex maps a pointer x within the tab at target to a drop slot: the
// left half drops before the tab, the right half after it.
func DropIndex(target int, x, tabWidth float64) int {
	if x < tabWidth/2 {
		return target
	}
	return target + 1
}

// LayoutHeader assigns each tab a fixed-width slot along the top of rect.
func (g *Group) LayoutHeader(rect geom.Rect, tabWidth, tabHeight float64) {
	g.Rect = rect
	for i := range g.Children {
		g.Children[i].Rect = geom.Rect{
			X: rect.X + float64(i)*tabWidth,
			Y: rect.Y,
			W: tabWidth,
			H: tabHeight,
		}
	}
}

// HitTab returns the tab under p and p relative to that tab.
func (g *Group) HitTab(p geom.Point) (int, geom.Point, bool) {
	for i, child := range g.Children {
		if child.Rect.Contains(p) {
			return i, child.Rect.Local(p), true
		}
	}
	return -1, geom.Point{}, false
}

// Validate checks that order indices match positions and Active is in range.
func (g *Group) Validate() error {
	for i, child := range g.Children {
		if child.Order != i {
			return fmt.Errorf("tabgroup: child %d has order %d", i, child.Order)
		}
	}
	if len(g.Children) == 0 {
		if g.Active != -1 {
			return fmt.Errorf("tabgroup: empty group has active %d", g.Active)
		}
		return nil
	}
	if g.Active < 0 || g.Active >= len(g.Children) {
		return fmt.Errorf("tabgroup: active %d out of range for %d children", g.Active, len(g.Children))
	}
	return nil
}

func (g *Group) checkIndex(index int) error {
	if len(g.Children) == 0 {
		return ErrEmpty
	}
	if index < 0 || index >= len(g.Children) {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(g.Children))
	}
	return nil
}

func (g *Group) renumber() {
	for i := range g.Children {
		g.Children[i].Order = i
	}
}
