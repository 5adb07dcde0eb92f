// Package splittree arranges editor tab groups in nested proportional splits.
//
// Nodes and groups live in arenas keyed by id; children refer to each other
// by id only. Sibling ratios in every split sum to 1.
package splittree

import (
	"fmt"

	"github.com/regenrek/splitdesk/internal/geom"
	"github.com/regenrek/splitdesk/internal/tabgroup"
)

// RatioTolerance bounds the drift allowed in a split's ratio sum.
const RatioTolerance = 1e-9

// Direction is the axis a split lays its children along.
type Direction uint8

const (
	// Vertical splits place children side by side, divided by vertical
	// borders.
	Vertical Direction = iota + 1
	// Horizontal splits stack children top to bottom.
	Horizontal
)

func (d Direction) String() string {
	switch d {
	case Vertical:
		return "vertical"
	case Horizontal:
		return "horizontal"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

// SplitID identifies a split node inside one tree.
type SplitID uint64

type ContentKind uint8

const (
	ContentGroup ContentKind = iota + 1
	ContentSplit
)

// Content is what a split child points at.
type Content struct {
	Kind ContentKind
	ID   uint64
}

func GroupContent(id tabgroup.ID) Content {
	return Content{Kind: ContentGroup, ID: uint64(id)}
}

func SplitContent(id SplitID) Content {
	return Content{Kind: ContentSplit, ID: uint64(id)}
}

func (c Content) IsGroup() bool { return c.Kind == ContentGroup }

func (c Content) GroupID() tabgroup.ID { return tabgroup.ID(c.ID) }

func (c Content) SplitID() SplitID { return SplitID(c.ID) }

func (c Content) String() string {
	if c.Kind == ContentGroup {
		return fmt.Sprintf("group-%d", c.ID)
	}
	return fmt.Sprintf("split-%d", c.ID)
}

type Child struct {
	Ratio   float64
	Content Content
}

// Node is a split. Rect is filled in by Layout.
type Node struct {
	ID        SplitID
	Direction Direction
	Children  []Child
	Rect      geom.Rect
}

func (n *Node) indexOf(c Content) int {
	for i, child := range n.Children {
		if child.Content == c {
			return i
		}
	}
	return -1
}

// Side is where a dragged item lands relative to a target group.
type Side uint8

const (
	SideLeft Side = iota + 1
	SideRight
	SideTop
	SideBottom
)

// Direction maps Left/Right to a Vertical split and Top/Bottom to Horizontal.
func (s Side) Direction() Direction {
	if s == SideTop || s == SideBottom {
		return Horizontal
	}
	return Vertical
}

// Before reports whether the new content goes ahead of the target.
func (s Side) Before() bool {
	return s == SideLeft || s == SideTop
}

func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	case SideTop:
		return "top"
	case SideBottom:
		return "bottom"
	default:
		return fmt.Sprintf("side(%d)", uint8(s))
	}
}
