package splittree

import "github.com/regenrek/splitdesk/internal/geom"

// Zone is the drop quadrant of a group's content area.
type Zone uint8

const (
	ZoneMiddle Zone = iota
	ZoneLeft
	ZoneRight
	ZoneTop
	ZoneBottom
)

func (z Zone) String() string {
	switch z {
	case ZoneLeft:
		return "left"
	case ZoneRight:
		return "right"
	case ZoneTop:
		return "top"
	case ZoneBottom:
		return "bottom"
	default:
		return "middle"
	}
}

// Side converts an edge zone to a split side. Middle has none.
func (z Zone) Side() (Side, bool) {
	switch z {
	case ZoneLeft:
		return SideLeft, true
	case ZoneRight:
		return SideRight, true
	case ZoneTop:
		return SideTop, true
	case ZoneBottom:
		return SideBottom, true
	default:
		return 0, false
	}
}

// DropZone classifies p against rect. The outer quarter on each side is an
// edge zone; horizontal edges win over vertical ones in the corners.
func DropZone(rect geom.Rect, p geom.Point) Zone {
	local := rect.Local(p)
	switch {
	case local.X < rect.W/4:
		return ZoneLeft
	case local.X > rect.W*3/4:
		return ZoneRight
	case local.Y < rect.H/4:
		return ZoneTop
	case local.Y > rect.H*3/4:
		return ZoneBottom
	default:
		return ZoneMiddle
	}
}

// ZoneRect is the highlight rectangle shown while hovering z.
func ZoneRect(rect geom.Rect, z Zone) geom.Rect {
	switch z {
	case ZoneLeft:
		return geom.Rect{X: rect.X, Y: rect.Y, W: rect.W / 2, H: rect.H}
	case ZoneRight:
		return geom.Rect{X: rect.X + rect.W/2, Y: rect.Y, W: rect.W / 2, H: rect.H}
	case ZoneTop:
		return geom.Rect{X: rect.X, Y: rect.Y, W: rect.W, H: rect.H / 2}
	case ZoneBottom:
		return geom.Rect{X: rect.X, Y: rect.Y + rect.H/2, W: rect.W, H: rect.H / 2}
	default:
		return rect
	}
}
