// Package dragdrop turns pointer gestures over a board into resolved move operations.
//
// A Coordinator guards one drop-target list: the containers of a board or the items
// of one container. It remembers the hovered zone and, on drop, reports exactly one
// move for the editor.
package dragdrop

// Kind tags what a gesture carries. The values are the transfer types used by the
// web UI so payloads can cross the API unchanged.
type Kind string

const (
	KindContainer Kind = "elementid"
	KindItem      Kind = "documentid"
)

type Payload struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id"`
}

type Axis int

const (
	// AxisX compares horizontal positions (containers laid out side by side).
	AxisX Axis = iota
	// AxisY compares vertical positions (items stacked in a container).
	AxisY
)

type Point struct{ X, Y int }

// Rect is the on-screen box of one element.
type Rect struct{ X, Y, W, H int }

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

type Side int

const (
	Before Side = iota
	After
)

// SideOf reports Before when the pointer is strictly short of the element's
// midpoint along axis, After otherwise.
func SideOf(r Rect, p Point, axis Axis) Side {
	if axis == AxisX {
		if float64(p.X) < float64(r.X)+float64(r.W)/2 {
			return Before
		}
		return After
	}
	if float64(p.Y) < float64(r.Y)+float64(r.H)/2 {
		return Before
	}
	return After
}

// Zone is either empty or a resolved insert index into the target list.
type Zone struct {
	index int
	set   bool
}

var NoZone = Zone{}

func ZoneAt(index int) Zone { return Zone{index: index, set: true} }

// ZoneFor resolves a side of element index: Before(i) is i and After(i) is i+1.
func ZoneFor(side Side, index int) Zone {
	if side == After {
		return ZoneAt(index + 1)
	}
	return ZoneAt(index)
}

func (z Zone) Index() (int, bool) { return z.index, z.set }

func (z Zone) IsSet() bool { return z.set }
