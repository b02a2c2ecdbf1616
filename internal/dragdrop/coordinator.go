package dragdrop

// Drop is a resolved move: Payload.ID goes to Index in the list guarded by the
// coordinator that produced it. ContainerID is empty for board-level drops.
type Drop struct {
	Payload     Payload
	ContainerID string
	Index       int
}

type Coordinator struct {
	kind        Kind
	axis        Axis
	containerID string
	zone        Zone
}

// ForBoard guards the top-level container order.
func ForBoard() *Coordinator {
	return &Coordinator{kind: KindContainer, axis: AxisX}
}

// ForContainer guards the item list of one container.
func ForContainer(containerID string) *Coordinator {
	return &Coordinator{kind: KindItem, axis: AxisY, containerID: containerID}
}

func (c *Coordinator) Kind() Kind          { return c.kind }
func (c *Coordinator) Axis() Axis          { return c.axis }
func (c *Coordinator) ContainerID() string { return c.containerID }
func (c *Coordinator) Zone() Zone          { return c.zone }

func (c *Coordinator) accepts(p Payload) bool {
	return p.Kind == c.kind && p.ID != ""
}

// HoverElement records the zone beside element index under the pointer.
func (c *Coordinator) HoverElement(p Payload, index int, r Rect, pt Point) bool {
	if !c.accepts(p) {
		return false
	}
	c.zone = ZoneFor(SideOf(r, pt, c.axis), index)
	return true
}

// HoverGap records a hover over the gap in front of element index (index == length
// for the trailing gap).
func (c *Coordinator) HoverGap(p Payload, index int) bool {
	if !c.accepts(p) {
		return false
	}
	if index < 0 {
		index = 0
	}
	c.zone = ZoneAt(index)
	return true
}

func (c *Coordinator) Leave(p Payload) {
	if !c.accepts(p) {
		return
	}
	c.zone = NoZone
}

// Drop resolves the gesture against a list of length items. Without a hovered zone
// the payload is appended. The zone is cleared either way.
func (c *Coordinator) Drop(p Payload, length int) (Drop, bool) {
	if !c.accepts(p) {
		return Drop{}, false
	}
	index, ok := c.zone.Index()
	if !ok {
		index = length
	}
	c.zone = NoZone
	return Drop{Payload: p, ContainerID: c.containerID, Index: index}, true
}

// Mover is the subset of the editor a drop is applied to.
type Mover interface {
	MoveContainer(id string, target int) bool
	MoveItem(containerID, itemID string, target int) bool
}

// Apply performs the single move described by d.
func Apply(d Drop, m Mover) bool {
	switch d.Payload.Kind {
	case KindContainer:
		return m.MoveContainer(d.Payload.ID, d.Index)
	case KindItem:
		if d.ContainerID == "" {
			return false
		}
		return m.MoveItem(d.ContainerID, d.Payload.ID, d.Index)
	default:
		return false
	}
}
