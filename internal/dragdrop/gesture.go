package dragdrop

// Gesture follows one pointer session from pick-up to drop. Only the coordinator
// currently under the pointer holds a zone.
type Gesture struct {
	payload Payload
	target  *Coordinator
	done    bool
}

func Begin(p Payload) *Gesture {
	return &Gesture{payload: p}
}

func (g *Gesture) Payload() Payload { return g.payload }

func (g *Gesture) Active() bool { return g != nil && !g.done }

// Over moves the gesture onto target (nil when the pointer left every target).
func (g *Gesture) Over(target *Coordinator) {
	if !g.Active() || g.target == target {
		return
	}
	if g.target != nil {
		g.target.Leave(g.payload)
	}
	g.target = target
}

func (g *Gesture) HoverElement(index int, r Rect, pt Point) bool {
	if !g.Active() || g.target == nil {
		return false
	}
	return g.target.HoverElement(g.payload, index, r, pt)
}

func (g *Gesture) HoverGap(index int) bool {
	if !g.Active() || g.target == nil {
		return false
	}
	return g.target.HoverGap(g.payload, index)
}

// Drop releases over the current target. Releasing outside every target behaves
// like Cancel.
func (g *Gesture) Drop(length int) (Drop, bool) {
	if !g.Active() {
		return Drop{}, false
	}
	if g.target == nil {
		g.Cancel()
		return Drop{}, false
	}
	d, ok := g.target.Drop(g.payload, length)
	g.done = true
	g.target = nil
	return d, ok
}

func (g *Gesture) Cancel() {
	if !g.Active() {
		return
	}
	if g.target != nil {
		g.target.Leave(g.payload)
	}
	g.target = nil
	g.done = true
}
