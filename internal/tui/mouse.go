package tui

import (
	"planboard/internal/dragdrop"

	tea "github.com/charmbracelet/bubbletea"
)

func (m *appModel) itemDrop(containerID string) *dragdrop.Coordinator {
	c := m.itemDrops[containerID]
	if c == nil {
		c = dragdrop.ForContainer(containerID)
		m.itemDrops[containerID] = c
	}
	return c
}

// handleMouse selects on press and turns press-drag-release into one move. Hit boxes
// come from the last rendered frame.
func (m *appModel) handleMouse(msg tea.MouseMsg) {
	pt := dragdrop.Point{X: msg.X, Y: msg.Y}
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return
		}
		m.pickUp(pt)
	case tea.MouseActionMotion:
		if m.drag.Active() {
			m.hover(pt)
		}
	case tea.MouseActionRelease:
		if m.drag.Active() {
			m.drop()
		}
	}
}

func (m *appModel) pickUp(pt dragdrop.Point) {
	if h, ok := m.last.hitAt(pt, hitCard); ok {
		cd := m.view.cols[h.Col].Cards[h.Item]
		m.sel = m.view.clamp(selection{Col: h.Col, Item: h.Item, ItemID: cd.Ref.ID})
		m.drag = dragdrop.Begin(dragdrop.Payload{Kind: dragdrop.KindItem, ID: cd.Ref.ID})
		m.dragOrigin = pt
		return
	}
	if h, ok := m.last.hitAt(pt, hitHeader); ok {
		m.sel = m.view.clamp(selection{Col: h.Col})
		m.drag = dragdrop.Begin(dragdrop.Payload{Kind: dragdrop.KindContainer, ID: m.view.cols[h.Col].Container.ID})
		m.dragOrigin = pt
		return
	}
	if h, ok := m.last.hitAt(pt, hitColumn); ok {
		m.sel = m.view.clamp(selection{Col: h.Col})
	}
}

func (m *appModel) hover(pt dragdrop.Point) {
	if pt == m.dragOrigin {
		return
	}
	switch m.drag.Payload().Kind {
	case dragdrop.KindItem:
		if h, ok := m.last.hitAt(pt, hitCard); ok {
			m.drag.Over(m.itemDrop(m.view.cols[h.Col].Container.ID))
			m.drag.HoverElement(h.Item, h.Rect, pt)
			return
		}
		if h, ok := m.last.hitAt(pt, hitColumn); ok {
			c := m.view.cols[h.Col]
			m.drag.Over(m.itemDrop(c.Container.ID))
			m.drag.HoverGap(len(c.Cards))
			return
		}
	case dragdrop.KindContainer:
		if h, ok := m.last.hitAt(pt, hitColumn); ok {
			m.drag.Over(m.boardDrop)
			m.drag.HoverElement(h.Col, h.Rect, pt)
			return
		}
	}
	m.drag.Over(nil)
}

func (m *appModel) drop() {
	g := m.drag
	m.drag = nil
	length := len(m.view.cols)
	if g.Payload().Kind == dragdrop.KindItem {
		length = 0
		for _, c := range m.view.cols {
			if m.itemDrops[c.Container.ID] != nil && m.itemDrops[c.Container.ID].Zone().IsSet() {
				length = len(c.Cards)
			}
		}
	}
	d, ok := g.Drop(length)
	if !ok {
		return
	}
	if d.Payload.Kind == dragdrop.KindItem {
		d.Index = m.view.boardIndex(m.sess.Board(), m.view.columnIndex(d.ContainerID), d.Index)
	}
	m.edited(dragdrop.Apply(d, m.sess.Editor), "moved")
}

// dropHint reports where the drag in progress would land.
func (m *appModel) dropHint() *dropHint {
	if !m.drag.Active() {
		return nil
	}
	if m.drag.Payload().Kind == dragdrop.KindContainer {
		if idx, ok := m.boardDrop.Zone().Index(); ok {
			return &dropHint{Col: -1, Index: idx}
		}
		return nil
	}
	for i, c := range m.view.cols {
		if d := m.itemDrops[c.Container.ID]; d != nil {
			if idx, ok := d.Zone().Index(); ok {
				return &dropHint{Col: i, Index: idx}
			}
		}
	}
	return nil
}
