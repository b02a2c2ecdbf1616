package board

import (
	"strings"

	"planboard/internal/model"
)

// IndexOf returns the position of the first container with the given id, or -1.
func IndexOf(b model.Board, containerID string) int {
	for i := range b {
		if b[i].ID == containerID {
			return i
		}
	}
	return -1
}

func FindContainer(b model.Board, containerID string) (model.Container, bool) {
	if i := IndexOf(b, containerID); i >= 0 {
		return b[i], true
	}
	return model.Container{}, false
}

// FindItem locates the placement of itemID. It returns the container index and the
// position inside that container's items, or ok=false when the item is unplaced.
func FindItem(b model.Board, itemID string) (ci, ii int, ok bool) {
	for ci := range b {
		for ii := range b[ci].Items {
			if b[ci].Items[ii].ID == itemID {
				return ci, ii, true
			}
		}
	}
	return -1, -1, false
}

func Placed(b model.Board, itemID string) bool {
	_, _, ok := FindItem(b, itemID)
	return ok
}

// Placement returns the item reference for itemID if it is placed.
func Placement(b model.Board, itemID string) (model.ItemRef, bool) {
	ci, ii, ok := FindItem(b, itemID)
	if !ok {
		return model.ItemRef{}, false
	}
	return b[ci].Items[ii], true
}

// ItemIDs returns every placed foreign id in board order.
func ItemIDs(b model.Board) []string {
	out := []string{}
	for _, c := range b {
		for _, it := range c.Items {
			out = append(out, it.ID)
		}
	}
	return out
}

func cloneTop(b model.Board) model.Board {
	out := make(model.Board, len(b))
	copy(out, b)
	return out
}

// CreateContainer appends an empty container with the given id and name.
func CreateContainer(b model.Board, id, name string) (model.Board, bool) {
	id = strings.TrimSpace(id)
	if id == "" || IndexOf(b, id) >= 0 {
		return b, false
	}
	return appendCopy(b, model.Container{ID: id, Name: name, Items: []model.ItemRef{}}), true
}

// CreateCalendarEntry appends an empty container pinned to a calendar slot.
func CreateCalendarEntry(b model.Board, id, name string, slotIndex, slotMonth int) (model.Board, bool) {
	out, ok := CreateContainer(b, id, name)
	if !ok {
		return b, false
	}
	last := &out[len(out)-1]
	last.CalendarIndex = &slotIndex
	last.CalendarMonth = &slotMonth
	return out, true
}

func RenameContainer(b model.Board, id, name string) (model.Board, bool) {
	var p ContainerPatch
	p.Name = someString(name)
	return SetContainerAttrs(b, id, p)
}

// RemoveContainer deletes the container and every placement inside it.
func RemoveContainer(b model.Board, id string) (model.Board, bool) {
	i := IndexOf(b, id)
	if i < 0 {
		return b, false
	}
	return removeAt(b, i), true
}

func SetContainerAttrs(b model.Board, id string, p ContainerPatch) (model.Board, bool) {
	i := IndexOf(b, id)
	if i < 0 {
		return b, false
	}
	next, changed := p.apply(b[i])
	if !changed {
		return b, false
	}
	out := cloneTop(b)
	out[i] = next
	return out, true
}

// MoveContainer relocates a container to target in the top-level order. target is
// expressed against the current order (0..len); see insertIndex for the rightward
// adjustment.
func MoveContainer(b model.Board, id string, target int) (model.Board, bool) {
	from := IndexOf(b, id)
	if from < 0 {
		return b, false
	}
	to := insertIndex(from, target, len(b))
	if to == from {
		return b, false
	}
	return moveWithin(b, from, to), true
}

// AddItem appends itemID to the container. An already-placed item is moved there
// with its attributes; an unplaced one is added as a bare reference.
func AddItem(b model.Board, containerID, itemID string) (model.Board, bool) {
	itemID = strings.TrimSpace(itemID)
	to := IndexOf(b, containerID)
	if to < 0 || itemID == "" {
		return b, false
	}
	from, pos, placed := FindItem(b, itemID)
	if !placed {
		out := cloneTop(b)
		out[to].Items = appendCopy(b[to].Items, model.ItemRef{ID: itemID})
		return out, true
	}
	if from == to && pos == len(b[to].Items)-1 {
		return b, false
	}
	ref := b[from].Items[pos]
	out := cloneTop(b)
	out[from].Items = removeAt(b[from].Items, pos)
	out[to].Items = appendCopy(out[to].Items, ref)
	return out, true
}

// MoveItem relocates a placed item to target inside containerID's list. Within the
// same list target follows the MoveContainer convention; across lists it is the
// insert position in the destination. Unplaced items are left alone.
func MoveItem(b model.Board, containerID, itemID string, target int) (model.Board, bool) {
	to := IndexOf(b, containerID)
	if to < 0 {
		return b, false
	}
	from, pos, placed := FindItem(b, itemID)
	if !placed {
		return b, false
	}
	out := cloneTop(b)
	if from == to {
		at := insertIndex(pos, target, len(b[to].Items))
		if at == pos {
			return b, false
		}
		out[to].Items = moveWithin(b[to].Items, pos, at)
		return out, true
	}
	ref := b[from].Items[pos]
	out[from].Items = removeAt(b[from].Items, pos)
	out[to].Items = insertAt(b[to].Items, target, ref)
	return out, true
}

// RemoveItem drops the placement of itemID wherever it is.
func RemoveItem(b model.Board, itemID string) (model.Board, bool) {
	ci, ii, ok := FindItem(b, itemID)
	if !ok {
		return b, false
	}
	out := cloneTop(b)
	out[ci].Items = removeAt(b[ci].Items, ii)
	return out, true
}

func SetItemAttrs(b model.Board, itemID string, p ItemPatch) (model.Board, bool) {
	ci, ii, ok := FindItem(b, itemID)
	if !ok {
		return b, false
	}
	next, changed := p.apply(b[ci].Items[ii])
	if !changed {
		return b, false
	}
	out := cloneTop(b)
	items := make([]model.ItemRef, len(b[ci].Items))
	copy(items, b[ci].Items)
	items[ii] = next
	out[ci].Items = items
	return out, true
}

// FilterMissing drops references whose document no longer exists. The result is
// meant for display; persisted content keeps dangling references until edited.
func FilterMissing(b model.Board, exists func(id string) bool) model.Board {
	if exists == nil {
		return b
	}
	var out model.Board
	for ci, c := range b {
		kept := make([]model.ItemRef, 0, len(c.Items))
		for _, it := range c.Items {
			if exists(it.ID) {
				kept = append(kept, it)
			}
		}
		if len(kept) == len(c.Items) {
			continue
		}
		if out == nil {
			out = cloneTop(b)
		}
		out[ci].Items = kept
	}
	if out == nil {
		return b
	}
	return out
}
