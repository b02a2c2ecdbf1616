// Package editor holds the in-memory board being edited and reports every
// effective change through a single callback.
package editor

import (
	"strconv"
	"strings"

	"planboard/internal/board"
	"planboard/internal/ids"
	"planboard/internal/model"

	log "github.com/sirupsen/logrus"
)

// Defaults configures the board synthesized when there is no initial content.
type Defaults struct {
	// KanbanColumns are created, in order, for a fresh kanban board.
	KanbanColumns []string
	// UntitledName names kanban columns created without a name.
	UntitledName string
}

type Options struct {
	Variant model.Variant
	// Initial seeds the editor. Nil means "no initial content".
	Initial  model.Board
	OnChange func(model.Board)
	IDs      ids.Generator
	Defaults Defaults
	Logger   *log.Logger
}

// Editor is owned by a single goroutine and is not safe for concurrent use.
type Editor struct {
	variant  model.Variant
	board    model.Board
	onChange func(model.Board)
	ids      ids.Generator
	defaults Defaults
	logger   *log.Logger
}

func New(opts Options) *Editor {
	e := &Editor{
		variant:  opts.Variant,
		onChange: opts.OnChange,
		ids:      opts.IDs,
		defaults: opts.Defaults,
		logger:   opts.Logger,
	}
	if e.variant == "" {
		e.variant = model.VariantKanban
	}
	if e.ids == nil {
		e.ids = ids.Random{}
	}
	if strings.TrimSpace(e.defaults.UntitledName) == "" {
		e.defaults.UntitledName = "untitled"
	}
	if e.logger == nil {
		e.logger = log.StandardLogger()
	}

	if opts.Initial != nil {
		e.board = opts.Initial
		return e
	}
	e.board = model.Board{}
	if e.variant == model.VariantKanban {
		for _, name := range e.defaults.KanbanColumns {
			e.board, _ = board.CreateContainer(e.board, e.ids.NewID(), name)
		}
	}
	return e
}

func (e *Editor) Variant() model.Variant { return e.variant }

// Board returns the current snapshot. Callers must treat it as read-only.
func (e *Editor) Board() model.Board { return e.board }

func (e *Editor) commit(op string, next model.Board, changed bool) bool {
	if !changed {
		e.logger.WithFields(log.Fields{"op": op}).Debug("editor.mutation.noop")
		return false
	}
	e.board = next
	e.logger.WithFields(log.Fields{"op": op, "containers": len(next)}).Debug("editor.mutation")
	if e.onChange != nil {
		e.onChange(next)
	}
	return true
}

// NewContainer appends a kanban column and returns its id ("" when nothing changed).
func (e *Editor) NewContainer(name string) (string, bool) {
	if strings.TrimSpace(name) == "" {
		name = e.defaults.UntitledName
	}
	id := e.ids.NewID()
	next, changed := board.CreateContainer(e.board, id, name)
	if !e.commit("createContainer", next, changed) {
		return "", false
	}
	return id, true
}

// NewCalendarEntry appends an entry pinned to the (index, month) grid cell. An empty
// name defaults to the cell index.
func (e *Editor) NewCalendarEntry(name string, index, month int) (string, bool) {
	if strings.TrimSpace(name) == "" {
		name = strconv.Itoa(index)
	}
	id := e.ids.NewID()
	next, changed := board.CreateCalendarEntry(e.board, id, name, index, month)
	if !e.commit("createCalendarEntry", next, changed) {
		return "", false
	}
	return id, true
}

func (e *Editor) RenameContainer(id, name string) bool {
	next, changed := board.RenameContainer(e.board, id, name)
	return e.commit("renameContainer", next, changed)
}

func (e *Editor) RemoveContainer(id string) bool {
	next, changed := board.RemoveContainer(e.board, id)
	return e.commit("removeContainer", next, changed)
}

func (e *Editor) SetContainerAttrs(id string, p board.ContainerPatch) bool {
	next, changed := board.SetContainerAttrs(e.board, id, p)
	return e.commit("setContainerAttribute", next, changed)
}

func (e *Editor) SetContainerColor(id string, c *model.Color) bool {
	return e.SetContainerAttrs(id, board.WithContainerColor(c))
}

func (e *Editor) MoveContainer(id string, target int) bool {
	next, changed := board.MoveContainer(e.board, id, target)
	return e.commit("moveContainer", next, changed)
}

func (e *Editor) AddItem(containerID, itemID string) bool {
	next, changed := board.AddItem(e.board, containerID, itemID)
	return e.commit("addItem", next, changed)
}

func (e *Editor) MoveItem(containerID, itemID string, target int) bool {
	next, changed := board.MoveItem(e.board, containerID, itemID, target)
	return e.commit("moveItem", next, changed)
}

func (e *Editor) RemoveItem(itemID string) bool {
	next, changed := board.RemoveItem(e.board, itemID)
	return e.commit("removeItem", next, changed)
}

func (e *Editor) SetItemAttrs(itemID string, p board.ItemPatch) bool {
	next, changed := board.SetItemAttrs(e.board, itemID, p)
	return e.commit("setItemAttribute", next, changed)
}

func (e *Editor) SetItemColor(itemID string, c *model.Color) bool {
	return e.SetItemAttrs(itemID, board.WithItemColor(c))
}

func (e *Editor) SetItemPriority(itemID string, p model.Priority) bool {
	return e.SetItemAttrs(itemID, board.WithItemPriority(p))
}

func (e *Editor) SetItemMemo(itemID, memo string) bool {
	return e.SetItemAttrs(itemID, board.WithItemMemo(memo))
}
