package editor

import (
	"errors"
	"fmt"
	"strings"

	"planboard/internal/board"
	"planboard/internal/model"

	"github.com/samber/mo"
)

// Op is the wire form of one editor mutation, shared by the HTTP ops endpoint and
// the CLI editing commands.
type Op struct {
	Op        string  `json:"op"`
	Container string  `json:"container,omitempty"`
	Item      string  `json:"item,omitempty"`
	Index     *int    `json:"index,omitempty"`
	Month     *int    `json:"month,omitempty"`
	Name      *string `json:"name,omitempty"`
	// Color is a palette index or "#light:#dark"; "" or "none" clears it.
	Color    *string `json:"color,omitempty"`
	Priority *int    `json:"priority,omitempty"`
	Memo     *string `json:"memo,omitempty"`
}

// OpResult reports what an Op did. ID is set for ops that create a container.
type OpResult struct {
	Op      string `json:"op"`
	Changed bool   `json:"changed"`
	ID      string `json:"id,omitempty"`
}

var ErrUnknownOp = errors.New("unknown op")

type OpError struct {
	Op     string
	Reason string
}

func (e OpError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func (o Op) missing(field string) error {
	return OpError{Op: o.Op, Reason: "missing " + field}
}

func (o Op) str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Apply runs one op against the editor. Ops that resolve to nothing (unknown ids,
// same position) succeed with Changed=false.
func (e *Editor) Apply(o Op) (OpResult, error) {
	res := OpResult{Op: o.Op}
	needContainer := func() error {
		if strings.TrimSpace(o.Container) == "" {
			return o.missing("container")
		}
		return nil
	}
	needItem := func() error {
		if strings.TrimSpace(o.Item) == "" {
			return o.missing("item")
		}
		return nil
	}

	switch o.Op {
	case "createContainer":
		res.ID, res.Changed = e.NewContainer(o.str(o.Name))
	case "createCalendarEntry":
		if o.Index == nil {
			return res, o.missing("index")
		}
		if o.Month == nil {
			return res, o.missing("month")
		}
		if *o.Month < 1 || *o.Month > 12 {
			return res, OpError{Op: o.Op, Reason: fmt.Sprintf("month out of range: %d", *o.Month)}
		}
		if *o.Index < 0 || *o.Index >= board.GridCells {
			return res, OpError{Op: o.Op, Reason: fmt.Sprintf("index out of range: %d", *o.Index)}
		}
		res.ID, res.Changed = e.NewCalendarEntry(o.str(o.Name), *o.Index, *o.Month)
	case "renameContainer":
		if err := needContainer(); err != nil {
			return res, err
		}
		if o.Name == nil {
			return res, o.missing("name")
		}
		res.Changed = e.RenameContainer(o.Container, *o.Name)
	case "removeContainer":
		if err := needContainer(); err != nil {
			return res, err
		}
		res.Changed = e.RemoveContainer(o.Container)
	case "setContainerColor":
		if err := needContainer(); err != nil {
			return res, err
		}
		c, err := model.ParseColor(o.str(o.Color), model.ContainerPalette)
		if err != nil {
			return res, OpError{Op: o.Op, Reason: err.Error()}
		}
		res.Changed = e.SetContainerColor(o.Container, c)
	case "moveContainer":
		if err := needContainer(); err != nil {
			return res, err
		}
		if o.Index == nil {
			return res, o.missing("index")
		}
		res.Changed = e.MoveContainer(o.Container, *o.Index)
	case "addItem":
		if err := needContainer(); err != nil {
			return res, err
		}
		if err := needItem(); err != nil {
			return res, err
		}
		res.Changed = e.AddItem(o.Container, o.Item)
	case "moveItem":
		if err := needContainer(); err != nil {
			return res, err
		}
		if err := needItem(); err != nil {
			return res, err
		}
		if o.Index == nil {
			return res, o.missing("index")
		}
		res.Changed = e.MoveItem(o.Container, o.Item, *o.Index)
	case "removeItem":
		if err := needItem(); err != nil {
			return res, err
		}
		res.Changed = e.RemoveItem(o.Item)
	case "setItemAttribute":
		if err := needItem(); err != nil {
			return res, err
		}
		var p board.ItemPatch
		if o.Color != nil {
			c, err := model.ParseColor(*o.Color, model.ItemPalette)
			if err != nil {
				return res, OpError{Op: o.Op, Reason: err.Error()}
			}
			p.Color = mo.Some(c)
		}
		if o.Priority != nil {
			pr := model.Priority(*o.Priority)
			if !pr.Valid() {
				return res, OpError{Op: o.Op, Reason: fmt.Sprintf("priority out of range: %d", *o.Priority)}
			}
			p.Priority = mo.Some(pr)
		}
		if o.Memo != nil {
			p.Memo = mo.Some(*o.Memo)
		}
		res.Changed = e.SetItemAttrs(o.Item, p)
	default:
		return res, fmt.Errorf("%w: %q", ErrUnknownOp, o.Op)
	}
	return res, nil
}

// ApplyAll runs ops in order and stops at the first error. Results cover the ops
// that ran.
func (e *Editor) ApplyAll(ops []Op) ([]OpResult, error) {
	out := make([]OpResult, 0, len(ops))
	for i, o := range ops {
		res, err := e.Apply(o)
		if err != nil {
			return out, fmt.Errorf("op %d: %w", i, err)
		}
		out = append(out, res)
	}
	return out, nil
}
