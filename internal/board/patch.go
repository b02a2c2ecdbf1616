package board

import (
	"planboard/internal/model"

	"github.com/samber/mo"
)

// ContainerPatch is a partial container update. A None field is left alone;
// Some(nil) for Color clears it.
type ContainerPatch struct {
	Name  mo.Option[string]
	Color mo.Option[*model.Color]
}

// ItemPatch is a partial placement update. A None field is left alone;
// Some of the zero value clears the attribute.
type ItemPatch struct {
	Color    mo.Option[*model.Color]
	Priority mo.Option[model.Priority]
	Memo     mo.Option[string]
}

func (p ContainerPatch) apply(c model.Container) (model.Container, bool) {
	changed := false
	if name, ok := p.Name.Get(); ok && name != c.Name {
		c.Name = name
		changed = true
	}
	if color, ok := p.Color.Get(); ok && !c.Color.Equal(color) {
		c.Color = copyColor(color)
		changed = true
	}
	return c, changed
}

func (p ItemPatch) apply(r model.ItemRef) (model.ItemRef, bool) {
	changed := false
	if color, ok := p.Color.Get(); ok && !r.Color.Equal(color) {
		r.Color = copyColor(color)
		changed = true
	}
	if pr, ok := p.Priority.Get(); ok && pr != r.Priority && pr.Valid() {
		r.Priority = pr
		changed = true
	}
	if memo, ok := p.Memo.Get(); ok && memo != r.Memo {
		r.Memo = memo
		changed = true
	}
	return r, changed
}

func copyColor(c *model.Color) *model.Color {
	if c == nil {
		return nil
	}
	cc := *c
	return &cc
}
