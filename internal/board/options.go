package board

import (
	"planboard/internal/model"

	"github.com/samber/mo"
)

func someString(s string) mo.Option[string] { return mo.Some(s) }

// Convenience constructors for the common single-attribute patches.

func WithContainerColor(c *model.Color) ContainerPatch {
	return ContainerPatch{Color: mo.Some(c)}
}

func WithItemColor(c *model.Color) ItemPatch {
	return ItemPatch{Color: mo.Some(c)}
}

func WithItemPriority(p model.Priority) ItemPatch {
	return ItemPatch{Priority: mo.Some(p)}
}

func WithItemMemo(memo string) ItemPatch {
	return ItemPatch{Memo: mo.Some(memo)}
}
