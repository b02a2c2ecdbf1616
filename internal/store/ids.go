package store

import (
	"fmt"

	"planboard/internal/ids"
	"planboard/internal/model"
)

var idPrefixes = map[model.Kind]string{
	model.KindDocument:  "doc",
	model.KindBoard:     "brd",
	model.KindCalendar:  "cal",
	model.KindGuestbook: "gb",
}

func IDPrefix(kind model.Kind) string { return idPrefixes[kind] }

// KindForID infers the entity kind from an id prefix ("brd-..." => board).
func KindForID(id string) (model.Kind, bool) {
	for kind, prefix := range idPrefixes {
		if len(id) > len(prefix)+1 && id[:len(prefix)+1] == prefix+"-" {
			return kind, true
		}
	}
	return "", false
}

func newEntityID(kind model.Kind) (string, error) {
	prefix, ok := idPrefixes[kind]
	if !ok {
		return "", fmt.Errorf("unknown kind %q", kind)
	}
	return ids.NewEntityID(prefix)
}
