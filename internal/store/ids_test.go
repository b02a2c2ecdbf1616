package store

import (
	"strings"
	"testing"

	"planboard/internal/model"
)

func TestNewEntityID_PrefixAndLength(t *testing.T) {
	for _, kind := range []model.Kind{model.KindDocument, model.KindBoard, model.KindCalendar, model.KindGuestbook} {
		id, err := newEntityID(kind)
		if err != nil {
			t.Fatalf("newEntityID(%s): %v", kind, err)
		}
		prefix := IDPrefix(kind) + "-"
		if !strings.HasPrefix(id, prefix) {
			t.Fatalf("expected %s prefix, got %q", prefix, id)
		}
		if got, want := len(strings.TrimPrefix(id, prefix)), 8; got != want {
			t.Fatalf("expected id suffix len %d, got %d (%q)", want, got, id)
		}
		if got, ok := KindForID(id); !ok || got != kind {
			t.Fatalf("KindForID(%q) = %s, %v", id, got, ok)
		}
	}
}

func TestKindForID_RejectsUnknown(t *testing.T) {
	for _, id := range []string{"", "brd-", "item-abc", "brdx-abc"} {
		if kind, ok := KindForID(id); ok {
			t.Fatalf("KindForID(%q) = %s, want no match", id, kind)
		}
	}
	if _, err := newEntityID("outline"); err == nil {
		t.Fatalf("expected unknown kind to fail")
	}
}
