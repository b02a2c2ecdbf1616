package ids

import (
	"strings"
	"testing"
)

func TestNewContainerID_Shape(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		id := NewContainerID()
		if !IsContainerID(id) {
			t.Fatalf("expected 16 lowercase hex chars, got %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id after %d draws: %q", i, id)
		}
		seen[id] = true
	}
}

func TestIsContainerID(t *testing.T) {
	for _, bad := range []string{"", "abc", "ABCDEF0123456789", "0123456789abcdeg", "0123456789abcdef0"} {
		if IsContainerID(bad) {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestNewEntityID_Prefix(t *testing.T) {
	id, err := NewEntityID("brd")
	if err != nil {
		t.Fatalf("NewEntityID: %v", err)
	}
	if !strings.HasPrefix(id, "brd-") {
		t.Fatalf("expected brd prefix, got %q", id)
	}
	if got, want := len(strings.TrimPrefix(id, "brd-")), 8; got != want {
		t.Fatalf("expected suffix len %d, got %d (%q)", want, got, id)
	}
}

func TestSequence(t *testing.T) {
	s := &Sequence{Prefix: "c"}
	if a, b := s.NewID(), s.NewID(); a != "c0001" || b != "c0002" {
		t.Fatalf("unexpected sequence: %q %q", a, b)
	}
}
