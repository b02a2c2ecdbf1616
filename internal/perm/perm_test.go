package perm

import (
	"testing"

	"planboard/internal/model"
)

func TestCanRead(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		caller string
		e      model.Entity
		want   bool
	}{
		{name: "owner private", caller: "u1", e: model.Entity{OwnerID: "u1"}, want: true},
		{name: "stranger private", caller: "u2", e: model.Entity{OwnerID: "u1"}, want: false},
		{name: "anonymous published", caller: "", e: model.Entity{OwnerID: "u1", Published: true}, want: true},
		{name: "published but archived", caller: "u2", e: model.Entity{OwnerID: "u1", Published: true, Archived: true}, want: false},
		{name: "owner archived", caller: "u1", e: model.Entity{OwnerID: "u1", Archived: true}, want: true},
		{name: "blank caller never owns", caller: " ", e: model.Entity{OwnerID: ""}, want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := CanRead(tt.caller, tt.e); got != tt.want {
				t.Fatalf("CanRead(%q) = %v, want %v", tt.caller, got, tt.want)
			}
		})
	}
}

func TestCanEdit_PublishedIsStillOwnerOnly(t *testing.T) {
	e := model.Entity{OwnerID: "u1", Published: true}
	if CanEdit("u2", e) {
		t.Fatalf("non-owner must not edit a published entity")
	}
	if !CanEdit("u1", e) {
		t.Fatalf("owner must edit")
	}
}

func TestCanRemoveComment(t *testing.T) {
	gb := model.Entity{OwnerID: "u1", Kind: model.KindGuestbook}
	if !CanRemoveComment("", gb, true) {
		t.Fatalf("matching password must allow removal")
	}
	if !CanRemoveComment("u1", gb, false) {
		t.Fatalf("owner must be able to remove any comment")
	}
	if CanRemoveComment("u2", gb, false) {
		t.Fatalf("stranger without password must be denied")
	}
}
