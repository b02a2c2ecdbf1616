package editor

import (
	"errors"
	"testing"

	"planboard/internal/ids"
	"planboard/internal/model"
)

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }

func TestApplyAll_KanbanOps(t *testing.T) {
	e, rec := newEditor(t, Options{Variant: model.VariantKanban, IDs: &ids.Sequence{Prefix: "c"}})

	res, err := e.ApplyAll([]Op{
		{Op: "createContainer", Name: strPtr("Todo")},
		{Op: "createContainer", Name: strPtr("Done")},
		{Op: "addItem", Container: "c0001", Item: "doc-a"},
		{Op: "addItem", Container: "c0001", Item: "doc-b"},
		{Op: "moveItem", Container: "c0002", Item: "doc-a", Index: intPtr(0)},
		{Op: "setItemAttribute", Item: "doc-b", Priority: intPtr(1), Memo: strPtr("soon"), Color: strPtr("0")},
		{Op: "moveContainer", Container: "c0002", Index: intPtr(0)},
	})
	if err != nil {
		t.Fatalf("ApplyAll: %v", err)
	}
	if len(res) != 7 || res[0].ID != "c0001" || res[1].ID != "c0002" {
		t.Fatalf("unexpected results: %+v", res)
	}
	for _, r := range res {
		if !r.Changed {
			t.Fatalf("expected every op to change the board: %+v", res)
		}
	}
	b := e.Board()
	if b[0].ID != "c0002" || b[0].Items[0].ID != "doc-a" || b[1].Items[0].ID != "doc-b" {
		t.Fatalf("unexpected board: %+v", b)
	}
	got := b[1].Items[0]
	if got.Priority != model.PriorityHigh || got.Memo != "soon" || !got.Color.Equal(&model.ItemPalette[0]) {
		t.Fatalf("unexpected attributes: %+v", got)
	}
	if len(rec.snapshots) != 7 {
		t.Fatalf("expected 7 change notifications, got %d", len(rec.snapshots))
	}
}

func TestApply_NoOpAndErrors(t *testing.T) {
	e, rec := newEditor(t, Options{Variant: model.VariantCalendar})

	res, err := e.Apply(Op{Op: "removeItem", Item: "missing"})
	if err != nil || res.Changed {
		t.Fatalf("expected unchanged success, got %+v, %v", res, err)
	}

	tests := []Op{
		{Op: "renameContainer", Name: strPtr("x")},
		{Op: "moveItem", Container: "c", Item: "i"},
		{Op: "createCalendarEntry", Index: intPtr(3)},
		{Op: "createCalendarEntry", Index: intPtr(42), Month: intPtr(1)},
		{Op: "createCalendarEntry", Index: intPtr(0), Month: intPtr(13)},
		{Op: "setItemAttribute", Item: "i", Priority: intPtr(9)},
		{Op: "setContainerColor", Container: "c", Color: strPtr("#nope")},
	}
	for _, o := range tests {
		var opErr OpError
		if _, err := e.Apply(o); !errors.As(err, &opErr) {
			t.Fatalf("Apply(%+v): expected OpError, got %v", o, err)
		}
	}
	if _, err := e.Apply(Op{Op: "explode"}); !errors.Is(err, ErrUnknownOp) {
		t.Fatalf("expected ErrUnknownOp, got %v", err)
	}
	if len(rec.snapshots) != 0 {
		t.Fatalf("expected no change notifications, got %d", len(rec.snapshots))
	}

	res, err = e.Apply(Op{Op: "createCalendarEntry", Index: intPtr(5), Month: intPtr(3)})
	if err != nil || !res.Changed {
		t.Fatalf("createCalendarEntry: %+v, %v", res, err)
	}
	if c := e.Board()[0]; c.Name != "5" || *c.CalendarMonth != 3 {
		t.Fatalf("unexpected entry: %+v", c)
	}
}
