package board

import (
	"reflect"
	"testing"

	"planboard/internal/model"

	"github.com/samber/mo"
)

func containerIDs(b model.Board) []string {
	out := make([]string, 0, len(b))
	for _, c := range b {
		out = append(out, c.ID)
	}
	return out
}

func itemIDsIn(b model.Board, containerID string) []string {
	c, ok := FindContainer(b, containerID)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(c.Items))
	for _, it := range c.Items {
		out = append(out, it.ID)
	}
	return out
}

// mustChange returns a helper that unwraps an operation result and fails the test
// when the operation was a no-op.
func mustChange(t *testing.T) func(model.Board, bool) model.Board {
	return func(b model.Board, changed bool) model.Board {
		t.Helper()
		if !changed {
			t.Fatalf("expected operation to change the board")
		}
		return b
	}
}

func threeColumns(t *testing.T) model.Board {
	t.Helper()
	var b model.Board
	b, _ = CreateContainer(b, "A", "Todo")
	b, _ = CreateContainer(b, "B", "Doing")
	b, _ = CreateContainer(b, "C", "Done")
	return b
}

func TestMoveContainer_TargetIndexes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		id      string
		target  int
		want    []string
		changed bool
	}{
		{name: "rightward past neighbour", id: "A", target: 2, want: []string{"B", "A", "C"}, changed: true},
		{name: "rightward to end", id: "A", target: 3, want: []string{"B", "C", "A"}, changed: true},
		{name: "leftward to front", id: "C", target: 0, want: []string{"C", "A", "B"}, changed: true},
		{name: "leftward one", id: "C", target: 1, want: []string{"A", "C", "B"}, changed: true},
		{name: "own slot", id: "B", target: 1, want: []string{"A", "B", "C"}},
		{name: "just after itself", id: "B", target: 2, want: []string{"A", "B", "C"}},
		{name: "clamped past end", id: "A", target: 99, want: []string{"B", "C", "A"}, changed: true},
		{name: "clamped negative", id: "C", target: -5, want: []string{"C", "A", "B"}, changed: true},
		{name: "unknown id", id: "Z", target: 0, want: []string{"A", "B", "C"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := threeColumns(t)
			got, changed := MoveContainer(b, tt.id, tt.target)
			if changed != tt.changed {
				t.Fatalf("changed = %v, want %v", changed, tt.changed)
			}
			if ids := containerIDs(got); !reflect.DeepEqual(ids, tt.want) {
				t.Fatalf("order = %v, want %v", ids, tt.want)
			}
			if ids := containerIDs(b); !reflect.DeepEqual(ids, []string{"A", "B", "C"}) {
				t.Fatalf("input board was modified: %v", ids)
			}
		})
	}
}

func TestAddItem_KeepsSinglePlacementAndCarriesAttributes(t *testing.T) {
	must := mustChange(t)
	b := threeColumns(t)
	b = must(AddItem(b, "A", "doc1"))
	b = must(SetItemAttrs(b, "doc1", ItemPatch{
		Color:    mo.Some(&model.ItemPalette[2]),
		Priority: mo.Some(model.PriorityHigh),
		Memo:     mo.Some("ship it"),
	}))

	b = must(AddItem(b, "B", "doc1"))
	if got := itemIDsIn(b, "A"); len(got) != 0 {
		t.Fatalf("expected doc1 removed from A, got %v", got)
	}
	if got := itemIDsIn(b, "B"); !reflect.DeepEqual(got, []string{"doc1"}) {
		t.Fatalf("expected doc1 in B, got %v", got)
	}
	ref, ok := Placement(b, "doc1")
	if !ok {
		t.Fatalf("expected doc1 placed")
	}
	if !ref.Color.Equal(&model.ItemPalette[2]) || ref.Priority != model.PriorityHigh || ref.Memo != "ship it" {
		t.Fatalf("attributes not carried over: %+v", ref)
	}
	if got := len(ItemIDs(b)); got != 1 {
		t.Fatalf("expected exactly one placement, got %d", got)
	}
}

func TestAddItem_NoOps(t *testing.T) {
	must := mustChange(t)
	b := threeColumns(t)
	b = must(AddItem(b, "A", "doc1"))

	if got, changed := AddItem(b, "missing", "doc1"); changed || !Placed(got, "doc1") {
		t.Fatalf("adding into an unknown container must be a no-op")
	}
	if _, changed := AddItem(b, "A", "doc1"); changed {
		t.Fatalf("re-adding the last item of the same container must be a no-op")
	}

	b = must(AddItem(b, "A", "doc2"))
	b = must(AddItem(b, "A", "doc1"))
	if got := itemIDsIn(b, "A"); !reflect.DeepEqual(got, []string{"doc2", "doc1"}) {
		t.Fatalf("expected doc1 moved to the end, got %v", got)
	}
}

func TestMoveItem_WithinAndAcross(t *testing.T) {
	must := mustChange(t)
	b := threeColumns(t)
	for _, id := range []string{"d1", "d2", "d3"} {
		b = must(AddItem(b, "A", id))
	}

	b = must(MoveItem(b, "A", "d1", 2))
	if got := itemIDsIn(b, "A"); !reflect.DeepEqual(got, []string{"d2", "d1", "d3"}) {
		t.Fatalf("within move: got %v", got)
	}
	if _, changed := MoveItem(b, "A", "d1", 1); changed {
		t.Fatalf("moving to own slot must be a no-op")
	}

	b = must(MoveItem(b, "B", "d3", 0))
	b = must(MoveItem(b, "B", "d2", 5))
	if got := itemIDsIn(b, "B"); !reflect.DeepEqual(got, []string{"d3", "d2"}) {
		t.Fatalf("across move: got %v", got)
	}
	if got := itemIDsIn(b, "A"); !reflect.DeepEqual(got, []string{"d1"}) {
		t.Fatalf("source after across move: got %v", got)
	}

	if _, changed := MoveItem(b, "B", "ghost", 0); changed {
		t.Fatalf("moving an unplaced item must be a no-op")
	}
	if _, changed := MoveItem(b, "Z", "d1", 0); changed {
		t.Fatalf("moving into an unknown container must be a no-op")
	}
}

func TestNoOpsReturnInputBoard(t *testing.T) {
	must := mustChange(t)
	b := threeColumns(t)
	b = must(AddItem(b, "A", "doc1"))

	checks := []struct {
		name string
		run  func(model.Board) (model.Board, bool)
	}{
		{"rename to same name", func(b model.Board) (model.Board, bool) { return RenameContainer(b, "A", "Todo") }},
		{"rename unknown", func(b model.Board) (model.Board, bool) { return RenameContainer(b, "Z", "x") }},
		{"remove unknown container", func(b model.Board) (model.Board, bool) { return RemoveContainer(b, "Z") }},
		{"remove unplaced item", func(b model.Board) (model.Board, bool) { return RemoveItem(b, "ghost") }},
		{"empty container patch", func(b model.Board) (model.Board, bool) { return SetContainerAttrs(b, "A", ContainerPatch{}) }},
		{"clear absent color", func(b model.Board) (model.Board, bool) { return SetItemAttrs(b, "doc1", WithItemColor(nil)) }},
		{"duplicate container id", func(b model.Board) (model.Board, bool) { return CreateContainer(b, "A", "again") }},
	}
	for _, c := range checks {
		got, changed := c.run(b)
		if changed {
			t.Fatalf("%s: expected no change", c.name)
		}
		if &got[0] != &b[0] {
			t.Fatalf("%s: expected the input board to be returned", c.name)
		}
	}
}

func TestRemoveContainer_DropsItsPlacements(t *testing.T) {
	must := mustChange(t)
	b := threeColumns(t)
	b = must(AddItem(b, "B", "doc1"))
	b = must(AddItem(b, "B", "doc2"))
	b = must(AddItem(b, "C", "doc3"))

	b = must(RemoveContainer(b, "B"))
	if Placed(b, "doc1") || Placed(b, "doc2") {
		t.Fatalf("expected placements of the removed container to be gone")
	}
	if !Placed(b, "doc3") {
		t.Fatalf("expected other placements untouched")
	}
	if ids := containerIDs(b); !reflect.DeepEqual(ids, []string{"A", "C"}) {
		t.Fatalf("order = %v", ids)
	}
}

func TestSetItemAttrs_ClearAndSet(t *testing.T) {
	must := mustChange(t)
	b := threeColumns(t)
	b = must(AddItem(b, "A", "doc1"))
	before := b

	b = must(SetItemAttrs(b, "doc1", WithItemPriority(model.PriorityLow)))
	if ref, _ := Placement(before, "doc1"); !ref.Bare() {
		t.Fatalf("input snapshot was modified: %+v", ref)
	}
	b = must(SetItemAttrs(b, "doc1", WithItemPriority(model.PriorityNone)))
	if ref, _ := Placement(b, "doc1"); !ref.Bare() {
		t.Fatalf("expected priority cleared, got %+v", ref)
	}
	if _, changed := SetItemAttrs(b, "doc1", WithItemPriority(model.Priority(9))); changed {
		t.Fatalf("out of range priority must be ignored")
	}
}

func TestTodoDoneScenario(t *testing.T) {
	must := mustChange(t)
	var b model.Board
	b = must(CreateContainer(b, "todo", "Todo"))
	b = must(CreateContainer(b, "done", "Done"))
	b = must(AddItem(b, "todo", "X"))
	b = must(SetItemAttrs(b, "X", WithItemPriority(model.PriorityHigh)))
	b = must(MoveItem(b, "done", "X", 0))

	if got := itemIDsIn(b, "todo"); len(got) != 0 {
		t.Fatalf("todo = %v, want empty", got)
	}
	if got := itemIDsIn(b, "done"); !reflect.DeepEqual(got, []string{"X"}) {
		t.Fatalf("done = %v", got)
	}
	if ref, _ := Placement(b, "X"); ref.Priority != model.PriorityHigh {
		t.Fatalf("priority lost: %+v", ref)
	}
}

func TestFilterMissing(t *testing.T) {
	must := mustChange(t)
	b := threeColumns(t)
	b = must(AddItem(b, "A", "live"))
	b = must(AddItem(b, "A", "gone"))

	got := FilterMissing(b, func(id string) bool { return id == "live" })
	if ids := itemIDsIn(got, "A"); !reflect.DeepEqual(ids, []string{"live"}) {
		t.Fatalf("filtered = %v", ids)
	}
	if ids := itemIDsIn(b, "A"); len(ids) != 2 {
		t.Fatalf("input modified: %v", ids)
	}
}

func TestValidate(t *testing.T) {
	must := mustChange(t)
	b := threeColumns(t)
	b = must(AddItem(b, "A", "doc1"))
	if err := Validate(b); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	dup := append(model.Board{}, b...)
	dup[1].Items = []model.ItemRef{{ID: "doc1"}}
	if err := Validate(dup); err == nil {
		t.Fatalf("expected duplicate placement error")
	}

	again := append(model.Board{}, b...)
	again[2].ID = "A"
	if err := Validate(again); err == nil {
		t.Fatalf("expected duplicate container error")
	}
}
