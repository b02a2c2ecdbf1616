package editor

import (
	"reflect"
	"testing"

	"planboard/internal/board"
	"planboard/internal/ids"
	"planboard/internal/model"

	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

type recorder struct {
	snapshots []model.Board
}

func (r *recorder) onChange(b model.Board) {
	r.snapshots = append(r.snapshots, b)
}

func newEditor(t *testing.T, opts Options) (*Editor, *recorder) {
	t.Helper()
	rec := &recorder{}
	opts.OnChange = rec.onChange
	if opts.IDs == nil {
		opts.IDs = &ids.Sequence{Prefix: "c"}
	}
	return New(opts), rec
}

func TestNew_SynthesizesVariantDefault(t *testing.T) {
	e, rec := newEditor(t, Options{
		Variant:  model.VariantKanban,
		Defaults: Defaults{KanbanColumns: []string{"Todo", "Done"}},
	})
	got := e.Board()
	if len(got) != 2 || got[0].Name != "Todo" || got[1].Name != "Done" {
		t.Fatalf("unexpected default board: %+v", got)
	}
	if got[0].ID != "c0001" || got[1].ID != "c0002" {
		t.Fatalf("expected ids from the generator, got %q %q", got[0].ID, got[1].ID)
	}
	if len(rec.snapshots) != 0 {
		t.Fatalf("synthesis must not report a change")
	}

	cal, _ := newEditor(t, Options{Variant: model.VariantCalendar, Defaults: Defaults{KanbanColumns: []string{"x"}}})
	if len(cal.Board()) != 0 {
		t.Fatalf("calendar default must be empty, got %+v", cal.Board())
	}
}

func TestNew_KeepsInitialContent(t *testing.T) {
	initial := model.Board{{ID: "a", Name: "Only", Items: []model.ItemRef{}}}
	e, _ := newEditor(t, Options{Initial: initial, Defaults: Defaults{KanbanColumns: []string{"Todo"}}})
	if !reflect.DeepEqual(e.Board(), initial) {
		t.Fatalf("Board() = %+v, want %+v", e.Board(), initial)
	}
}

func TestOnChange_OncePerEffectiveMutation(t *testing.T) {
	e, rec := newEditor(t, Options{})

	todo, ok := e.NewContainer("Todo")
	if !ok {
		t.Fatalf("NewContainer reported no change")
	}
	done, _ := e.NewContainer("")
	if c, _ := board.FindContainer(e.Board(), done); c.Name != "untitled" {
		t.Fatalf("expected untitled default name, got %q", c.Name)
	}

	steps := []struct {
		name    string
		run     func() bool
		changed bool
	}{
		{"add", func() bool { return e.AddItem(todo, "X") }, true},
		{"re-add last", func() bool { return e.AddItem(todo, "X") }, false},
		{"priority", func() bool { return e.SetItemPriority("X", model.PriorityHigh) }, true},
		{"same priority", func() bool { return e.SetItemPriority("X", model.PriorityHigh) }, false},
		{"move across", func() bool { return e.MoveItem(done, "X", 0) }, true},
		{"stale container", func() bool { return e.RenameContainer("gone", "x") }, false},
		{"rename", func() bool { return e.RenameContainer(done, "Done") }, true},
		{"rename same", func() bool { return e.RenameContainer(done, "Done") }, false},
		{"move column", func() bool { return e.MoveContainer(todo, 2) }, true},
		{"memo", func() bool { return e.SetItemMemo("X", "notes") }, true},
		{"color", func() bool { return e.SetContainerColor(done, &model.ContainerPalette[3]) }, true},
		{"remove unplaced", func() bool { return e.RemoveItem("Y") }, false},
	}

	want := len(rec.snapshots)
	for _, s := range steps {
		if got := s.run(); got != s.changed {
			t.Fatalf("%s: changed = %v, want %v", s.name, got, s.changed)
		}
		if s.changed {
			want++
		}
		if len(rec.snapshots) != want {
			t.Fatalf("%s: OnChange called %d times, want %d", s.name, len(rec.snapshots), want)
		}
	}

	last := rec.snapshots[len(rec.snapshots)-1]
	if !reflect.DeepEqual(last, e.Board()) {
		t.Fatalf("last snapshot does not match Board()")
	}
	if got := []string{last[0].ID, last[1].ID}; !reflect.DeepEqual(got, []string{done, todo}) {
		t.Fatalf("column order = %v", got)
	}
	ref, ok := board.Placement(last, "X")
	if !ok || ref.Priority != model.PriorityHigh || ref.Memo != "notes" {
		t.Fatalf("unexpected placement: %+v", ref)
	}
}

func TestNewCalendarEntry_DefaultsNameToIndex(t *testing.T) {
	e, rec := newEditor(t, Options{Variant: model.VariantCalendar})
	id, ok := e.NewCalendarEntry("", 12, 4)
	if !ok {
		t.Fatalf("NewCalendarEntry reported no change")
	}
	c, _ := board.FindContainer(e.Board(), id)
	if c.Name != "12" || *c.CalendarIndex != 12 || *c.CalendarMonth != 4 {
		t.Fatalf("unexpected entry: %+v", c)
	}
	if len(rec.snapshots) != 1 {
		t.Fatalf("expected one change, got %d", len(rec.snapshots))
	}
}

func TestMutationsAreLogged(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(log.DebugLevel)
	e, _ := newEditor(t, Options{Logger: logger})

	e.NewContainer("Todo")
	e.RemoveContainer("nope")

	entries := hook.AllEntries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	if entries[0].Message != "editor.mutation" || entries[0].Data["op"] != "createContainer" {
		t.Fatalf("unexpected first entry: %s %v", entries[0].Message, entries[0].Data)
	}
	if entries[1].Message != "editor.mutation.noop" {
		t.Fatalf("unexpected second entry: %s", entries[1].Message)
	}
}
