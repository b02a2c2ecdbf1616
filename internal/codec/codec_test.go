package codec

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"planboard/internal/board"
	"planboard/internal/model"
)

func TestDecode_EmptyMeansNoContent(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "   \n", "null"} {
		b, ok, err := Decode(in)
		if err != nil || ok || b != nil {
			t.Fatalf("Decode(%q) = %v, %v, %v", in, b, ok, err)
		}
	}
}

func TestDecode_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
	}{
		{name: "not json", in: "{oops"},
		{name: "object instead of list", in: `{"_id":"a"}`},
		{name: "missing container id", in: `[{"name":"x","content":[]}]`},
		{name: "duplicate placement", in: `[{"_id":"a","name":"A","content":[{"_id":"d"}]},{"_id":"b","name":"B","content":[{"_id":"d"}]}]`},
		{name: "bad priority", in: `[{"_id":"a","name":"A","content":[{"_id":"d","priority":7}]}]`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := Decode(tt.in)
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestDecode_StoredShape(t *testing.T) {
	in := `[
  {
    "_id": "a1b2c3d4e5f60718",
    "name": "Todo",
    "content": [
      {"_id": "doc1", "color": {"light": "#fecaca", "dark": "#b91c1c"}, "priority": 2, "memo": "call back"},
      {"_id": "doc2"}
    ],
    "color": {"light": "#f5f5f5", "dark": "#262626"}
  },
  {"_id": "e", "name": "5", "content": [], "calendarIndex": 5, "calendarMonth": 3}
]`
	b, ok, err := Decode(in)
	if err != nil || !ok {
		t.Fatalf("Decode: ok=%v err=%v", ok, err)
	}
	if len(b) != 2 || len(b[0].Items) != 2 {
		t.Fatalf("unexpected board: %+v", b)
	}
	first := b[0].Items[0]
	if first.Priority != model.PriorityMedium || first.Memo != "call back" || first.Color.Dark != "#b91c1c" {
		t.Fatalf("unexpected placement: %+v", first)
	}
	if !b[0].Items[1].Bare() {
		t.Fatalf("expected bare placement, got %+v", b[0].Items[1])
	}
	if *b[1].CalendarIndex != 5 || *b[1].CalendarMonth != 3 {
		t.Fatalf("calendar fields not decoded: %+v", b[1])
	}
}

func TestRoundTrip(t *testing.T) {
	var b model.Board
	b, _ = board.CreateContainer(b, "todo", "Todo")
	b, _ = board.CreateCalendarEntry(b, "cal", "12", 12, 4)
	b, _ = board.AddItem(b, "todo", "X")
	b, _ = board.AddItem(b, "cal", "Y")
	b, _ = board.SetItemAttrs(b, "X", board.WithItemPriority(model.PriorityLow))
	b, _ = board.SetItemAttrs(b, "Y", board.WithItemColor(&model.ItemPalette[0]))
	b, _ = board.SetContainerAttrs(b, "todo", board.WithContainerColor(&model.ContainerPalette[4]))

	s, err := Encode(b)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, ok, err := Decode(s)
	if err != nil || !ok {
		t.Fatalf("Decode: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(got, b) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, b)
	}
	again, _ := Encode(got)
	if again != s {
		t.Fatalf("encoding is not deterministic:\n%s\n---\n%s", s, again)
	}
}

func TestEncode_OmitsUnsetAttributes(t *testing.T) {
	s, err := Encode(model.Board{{ID: "a", Name: "A", Items: []model.ItemRef{{ID: "d"}}}})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for _, key := range []string{"priority", "memo", "color", "calendarIndex"} {
		if strings.Contains(s, key) {
			t.Fatalf("expected %q to be omitted:\n%s", key, s)
		}
	}
	if !strings.Contains(s, "\n  {") {
		t.Fatalf("expected two-space indentation:\n%s", s)
	}

	empty, _ := Encode(nil)
	if empty != "[]" {
		t.Fatalf("Encode(nil) = %q", empty)
	}
	nilItems, _ := Encode(model.Board{{ID: "a", Name: "A"}})
	if !strings.Contains(nilItems, `"content": []`) {
		t.Fatalf("nil items must encode as []:\n%s", nilItems)
	}
}
