package format

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteJSON_Envelope(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, Envelope{Data: map[string]any{"id": "brd-1"}}, "json", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got, want := buf.String(), "{\"data\":{\"id\":\"brd-1\"}}\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestWriteEDN(t *testing.T) {
	type card struct {
		ID       string `json:"_id"`
		OwnerID  string `json:"ownerId"`
		Priority int    `json:"priority"`
		Done     bool   `json:"done"`
		Memo     *string
	}
	var buf bytes.Buffer
	if err := Write(&buf, []card{{ID: "doc-1", OwnerID: "alice", Priority: 2}}, "edn", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := `[{:done false :id "doc-1" :memo nil :owner-id "alice" :priority 2}]` + "\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}

	buf.Reset()
	if err := WriteEDN(&buf, map[string]any{"a": []any{1, 2.5}}, true); err != nil {
		t.Fatalf("WriteEDN: %v", err)
	}
	if !strings.Contains(buf.String(), "\n  :a [\n    1\n    2.5\n  ]") {
		t.Fatalf("unexpected pretty output:\n%s", buf.String())
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	if err := Write(&bytes.Buffer{}, 1, "yaml", false); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
