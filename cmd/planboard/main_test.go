package main

import (
	"reflect"
	"testing"
)

func TestRewriteDirectLookupArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"planboard"},
			want: []string{"planboard"},
		},
		{
			name: "board id first token",
			in:   []string{"planboard", "brd-abcd2345"},
			want: []string{"planboard", "boards", "show", "brd-abcd2345"},
		},
		{
			name: "calendar id after value flag",
			in:   []string{"planboard", "--data-dir", "./tmp", "cal-abcd2345"},
			want: []string{"planboard", "--data-dir", "./tmp", "calendars", "show", "cal-abcd2345"},
		},
		{
			name: "document id after equals flag",
			in:   []string{"planboard", "--user=alice", "doc-abcd2345"},
			want: []string{"planboard", "--user=alice", "documents", "show", "doc-abcd2345"},
		},
		{
			name: "guestbook id after bool flag",
			in:   []string{"planboard", "--pretty", "gb-abcd2345"},
			want: []string{"planboard", "--pretty", "guestbooks", "show", "gb-abcd2345"},
		},
		{
			name: "id after double dash",
			in:   []string{"planboard", "--", "brd-abcd2345"},
			want: []string{"planboard", "--", "boards", "show", "brd-abcd2345"},
		},
		{
			name: "normal subcommand not rewritten",
			in:   []string{"planboard", "boards", "show", "brd-abcd2345"},
			want: []string{"planboard", "boards", "show", "brd-abcd2345"},
		},
		{
			name: "unknown command not rewritten",
			in:   []string{"planboard", "wat"},
			want: []string{"planboard", "wat"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := rewriteDirectLookupArgs(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("rewriteDirectLookupArgs(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
