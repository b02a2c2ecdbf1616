// Package blocks reads summary facts out of a document's rich-text content without
// interpreting the rest of it.
package blocks

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

type block struct {
	Type  string `json:"type"`
	Props struct {
		Checked bool `json:"checked"`
	} `json:"props"`
}

// Progress counts top-level checkbox blocks and how many are checked. ok is false for
// empty or unparseable content and for documents without checkboxes.
func Progress(content string) (done, total int, ok bool) {
	if strings.TrimSpace(content) == "" {
		return 0, 0, false
	}
	var doc []block
	if err := sonic.UnmarshalString(content, &doc); err != nil {
		return 0, 0, false
	}
	for _, b := range doc {
		if b.Type != "checkbox" {
			continue
		}
		total++
		if b.Props.Checked {
			done++
		}
	}
	return done, total, total > 0
}

// ProgressLabel renders Progress as "done/total", or "" when there is nothing to show.
func ProgressLabel(content string) string {
	done, total, ok := Progress(content)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%d/%d", done, total)
}
