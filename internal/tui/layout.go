package tui

import (
	"strings"

	xansi "github.com/charmbracelet/x/ansi"
)

// normalizePane forces s to be exactly width columns wide (ANSI-aware) and, when
// height > 0, exactly height lines tall. Columns joined with lipgloss.JoinHorizontal
// stay aligned that way.
func normalizePane(s string, width, height int) string {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}

	lines := strings.Split(s, "\n")
	if height > 0 {
		if len(lines) > height {
			lines = lines[:height]
		}
		for len(lines) < height {
			lines = append(lines, "")
		}
	}

	for i, ln := range lines {
		// Bound the width computation on pathological lines.
		if width > 0 && len(ln) > 8192 {
			ln = truncateText(xansi.Cut(ln, 0, width+1), width)
		}
		w := xansi.StringWidth(ln)
		if w > width {
			ln = truncateText(ln, width)
			w = xansi.StringWidth(ln)
		}
		if w < width {
			ln += strings.Repeat(" ", width-w)
		}
		lines[i] = ln
	}
	return strings.Join(lines, "\n")
}

// truncateText cuts s to width columns, marking the cut with an ellipsis.
func truncateText(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if xansi.StringWidth(s) <= width {
		return s
	}
	if width == 1 {
		return xansi.Cut(s, 0, 1)
	}
	return xansi.Cut(s, 0, width-1) + "…"
}

// wrapWithPrefix word-wraps plain text to maxW columns. The first line starts with
// firstPrefix and continuation lines with contPrefix. Words wider than a line are
// hard-cut.
func wrapWithPrefix(s string, maxW int, firstPrefix, contPrefix string) []string {
	if maxW <= 0 {
		return []string{""}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{firstPrefix}
	}
	firstAvail := max(maxW-xansi.StringWidth(firstPrefix), 1)
	contAvail := max(maxW-xansi.StringWidth(contPrefix), 1)

	lines := make([]string, 0, 4)
	prefix := firstPrefix
	avail := firstAvail
	cur := ""
	curW := 0
	flush := func() {
		lines = append(lines, prefix+cur)
		prefix = contPrefix
		avail = contAvail
		cur = ""
		curW = 0
	}
	hardCut := func(w string) {
		for xansi.StringWidth(w) > avail {
			lines = append(lines, prefix+xansi.Cut(w, 0, avail))
			w = xansi.Cut(w, avail, xansi.StringWidth(w))
			prefix = contPrefix
			avail = contAvail
		}
		cur = w
		curW = xansi.StringWidth(w)
	}

	for _, w := range strings.Fields(s) {
		wordW := xansi.StringWidth(w)
		switch {
		case cur == "" && wordW <= avail:
			cur, curW = w, wordW
		case cur == "":
			hardCut(w)
		case curW+1+wordW <= avail:
			cur += " " + w
			curW += 1 + wordW
		default:
			flush()
			if wordW <= avail {
				cur, curW = w, wordW
			} else {
				hardCut(w)
			}
		}
	}
	if cur != "" || len(lines) == 0 {
		lines = append(lines, prefix+cur)
	}
	return lines
}

type token struct {
	s string
	w int
}

func newToken(s string) token { return token{s: s, w: xansi.StringWidth(s)} }

// wrapTokens packs pre-styled tokens into lines of at most maxW columns.
func wrapTokens(tokens []token, maxW int) []string {
	if maxW <= 0 {
		return []string{""}
	}
	if len(tokens) == 0 {
		return nil
	}
	lines := make([]string, 0, 2)
	var cur []string
	used := 0
	for _, tok := range tokens {
		next := tok.w
		if used > 0 {
			next++
		}
		if used+next <= maxW {
			cur = append(cur, tok.s)
			used += next
			continue
		}
		if len(cur) > 0 {
			lines = append(lines, strings.Join(cur, " "))
			cur, used = nil, 0
		}
		if tok.w > maxW {
			lines = append(lines, xansi.Cut(tok.s, 0, maxW))
			continue
		}
		cur = append(cur, tok.s)
		used = tok.w
	}
	if len(cur) > 0 {
		lines = append(lines, strings.Join(cur, " "))
	}
	return lines
}
