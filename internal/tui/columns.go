package tui

import (
	"fmt"
	"strings"

	"planboard/internal/blocks"
	"planboard/internal/board"
	"planboard/internal/dragdrop"
	"planboard/internal/model"

	"github.com/charmbracelet/lipgloss"
)

type card struct {
	Ref      model.ItemRef
	Title    string
	Progress string
}

type column struct {
	Container model.Container
	Label     string
	Cards     []card
}

type boardView struct {
	cols []column
}

// selection is stable by ItemID when the card still exists.
type selection struct {
	Col    int
	Item   int
	ItemID string
}

// buildBoardView turns a board snapshot into display columns. docs resolves titles
// and checklist progress; unknown ids fall back to the raw id.
func buildBoardView(b model.Board, variant model.Variant, year int, docs map[string]model.Entity) boardView {
	v := boardView{cols: make([]column, 0, len(b))}
	for _, c := range b {
		col := column{Container: c, Label: strings.TrimSpace(c.Name)}
		if variant == model.VariantCalendar && c.CalendarIndex != nil && c.CalendarMonth != nil {
			date := board.SlotDate(year, *c.CalendarMonth, *c.CalendarIndex)
			col.Label = date.Format("Mon Jan 2") + " · " + col.Label
		}
		for _, ref := range c.Items {
			cd := card{Ref: ref, Title: ref.ID}
			if d, ok := docs[ref.ID]; ok {
				if t := strings.TrimSpace(d.Title); t != "" {
					cd.Title = t
				}
				cd.Progress = blocks.ProgressLabel(d.ContentString())
			}
			col.Cards = append(col.Cards, cd)
		}
		v.cols = append(v.cols, col)
	}
	return v
}

func (v boardView) indexOfItemID(id string) (ci, ii int, ok bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return 0, 0, false
	}
	for ci, c := range v.cols {
		for ii, cd := range c.Cards {
			if cd.Ref.ID == id {
				return ci, ii, true
			}
		}
	}
	return 0, 0, false
}

func (v boardView) clamp(sel selection) selection {
	if len(v.cols) == 0 {
		return selection{Item: -1}
	}
	if ci, ii, ok := v.indexOfItemID(sel.ItemID); ok {
		sel.Col, sel.Item = ci, ii
	} else {
		sel.ItemID = ""
	}
	sel.Col = max(0, min(sel.Col, len(v.cols)-1))

	n := len(v.cols[sel.Col].Cards)
	if n == 0 {
		sel.Item = -1
		sel.ItemID = ""
		return sel
	}
	sel.Item = max(0, min(sel.Item, n-1))
	sel.ItemID = v.cols[sel.Col].Cards[sel.Item].Ref.ID
	return sel
}

func (v boardView) selectedColumn(sel selection) (column, bool) {
	sel = v.clamp(sel)
	if len(v.cols) == 0 {
		return column{}, false
	}
	return v.cols[sel.Col], true
}

func (v boardView) selectedCard(sel selection) (card, bool) {
	sel = v.clamp(sel)
	if len(v.cols) == 0 || sel.Item < 0 {
		return card{}, false
	}
	return v.cols[sel.Col].Cards[sel.Item], true
}

// boardIndex converts a position among a column's visible cards into a position in
// the stored container, which may still hold references hidden from the view.
// A position past the last visible card lands right after it.
func (v boardView) boardIndex(b model.Board, col int, visible int) int {
	if col < 0 || col >= len(v.cols) {
		return visible
	}
	c := v.cols[col]
	stored, ok := board.FindContainer(b, c.Container.ID)
	if !ok {
		return visible
	}
	visible = max(visible, 0)
	rawOf := func(id string) int {
		for i, it := range stored.Items {
			if it.ID == id {
				return i
			}
		}
		return len(stored.Items)
	}
	switch {
	case visible < len(c.Cards):
		return rawOf(c.Cards[visible].Ref.ID)
	case len(c.Cards) > 0:
		return rawOf(c.Cards[len(c.Cards)-1].Ref.ID) + 1
	default:
		return len(stored.Items)
	}
}

func (v boardView) columnIndex(containerID string) int {
	for i, c := range v.cols {
		if c.Container.ID == containerID {
			return i
		}
	}
	return -1
}

// hitKind tells what a screen region holds.
type hitKind int

const (
	hitHeader hitKind = iota
	hitCard
	hitColumn
)

type hitBox struct {
	Kind hitKind
	Col  int
	Item int
	Rect dragdrop.Rect
}

// dropHint marks where a drag in progress would land.
type dropHint struct {
	// Col is the column index for item drops, -1 for a column drop.
	Col   int
	Index int
}

type renderedBoard struct {
	out  string
	hits []hitBox
}

func (r renderedBoard) hitAt(p dragdrop.Point, kinds ...hitKind) (hitBox, bool) {
	for _, h := range r.hits {
		if !h.Rect.Contains(p) {
			continue
		}
		for _, k := range kinds {
			if h.Kind == k {
				return h, true
			}
		}
	}
	return hitBox{}, false
}

const columnGap = 2

func columnWidth(n, width int) int {
	if n <= 0 {
		return width
	}
	avail := max(width-columnGap*(n-1), n)
	return max(avail/n, 10)
}

// renderColumns draws the board side by side starting at screen row top. Hit boxes
// are in screen coordinates.
func renderColumns(v boardView, sel selection, hint *dropHint, width, height, top int) renderedBoard {
	width = max(width, 0)
	height = max(height, 0)
	n := len(v.cols)
	if n == 0 {
		msg := styleMuted().Render("(no columns; press n to add one)")
		return renderedBoard{out: normalizePane(msg, width, height)}
	}
	sel = v.clamp(sel)
	colW := columnWidth(n, width)

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(colorSurfaceFg).Background(colorControlBg)
	headerSelectedStyle := lipgloss.NewStyle().Bold(true).Foreground(colorSelectedFg).Background(colorSelectedBg)
	hintStyle := lipgloss.NewStyle().Bold(true).Foreground(colorDropHint)

	itemStyle := lipgloss.NewStyle().Width(colW).Padding(0, 1)
	itemSelectedStyle := itemStyle.Foreground(colorSelectedFg).Background(colorSelectedBg).Bold(true)
	innerW := max(colW-2, 0)

	metaLines := func(cd card, selected bool) []string {
		tokens := make([]token, 0, 3)
		withBg := func(st lipgloss.Style) lipgloss.Style {
			if selected {
				return st.Background(colorSelectedBg)
			}
			return st
		}
		meta := lipgloss.NewStyle().Foreground(colorCardMeta)
		if cd.Ref.Priority != model.PriorityNone {
			tokens = append(tokens, newToken(withBg(priorityStyle(cd.Ref.Priority)).Render(fmt.Sprintf("P%d", cd.Ref.Priority))))
		}
		if cd.Progress != "" {
			tokens = append(tokens, newToken(withBg(meta).Render("☑ "+cd.Progress)))
		}
		if strings.TrimSpace(cd.Ref.Memo) != "" {
			tokens = append(tokens, newToken(withBg(meta).Render("✎ memo")))
		}
		lines := wrapTokens(tokens, max(innerW-2, 1))
		for i := range lines {
			lines[i] = "  " + lines[i]
		}
		return lines
	}

	renderCard := func(cd card, selected bool) string {
		marker := "  "
		if c, ok := adaptive(cd.Ref.Color); ok {
			marker = lipgloss.NewStyle().Foreground(c).Render("▌") + " "
		}
		titleStyle := lipgloss.NewStyle().Bold(true)
		if selected {
			titleStyle = titleStyle.Foreground(colorSelectedFg).Background(colorSelectedBg)
		}
		lines := wrapWithPrefix(cd.Title, innerW, "", "")
		content := make([]string, 0, len(lines)+1)
		for i, ln := range lines {
			prefix := "  "
			if i == 0 {
				prefix = marker
			}
			content = append(content, prefix+titleStyle.Render(ln))
		}
		content = append(content, metaLines(cd, selected)...)
		inner := normalizePane(strings.Join(content, "\n"), innerW, 0)
		if selected {
			return itemSelectedStyle.Render(inner)
		}
		return itemStyle.Render(inner)
	}

	hits := make([]hitBox, 0, n*4)
	renderCol := func(ci int, c column) string {
		x := ci * (colW + columnGap)
		head := truncateText(fmt.Sprintf("%s (%d)", c.Label, len(c.Cards)), colW)
		hs := headerStyle
		if bg, ok := adaptive(c.Container.Color); ok {
			hs = hs.Background(bg)
		}
		if ci == sel.Col {
			hs = headerSelectedStyle
		}
		if hint != nil && hint.Col < 0 && hint.Index == ci {
			head = truncateText("▶ "+head, colW)
			hs = hs.Foreground(colorDropHint)
		}
		lines := make([]string, 0, max(2, height))
		lines = append(lines, hs.Width(colW).Render(head))
		hits = append(hits, hitBox{Kind: hitHeader, Col: ci, Item: -1, Rect: dragdrop.Rect{X: x, Y: top, W: colW, H: 1}})
		hits = append(hits, hitBox{Kind: hitColumn, Col: ci, Item: -1, Rect: dragdrop.Rect{X: x, Y: top, W: colW, H: max(height, 1)}})

		hintLine := func(index int) (string, bool) {
			if hint == nil || hint.Col != ci || hint.Index != index {
				return "", false
			}
			return hintStyle.Render(" " + strings.Repeat("━", max(colW-2, 0)) + " "), true
		}

		if len(c.Cards) == 0 {
			if h, ok := hintLine(0); ok {
				lines = append(lines, h)
			} else {
				lines = append(lines, styleMuted().Render("(empty)"))
			}
			return normalizePane(strings.Join(lines, "\n"), colW, height)
		}

		sep := styleMuted().Render(" " + strings.Repeat("─", max(colW-2, 0)) + " ")
		for i, cd := range c.Cards {
			// The line above each card is a spacer, or the drop hint for index i.
			if h, ok := hintLine(i); ok {
				lines = append(lines, h)
			} else if i == 0 {
				lines = append(lines, "")
			} else {
				lines = append(lines, sep)
			}
			cardLines := strings.Split(renderCard(cd, ci == sel.Col && i == sel.Item), "\n")
			hits = append(hits, hitBox{
				Kind: hitCard,
				Col:  ci,
				Item: i,
				Rect: dragdrop.Rect{X: x, Y: top + len(lines), W: colW, H: len(cardLines)},
			})
			lines = append(lines, cardLines...)
		}
		if h, ok := hintLine(len(c.Cards)); ok {
			lines = append(lines, h)
		}
		return normalizePane(strings.Join(lines, "\n"), colW, height)
	}

	rendered := make([]string, 0, n)
	for i, c := range v.cols {
		rendered = append(rendered, renderCol(i, c))
	}
	// JoinHorizontal has no inter-column spacing, so gaps are joined in explicitly.
	out := rendered[0]
	gap := strings.Repeat(" ", columnGap)
	for i := 1; i < len(rendered); i++ {
		out = lipgloss.JoinHorizontal(lipgloss.Top, out, gap, rendered[i])
	}
	return renderedBoard{out: normalizePane(out, width, height), hits: hits}
}
