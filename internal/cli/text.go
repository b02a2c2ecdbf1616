package cli

import (
	"fmt"
	"io"
	"strings"

	"planboard/internal/board"
	"planboard/internal/model"

	"github.com/muesli/termenv"
)

// renderBoardText prints a board or calendar as an indented outline. Colors follow
// the writer's terminal profile, so piped output is plain text.
func renderBoardText(w io.Writer, e model.Entity, b model.Board, titles map[string]string, year int) error {
	out := termenv.NewOutput(w)
	dark := out.HasDarkBackground()
	pick := func(c *model.Color) string {
		if c == nil {
			return ""
		}
		if dark {
			return c.Dark
		}
		return c.Light
	}

	title := strings.TrimSpace(e.Title)
	if title == "" {
		title = e.ID
	}
	if _, err := fmt.Fprintln(out, out.String(title).Bold()); err != nil {
		return err
	}
	if len(b) == 0 {
		_, err := fmt.Fprintln(out, out.String("  (empty)").Faint())
		return err
	}

	for _, c := range b {
		name := c.Name
		if e.Kind == model.KindCalendar && c.CalendarIndex != nil && c.CalendarMonth != nil {
			name = board.SlotDate(year, *c.CalendarMonth, *c.CalendarIndex).Format("2006-01-02") + "  " + name
		}
		head := out.String(fmt.Sprintf("%s (%d)", name, len(c.Items))).Bold()
		if hex := pick(c.Color); hex != "" {
			head = head.Foreground(out.Color(hex))
		}
		if _, err := fmt.Fprintln(out, head); err != nil {
			return err
		}

		for _, it := range c.Items {
			label := it.ID
			if t := strings.TrimSpace(titles[it.ID]); t != "" {
				label = t
			}
			line := "  - " + label
			if hex := pick(it.Color); hex != "" {
				line = "  " + out.String("●").Foreground(out.Color(hex)).String() + " " + label
			}
			if it.Priority != model.PriorityNone {
				line += " " + out.String(fmt.Sprintf("P%d", it.Priority)).Foreground(out.Color(it.Priority.Color())).String()
			}
			if _, err := fmt.Fprintln(out, line); err != nil {
				return err
			}
			for _, ln := range strings.Split(strings.TrimSpace(it.Memo), "\n") {
				if strings.TrimSpace(ln) == "" {
					continue
				}
				if _, err := fmt.Fprintln(out, out.String("      "+ln).Faint()); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
