package board

import (
	"fmt"

	"planboard/internal/model"
)

// ValidationError describes the first structural problem found in a board.
type ValidationError struct {
	Path   string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// Validate checks container id uniqueness, placement uniqueness and attribute ranges.
func Validate(b model.Board) error {
	containers := map[string]bool{}
	placed := map[string]string{}
	for ci, c := range b {
		path := fmt.Sprintf("[%d]", ci)
		if c.ID == "" {
			return ValidationError{Path: path, Reason: "missing _id"}
		}
		if containers[c.ID] {
			return ValidationError{Path: path, Reason: fmt.Sprintf("duplicate container id %q", c.ID)}
		}
		containers[c.ID] = true
		if (c.CalendarIndex == nil) != (c.CalendarMonth == nil) {
			return ValidationError{Path: path, Reason: "calendarIndex and calendarMonth must be set together"}
		}
		if c.CalendarMonth != nil && (*c.CalendarMonth < 1 || *c.CalendarMonth > 12) {
			return ValidationError{Path: path, Reason: fmt.Sprintf("calendarMonth out of range: %d", *c.CalendarMonth)}
		}
		for ii, it := range c.Items {
			ipath := fmt.Sprintf("%s.content[%d]", path, ii)
			if it.ID == "" {
				return ValidationError{Path: ipath, Reason: "missing _id"}
			}
			if prev, dup := placed[it.ID]; dup {
				return ValidationError{Path: ipath, Reason: fmt.Sprintf("item %q already placed in %q", it.ID, prev)}
			}
			placed[it.ID] = c.ID
			if it.Priority != model.PriorityNone && !it.Priority.Valid() {
				return ValidationError{Path: ipath, Reason: fmt.Sprintf("priority out of range: %d", it.Priority)}
			}
		}
	}
	return nil
}
