// Package ics exports calendar boards as iCalendar data.
package ics

import (
	"fmt"
	"io"
	"strings"
	"time"

	"planboard/internal/board"
	"planboard/internal/model"

	"github.com/emersion/go-ical"
)

const productID = "-//planboard//NONSGML v1.0//EN"

// Export writes one all-day VEVENT per calendar entry. Entries without a slot are
// skipped. titles maps document ids to display titles for the event description.
func Export(w io.Writer, name string, year int, b model.Board, titles map[string]string, now time.Time) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Props.SetText(ical.PropVersion, "2.0")
	if strings.TrimSpace(name) != "" {
		cal.Props.SetText(ical.PropName, name)
	}

	for _, c := range b {
		if c.CalendarMonth == nil || c.CalendarIndex == nil {
			continue
		}
		day := board.SlotDate(year, *c.CalendarMonth, *c.CalendarIndex)

		ev := &ical.Component{
			Name:  ical.CompEvent,
			Props: make(ical.Props),
		}
		ev.Props.SetText(ical.PropUID, c.ID+"@planboard")
		ev.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
		ev.Props.SetDate(ical.PropDateTimeStart, day)
		ev.Props.SetDate(ical.PropDateTimeEnd, day.AddDate(0, 0, 1))
		ev.Props.SetText(ical.PropSummary, c.Name)
		if desc := describe(c.Items, titles); desc != "" {
			ev.Props.SetText(ical.PropDescription, desc)
		}
		if c.Color != nil {
			ev.Props.SetText(ical.PropColor, c.Color.Light)
		}
		cal.Children = append(cal.Children, ev)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	return nil
}

func describe(items []model.ItemRef, titles map[string]string) string {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		title := titles[it.ID]
		if title == "" {
			title = it.ID
		}
		lines = append(lines, "- "+title)
	}
	return strings.Join(lines, "\n")
}
