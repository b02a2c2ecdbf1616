package board

import (
	"time"

	"planboard/internal/model"
)

// GridCells is the number of day cells in a month grid (six weeks).
const GridCells = 42

// gridStart returns the Sunday on or before the first of month.
func gridStart(year, month int) time.Time {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, 0, -int(first.Weekday()))
}

// SlotDate maps a calendar entry's (month, index) pair to a date. month is 1-based
// and index is the zero-based cell of the month grid, which begins on the Sunday on
// or before the 1st. Cells before the 1st or past the end of the month land in the
// neighbouring months.
func SlotDate(year, month, index int) time.Time {
	return gridStart(year, month).AddDate(0, 0, index)
}

// SlotFor is the inverse of SlotDate for a date inside its own month.
func SlotFor(date time.Time) (month, index int) {
	y, m, d := date.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	return int(m), int(first.Weekday()) + d - 1
}

// EntriesOn returns the calendar entries whose cell falls on date, including cells
// that spill into a neighbouring month. Entries carry no year, so a January cell
// that lands in December matches the December of the preceding year, and the same
// for December cells landing in January.
func EntriesOn(b model.Board, date time.Time) []model.Container {
	y, m, d := date.Date()
	var out []model.Container
	for _, c := range b {
		if c.CalendarMonth == nil || c.CalendarIndex == nil {
			continue
		}
		for year := y - 1; year <= y+1; year++ {
			sy, sm, sd := SlotDate(year, *c.CalendarMonth, *c.CalendarIndex).Date()
			if sy == y && sm == m && sd == d {
				out = append(out, c)
				break
			}
		}
	}
	return out
}
