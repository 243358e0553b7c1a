// Package calendar builds the fixed 6x7 month grid shown by the dashboard
// and associates stored events with its days.
package calendar

import (
	"time"

	"studydash/internal/model"
)

// GridCells is the fixed size of a month grid: six full weeks.
const GridCells = 42

// DayCell is one slot of the month grid.
type DayCell struct {
	Date           time.Time     `json:"date"`
	Day            int           `json:"day"`
	IsCurrentMonth bool          `json:"is_current_month"`
	IsToday        bool          `json:"is_today"`
	IsSelected     bool          `json:"is_selected"`
	Events         []model.Event `json:"events,omitempty"`
}

// FirstOfMonth returns midnight on the 1st of t's month, in t's location.
func FirstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// PrevMonth steps back one month, normalised to the 1st so day overflow
// ("March 31" -> "February 31") cannot happen.
func PrevMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()-1, 1, 0, 0, 0, 0, t.Location())
}

// NextMonth steps forward one month, normalised to the 1st.
func NextMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, t.Location())
}

// daysIn returns the number of days in month m of year y.
func daysIn(y int, m time.Month, loc *time.Location) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(y, m+1, 0, 0, 0, 0, 0, loc).Day()
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// BuildGrid returns exactly GridCells cells for anchor's month: the
// trailing days of the previous month (Sunday-first weeks), every day of
// the month, then leading days of the next month.
//
// Only in-month cells carry IsToday / IsSelected. today and selected are
// compared by calendar date in their own locations.
func BuildGrid(anchor time.Time, selected *time.Time, today time.Time) []DayCell {
	loc := anchor.Location()
	year, month := anchor.Year(), anchor.Month()
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)

	cells := make([]DayCell, 0, GridCells)

	lead := int(first.Weekday())
	for i := lead; i > 0; i-- {
		d := first.AddDate(0, 0, -i)
		cells = append(cells, DayCell{Date: d, Day: d.Day()})
	}

	n := daysIn(year, month, loc)
	for day := 1; day <= n; day++ {
		d := time.Date(year, month, day, 0, 0, 0, 0, loc)
		cell := DayCell{
			Date:           d,
			Day:            day,
			IsCurrentMonth: true,
			IsToday:        sameDay(d, today),
		}
		if selected != nil {
			cell.IsSelected = sameDay(d, *selected)
		}
		cells = append(cells, cell)
	}

	next := time.Date(year, month+1, 1, 0, 0, 0, 0, loc)
	for i := 0; len(cells) < GridCells; i++ {
		d := next.AddDate(0, 0, i)
		cells = append(cells, DayCell{Date: d, Day: d.Day()})
	}

	return cells
}
