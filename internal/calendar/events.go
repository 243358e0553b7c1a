package calendar

import (
	"fmt"
	"sort"
	"time"

	"studydash/internal/model"
)

// MonthLayout is the "YYYY-MM" form used in query parameters and prefixes.
const MonthLayout = "2006-01"

var weekdays = []string{"S", "M", "T", "W", "T", "F", "S"}

// MonthPrefix returns the zero-padded "YYYY-MM" key of t's month.
func MonthPrefix(t time.Time) string {
	return t.Format(MonthLayout)
}

// ParseMonth parses "YYYY-MM" into the 1st of that month in loc.
func ParseMonth(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(MonthLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse month %q: %w", s, err)
	}
	return t, nil
}

// inMonth reports whether the ISO date string falls in anchor's month.
// Dates that do not parse as YYYY-MM-DD never match.
func inMonth(date string, anchor time.Time) bool {
	d, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return false
	}
	return d.Year() == anchor.Year() && d.Month() == anchor.Month()
}

// MonthEvents returns the events dated within anchor's month, in their
// original order. The date is parsed and compared by year and month, so a
// malformed string such as "2025-04-xx" is excluded even though it shares
// the "2025-04" prefix.
func MonthEvents(events []model.Event, anchor time.Time) []model.Event {
	out := make([]model.Event, 0)
	for _, ev := range events {
		if inMonth(ev.Date, anchor) {
			out = append(out, ev)
		}
	}
	return out
}

// EventsOn returns the events dated on day's calendar date.
func EventsOn(events []model.Event, day time.Time) []model.Event {
	key := model.FormatDate(day)
	var out []model.Event
	for _, ev := range events {
		if ev.Date == key {
			out = append(out, ev)
		}
	}
	return out
}

// AttachEvents fills Events on every in-month cell. Cells outside the month
// are left empty, matching what the month view lists.
func AttachEvents(cells []DayCell, events []model.Event) {
	byDate := make(map[string][]model.Event)
	for _, ev := range events {
		byDate[ev.Date] = append(byDate[ev.Date], ev)
	}
	for i := range cells {
		if !cells[i].IsCurrentMonth {
			continue
		}
		cells[i].Events = byDate[model.FormatDate(cells[i].Date)]
	}
}

// View is everything a month page needs: header, grid and event list.
type View struct {
	Month          string        `json:"month"`
	Title          string        `json:"title"`
	Prev           string        `json:"prev"`
	Next           string        `json:"next"`
	Selected       string        `json:"selected,omitempty"`
	Weekdays       []string      `json:"weekdays"`
	Cells          []DayCell     `json:"cells"`
	Events         []model.Event `json:"events"`
	SelectedEvents []model.Event `json:"selected_events,omitempty"`
}

// NewView builds the grid for anchor's month, attaches events and lists the
// month's events sorted by date (stable for equal dates). When selected is
// set the events on that day are listed too.
func NewView(anchor time.Time, selected *time.Time, today time.Time, events []model.Event) View {
	anchor = FirstOfMonth(anchor)

	monthEvents := MonthEvents(events, anchor)
	sort.SliceStable(monthEvents, func(i, j int) bool {
		return monthEvents[i].Date < monthEvents[j].Date
	})

	cells := BuildGrid(anchor, selected, today)
	AttachEvents(cells, monthEvents)

	v := View{
		Month:    MonthPrefix(anchor),
		Title:    fmt.Sprintf("%s %d", anchor.Month(), anchor.Year()),
		Prev:     MonthPrefix(PrevMonth(anchor)),
		Next:     MonthPrefix(NextMonth(anchor)),
		Weekdays: append([]string(nil), weekdays...),
		Cells:    cells,
		Events:   monthEvents,
	}
	if selected != nil {
		v.Selected = model.FormatDate(*selected)
		v.SelectedEvents = EventsOn(events, *selected)
	}
	return v
}
