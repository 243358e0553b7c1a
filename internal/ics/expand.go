package ics

import (
	"errors"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	appLog "studydash/internal/log"
	"studydash/internal/model"
	"studydash/internal/planner"
)

const (
	defaultMaxOccurrencesPerEvent = 1000
	// maxAllDaySpan caps how many day entries one all-day occurrence emits.
	maxAllDaySpan = 31
)

// ExpandConfig controls recurrence expansion.
type ExpandConfig struct {
	// Location decides which calendar day a timed occurrence lands on.
	// If nil, time.Local is used.
	Location *time.Location

	// RangeStart / RangeEnd bound the occurrences considered.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent caps expansion of a single RRULE. Zero means
	// defaultMaxOccurrencesPerEvent.
	MaxOccurrencesPerEvent int
}

// ExpandResult holds dashboard events plus the UIDs that hit the cap.
type ExpandResult struct {
	Events          []model.Event
	TruncatedEvents []string
}

// occurrence is a single concrete instance before it is turned into one or
// more dated dashboard events.
type occurrence struct {
	ev    ParsedEvent
	start time.Time
	end   time.Time
}

// ExpandEvents expands parsed VEVENTs into dated dashboard events within
// the configured window. It handles single events, RRULE recurrences,
// EXDATE removals and RECURRENCE-ID overrides. All-day occurrences spanning
// several days yield one event per day.
//
// Event ids are "ics:<source>:<uid>:<YYYY-MM-DD>" and the result is sorted
// by date then id.
func ExpandEvents(events []ParsedEvent, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	baseByUID := make(map[string][]ParsedEvent)
	overridesByUID := make(map[string][]ParsedEvent)
	for _, ev := range events {
		if ev.IsOverride && ev.Recurrence != nil {
			overridesByUID[ev.UID] = append(overridesByUID[ev.UID], ev)
		} else {
			baseByUID[ev.UID] = append(baseByUID[ev.UID], ev)
		}
	}

	seen := make(map[string]bool)
	out := make([]model.Event, 0)

	for uid, bases := range baseByUID {
		truncated := false
		for _, ev := range bases {
			var occs []occurrence
			if ev.RawRRule == "" {
				occs = expandSingle(ev, overridesByUID[uid], cfg)
			} else {
				var hitCap bool
				occs, hitCap = expandRecurring(ev, overridesByUID[uid], cfg)
				truncated = truncated || hitCap
			}
			for _, o := range occs {
				for _, e := range toEvents(o, cfg.Location) {
					if seen[e.ID] {
						continue
					}
					seen[e.ID] = true
					out = append(out, e)
				}
			}
		}
		if truncated {
			result.TruncatedEvents = append(result.TruncatedEvents, uid)
			appLog.Warn("expand: truncated occurrences for UID due to cap", "uid", uid, "cap", cfg.MaxOccurrencesPerEvent)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].ID < out[j].ID
	})
	sort.Strings(result.TruncatedEvents)
	result.Events = out
	return result, nil
}

func expandSingle(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) []occurrence {
	start, end := ev.Start, ev.End
	if o, ok := findOverrideForStart(overrides, start); ok {
		ev, start, end = o, o.Start, o.End
	}
	if !overlaps(start, end, cfg.RangeStart, cfg.RangeEnd) {
		return nil
	}
	return []occurrence{{ev: ev, start: start, end: end}}
}

func expandRecurring(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]occurrence, bool) {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("expand: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	loc := ev.Start.Location()
	times := set.Between(cfg.RangeStart.In(loc), cfg.RangeEnd.In(loc), true)

	hitCap := false
	if len(times) > cfg.MaxOccurrencesPerEvent {
		times = times[:cfg.MaxOccurrencesPerEvent]
		hitCap = true
	}

	dur := ev.End.Sub(ev.Start)
	out := make([]occurrence, 0, len(times))
	for _, start := range times {
		end := start.Add(dur)
		if ev.AllDay {
			start = dateOnly(start)
			end = start.AddDate(0, 0, spanDays(ev.Start, ev.End))
		}

		occ := occurrence{ev: ev, start: start, end: end}
		if o, ok := findOverrideForStart(overrides, start); ok {
			occ = occurrence{ev: o, start: o.Start, end: o.End}
		}
		out = append(out, occ)
	}
	return out, hitCap
}

// findOverrideForStart finds the override whose RECURRENCE-ID equals start.
func findOverrideForStart(overrides []ParsedEvent, start time.Time) (ParsedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence != nil && ov.Recurrence.Equal(start) {
			return ov, true
		}
	}
	return ParsedEvent{}, false
}

func spanDays(start, end time.Time) int {
	n := int(dateOnly(end).Sub(dateOnly(start)).Hours()+12) / 24
	if n < 1 {
		return 1
	}
	return n
}

// toEvents converts one occurrence into dashboard events. Timed events
// land on their local start day with an "HH:MM " title prefix.
func toEvents(o occurrence, loc *time.Location) []model.Event {
	title := o.ev.Summary
	if title == "" {
		title = "(untitled)"
	}

	if !o.ev.AllDay {
		start := o.start.In(loc)
		return []model.Event{newEvent(o.ev, start, start.Format("15:04")+" "+title)}
	}

	days := spanDays(o.start, o.end)
	if days > maxAllDaySpan {
		days = maxAllDaySpan
	}
	out := make([]model.Event, 0, days)
	for i := 0; i < days; i++ {
		out = append(out, newEvent(o.ev, o.start.AddDate(0, 0, i), title))
	}
	return out
}

func newEvent(ev ParsedEvent, day time.Time, title string) model.Event {
	date := model.FormatDate(day)
	return model.Event{
		ID:    planner.SourcePrefix(ev.Source.ID) + ev.UID + ":" + date,
		Date:  date,
		Title: title,
	}
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aEnd.Before(bStart) && !bEnd.Before(aStart)
}
