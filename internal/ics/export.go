package ics

import (
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "studydash/internal/log"
	"studydash/internal/model"
)

const productID = "-//studydash//Student Dashboard//EN"

// Export renders the record's events as all-day VEVENTs and its tasks as
// VTODOs. Entries whose date does not parse are skipped. stamp is used as
// DTSTAMP so output is reproducible.
func Export(rec model.UserRecord, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetName(rec.Name + " - studydash")

	for _, ev := range rec.Events {
		day, err := model.ParseDate(ev.Date, time.UTC)
		if err != nil {
			appLog.Debug("ics export: event skipped", "id", ev.ID, "date", ev.Date)
			continue
		}
		ve := cal.AddEvent("event-" + ev.ID + "@studydash")
		ve.SetDtStampTime(stamp)
		ve.SetSummary(ev.Title)
		ve.SetAllDayStartAt(day)
		ve.SetAllDayEndAt(day.AddDate(0, 0, 1))
	}

	for _, t := range rec.Tasks {
		todo := cal.AddTodo("task-" + t.ID + "@studydash")
		todo.SetDtStampTime(stamp)
		todo.SetSummary(t.Text)
		if day, err := model.ParseDate(t.Date, time.UTC); err == nil {
			todo.SetAllDayStartAt(day)
		}
		if t.Completed {
			todo.SetStatus(ical.ObjectStatusCompleted)
		} else {
			todo.SetStatus(ical.ObjectStatusNeedsAction)
		}
	}

	return cal.Serialize()
}
