package model

import (
	"fmt"
	"slices"
	"time"
)

// DateLayout is the ISO calendar date form used for task and event dates.
const DateLayout = "2006-01-02"

// UserRecord is the single persisted blob holding everything the dashboard
// shows. The JSON layout is what lives in the persistence slot.
type UserRecord struct {
	Name      string    `json:"name"`
	AvatarRef string    `json:"profilePhoto"`
	Tasks     []Task    `json:"tasks" validate:"unique=ID,dive"`
	Events    []Event   `json:"events" validate:"unique=ID,dive"`
	Subjects  []Subject `json:"subjects" validate:"unique=ID,dive"`
}

// Task is a to-do item. Date is the day it was created (YYYY-MM-DD).
type Task struct {
	ID        string `json:"id" validate:"required"`
	Text      string `json:"text" validate:"required"`
	Completed bool   `json:"completed"`
	Date      string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// Event is a titled calendar entry on a single day.
//
// Events imported from ICS feeds carry an id of the form
// "ics:<source>:<uid>:<date>" so a later sync can recognise them.
type Event struct {
	ID    string `json:"id" validate:"required"`
	Date  string `json:"date" validate:"required"`
	Title string `json:"title"`
}

// Subject tracks study progress as a percentage.
type Subject struct {
	ID       string `json:"id" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Progress int    `json:"progress" validate:"min=0,max=100"`
	Color    string `json:"color"`
}

// ClampProgress limits p to [0,100].
func ClampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// ParseDate parses an ISO date string as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders the calendar date of t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Clone returns a deep copy so callers can mutate collections freely.
func (r UserRecord) Clone() UserRecord {
	out := r
	out.Tasks = slices.Clone(r.Tasks)
	out.Events = slices.Clone(r.Events)
	out.Subjects = slices.Clone(r.Subjects)
	return out
}

// FindSubject returns the index of the subject with the given id, or -1.
func (r UserRecord) FindSubject(id string) int {
	for i, s := range r.Subjects {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// FindTask returns the index of the task with the given id, or -1.
func (r UserRecord) FindTask(id string) int {
	for i, t := range r.Tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// FindEvent returns the index of the event with the given id, or -1.
func (r UserRecord) FindEvent(id string) int {
	for i, e := range r.Events {
		if e.ID == id {
			return i
		}
	}
	return -1
}
