// Package planner holds the dashboard's user actions: ticking tasks, adding
// tasks, stepping subject progress and renaming events. Each action is one
// read-modify-write of the store.
package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	appLog "studydash/internal/log"
	"studydash/internal/model"
	"studydash/internal/store"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// ProgressSteps are the deltas offered next to each subject.
var ProgressSteps = []int{-5, 5, 10}

// Service applies user actions to the store.
type Service struct {
	store *store.Store
	loc   *time.Location

	// Now is the clock used for "today"; tests replace it.
	Now func() time.Time
	// NewID generates task ids.
	NewID func() string
}

// NewService returns a Service whose "today" is evaluated in loc
// (time.Local when nil).
func NewService(st *store.Store, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		store: st,
		loc:   loc,
		Now:   time.Now,
		NewID: uuid.NewString,
	}
}

// Store exposes the underlying store for read-only callers.
func (s *Service) Store() *store.Store {
	return s.store
}

// Location is the timezone that decides what "today" is.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Today returns midnight of the current date in the service location.
func (s *Service) Today() time.Time {
	now := s.Now().In(s.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
}

// Record returns the full record.
func (s *Service) Record(ctx context.Context) model.UserRecord {
	return s.store.Load(ctx)
}

// SetTaskCompleted sets the completed flag of task id.
func (s *Service) SetTaskCompleted(ctx context.Context, id string, completed bool) (model.Task, error) {
	var out model.Task
	_, err := s.store.Update(ctx, func(rec *model.UserRecord) (bool, error) {
		i := rec.FindTask(id)
		if i < 0 {
			return false, fmt.Errorf("task %q: %w", id, ErrNotFound)
		}
		rec.Tasks[i].Completed = completed
		out = rec.Tasks[i]
		return true, nil
	})
	return out, err
}

// ToggleTask flips the completed flag of task id.
func (s *Service) ToggleTask(ctx context.Context, id string) (model.Task, error) {
	var out model.Task
	_, err := s.store.Update(ctx, func(rec *model.UserRecord) (bool, error) {
		i := rec.FindTask(id)
		if i < 0 {
			return false, fmt.Errorf("task %q: %w", id, ErrNotFound)
		}
		rec.Tasks[i].Completed = !rec.Tasks[i].Completed
		out = rec.Tasks[i]
		return true, nil
	})
	return out, err
}

// AddTask appends an incomplete task dated today with a fresh id.
func (s *Service) AddTask(ctx context.Context, text string) (model.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Task{}, fmt.Errorf("task text is empty: %w", ErrInvalidInput)
	}

	task := model.Task{
		Text:      text,
		Completed: false,
		Date:      model.FormatDate(s.Today()),
	}
	_, err := s.store.Update(ctx, func(rec *model.UserRecord) (bool, error) {
		task.ID = s.uniqueID(func(id string) bool { return rec.FindTask(id) >= 0 })
		if err := s.store.Validate(task); err != nil {
			return false, err
		}
		rec.Tasks = append(rec.Tasks, task)
		return true, nil
	})
	if err != nil {
		return model.Task{}, err
	}
	appLog.Info("task added", "id", task.ID, "date", task.Date)
	return task, nil
}

func (s *Service) uniqueID(taken func(string) bool) string {
	for {
		id := s.NewID()
		if id != "" && !taken(id) {
			return id
		}
	}
}

// StepSubjectProgress moves subject id by delta (one of ProgressSteps) and
// clamps the result to [0,100].
func (s *Service) StepSubjectProgress(ctx context.Context, id string, delta int) (model.Subject, error) {
	if !validStep(delta) {
		return model.Subject{}, fmt.Errorf("progress step %d not in %v: %w", delta, ProgressSteps, ErrInvalidInput)
	}

	var out model.Subject
	_, err := s.store.Update(ctx, func(rec *model.UserRecord) (bool, error) {
		i := rec.FindSubject(id)
		if i < 0 {
			return false, fmt.Errorf("subject %q: %w", id, ErrNotFound)
		}
		rec.Subjects[i].Progress = model.ClampProgress(rec.Subjects[i].Progress + delta)
		out = rec.Subjects[i]
		return true, nil
	})
	return out, err
}

func validStep(delta int) bool {
	for _, d := range ProgressSteps {
		if d == delta {
			return true
		}
	}
	return false
}

// SetSubjectProgress sets subject id to progress clamped to [0,100].
func (s *Service) SetSubjectProgress(ctx context.Context, id string, progress int) (model.Subject, error) {
	var out model.Subject
	_, err := s.store.Update(ctx, func(rec *model.UserRecord) (bool, error) {
		i := rec.FindSubject(id)
		if i < 0 {
			return false, fmt.Errorf("subject %q: %w", id, ErrNotFound)
		}
		rec.Subjects[i].Progress = model.ClampProgress(progress)
		out = rec.Subjects[i]
		return true, nil
	})
	return out, err
}

// RenameEvent replaces the title of event id.
func (s *Service) RenameEvent(ctx context.Context, id, title string) (model.Event, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Event{}, fmt.Errorf("event title is empty: %w", ErrInvalidInput)
	}

	var out model.Event
	_, err := s.store.Update(ctx, func(rec *model.UserRecord) (bool, error) {
		i := rec.FindEvent(id)
		if i < 0 {
			return false, fmt.Errorf("event %q: %w", id, ErrNotFound)
		}
		rec.Events[i].Title = title
		out = rec.Events[i]
		return true, nil
	})
	return out, err
}

// SetAvatar replaces the avatar reference.
func (s *Service) SetAvatar(ctx context.Context, ref string) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return fmt.Errorf("avatar reference is empty: %w", ErrInvalidInput)
	}
	return s.store.UpdateAvatar(ctx, ref)
}

// SetName replaces the display name.
func (s *Service) SetName(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("name is empty: %w", ErrInvalidInput)
	}
	return s.store.UpdateName(ctx, name)
}
