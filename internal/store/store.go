// Package store persists the single UserRecord in a key-value slot.
//
// Every update is a full read-modify-write of the slot. A mutex serialises
// those cycles inside one process; separate processes pointed at the same
// slot are last-writer-wins.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	appLog "studydash/internal/log"
	"studydash/internal/model"
)

// SlotKey is the fixed name of the persisted record.
const SlotKey = "userData"

var (
	// ErrSaveFailed wraps any failure to write the slot. Callers should
	// surface it as "changes could not be saved".
	ErrSaveFailed = errors.New("changes could not be saved")
	// ErrInvalidRecord is returned by Validate for rows that break the
	// model's field rules.
	ErrInvalidRecord = errors.New("invalid record")
)

// Store is the single source of truth for the UserRecord.
type Store struct {
	backend  Backend
	key      string
	validate *validator.Validate

	mu sync.Mutex
}

// New returns a Store over backend using SlotKey.
func New(backend Backend) *Store {
	return NewWithKey(backend, SlotKey)
}

// NewWithKey is New with an explicit slot name.
func NewWithKey(backend Backend, key string) *Store {
	return &Store{
		backend:  backend,
		key:      key,
		validate: newValidator(),
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	// Use JSON tag names for errors instead of Go struct names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks v (a record or a single row) against the model's field
// rules. Save does not call it; callers check the rows they create.
func (s *Store) Validate(v any) error {
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return nil
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// Load returns the persisted record, or model.Default() when the slot is
// empty, unreadable or does not decode. It never fails.
func (s *Store) Load(ctx context.Context) model.UserRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

func (s *Store) loadLocked(ctx context.Context) model.UserRecord {
	data, ok, err := s.backend.Get(ctx, s.key)
	if err != nil {
		appLog.Warn("store: slot read failed; using default record", "key", s.key, "err", err)
		return model.Default()
	}
	if !ok {
		return model.Default()
	}

	var rec model.UserRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		appLog.Warn("store: slot does not decode; using default record", "key", s.key, "err", err)
		return model.Default()
	}
	if err := s.validate.Struct(rec); err != nil {
		appLog.Warn("store: stored record has invalid rows", "key", s.key, "err", err)
	}
	return rec
}

// Save replaces the slot with rec. Subject progress is clamped to [0,100] on
// the way out; nothing else is checked.
func (s *Store) Save(ctx context.Context, rec model.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx, rec)
}

func (s *Store) saveLocked(ctx context.Context, rec model.UserRecord) error {
	rec = rec.Clone()
	for i := range rec.Subjects {
		rec.Subjects[i].Progress = model.ClampProgress(rec.Subjects[i].Progress)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrSaveFailed, err)
	}
	if err := s.backend.Put(ctx, s.key, data); err != nil {
		appLog.Error("store: slot write failed", err, "key", s.key)
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	appLog.Debug("store: record saved", "key", s.key, "bytes", len(data))
	return nil
}

// Update loads the record, applies fn and saves the result. If fn returns
// changed=false nothing is written. An error from fn aborts the cycle.
func (s *Store) Update(ctx context.Context, fn func(rec *model.UserRecord) (changed bool, err error)) (model.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.loadLocked(ctx)
	changed, err := fn(&rec)
	if err != nil {
		return rec, err
	}
	if !changed {
		return rec, nil
	}
	if err := s.saveLocked(ctx, rec); err != nil {
		return rec, err
	}
	return rec, nil
}

// UpdateTasks replaces the task collection.
func (s *Store) UpdateTasks(ctx context.Context, tasks []model.Task) error {
	_, err := s.Update(ctx, func(rec *model.UserRecord) (bool, error) {
		rec.Tasks = slices.Clone(tasks)
		return true, nil
	})
	return err
}

// UpdateEvents replaces the event collection.
func (s *Store) UpdateEvents(ctx context.Context, events []model.Event) error {
	_, err := s.Update(ctx, func(rec *model.UserRecord) (bool, error) {
		rec.Events = slices.Clone(events)
		return true, nil
	})
	return err
}

// UpdateAvatar replaces the avatar reference.
func (s *Store) UpdateAvatar(ctx context.Context, ref string) error {
	_, err := s.Update(ctx, func(rec *model.UserRecord) (bool, error) {
		rec.AvatarRef = ref
		return true, nil
	})
	return err
}

// UpdateName replaces the display name.
func (s *Store) UpdateName(ctx context.Context, name string) error {
	_, err := s.Update(ctx, func(rec *model.UserRecord) (bool, error) {
		rec.Name = name
		return true, nil
	})
	return err
}

// UpdateSubjectProgress sets the progress of subject id, clamped to
// [0,100]. An unknown id is a no-op: nothing is written and no error is
// returned.
func (s *Store) UpdateSubjectProgress(ctx context.Context, id string, progress int) error {
	_, err := s.Update(ctx, func(rec *model.UserRecord) (bool, error) {
		i := rec.FindSubject(id)
		if i < 0 {
			appLog.Debug("store: subject not found; progress update skipped", "id", id)
			return false, nil
		}
		rec.Subjects[i].Progress = model.ClampProgress(progress)
		return true, nil
	})
	return err
}
