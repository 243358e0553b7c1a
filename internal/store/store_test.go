package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studydash/internal/config"
	"studydash/internal/model"
)

// countingBackend records writes and can be told to fail them.
type countingBackend struct {
	*MemoryBackend
	puts    int
	failPut error
	failGet error
}

func newCountingBackend() *countingBackend {
	return &countingBackend{MemoryBackend: NewMemoryBackend()}
}

func (c *countingBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if c.failGet != nil {
		return nil, false, c.failGet
	}
	return c.MemoryBackend.Get(ctx, key)
}

func (c *countingBackend) Put(ctx context.Context, key string, value []byte) error {
	if c.failPut != nil {
		return c.failPut
	}
	c.puts++
	return c.MemoryBackend.Put(ctx, key, value)
}

func TestLoadEmptySlotReturnsDefault(t *testing.T) {
	b := newCountingBackend()
	s := New(b)

	assert.Equal(t, model.Default(), s.Load(context.Background()))
	assert.Zero(t, b.puts, "default record must not be written back")
}

func TestLoadCorruptSlotReturnsDefault(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()
	require.NoError(t, b.Put(ctx, SlotKey, []byte(`{"name": "broken",`)))

	assert.Equal(t, model.Default(), New(b).Load(ctx))
}

func TestLoadReadErrorReturnsDefault(t *testing.T) {
	b := newCountingBackend()
	b.failGet = errors.New("io error")

	assert.Equal(t, model.Default(), New(b).Load(context.Background()))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryBackend())

	rec := s.Load(ctx)
	rec.Name = "Asha"
	rec.Tasks = append(rec.Tasks, model.Task{ID: "x1", Text: "Revise SQL joins", Date: "2025-04-14"})
	rec.Events[0].Title = "BCA Finals"
	require.NoError(t, s.Save(ctx, rec))

	assert.Equal(t, rec, s.Load(ctx))

	// Saving what was loaded is idempotent.
	require.NoError(t, s.Save(ctx, s.Load(ctx)))
	assert.Equal(t, rec, s.Load(ctx))
}

func TestSaveWriteFailureIsReported(t *testing.T) {
	b := newCountingBackend()
	b.failPut = errors.New("quota exceeded")
	s := New(b)

	err := s.Save(context.Background(), model.Default())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSaveFailed)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestSaveDoesNotValidate(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryBackend())

	rec := model.Default()
	rec.Tasks = append(rec.Tasks, model.Task{ID: "1", Text: "dup"})
	require.NoError(t, s.Save(ctx, rec))
	assert.Equal(t, rec, s.Load(ctx))
}

func TestValidate(t *testing.T) {
	s := New(NewMemoryBackend())

	assert.NoError(t, s.Validate(model.Task{ID: "x", Text: "Revise", Date: "2025-04-01"}))
	assert.NoError(t, s.Validate(model.Default()))
	assert.ErrorIs(t, s.Validate(model.Task{ID: "x"}), ErrInvalidRecord)
	assert.ErrorIs(t, s.Validate(model.Task{ID: "x", Text: "Revise", Date: "2025-4-1"}), ErrInvalidRecord)
	assert.ErrorIs(t, s.Validate(model.Event{Date: "2025-04-01"}), ErrInvalidRecord)

	dup := model.Default()
	dup.Tasks = append(dup.Tasks, model.Task{ID: "1", Text: "dup"})
	err := s.Validate(dup)
	assert.ErrorIs(t, err, ErrInvalidRecord)
	assert.Contains(t, err.Error(), "tasks")
}

func TestStoredNonConformingRowDoesNotBlockUpdates(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()
	rec := model.Default()
	rec.Tasks[0].Date = "2025-4-11"
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	require.NoError(t, b.Put(ctx, SlotKey, data))
	s := New(b)

	require.NoError(t, s.UpdateSubjectProgress(ctx, "1", 80))
	require.NoError(t, s.UpdateAvatar(ctx, "/avatars/me.png"))
	require.NoError(t, s.Save(ctx, s.Load(ctx)))

	got := s.Load(ctx)
	assert.Equal(t, 80, got.Subjects[0].Progress)
	assert.Equal(t, "/avatars/me.png", got.AvatarRef)
	assert.Equal(t, "2025-4-11", got.Tasks[0].Date)
}

func TestSaveClampsProgress(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryBackend())

	rec := model.Default()
	rec.Subjects[0].Progress = 140
	rec.Subjects[1].Progress = -3
	require.NoError(t, s.Save(ctx, rec))

	got := s.Load(ctx)
	assert.Equal(t, 100, got.Subjects[0].Progress)
	assert.Equal(t, 0, got.Subjects[1].Progress)
	assert.Equal(t, 140, rec.Subjects[0].Progress, "caller's record is not mutated")
}

func TestUpdateSubjectProgress(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryBackend())

	require.NoError(t, s.UpdateSubjectProgress(ctx, "2", 65))
	assert.Equal(t, 65, s.Load(ctx).Subjects[1].Progress)

	require.NoError(t, s.UpdateSubjectProgress(ctx, "2", 250))
	assert.Equal(t, 100, s.Load(ctx).Subjects[1].Progress)
}

func TestUpdateUnknownSubjectIsNoop(t *testing.T) {
	ctx := context.Background()
	b := newCountingBackend()
	s := New(b)
	require.NoError(t, s.Save(ctx, model.Default()))
	before := s.Load(ctx)
	puts := b.puts

	require.NoError(t, s.UpdateSubjectProgress(ctx, "missing", 10))

	assert.Equal(t, puts, b.puts)
	assert.Equal(t, before, s.Load(ctx))
}

func TestCollectionUpdates(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryBackend())

	tasks := []model.Task{{ID: "a", Text: "Only task", Date: "2025-04-20"}}
	require.NoError(t, s.UpdateTasks(ctx, tasks))
	events := []model.Event{{ID: "e", Date: "2025-05-01", Title: "Holiday"}}
	require.NoError(t, s.UpdateEvents(ctx, events))
	require.NoError(t, s.UpdateAvatar(ctx, "/avatars/me.png"))
	require.NoError(t, s.UpdateName(ctx, "Asha"))

	got := s.Load(ctx)
	assert.Equal(t, tasks, got.Tasks)
	assert.Equal(t, events, got.Events)
	assert.Equal(t, "/avatars/me.png", got.AvatarRef)
	assert.Equal(t, "Asha", got.Name)
	assert.Equal(t, model.Default().Subjects, got.Subjects)
}

func TestBackends(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	fileBackend, err := Open(ctx, config.StorageConfig{Backend: "file", Path: filepath.Join(dir, "slots")})
	require.NoError(t, err)
	sqliteBackend, err := Open(ctx, config.StorageConfig{Backend: "sqlite", Path: filepath.Join(dir, "db", "studydash.db")})
	require.NoError(t, err)
	memBackend, err := Open(ctx, config.StorageConfig{Backend: "memory"})
	require.NoError(t, err)

	for name, b := range map[string]Backend{"file": fileBackend, "sqlite": sqliteBackend, "memory": memBackend} {
		t.Run(name, func(t *testing.T) {
			t.Cleanup(func() { _ = b.Close() })

			_, ok, err := b.Get(ctx, SlotKey)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, b.Put(ctx, SlotKey, []byte(`{"name":"a"}`)))
			require.NoError(t, b.Put(ctx, SlotKey, []byte(`{"name":"b"}`)))

			got, ok, err := b.Get(ctx, SlotKey)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.JSONEq(t, `{"name":"b"}`, string(got))

			s := New(b)
			rec := model.Default()
			rec.Subjects[3].Progress = 95
			require.NoError(t, s.Save(ctx, rec))
			assert.Equal(t, rec, s.Load(ctx))
		})
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	cfg := config.Config{Storage: config.StorageConfig{Backend: "sqllite", Path: t.TempDir()}}
	cfg.Normalize()

	_, err := Open(context.Background(), cfg.Storage)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown storage backend "sqllite"`)
}

func TestFileBackendKeyEscaping(t *testing.T) {
	b, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(b.dir, "userData.json"), b.pathFor("userData"))
	assert.Equal(t, b.dir, filepath.Dir(b.pathFor("../escape")))
}
