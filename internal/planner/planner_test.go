package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studydash/internal/model"
	"studydash/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc := NewService(store.New(store.NewMemoryBackend()), time.UTC)
	svc.Now = func() time.Time { return time.Date(2025, time.April, 23, 22, 15, 0, 0, time.UTC) }
	return svc
}

func TestStepSubjectProgressClamps(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		start int
		delta int
		want  int
	}{
		{name: "near top plus ten", start: 98, delta: 10, want: 100},
		{name: "near bottom minus five", start: 3, delta: -5, want: 0},
		{name: "middle plus five", start: 60, delta: 5, want: 65},
		{name: "at top plus five", start: 100, delta: 5, want: 100},
		{name: "at zero minus five", start: 0, delta: -5, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t)
			require.NoError(t, svc.Store().UpdateSubjectProgress(ctx, "1", tt.start))

			sub, err := svc.StepSubjectProgress(ctx, "1", tt.delta)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sub.Progress)
			assert.Equal(t, tt.want, svc.Record(ctx).Subjects[0].Progress)
		})
	}
}

func TestStepSubjectProgressErrors(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.StepSubjectProgress(ctx, "1", 7)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.StepSubjectProgress(ctx, "nope", 5)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, model.Default(), svc.Record(ctx))
}

func TestSetSubjectProgress(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	sub, err := svc.SetSubjectProgress(ctx, "3", 120)
	require.NoError(t, err)
	assert.Equal(t, 100, sub.Progress)
	assert.Equal(t, "Database", sub.Name)

	_, err = svc.SetSubjectProgress(ctx, "9", 10)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddTask(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	before := len(svc.Record(ctx).Tasks)

	task, err := svc.AddTask(ctx, "  Read chapter 4  ")
	require.NoError(t, err)

	rec := svc.Record(ctx)
	require.Len(t, rec.Tasks, before+1)
	assert.Equal(t, task, rec.Tasks[before])
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "Read chapter 4", task.Text)
	assert.False(t, task.Completed)
	assert.Equal(t, "2025-04-23", task.Date)

	other, err := svc.AddTask(ctx, "Another")
	require.NoError(t, err)
	assert.NotEqual(t, task.ID, other.ID)
}

func TestAddTaskUsesServiceTimezone(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.New(store.NewMemoryBackend()), time.FixedZone("KST", 9*3600))
	svc.Now = func() time.Time { return time.Date(2025, time.April, 23, 22, 15, 0, 0, time.UTC) }

	task, err := svc.AddTask(ctx, "late night")
	require.NoError(t, err)
	assert.Equal(t, "2025-04-24", task.Date)
}

func TestAddTaskRegeneratesCollidingID(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	ids := []string{"1", "", "fresh"}
	n := 0
	svc.NewID = func() string {
		id := ids[n]
		n++
		return id
	}

	task, err := svc.AddTask(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "fresh", task.ID)
}

func TestAddTaskRejectsBlank(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.AddTask(ctx, "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Len(t, svc.Record(ctx).Tasks, 3)
}

func TestToggleAndSetTask(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	task, err := svc.ToggleTask(ctx, "2")
	require.NoError(t, err)
	assert.True(t, task.Completed)
	assert.True(t, svc.Record(ctx).Tasks[1].Completed)

	task, err = svc.ToggleTask(ctx, "2")
	require.NoError(t, err)
	assert.False(t, task.Completed)

	task, err = svc.SetTaskCompleted(ctx, "3", true)
	require.NoError(t, err)
	assert.True(t, task.Completed)

	_, err = svc.ToggleTask(ctx, "404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRenameEvent(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	ev, err := svc.RenameEvent(ctx, "1", "BCA Final Exams")
	require.NoError(t, err)
	assert.Equal(t, "2025-04-23", ev.Date)
	assert.Equal(t, "BCA Final Exams", svc.Record(ctx).Events[0].Title)

	_, err = svc.RenameEvent(ctx, "1", " ")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.RenameEvent(ctx, "77", "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

// importOnSecondRead lands a feed import in the slot right before the
// second read, as a sync that got the lock between two store cycles would.
type importOnSecondRead struct {
	*store.MemoryBackend
	t     *testing.T
	reads int
}

func (b *importOnSecondRead) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b.reads++
	if b.reads == 2 {
		rec := model.Default()
		if data, ok, err := b.MemoryBackend.Get(ctx, key); err == nil && ok {
			require.NoError(b.t, json.Unmarshal(data, &rec))
		}
		rec.Events, _ = MergeEvents(rec.Events, []model.Event{
			{ID: SourcePrefix("uni") + "quiz:2025-04-28", Date: "2025-04-28", Title: "Quiz"},
		}, "uni")
		data, err := json.Marshal(rec)
		require.NoError(b.t, err)
		require.NoError(b.t, b.MemoryBackend.Put(ctx, key, data))
	}
	return b.MemoryBackend.Get(ctx, key)
}

func TestRenameEventKeepsImportedEvents(t *testing.T) {
	ctx := context.Background()
	b := &importOnSecondRead{MemoryBackend: store.NewMemoryBackend(), t: t}
	svc := NewService(store.New(b), time.UTC)

	_, err := svc.RenameEvent(ctx, "1", "BCA Final Exams")
	require.NoError(t, err)

	events := svc.Record(ctx).Events
	require.Len(t, events, 3)
	assert.Equal(t, "BCA Final Exams", events[0].Title)
	assert.Equal(t, "Quiz", events[2].Title)
}

func TestSetSubjectProgressSingleCycle(t *testing.T) {
	ctx := context.Background()
	b := &importOnSecondRead{MemoryBackend: store.NewMemoryBackend(), t: t}
	svc := NewService(store.New(b), time.UTC)

	sub, err := svc.SetSubjectProgress(ctx, "2", 40)
	require.NoError(t, err)
	assert.Equal(t, 40, sub.Progress)
	assert.Equal(t, 1, b.reads)

	rec := svc.Record(ctx)
	assert.Equal(t, 40, rec.Subjects[1].Progress)
	assert.Len(t, rec.Events, 3)
}

func TestProfileUpdates(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	require.NoError(t, svc.SetAvatar(ctx, "  /avatars/me.png\t"))
	require.NoError(t, svc.SetName(ctx, "Asha"))
	assert.ErrorIs(t, svc.SetAvatar(ctx, ""), ErrInvalidInput)
	assert.ErrorIs(t, svc.SetName(ctx, " "), ErrInvalidInput)

	rec := svc.Record(ctx)
	assert.Equal(t, "/avatars/me.png", rec.AvatarRef)
	assert.Equal(t, "Asha", rec.Name)
}

func TestComputeStats(t *testing.T) {
	rec := model.Default()
	rec.Tasks[0].Completed = true

	st := ComputeStats(rec)
	assert.Equal(t, 1, st.CompletedTasks)
	assert.Equal(t, 3, st.TotalTasks)
	assert.Equal(t, 2, st.PendingTasks)
	assert.InDelta(t, 33.33, st.CompletionRate, 0.01)
	assert.InDelta(t, 67.5, st.AverageProgress, 0.001)
	assert.Equal(t, []Slice{
		{Name: "Completed", Value: 1, Color: ColorCompleted},
		{Name: "Pending", Value: 2, Color: ColorPending},
	}, st.TaskCompletion)
	require.Len(t, st.Subjects, 4)
	assert.Equal(t, SubjectProgress{Name: "Mathematics", Progress: 90, Color: "#8B5CF6"}, st.Subjects[3])

	empty := ComputeStats(model.UserRecord{})
	assert.Zero(t, empty.CompletionRate)
	assert.Zero(t, empty.AverageProgress)
	assert.Empty(t, empty.Subjects)
}

func TestMergeEvents(t *testing.T) {
	existing := []model.Event{
		{ID: "1", Date: "2025-04-23", Title: "BCA Exams"},
		{ID: "ics:uni:a:2025-04-10", Date: "2025-04-10", Title: "Lecture"},
		{ID: "ics:uni:b:2025-04-11", Date: "2025-04-11", Title: "Gone"},
		{ID: "ics:club:c:2025-04-12", Date: "2025-04-12", Title: "Other feed"},
	}
	imported := []model.Event{
		{ID: "ics:uni:a:2025-04-10", Date: "2025-04-10", Title: "Lecture (room 4)"},
		{ID: "ics:uni:d:2025-04-30", Date: "2025-04-30", Title: "Deadline"},
	}

	got, res := MergeEvents(existing, imported, "uni")
	assert.Equal(t, MergeResult{Added: 1, Updated: 1, Removed: 1}, res)
	assert.Equal(t, []model.Event{
		{ID: "1", Date: "2025-04-23", Title: "BCA Exams"},
		{ID: "ics:uni:a:2025-04-10", Date: "2025-04-10", Title: "Lecture (room 4)"},
		{ID: "ics:club:c:2025-04-12", Date: "2025-04-12", Title: "Other feed"},
		{ID: "ics:uni:d:2025-04-30", Date: "2025-04-30", Title: "Deadline"},
	}, got)

	again, res := MergeEvents(got, imported, "uni")
	assert.Equal(t, MergeResult{}, res)
	assert.Equal(t, got, again)
}

func TestImportEvents(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	var imported []model.Event
	for i := 1; i <= 3; i++ {
		d := fmt.Sprintf("2025-04-0%d", i)
		imported = append(imported, model.Event{ID: SourcePrefix("uni") + "x:" + d, Date: d, Title: "Lab"})
	}

	res, err := svc.ImportEvents(ctx, "uni", imported)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Added)
	assert.Len(t, svc.Record(ctx).Events, 5)

	res, err = svc.ImportEvents(ctx, "uni", imported[:1])
	require.NoError(t, err)
	assert.Equal(t, 2, res.Removed)
	assert.Len(t, svc.Record(ctx).Events, 3)
}

func TestImportEventsSkipsInvalid(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	res, err := svc.ImportEvents(ctx, "uni", []model.Event{
		{ID: SourcePrefix("uni") + "a:2025-04-02", Date: "2025-04-02", Title: "Lab"},
		{ID: SourcePrefix("uni") + "b", Title: "No date"},
		{Date: "2025-04-03", Title: "No id"},
	})
	require.NoError(t, err)
	assert.Equal(t, MergeResult{Added: 1}, res)
	assert.Len(t, svc.Record(ctx).Events, 3)
}

func TestActionsWorkAroundStoredInvalidRows(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	rec := model.Default()
	rec.Tasks[0].Date = "2025-4-11"
	rec.Tasks[1].Text = ""
	require.NoError(t, svc.Store().Save(ctx, rec))

	sub, err := svc.SetSubjectProgress(ctx, "1", 80)
	require.NoError(t, err)
	assert.Equal(t, 80, sub.Progress)

	_, err = svc.ToggleTask(ctx, "3")
	require.NoError(t, err)
	_, err = svc.AddTask(ctx, "Revise")
	require.NoError(t, err)

	got := svc.Record(ctx)
	assert.Equal(t, "2025-4-11", got.Tasks[0].Date)
	assert.True(t, got.Tasks[2].Completed)
	assert.Len(t, got.Tasks, 4)
}
