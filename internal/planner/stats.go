package planner

import (
	"context"

	"studydash/internal/model"
)

// Chart colours used for the completed / pending slices.
const (
	ColorCompleted = "#10B981"
	ColorPending   = "#F87171"
)

// Slice is one named value of a chart series.
type Slice struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Color string `json:"color"`
}

// SubjectProgress is one bar of the subject progress chart.
type SubjectProgress struct {
	Name     string `json:"name"`
	Progress int    `json:"progress"`
	Color    string `json:"color"`
}

// Stats are the aggregate figures shown on the progress dashboard.
type Stats struct {
	CompletedTasks  int               `json:"completed_tasks"`
	TotalTasks      int               `json:"total_tasks"`
	PendingTasks    int               `json:"pending_tasks"`
	CompletionRate  float64           `json:"completion_rate"`
	AverageProgress float64           `json:"average_progress"`
	TaskCompletion  []Slice           `json:"task_completion"`
	Subjects        []SubjectProgress `json:"subjects"`
}

// ComputeStats derives dashboard figures from rec. CompletionRate is a
// percentage and is 0 when there are no tasks.
func ComputeStats(rec model.UserRecord) Stats {
	var st Stats
	st.TotalTasks = len(rec.Tasks)
	for _, t := range rec.Tasks {
		if t.Completed {
			st.CompletedTasks++
		}
	}
	st.PendingTasks = st.TotalTasks - st.CompletedTasks
	if st.TotalTasks > 0 {
		st.CompletionRate = float64(st.CompletedTasks) / float64(st.TotalTasks) * 100
	}

	st.TaskCompletion = []Slice{
		{Name: "Completed", Value: st.CompletedTasks, Color: ColorCompleted},
		{Name: "Pending", Value: st.PendingTasks, Color: ColorPending},
	}

	st.Subjects = make([]SubjectProgress, 0, len(rec.Subjects))
	total := 0
	for _, s := range rec.Subjects {
		st.Subjects = append(st.Subjects, SubjectProgress{Name: s.Name, Progress: s.Progress, Color: s.Color})
		total += s.Progress
	}
	if len(rec.Subjects) > 0 {
		st.AverageProgress = float64(total) / float64(len(rec.Subjects))
	}
	return st
}

// Stats loads the record and computes its dashboard figures.
func (s *Service) Stats(ctx context.Context) Stats {
	return ComputeStats(s.store.Load(ctx))
}
