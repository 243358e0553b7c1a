package web

import (
	"net/http"
	"time"

	"studydash/internal/calendar"
	"studydash/internal/model"
)

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Record(r.Context()))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Stats(r.Context()))
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(s.svc.Record(r.Context()).Tasks))
}

func (s *Server) handleAddTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	task, err := s.svc.AddTask(r.Context(), req.Text)
	if err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.svc.ToggleTask(r.Context(), r.PathValue("id"))
	if err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleSetTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Completed *bool `json:"completed"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Completed == nil {
		writeError(w, http.StatusBadRequest, `body must be {"completed": bool}`)
		return
	}
	task, err := s.svc.SetTaskCompleted(r.Context(), r.PathValue("id"), *req.Completed)
	if err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleListSubjects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(s.svc.Record(r.Context()).Subjects))
}

func (s *Server) handleStepSubject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Delta int `json:"delta"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sub, err := s.svc.StepSubjectProgress(r.Context(), r.PathValue("id"), req.Delta)
	if err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleSetSubject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Progress *int `json:"progress"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Progress == nil {
		writeError(w, http.StatusBadRequest, `body must be {"progress": int}`)
		return
	}
	sub, err := s.svc.SetSubjectProgress(r.Context(), r.PathValue("id"), *req.Progress)
	if err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// handleCalendar returns the month view.
//
// GET /api/calendar?month=2025-04&selected=2025-04-23
//   - month:    YYYY-MM, defaults to the current month
//   - selected: YYYY-MM-DD, optional
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	loc := s.svc.Location()
	today := s.svc.Today()
	q := r.URL.Query()

	anchor := today
	if m := q.Get("month"); m != "" {
		t, err := calendar.ParseMonth(m, loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "month must be YYYY-MM")
			return
		}
		anchor = t
	}

	var selected *time.Time
	if sel := q.Get("selected"); sel != "" {
		t, err := model.ParseDate(sel, loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "selected must be YYYY-MM-DD")
			return
		}
		selected = &t
	}

	rec := s.svc.Record(r.Context())
	writeJSON(w, http.StatusOK, calendar.NewView(anchor, selected, today, rec.Events))
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events := s.svc.Record(r.Context()).Events
	if m := r.URL.Query().Get("month"); m != "" {
		anchor, err := calendar.ParseMonth(m, s.svc.Location())
		if err != nil {
			writeError(w, http.StatusBadRequest, "month must be YYYY-MM")
			return
		}
		events = calendar.MonthEvents(events, anchor)
	}
	writeJSON(w, http.StatusOK, nonNil(events))
}

func (s *Server) handleRenameEvent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	ev, err := s.svc.RenameEvent(r.Context(), r.PathValue("id"), req.Title)
	if err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleSetAvatar(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Avatar string `json:"avatar"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.svc.SetAvatar(r.Context(), req.Avatar); err != nil {
		writeActionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetName(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.svc.SetName(r.Context(), req.Name); err != nil {
		writeActionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// nonNil keeps empty collections as [] rather than null in responses.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
