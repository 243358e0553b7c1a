package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"studydash/internal/config"
	"studydash/internal/ics"
	appLog "studydash/internal/log"
	"studydash/internal/planner"
	"studydash/internal/store"
)

// Syncer runs one ICS import. *ics.Importer implements it.
type Syncer interface {
	Sync(ctx context.Context) ([]ics.SourceReport, error)
}

// Server provides the dashboard JSON API.
type Server struct {
	cfg    *config.Config
	svc    *planner.Service
	syncer Syncer
	mux    *http.ServeMux

	// lastSync is reported by /api/sync GET.
	syncMu   sync.RWMutex
	lastSync *SyncStatus
}

// SyncStatus is the last recorded import run.
type SyncStatus struct {
	At      time.Time          `json:"at"`
	Reports []ics.SourceReport `json:"reports"`
	Error   string             `json:"error,omitempty"`
}

// NewServer constructs a new Server. syncer may be nil when no feeds are
// configured.
func NewServer(cfg *config.Config, svc *planner.Service, syncer Syncer) *Server {
	s := &Server{
		cfg:    cfg,
		svc:    svc,
		syncer: syncer,
		mux:    http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return requestLogMiddleware(s.mux)
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestLogMiddleware logs every request except /health at DEBUG.
func requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		appLog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"took", time.Since(start).Round(time.Microsecond).String(),
		)
	})
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/data", s.handleData)
	s.mux.HandleFunc("GET /api/stats", s.handleStats)

	s.mux.HandleFunc("GET /api/tasks", s.handleListTasks)
	s.mux.HandleFunc("POST /api/tasks", s.handleAddTask)
	s.mux.HandleFunc("POST /api/tasks/{id}/toggle", s.handleToggleTask)
	s.mux.HandleFunc("PUT /api/tasks/{id}", s.handleSetTask)

	s.mux.HandleFunc("GET /api/subjects", s.handleListSubjects)
	s.mux.HandleFunc("POST /api/subjects/{id}/step", s.handleStepSubject)
	s.mux.HandleFunc("PUT /api/subjects/{id}", s.handleSetSubject)

	s.mux.HandleFunc("GET /api/calendar", s.handleCalendar)
	s.mux.HandleFunc("GET /api/events", s.handleListEvents)
	s.mux.HandleFunc("PUT /api/events/{id}", s.handleRenameEvent)

	s.mux.HandleFunc("PUT /api/profile/avatar", s.handleSetAvatar)
	s.mux.HandleFunc("PUT /api/profile/name", s.handleSetName)

	s.mux.HandleFunc("GET /calendar.ics", s.handleExport)
	s.mux.HandleFunc("GET /api/sync", s.handleSyncStatus)
	s.mux.HandleFunc("POST /api/sync", s.handleSync)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	rec := s.svc.Record(r.Context())
	body := ics.Export(rec, s.svc.Now())

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="studydash.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, _ *http.Request) {
	s.syncMu.RLock()
	st := s.lastSync
	s.syncMu.RUnlock()
	if st == nil {
		writeJSON(w, http.StatusOK, map[string]any{"at": nil, "reports": []ics.SourceReport{}})
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if s.syncer == nil {
		writeError(w, http.StatusConflict, "no calendar feeds configured")
		return
	}

	reports, err := s.syncer.Sync(r.Context())
	if err != nil {
		appLog.Error("api sync: one or more feeds failed", err)
	}
	st := s.RecordSync(time.Now(), reports, err)

	status := http.StatusOK
	if err != nil && errors.Is(err, store.ErrSaveFailed) {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, st)
}

// RecordSync stores the outcome of a sync run for GET /api/sync; the cron
// job reports through it too.
func (s *Server) RecordSync(at time.Time, reports []ics.SourceReport, err error) *SyncStatus {
	if reports == nil {
		reports = []ics.SourceReport{}
	}
	st := &SyncStatus{At: at, Reports: reports}
	if err != nil {
		st.Error = err.Error()
	}
	s.syncMu.Lock()
	s.lastSync = st
	s.syncMu.Unlock()
	return st
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

// writeActionError maps planner/store errors onto HTTP statuses.
func writeActionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, planner.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, planner.ErrInvalidInput), errors.Is(err, store.ErrInvalidRecord):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrSaveFailed):
		writeError(w, http.StatusInternalServerError, store.ErrSaveFailed.Error())
	default:
		appLog.Error("api action failed", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON reads a small JSON body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}
