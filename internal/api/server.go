// Package api exposes the HTTP admin interface for the ingestion service:
// health probes, metrics, manual cycle triggers, and the crawl audit lookup.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/campusboard/notice-ingest/internal/ingest"
	"github.com/campusboard/notice-ingest/internal/notice"
	"github.com/campusboard/notice-ingest/internal/remind"
	"github.com/campusboard/notice-ingest/internal/sched"
)

// IngestionCycle is the ingestion entry point the host timer and the manual
// trigger both invoke.
type IngestionCycle interface {
	RunCycle(ctx context.Context) (ingest.CycleStats, error)
}

// ReminderCycle is the reminder entry point.
type ReminderCycle interface {
	RunCycle(ctx context.Context) (remind.CycleStats, error)
}

// CrawlAuditor looks up stored crawl records by URL.
type CrawlAuditor interface {
	LookupCrawled(ctx context.Context, urls []string) ([]notice.CrawlRecord, error)
}

// Server wires HTTP handlers to the schedulers and runners.
type Server struct {
	router    chi.Router
	ingestion IngestionCycle
	reminder  ReminderCycle
	auditor   CrawlAuditor
	runners   []*sched.Runner
	logger    *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	ingestion IngestionCycle,
	reminder ReminderCycle,
	auditor CrawlAuditor,
	runners []*sched.Runner,
	logger *zap.Logger,
) *Server {
	s := &Server{
		ingestion: ingestion,
		reminder:  reminder,
		auditor:   auditor,
		runners:   runners,
		logger:    logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(timeoutMiddleware(60 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/cycles", s.cycleStatus)
		r.Post("/cycles/ingestion", s.triggerIngestion)
		r.Post("/cycles/reminder", s.triggerReminder)
		r.Get("/crawls", s.lookupCrawls)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type runnerStatus struct {
	Name    string `json:"name"`
	Running bool   `json:"running"`
	Skips   int64  `json:"overlap_skips"`
}

func (s *Server) cycleStatus(w http.ResponseWriter, _ *http.Request) {
	statuses := make([]runnerStatus, 0, len(s.runners))
	for _, r := range s.runners {
		statuses = append(statuses, runnerStatus{
			Name:    r.Name(),
			Running: r.Running(),
			Skips:   r.Skips(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"runners": statuses})
}

func (s *Server) triggerIngestion(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ingestion.RunCycle(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) triggerReminder(w http.ResponseWriter, r *http.Request) {
	stats, err := s.reminder.RunCycle(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) lookupCrawls(w http.ResponseWriter, r *http.Request) {
	urls := r.URL.Query()["url"]
	if len(urls) == 0 {
		writeError(w, http.StatusBadRequest, "at least one url parameter required")
		return
	}
	records, err := s.auditor.LookupCrawled(r.Context(), urls)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"crawls": records})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already out; nothing useful left to do.
		return
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
