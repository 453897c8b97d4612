// Package server exposes fixture calendars over HTTP.
//
// Routes:
//
//	GET /team/{id}[/{minutes}]          calendar for a team
//	GET /competition/{id}[/{minutes}]   calendar for a competition
//	GET /healthz                        liveness
//	GET /debug/metrics                  metrics snapshot as JSON
//
// minutes is the event length, at most one week, and defaults to the
// configured value.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/gorilla/mux"
	"github.com/pfrederiksen/fixtures-ics/internal/calendar"
	"github.com/pfrederiksen/fixtures-ics/internal/logger"
	"github.com/pfrederiksen/fixtures-ics/internal/match"
	"github.com/pfrederiksen/fixtures-ics/internal/pipeline"
	"github.com/pfrederiksen/fixtures-ics/internal/scraper"
)

// maxEventMinutes bounds the event length accepted in a URL (one week)
const maxEventMinutes = 7 * 24 * 60

// Runner produces the calendar for a subject
type Runner interface {
	Run(ctx context.Context, s match.Subject, eventLength, freshness time.Duration) (*ical.Calendar, error)
}

// Server serves calendars produced by a Runner
type Server struct {
	runner      Runner
	eventLength time.Duration
	freshness   time.Duration
	log         *logger.Logger
	metrics     *logger.Metrics
	router      *mux.Router
}

// Option configures a Server
type Option func(*Server)

// WithEventLength sets the event length used when the URL gives none
func WithEventLength(d time.Duration) Option {
	return func(s *Server) {
		s.eventLength = d
	}
}

// WithFreshness sets how long cached fixtures are served
func WithFreshness(d time.Duration) Option {
	return func(s *Server) {
		s.freshness = d
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

func WithMetrics(m *logger.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// New creates a Server and registers its routes
func New(runner Runner, opts ...Option) *Server {
	s := &Server{
		runner:      runner,
		eventLength: pipeline.DefaultEventLength,
		freshness:   pipeline.DefaultFreshness,
		log:         logger.Default(),
		metrics:     logger.DefaultMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := mux.NewRouter().StrictSlash(true)
	r.Use(s.securityHeaders)
	r.HandleFunc("/team/{id}", s.calendarHandler(match.KindTeam)).Methods(http.MethodGet)
	r.HandleFunc("/team/{id}/{minutes}", s.calendarHandler(match.KindTeam)).Methods(http.MethodGet)
	r.HandleFunc("/competition/{id}", s.calendarHandler(match.KindCompetition)).Methods(http.MethodGet)
	r.HandleFunc("/competition/{id}/{minutes}", s.calendarHandler(match.KindCompetition)).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/debug/metrics", s.handleMetrics).Methods(http.MethodGet)
	s.router = r

	return s
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", logger.Fields{"addr": addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving HTTP: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}
	return nil
}

func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "SAMEORIGIN")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) calendarHandler(kind match.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.metrics.IncrCounter(logger.MetricHTTPRequests)
		vars := mux.Vars(r)

		subject, err := match.NewSubject(kind, vars["id"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		eventLength := s.eventLength
		if raw, ok := vars["minutes"]; ok {
			minutes, err := strconv.Atoi(raw)
			if err != nil || minutes <= 0 || minutes > maxEventMinutes {
				http.Error(w, fmt.Sprintf("Event length must be between 1 and %d minutes, got %q", maxEventMinutes, raw), http.StatusBadRequest)
				return
			}
			eventLength = time.Duration(minutes) * time.Minute
		}

		cal, err := s.runner.Run(r.Context(), subject, eventLength, s.freshness)
		if err != nil {
			s.writeRunError(w, subject, err)
			return
		}

		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", "attachment; filename=calendar.ics")
		if err := calendar.Write(w, cal); err != nil {
			s.log.Warn("Failed to write calendar", logger.Fields{"subject": subject.String()}, err)
		}
	}
}

func (s *Server) writeRunError(w http.ResponseWriter, subject match.Subject, err error) {
	var fetchErr *scraper.FetchError
	var parseErr *scraper.ParseError

	switch {
	case errors.As(err, &fetchErr) && fetchErr.NotFound():
		s.log.Info("Fixtures page not found", logger.Fields{"subject": subject.String()})
		http.Error(w, fmt.Sprintf("Could not find the page for a %s with ID = %q", subject.Kind, subject.ID), http.StatusNotFound)
	case errors.As(err, &fetchErr):
		s.log.Warn("Fixtures page unavailable", logger.Fields{
			"subject": subject.String(),
			"status":  fetchErr.StatusCode,
		}, err)
		http.Error(w, "The fixtures page could not be fetched", http.StatusBadGateway)
	case errors.As(err, &parseErr):
		s.log.Error("Fixtures page could not be parsed", logger.Fields{"subject": subject.String()}, err)
		http.Error(w, "The fixtures page could not be read", http.StatusBadGateway)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		http.Error(w, "Request timed out", http.StatusGatewayTimeout)
	default:
		s.log.Error("Calendar request failed", logger.Fields{"subject": subject.String()}, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleMetrics writes the snapshot as JSON, or as "name value" counter
// lines with ?format=text
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	snapshot := s.metrics.Snapshot()

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		for _, name := range snapshot.Names() {
			fmt.Fprintf(w, "%s %d\n", name, snapshot.Counters[name])
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		s.log.Warn("Failed to encode metrics", nil, err)
	}
}
