// Package warmer refreshes cached fixtures on a schedule so calendar requests
// are served from fresh entries instead of waiting on the remote site.
package warmer

import (
	"context"
	"fmt"
	"time"

	"github.com/pfrederiksen/fixtures-ics/internal/logger"
	"github.com/pfrederiksen/fixtures-ics/internal/match"
	"github.com/pfrederiksen/fixtures-ics/internal/pipeline"
	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
)

// Refresher loads a subject's fixtures, refetching when older than freshness
type Refresher interface {
	Matches(ctx context.Context, s match.Subject, freshness time.Duration) (pipeline.Entry, error)
}

// Warmer re-runs the pipeline for a fixed list of subjects
type Warmer struct {
	refresher Refresher
	subjects  []match.Subject
	freshness time.Duration
	timeout   time.Duration
	log       *logger.Logger
	metrics   *logger.Metrics
}

type Option func(*Warmer)

// WithFreshness sets the age past which a warm run refetches an entry.
// Use less than the serving freshness so entries are renewed before requests see them expire.
func WithFreshness(d time.Duration) Option {
	return func(w *Warmer) {
		w.freshness = d
	}
}

// WithTimeout bounds each subject's refresh
func WithTimeout(d time.Duration) Option {
	return func(w *Warmer) {
		w.timeout = d
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(w *Warmer) {
		w.log = l
	}
}

func WithMetrics(m *logger.Metrics) Option {
	return func(w *Warmer) {
		w.metrics = m
	}
}

// New creates a Warmer for subjects
func New(r Refresher, subjects []match.Subject, opts ...Option) *Warmer {
	w := &Warmer{
		refresher: r,
		subjects:  subjects,
		freshness: pipeline.DefaultFreshness / 2,
		timeout:   time.Minute,
		log:       logger.Default(),
		metrics:   logger.DefaultMetrics(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// RunOnce refreshes every subject in order. A failing subject does not stop
// the others; all failures are returned combined.
func (w *Warmer) RunOnce(ctx context.Context) error {
	w.metrics.SetGauge(logger.MetricWarmSubjects, float64(len(w.subjects)))

	var errs error
	for _, s := range w.subjects {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}

		if err := w.warm(ctx, s); err != nil {
			w.metrics.IncrCounter(logger.MetricWarmFailures)
			w.log.Warn("Failed to warm fixtures", logger.Fields{"subject": s.String()}, err)
			errs = multierr.Append(errs, fmt.Errorf("warming %s: %w", s, err))
		}
	}
	return errs
}

func (w *Warmer) warm(ctx context.Context, s match.Subject) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	entry, err := w.refresher.Matches(ctx, s, w.freshness)
	if err != nil {
		return err
	}
	w.log.Debug("Warmed fixtures", logger.Fields{
		"subject":      s.String(),
		"matches":      len(entry.Matches),
		"last_updated": entry.LastUpdated.Format(time.RFC3339),
	})
	return nil
}

// Run warms once immediately, then on every tick of schedule (standard
// five-field cron syntax or a descriptor such as "@every 6h") until ctx is done.
func (w *Warmer) Run(ctx context.Context, schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { _ = w.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("parsing warm schedule %q: %w", schedule, err)
	}

	w.log.Info("Cache warmer started", logger.Fields{
		"schedule": schedule,
		"subjects": len(w.subjects),
	})
	_ = w.RunOnce(ctx)

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()

	w.log.Info("Cache warmer stopped", nil)
	return nil
}
