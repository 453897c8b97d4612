package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/pfrederiksen/fixtures-ics/internal/cache"
	"github.com/pfrederiksen/fixtures-ics/internal/calendar"
	"github.com/pfrederiksen/fixtures-ics/internal/logger"
	"github.com/pfrederiksen/fixtures-ics/internal/match"
	"github.com/pfrederiksen/fixtures-ics/internal/scraper"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultFreshness is how long a cached entry is served without refetching
	DefaultFreshness = 36 * time.Hour
	// DefaultEventLength is the duration given to every calendar event
	DefaultEventLength = 120 * time.Minute
)

// ErrNoStore is returned by New when no cache store is given
var ErrNoStore = errors.New("pipeline: a cache store is required")

// Fetcher retrieves the raw fixtures page for a subject
type Fetcher interface {
	Fetch(ctx context.Context, s match.Subject) ([]byte, error)
}

// ParseFunc turns a fixtures page into matches
type ParseFunc func(kind match.Kind, r io.Reader) ([]match.Match, error)

// Pipeline runs fetch, parse, cache and calendar conversion for one subject at a time.
// It is safe for concurrent use; concurrent misses on the same key share one fetch.
type Pipeline struct {
	store   cache.Store
	fetcher Fetcher
	parse   ParseFunc
	now     func() time.Time
	log     *logger.Logger
	metrics *logger.Metrics
	group   singleflight.Group
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// WithLogger sets the logger. The package default is used otherwise.
func WithLogger(l *logger.Logger) Option {
	return func(p *Pipeline) {
		p.log = l
	}
}

// WithMetrics sets the metrics tracker. The package default is used otherwise.
func WithMetrics(m *logger.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithParser replaces scraper.Parse
func WithParser(parse ParseFunc) Option {
	return func(p *Pipeline) {
		p.parse = parse
	}
}

// New creates a Pipeline over store, fetching misses with fetcher
func New(store cache.Store, fetcher Fetcher, opts ...Option) (*Pipeline, error) {
	if store == nil {
		return nil, ErrNoStore
	}
	if fetcher == nil {
		return nil, errors.New("pipeline: a fetcher is required")
	}

	p := &Pipeline{
		store:   store,
		fetcher: fetcher,
		parse:   scraper.Parse,
		now:     time.Now,
		log:     logger.Default(),
		metrics: logger.DefaultMetrics(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run returns the calendar for subject, served from cache when fresh.
// Fetch and parse failures are returned as *scraper.FetchError and *scraper.ParseError.
func (p *Pipeline) Run(ctx context.Context, s match.Subject, eventLength, freshness time.Duration) (*ical.Calendar, error) {
	if eventLength <= 0 {
		eventLength = DefaultEventLength
	}

	entry, err := p.Matches(ctx, s, freshness)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	cal := calendar.Build(entry.Matches, eventLength,
		calendar.WithName(s.ID),
		calendar.WithStamp(entry.LastUpdated),
	)
	p.metrics.RecordTiming(logger.MetricCalendarBuild, time.Since(start))
	return cal, nil
}

// Matches returns the cached entry for subject, refreshing it first when
// missing or older than freshness. A freshness <= 0 means DefaultFreshness.
func (p *Pipeline) Matches(ctx context.Context, s match.Subject, freshness time.Duration) (Entry, error) {
	if !s.Kind.Valid() {
		return Entry{}, fmt.Errorf("pipeline: invalid subject kind %v", s.Kind)
	}
	if freshness <= 0 {
		freshness = DefaultFreshness
	}

	key := s.CacheKey()
	now := p.now().UTC()

	if entry, ok := p.lookup(ctx, key, now, freshness); ok {
		return entry, nil
	}

	// The shared refresh outlives any single caller; each caller still honours its own ctx.
	refreshCtx := context.WithoutCancel(ctx)
	ch := p.group.DoChan(key, func() (interface{}, error) {
		// A flight that finished between our lookup and this one may already have stored it
		entry, state, _ := p.read(refreshCtx, key, now, freshness)
		if state == stateHit {
			return entry, nil
		}
		var previous *Entry
		if state == stateStale {
			previous = &entry
		}
		return p.refresh(refreshCtx, s, key, now, previous)
	})

	select {
	case <-ctx.Done():
		return Entry{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Entry{}, res.Err
		}
		return res.Val.(Entry), nil
	}
}

type cacheState int

const (
	stateMiss cacheState = iota
	stateStale
	stateError
	stateHit
)

// read loads and decodes the entry under key without logging
func (p *Pipeline) read(ctx context.Context, key string, now time.Time, freshness time.Duration) (Entry, cacheState, error) {
	raw, err := p.store.Get(ctx, key)
	if errors.Is(err, cache.ErrNotFound) {
		return Entry{}, stateMiss, nil
	}
	if err != nil {
		return Entry{}, stateError, err
	}

	entry, err := DecodeEntry(raw)
	if err != nil {
		return Entry{}, stateError, err
	}
	if !entry.Fresh(now, freshness) {
		return entry, stateStale, nil
	}
	return entry, stateHit, nil
}

// lookup reports a fresh cached entry. Store and decode failures count as a miss.
func (p *Pipeline) lookup(ctx context.Context, key string, now time.Time, freshness time.Duration) (Entry, bool) {
	entry, state, err := p.read(ctx, key, now, freshness)
	switch state {
	case stateMiss:
		p.metrics.IncrCounter(logger.MetricCacheMiss)
		p.log.Debug("Cache miss", logger.Fields{"key": key})
	case stateError:
		p.metrics.IncrCounter(logger.MetricCacheError)
		p.log.Warn("Cache unavailable, treating as miss", logger.Fields{"key": key}, err)
	case stateStale:
		p.metrics.IncrCounter(logger.MetricCacheStale)
		p.log.Debug("Cache entry stale", logger.Fields{
			"key":          key,
			"last_updated": entry.LastUpdated.Format(time.RFC3339),
		})
	case stateHit:
		p.metrics.IncrCounter(logger.MetricCacheHit)
		p.log.Debug("Cache hit", logger.Fields{"key": key, "matches": len(entry.Matches)})
		return entry, true
	}
	return Entry{}, false
}

// refresh fetches and parses the subject's page and stores the result.
// When a stale entry is given, changes against it are logged.
func (p *Pipeline) refresh(ctx context.Context, s match.Subject, key string, now time.Time, previous *Entry) (Entry, error) {
	start := time.Now()
	body, err := p.fetcher.Fetch(ctx, s)
	p.metrics.RecordTiming(logger.MetricFetchTiming, time.Since(start))
	if err != nil {
		p.metrics.IncrCounter(logger.MetricFetchError)
		return Entry{}, err
	}

	matches, err := p.parse(s.Kind, bytes.NewReader(body))
	if err != nil {
		p.metrics.IncrCounter(logger.MetricParseError)
		return Entry{}, err
	}

	entry := Entry{Matches: matches, LastUpdated: now}
	p.save(ctx, key, entry)

	p.log.Debug("Refreshed fixtures", logger.Fields{
		"subject": s.String(),
		"matches": len(matches),
	})
	if previous != nil {
		p.logChanges(s, previous.Matches, matches)
	}
	return entry, nil
}

func (p *Pipeline) logChanges(s match.Subject, previous, current []match.Match) {
	changes := match.Diff(previous, current)
	if len(changes) == 0 {
		return
	}
	counts := match.CountChanges(changes)
	p.log.Info("Fixtures changed", logger.Fields{
		"subject":  s.String(),
		"new":      counts[match.ChangeNew],
		"removed":  counts[match.ChangeRemoved],
		"kickoff":  counts[match.ChangeKickoff],
		"score":    counts[match.ChangeScore],
		"previous": len(previous),
	})
}

// save writes entry under key. Failures are logged; the fresh entry is still served.
func (p *Pipeline) save(ctx context.Context, key string, entry Entry) {
	data, err := entry.Encode()
	if err == nil {
		err = p.store.Put(ctx, key, data)
	}
	if err != nil {
		p.metrics.IncrCounter(logger.MetricCacheError)
		p.log.Warn("Failed to update cache", logger.Fields{"key": key}, err)
	}
}
