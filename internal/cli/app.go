package cli

import (
	"context"
	"fmt"

	"github.com/pfrederiksen/fixtures-ics/internal/cache"
	"github.com/pfrederiksen/fixtures-ics/internal/config"
	"github.com/pfrederiksen/fixtures-ics/internal/crypto"
	"github.com/pfrederiksen/fixtures-ics/internal/logger"
	"github.com/pfrederiksen/fixtures-ics/internal/pipeline"
	"github.com/pfrederiksen/fixtures-ics/internal/scraper"
	"github.com/redis/go-redis/v9"
)

// app holds the components shared by every command
type app struct {
	cfg      *config.Config
	store    cache.Store
	pipeline *pipeline.Pipeline
	closers  []func() error
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	store, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	enc, err := crypto.NewEncryptor(cfg.SecretKey)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("initializing cache encryption: %w", err)
	}
	a.store = cache.NewSealed(store, enc)

	fetcher := scraper.New(
		scraper.WithBaseURL(cfg.Source.BaseURL),
		scraper.WithTimeout(cfg.Source.Timeout),
		scraper.WithUserAgent(cfg.Source.UserAgent),
	)

	a.pipeline, err = pipeline.New(a.store, fetcher)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// openStore builds the configured cache backend
func (a *app) openStore(ctx context.Context) (cache.Store, error) {
	c := a.cfg.Cache
	logger.Debug("Opening cache", logger.Fields{"backend": c.Backend})

	switch c.Backend {
	case config.BackendMemory:
		return cache.NewMemory(), nil
	case config.BackendFile:
		store, err := cache.NewFile(c.Dir)
		if err != nil {
			return nil, fmt.Errorf("initializing file cache: %w", err)
		}
		return store, nil
	case config.BackendRedis:
		client, err := cache.DialRedis(ctx, &redis.Options{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
		}, c.Redis.DialTimeout)
		if err != nil {
			return nil, err
		}
		store := cache.NewRedis(client, c.Redis.Prefix)
		a.closers = append(a.closers, store.Close)
		return store, nil
	case config.BackendPostgres:
		store, err := cache.OpenSQL(ctx, c.Postgres.DatabaseURL())
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", c.Backend)
	}
}

// Close releases backend connections
func (a *app) Close() {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			logger.Warn("Failed to close cache backend", nil, err)
		}
	}
	a.closers = nil
}
