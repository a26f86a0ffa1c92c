// Package app composes the SDK from configuration the way a dashboard
// process boots it: tracing pipeline, cache backend, API client, durable
// session store, event bus, session manager and notification aggregator.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	pointsnav "github.com/pointsnav/go-pointsnav"
	"github.com/pointsnav/go-pointsnav/cache"
	"github.com/pointsnav/go-pointsnav/config"
	"github.com/pointsnav/go-pointsnav/events"
	"github.com/pointsnav/go-pointsnav/notify"
	"github.com/pointsnav/go-pointsnav/session"
	"github.com/pointsnav/go-pointsnav/store"
	"github.com/pointsnav/go-pointsnav/tracing"
)

// App holds the wired components for one dashboard process.
type App struct {
	Config        *config.Config
	Client        *pointsnav.Client
	Store         *store.Store
	Events        *events.Manager
	Session       *session.Manager
	Notifications *notify.Aggregator

	redis *cache.RedisCache
}

// New validates the configuration and wires every component from it:
// Redis.Enabled selects the cache backend, Tracing.Enabled the exporter,
// and the API and Store sections configure the client and the session
// store. A nil logger falls back to slog.Default().
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	tracer, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		Environment: cfg.Tracing.Environment,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	a := &App{Config: cfg}

	var c cache.Cache
	if cfg.Redis.Enabled {
		rc, err := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Redis cache: %w", err)
		}
		a.redis = rc
		c = rc
	} else {
		c = cache.NewInMemoryCache()
	}

	a.Client = pointsnav.New(pointsnav.Options{
		BaseURL: cfg.API.BaseURL,
		HTTPClient: &http.Client{
			Timeout:   time.Duration(cfg.API.TimeoutSeconds) * time.Second,
			Transport: &tracing.Transport{Tracer: tracer},
		},
		Logger:   logger,
		Cache:    c,
		CacheTTL: time.Duration(cfg.Cache.TTLSeconds) * time.Second,
	})

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	a.Store = st

	a.Events = events.NewManager(logger)
	a.Session = session.NewManager(a.Client, st, a.Events, logger)
	a.Notifications = notify.New(a.Client, a.Session, a.Events, logger)

	return a, nil
}

// Start restores any persisted session. Call once after New.
func (a *App) Start(ctx context.Context) (session.State, error) {
	return a.Session.Restore(ctx)
}

// Close flushes tracing and releases the store and cache connections.
func (a *App) Close(ctx context.Context) error {
	var firstErr error
	if err := tracing.Shutdown(ctx); err != nil {
		firstErr = err
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := a.Store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
