// Package api implements the HTTP surface of the capture/replay service.
package api

import (
	"go.uber.org/zap"

	"hookloop/internal/auth"
	"hookloop/internal/config"
	"hookloop/internal/logger"
	"hookloop/internal/replay"
	"hookloop/internal/stats"
	"hookloop/internal/store"
)

type Server struct {
	Store     store.Store
	Auth      *auth.Verifier
	Broker    EventBroker
	Forwarder *replay.Forwarder
	Stats     *stats.Aggregator
	Limiter   *tenantLimiter
}

// NewServer wires the components for the given config. With no
// DATABASE_URL it uses the in-memory store, which is also what tests
// construct for isolated instances.
func NewServer(cfg config.Config) (*Server, error) {
	var s store.Store
	if cfg.DatabaseURL == "" {
		s = store.NewMemory()
	} else {
		sp, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		// Run migrations (dev helper)
		if err := sp.MigrateDir("db/migrations"); err != nil {
			logger.Warn("migrations skipped", zap.Error(err))
		}
		s = sp
	}
	var broker EventBroker
	if cfg.RedisURL != "" {
		rb, err := NewRedisBroker(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		broker = rb
	} else {
		broker = NewBroker()
	}
	return &Server{
		Store:     s,
		Auth:      auth.NewVerifier(cfg.AuthMode),
		Broker:    broker,
		Forwarder: replay.NewForwarder(s),
		Stats:     stats.NewAggregator(s),
		Limiter:   newTenantLimiter(cfg.RateRPS, cfg.RateBurst),
	}, nil
}
