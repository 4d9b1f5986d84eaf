package app

import (
	"context"
	"fmt"

	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/OpenSundsvall/api-service-case-data/internal/clients/redis"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/logger"
	"github.com/OpenSundsvall/api-service-case-data/internal/temporalx"
)

type Clients struct {
	// NumberLock is nil when REDIS_ADDR is unset.
	NumberLock *redis.NumberLock
	// Temporal is nil when TEMPORAL_ADDRESS is unset.
	Temporal temporalsdkclient.Client
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Redis
	lock, err := redis.NewNumberLock(log, cfg.NumberLock)
	if err != nil {
		return Clients{}, fmt.Errorf("init redis number lock: %w", err)
	}

	// Temporal
	if cfg.Temporal.Enabled() && cfg.Temporal.AutoRegisterNamespace {
		if err := temporalx.EnsureNamespace(ctx, cfg.Temporal, log); err != nil {
			closeLock(lock)
			return Clients{}, fmt.Errorf("ensure temporal namespace: %w", err)
		}
	}
	tc, err := temporalx.NewClient(ctx, log, cfg.Temporal)
	if err != nil {
		closeLock(lock)
		return Clients{}, fmt.Errorf("init temporal client: %w", err)
	}

	return Clients{NumberLock: lock, Temporal: tc}, nil
}

func (c Clients) Close() {
	if c.Temporal != nil {
		c.Temporal.Close()
	}
	closeLock(c.NumberLock)
}

func closeLock(l *redis.NumberLock) {
	if l != nil {
		_ = l.Close()
	}
}
