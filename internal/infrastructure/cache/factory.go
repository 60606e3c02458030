package cache

import (
	"fmt"

	"github.com/leadscout/backend/internal/domain/shared"
	"github.com/leadscout/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// StoreFactory picks the idempotency store backend at startup. Redis
// is the normal choice; the in-memory store only covers environments
// without one.
type StoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption configures a StoreFactory.
type FactoryOption func(*StoreFactory)

// WithLogger replaces the factory's no-op logger.
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory store
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *StoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewIdempotencyStoreFactory builds a factory for the given Redis settings.
func NewIdempotencyStoreFactory(cfg config.RedisConfig, opts ...FactoryOption) *StoreFactory {
	f := &StoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create builds an idempotency store, preferring Redis. When Redis cannot be
// reached and fallback is allowed, a single-instance in-memory store is
// returned instead; with fallback disabled the Redis error propagates.
func (f *StoreFactory) Create() (shared.IdempotencyStore, error) {
	store, err := NewRedisIdempotencyStore(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err == nil {
		f.logger.Info("using redis idempotency store",
			zap.String("host", f.redisConfig.Host),
			zap.Int("port", f.redisConfig.Port))
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis idempotency store unavailable: %w", err)
	}

	f.logger.Warn("redis unavailable, using in-memory idempotency store",
		zap.Error(err))
	return NewInMemoryIdempotencyStore(), nil
}
