package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cobranca/backend/internal/application/dashboard"
	"github.com/cobranca/backend/internal/infrastructure/config"
)

// ViewCacheFactory creates view caches based on configuration
type ViewCacheFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// ViewCacheFactoryOption is a functional option for configuring the factory
type ViewCacheFactoryOption func(*ViewCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) ViewCacheFactoryOption {
	return func(f *ViewCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory cache
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) ViewCacheFactoryOption {
	return func(f *ViewCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewViewCacheFactory creates a new factory
func NewViewCacheFactory(cfg config.RedisConfig, opts ...ViewCacheFactoryOption) *ViewCacheFactory {
	f := &ViewCacheFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateCache creates a view cache, preferring Redis and falling back to
// the in-memory cache when Redis is unreachable and fallback is allowed.
func (f *ViewCacheFactory) CreateCache() (dashboard.ViewCache, error) {
	redisCache, err := NewRedisViewCache(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}, f.logger)
	if err == nil {
		f.logger.Info("using Redis view cache",
			zap.String("host", f.redisConfig.Host),
			zap.Int("port", f.redisConfig.Port))
		return redisCache, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("failed to create Redis view cache: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory view cache",
		zap.Error(err))
	return NewInMemoryViewCache(), nil
}
