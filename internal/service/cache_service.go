package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/echotrack/echotrack-api/pkg/errors"
)

// CacheStore abstracts the cache backend.
type CacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService wraps the cache store with metrics and failure tolerance. A
// broken cache never fails a request; callers fall through to the database.
type CacheService struct {
	store   CacheStore
	metrics *MetricsService
	logger  *zap.Logger
	enabled bool
}

// NewCacheService builds the cache service. A nil store disables caching.
func NewCacheService(store CacheStore, metrics *MetricsService, logger *zap.Logger, enabled bool) *CacheService {
	return &CacheService{
		store:   store,
		metrics: metrics,
		logger:  logger,
		enabled: enabled && store != nil,
	}
}

// Enabled reports whether lookups will be attempted.
func (s *CacheService) Enabled() bool {
	return s.enabled
}

// Get attempts a cache lookup. It returns true on a hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) bool {
	if !s.enabled {
		return false
	}
	err := s.store.Get(ctx, key, dest)
	if err == nil {
		s.metrics.RecordCacheOperation("get", "hit")
		return true
	}
	if errors.Is(err, appErrors.ErrCacheMiss) {
		s.metrics.RecordCacheOperation("get", "miss")
		return false
	}
	s.metrics.RecordCacheOperation("get", "error")
	s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	return false
}

// Set stores a value, logging failures without surfacing them.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if !s.enabled {
		return
	}
	start := time.Now()
	if err := s.store.Set(ctx, key, value, ttl); err != nil {
		s.metrics.RecordCacheOperation("set", "error")
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		return
	}
	s.metrics.ObserveCacheWrite(time.Since(start))
}

// Invalidate removes all keys matching the pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) {
	if !s.enabled {
		return
	}
	if err := s.store.DeleteByPattern(ctx, pattern); err != nil {
		s.metrics.RecordCacheOperation("invalidate", "error")
		s.logger.Warn("cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
		return
	}
	s.metrics.RecordCacheOperation("invalidate", "ok")
}
