package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/ppisng/ppis-api/pkg/errors"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService is the owned cache abstraction for the read paths. Services
// read through it and every successful write invalidates the owning entity's
// key pattern, so no call site hand-lists cache keys to clear.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	resultsTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL, resultsTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	if resultsTTL <= 0 {
		resultsTTL = 2 * time.Minute
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, resultsTTL: resultsTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// ResultsTTL is the TTL applied to computed result payloads.
func (s *CacheService) ResultsTTL() time.Duration {
	if s == nil {
		return 0
	}
	return s.resultsTTL
}

// Get attempts to retrieve a cached entry. It returns true on a hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	if err := s.repo.Get(ctx, key, dest); err != nil {
		s.metrics.RecordCacheLookup(false)
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return false, nil
		}
		if s.logger != nil {
			s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return false, err
	}
	s.metrics.RecordCacheLookup(true)
	return true, nil
}

// Set stores the value in cache.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	if err := s.repo.Set(ctx, key, value, ttl); err != nil {
		if s.logger != nil {
			s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		}
		return err
	}
	return nil
}

// GetOrLoad reads through the cache: on a miss the loader runs and its result
// is stored under the key before being returned.
func (s *CacheService) GetOrLoad(ctx context.Context, key string, ttl time.Duration, dest interface{}, loader func(ctx context.Context) (interface{}, error)) error {
	if hit, _ := s.Get(ctx, key, dest); hit {
		return nil
	}
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	_ = s.Set(ctx, key, value, ttl)
	return assign(dest, value)
}

// assign copies the loader's value into dest through a JSON round trip,
// matching the shape a cache hit would have produced.
func assign(dest, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// Invalidate removes cached values for the provided pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		if s.logger != nil {
			s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		}
		return err
	}
	return nil
}
