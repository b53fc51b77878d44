package trends

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/darkmind/darkmind/internal/cache"
	"github.com/darkmind/darkmind/pkg/logging"
)

// cacheTTL bounds how long trend research stays warm. Trends move fast;
// half an hour keeps repeat runs cheap without serving stale angles.
const cacheTTL = 30 * time.Minute

// CachedProvider decorates a Provider with a Redis cache. With a nil cache
// it is a transparent pass-through.
type CachedProvider struct {
	inner  Provider
	cache  *cache.Cache
	logger *zap.Logger
}

// NewCachedProvider wraps a provider with caching.
func NewCachedProvider(inner Provider, redisCache *cache.Cache) *CachedProvider {
	return &CachedProvider{
		inner:  inner,
		cache:  redisCache,
		logger: logging.WithComponent("trends-cache"),
	}
}

// IntelligenceFor returns cached research for a format, falling through to
// the inner provider on a miss.
func (p *CachedProvider) IntelligenceFor(ctx context.Context, format string) (*Intelligence, error) {
	key := fmt.Sprintf("trends:intel:%s", format)

	var cached Intelligence
	if err := p.cache.GetJSON(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	intel, err := p.inner.IntelligenceFor(ctx, format)
	if err != nil {
		return nil, err
	}

	if err := p.cache.SetJSON(ctx, key, intel, cacheTTL); err != nil && err != cache.ErrCacheDisabled {
		p.logger.Warn("Failed to cache trend intelligence",
			zap.String("format", format), zap.Error(err))
	}
	return intel, nil
}

// TrendingTopics returns cached topic lists, falling through on a miss.
func (p *CachedProvider) TrendingTopics(ctx context.Context) (map[string][]string, error) {
	const key = "trends:topics"

	var cached map[string][]string
	if err := p.cache.GetJSON(ctx, key, &cached); err == nil {
		return cached, nil
	}

	topics, err := p.inner.TrendingTopics(ctx)
	if err != nil {
		return nil, err
	}

	if err := p.cache.SetJSON(ctx, key, topics, cacheTTL); err != nil && err != cache.ErrCacheDisabled {
		p.logger.Warn("Failed to cache trending topics", zap.Error(err))
	}
	return topics, nil
}
