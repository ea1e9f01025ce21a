package repository

import (
	"context"
	"fmt"
	"time"

	"TickVault/internal/domain/models"
	domrepo "TickVault/internal/domain/repository"
	pkgcache "TickVault/pkg/cache"
)

// CachedExtentSource decorates an ExtentSource with a TTL cache. Extent
// lookups sit on the hot query path and only move when new raw data lands, so
// a short TTL keeps them cheap without serving stale bounds for long.
type CachedExtentSource struct {
	src   domrepo.ExtentSource
	cache pkgcache.Service
	ttl   time.Duration
}

func NewCachedExtentSource(src domrepo.ExtentSource, cache pkgcache.Service, ttl time.Duration) *CachedExtentSource {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedExtentSource{src: src, cache: cache, ttl: ttl}
}

func (c *CachedExtentSource) Extent(ctx context.Context, symbol string) (models.Extent, error) {
	key := fmt.Sprintf("extent:%s", symbol)

	if c.cache != nil {
		// Cache trouble never fails the query; any error falls through to the
		// store.
		var ext models.Extent
		if err := c.cache.Get(ctx, key, &ext); err == nil {
			return ext, nil
		}
	}

	ext, err := c.src.Extent(ctx, symbol)
	if err != nil {
		return models.Extent{}, err
	}
	if c.cache != nil {
		_ = c.cache.Set(ctx, key, ext, c.ttl)
	}
	return ext, nil
}
