package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"hotel_inventory/internal/domain"
)

const roomsListKey = "rooms:all"

// CachedCatalog is a read-through cache in front of a Catalog. Concurrent misses
// for the same key collapse into one source lookup. Unknown ids are not cached.
type CachedCatalog struct {
	src      domain.Catalog
	cache    domain.Cache
	cacheTTL time.Duration
	group    singleflight.Group
}

func NewCachedCatalog(src domain.Catalog, c domain.Cache, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{src: src, cache: c, cacheTTL: ttl}
}

func roomKey(id string) string { return fmt.Sprintf("room:%s", id) }

func (c *CachedCatalog) Get(ctx context.Context, id string) (domain.RoomType, error) {
	key := roomKey(id)
	var rt domain.RoomType
	if c.lookup(ctx, key, &rt) {
		return rt, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		// shared by every caller waiting on key; one leaving must not fail the rest
		ctx := context.WithoutCancel(ctx)
		rt, err := c.src.Get(ctx, id)
		if err != nil {
			return domain.RoomType{}, err
		}
		c.store(ctx, key, rt)
		return rt, nil
	})
	if err != nil {
		return domain.RoomType{}, err
	}
	return v.(domain.RoomType), nil
}

func (c *CachedCatalog) List(ctx context.Context) ([]domain.RoomType, error) {
	var rooms []domain.RoomType
	if c.lookup(ctx, roomsListKey, &rooms) {
		return rooms, nil
	}
	v, err, _ := c.group.Do(roomsListKey, func() (any, error) {
		ctx := context.WithoutCancel(ctx)
		rooms, err := c.src.List(ctx)
		if err != nil {
			return nil, err
		}
		c.store(ctx, roomsListKey, rooms)
		return rooms, nil
	})
	if err != nil {
		return nil, err
	}
	// callers may mutate the slice; don't hand out the shared one
	shared := v.([]domain.RoomType)
	out := make([]domain.RoomType, len(shared))
	copy(out, shared)
	return out, nil
}

func (c *CachedCatalog) lookup(ctx context.Context, key string, dst any) bool {
	if c.cache == nil {
		return false
	}
	ok, err := c.cache.Get(ctx, key, dst)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("catalog cache get failed")
		return false
	}
	return ok
}

func (c *CachedCatalog) store(ctx context.Context, key string, v any) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(ctx, key, v, int(c.cacheTTL.Seconds())); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("catalog cache set failed")
	}
}
