package storage

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"github.com/fjod/flore/pkg/logger"
	"golang.org/x/sync/singleflight"
)

const keyLockStripes = 64

// CacheAside reads through a cache in front of a durable Storage. Writes go
// to the durable store first and then replace the cached entry.
//
// A cache fill after a miss and a write on the same key hold the same lock,
// so a fill can never put a value older than the last write back in the cache.
type CacheAside struct {
	durable Storage
	cache   Cache
	sfg     singleflight.Group // collapses concurrent misses on one key
	locks   [keyLockStripes]sync.Mutex
}

func NewCacheAside(durable Storage, cache Cache) *CacheAside {
	return &CacheAside{
		durable: durable,
		cache:   cache,
	}
}

func (c *CacheAside) Load(ctx context.Context, key string) ([]byte, error) {
	v, err, _ := c.sfg.Do(key, func() (interface{}, error) {
		data, err := c.cache.Get(ctx, key)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			logger.Warn(ctx).Err(err).Str("key", key).Msg("cache get failed")
		}

		return c.fill(ctx, key)
	})
	if err != nil {
		return nil, err
	}

	return v.([]byte), nil
}

func (c *CacheAside) fill(ctx context.Context, key string) ([]byte, error) {
	mu := c.lockFor(key)
	mu.Lock()
	defer mu.Unlock()

	data, err := c.durable.Load(ctx, key)
	if err != nil {
		return nil, err
	}

	if errSet := c.cache.Set(ctx, key, data); errSet != nil {
		logger.Warn(ctx).Err(errSet).Str("key", key).Msg("cache set failed")
	}
	return data, nil
}

func (c *CacheAside) Save(ctx context.Context, key string, value []byte) error {
	mu := c.lockFor(key)
	mu.Lock()
	defer mu.Unlock()

	if err := c.durable.Save(ctx, key, value); err != nil {
		return err
	}

	if err := c.cache.Set(ctx, key, value); err != nil {
		logger.Warn(ctx).Err(err).Str("key", key).Msg("cache write failed, invalidating")
		c.invalidate(key)
	}
	return nil
}

func (c *CacheAside) invalidate(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.cache.Delete(ctx, key); err != nil {
		logger.Logger.Warn().Err(err).Str("key", key).Msg("cache invalidate failed")
	}
}

func (c *CacheAside) lockFor(key string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &c.locks[h.Sum32()%keyLockStripes]
}
