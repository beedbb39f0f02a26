package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jo-hoe/songshelf/internal/backend/database"
)

// listingKey is the single logical cache key for the song listing.
const listingKey = "songs:list"

// ErrMiss is returned when no cached listing is present.
var ErrMiss = errors.New("cache miss")

// ListingCache holds the serialized song listing under a fixed key.
// Ingestion invalidates it; listing reads go cache-first.
type ListingCache interface {
	Get(ctx context.Context) ([]*database.Song, error)
	Set(ctx context.Context, songs []*database.Song) error
	Invalidate(ctx context.Context) error
	Close() error
}

type RedisListingCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisListingCache(addr string, ttl time.Duration) *RedisListingCache {
	return &RedisListingCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

func (c *RedisListingCache) Get(ctx context.Context) ([]*database.Song, error) {
	data, err := c.client.Get(ctx, listingKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}

	var songs []*database.Song
	if err := json.Unmarshal(data, &songs); err != nil {
		// A corrupt entry behaves like a miss; the next Set overwrites it.
		return nil, ErrMiss
	}
	return songs, nil
}

func (c *RedisListingCache) Set(ctx context.Context, songs []*database.Song) error {
	data, err := json.Marshal(songs)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, listingKey, data, c.ttl).Err()
}

func (c *RedisListingCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, listingKey).Err()
}

func (c *RedisListingCache) Close() error {
	return c.client.Close()
}

// NoopCache is used when no redis address is configured; every read is
// a miss and writes are dropped, so all listings hit the store.
type NoopCache struct{}

func (NoopCache) Get(ctx context.Context) ([]*database.Song, error) { return nil, ErrMiss }

func (NoopCache) Set(ctx context.Context, songs []*database.Song) error { return nil }

func (NoopCache) Invalidate(ctx context.Context) error { return nil }

func (NoopCache) Close() error { return nil }

// NewListingCache picks the redis implementation when an address is
// configured, the no-op one otherwise.
func NewListingCache(addr string, ttl time.Duration) ListingCache {
	if addr == "" {
		return NoopCache{}
	}
	return NewRedisListingCache(addr, ttl)
}
