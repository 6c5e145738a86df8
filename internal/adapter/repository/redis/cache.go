package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/gotransact/internal/infrastructure/metrics"
)

// generationTTL bounds how long a generation counter outlives its last
// invalidation. It only has to cover one balance read.
const generationTTL = 24 * time.Hour

var setIfGenerationScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[2]) or '0')
if current ~= tonumber(ARGV[2]) then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[1])
end
return 1
`)

// Cache implements usecase.Cache using Redis.
type Cache struct {
	client  *redis.Client
	prefix  string
	metrics *metrics.Metrics
}

// NewCache creates a new Cache. m may be nil.
func NewCache(client *redis.Client, m *metrics.Metrics) *Cache {
	return &Cache{
		client:  client,
		prefix:  "cache:",
		metrics: m,
	}
}

// Get retrieves a value by key. A missing key returns redis.Nil.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	switch {
	case err == nil:
		c.observe("hit")
	case errors.Is(err, redis.Nil):
		c.observe("miss")
	default:
		c.observe("error")
	}
	return val, err
}

// Generation returns the generation of key. A key that was never
// invalidated, or whose generation expired, is at zero.
func (c *Cache) Generation(ctx context.Context, key string) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// SetIfGeneration stores value with TTL when the generation of key still
// equals generation. The comparison and the write run as one script.
func (c *Cache) SetIfGeneration(ctx context.Context, key string, value []byte, generation int64, ttl time.Duration) (bool, error) {
	stored, err := setIfGenerationScript.Run(ctx, c.client,
		[]string{c.prefix + key, c.generationKey(key)},
		value, generation, ttl.Milliseconds(),
	).Int64()
	if err != nil {
		return false, err
	}
	return stored == 1, nil
}

// Invalidate removes the value and advances the generation so fills that
// started earlier are rejected.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.generationKey(key))
		pipe.Expire(ctx, c.generationKey(key), generationTTL)
		pipe.Del(ctx, c.prefix+key)
		return nil
	})
	return err
}

func (c *Cache) generationKey(key string) string {
	return c.prefix + "gen:" + key
}

func (c *Cache) observe(result string) {
	if c.metrics != nil {
		c.metrics.CacheLookups.WithLabelValues(result).Inc()
	}
}
