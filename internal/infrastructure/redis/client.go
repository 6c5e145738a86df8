package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ConnectTimeout bounds how long NewClient keeps retrying the first ping.
const ConnectTimeout = 15 * time.Second

// NewClient creates a new Redis client. The first ping is retried with
// exponential backoff so the service can start alongside its Redis.
func NewClient(ctx context.Context, redisURL string, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	policy.MaxElapsedTime = ConnectTimeout

	ping := func() error {
		return client.Ping(ctx).Err()
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn().Err(err).Dur("retry_in", wait).Str("addr", opts.Addr).Msg("redis not ready")
	}

	// Verify connection
	if err := backoff.RetryNotify(ping, backoff.WithContext(policy, ctx), notify); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info().Str("addr", opts.Addr).Int("db", opts.DB).Msg("connected to redis")

	return client, nil
}
