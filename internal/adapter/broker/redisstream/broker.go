package redisstream

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultMaxLen caps each stream so an idle consumer cannot exhaust memory.
const DefaultMaxLen = 100_000

// Broker publishes result events to Redis Streams, one stream per topic.
type Broker struct {
	client *redis.Client
	maxLen int64
}

// NewBroker creates a new Broker. A maxLen of zero uses DefaultMaxLen.
func NewBroker(client *redis.Client, maxLen int64) *Broker {
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}
	return &Broker{client: client, maxLen: maxLen}
}

// Send appends the payload to the topic stream. The key travels as a field so
// consumers can partition by transaction.
func (b *Broker) Send(ctx context.Context, topic, key string, payload []byte) error {
	args := &redis.XAddArgs{
		Stream: topic,
		MaxLen: b.maxLen,
		Approx: true,
		Values: map[string]any{
			"key":   key,
			"event": payload,
		},
	}

	if _, err := b.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
