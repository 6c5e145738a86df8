package redisstream

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBroker(t *testing.T) (*Broker, *redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewBroker(client, 0), client, mr
}

func TestBrokerSendAppendsToStream(t *testing.T) {
	broker, client, _ := newTestBroker(t)
	ctx := context.Background()

	require.NoError(t, broker.Send(ctx, "transaction-results", "txn_1", []byte(`{"transactionId":"txn_1"}`)))
	require.NoError(t, broker.Send(ctx, "transaction-results", "txn_2", []byte(`{"transactionId":"txn_2"}`)))

	entries, err := client.XRange(ctx, "transaction-results", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "txn_1", entries[0].Values["key"])
	assert.Equal(t, `{"transactionId":"txn_1"}`, entries[0].Values["event"])
	assert.Equal(t, "txn_2", entries[1].Values["key"])
}

func TestBrokerSendFailsWhenRedisDown(t *testing.T) {
	broker, _, mr := newTestBroker(t)
	mr.Close()

	err := broker.Send(context.Background(), "transaction-results", "txn_1", []byte(`{}`))
	assert.Error(t, err)
}

func TestNewBrokerDefaultsMaxLen(t *testing.T) {
	broker := NewBroker(nil, 0)
	assert.Equal(t, int64(DefaultMaxLen), broker.maxLen)
}
