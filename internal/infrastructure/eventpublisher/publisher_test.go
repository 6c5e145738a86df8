package eventpublisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/gotransact/internal/domain"
	"github.com/iho/gotransact/internal/infrastructure/eventpublisher/mocks"
	"github.com/iho/gotransact/internal/infrastructure/metrics"
	usecasemocks "github.com/iho/gotransact/internal/usecase/mocks"
)

var errBrokerDown = errors.New("broker unavailable")

func completedEvent(id string) *domain.TransactionResultEvent {
	at := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	return domain.CompletedEvent(id, 7, "ACC-123456", decimal.RequireFromString("100.50"), decimal.RequireFromString("1100.50"), at)
}

type publisherFixture struct {
	broker      *mocks.MockBroker
	deadLetters *usecasemocks.MockDeadLetterRepository
	metrics     *metrics.Metrics
	publisher   *Publisher
}

func newPublisherFixture(t *testing.T) *publisherFixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	f := &publisherFixture{
		broker:      mocks.NewMockBroker(ctrl),
		deadLetters: usecasemocks.NewMockDeadLetterRepository(usecasemocks.NewStore()),
		metrics:     metrics.NewWithRegisterer(prometheus.NewRegistry()),
	}
	f.publisher = NewPublisher(Config{
		Broker:        f.broker,
		DeadLetters:   f.deadLetters,
		Logger:        zerolog.Nop(),
		Metrics:       f.metrics,
		RetryAttempts: 3,
		RetryInterval: 0,
	})
	return f
}

func TestPublishResult_DeliversKeyedByTransactionID(t *testing.T) {
	f := newPublisherFixture(t)
	event := completedEvent("txn_01")

	f.broker.EXPECT().
		Send(gomock.Any(), DefaultTopic, "txn_01", gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, payload []byte) error {
			var decoded map[string]any
			require.NoError(t, json.Unmarshal(payload, &decoded))
			assert.Equal(t, "COMPLETED", decoded["finalStatus"])
			assert.Equal(t, "txn_01", decoded["transactionId"])
			return nil
		})

	f.publisher.PublishResult(context.Background(), event)

	size, err := f.publisher.DeadLetterQueueSize(context.Background(), "")
	require.NoError(t, err)
	assert.Zero(t, size)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.EventsPublished.WithLabelValues(DefaultTopic)))
}

func TestPublishResult_RetriesTransientFailures(t *testing.T) {
	f := newPublisherFixture(t)

	gomock.InOrder(
		f.broker.EXPECT().Send(gomock.Any(), DefaultTopic, "txn_02", gomock.Any()).Return(errBrokerDown),
		f.broker.EXPECT().Send(gomock.Any(), DefaultTopic, "txn_02", gomock.Any()).Return(errBrokerDown),
		f.broker.EXPECT().Send(gomock.Any(), DefaultTopic, "txn_02", gomock.Any()).Return(nil),
	)

	f.publisher.PublishResult(context.Background(), completedEvent("txn_02"))

	size, err := f.publisher.DeadLetterQueueSize(context.Background(), DefaultTopic)
	require.NoError(t, err)
	assert.Zero(t, size)
	assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.PublishAttempts.WithLabelValues(DefaultTopic, "error")))
}

func TestPublishResult_DeadLettersAfterRetriesExhausted(t *testing.T) {
	f := newPublisherFixture(t)
	event := completedEvent("txn_03")

	f.broker.EXPECT().
		Send(gomock.Any(), DefaultTopic, "txn_03", gomock.Any()).
		Return(errBrokerDown).
		Times(3)

	f.publisher.PublishResult(context.Background(), event)

	stored, err := f.deadLetters.ListByTopic(context.Background(), DefaultTopic)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.NotNil(t, stored[0].Error)
	assert.Contains(t, *stored[0].Error, "broker unavailable")
	assert.False(t, stored[0].CreatedAt.IsZero())

	// The stored payload reproduces the event exactly, money at two places.
	assert.Contains(t, stored[0].Payload, `"amount":100.50`)
	assert.Contains(t, stored[0].Payload, `"newBalance":1100.50`)

	var decoded domain.TransactionResultEvent
	require.NoError(t, json.Unmarshal([]byte(stored[0].Payload), &decoded))
	assert.Equal(t, event, &decoded)

	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.EventsDeadLettered.WithLabelValues(DefaultTopic)))
}

func TestPublishResult_FailedEventRoundTrip(t *testing.T) {
	f := newPublisherFixture(t)
	at := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	event := domain.FailedEvent("txn_04", nil, "ACC-123456", decimal.RequireFromString("-1500.00"),
		domain.NewInsufficientFundsError("ACC-123456", decimal.RequireFromString("1500"), decimal.RequireFromString("1000")), at)

	f.broker.EXPECT().Send(gomock.Any(), DefaultTopic, "txn_04", gomock.Any()).Return(errBrokerDown).Times(3)

	f.publisher.PublishResult(context.Background(), event)

	stored, err := f.deadLetters.ListByTopic(context.Background(), DefaultTopic)
	require.NoError(t, err)
	require.Len(t, stored, 1)

	assert.Contains(t, stored[0].Payload, `"amount":-1500.00`)

	var decoded domain.TransactionResultEvent
	require.NoError(t, json.Unmarshal([]byte(stored[0].Payload), &decoded))
	assert.Equal(t, event, &decoded)
	assert.Nil(t, decoded.ClientID)
	assert.Nil(t, decoded.NewBalance)
	assert.Equal(t, domain.StatusFailedInsufficientFunds, decoded.FinalStatus)
}

func TestPublishResult_DeadLetterWriteFailureIsSwallowed(t *testing.T) {
	f := newPublisherFixture(t)
	f.deadLetters.CreateFunc = func(ctx context.Context, msg *domain.DeadLetterMessage) error {
		return errors.New("database down")
	}

	f.broker.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errBrokerDown).Times(3)

	assert.NotPanics(t, func() {
		f.publisher.PublishResult(context.Background(), completedEvent("txn_05"))
	})
	assert.Zero(t, testutil.ToFloat64(f.metrics.EventsDeadLettered.WithLabelValues(DefaultTopic)))
}

func TestRetryDeadLetterMessages(t *testing.T) {
	f := newPublisherFixture(t)
	ctx := context.Background()

	good, _ := json.Marshal(completedEvent("txn_good"))
	stuck, _ := json.Marshal(completedEvent("txn_stuck"))
	reason := "broker unavailable"

	for _, payload := range []string{string(good), "{not json", string(stuck)} {
		require.NoError(t, f.deadLetters.Create(ctx, &domain.DeadLetterMessage{
			Topic: DefaultTopic, Payload: payload, Error: &reason, CreatedAt: time.Now(),
		}))
	}
	require.NoError(t, f.deadLetters.Create(ctx, &domain.DeadLetterMessage{
		Topic: "other-topic", Payload: string(good), CreatedAt: time.Now(),
	}))

	f.broker.EXPECT().Send(gomock.Any(), DefaultTopic, "txn_good", good).Return(nil)
	f.broker.EXPECT().Send(gomock.Any(), DefaultTopic, "txn_stuck", stuck).Return(errBrokerDown).Times(3)

	report, err := f.publisher.RetryDeadLetterMessages(ctx)
	require.NoError(t, err)
	assert.Equal(t, RetryReport{Topic: DefaultTopic, Scanned: 3, Redelivered: 1, Failed: 1, Skipped: 1}, report)

	remaining, err := f.publisher.DeadLetterQueueSize(ctx, DefaultTopic)
	require.NoError(t, err)
	assert.Equal(t, int64(2), remaining)

	total, err := f.publisher.DeadLetterQueueSize(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestRetryDeadLetterMessages_DeleteFailureKeepsRecord(t *testing.T) {
	f := newPublisherFixture(t)
	ctx := context.Background()

	payload, _ := json.Marshal(completedEvent("txn_06"))
	require.NoError(t, f.deadLetters.Create(ctx, &domain.DeadLetterMessage{
		Topic: DefaultTopic, Payload: string(payload), CreatedAt: time.Now(),
	}))
	f.deadLetters.DeleteFunc = func(ctx context.Context, id int64) error {
		return errors.New("delete failed")
	}

	f.broker.EXPECT().Send(gomock.Any(), DefaultTopic, "txn_06", gomock.Any()).Return(nil)

	report, err := f.publisher.RetryDeadLetterMessages(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Zero(t, report.Redelivered)
}

func TestRetryDeadLetterMessages_Empty(t *testing.T) {
	f := newPublisherFixture(t)

	report, err := f.publisher.RetryDeadLetterMessages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RetryReport{Topic: DefaultTopic}, report)
}

func TestNewPublisherDefaults(t *testing.T) {
	p := NewPublisher(Config{Logger: zerolog.Nop()})

	assert.Equal(t, DefaultTopic, p.Topic())
	assert.Equal(t, DefaultRetryAttempts, p.retryAttempts)
	assert.Equal(t, DefaultSendTimeout, p.sendTimeout)
}

func TestLogBrokerSend(t *testing.T) {
	broker := NewLogBroker(zerolog.Nop())
	assert.NoError(t, broker.Send(context.Background(), DefaultTopic, "txn_1", []byte(`{"ok":true}`)))
}
