package eventpublisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/iho/gotransact/internal/domain"
	"github.com/iho/gotransact/internal/infrastructure/metrics"
	"github.com/iho/gotransact/internal/usecase"
)

const (
	DefaultTopic         = "transaction-results"
	DefaultRetryAttempts = 3
	DefaultRetryInterval = 200 * time.Millisecond
	DefaultSendTimeout   = 5 * time.Second
)

//go:generate mockgen -source=publisher.go -destination=mocks/mock_broker.go -package=mocks

// Broker delivers a serialized result event to a topic. The key selects the
// partition so that events for one transaction stay ordered.
type Broker interface {
	Send(ctx context.Context, topic, key string, payload []byte) error
}

// Config for Publisher.
type Config struct {
	Broker      Broker
	DeadLetters usecase.DeadLetterRepository
	Logger      zerolog.Logger
	Metrics     *metrics.Metrics

	Topic         string
	RetryAttempts int           // Total send attempts before dead-lettering
	RetryInterval time.Duration // Pause between attempts
	SendTimeout   time.Duration // Bound on a single send
}

// RetryReport summarizes one dead-letter redelivery pass.
type RetryReport struct {
	Topic       string `json:"topic"`
	Scanned     int    `json:"scanned"`
	Redelivered int    `json:"redelivered"`
	Failed      int    `json:"failed"`
	Skipped     int    `json:"skipped"`
}

// Publisher delivers result events with bounded retries and falls back to
// the dead-letter store. Delivery failures never reach the caller.
type Publisher struct {
	broker      Broker
	deadLetters usecase.DeadLetterRepository
	logger      zerolog.Logger
	metrics     *metrics.Metrics

	topic         string
	retryAttempts int
	retryInterval time.Duration
	sendTimeout   time.Duration

	now func() time.Time
}

// NewPublisher creates a new Publisher.
func NewPublisher(cfg Config) *Publisher {
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = DefaultRetryAttempts
	}
	if cfg.RetryInterval < 0 {
		cfg.RetryInterval = DefaultRetryInterval
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultSendTimeout
	}

	return &Publisher{
		broker:        cfg.Broker,
		deadLetters:   cfg.DeadLetters,
		logger:        cfg.Logger.With().Str("component", "event_publisher").Logger(),
		metrics:       cfg.Metrics,
		topic:         cfg.Topic,
		retryAttempts: cfg.RetryAttempts,
		retryInterval: cfg.RetryInterval,
		sendTimeout:   cfg.SendTimeout,
		now:           time.Now,
	}
}

// Topic returns the destination for result events.
func (p *Publisher) Topic() string {
	return p.topic
}

// PublishResult delivers the event keyed by its transaction id. When every
// attempt fails the serialized event is written to the dead-letter store.
func (p *Publisher) PublishResult(ctx context.Context, event *domain.TransactionResultEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).
			Str("transaction_id", event.TransactionID).
			Msg("failed to serialize result event")
		return
	}

	if err := p.send(ctx, event.TransactionID, payload); err != nil {
		p.logger.Error().Err(err).
			Str("transaction_id", event.TransactionID).
			Str("topic", p.topic).
			Int("attempts", p.retryAttempts).
			Msg("result event delivery exhausted retries")
		p.deadLetter(ctx, event.TransactionID, payload, err.Error())
		return
	}

	if p.metrics != nil {
		p.metrics.EventsPublished.WithLabelValues(p.topic).Inc()
	}

	p.logger.Info().
		Str("transaction_id", event.TransactionID).
		Str("status", string(event.FinalStatus)).
		Msg("result event published")
}

// DeadLetter stores the event without attempting delivery.
func (p *Publisher) DeadLetter(ctx context.Context, event *domain.TransactionResultEvent, reason string) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).
			Str("transaction_id", event.TransactionID).
			Msg("failed to serialize result event")
		return
	}

	p.deadLetter(ctx, event.TransactionID, payload, reason)
}

// RetryDeadLetterMessages redelivers every dead-letter record for the result
// topic. Delivered records are deleted; failed ones stay for the next pass.
// Records whose payload cannot be decoded are logged and skipped.
func (p *Publisher) RetryDeadLetterMessages(ctx context.Context) (RetryReport, error) {
	report := RetryReport{Topic: p.topic}

	messages, err := p.deadLetters.ListByTopic(ctx, p.topic)
	if err != nil {
		return report, fmt.Errorf("list dead letters: %w", err)
	}

	report.Scanned = len(messages)
	if report.Scanned == 0 {
		return report, nil
	}

	p.logger.Info().Int("count", report.Scanned).Msg("retrying dead-letter messages")

	for _, msg := range messages {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		var event domain.TransactionResultEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			report.Skipped++
			p.replayed("skipped")
			p.logger.Warn().Err(err).
				Int64("dead_letter_id", msg.ID).
				Msg("skipping undecodable dead-letter payload")
			continue
		}

		if err := p.send(ctx, event.TransactionID, []byte(msg.Payload)); err != nil {
			report.Failed++
			p.replayed("failed")
			p.logger.Warn().Err(err).
				Int64("dead_letter_id", msg.ID).
				Str("transaction_id", event.TransactionID).
				Msg("dead-letter redelivery failed")
			continue
		}

		if err := p.deadLetters.Delete(ctx, msg.ID); err != nil {
			// Delivered but still stored: the next pass sends it again.
			report.Failed++
			p.replayed("failed")
			p.logger.Error().Err(err).
				Int64("dead_letter_id", msg.ID).
				Msg("failed to delete redelivered dead-letter message")
			continue
		}

		report.Redelivered++
		p.replayed("redelivered")
	}

	p.logger.Info().
		Int("redelivered", report.Redelivered).
		Int("failed", report.Failed).
		Int("skipped", report.Skipped).
		Msg("dead-letter retry finished")

	return report, nil
}

// DeadLetterQueueSize counts pending dead-letter records. An empty topic
// counts every record.
func (p *Publisher) DeadLetterQueueSize(ctx context.Context, topic string) (int64, error) {
	if topic == "" {
		return p.deadLetters.Count(ctx)
	}
	return p.deadLetters.CountByTopic(ctx, topic)
}

func (p *Publisher) send(ctx context.Context, key string, payload []byte) error {
	attempt := 0
	operation := func() error {
		attempt++

		sendCtx, cancel := context.WithTimeout(ctx, p.sendTimeout)
		defer cancel()

		err := p.broker.Send(sendCtx, p.topic, key, payload)
		if err == nil {
			p.attempted("success")
			return nil
		}

		p.attempted("error")
		p.logger.Warn().Err(err).
			Str("transaction_id", key).
			Int("attempt", attempt).
			Int("max_attempts", p.retryAttempts).
			Msg("result event send failed")

		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.retryInterval), uint64(p.retryAttempts-1)),
		ctx,
	)

	return backoff.Retry(operation, policy)
}

func (p *Publisher) deadLetter(ctx context.Context, key string, payload []byte, reason string) {
	msg := &domain.DeadLetterMessage{
		Topic:     p.topic,
		Payload:   string(payload),
		Error:     &reason,
		CreatedAt: p.now().UTC(),
	}

	// The record must outlive a cancelled request or shutdown.
	if err := p.deadLetters.Create(context.WithoutCancel(ctx), msg); err != nil {
		p.logger.Error().Err(err).
			Str("transaction_id", key).
			Str("payload", msg.Payload).
			Msg("failed to persist dead-letter message")
		return
	}

	if p.metrics != nil {
		p.metrics.EventsDeadLettered.WithLabelValues(p.topic).Inc()
	}

	p.logger.Warn().
		Str("transaction_id", key).
		Int64("dead_letter_id", msg.ID).
		Str("reason", reason).
		Msg("result event dead-lettered")
}

func (p *Publisher) attempted(outcome string) {
	if p.metrics != nil {
		p.metrics.PublishAttempts.WithLabelValues(p.topic, outcome).Inc()
	}
}

func (p *Publisher) replayed(outcome string) {
	if p.metrics != nil {
		p.metrics.DeadLetterReplays.WithLabelValues(outcome).Inc()
	}
}
