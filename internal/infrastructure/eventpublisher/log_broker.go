package eventpublisher

import (
	"context"

	"github.com/rs/zerolog"
)

// LogBroker is a simple broker that logs events.
type LogBroker struct {
	logger zerolog.Logger
}

// NewLogBroker creates a new LogBroker.
func NewLogBroker(logger zerolog.Logger) *LogBroker {
	return &LogBroker{logger: logger}
}

// Send logs the event.
func (b *LogBroker) Send(ctx context.Context, topic, key string, payload []byte) error {
	b.logger.Info().
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("EVENT PUBLISHED")

	return nil
}
