package eventpublisher

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// deadLetterRetrier is the part of Publisher the retry job drives.
type deadLetterRetrier interface {
	RetryDeadLetterMessages(ctx context.Context) (RetryReport, error)
}

// RetryJob periodically redelivers dead-lettered result events.
type RetryJob struct {
	retrier  deadLetterRetrier
	logger   zerolog.Logger
	interval time.Duration
}

// NewRetryJob creates a new RetryJob.
func NewRetryJob(retrier deadLetterRetrier, interval time.Duration, logger zerolog.Logger) *RetryJob {
	if interval <= 0 {
		interval = time.Minute
	}

	return &RetryJob{
		retrier:  retrier,
		logger:   logger.With().Str("component", "dead_letter_retry_job").Logger(),
		interval: interval,
	}
}

// Start runs the job until the context is cancelled.
func (j *RetryJob) Start(ctx context.Context) error {
	j.logger.Info().Dur("interval", j.interval).Msg("dead-letter retry job started")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info().Msg("dead-letter retry job shutting down")
			return ctx.Err()
		case <-ticker.C:
			j.runOnce(ctx)
		}
	}
}

func (j *RetryJob) runOnce(ctx context.Context) {
	report, err := j.retrier.RetryDeadLetterMessages(ctx)
	if err != nil {
		j.logger.Error().Err(err).Msg("error retrying dead-letter messages")
		return
	}

	if report.Scanned > 0 {
		j.logger.Info().
			Int("scanned", report.Scanned).
			Int("redelivered", report.Redelivered).
			Msg("dead-letter retry pass complete")
	}
}
