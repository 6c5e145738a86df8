package domain

import "time"

// DeadLetterMessage is a result event that could not be delivered after all retries.
type DeadLetterMessage struct {
	ID        int64
	Topic     string
	Payload   string
	Error     *string
	CreatedAt time.Time
}
