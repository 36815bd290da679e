package queue

import (
	"context"
	"time"
)

// MessageInterface is a delivered job awaiting settlement. Workers depend on
// it instead of *Message so tests can record acks.
type MessageInterface interface {
	Ack() error
	Nack(requeue bool) error
	GetJob() *Job
}

// JobQueue carries momentum jobs between the API, the scheduler and workers.
type JobQueue interface {
	Enqueue(ctx context.Context, job *Job) error

	// Consume delivers jobs until ctx ends or the broker connection drops, at
	// which point both channels close. At most prefetchCount messages are
	// unacknowledged at once.
	Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error)

	Close() error
	HealthCheck(ctx context.Context) error
}

// DLQPurger removes dead-lettered jobs older than a retention window
type DLQPurger interface {
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error)
}
