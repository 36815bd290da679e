package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ErrQueueClosed is returned by HealthCheck when the connection is gone
var ErrQueueClosed = errors.New("queue connection closed")

// Default topology names.
const (
	DefaultQueueName           = "momentum_jobs"
	DefaultDLQName             = "momentum_jobs_dlq"
	DefaultExchangeName        = "momentum"
	DefaultDelayedExchangeName = "momentum_delayed"
)

const (
	jobsRoutingKey = "jobs"
	dlqRoutingKey  = "dlq"

	appID = "social-momentum"

	// bounds one PurgeOlderThan call
	maxPurgeBatch = 1000

	maxConnectDelay = 30 * time.Second
)

// RabbitMQQueue carries momentum jobs over a direct exchange. Retries are
// published to a delayed exchange when the broker has the
// rabbitmq_delayed_message_exchange plugin. Without it they are requeued
// until NotBefore passes.
type RabbitMQQueue struct {
	conn    *amqp.Connection
	mu      sync.Mutex // guards channel
	channel *amqp.Channel
	delayed bool
	names   topology
	logger  *zap.Logger
}

type topology struct {
	queue, dlq, exchange, delayedExchange string
}

// NewRabbitMQQueue dials amqpURL and declares the job topology.
func NewRabbitMQQueue(amqpURL string, logger *zap.Logger) (*RabbitMQQueue, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	q := &RabbitMQQueue{
		conn: conn,
		names: topology{
			queue:           DefaultQueueName,
			dlq:             DefaultDLQName,
			exchange:        DefaultExchangeName,
			delayedExchange: DefaultDelayedExchangeName,
		},
		logger: logger,
	}
	if err := q.declare(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return q, nil
}

// Connect retries NewRabbitMQQueue with exponential backoff to ride out
// broker startup. It gives up after attempts tries or when ctx ends.
func Connect(ctx context.Context, amqpURL string, attempts int, logger *zap.Logger) (*RabbitMQQueue, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	attempts = max(attempts, 1)

	delay := 2 * time.Second
	var lastErr error
	for attempt := 1; ; attempt++ {
		q, err := NewRabbitMQQueue(amqpURL, logger)
		if err == nil {
			return q, nil
		}
		lastErr = err
		if attempt == attempts {
			break
		}

		logger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", attempts),
			zap.Duration("retry_delay", delay),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay = min(delay*2, maxConnectDelay)
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", attempts, lastErr)
}

// declare sets up the exchanges, the job queue dead-lettering into the DLQ
// and their bindings. It owns q.channel.
func (q *RabbitMQQueue) declare() error {
	ch, err := q.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}

	// A missing plugin closes the channel, so it is probed on a throwaway one.
	q.delayed = q.declareDelayedExchange()

	n := q.names
	if err := ch.ExchangeDeclare(n.exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", n.exchange, err)
	}

	queues := []struct {
		name, key string
		args      amqp.Table
	}{
		{name: n.dlq, key: dlqRoutingKey},
		{name: n.queue, key: jobsRoutingKey, args: amqp.Table{
			"x-dead-letter-exchange":    n.exchange,
			"x-dead-letter-routing-key": dlqRoutingKey,
		}},
	}
	for _, qd := range queues {
		if _, err := ch.QueueDeclare(qd.name, true, false, false, false, qd.args); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", qd.name, err)
		}
		if err := ch.QueueBind(qd.name, qd.key, n.exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %s: %w", qd.name, err)
		}
	}

	if q.delayed {
		if err := ch.QueueBind(n.queue, jobsRoutingKey, n.delayedExchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %s to delayed exchange: %w", n.queue, err)
		}
	}

	q.channel = ch
	return nil
}

func (q *RabbitMQQueue) declareDelayedExchange() bool {
	probe, err := q.conn.Channel()
	if err != nil {
		return false
	}
	defer func() { _ = probe.Close() }()

	err = probe.ExchangeDeclare(q.names.delayedExchange, "x-delayed-message", true, false, false, false,
		amqp.Table{"x-delayed-type": "direct"})
	if err != nil {
		q.logger.Warn("delayed_exchange_unavailable", zap.Error(err))
		return false
	}
	return true
}

// Enqueue publishes job persistently. NotAfter becomes the message TTL and a
// future NotBefore routes through the delayed exchange when available.
func (q *RabbitMQQueue) Enqueue(ctx context.Context, job *Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID.String(),
		Type:         string(job.Type),
		AppId:        appID,
		Timestamp:    job.CreatedAt,
		Headers:      amqp.Table{"user_id": job.UserID.String()},
		Body:         body,
	}
	if job.NotAfter != nil {
		if ttl := time.Until(*job.NotAfter); ttl > 0 {
			msg.Expiration = strconv.FormatInt(ttl.Milliseconds(), 10)
		}
	}

	exchange := q.names.exchange
	if job.NotBefore != nil && q.delayed {
		if delay := time.Until(*job.NotBefore); delay > 0 {
			exchange = q.names.delayedExchange
			msg.Headers["x-delay"] = delay.Milliseconds()
		}
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.channel.PublishWithContext(ctx, exchange, jobsRoutingKey, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish %s job: %w", job.Type, err)
	}
	return nil
}

// Consume returns a channel of decoded jobs on a dedicated consumer channel.
// Undecodable bodies go to the DLQ, expired jobs are dropped and jobs with a
// future NotBefore are requeued. The caller acks each message.
func (q *RabbitMQQueue) Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error) {
	ch, err := q.conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create consumer channel: %w", err)
	}
	if err := ch.Qos(prefetchCount, 0, false); err != nil {
		_ = ch.Close()
		return nil, nil, fmt.Errorf("failed to set QoS: %w", err)
	}
	deliveries, err := ch.Consume(q.names.queue, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	msgs := make(chan *Message, prefetchCount)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		defer close(msgs)
		defer func() { _ = ch.Close() }()

		for {
			var d amqp.Delivery
			var ok bool
			select {
			case <-ctx.Done():
				return
			case d, ok = <-deliveries:
			}
			if !ok {
				errs <- errors.New("delivery channel closed")
				return
			}

			job, ready := q.admit(d)
			if !ready {
				continue
			}

			select {
			case <-ctx.Done():
				_ = d.Nack(false, true)
				return
			case msgs <- &Message{Job: job, DeliveryTag: d.DeliveryTag, Channel: ch}:
			}
		}
	}()

	return msgs, errs, nil
}

// admit decodes d and settles it itself when it should not reach a worker.
func (q *RabbitMQQueue) admit(d amqp.Delivery) (*Job, bool) {
	var job Job
	if err := json.Unmarshal(d.Body, &job); err != nil {
		q.logger.Warn("job_decode_failed", zap.String("message_id", d.MessageId), zap.Error(err))
		_ = d.Nack(false, false)
		return nil, false
	}
	switch {
	case job.IsExpired():
		q.logger.Info("job_expired_dropped",
			zap.String("job_id", job.ID.String()),
			zap.String("job_type", string(job.Type)),
		)
		_ = d.Ack(false)
		return nil, false
	case !job.ShouldProcess():
		_ = d.Nack(false, true)
		return nil, false
	}
	return &job, true
}

// Close closes the publish channel and the connection
func (q *RabbitMQQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	var errs []error
	if q.channel != nil {
		errs = append(errs, q.channel.Close())
	}
	if q.conn != nil {
		errs = append(errs, q.conn.Close())
	}
	return errors.Join(errs...)
}

// HealthCheck verifies the connection and publish channel are open
func (q *RabbitMQQueue) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.conn == nil || q.conn.IsClosed() || q.channel == nil || q.channel.IsClosed() {
		return ErrQueueClosed
	}
	return nil
}

// PurgeOlderThan drops dead-lettered jobs published more than retention ago.
// The DLQ is FIFO, so it stops at the first job that is still fresh.
func (q *RabbitMQQueue) PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	cutoff := time.Now().Add(-retention)
	purged := 0
	for purged < maxPurgeBatch {
		if err := ctx.Err(); err != nil {
			return purged, err
		}
		d, ok, err := q.channel.Get(q.names.dlq, false)
		if err != nil {
			return purged, fmt.Errorf("failed to read DLQ: %w", err)
		}
		if !ok {
			return purged, nil
		}
		if !d.Timestamp.IsZero() && d.Timestamp.After(cutoff) {
			if err := d.Nack(false, true); err != nil {
				return purged, fmt.Errorf("failed to return DLQ message: %w", err)
			}
			return purged, nil
		}
		if err := d.Ack(false); err != nil {
			return purged, fmt.Errorf("failed to drop DLQ message: %w", err)
		}
		purged++
	}
	return purged, nil
}

var (
	_ JobQueue  = (*RabbitMQQueue)(nil)
	_ DLQPurger = (*RabbitMQQueue)(nil)
)
