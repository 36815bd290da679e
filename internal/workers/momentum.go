package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/social-momentum/internal/logger"
	"github.com/benvon/social-momentum/internal/metrics"
	"github.com/benvon/social-momentum/internal/models"
	"github.com/benvon/social-momentum/internal/queue"
	"github.com/benvon/social-momentum/internal/services/momentum"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AgentRunner is the part of the momentum agent the worker drives
type AgentRunner interface {
	Execute(ctx context.Context, userID uuid.UUID) (*models.AINudge, error)
	MeasureOutcomes(ctx context.Context, userID uuid.UUID) (int, error)
}

// MomentumWorker processes agent jobs from the queue
type MomentumWorker struct {
	agent    AgentRunner
	jobQueue queue.JobQueue // for re-enqueueing jobs with delays
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewMomentumWorker creates a worker. jobQueue may be nil, in which case
// failed jobs are requeued immediately instead of after a backoff.
func NewMomentumWorker(agent AgentRunner, jobQueue queue.JobQueue, m *metrics.Metrics, log *zap.Logger) *MomentumWorker {
	if log == nil {
		log = zap.NewNop()
	}
	return &MomentumWorker{
		agent:    agent,
		jobQueue: jobQueue,
		metrics:  m,
		logger:   log,
		now:      time.Now,
	}
}

// ProcessJob runs one job and settles its message. A missing user is acked
// without retry; other failures are retried with backoff and dead-lettered
// once the retry budget is spent.
func (w *MomentumWorker) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	if job.IsExpired() {
		w.logger.Info("job_expired", zap.String("job_id", job.ID.String()))
		w.metrics.RecordJob(metrics.JobSkipped)
		return msg.Ack()
	}

	var err error
	switch job.Type {
	case queue.JobTypeMomentumRun:
		var nudge *models.AINudge
		nudge, err = w.agent.Execute(ctx, job.UserID)
		if err == nil {
			w.logger.Debug("momentum_job_done",
				zap.String("job_id", job.ID.String()),
				logger.UserID(job.UserID),
				zap.Bool("nudged", nudge != nil),
			)
		}

	case queue.JobTypeMeasureOutcomes:
		var resolved int
		resolved, err = w.agent.MeasureOutcomes(ctx, job.UserID)
		if err == nil {
			w.logger.Debug("outcome_job_done",
				zap.String("job_id", job.ID.String()),
				logger.UserID(job.UserID),
				zap.Int("resolved", resolved),
			)
		}

	default:
		w.metrics.RecordJob(metrics.JobDeadLettered)
		if nackErr := msg.Nack(false); nackErr != nil {
			w.logger.Warn("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	switch {
	case err == nil:
		w.metrics.RecordJob(metrics.JobProcessed)
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil

	case errors.Is(err, momentum.ErrUserNotFound):
		w.logger.Info("job_user_not_found", zap.String("job_id", job.ID.String()), logger.UserID(job.UserID))
		w.metrics.RecordJob(metrics.JobSkipped)
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil

	default:
		return w.handleJobError(ctx, msg, job, err)
	}
}

// handleJobError re-enqueues with exponential backoff while retries remain
func (w *MomentumWorker) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, err error) error {
	if !job.CanRetry() {
		w.logger.Error("job_dead_lettered",
			zap.String("job_id", job.ID.String()),
			zap.String("job_type", string(job.Type)),
			zap.Int("retries", job.RetryCount),
			logger.Error(err),
		)
		w.metrics.RecordJob(metrics.JobDeadLettered)
		if nackErr := msg.Nack(false); nackErr != nil {
			w.logger.Warn("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("job failed (max retries): %w", err)
	}

	w.metrics.RecordJob(metrics.JobRetried)
	if w.jobQueue == nil {
		if nackErr := msg.Nack(true); nackErr != nil {
			w.logger.Warn("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("job failed (will retry): %w", err)
	}

	delay := queue.RetryDelay(job.RetryCount)
	retry := job.Retry(w.now(), delay)
	if enqueueErr := w.jobQueue.Enqueue(ctx, retry); enqueueErr != nil {
		w.logger.Warn("job_reenqueue_failed", zap.String("job_id", job.ID.String()), zap.Error(enqueueErr))
		if nackErr := msg.Nack(true); nackErr != nil {
			w.logger.Warn("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("job failed, re-enqueue failed: %w", enqueueErr)
	}
	if ackErr := msg.Ack(); ackErr != nil {
		w.logger.Warn("job_ack_failed", zap.Error(ackErr))
	}

	w.logger.Warn("job_retry_scheduled",
		zap.String("job_id", job.ID.String()),
		zap.Int("attempt", retry.RetryCount),
		zap.Int("max_retries", job.MaxRetries),
		zap.Duration("delay", delay),
		logger.Error(err),
	)
	return fmt.Errorf("job failed (will retry): %w", err)
}
