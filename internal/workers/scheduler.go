package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/social-momentum/internal/metrics"
	"github.com/benvon/social-momentum/internal/queue"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduling windows.
const (
	// ActiveWindow selects users seen recently enough to be worth a run
	ActiveWindow = 30 * 24 * time.Hour
	// runTTL drops scheduled runs that were not picked up in time
	runTTL = 6 * time.Hour
)

// ActiveUserLister lists users seen since a point in time
type ActiveUserLister interface {
	ListActiveUserIDs(ctx context.Context, since time.Time) ([]uuid.UUID, error)
}

// Scheduler enqueues periodic momentum runs for active users
type Scheduler struct {
	jobQueue queue.JobQueue
	users    ActiveUserLister
	spec     string
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewScheduler creates a scheduler firing on spec, a six-field cron
// expression with seconds.
func NewScheduler(jobQueue queue.JobQueue, users ActiveUserLister, spec string, m *metrics.Metrics, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		jobQueue: jobQueue,
		users:    users,
		spec:     spec,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// Start runs the cron loop until ctx is cancelled, waiting for an in-flight
// tick to finish before returning.
func (s *Scheduler) Start(ctx context.Context) error {
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLogger(cron.PrintfLogger(zap.NewStdLog(s.logger))),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(s.spec, func() {
		if _, err := s.ScheduleRuns(ctx); err != nil {
			s.logger.Error("schedule_runs_failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.spec, err)
	}

	c.Start()
	s.logger.Info("scheduler_started", zap.String("schedule", s.spec))
	<-ctx.Done()
	<-c.Stop().Done()
	return ctx.Err()
}

// ScheduleRuns enqueues one momentum run per active user and returns how many
// were enqueued. Per-user enqueue failures are logged and skipped.
func (s *Scheduler) ScheduleRuns(ctx context.Context) (int, error) {
	now := s.now()
	userIDs, err := s.users.ListActiveUserIDs(ctx, now.Add(-ActiveWindow))
	if err != nil {
		return 0, fmt.Errorf("failed to list active users: %w", err)
	}

	scheduled := 0
	for _, userID := range userIDs {
		job := queue.NewJob(queue.JobTypeMomentumRun, userID)
		notAfter := now.Add(runTTL)
		job.NotAfter = &notAfter

		if err := s.jobQueue.Enqueue(ctx, job); err != nil {
			s.logger.Warn("failed_to_schedule_momentum_run",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
			continue
		}
		scheduled++
		s.metrics.RecordJob(metrics.JobScheduled)
	}

	s.logger.Info("scheduled_momentum_runs",
		zap.Int("user_count", len(userIDs)),
		zap.Int("scheduled", scheduled),
	)
	return scheduled, nil
}

// ValidateSchedule reports whether spec parses as a six-field cron expression
func ValidateSchedule(spec string) error {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	_, err := parser.Parse(spec)
	return err
}
