package workers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benvon/social-momentum/internal/models"
	"github.com/benvon/social-momentum/internal/queue"
	"github.com/google/uuid"
)

// mockAgent is a mock implementation of AgentRunner
type mockAgent struct {
	executeFunc  func(ctx context.Context, userID uuid.UUID) (*models.AINudge, error)
	outcomesFunc func(ctx context.Context, userID uuid.UUID) (int, error)
}

func (m *mockAgent) Execute(ctx context.Context, userID uuid.UUID) (*models.AINudge, error) {
	if m.executeFunc != nil {
		return m.executeFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockAgent) MeasureOutcomes(ctx context.Context, userID uuid.UUID) (int, error) {
	if m.outcomesFunc != nil {
		return m.outcomesFunc(ctx, userID)
	}
	return 0, nil
}

var _ AgentRunner = (*mockAgent)(nil)

// mockJobQueue records enqueued jobs
type mockJobQueue struct {
	mu          sync.Mutex
	enqueued    []*queue.Job
	enqueueFunc func(ctx context.Context, job *queue.Job) error
}

func (m *mockJobQueue) Enqueue(ctx context.Context, job *queue.Job) error {
	if m.enqueueFunc != nil {
		if err := m.enqueueFunc(ctx, job); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enqueued = append(m.enqueued, job)
	return nil
}

func (m *mockJobQueue) Consume(ctx context.Context, prefetchCount int) (<-chan *queue.Message, <-chan error, error) {
	return nil, nil, errors.New("not implemented")
}

func (m *mockJobQueue) Close() error {
	return nil
}

func (m *mockJobQueue) HealthCheck(ctx context.Context) error {
	return nil
}

func (m *mockJobQueue) jobs() []*queue.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*queue.Job(nil), m.enqueued...)
}

var _ queue.JobQueue = (*mockJobQueue)(nil)

// mockMessage is a mock implementation of MessageInterface
type mockMessage struct {
	job     *queue.Job
	acked   bool
	nacked  bool
	requeue bool
}

func (m *mockMessage) Ack() error {
	m.acked = true
	return nil
}

func (m *mockMessage) Nack(requeue bool) error {
	m.nacked = true
	m.requeue = requeue
	return nil
}

func (m *mockMessage) GetJob() *queue.Job {
	return m.job
}

var _ queue.MessageInterface = (*mockMessage)(nil)

// mockUserLister is a mock implementation of ActiveUserLister
type mockUserLister struct {
	users []uuid.UUID
	err   error
	since time.Time
}

func (m *mockUserLister) ListActiveUserIDs(_ context.Context, since time.Time) ([]uuid.UUID, error) {
	m.since = since
	return m.users, m.err
}

var _ ActiveUserLister = (*mockUserLister)(nil)
