package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"bakery-chat/internal/metrics"
)

// LocalQueue runs jobs in-process on a buffered channel.
type LocalQueue struct {
	ch      chan Job
	workers int
	runner  runner
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

var _ Queue = (*LocalQueue)(nil)

// NewLocal creates an in-process queue.
func NewLocal(opts Options, logger *slog.Logger, m *metrics.Metrics) *LocalQueue {
	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = 100
	}
	logger = logger.With("component", "jobs", "queue", "local")
	return &LocalQueue{
		ch:      make(chan Job, buffer),
		workers: opts.workers(),
		runner:  runner{logger: logger, metrics: m, timeout: opts.Timeout},
		logger:  logger,
	}
}

// Enqueue adds job without blocking. A full queue drops the job.
func (q *LocalQueue) Enqueue(_ context.Context, job Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.ch <- job:
		return nil
	default:
		q.logger.Warn("job queue full, dropping job", "kind", job.Kind, "conversation_id", job.ConversationID)
		q.runner.count(job.Kind, "dropped")
		return ErrQueueFull
	}
}

// Start launches the workers.
func (q *LocalQueue) Start(ctx context.Context, h Handler) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for job := range q.ch {
				q.runner.run(ctx, h, job)
			}
		}()
	}
	q.logger.Info("job workers started", "workers", q.workers)
}

// Close stops accepting jobs, drains the buffer and waits for the workers.
func (q *LocalQueue) Close() error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	q.mu.Unlock()
	q.wg.Wait()
	return nil
}
