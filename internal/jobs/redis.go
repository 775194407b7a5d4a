package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"bakery-chat/internal/cache"
	"bakery-chat/internal/metrics"
)

// DefaultRedisKey is the list holding pending jobs.
const DefaultRedisKey = "bakery-chat:jobs"

// RedisQueue keeps pending jobs in a Redis list so several processes can
// share the work. Producers LPUSH and workers BRPOP.
type RedisQueue struct {
	redis   *cache.Redis
	key     string
	workers int
	poll    time.Duration
	runner  runner
	logger  *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	closed bool
	wg     sync.WaitGroup
}

var _ Queue = (*RedisQueue)(nil)

// NewRedis creates a queue backed by the list at key.
func NewRedis(r *cache.Redis, key string, opts Options, logger *slog.Logger, m *metrics.Metrics) *RedisQueue {
	if key == "" {
		key = DefaultRedisKey
	}
	logger = logger.With("component", "jobs", "queue", "redis")
	return &RedisQueue{
		redis:   r,
		key:     key,
		workers: opts.workers(),
		poll:    time.Second,
		runner:  runner{logger: logger, metrics: m, timeout: opts.Timeout},
		logger:  logger,
	}
}

// Enqueue pushes job onto the list.
func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if closed {
		return ErrQueueClosed
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}
	if err := q.redis.PushJSON(ctx, q.key, job); err != nil {
		q.runner.count(job.Kind, "dropped")
		return err
	}
	return nil
}

// Start launches the workers.
func (q *RedisQueue) Start(ctx context.Context, h Handler) {
	runCtx, cancel := context.WithCancel(ctx)
	q.mu.Lock()
	q.cancel = cancel
	q.mu.Unlock()

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			q.work(runCtx, h)
		}()
	}
	q.logger.Info("job workers started", "workers", q.workers, "key", q.key)
}

func (q *RedisQueue) work(ctx context.Context, h Handler) {
	for ctx.Err() == nil {
		var job Job
		ok, err := q.redis.PopJSON(ctx, q.key, q.poll, &job)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			q.logger.Warn("pop job failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(q.poll):
			}
			continue
		}
		if !ok {
			continue
		}
		q.runner.run(ctx, h, job)
	}
}

// Close stops the workers after their current job. Jobs still in the list
// stay there for the next process.
func (q *RedisQueue) Close() error {
	q.mu.Lock()
	q.closed = true
	cancel := q.cancel
	q.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	q.wg.Wait()
	return nil
}
