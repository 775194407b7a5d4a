package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"bakery-chat/internal/metrics"
)

// KindTurnCompleted is enqueued after a chat turn has been persisted.
const KindTurnCompleted = "turn_completed"

var (
	// ErrQueueFull is returned when a local queue has no room left.
	ErrQueueFull = errors.New("job queue is full")
	// ErrQueueClosed is returned by Enqueue after Close.
	ErrQueueClosed = errors.New("job queue is closed")
)

// Job is a unit of background work.
type Job struct {
	ID             string    `json:"id"`
	Kind           string    `json:"kind"`
	ConversationID string    `json:"conversation_id"`
	TotalMessages  int       `json:"total_messages"`
	EnqueuedAt     time.Time `json:"enqueued_at"`
}

// Handler processes jobs.
type Handler interface {
	HandleJob(ctx context.Context, job Job) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, job Job) error

// HandleJob calls f.
func (f HandlerFunc) HandleJob(ctx context.Context, job Job) error {
	return f(ctx, job)
}

// Enqueuer accepts jobs without waiting for them to run.
type Enqueuer interface {
	Enqueue(ctx context.Context, job Job) error
}

// Queue is an Enqueuer with a worker pool lifecycle.
type Queue interface {
	Enqueuer
	// Start launches the workers. Jobs are handled until Close.
	Start(ctx context.Context, h Handler)
	// Close stops accepting jobs and waits for the workers to finish.
	Close() error
}

// Options configures the worker pool shared by both queue kinds.
type Options struct {
	Workers int
	// Timeout bounds a single job. Zero disables the bound.
	Timeout time.Duration
	// Buffer is the capacity of a local queue.
	Buffer int
}

func (o Options) workers() int {
	if o.Workers <= 0 {
		return 1
	}
	return o.Workers
}

type runner struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	timeout time.Duration
}

// run executes one job, recovering panics so a bad job cannot kill a worker.
func (r runner) run(ctx context.Context, h Handler, job Job) {
	ctx = context.WithoutCancel(ctx)
	var cancel context.CancelFunc
	if r.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	start := time.Now()
	status := "success"
	defer func() {
		if rec := recover(); rec != nil {
			status = "panic"
			r.logger.Error("job panicked", "job_id", job.ID, "kind", job.Kind, "panic", rec)
		}
		r.count(job.Kind, status)
	}()

	if err := h.HandleJob(ctx, job); err != nil {
		status = "error"
		if r.metrics != nil {
			r.metrics.Error("jobs")
		}
		r.logger.Warn("job failed", "job_id", job.ID, "kind", job.Kind, "conversation_id", job.ConversationID, "error", err)
		return
	}
	r.logger.Debug("job done", "job_id", job.ID, "kind", job.Kind, "duration", time.Since(start))
}

func (r runner) count(kind, status string) {
	if r.metrics == nil {
		return
	}
	r.metrics.Jobs.WithLabelValues(kind, status).Inc()
}
