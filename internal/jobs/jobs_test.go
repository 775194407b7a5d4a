package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bakery-chat/internal/cache"
	"bakery-chat/internal/logging"
	"bakery-chat/internal/metrics"
)

type recorder struct {
	mu   sync.Mutex
	jobs []Job
	done chan struct{}
}

func newRecorder(expect int) *recorder {
	return &recorder{done: make(chan struct{}, expect)}
}

func (r *recorder) HandleJob(_ context.Context, job Job) error {
	r.mu.Lock()
	r.jobs = append(r.jobs, job)
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}

func (r *recorder) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.done:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for job %d", i+1)
		}
	}
}

func TestLocalQueueRunsJobs(t *testing.T) {
	q := NewLocal(Options{Workers: 2, Buffer: 10, Timeout: time.Second}, logging.Discard(), nil)
	rec := newRecorder(3)
	q.Start(context.Background(), rec)

	for i := 1; i <= 3; i++ {
		require.NoError(t, q.Enqueue(context.Background(), Job{Kind: KindTurnCompleted, ConversationID: "c", TotalMessages: i * 2}))
	}
	rec.wait(t, 3)
	require.NoError(t, q.Close())

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.jobs, 3)
	for _, j := range rec.jobs {
		assert.NotEmpty(t, j.ID)
		assert.False(t, j.EnqueuedAt.IsZero())
	}
}

func TestLocalQueueDropsWhenFull(t *testing.T) {
	m := metrics.New("test", prometheus.NewRegistry())
	q := NewLocal(Options{Buffer: 1}, logging.Discard(), m)

	require.NoError(t, q.Enqueue(context.Background(), Job{Kind: KindTurnCompleted}))
	err := q.Enqueue(context.Background(), Job{Kind: KindTurnCompleted})
	assert.True(t, errors.Is(err, ErrQueueFull))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Jobs.WithLabelValues(KindTurnCompleted, "dropped")))
}

func TestLocalQueueCloseDrainsAndRejects(t *testing.T) {
	q := NewLocal(Options{Buffer: 5}, logging.Discard(), nil)
	rec := newRecorder(2)
	require.NoError(t, q.Enqueue(context.Background(), Job{Kind: "a"}))
	require.NoError(t, q.Enqueue(context.Background(), Job{Kind: "b"}))

	ctx, cancel := context.WithCancel(context.Background())
	q.Start(ctx, rec)
	cancel()
	require.NoError(t, q.Close())

	rec.mu.Lock()
	assert.Len(t, rec.jobs, 2)
	rec.mu.Unlock()
	assert.True(t, errors.Is(q.Enqueue(context.Background(), Job{Kind: "c"}), ErrQueueClosed))
}

func TestRunnerSurvivesPanicAndCountsErrors(t *testing.T) {
	m := metrics.New("test", prometheus.NewRegistry())
	r := runner{logger: logging.Discard(), metrics: m, timeout: time.Second}

	assert.NotPanics(t, func() {
		r.run(context.Background(), HandlerFunc(func(context.Context, Job) error { panic("boom") }), Job{Kind: "k"})
	})
	r.run(context.Background(), HandlerFunc(func(context.Context, Job) error { return errors.New("fail") }), Job{Kind: "k"})

	var deadline bool
	r.run(context.Background(), HandlerFunc(func(ctx context.Context, _ Job) error {
		_, deadline = ctx.Deadline()
		return nil
	}), Job{Kind: "k"})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Jobs.WithLabelValues("k", "panic")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Jobs.WithLabelValues("k", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Jobs.WithLabelValues("k", "success")))
	assert.True(t, deadline)
}

func TestRedisQueueRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := cache.New(cache.Config{Addr: mr.Addr()}, logging.Discard())
	t.Cleanup(func() { _ = rc.Close() })

	q := NewRedis(rc, "test:jobs", Options{Workers: 1, Timeout: time.Second}, logging.Discard(), nil)

	require.NoError(t, q.Enqueue(context.Background(), Job{Kind: KindTurnCompleted, ConversationID: "abc", TotalMessages: 6}))
	n, err := rc.Len(context.Background(), "test:jobs")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	rec := newRecorder(1)
	q.Start(context.Background(), rec)
	rec.wait(t, 1)
	require.NoError(t, q.Close())

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.jobs, 1)
	assert.Equal(t, "abc", rec.jobs[0].ConversationID)
	assert.Equal(t, 6, rec.jobs[0].TotalMessages)
	assert.True(t, errors.Is(q.Enqueue(context.Background(), Job{}), ErrQueueClosed))
}
