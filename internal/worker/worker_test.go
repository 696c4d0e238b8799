package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"webhook-service/internal/backoff"
	"webhook-service/internal/models"
	"webhook-service/internal/redisclient"
	"webhook-service/internal/service"
	"webhook-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeDispatcher struct {
	mu    sync.Mutex
	err   error
	calls []string
}

func (d *fakeDispatcher) ProcessEvent(_ context.Context, providerEventID, _ string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, providerEventID)
	return d.err
}

func (d *fakeDispatcher) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

type retryCall struct {
	task      models.Task
	countdown time.Duration
}

// fakeQueue mirrors the ceiling check of the Redis queue
type fakeQueue struct {
	mu      sync.Mutex
	pending []*models.Task
	retries []retryCall
	failErr error
}

func (q *fakeQueue) Dequeue(_ context.Context) (*models.Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil, redisclient.ErrQueueEmpty
	}
	task := q.pending[0]
	q.pending = q.pending[1:]
	return task, nil
}

func (q *fakeQueue) Enqueue(_ context.Context, task *models.Task, _ time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if task.ID == "" {
		task.ID = fmt.Sprintf("task-%d", len(q.pending)+1)
	}
	q.pending = append(q.pending, task)
	return nil
}

func (q *fakeQueue) Retry(_ context.Context, task *models.Task, countdown time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.failErr != nil {
		return q.failErr
	}
	if task.Retries >= task.MaxRetries {
		return redisclient.ErrMaxRetriesExceeded
	}
	next := *task
	next.Retries++
	q.retries = append(q.retries, retryCall{task: next, countdown: countdown})
	return nil
}

func newTestWorker(d Dispatcher, q Queue) (*TaskWorker, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	w := NewTaskWorker(d, q, backoff.NewCalculator(2*time.Second), 1, 10*time.Millisecond)
	w.logger = zap.New(core)
	return w, logs
}

func TestRunTask_Succeeded(t *testing.T) {
	q := &fakeQueue{}
	w, _ := newTestWorker(&fakeDispatcher{}, q)

	outcome := w.RunTask(context.Background(), &models.Task{ID: "t1", ProviderEventID: "evt-1", MaxRetries: 5})

	assert.Equal(t, OutcomeSucceeded, outcome)
	assert.Empty(t, q.retries)
}

func TestRunTask_RetryableStatuses(t *testing.T) {
	for _, status := range []int{429, 500, 502, 503} {
		t.Run(fmt.Sprint(status), func(t *testing.T) {
			q := &fakeQueue{}
			d := &fakeDispatcher{err: fmt.Errorf("charge: %w", &service.HTTPError{StatusCode: status, URL: "http://psp"})}
			w, logs := newTestWorker(d, q)

			outcome := w.RunTask(context.Background(), &models.Task{ID: "t1", ProviderEventID: "evt-1", Retries: 1, MaxRetries: 5})

			assert.Equal(t, OutcomeRetryScheduled, outcome)
			require.Len(t, q.retries, 1)
			assert.Equal(t, 2, q.retries[0].task.Retries)
			assert.GreaterOrEqual(t, q.retries[0].countdown, 8*time.Second)
			assert.Less(t, q.retries[0].countdown, 9*time.Second)

			warns := logs.FilterLevelExact(zapcore.WarnLevel).All()
			require.Len(t, warns, 1)
			assert.Contains(t, warns[0].Message, "attempt 2 of 5")
			assert.Contains(t, warns[0].Message, fmt.Sprint(status))
			fields := warns[0].ContextMap()
			assert.Equal(t, int64(status), fields["status_code"])
			assert.Equal(t, "t1", fields["task_id"])
			assert.Contains(t, fields, "countdown")
		})
	}
}

func TestRunTask_NonRetryableFails(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"client error", &service.HTTPError{StatusCode: 400}},
		{"not found", &service.HTTPError{StatusCode: 404}},
		{"unknown type", fmt.Errorf("%w: %q", service.ErrUnknownEventType, "payout.paid")},
		{"plain error", errors.New("connection reset")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &fakeQueue{}
			w, logs := newTestWorker(&fakeDispatcher{err: tt.err}, q)

			outcome := w.RunTask(context.Background(), &models.Task{ID: "t1", MaxRetries: 5})

			assert.Equal(t, OutcomeFailed, outcome)
			assert.Empty(t, q.retries)
			assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
		})
	}
}

func TestRunTask_AbandonedAtCeiling(t *testing.T) {
	q := &fakeQueue{}
	d := &fakeDispatcher{err: &service.HTTPError{StatusCode: 503}}
	w, _ := newTestWorker(d, q)

	outcome := w.RunTask(context.Background(), &models.Task{ID: "t1", Retries: 5, MaxRetries: 5})

	assert.Equal(t, OutcomeAbandoned, outcome)
	assert.Empty(t, q.retries)
}

func TestRunTask_RescheduleErrorFails(t *testing.T) {
	q := &fakeQueue{failErr: errors.New("redis down")}
	w, _ := newTestWorker(&fakeDispatcher{err: &service.HTTPError{StatusCode: 500}}, q)

	outcome := w.RunTask(context.Background(), &models.Task{ID: "t1", MaxRetries: 5})

	assert.Equal(t, OutcomeFailed, outcome)
}

func TestStartStop_DrainsQueue(t *testing.T) {
	q := &fakeQueue{pending: []*models.Task{
		{ID: "t1", ProviderEventID: "evt-1"},
		{ID: "t2", ProviderEventID: "evt-2"},
	}}
	d := &fakeDispatcher{}
	w, _ := newTestWorker(d, q)

	w.Start(context.Background())
	assert.Eventually(t, func() bool { return d.callCount() == 2 }, time.Second, 5*time.Millisecond)
	w.Stop()
}

// blockingDispatcher holds the first call until release is closed or ctx ends
type blockingDispatcher struct {
	started chan struct{}
	release chan struct{}
	ctxErr  chan error
}

func (d *blockingDispatcher) ProcessEvent(ctx context.Context, _, _ string) error {
	close(d.started)
	select {
	case <-d.release:
	case <-ctx.Done():
	}
	d.ctxErr <- ctx.Err()
	return ctx.Err()
}

func TestStop_InFlightTaskRunsToCompletion(t *testing.T) {
	q := &fakeQueue{pending: []*models.Task{{ID: "t1", ProviderEventID: "evt-1", MaxRetries: 5}}}
	d := &blockingDispatcher{
		started: make(chan struct{}),
		release: make(chan struct{}),
		ctxErr:  make(chan error, 1),
	}
	w, logs := newTestWorker(d, q)

	w.Start(context.Background())
	<-d.started

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a task was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(d.release)
	<-stopped

	assert.NoError(t, <-d.ctxErr)
	assert.Empty(t, q.pending)
	assert.Empty(t, q.retries)
	assert.Zero(t, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

type unavailableProcessor struct{}

func (unavailableProcessor) Process(context.Context, string) error {
	return &service.HTTPError{StatusCode: 503, URL: "http://ledger"}
}

func TestRunTask_UpstreamUnavailableThroughEventService(t *testing.T) {
	repo := store.NewMemoryStore()
	q := &fakeQueue{}
	events := service.NewEventService(repo, q, service.Processors{Charge: unavailableProcessor{}}, 5)
	w, logs := newTestWorker(events, q)
	ctx := context.Background()

	_, err := events.Intake(ctx, service.IntakeRequest{
		ProviderEventID: "evt-1",
		EventType:       models.ProviderEventChargeSucceeded,
		OrderID:         "1",
		Payload:         []byte(`{}`),
	})
	require.NoError(t, err)

	task, err := q.Dequeue(ctx)
	require.NoError(t, err)

	outcome := w.RunTask(ctx, task)

	assert.Equal(t, OutcomeRetryScheduled, outcome)
	warns := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warns, 1)
	assert.Contains(t, warns[0].Message, "attempt 1 of 5")
	require.Len(t, q.retries, 1)
	assert.Equal(t, 1, q.retries[0].task.Retries)

	event, err := repo.GetEventByProviderID(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusNew, event.Status)
}
