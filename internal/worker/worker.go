package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"webhook-service/internal/backoff"
	"webhook-service/internal/models"
	"webhook-service/internal/redisclient"
	"webhook-service/internal/service"
	"webhook-service/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Outcome is the result of one task attempt
type Outcome string

const (
	OutcomeSucceeded      Outcome = "SUCCEEDED"
	OutcomeRetryScheduled Outcome = "RETRY_SCHEDULED"
	OutcomeAbandoned      Outcome = "ABANDONED"
	OutcomeFailed         Outcome = "FAILED"
)

// Dispatcher routes a stored event to its processor
type Dispatcher interface {
	ProcessEvent(ctx context.Context, providerEventID, eventType string) error
}

// Queue is the task source and retry scheduler
type Queue interface {
	Dequeue(ctx context.Context) (*models.Task, error)
	Retry(ctx context.Context, task *models.Task, countdown time.Duration) error
}

// TaskWorker pulls event tasks and runs them with retry on transient upstream failures
type TaskWorker struct {
	dispatcher   Dispatcher
	queue        Queue
	backoff      *backoff.Calculator
	concurrency  int
	pollInterval time.Duration
	logger       *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTaskWorker creates a new task worker
func NewTaskWorker(
	dispatcher Dispatcher,
	queue Queue,
	calc *backoff.Calculator,
	concurrency int,
	pollInterval time.Duration,
) *TaskWorker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &TaskWorker{
		dispatcher:   dispatcher,
		queue:        queue,
		backoff:      calc,
		concurrency:  concurrency,
		pollInterval: pollInterval,
		logger:       util.GetLogger(),
	}
}

// RunTask makes one attempt at the task. Only an upstream HTTP failure with
// status 429 or 5xx is rescheduled; the queue refuses once retries are used up.
func (w *TaskWorker) RunTask(ctx context.Context, task *models.Task) Outcome {
	ctx, span := util.StartSpan(ctx, "TaskWorker.RunTask",
		attribute.String("task_id", task.ID),
		attribute.String("provider_event_id", task.ProviderEventID),
		attribute.Int("retries", task.Retries))
	defer span.End()

	start := time.Now()
	err := w.dispatcher.ProcessEvent(ctx, task.ProviderEventID, task.EventType)
	util.TaskProcessingLatency.Observe(time.Since(start).Seconds())

	outcome := w.classify(ctx, task, err)
	util.TaskOutcomesTotal.WithLabelValues(string(outcome)).Inc()
	if outcome != OutcomeSucceeded {
		util.RecordError(span, err)
	}
	return outcome
}

func (w *TaskWorker) classify(ctx context.Context, task *models.Task, err error) Outcome {
	if err == nil {
		return OutcomeSucceeded
	}

	var httpErr *service.HTTPError
	if !errors.As(err, &httpErr) || !httpErr.Retryable() {
		w.logger.Error("Task failed",
			zap.String("task_id", task.ID),
			zap.String("provider_event_id", task.ProviderEventID),
			zap.String("event_type", task.EventType),
			zap.Error(err))
		return OutcomeFailed
	}

	attempt := task.Retries + 1
	countdown := w.backoff.Delay(attempt)

	w.logger.Warn(fmt.Sprintf("Upstream returned %d, retrying in %s (attempt %d of %d)",
		httpErr.StatusCode, countdown, attempt, task.MaxRetries),
		zap.Int("status_code", httpErr.StatusCode),
		zap.String("task_id", task.ID),
		zap.Duration("countdown", countdown),
		zap.Int("attempt", attempt),
		zap.Int("max_retries", task.MaxRetries))

	if err := w.queue.Retry(ctx, task, countdown); err != nil {
		if errors.Is(err, redisclient.ErrMaxRetriesExceeded) {
			w.logger.Error("Task abandoned, max retries exceeded",
				zap.String("task_id", task.ID),
				zap.String("provider_event_id", task.ProviderEventID),
				zap.Int("retries", task.Retries))
			return OutcomeAbandoned
		}
		w.logger.Error("Failed to reschedule task",
			zap.String("task_id", task.ID),
			zap.Error(err))
		return OutcomeFailed
	}

	util.TaskRetryDelay.Observe(countdown.Seconds())
	return OutcomeRetryScheduled
}

// Start launches the polling loops. It returns immediately.
func (w *TaskWorker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	w.logger.Info("Starting task worker", zap.Int("concurrency", w.concurrency))
	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.loop(ctx, i)
	}
}

// Stop cancels the polling loops and waits for in-flight tasks to finish.
// A claimed task always runs to completion.
func (w *TaskWorker) Stop() {
	w.logger.Info("Stopping task worker...")
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

func (w *TaskWorker) loop(ctx context.Context, id int) {
	defer w.wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}

		task, err := w.queue.Dequeue(ctx)
		if err != nil {
			if !errors.Is(err, redisclient.ErrQueueEmpty) && ctx.Err() == nil {
				w.logger.Error("Failed to dequeue task", zap.Int("worker", id), zap.Error(err))
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.pollInterval):
			}
			continue
		}

		// The task is already off the queue, so cancelling it would lose it.
		w.RunTask(context.WithoutCancel(ctx), task)
	}
}
