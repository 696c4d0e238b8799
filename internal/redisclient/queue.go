package redisclient

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"webhook-service/internal/models"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

//go:embed scripts/claim_task.lua
var claimTaskScript string

var (
	ErrQueueEmpty         = errors.New("no task is due")
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)

// TaskQueue is a delayed task queue backed by a sorted set of task ids scored
// by run-at time and a hash holding the task payloads.
type TaskQueue struct {
	rdb          *redis.Client
	scheduledKey string
	payloadKey   string
	claimScript  *redis.Script
	now          func() time.Time
}

// NewTaskQueue creates a queue with keys namespaced by name
func NewTaskQueue(c *Client, name string) *TaskQueue {
	return &TaskQueue{
		rdb:          c.rdb,
		scheduledKey: fmt.Sprintf("tasks:%s:scheduled", name),
		payloadKey:   fmt.Sprintf("tasks:%s:payload", name),
		claimScript:  redis.NewScript(claimTaskScript),
		now:          time.Now,
	}
}

// Enqueue schedules task to become due after countdown
func (q *TaskQueue) Enqueue(ctx context.Context, task *models.Task, countdown time.Duration) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = q.now().UTC()
	}

	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	runAt := q.now().Add(countdown)

	pipe := q.rdb.TxPipeline()
	pipe.HSet(ctx, q.payloadKey, task.ID, payload)
	pipe.ZAdd(ctx, q.scheduledKey, &redis.Z{Score: float64(runAt.UnixMilli()), Member: task.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to enqueue task %s: %w", task.ID, err)
	}
	return nil
}

// Retry reschedules a claimed task. Once the task has used MaxRetries
// retries it is not rescheduled and ErrMaxRetriesExceeded is returned.
func (q *TaskQueue) Retry(ctx context.Context, task *models.Task, countdown time.Duration) error {
	if task.Retries >= task.MaxRetries {
		return fmt.Errorf("task %s after %d retries: %w", task.ID, task.Retries, ErrMaxRetriesExceeded)
	}

	next := *task
	next.Retries++
	return q.Enqueue(ctx, &next, countdown)
}

// Dequeue claims the next due task, or returns ErrQueueEmpty
func (q *TaskQueue) Dequeue(ctx context.Context) (*models.Task, error) {
	res, err := q.claimScript.Run(ctx, q.rdb,
		[]string{q.scheduledKey, q.payloadKey}, q.now().UnixMilli()).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrQueueEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("claim task script failed: %w", err)
	}

	payload, ok := res.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected script result type %T", res)
	}

	var task models.Task
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	return &task, nil
}

// Len returns the number of scheduled tasks, due or not
func (q *TaskQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.ZCard(ctx, q.scheduledKey).Result()
}
