package service

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"webhook-service/internal/models"
	"webhook-service/internal/store"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeNotifier struct {
	mu       sync.Mutex
	paid     []*models.OrderPaidEvent
	refunded []*models.OrderRefundedEvent
	disputes []*models.DisputeOpenedEvent
}

func (n *fakeNotifier) PublishOrderPaid(_ context.Context, e *models.OrderPaidEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paid = append(n.paid, e)
	return nil
}

func (n *fakeNotifier) PublishOrderRefunded(_ context.Context, e *models.OrderRefundedEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.refunded = append(n.refunded, e)
	return nil
}

func (n *fakeNotifier) PublishDisputeOpened(_ context.Context, e *models.DisputeOpenedEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.disputes = append(n.disputes, e)
	return nil
}

type fakeQueue struct {
	mu    sync.Mutex
	tasks []*models.Task
	err   error
}

func (q *fakeQueue) Enqueue(_ context.Context, task *models.Task, _ time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	task.ID = "task-" + strconv.Itoa(len(q.tasks)+1)
	q.tasks = append(q.tasks, task)
	return nil
}

type fixture struct {
	repo     *store.MemoryStore
	notifier *fakeNotifier
	logger   *zap.Logger
	logs     *observer.ObservedLogs
	finance  *FinanceService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	return &fixture{
		repo:     store.NewMemoryStore(),
		notifier: &fakeNotifier{},
		logger:   logger,
		logs:     logs,
		finance:  &FinanceService{logger: logger},
	}
}

func (f *fixture) chargeProcessor() *ChargeProcessor {
	return &ChargeProcessor{repo: f.repo, finance: f.finance, notifier: f.notifier, logger: f.logger}
}

func (f *fixture) disputeProcessor() *DisputeProcessor {
	return &DisputeProcessor{repo: f.repo, notifier: f.notifier, logger: f.logger}
}

func (f *fixture) refundProcessor() *RefundProcessor {
	return &RefundProcessor{repo: f.repo, finance: f.finance, notifier: f.notifier, logger: f.logger}
}

func (f *fixture) createOrder(t *testing.T, amount string, status models.OrderStatus) *models.Order {
	t.Helper()
	order := &models.Order{CustomerID: 7, Amount: models.MustParseMoney(amount), Status: status}
	require.NoError(t, f.repo.CreateOrder(context.Background(), order))
	return order
}

func (f *fixture) createEvent(t *testing.T, providerEventID, eventType, orderID string) {
	t.Helper()
	err := f.repo.RunInTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return tx.CreateEvent(ctx, &models.Event{
			ProviderEventID: providerEventID,
			EventType:       eventType,
			OrderID:         orderID,
			Payload:         []byte(`{}`),
		})
	})
	require.NoError(t, err)
}

func (f *fixture) eventStatus(t *testing.T, providerEventID string) models.EventStatus {
	t.Helper()
	event, err := f.repo.GetEventByProviderID(context.Background(), providerEventID)
	require.NoError(t, err)
	return event.Status
}

func (f *fixture) orderStatus(t *testing.T, id int64) models.OrderStatus {
	t.Helper()
	order, err := f.repo.GetOrderByID(context.Background(), id)
	require.NoError(t, err)
	return order.Status
}

func (f *fixture) operations(t *testing.T, orderID int64) []models.Operation {
	t.Helper()
	ops, err := f.repo.ListOperationsByOrder(context.Background(), orderID)
	require.NoError(t, err)
	return ops
}

func (f *fixture) errorLogs() int {
	return f.logs.FilterLevelExact(zapcore.ErrorLevel).Len()
}

func orderRef(o *models.Order) string {
	return strconv.FormatInt(o.ID, 10)
}
