package store

import (
	"context"
	"errors"

	"webhook-service/internal/models"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrDuplicateEvent     = errors.New("event already exists")
	ErrDuplicateOperation = errors.New("operation already exists")
)

// Tx is the set of primitives available inside one unit of work.
// Lock* methods hold a row-level write lock until the unit of work ends.
type Tx interface {
	CreateEvent(ctx context.Context, event *models.Event) error
	LockEvent(ctx context.Context, providerEventID string) (*models.Event, error)
	UpdateEventStatus(ctx context.Context, eventID int64, status models.EventStatus) error

	LockOrder(ctx context.Context, orderID string) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status models.OrderStatus) error

	CreateOperation(ctx context.Context, op *models.Operation) error

	// AfterCommit registers fn to run once the unit of work has committed.
	// Hooks are discarded on rollback.
	AfterCommit(fn func(ctx context.Context))
}

// Repository is implemented by the PostgreSQL Store and the MemoryStore
type Repository interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	GetEventByProviderID(ctx context.Context, providerEventID string) (*models.Event, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	ListOperationsByOrder(ctx context.Context, orderID int64) ([]models.Operation, error)

	Ping(ctx context.Context) error
	Close() error
}

// commitHooks collects post-commit callbacks for a unit of work
type commitHooks struct {
	fns []func(ctx context.Context)
}

func (h *commitHooks) AfterCommit(fn func(ctx context.Context)) {
	h.fns = append(h.fns, fn)
}

func (h *commitHooks) run(ctx context.Context) {
	for _, fn := range h.fns {
		fn(ctx)
	}
}
