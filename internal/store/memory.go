package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"webhook-service/internal/models"
)

// MemoryStore is an in-memory Repository. Units of work are serialized by a
// single lock, which gives the same isolation the row locks give in PostgreSQL.
// Intended for development and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	data memoryData
}

var _ Repository = (*MemoryStore)(nil)

type operationKey struct {
	orderID int64
	opType  models.OperationType
}

type memoryData struct {
	events     map[string]models.Event
	orders     map[int64]models.Order
	operations map[operationKey]models.Operation

	nextEventID     int64
	nextOrderID     int64
	nextOperationID int64
}

// NewMemoryStore returns an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: memoryData{
			events:     make(map[string]models.Event),
			orders:     make(map[int64]models.Order),
			operations: make(map[operationKey]models.Operation),
		},
	}
}

func (d memoryData) clone() memoryData {
	c := d
	c.events = make(map[string]models.Event, len(d.events))
	for k, v := range d.events {
		c.events[k] = v
	}
	c.orders = make(map[int64]models.Order, len(d.orders))
	for k, v := range d.orders {
		c.orders[k] = v
	}
	c.operations = make(map[operationKey]models.Operation, len(d.operations))
	for k, v := range d.operations {
		c.operations[k] = v
	}
	return c
}

// RunInTx runs fn against a private copy of the data and swaps it in when fn
// returns nil.
func (m *MemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := m.commit(ctx, fn)
	if err != nil {
		return err
	}

	tx.hooks.run(ctx)
	return nil
}

func (m *MemoryStore) commit(ctx context.Context, fn func(ctx context.Context, tx Tx) error) (*memTx, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{data: m.data.clone()}
	if err := fn(ctx, tx); err != nil {
		return nil, err
	}
	m.data = tx.data
	return tx, nil
}

// GetEventByProviderID retrieves an event
func (m *MemoryStore) GetEventByProviderID(_ context.Context, providerEventID string) (*models.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.data.events[providerEventID]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

// CreateOrder creates a new order
func (m *MemoryStore) CreateOrder(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if order.Status == "" {
		order.Status = models.OrderStatusNew
	}
	m.data.nextOrderID++
	now := time.Now().UTC()
	order.ID = m.data.nextOrderID
	order.CreatedAt = now
	order.UpdatedAt = now
	m.data.orders[order.ID] = *order
	return nil
}

// GetOrderByID retrieves an order by ID
func (m *MemoryStore) GetOrderByID(_ context.Context, id int64) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.data.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

// ListOperationsByOrder retrieves the ledger entries of an order, newest first
func (m *MemoryStore) ListOperationsByOrder(_ context.Context, orderID int64) ([]models.Operation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ops []models.Operation
	for k, op := range m.data.operations {
		if k.orderID == orderID {
			ops = append(ops, op)
		}
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].ID > ops[j].ID })
	return ops, nil
}

// Ping always succeeds for the memory store
func (m *MemoryStore) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store
func (m *MemoryStore) Close() error { return nil }

// memTx implements Tx over a private copy of the store data
type memTx struct {
	data  memoryData
	hooks commitHooks
}

func (t *memTx) AfterCommit(fn func(ctx context.Context)) {
	t.hooks.AfterCommit(fn)
}

func (t *memTx) CreateEvent(_ context.Context, event *models.Event) error {
	if _, exists := t.data.events[event.ProviderEventID]; exists {
		return ErrDuplicateEvent
	}
	if event.Status == "" {
		event.Status = models.EventStatusNew
	}
	t.data.nextEventID++
	now := time.Now().UTC()
	event.ID = t.data.nextEventID
	event.CreatedAt = now
	event.UpdatedAt = now
	t.data.events[event.ProviderEventID] = *event
	return nil
}

func (t *memTx) LockEvent(_ context.Context, providerEventID string) (*models.Event, error) {
	e, ok := t.data.events[providerEventID]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (t *memTx) UpdateEventStatus(_ context.Context, eventID int64, status models.EventStatus) error {
	for k, e := range t.data.events {
		if e.ID == eventID {
			e.Status = status
			e.UpdatedAt = time.Now().UTC()
			t.data.events[k] = e
			return nil
		}
	}
	return ErrNotFound
}

func (t *memTx) LockOrder(_ context.Context, orderID string) (*models.Order, error) {
	id, ok := parseOrderID(orderID)
	if !ok {
		return nil, ErrNotFound
	}
	o, ok := t.data.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

func (t *memTx) UpdateOrderStatus(_ context.Context, orderID int64, status models.OrderStatus) error {
	o, ok := t.data.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	t.data.orders[orderID] = o
	return nil
}

func (t *memTx) CreateOperation(_ context.Context, op *models.Operation) error {
	key := operationKey{orderID: op.OrderID, opType: op.Type}
	if _, exists := t.data.operations[key]; exists {
		return ErrDuplicateOperation
	}
	t.data.nextOperationID++
	op.ID = t.data.nextOperationID
	op.CreatedAt = time.Now().UTC()
	t.data.operations[key] = *op
	return nil
}
