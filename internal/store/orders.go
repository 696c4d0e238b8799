package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"webhook-service/internal/models"
)

const orderColumns = `id, customer_id, amount, status, created_at, updated_at`

// CreateOrder creates a new order
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.Status == "" {
		order.Status = models.OrderStatusNew
	}

	query := `
		INSERT INTO orders (customer_id, amount, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, order, query,
		order.CustomerID, order.Amount, order.Status)
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// LockOrder loads an order with FOR UPDATE
func (t *pgTx) LockOrder(ctx context.Context, orderID string) (*models.Order, error) {
	id, ok := parseOrderID(orderID)
	if !ok {
		return nil, ErrNotFound
	}

	var order models.Order
	err := t.tx.GetContext(ctx, &order,
		"SELECT "+orderColumns+" FROM orders WHERE id = $1 FOR UPDATE", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}
	return &order, nil
}

// UpdateOrderStatus updates order status
func (t *pgTx) UpdateOrderStatus(ctx context.Context, orderID int64, status models.OrderStatus) error {
	_, err := t.tx.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2",
		status, orderID)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return nil
}

// CreateOperation appends a ledger entry. The (order_id, type) constraint makes
// a repeated insert return ErrDuplicateOperation instead of aborting the transaction.
func (t *pgTx) CreateOperation(ctx context.Context, op *models.Operation) error {
	query := `
		INSERT INTO operations (customer_id, order_id, type, amount)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (order_id, type) DO NOTHING
		RETURNING id, created_at`

	err := t.tx.GetContext(ctx, op, query, op.CustomerID, op.OrderID, op.Type, op.Amount)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrDuplicateOperation
	}
	if err != nil {
		return fmt.Errorf("failed to insert operation: %w", err)
	}
	return nil
}

// ListOperationsByOrder retrieves the ledger entries of an order
func (s *Store) ListOperationsByOrder(ctx context.Context, orderID int64) ([]models.Operation, error) {
	var ops []models.Operation
	err := s.db.SelectContext(ctx, &ops,
		"SELECT id, customer_id, order_id, type, amount, created_at FROM operations WHERE order_id = $1 ORDER BY created_at DESC",
		orderID)
	return ops, err
}
