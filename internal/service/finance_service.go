package service

import (
	"context"
	"errors"
	"fmt"

	"webhook-service/internal/models"
	"webhook-service/internal/store"
	"webhook-service/internal/util"

	"go.uber.org/zap"
)

// FinanceService writes ledger operations inside a caller's unit of work
type FinanceService struct {
	logger *zap.Logger
}

// NewFinanceService creates a new finance service
func NewFinanceService() *FinanceService {
	return &FinanceService{logger: util.GetLogger()}
}

// AddCharge records a CHARGE operation for the full order amount.
// A charge already recorded for the order is logged and (nil, nil) is returned.
func (s *FinanceService) AddCharge(ctx context.Context, tx store.Tx, order *models.Order) (*models.Operation, error) {
	op := &models.Operation{
		CustomerID: order.CustomerID,
		OrderID:    order.ID,
		Type:       models.OperationTypeCharge,
		Amount:     order.Amount,
	}
	return s.create(ctx, tx, op)
}

// MakeRefund records a REFUND operation with the negated order amount.
// A refund already recorded for the order is logged and (nil, nil) is returned.
func (s *FinanceService) MakeRefund(ctx context.Context, tx store.Tx, order *models.Order) (*models.Operation, error) {
	op := &models.Operation{
		CustomerID: order.CustomerID,
		OrderID:    order.ID,
		Type:       models.OperationTypeRefund,
		Amount:     refundAmount(order.Amount),
	}
	return s.create(ctx, tx, op)
}

func (s *FinanceService) create(ctx context.Context, tx store.Tx, op *models.Operation) (*models.Operation, error) {
	err := tx.CreateOperation(ctx, op)
	if errors.Is(err, store.ErrDuplicateOperation) {
		s.logger.Warn("Operation already exists",
			zap.Int64("order_id", op.OrderID),
			zap.String("type", string(op.Type)))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s operation: %w", op.Type, err)
	}

	util.OperationsCreatedTotal.WithLabelValues(string(op.Type)).Inc()
	return op, nil
}

// refundAmount keeps amounts that are already negative
func refundAmount(amount models.Money) models.Money {
	if amount.IsNeg() {
		return amount
	}
	return amount.Neg()
}
