package service

import (
	"context"
	"fmt"

	"webhook-service/internal/models"
	"webhook-service/internal/store"
	"webhook-service/internal/util"

	"go.uber.org/zap"
)

// OrderService exposes orders and their ledger
type OrderService struct {
	repo   store.Repository
	logger *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(repo store.Repository) *OrderService {
	return &OrderService{
		repo:   repo,
		logger: util.GetLogger(),
	}
}

// CreateOrderRequest represents a request to create an order
type CreateOrderRequest struct {
	CustomerID int64        `json:"customer_id" binding:"required"`
	Amount     models.Money `json:"amount"`
}

// CreateOrder creates a NEW order
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	if !req.Amount.IsPos() {
		return nil, ErrInvalidAmount
	}

	order := &models.Order{
		CustomerID: req.CustomerID,
		Amount:     req.Amount,
		Status:     models.OrderStatusNew,
	}
	if err := s.repo.CreateOrder(ctx, order); err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("customer_id", order.CustomerID))
	return order, nil
}

// GetOrder retrieves an order with its ledger operations
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*models.Order, []models.Operation, error) {
	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	ops, err := s.repo.ListOperationsByOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	return order, ops, nil
}
