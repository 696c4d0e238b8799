package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"webhook-service/internal/models"
	"webhook-service/internal/store"
	"webhook-service/internal/util"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Processor applies one stored provider event
type Processor interface {
	Process(ctx context.Context, providerEventID string) error
}

// Notifier publishes outcome notifications once a processor has committed
type Notifier interface {
	PublishOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error
	PublishOrderRefunded(ctx context.Context, event *models.OrderRefundedEvent) error
	PublishDisputeOpened(ctx context.Context, event *models.DisputeOpenedEvent) error
}

// Processors holds one processor per supported provider event type
type Processors struct {
	Charge  Processor
	Dispute Processor
	Refund  Processor
}

// NewProcessors builds the processors. notifier may be nil.
func NewProcessors(repo store.Repository, finance *FinanceService, notifier Notifier) Processors {
	logger := util.GetLogger()
	return Processors{
		Charge:  &ChargeProcessor{repo: repo, finance: finance, notifier: notifier, logger: logger},
		Dispute: &DisputeProcessor{repo: repo, notifier: notifier, logger: logger},
		Refund:  &RefundProcessor{repo: repo, finance: finance, notifier: notifier, logger: logger},
	}
}

// lockEvent returns nil without error when the event does not exist
func lockEvent(ctx context.Context, tx store.Tx, logger *zap.Logger, providerEventID string) (*models.Event, error) {
	event, err := tx.LockEvent(ctx, providerEventID)
	if errors.Is(err, store.ErrNotFound) {
		logger.Error("Event does not exist", zap.String("provider_event_id", providerEventID))
		util.EventsSkippedTotal.WithLabelValues("event_not_found").Inc()
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock event %s: %w", providerEventID, err)
	}
	return event, nil
}

// lockOrder returns nil without error when the order does not exist
func lockOrder(ctx context.Context, tx store.Tx, logger *zap.Logger, orderID string) (*models.Order, error) {
	order, err := tx.LockOrder(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		logger.Error("Order does not exist", zap.String("order_id", orderID))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock order %s: %w", orderID, err)
	}
	return order, nil
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
}

// ChargeProcessor handles charge.succeeded: NEW order -> PAID plus a CHARGE operation
type ChargeProcessor struct {
	repo     store.Repository
	finance  *FinanceService
	notifier Notifier
	logger   *zap.Logger
}

func (p *ChargeProcessor) Process(ctx context.Context, providerEventID string) error {
	ctx, span := util.StartSpan(ctx, "ChargeProcessor.Process",
		attribute.String("provider_event_id", providerEventID))
	defer span.End()

	err := p.repo.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		event, err := lockEvent(ctx, tx, p.logger, providerEventID)
		if err != nil || event == nil {
			return err
		}

		order, err := lockOrder(ctx, tx, p.logger, event.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			p.logger.Error("Charge skipped, order not found",
				zap.String("provider_event_id", providerEventID),
				zap.String("order_id", event.OrderID))
			util.EventsSkippedTotal.WithLabelValues("order_not_found").Inc()
			return nil
		}

		if order.Status != models.OrderStatusNew {
			p.logger.Error("Wrong order status for charge",
				zap.String("provider_event_id", providerEventID),
				zap.Int64("order_id", order.ID),
				zap.String("status", string(order.Status)))
			util.EventsSkippedTotal.WithLabelValues("wrong_status").Inc()
			return nil
		}

		if err := tx.UpdateOrderStatus(ctx, order.ID, models.OrderStatusPaid); err != nil {
			return fmt.Errorf("failed to mark order paid: %w", err)
		}
		if err := tx.UpdateEventStatus(ctx, event.ID, models.EventStatusProcessed); err != nil {
			return fmt.Errorf("failed to mark event processed: %w", err)
		}
		if _, err := p.finance.AddCharge(ctx, tx, order); err != nil {
			return err
		}

		tx.AfterCommit(func(ctx context.Context) {
			util.EventsProcessedTotal.WithLabelValues(event.EventType).Inc()
			p.logger.Info("Order paid",
				zap.String("provider_event_id", providerEventID),
				zap.Int64("order_id", order.ID),
				zap.String("amount", order.Amount.String()))

			if p.notifier == nil {
				return
			}
			paid := &models.OrderPaidEvent{
				BaseEvent:       newBaseEvent(models.EventTypeOrderPaid),
				OrderID:         order.ID,
				CustomerID:      order.CustomerID,
				Amount:          order.Amount,
				ProviderEventID: providerEventID,
			}
			if err := p.notifier.PublishOrderPaid(ctx, paid); err != nil {
				p.logger.Error("Failed to publish OrderPaid event",
					zap.Int64("order_id", order.ID), zap.Error(err))
			}
		})
		return nil
	})

	util.RecordError(span, err)
	return err
}

// DisputeProcessor handles dispute.opened. The order is left untouched.
type DisputeProcessor struct {
	repo     store.Repository
	notifier Notifier
	logger   *zap.Logger
}

func (p *DisputeProcessor) Process(ctx context.Context, providerEventID string) error {
	ctx, span := util.StartSpan(ctx, "DisputeProcessor.Process",
		attribute.String("provider_event_id", providerEventID))
	defer span.End()

	err := p.repo.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		event, err := lockEvent(ctx, tx, p.logger, providerEventID)
		if err != nil || event == nil {
			return err
		}

		if err := tx.UpdateEventStatus(ctx, event.ID, models.EventStatusProcessed); err != nil {
			return fmt.Errorf("failed to mark event processed: %w", err)
		}

		tx.AfterCommit(func(ctx context.Context) {
			util.EventsProcessedTotal.WithLabelValues(event.EventType).Inc()
			p.logger.Info("Dispute opened",
				zap.String("provider_event_id", providerEventID),
				zap.String("order_id", event.OrderID))

			if p.notifier == nil {
				return
			}
			opened := &models.DisputeOpenedEvent{
				BaseEvent:       newBaseEvent(models.EventTypeDisputeOpened),
				OrderID:         event.OrderID,
				ProviderEventID: providerEventID,
			}
			if err := p.notifier.PublishDisputeOpened(ctx, opened); err != nil {
				p.logger.Error("Failed to publish DisputeOpened event",
					zap.String("order_id", event.OrderID), zap.Error(err))
			}
		})
		return nil
	})

	util.RecordError(span, err)
	return err
}

// RefundProcessor handles refund.created: PAID order -> CANCELED plus a REFUND operation
type RefundProcessor struct {
	repo     store.Repository
	finance  *FinanceService
	notifier Notifier
	logger   *zap.Logger
}

func (p *RefundProcessor) Process(ctx context.Context, providerEventID string) error {
	ctx, span := util.StartSpan(ctx, "RefundProcessor.Process",
		attribute.String("provider_event_id", providerEventID))
	defer span.End()

	err := p.repo.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		event, err := lockEvent(ctx, tx, p.logger, providerEventID)
		if err != nil || event == nil {
			return err
		}

		order, err := lockOrder(ctx, tx, p.logger, event.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			p.logger.Error("Refund skipped, order not found",
				zap.String("provider_event_id", providerEventID),
				zap.String("order_id", event.OrderID))
			util.EventsSkippedTotal.WithLabelValues("order_not_found").Inc()
			return nil
		}

		if order.Status != models.OrderStatusPaid {
			p.logger.Error("Wrong order status for refund",
				zap.String("provider_event_id", providerEventID),
				zap.Int64("order_id", order.ID),
				zap.String("status", string(order.Status)))
			util.EventsSkippedTotal.WithLabelValues("wrong_status").Inc()
			return nil
		}

		if err := tx.UpdateEventStatus(ctx, event.ID, models.EventStatusProcessed); err != nil {
			return fmt.Errorf("failed to mark event processed: %w", err)
		}
		if err := tx.UpdateOrderStatus(ctx, order.ID, models.OrderStatusCanceled); err != nil {
			return fmt.Errorf("failed to mark order canceled: %w", err)
		}
		if _, err := p.finance.MakeRefund(ctx, tx, order); err != nil {
			return err
		}

		tx.AfterCommit(func(ctx context.Context) {
			util.EventsProcessedTotal.WithLabelValues(event.EventType).Inc()
			p.logger.Info("Order refunded",
				zap.String("provider_event_id", providerEventID),
				zap.Int64("order_id", order.ID),
				zap.String("amount", order.Amount.String()))

			if p.notifier == nil {
				return
			}
			refunded := &models.OrderRefundedEvent{
				BaseEvent:       newBaseEvent(models.EventTypeOrderRefunded),
				OrderID:         order.ID,
				CustomerID:      order.CustomerID,
				Amount:          refundAmount(order.Amount),
				ProviderEventID: providerEventID,
			}
			if err := p.notifier.PublishOrderRefunded(ctx, refunded); err != nil {
				p.logger.Error("Failed to publish OrderRefunded event",
					zap.Int64("order_id", order.ID), zap.Error(err))
			}
		})
		return nil
	})

	util.RecordError(span, err)
	return err
}
