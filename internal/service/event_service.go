package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"webhook-service/internal/models"
	"webhook-service/internal/store"
	"webhook-service/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// TaskQueue schedules event tasks for asynchronous dispatch
type TaskQueue interface {
	Enqueue(ctx context.Context, task *models.Task, countdown time.Duration) error
}

// EventService stores inbound provider events and dispatches them to processors
type EventService struct {
	repo       store.Repository
	queue      TaskQueue
	processors Processors
	maxRetries int
	logger     *zap.Logger
}

// NewEventService creates a new event service
func NewEventService(repo store.Repository, queue TaskQueue, processors Processors, maxRetries int) *EventService {
	return &EventService{
		repo:       repo,
		queue:      queue,
		processors: processors,
		maxRetries: maxRetries,
		logger:     util.GetLogger(),
	}
}

// IntakeRequest is a validated webhook notification
type IntakeRequest struct {
	ProviderEventID string
	EventType       string
	OrderID         string
	Payload         json.RawMessage
}

// IntakeResult reports whether the event was stored or was already known
type IntakeResult struct {
	Event     *models.Event
	Duplicate bool
}

// Intake stores the event as NEW and, once committed, enqueues a dispatch task.
// A provider event id seen before yields Duplicate and schedules nothing.
func (s *EventService) Intake(ctx context.Context, req IntakeRequest) (*IntakeResult, error) {
	ctx, span := util.StartSpan(ctx, "EventService.Intake",
		attribute.String("provider_event_id", req.ProviderEventID),
		attribute.String("event_type", req.EventType))
	defer span.End()

	event := &models.Event{
		ProviderEventID: req.ProviderEventID,
		EventType:       req.EventType,
		OrderID:         req.OrderID,
		Payload:         req.Payload,
		Status:          models.EventStatusNew,
	}

	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.CreateEvent(ctx, event); err != nil {
			return err
		}
		tx.AfterCommit(func(ctx context.Context) {
			if err := s.enqueue(ctx, event); err != nil {
				util.EnqueueFailuresTotal.Inc()
				s.logger.Error("Failed to enqueue event",
					zap.String("provider_event_id", event.ProviderEventID),
					zap.Error(err))
			}
		})
		return nil
	})

	if errors.Is(err, store.ErrDuplicateEvent) {
		util.EventsDuplicateTotal.Inc()
		s.logger.Warn("Event already exists",
			zap.String("provider_event_id", req.ProviderEventID))
		return &IntakeResult{Duplicate: true}, nil
	}
	if err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to store event: %w", err)
	}

	util.EventsReceivedTotal.WithLabelValues(event.EventType).Inc()
	return &IntakeResult{Event: event}, nil
}

func (s *EventService) enqueue(ctx context.Context, event *models.Event) error {
	task := &models.Task{
		ProviderEventID: event.ProviderEventID,
		EventType:       event.EventType,
		MaxRetries:      s.maxRetries,
	}
	if err := s.queue.Enqueue(ctx, task, 0); err != nil {
		return err
	}

	s.logger.Info("Event enqueued",
		zap.String("provider_event_id", event.ProviderEventID),
		zap.String("event_type", event.EventType),
		zap.String("task_id", task.ID))
	return nil
}

// ProcessEvent routes the event to the processor for its type
func (s *EventService) ProcessEvent(ctx context.Context, providerEventID, eventType string) error {
	var p Processor
	switch eventType {
	case models.ProviderEventChargeSucceeded:
		p = s.processors.Charge
	case models.ProviderEventDisputeOpened:
		p = s.processors.Dispute
	case models.ProviderEventRefundCreated:
		p = s.processors.Refund
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEventType, eventType)
	}

	return p.Process(ctx, providerEventID)
}

// GetEvent retrieves an event by provider event id
func (s *EventService) GetEvent(ctx context.Context, providerEventID string) (*models.Event, error) {
	return s.repo.GetEventByProviderID(ctx, providerEventID)
}

// Replay enqueues a new dispatch task for an event that is still NEW
func (s *EventService) Replay(ctx context.Context, providerEventID string) (*models.Event, error) {
	ctx, span := util.StartSpan(ctx, "EventService.Replay",
		attribute.String("provider_event_id", providerEventID))
	defer span.End()

	event, err := s.repo.GetEventByProviderID(ctx, providerEventID)
	if err != nil {
		return nil, err
	}
	if event.Status != models.EventStatusNew {
		return nil, fmt.Errorf("%w: %s is %s", ErrEventNotReplayable, providerEventID, event.Status)
	}

	if err := s.enqueue(ctx, event); err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to enqueue event: %w", err)
	}
	return event, nil
}
