package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"webhook-service/internal/models"
)

const eventColumns = `id, provider_event_id, event_type, order_id, payload, status, created_at, updated_at`

// CreateEvent inserts a NEW event. A second insert with the same provider
// event id returns ErrDuplicateEvent and leaves the transaction usable.
func (t *pgTx) CreateEvent(ctx context.Context, event *models.Event) error {
	if event.Status == "" {
		event.Status = models.EventStatusNew
	}

	query := `
		INSERT INTO events (provider_event_id, event_type, order_id, payload, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (provider_event_id) DO NOTHING
		RETURNING id, created_at, updated_at`

	err := t.tx.GetContext(ctx, event, query,
		event.ProviderEventID, event.EventType, event.OrderID, []byte(event.Payload), event.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrDuplicateEvent
	}
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// LockEvent loads an event by provider id with FOR UPDATE
func (t *pgTx) LockEvent(ctx context.Context, providerEventID string) (*models.Event, error) {
	var event models.Event
	err := t.tx.GetContext(ctx, &event,
		"SELECT "+eventColumns+" FROM events WHERE provider_event_id = $1 FOR UPDATE", providerEventID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock event: %w", err)
	}
	return &event, nil
}

// UpdateEventStatus updates event status
func (t *pgTx) UpdateEventStatus(ctx context.Context, eventID int64, status models.EventStatus) error {
	_, err := t.tx.ExecContext(ctx,
		"UPDATE events SET status = $1, updated_at = NOW() WHERE id = $2",
		status, eventID)
	if err != nil {
		return fmt.Errorf("failed to update event status: %w", err)
	}
	return nil
}

// GetEventByProviderID retrieves an event without locking it
func (s *Store) GetEventByProviderID(ctx context.Context, providerEventID string) (*models.Event, error) {
	var event models.Event
	err := s.db.GetContext(ctx, &event,
		"SELECT "+eventColumns+" FROM events WHERE provider_event_id = $1", providerEventID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}
