package models

import "time"

// Notification event types published after a processor commits
const (
	EventTypeOrderPaid     = "ORDER_PAID"
	EventTypeOrderRefunded = "ORDER_REFUNDED"
	EventTypeDisputeOpened = "DISPUTE_OPENED"
)

// BaseEvent contains common fields for all notifications
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPaidEvent published when a charge moved an order to PAID
type OrderPaidEvent struct {
	BaseEvent
	OrderID         int64  `json:"order_id"`
	CustomerID      int64  `json:"customer_id"`
	Amount          Money  `json:"amount"`
	ProviderEventID string `json:"provider_event_id"`
}

// OrderRefundedEvent published when a refund canceled an order
type OrderRefundedEvent struct {
	BaseEvent
	OrderID         int64  `json:"order_id"`
	CustomerID      int64  `json:"customer_id"`
	Amount          Money  `json:"amount"`
	ProviderEventID string `json:"provider_event_id"`
}

// DisputeOpenedEvent published when a dispute notification was recorded
type DisputeOpenedEvent struct {
	BaseEvent
	OrderID         string `json:"order_id"`
	ProviderEventID string `json:"provider_event_id"`
}

// Task is an asynchronous request to dispatch one stored event
type Task struct {
	ID              string    `json:"id"`
	ProviderEventID string    `json:"provider_event_id"`
	EventType       string    `json:"event_type"`
	Retries         int       `json:"retries"`
	MaxRetries      int       `json:"max_retries"`
	EnqueuedAt      time.Time `json:"enqueued_at"`
}
