package models

import (
	"encoding/json"
	"time"
)

// EventStatus is the processing state of a provider event
type EventStatus string

// Event statuses. EventStatusError exists in the schema but no processor assigns it.
const (
	EventStatusNew       EventStatus = "new"
	EventStatusProcessed EventStatus = "processed"
	EventStatusError     EventStatus = "error"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

// Order statuses
const (
	OrderStatusNew      OrderStatus = "new"
	OrderStatusPaid     OrderStatus = "paid"
	OrderStatusCanceled OrderStatus = "canceled"
	OrderStatusShipped  OrderStatus = "shipped"
)

// OperationType is the kind of ledger entry
type OperationType string

// Operation types
const (
	OperationTypeCharge OperationType = "charge"
	OperationTypeRefund OperationType = "refund"
)

// Provider event types handled by the service
const (
	ProviderEventChargeSucceeded = "charge.succeeded"
	ProviderEventDisputeOpened   = "dispute.opened"
	ProviderEventRefundCreated   = "refund.created"
)

// Event represents one inbound provider notification
type Event struct {
	ID              int64           `db:"id" json:"id"`
	ProviderEventID string          `db:"provider_event_id" json:"provider_event_id"`
	EventType       string          `db:"event_type" json:"event_type"`
	OrderID         string          `db:"order_id" json:"order_id"`
	Payload         json.RawMessage `db:"payload" json:"payload"`
	Status          EventStatus     `db:"status" json:"status"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// Order represents a customer order
type Order struct {
	ID         int64       `db:"id" json:"id"`
	CustomerID int64       `db:"customer_id" json:"customer_id"`
	Amount     Money       `db:"amount" json:"amount"`
	Status     OrderStatus `db:"status" json:"status"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at" json:"updated_at"`
}

// Operation is an immutable financial ledger entry
type Operation struct {
	ID         int64         `db:"id" json:"id"`
	CustomerID int64         `db:"customer_id" json:"customer_id"`
	OrderID    int64         `db:"order_id" json:"order_id"`
	Type       OperationType `db:"type" json:"type"`
	Amount     Money         `db:"amount" json:"amount"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
}
