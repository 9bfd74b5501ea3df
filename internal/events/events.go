// Package events publishes order lifecycle events for downstream consumers
// (notifications, analytics). Publishing is fire-and-forget: a lost event
// never fails the request that produced it.
package events

import (
	"encoding/json"
	"time"
)

// Event types emitted by the engine.
const (
	TypeOrderPlaced        = "order.placed"
	TypeOrderStatusChanged = "order.status_changed"
	TypeOrderCancelled     = "order.cancelled"
)

// Envelope is the wire format for every event.
type Envelope struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Producer   string          `json:"producer"`
	Payload    json.RawMessage `json:"payload"`
}

// OrderPlacedPayload accompanies TypeOrderPlaced.
type OrderPlacedPayload struct {
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
	Total   string `json:"total"`
	Items   int    `json:"items"`
}

// StatusChangedPayload accompanies TypeOrderStatusChanged and
// TypeOrderCancelled.
type StatusChangedPayload struct {
	OrderID  string `json:"order_id"`
	UserID   string `json:"user_id"`
	StatusID string `json:"status_id"`
	Status   string `json:"status,omitempty"`
}

// Publisher emits events keyed by order id.
type Publisher interface {
	Publish(eventType, orderID string, payload any)
}

// Nop discards all events. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(string, string, any) {}
