package model

import "time"

// EventType names the domain events emitted after a successful commit.
// They reach the notification dispatcher and analytics through the outbox.
type EventType string

const (
	EventCreated           EventType = "group_order.created"
	EventParticipantJoined EventType = "group_order.participant_joined"
	EventBudgetContributed EventType = "group_order.budget_contributed"
	EventItemsUpdated      EventType = "group_order.items_updated"
	EventParticipantReady  EventType = "group_order.participant_ready"
	EventPhaseAdvanced     EventType = "group_order.phase_advanced"
	EventClosed            EventType = "group_order.closed"
	EventConfirmed         EventType = "group_order.confirmed"
	EventCancelled         EventType = "group_order.cancelled"
	EventConversionFailed  EventType = "group_order.conversion_failed"
	EventStatusMirrored    EventType = "group_order.status_updated"
)

// Event is one domain event scoped to a single group order.
type Event struct {
	Type         EventType      `json:"type"`
	GroupOrderID string         `json:"group_order_id"`
	UserID       string         `json:"user_id,omitempty"`
	Revision     int64          `json:"revision"`
	OccurredAt   time.Time      `json:"occurred_at"`
	Payload      map[string]any `json:"payload,omitempty"`
}

// OutboxMessage is one pending publication. Messages are written in the same
// transaction as the aggregate mutation and relayed to the broker afterwards,
// so a failed commit produces zero observable side effects.
type OutboxMessage struct {
	ID        int64             `json:"id"`
	Topic     string            `json:"topic"`
	Key       string            `json:"key"`
	EventType string            `json:"event_type"`
	Payload   []byte            `json:"payload"`
	Headers   map[string]string `json:"headers"`
}
