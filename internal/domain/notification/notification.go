// Package notification defines the user-facing notifications emitted after
// billing events commit. Notifications are never written in the same
// transaction as ledger state; they travel through the outbox.
package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Type identifies the billing event a notification reports
type Type string

const (
	TypeDisputeHold     Type = "billing.dispute_hold"
	TypeDisputeResolved Type = "billing.dispute_resolved"
	TypeChargeFailed    Type = "billing.charge_failed"
	TypePaymentReceived Type = "billing.payment_received"
)

// Priority of a notification for downstream delivery channels
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Notification is one message destined for a user
type Notification struct {
	ID          uuid.UUID         `json:"id" bson:"_id"`
	RecipientID uuid.UUID         `json:"recipient_id" bson:"recipient_id"`
	Type        Type              `json:"type" bson:"type"`
	Title       string            `json:"title" bson:"title"`
	Body        string            `json:"body" bson:"body"`
	Priority    Priority          `json:"priority" bson:"priority"`
	Data        map[string]string `json:"data,omitempty" bson:"data,omitempty"`
	CreatedAt   time.Time         `json:"created_at" bson:"created_at"`
}

// New creates a notification stamped with the current time
func New(recipientID uuid.UUID, notifType Type, title, body string, priority Priority, data map[string]string) *Notification {
	return &Notification{
		ID:          uuid.New(),
		RecipientID: recipientID,
		Type:        notifType,
		Title:       title,
		Body:        body,
		Priority:    priority,
		Data:        data,
		CreatedAt:   time.Now(),
	}
}

// Sink delivers notifications to their storage or transport
type Sink interface {
	Deliver(ctx context.Context, n *Notification) error
}
