// Package outbox implements the transactional outbox rows that decouple
// committed ledger state from external side effects. Rows are written in the
// same transaction as the ledger mutation they belong to and dispatched by a
// poller after commit, so a gateway or notification failure can never roll
// back money movement.
package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace-escrow-ledger/internal/domain/notification"
	"github.com/marketplace-escrow-ledger/internal/domain/shared"
)

// Kind identifies the side effect an outbox message carries
type Kind string

const (
	KindNotification  Kind = "notification"
	KindGatewayRefund Kind = "gateway_refund"
)

// RefundCommand instructs the payment gateway to refund part of a charge.
// Amounts cross the gateway boundary in minor units.
type RefundCommand struct {
	DisputeID        uuid.UUID `json:"dispute_id"`
	ChargeReference  string    `json:"charge_reference"`
	AmountMinorUnits int64     `json:"amount_minor_units"`
	Currency         string    `json:"currency"`
}

// Message stores one pending side effect for reliable post-commit dispatch
type Message struct {
	ID            int64               `json:"id"`
	ContractID    uuid.UUID           `json:"contract_id"`
	Kind          Kind                `json:"kind"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

func NewNotificationMessage(contractID uuid.UUID, n *notification.Notification) (*Message, error) {
	payload, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}

	return &Message{
		ContractID: contractID,
		Kind:       KindNotification,
		Payload:    payload,
		Status:     shared.OutboxStatusPending,
		Attempts:   0,
		CreatedAt:  time.Now(),
	}, nil
}

func NewGatewayRefundMessage(contractID uuid.UUID, cmd *RefundCommand) (*Message, error) {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return nil, err
	}

	return &Message{
		ContractID: contractID,
		Kind:       KindGatewayRefund,
		Payload:    payload,
		Status:     shared.OutboxStatusPending,
		Attempts:   0,
		CreatedAt:  time.Now(),
	}, nil
}

func (m *Message) IncrementAttempts() {
	m.Attempts++
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsProcessed() {
	m.Status = shared.OutboxStatusProcessed
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsFailed() {
	m.Status = shared.OutboxStatusFailedToPublish
	now := time.Now()
	m.LastAttemptAt = &now
}

// GetNotification extracts the notification from the payload
func (m *Message) GetNotification() (*notification.Notification, error) {
	var n notification.Notification
	if err := json.Unmarshal(m.Payload, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// GetRefundCommand extracts the refund command from the payload
func (m *Message) GetRefundCommand() (*RefundCommand, error) {
	var cmd RefundCommand
	if err := json.Unmarshal(m.Payload, &cmd); err != nil {
		return nil, err
	}
	return &cmd, nil
}
