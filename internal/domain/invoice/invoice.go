// Package invoice models the billing documents generated for successful
// weekly charges.
package invoice

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status defines invoice lifecycle states
type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusPaid     Status = "paid"
	StatusRefunded Status = "refunded"
	StatusVoid     Status = "void"
)

// Invoice represents a billing document for one committed charge
type Invoice struct {
	ID         uuid.UUID       `json:"id"`
	ContractID uuid.UUID       `json:"contract_id"`
	ClientID   uuid.UUID       `json:"client_id"`
	Amount     decimal.Decimal `json:"amount"`
	ClientFee  decimal.Decimal `json:"client_fee"`
	Total      decimal.Decimal `json:"total"`
	Currency   string          `json:"currency"`
	Status     Status          `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// NewPaid creates a paid invoice for a charge that already settled
func NewPaid(contractID, clientID uuid.UUID, amount, clientFee decimal.Decimal, currency string) *Invoice {
	now := time.Now()
	return &Invoice{
		ID:         uuid.New(),
		ContractID: contractID,
		ClientID:   clientID,
		Amount:     amount.Round(2),
		ClientFee:  clientFee.Round(2),
		Total:      amount.Add(clientFee).Round(2),
		Currency:   currency,
		Status:     StatusPaid,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
