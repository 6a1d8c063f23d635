// Package escrow defines the append-only ledger of financial events tied to
// contracts. Entries are never deleted or amount-edited; every balance is
// derived by summation over entries.
package escrow

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryType defines the financial event a ledger entry records
type EntryType string

const (
	EntryTypeFund          EntryType = "fund"
	EntryTypeFundFailed    EntryType = "fund_failed"
	EntryTypeRelease       EntryType = "release"
	EntryTypeRefund        EntryType = "refund"
	EntryTypePlatformFee   EntryType = "platform_fee"
	EntryTypeClientFee     EntryType = "client_fee"
	EntryTypeDisputeHold   EntryType = "dispute_hold"
	EntryTypeDisputeRefund EntryType = "dispute_refund"
)

// EntryStatus defines ledger entry states. The only permitted transition is
// completed -> reversed (dispute holds being released); everything else on an
// entry is immutable once written.
type EntryStatus string

const (
	EntryStatusPending   EntryStatus = "pending"
	EntryStatusCompleted EntryStatus = "completed"
	EntryStatusReversed  EntryStatus = "reversed"
	EntryStatusFailed    EntryStatus = "failed"
)

// Entry represents one immutable financial event on a contract's escrow
type Entry struct {
	ID               uuid.UUID         `json:"id"`
	ContractID       uuid.UUID         `json:"contract_id"`
	Type             EntryType         `json:"type"`
	Amount           decimal.Decimal   `json:"amount"` // Decimal with 2dp scale
	Currency         string            `json:"currency"`
	Status           EntryStatus       `json:"status"`
	GatewayReference *string           `json:"gateway_reference,omitempty"` // Links to the external charge
	GatewayMetadata  map[string]string `json:"gateway_metadata,omitempty"`
	IdempotencyKey   string            `json:"idempotency_key,omitempty"`
	CorrelationID    string            `json:"correlation_id,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	ProcessedAt      *time.Time        `json:"processed_at,omitempty"`
}

// NewCompletedEntry creates a completed ledger entry stamped with the current time
func NewCompletedEntry(contractID uuid.UUID, entryType EntryType, amount decimal.Decimal, currency string, gatewayRef *string, metadata map[string]string) *Entry {
	now := time.Now()
	return &Entry{
		ID:               uuid.New(),
		ContractID:       contractID,
		Type:             entryType,
		Amount:           amount.Round(2),
		Currency:         currency,
		Status:           EntryStatusCompleted,
		GatewayReference: gatewayRef,
		GatewayMetadata:  metadata,
		CreatedAt:        now,
		ProcessedAt:      &now,
	}
}

// NewFailedEntry creates a failed ledger entry carrying the failure reason in
// its metadata, used to record charges that could not be committed
func NewFailedEntry(contractID uuid.UUID, entryType EntryType, amount decimal.Decimal, currency string, reason string) *Entry {
	now := time.Now()
	return &Entry{
		ID:              uuid.New(),
		ContractID:      contractID,
		Type:            entryType,
		Amount:          amount.Round(2),
		Currency:        currency,
		Status:          EntryStatusFailed,
		GatewayMetadata: map[string]string{"error": reason},
		CreatedAt:       now,
		ProcessedAt:     &now,
	}
}

// Balance holds the per-type sums over a contract's completed entries
type Balance struct {
	Funded          decimal.Decimal `json:"funded"`
	Released        decimal.Decimal `json:"released"`
	Refunded        decimal.Decimal `json:"refunded"`
	DisputeRefunded decimal.Decimal `json:"dispute_refunded"`
}

// Unreleased derives the amount still held in escrow:
// max(0, funded - released - refunded - disputeRefunded)
func (b Balance) Unreleased() decimal.Decimal {
	unreleased := b.Funded.
		Sub(b.Released).
		Sub(b.Refunded).
		Sub(b.DisputeRefunded)
	if unreleased.IsNegative() {
		return decimal.Zero.Round(2)
	}
	return unreleased.Round(2)
}
