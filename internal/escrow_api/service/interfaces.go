package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace-escrow-ledger/internal/domain/dispute"
	"github.com/marketplace-escrow-ledger/internal/domain/escrow"
	"github.com/marketplace-escrow-ledger/internal/domain/shared"
	"github.com/marketplace-escrow-ledger/internal/fees"
	"github.com/shopspring/decimal"
)

// FeeQuote is the full pricing breakdown for one prospective charge
type FeeQuote struct {
	Amount            decimal.Decimal `json:"amount"`
	ClientFee         decimal.Decimal `json:"client_fee"`
	TotalClientCharge decimal.Decimal `json:"total_client_charge"`
	Commission        fees.Quote      `json:"commission"`
}

// BalanceSummary combines a contract's derived balances with the amount
// currently frozen by dispute holds
type BalanceSummary struct {
	ContractID  uuid.UUID       `json:"contract_id"`
	Balance     escrow.Balance  `json:"balance"`
	Unreleased  decimal.Decimal `json:"unreleased"`
	DisputeHeld decimal.Decimal `json:"dispute_held"`
}

// HoldResult reports the outcome of freezing funds for a dispute. A zero
// HeldAmount with a nil EntryID means there was nothing to hold.
type HoldResult struct {
	DisputeID  uuid.UUID       `json:"dispute_id"`
	ContractID uuid.UUID       `json:"contract_id"`
	HeldAmount decimal.Decimal `json:"held_amount"`
	EntryID    *uuid.UUID      `json:"entry_id,omitempty"`
}

// ResolutionResult reports the financial outcome of a dispute resolution
type ResolutionResult struct {
	DisputeID           uuid.UUID       `json:"dispute_id"`
	ContractID          uuid.UUID       `json:"contract_id"`
	Resolution          dispute.Status  `json:"resolution"`
	RefundAmount        decimal.Decimal `json:"refund_amount"`
	FreelancerAmount    decimal.Decimal `json:"freelancer_amount"`
	HoldsReversed       int64           `json:"holds_reversed"`
	ContractReactivated bool            `json:"contract_reactivated"`
}

// FeeService prices charges against billing relationship history
type FeeService interface {
	QuoteFees(ctx context.Context, clientID, freelancerID uuid.UUID, amount decimal.Decimal) (*FeeQuote, error)
	EffectiveRate(ctx context.Context, clientID, freelancerID uuid.UUID) (*fees.RateInfo, error)
}

// EscrowService reads the escrow ledger
type EscrowService interface {
	GetEntry(ctx context.Context, entryID uuid.UUID) (*escrow.Entry, error)
	GetLedger(ctx context.Context, contractID uuid.UUID, page, perPage int) ([]*escrow.Entry, int64, error)
	GetBalance(ctx context.Context, contractID uuid.UUID) (*BalanceSummary, error)
}

// ChargeService accepts weekly charges for asynchronous processing
type ChargeService interface {
	// SubmitCharge validates and enqueues the charge. When the idempotency key
	// was already consumed it returns the existing ledger entry instead.
	SubmitCharge(ctx context.Context, req *shared.ChargeRequest) (*escrow.Entry, error)
}

// DisputeService drives the financial side of dispute lifecycle
type DisputeService interface {
	// HoldFunds freezes escrow funds while a dispute is investigated. A nil
	// amount holds the full unreleased balance.
	HoldFunds(ctx context.Context, disputeID uuid.UUID, amount *decimal.Decimal) (*HoldResult, error)

	// Resolve executes the verdict's money movement and reactivates the
	// contract. Side effects (gateway refunds, notifications) are queued
	// through the outbox and dispatched after commit.
	Resolve(ctx context.Context, disputeID uuid.UUID, resolution dispute.Status, resolutionAmount *decimal.Decimal) (*ResolutionResult, error)

	GetActiveByFreelancer(ctx context.Context, freelancerID uuid.UUID) ([]*dispute.Active, error)
}
