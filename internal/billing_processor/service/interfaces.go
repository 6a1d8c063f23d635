package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/marketplace-escrow-ledger/internal/domain/contract"
	"github.com/marketplace-escrow-ledger/internal/domain/shared"
	"github.com/marketplace-escrow-ledger/internal/fees"
	"github.com/shopspring/decimal"
)

// ProcessingService defines the interface for processing charge requests.
type ProcessingService interface {
	ProcessCharge(ctx context.Context, request *shared.ChargeRequest) error
}

// ChargeValidator validates charge requests before processing
type ChargeValidator interface {
	Validate(ctx context.Context, request *shared.ChargeRequest) error
	CheckIdempotency(ctx context.Context, request *shared.ChargeRequest) (bool, error)
}

// PricingResult carries what the pricing step produced for downstream steps
type PricingResult struct {
	Contract    *contract.Contract
	Quote       fees.Quote
	ClientFee   decimal.Decimal
	FundEntryID uuid.UUID
}

// FeeManager locks the billing relationship, prices the charge, and commits
// the resulting ledger entries inside the transaction
type FeeManager interface {
	PriceAndCommit(ctx context.Context, tx pgx.Tx, request *shared.ChargeRequest) (*PricingResult, error)
}

// InvoiceGenerator writes the client invoice for a committed charge
type InvoiceGenerator interface {
	Generate(ctx context.Context, tx pgx.Tx, request *shared.ChargeRequest, result *PricingResult) error
}

// OutboxManager queues post-commit side effects for a committed charge
type OutboxManager interface {
	QueueReceipt(ctx context.Context, tx pgx.Tx, request *shared.ChargeRequest, result *PricingResult) error
}

// FailureRecorder records failed charges on the ledger
type FailureRecorder interface {
	RecordFailure(ctx context.Context, request *shared.ChargeRequest, failureReason string) error
}
