package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/marketplace-escrow-ledger/internal/billing_processor/service"
	"github.com/marketplace-escrow-ledger/internal/domain/billing"
	"github.com/marketplace-escrow-ledger/internal/domain/contract"
	"github.com/marketplace-escrow-ledger/internal/domain/escrow"
	"github.com/marketplace-escrow-ledger/internal/domain/shared"
	"github.com/marketplace-escrow-ledger/internal/fees"
)

// FeeManagerImpl implements the FeeManager interface
type FeeManagerImpl struct {
	escrowRepo   escrow.Repository
	contractRepo contract.Repository
	billingRepo  billing.Repository
	logger       *slog.Logger
}

// NewFeeManager creates a new FeeManagerImpl
func NewFeeManager(escrowRepo escrow.Repository, contractRepo contract.Repository, billingRepo billing.Repository, logger *slog.Logger) service.FeeManager {
	return &FeeManagerImpl{
		escrowRepo:   escrowRepo,
		contractRepo: contractRepo,
		billingRepo:  billingRepo,
		logger:       logger,
	}
}

// PriceAndCommit locks the contract and the billing relationship, prices the
// charge against the cumulative total, and writes the fund, client fee, and
// commission entries. The relationship lock is held until the surrounding
// transaction ends, so two concurrent charges for the same pair price
// sequentially and each sees the other's committed total.
func (m *FeeManagerImpl) PriceAndCommit(ctx context.Context, tx pgx.Tx, request *shared.ChargeRequest) (*service.PricingResult, error) {
	logger := m.logger
	if request.CorrelationID != "" {
		logger = m.logger.With("correlation_id", request.CorrelationID)
	}

	escrowRepoTx := m.escrowRepo.WithTx(tx)
	contractRepoTx := m.contractRepo.WithTx(tx)
	billingRepoTx := m.billingRepo.WithTx(tx)

	if err := escrowRepoTx.LockContract(ctx, request.ContractID); err != nil {
		logger.Error("Failed to lock contract", "charge_id", request.ChargeID.String(), "contract_id", request.ContractID.String(), "error", err)
		return nil, fmt.Errorf("failed to lock contract %s: %w", request.ContractID.String(), err)
	}

	c, err := contractRepoTx.GetByID(ctx, request.ContractID)
	if err != nil {
		if errors.Is(err, contract.ErrContractNotFound{ContractID: request.ContractID}) {
			logger.Warn("Contract not found for charge", "charge_id", request.ChargeID.String(), "contract_id", request.ContractID.String())
			return nil, err
		}
		logger.Error("Failed to load contract", "charge_id", request.ChargeID.String(), "contract_id", request.ContractID.String(), "error", err)
		return nil, fmt.Errorf("failed to load contract %s: %w", request.ContractID.String(), err)
	}

	if c.Currency != request.Currency {
		logger.Error("Currency mismatch", "charge_id", request.ChargeID.String(), "req_curr", request.Currency, "contract_curr", c.Currency)
		return nil, shared.ErrInvalidCurrency
	}

	// Disputed and paused contracts freeze billing
	if c.Status != contract.StatusActive {
		logger.Warn("Contract not billable", "charge_id", request.ChargeID.String(), "contract_id", c.ID.String(), "status", c.Status)
		return nil, shared.ErrContractNotBillable
	}

	rel, err := billingRepoTx.LockForPricing(ctx, c.ClientID, c.FreelancerID)
	if err != nil {
		logger.Error("Failed to lock billing relationship", "charge_id", request.ChargeID.String(), "error", err)
		return nil, fmt.Errorf("failed to lock billing relationship: %w", err)
	}
	logger.Info("Billing relationship locked",
		"charge_id", request.ChargeID.String(),
		"client_id", c.ClientID.String(),
		"freelancer_id", c.FreelancerID.String(),
		"cumulative_billed", rel.CumulativeBilled,
	)

	quote := fees.Commission(request.Amount, rel.CumulativeBilled)
	clientFee := fees.ClientFee(request.Amount)

	fundEntry := escrow.NewCompletedEntry(c.ID, escrow.EntryTypeFund, request.Amount, request.Currency,
		&request.GatewayReference, map[string]string{"charge_id": request.ChargeID.String()})
	fundEntry.IdempotencyKey = request.IdempotencyKey
	fundEntry.CorrelationID = request.CorrelationID
	if err := escrowRepoTx.Create(ctx, fundEntry); err != nil {
		logger.Error("Failed to create fund entry", "charge_id", request.ChargeID.String(), "error", err)
		return nil, err
	}

	feeEntry := escrow.NewCompletedEntry(c.ID, escrow.EntryTypeClientFee, clientFee, request.Currency, nil,
		map[string]string{"charge_id": request.ChargeID.String()})
	feeEntry.CorrelationID = request.CorrelationID
	if err := escrowRepoTx.Create(ctx, feeEntry); err != nil {
		logger.Error("Failed to create client fee entry", "charge_id", request.ChargeID.String(), "error", err)
		return nil, err
	}

	commissionEntry := escrow.NewCompletedEntry(c.ID, escrow.EntryTypePlatformFee, quote.Commission, request.Currency, nil,
		map[string]string{
			"charge_id":         request.ChargeID.String(),
			"rate_used":         quote.RateUsed,
			"cumulative_before": quote.CumulativeBefore.StringFixed(2),
			"cumulative_after":  quote.CumulativeAfter.StringFixed(2),
		})
	commissionEntry.CorrelationID = request.CorrelationID
	if err := escrowRepoTx.Create(ctx, commissionEntry); err != nil {
		logger.Error("Failed to create commission entry", "charge_id", request.ChargeID.String(), "error", err)
		return nil, err
	}

	if err := billingRepoTx.AddToCumulative(ctx, c.ClientID, c.FreelancerID, request.Amount); err != nil {
		logger.Error("Failed to advance cumulative billed total", "charge_id", request.ChargeID.String(), "error", err)
		return nil, err
	}
	logger.Info("Ledger entries written",
		"charge_id", request.ChargeID.String(),
		"commission", quote.Commission,
		"rate_used", quote.RateUsed,
	)

	return &service.PricingResult{
		Contract:    c,
		Quote:       quote,
		ClientFee:   clientFee,
		FundEntryID: fundEntry.ID,
	}, nil
}
