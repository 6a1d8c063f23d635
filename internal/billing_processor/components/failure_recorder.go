package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/marketplace-escrow-ledger/internal/billing_processor/service"
	"github.com/marketplace-escrow-ledger/internal/domain/contract"
	"github.com/marketplace-escrow-ledger/internal/domain/escrow"
	"github.com/marketplace-escrow-ledger/internal/domain/notification"
	"github.com/marketplace-escrow-ledger/internal/domain/outbox"
	"github.com/marketplace-escrow-ledger/internal/domain/shared"
)

type FailureRecorderImpl struct {
	escrowRepo   escrow.Repository
	contractRepo contract.Repository
	outboxRepo   outbox.Repository
	logger       *slog.Logger
}

func NewFailureRecorder(escrowRepo escrow.Repository, contractRepo contract.Repository, outboxRepo outbox.Repository, logger *slog.Logger) service.FailureRecorder {
	return &FailureRecorderImpl{
		escrowRepo:   escrowRepo,
		contractRepo: contractRepo,
		outboxRepo:   outboxRepo,
		logger:       logger,
	}
}

// RecordFailure writes a failed fund entry so the rejected charge stays
// visible on the ledger, and notifies the client when the contract is known.
func (r *FailureRecorderImpl) RecordFailure(ctx context.Context, request *shared.ChargeRequest, failureReason string) error {
	logger := r.logger
	if request.CorrelationID != "" {
		logger = r.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Recording failed charge", "charge_id", request.ChargeID.String(), "reason", failureReason)

	entry := escrow.NewFailedEntry(request.ContractID, escrow.EntryTypeFundFailed, request.Amount, request.Currency, failureReason)
	entry.IdempotencyKey = request.IdempotencyKey
	entry.CorrelationID = request.CorrelationID
	if request.GatewayReference != "" {
		entry.GatewayReference = &request.GatewayReference
	}

	if err := r.escrowRepo.Create(ctx, entry); err != nil {
		if errors.Is(err, escrow.ErrDuplicateEntry{}) {
			logger.Info("Failed charge already recorded", "charge_id", request.ChargeID.String())
			return nil
		}
		logger.Error("Failed to create failed fund entry", "charge_id", request.ChargeID.String(), "error", err)
		return fmt.Errorf("failed to record charge failure for %s: %w", request.ChargeID.String(), err)
	}

	// Best effort: the client can only be resolved through the contract
	c, err := r.contractRepo.GetByID(ctx, request.ContractID)
	if err != nil {
		if !errors.Is(err, contract.ErrContractNotFound{}) {
			logger.Error("Failed to load contract for failure notification", "charge_id", request.ChargeID.String(), "error", err)
		}
		return nil
	}

	n := notification.New(c.ClientID, notification.TypeChargeFailed,
		"Payment failed",
		fmt.Sprintf("Your payment of $%s for contract %q could not be processed.", request.Amount.StringFixed(2), c.Title),
		notification.PriorityHigh,
		map[string]string{"link": billingDashboardLink, "contract_id": c.ID.String(), "reason": failureReason})

	msg, err := outbox.NewNotificationMessage(c.ID, n)
	if err != nil {
		logger.Error("Failed to create failure notification message", "charge_id", request.ChargeID.String(), "error", err)
		return nil
	}
	if err := r.outboxRepo.Create(ctx, msg); err != nil {
		logger.Error("Failed to queue failure notification", "charge_id", request.ChargeID.String(), "error", err)
	}
	return nil
}
