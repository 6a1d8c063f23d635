package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/marketplace-escrow-ledger/internal/billing_processor/service"
	"github.com/marketplace-escrow-ledger/internal/domain/notification"
	"github.com/marketplace-escrow-ledger/internal/domain/outbox"
	"github.com/marketplace-escrow-ledger/internal/domain/shared"
)

const billingDashboardLink = "/dashboard/billing"

type OutboxManagerImpl struct {
	outboxRepo outbox.Repository
	logger     *slog.Logger
}

func NewOutboxManager(outboxRepo outbox.Repository, logger *slog.Logger) service.OutboxManager {
	return &OutboxManagerImpl{
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// QueueReceipt queues the payment receipt notification in the same
// transaction that commits the charge
func (m *OutboxManagerImpl) QueueReceipt(ctx context.Context, tx pgx.Tx, request *shared.ChargeRequest, result *service.PricingResult) error {
	logger := m.logger
	if request.CorrelationID != "" {
		logger = m.logger.With("correlation_id", request.CorrelationID)
	}

	outboxRepoTx := m.outboxRepo.WithTx(tx)

	total := request.Amount.Add(result.ClientFee).Round(2)
	n := notification.New(result.Contract.ClientID, notification.TypePaymentReceived,
		"Payment received",
		fmt.Sprintf("Your payment of $%s for contract %q was processed.", total.StringFixed(2), result.Contract.Title),
		notification.PriorityNormal,
		map[string]string{"link": billingDashboardLink, "contract_id": result.Contract.ID.String()})

	outboxMessage, err := outbox.NewNotificationMessage(result.Contract.ID, n)
	if err != nil {
		logger.Error("Failed to create new outbox message (marshal payload)",
			"charge_id", request.ChargeID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message payload for charge %s: %w", request.ChargeID.String(), err)
	}

	if err = outboxRepoTx.Create(ctx, outboxMessage); err != nil {
		logger.Error("Failed to create outbox message",
			"charge_id", request.ChargeID.String(),
			"contract_id", result.Contract.ID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message for charge %s: %w", request.ChargeID.String(), err)
	}
	logger.Info("Outbox message created successfully",
		"charge_id", request.ChargeID.String(),
		"outbox_id", outboxMessage.ID,
	)

	return nil
}
