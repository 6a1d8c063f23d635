package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/marketplace-escrow-ledger/internal/domain/contract"
	"github.com/marketplace-escrow-ledger/internal/domain/dispute"
	"github.com/marketplace-escrow-ledger/internal/domain/escrow"
	"github.com/marketplace-escrow-ledger/internal/domain/invoice"
	"github.com/marketplace-escrow-ledger/internal/domain/notification"
	"github.com/marketplace-escrow-ledger/internal/domain/outbox"
	"github.com/marketplace-escrow-ledger/internal/fees"
	"github.com/marketplace-escrow-ledger/internal/platform/persistence"
	"github.com/shopspring/decimal"
)

const disputeDashboardLink = "/dashboard/disputes"

// DisputeServiceImpl implements DisputeService. All money movement for one
// dispute happens inside a single transaction serialized per contract by an
// advisory lock; gateway refunds and notifications are queued through the
// outbox inside that same transaction and dispatched only after commit.
type DisputeServiceImpl struct {
	logger    *slog.Logger
	db        persistence.TxRunner
	escrows   escrow.Repository
	contracts contract.Repository
	disputes  dispute.Repository
	invoices  invoice.Repository
	outboxes  outbox.Repository
}

func NewDisputeService(
	logger *slog.Logger,
	db persistence.TxRunner,
	escrows escrow.Repository,
	contracts contract.Repository,
	disputes dispute.Repository,
	invoices invoice.Repository,
	outboxes outbox.Repository,
) DisputeService {
	return &DisputeServiceImpl{
		logger:    logger,
		db:        db,
		escrows:   escrows,
		contracts: contracts,
		disputes:  disputes,
		invoices:  invoices,
		outboxes:  outboxes,
	}
}

// HoldFunds freezes the contract's unreleased balance (or the requested
// amount) as a completed dispute_hold entry. Holding nothing is a valid
// no-op: a dispute can be raised on a contract with no escrowed funds.
func (s *DisputeServiceImpl) HoldFunds(ctx context.Context, disputeID uuid.UUID, amount *decimal.Decimal) (*HoldResult, error) {
	var result *HoldResult

	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		escrows := s.escrows.WithTx(tx)
		disputes := s.disputes.WithTx(tx)
		contracts := s.contracts.WithTx(tx)
		outboxes := s.outboxes.WithTx(tx)

		d, err := disputes.GetByID(ctx, disputeID)
		if err != nil {
			return err
		}

		if err := escrows.LockContract(ctx, d.ContractID); err != nil {
			return fmt.Errorf("failed to lock contract %s: %w", d.ContractID, err)
		}

		c, err := contracts.GetByID(ctx, d.ContractID)
		if err != nil {
			return err
		}

		var hold decimal.Decimal
		if amount != nil {
			hold = amount.Round(2)
		} else {
			balance, err := escrows.ContractBalance(ctx, c.ID)
			if err != nil {
				return fmt.Errorf("failed to derive balance for contract %s: %w", c.ID, err)
			}
			hold = balance.Unreleased()
		}

		result = &HoldResult{
			DisputeID:  d.ID,
			ContractID: c.ID,
			HeldAmount: decimal.Zero.Round(2),
		}

		if !hold.IsPositive() {
			s.logger.Warn("No funds to hold for dispute",
				"dispute_id", d.ID,
				"contract_id", c.ID,
			)
			return nil
		}

		entry := escrow.NewCompletedEntry(c.ID, escrow.EntryTypeDisputeHold, hold, c.Currency, nil,
			map[string]string{"dispute_id": d.ID.String()})
		if err := escrows.Create(ctx, entry); err != nil {
			return fmt.Errorf("failed to create dispute hold entry: %w", err)
		}

		// Freezes billing on the contract while the dispute is open. The
		// guarded update is a no-op when the contract already left active.
		if _, err := contracts.SetStatusIfCurrently(ctx, c.ID, contract.StatusActive, contract.StatusDisputed); err != nil {
			return err
		}

		n := notification.New(c.FreelancerID, notification.TypeDisputeHold,
			"Payout held for dispute",
			fmt.Sprintf("A dispute placed a hold of $%s on contract %q.", hold.StringFixed(2), c.Title),
			notification.PriorityHigh,
			map[string]string{"link": disputeDashboardLink, "dispute_id": d.ID.String()})
		if err := s.queueNotification(ctx, outboxes, c.ID, n); err != nil {
			return err
		}

		result.HeldAmount = hold
		result.EntryID = &entry.ID
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to hold funds for dispute",
			"dispute_id", disputeID,
			"error", err,
		)
		return nil, err
	}

	s.logger.Info("Dispute hold processed",
		"dispute_id", result.DisputeID,
		"contract_id", result.ContractID,
		"held_amount", result.HeldAmount,
	)
	return result, nil
}

// Resolve executes a dispute verdict: it moves the held funds according to
// the resolution, stamps the dispute, and returns the contract to active.
func (s *DisputeServiceImpl) Resolve(ctx context.Context, disputeID uuid.UUID, resolution dispute.Status, resolutionAmount *decimal.Decimal) (*ResolutionResult, error) {
	if !resolution.IsResolution() {
		return nil, dispute.ErrInvalidResolutionStatus{Status: resolution}
	}

	var result *ResolutionResult

	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		escrows := s.escrows.WithTx(tx)
		disputes := s.disputes.WithTx(tx)
		contracts := s.contracts.WithTx(tx)
		invoices := s.invoices.WithTx(tx)
		outboxes := s.outboxes.WithTx(tx)

		d, err := disputes.GetByID(ctx, disputeID)
		if err != nil {
			return err
		}

		if err := escrows.LockContract(ctx, d.ContractID); err != nil {
			return fmt.Errorf("failed to lock contract %s: %w", d.ContractID, err)
		}

		c, err := contracts.GetByID(ctx, d.ContractID)
		if err != nil {
			return err
		}

		held, err := escrows.DisputeHeldAmount(ctx, c.ID)
		if err != nil {
			return fmt.Errorf("failed to derive held amount for contract %s: %w", c.ID, err)
		}

		result = &ResolutionResult{
			DisputeID:        d.ID,
			ContractID:       c.ID,
			Resolution:       resolution,
			RefundAmount:     decimal.Zero.Round(2),
			FreelancerAmount: decimal.Zero.Round(2),
		}

		switch resolution {
		case dispute.StatusResolvedClient:
			err = s.resolveForClient(ctx, escrows, invoices, outboxes, c, d, held, resolutionAmount, result)
		case dispute.StatusResolvedFreelancer:
			err = s.resolveForFreelancer(ctx, escrows, outboxes, c, d, held, result)
		case dispute.StatusResolvedSplit:
			err = s.resolveForSplit(ctx, escrows, outboxes, c, d, held, resolutionAmount, result)
		}
		if err != nil {
			return err
		}

		if err := disputes.SetResolved(ctx, d.ID, resolution); err != nil {
			return err
		}

		// The guarded update is a no-op when the contract left disputed by
		// other means (cancelled mid-dispute).
		reactivated, err := contracts.SetStatusIfCurrently(ctx, c.ID, contract.StatusDisputed, contract.StatusActive)
		if err != nil {
			return err
		}
		result.ContractReactivated = reactivated
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to resolve dispute",
			"dispute_id", disputeID,
			"resolution", resolution,
			"error", err,
		)
		return nil, err
	}

	s.logger.Info("Dispute resolved",
		"dispute_id", result.DisputeID,
		"contract_id", result.ContractID,
		"resolution", result.Resolution,
		"refund_amount", result.RefundAmount,
		"freelancer_amount", result.FreelancerAmount,
		"holds_reversed", result.HoldsReversed,
	)
	return result, nil
}

// resolveForClient refunds the held amount (or the explicit resolution
// amount) to the client and unwinds the original gateway charges.
func (s *DisputeServiceImpl) resolveForClient(
	ctx context.Context,
	escrows escrow.Repository,
	invoices invoice.Repository,
	outboxes outbox.Repository,
	c *contract.Contract,
	d *dispute.Dispute,
	held decimal.Decimal,
	resolutionAmount *decimal.Decimal,
	result *ResolutionResult,
) error {
	refund := held
	if resolutionAmount != nil {
		refund = resolutionAmount.Round(2)
	}
	if !refund.IsPositive() {
		s.logger.Warn("Client resolution carries no refundable amount, skipping money movement",
			"dispute_id", d.ID,
			"contract_id", c.ID,
			"refund_amount", refund,
		)
		return nil
	}

	entry := escrow.NewCompletedEntry(c.ID, escrow.EntryTypeDisputeRefund, refund, c.Currency, nil,
		map[string]string{"dispute_id": d.ID.String(), "refund_to": "client"})
	if err := escrows.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to create dispute refund entry: %w", err)
	}

	reversed, err := escrows.ReverseDisputeHolds(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("failed to reverse dispute holds: %w", err)
	}
	result.HoldsReversed = reversed

	if err := s.queueGatewayRefunds(ctx, escrows, outboxes, c, d, refund); err != nil {
		return err
	}

	if _, err := invoices.MarkRefundedForContract(ctx, c.ID); err != nil {
		return fmt.Errorf("failed to mark invoices refunded: %w", err)
	}

	refundStr := refund.StringFixed(2)
	if err := s.queueResolvedPair(ctx, outboxes, c, d,
		fmt.Sprintf("Dispute resolved in your favor. $%s will be refunded.", refundStr),
		"Dispute resolved against you. The held payout will not be released.",
	); err != nil {
		return err
	}

	result.RefundAmount = refund
	return nil
}

// resolveForFreelancer releases the held funds back to the payout balance by
// reversing the holds.
func (s *DisputeServiceImpl) resolveForFreelancer(
	ctx context.Context,
	escrows escrow.Repository,
	outboxes outbox.Repository,
	c *contract.Contract,
	d *dispute.Dispute,
	held decimal.Decimal,
	result *ResolutionResult,
) error {
	reversed, err := escrows.ReverseDisputeHolds(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("failed to reverse dispute holds: %w", err)
	}
	result.HoldsReversed = reversed
	result.FreelancerAmount = held.Round(2)

	return s.queueResolvedPair(ctx, outboxes, c, d,
		"Dispute resolved. No refund will be issued.",
		fmt.Sprintf("Dispute resolved in your favor. $%s will be released to your payout balance.", result.FreelancerAmount.StringFixed(2)),
	)
}

// resolveForSplit refunds the explicit resolution amount to the client and
// releases the remainder of the held funds to the freelancer. Without an
// explicit amount the whole hold goes to the freelancer.
func (s *DisputeServiceImpl) resolveForSplit(
	ctx context.Context,
	escrows escrow.Repository,
	outboxes outbox.Repository,
	c *contract.Contract,
	d *dispute.Dispute,
	held decimal.Decimal,
	resolutionAmount *decimal.Decimal,
	result *ResolutionResult,
) error {
	refund := decimal.Zero.Round(2)
	if resolutionAmount != nil {
		refund = resolutionAmount.Round(2)
	}
	freelancerAmount := held.Sub(refund).Round(2)
	if freelancerAmount.IsNegative() {
		freelancerAmount = decimal.Zero.Round(2)
	}

	if refund.IsPositive() {
		entry := escrow.NewCompletedEntry(c.ID, escrow.EntryTypeDisputeRefund, refund, c.Currency, nil,
			map[string]string{"dispute_id": d.ID.String(), "refund_to": "client", "type": "split"})
		if err := escrows.Create(ctx, entry); err != nil {
			return fmt.Errorf("failed to create dispute refund entry: %w", err)
		}

		if err := s.queueGatewayRefunds(ctx, escrows, outboxes, c, d, refund); err != nil {
			return err
		}
	}

	reversed, err := escrows.ReverseDisputeHolds(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("failed to reverse dispute holds: %w", err)
	}
	result.HoldsReversed = reversed

	if err := s.queueResolvedPair(ctx, outboxes, c, d,
		fmt.Sprintf("Dispute resolved with a split outcome. $%s will be refunded.", refund.StringFixed(2)),
		fmt.Sprintf("Dispute resolved with a split outcome. $%s will be released to your payout balance.", freelancerAmount.StringFixed(2)),
	); err != nil {
		return err
	}

	result.RefundAmount = refund
	result.FreelancerAmount = freelancerAmount
	return nil
}

// queueGatewayRefunds walks the contract's gateway-referenced fund entries
// newest first and queues one refund command per charge until the refund is
// covered. The outbox dispatches in insertion order, so the newest charge is
// refunded first.
func (s *DisputeServiceImpl) queueGatewayRefunds(
	ctx context.Context,
	escrows escrow.Repository,
	outboxes outbox.Repository,
	c *contract.Contract,
	d *dispute.Dispute,
	refund decimal.Decimal,
) error {
	entries, err := escrows.FundedWithGatewayRef(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("failed to load refundable charges: %w", err)
	}

	remaining := refund
	for _, entry := range entries {
		if !remaining.IsPositive() {
			break
		}
		portion := decimal.Min(remaining, entry.Amount)

		msg, err := outbox.NewGatewayRefundMessage(c.ID, &outbox.RefundCommand{
			DisputeID:        d.ID,
			ChargeReference:  *entry.GatewayReference,
			AmountMinorUnits: fees.ToMinorUnits(portion),
			Currency:         entry.Currency,
		})
		if err != nil {
			return fmt.Errorf("failed to build gateway refund message: %w", err)
		}
		if err := outboxes.Create(ctx, msg); err != nil {
			return fmt.Errorf("failed to queue gateway refund: %w", err)
		}

		remaining = remaining.Sub(portion)
	}

	if remaining.IsPositive() {
		// The ledger refund stands either way; the gateway shortfall is an
		// operational follow-up, not a resolution failure.
		s.logger.Warn("Refund exceeds refundable gateway charges",
			"dispute_id", d.ID,
			"contract_id", c.ID,
			"uncovered_amount", remaining,
		)
	}
	return nil
}

func (s *DisputeServiceImpl) queueResolvedPair(
	ctx context.Context,
	outboxes outbox.Repository,
	c *contract.Contract,
	d *dispute.Dispute,
	clientBody, freelancerBody string,
) error {
	data := map[string]string{"link": disputeDashboardLink, "dispute_id": d.ID.String()}

	clientNote := notification.New(c.ClientID, notification.TypeDisputeResolved,
		"Dispute resolved", clientBody, notification.PriorityHigh, data)
	if err := s.queueNotification(ctx, outboxes, c.ID, clientNote); err != nil {
		return err
	}

	freelancerNote := notification.New(c.FreelancerID, notification.TypeDisputeResolved,
		"Dispute resolved", freelancerBody, notification.PriorityHigh, data)
	return s.queueNotification(ctx, outboxes, c.ID, freelancerNote)
}

func (s *DisputeServiceImpl) queueNotification(ctx context.Context, outboxes outbox.Repository, contractID uuid.UUID, n *notification.Notification) error {
	msg, err := outbox.NewNotificationMessage(contractID, n)
	if err != nil {
		return fmt.Errorf("failed to build notification message: %w", err)
	}
	if err := outboxes.Create(ctx, msg); err != nil {
		return fmt.Errorf("failed to queue notification: %w", err)
	}
	return nil
}

// GetActiveByFreelancer lists the freelancer's unresolved disputes
func (s *DisputeServiceImpl) GetActiveByFreelancer(ctx context.Context, freelancerID uuid.UUID) ([]*dispute.Active, error) {
	active, err := s.disputes.GetActiveByFreelancer(ctx, freelancerID)
	if err != nil {
		s.logger.Error("Failed to list active disputes",
			"freelancer_id", freelancerID,
			"error", err,
		)
		return nil, err
	}
	return active, nil
}
