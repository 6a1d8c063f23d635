package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/marketplace-escrow-ledger/internal/domain/notification"
	"github.com/marketplace-escrow-ledger/internal/domain/outbox"
	"github.com/marketplace-escrow-ledger/internal/domain/shared"
	"github.com/marketplace-escrow-ledger/internal/platform/gateway"
)

// Dispatcher executes the side effect an outbox message carries
type Dispatcher interface {
	Dispatch(ctx context.Context, message *outbox.Message) error
}

// DispatcherImpl routes outbox messages to the payment gateway or the
// notification sink depending on their kind
type DispatcherImpl struct {
	outboxRepo    outbox.Repository
	gatewayClient gateway.Client
	sink          notification.Sink
	logger        *slog.Logger
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(
	outboxRepo outbox.Repository,
	gatewayClient gateway.Client,
	sink notification.Sink,
	logger *slog.Logger,
) Dispatcher {
	return &DispatcherImpl{
		outboxRepo:    outboxRepo,
		gatewayClient: gatewayClient,
		sink:          sink,
		logger:        logger,
	}
}

// Dispatch executes one outbox message and marks it processed. A payload that
// cannot be decoded is dead-ended immediately; retrying it can never succeed.
func (d *DispatcherImpl) Dispatch(ctx context.Context, message *outbox.Message) error {
	switch message.Kind {
	case outbox.KindGatewayRefund:
		return d.dispatchRefund(ctx, message)
	case outbox.KindNotification:
		return d.dispatchNotification(ctx, message)
	default:
		d.logger.Error("Unknown outbox message kind", "outbox_id", message.ID, "kind", message.Kind)
		if updateErr := d.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			d.logger.Error("Failed to update outbox status to FAILED_TO_PUBLISH for unknown kind", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("unknown outbox kind %q for message %d", message.Kind, message.ID)
	}
}

func (d *DispatcherImpl) dispatchRefund(ctx context.Context, message *outbox.Message) error {
	cmd, err := message.GetRefundCommand()
	if err != nil {
		d.logger.Error("Failed to unmarshal refund command from outbox payload",
			"outbox_id", message.ID, "contract_id", message.ContractID, "error", err,
		)
		if updateErr := d.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			d.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after unmarshal error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	d.logger.Info("Dispatching gateway refund",
		"outbox_id", message.ID,
		"dispute_id", cmd.DisputeID,
		"charge_reference", cmd.ChargeReference,
		"amount_minor_units", cmd.AmountMinorUnits,
	)

	refundRef, err := d.gatewayClient.Refund(ctx, cmd.ChargeReference, cmd.AmountMinorUnits, cmd.Currency)
	if err != nil {
		return fmt.Errorf("gateway refund for outbox %d failed: %w", message.ID, err)
	}

	if err := d.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		d.logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "refund_reference", refundRef, "error", err,
		)
		return fmt.Errorf("refund %s issued, but failed to mark outbox %d as PROCESSED: %w", refundRef, message.ID, err)
	}

	d.logger.Info("Gateway refund dispatched", "outbox_id", message.ID, "refund_reference", refundRef)
	return nil
}

func (d *DispatcherImpl) dispatchNotification(ctx context.Context, message *outbox.Message) error {
	n, err := message.GetNotification()
	if err != nil {
		d.logger.Error("Failed to unmarshal notification from outbox payload",
			"outbox_id", message.ID, "contract_id", message.ContractID, "error", err,
		)
		if updateErr := d.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			d.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after unmarshal error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	if err := d.sink.Deliver(ctx, n); err != nil {
		return fmt.Errorf("notification delivery for outbox %d failed: %w", message.ID, err)
	}

	if err := d.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		d.logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "notification_id", n.ID, "error", err,
		)
		return fmt.Errorf("notification %s delivered, but failed to mark outbox %d as PROCESSED: %w", n.ID, message.ID, err)
	}

	d.logger.Info("Notification dispatched", "outbox_id", message.ID, "notification_id", n.ID, "recipient_id", n.RecipientID)
	return nil
}
