package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/marketplace-escrow-ledger/internal/billing_processor/service"
	"github.com/marketplace-escrow-ledger/internal/domain/shared"
	"github.com/marketplace-escrow-ledger/internal/platform/messaging/producers"
)

// ChargeEventHandler handles incoming charge request messages from Kafka
type ChargeEventHandler struct {
	processingService service.ProcessingService
	producer          producers.DeadLetterPublisher
	logger            *slog.Logger
}

// NewChargeEventHandler creates a new handler
func NewChargeEventHandler(
	logger *slog.Logger,
	processingService service.ProcessingService,
	producer producers.DeadLetterPublisher,
) *ChargeEventHandler {
	return &ChargeEventHandler{
		processingService: processingService,
		producer:          producer,
		logger:            logger,
	}
}

// HandleMessage processes Kafka messages
func (h *ChargeEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var request shared.ChargeRequest
	if err := json.Unmarshal(value, &request); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal charge request from Kafka message"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)

		// Send to DLQ if available
		if h.producer != nil {
			dlqReason := fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error())
			if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
				h.logger.Error("Failed to publish message to DLQ after unmarshal error",
					"dlq_error", dlqErr,
					"original_error", err,
					"message_key", string(key),
				)
				// Return original error if DLQ fails
			} else {
				h.logger.Info("Successfully published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
				// Message handled, commit offset
				return nil
			}
		}
		// Allow Kafka retries
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	// Add correlation ID to logger
	logger := h.logger
	if request.CorrelationID != "" {
		logger = h.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Received charge request for processing",
		"charge_id", request.ChargeID.String(),
		"contract_id", request.ContractID.String(),
		"amount", request.Amount,
	)

	if err := h.processingService.ProcessCharge(ctx, &request); err != nil {
		logger.Error("Failed to process charge",
			"charge_id", request.ChargeID.String(),
			"contract_id", request.ContractID.String(),
			"error", err,
		)
		return fmt.Errorf("processing charge %s failed: %w", request.ChargeID.String(), err)
	}

	logger.Info("Successfully processed charge", "charge_id", request.ChargeID.String())
	return nil // Success, commit offset
}
