package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace-escrow-ledger/internal/domain/escrow"
	"github.com/marketplace-escrow-ledger/internal/domain/shared"
	"github.com/marketplace-escrow-ledger/internal/platform/messaging/producers"
)

// ChargeServiceImpl implements ChargeService. Charges are validated, checked
// against the ledger's idempotency keys, and handed to Kafka; the billing
// processor commits them to the ledger asynchronously.
type ChargeServiceImpl struct {
	logger   *slog.Logger
	escrows  escrow.Repository
	producer producers.MessagePublisher
}

func NewChargeService(logger *slog.Logger, escrows escrow.Repository, producer producers.MessagePublisher) ChargeService {
	return &ChargeServiceImpl{
		logger:   logger,
		escrows:  escrows,
		producer: producer,
	}
}

// SubmitCharge enqueues a weekly charge for processing. When the idempotency
// key already produced a ledger entry that entry is returned and nothing is
// published.
func (s *ChargeServiceImpl) SubmitCharge(ctx context.Context, req *shared.ChargeRequest) (*escrow.Entry, error) {
	if !req.Amount.IsPositive() {
		return nil, shared.ErrInvalidAmount
	}
	if len(req.Currency) != 3 {
		return nil, shared.ErrInvalidCurrency
	}
	req.Currency = strings.ToUpper(req.Currency)

	if req.ChargeID == uuid.Nil {
		req.ChargeID = uuid.New()
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = req.ChargeID.String()
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now()
	}

	existing, err := s.escrows.GetByIdempotencyKey(ctx, req.IdempotencyKey)
	if err != nil {
		s.logger.Error("Failed to check idempotency key",
			"idempotency_key", req.IdempotencyKey,
			"error", err,
		)
		return nil, fmt.Errorf("failed to check idempotency key: %w", err)
	}
	if existing != nil {
		s.logger.Info("Charge already processed, returning existing entry",
			"idempotency_key", req.IdempotencyKey,
			"entry_id", existing.ID,
		)
		return existing, nil
	}

	// Keyed by contract so charges for one contract stay ordered
	if err := s.producer.Publish(ctx, req.ContractID.String(), req); err != nil {
		s.logger.Error("Failed to publish charge request",
			"charge_id", req.ChargeID,
			"contract_id", req.ContractID,
			"error", err,
		)
		return nil, fmt.Errorf("failed to publish charge request: %w", err)
	}

	s.logger.Info("Charge request accepted",
		"charge_id", req.ChargeID,
		"contract_id", req.ContractID,
		"amount", req.Amount,
		"correlation_id", req.CorrelationID,
	)
	return nil, nil
}
