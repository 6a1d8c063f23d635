package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/marketplace-escrow-ledger/internal/domain/billing"
	"github.com/marketplace-escrow-ledger/internal/domain/shared"
	"github.com/marketplace-escrow-ledger/internal/fees"
	"github.com/shopspring/decimal"
)

// FeeServiceImpl implements FeeService. Quotes are advisory reads: the
// authoritative pricing happens inside the charge transaction under the
// relationship row lock, so a quote can go stale the moment it is returned.
type FeeServiceImpl struct {
	logger   *slog.Logger
	billings billing.Repository
}

func NewFeeService(logger *slog.Logger, billings billing.Repository) FeeService {
	return &FeeServiceImpl{
		logger:   logger,
		billings: billings,
	}
}

func (s *FeeServiceImpl) cumulativeBilled(ctx context.Context, clientID, freelancerID uuid.UUID) (decimal.Decimal, error) {
	rel, err := s.billings.Get(ctx, clientID, freelancerID)
	if err != nil {
		s.logger.Error("Failed to load billing relationship",
			"client_id", clientID,
			"freelancer_id", freelancerID,
			"error", err,
		)
		return decimal.Decimal{}, err
	}
	if rel == nil {
		// Never billed before, pricing starts from zero
		return decimal.Zero, nil
	}
	return rel.CumulativeBilled, nil
}

// QuoteFees prices a prospective charge: client fee on top, freelancer
// commission against the pair's cumulative history.
func (s *FeeServiceImpl) QuoteFees(ctx context.Context, clientID, freelancerID uuid.UUID, amount decimal.Decimal) (*FeeQuote, error) {
	if !amount.IsPositive() {
		return nil, shared.ErrInvalidAmount
	}

	cumulative, err := s.cumulativeBilled(ctx, clientID, freelancerID)
	if err != nil {
		return nil, err
	}

	return &FeeQuote{
		Amount:            amount.Round(2),
		ClientFee:         fees.ClientFee(amount),
		TotalClientCharge: fees.TotalClientCharge(amount),
		Commission:        fees.Commission(amount, cumulative),
	}, nil
}

// EffectiveRate reports the commission rate the pair's next charge would open at
func (s *FeeServiceImpl) EffectiveRate(ctx context.Context, clientID, freelancerID uuid.UUID) (*fees.RateInfo, error) {
	cumulative, err := s.cumulativeBilled(ctx, clientID, freelancerID)
	if err != nil {
		return nil, err
	}

	info := fees.EffectiveRate(cumulative)
	return &info, nil
}
