package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/marketplace-escrow-ledger/internal/domain/contract"
	"github.com/marketplace-escrow-ledger/internal/domain/escrow"
)

// EscrowServiceImpl implements EscrowService
type EscrowServiceImpl struct {
	logger    *slog.Logger
	escrows   escrow.Repository
	contracts contract.Repository
}

func NewEscrowService(logger *slog.Logger, escrows escrow.Repository, contracts contract.Repository) EscrowService {
	return &EscrowServiceImpl{
		logger:    logger,
		escrows:   escrows,
		contracts: contracts,
	}
}

func (s *EscrowServiceImpl) GetEntry(ctx context.Context, entryID uuid.UUID) (*escrow.Entry, error) {
	entry, err := s.escrows.GetByID(ctx, entryID)
	if err != nil {
		s.logger.Error("Failed to get escrow entry",
			"entry_id", entryID,
			"error", err,
		)
		return nil, err
	}
	return entry, nil
}

// GetLedger returns one page of the contract's ledger, newest first, with the
// total entry count for pagination.
func (s *EscrowServiceImpl) GetLedger(ctx context.Context, contractID uuid.UUID, page, perPage int) ([]*escrow.Entry, int64, error) {
	if _, err := s.contracts.GetByID(ctx, contractID); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	entries, err := s.escrows.GetByContractID(ctx, contractID, perPage, offset)
	if err != nil {
		s.logger.Error("Failed to list ledger entries",
			"contract_id", contractID,
			"error", err,
		)
		return nil, 0, err
	}

	total, err := s.escrows.CountByContractID(ctx, contractID)
	if err != nil {
		s.logger.Error("Failed to count ledger entries",
			"contract_id", contractID,
			"error", err,
		)
		return nil, 0, err
	}

	return entries, total, nil
}

// GetBalance derives the contract's balances by summation over completed
// entries, alongside the amount frozen by open dispute holds.
func (s *EscrowServiceImpl) GetBalance(ctx context.Context, contractID uuid.UUID) (*BalanceSummary, error) {
	if _, err := s.contracts.GetByID(ctx, contractID); err != nil {
		return nil, err
	}

	balance, err := s.escrows.ContractBalance(ctx, contractID)
	if err != nil {
		s.logger.Error("Failed to derive contract balance",
			"contract_id", contractID,
			"error", err,
		)
		return nil, err
	}

	held, err := s.escrows.DisputeHeldAmount(ctx, contractID)
	if err != nil {
		s.logger.Error("Failed to derive held amount",
			"contract_id", contractID,
			"error", err,
		)
		return nil, err
	}

	return &BalanceSummary{
		ContractID:  contractID,
		Balance:     *balance,
		Unreleased:  balance.Unreleased(),
		DisputeHeld: held,
	}, nil
}
