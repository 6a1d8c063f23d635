package contract

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository manages contract persistence
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Contract, error)

	// SetStatusIfCurrently performs a guarded status update: the row is only
	// changed when its status still equals expected. Returns true when a row
	// was updated.
	SetStatusIfCurrently(ctx context.Context, id uuid.UUID, expected, next Status) (bool, error)

	WithTx(tx pgx.Tx) Repository
}

// ErrContractNotFound indicates missing contract
type ErrContractNotFound struct {
	ContractID uuid.UUID
}

func (e ErrContractNotFound) Error() string {
	return "contract not found: " + e.ContractID.String()
}

// Is implements the errors.Is interface for ErrContractNotFound
func (e ErrContractNotFound) Is(target error) bool {
	t, ok := target.(ErrContractNotFound)
	if !ok {
		return false
	}
	if t.ContractID == uuid.Nil {
		return true
	}
	return e.ContractID == t.ContractID
}

// ErrInvalidStatusTransition indicates a transition outside the permitted set
type ErrInvalidStatusTransition struct {
	From Status
	To   Status
}

func (e ErrInvalidStatusTransition) Error() string {
	return "invalid contract status transition: " + string(e.From) + " -> " + string(e.To)
}

// Is implements the errors.Is interface for ErrInvalidStatusTransition
func (e ErrInvalidStatusTransition) Is(target error) bool {
	t, ok := target.(ErrInvalidStatusTransition)
	if !ok {
		return false
	}
	if t.From == "" && t.To == "" {
		return true
	}
	return e.From == t.From && e.To == t.To
}
