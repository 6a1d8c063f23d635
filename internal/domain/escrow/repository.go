package escrow

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Repository manages escrow ledger persistence. Balances are always derived
// by summation; the only mutation beside appending is reversing completed
// dispute holds.
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	GetByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	GetByIdempotencyKey(ctx context.Context, idempotencyKey string) (*Entry, error)
	GetByContractID(ctx context.Context, contractID uuid.UUID, limit, offset int) ([]*Entry, error)
	CountByContractID(ctx context.Context, contractID uuid.UUID) (int64, error)

	// ContractBalance sums completed entries per type for balance derivation
	ContractBalance(ctx context.Context, contractID uuid.UUID) (*Balance, error)

	// DisputeHeldAmount sums completed dispute_hold entries
	DisputeHeldAmount(ctx context.Context, contractID uuid.UUID) (decimal.Decimal, error)

	// ReverseDisputeHolds transitions all completed dispute_hold entries for
	// the contract to reversed, stamping processed_at. Idempotent: returns
	// the number of entries reversed, zero when none remain.
	ReverseDisputeHolds(ctx context.Context, contractID uuid.UUID) (int64, error)

	// FundedWithGatewayRef returns completed fund entries carrying a gateway
	// reference, newest first, for proportional refund unwinding.
	FundedWithGatewayRef(ctx context.Context, contractID uuid.UUID) ([]*Entry, error)

	// LockContract serializes hold/resolve flows per contract via an
	// advisory transaction lock. Only meaningful inside a transaction.
	LockContract(ctx context.Context, contractID uuid.UUID) error

	WithTx(tx pgx.Tx) Repository
}

// ErrEntryNotFound indicates missing ledger entry
type ErrEntryNotFound struct {
	EntryID uuid.UUID
}

func (e ErrEntryNotFound) Error() string {
	return "escrow entry not found: " + e.EntryID.String()
}

// Is implements the errors.Is interface for ErrEntryNotFound
func (e ErrEntryNotFound) Is(target error) bool {
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	// If the target EntryID is empty, consider it a match for any ErrEntryNotFound
	if t.EntryID == uuid.Nil {
		return true
	}
	return e.EntryID == t.EntryID
}

// ErrDuplicateEntry indicates entry uniqueness violation
type ErrDuplicateEntry struct {
	EntryID uuid.UUID
}

func (e ErrDuplicateEntry) Error() string {
	return "duplicate escrow entry: " + e.EntryID.String()
}

// Is implements the errors.Is interface for ErrDuplicateEntry
func (e ErrDuplicateEntry) Is(target error) bool {
	t, ok := target.(ErrDuplicateEntry)
	if !ok {
		return false
	}
	if t.EntryID == uuid.Nil {
		return true
	}
	return e.EntryID == t.EntryID
}
