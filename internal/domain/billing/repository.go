package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Repository manages billing relationship persistence. Commission pricing is
// a read-decide-write sequence on the cumulative total, so the pricing path
// must use LockForPricing inside the same transaction that commits the charge.
type Repository interface {
	// Get returns the relationship, or nil when the pair has never been billed
	Get(ctx context.Context, clientID, freelancerID uuid.UUID) (*Relationship, error)

	// LockForPricing upserts the relationship row (zero cumulative on first
	// contact) and acquires a row lock held until the surrounding transaction
	// ends, serializing concurrent pricing for the same pair.
	LockForPricing(ctx context.Context, clientID, freelancerID uuid.UUID) (*Relationship, error)

	// AddToCumulative increments cumulative_billed. Must be called exactly
	// once per successfully committed charge.
	AddToCumulative(ctx context.Context, clientID, freelancerID uuid.UUID, amount decimal.Decimal) error

	WithTx(tx pgx.Tx) Repository
}

// ErrConcurrentModification indicates the guarded cumulative update matched
// no row; callers should retry the pricing transaction.
type ErrConcurrentModification struct {
	ClientID     uuid.UUID
	FreelancerID uuid.UUID
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification of billing relationship: " + e.ClientID.String() + "/" + e.FreelancerID.String()
}

// Is implements the errors.Is interface for ErrConcurrentModification
func (e ErrConcurrentModification) Is(target error) bool {
	t, ok := target.(ErrConcurrentModification)
	if !ok {
		return false
	}
	if t.ClientID == uuid.Nil && t.FreelancerID == uuid.Nil {
		return true
	}
	return e.ClientID == t.ClientID && e.FreelancerID == t.FreelancerID
}
