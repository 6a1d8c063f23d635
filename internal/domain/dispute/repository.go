package dispute

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository manages dispute persistence
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Dispute, error)

	// GetActiveByFreelancer lists unresolved disputes on the freelancer's
	// contracts, newest first.
	GetActiveByFreelancer(ctx context.Context, freelancerID uuid.UUID) ([]*Active, error)

	// SetResolved stamps the dispute with its verdict and resolution time
	SetResolved(ctx context.Context, id uuid.UUID, resolution Status) error

	WithTx(tx pgx.Tx) Repository
}

// ErrDisputeNotFound indicates missing dispute
type ErrDisputeNotFound struct {
	DisputeID uuid.UUID
}

func (e ErrDisputeNotFound) Error() string {
	return "dispute not found: " + e.DisputeID.String()
}

// Is implements the errors.Is interface for ErrDisputeNotFound
func (e ErrDisputeNotFound) Is(target error) bool {
	t, ok := target.(ErrDisputeNotFound)
	if !ok {
		return false
	}
	if t.DisputeID == uuid.Nil {
		return true
	}
	return e.DisputeID == t.DisputeID
}

// ErrInvalidResolutionStatus indicates a verdict outside the resolution set
type ErrInvalidResolutionStatus struct {
	Status Status
}

func (e ErrInvalidResolutionStatus) Error() string {
	return "invalid dispute resolution status: " + string(e.Status)
}

// Is implements the errors.Is interface for ErrInvalidResolutionStatus
func (e ErrInvalidResolutionStatus) Is(target error) bool {
	t, ok := target.(ErrInvalidResolutionStatus)
	if !ok {
		return false
	}
	if t.Status == "" {
		return true
	}
	return e.Status == t.Status
}
