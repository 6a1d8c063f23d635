// Package dispute defines the dispute projection the financial resolver acts
// on. Dispute lifecycle management lives elsewhere; this package only models
// what resolution needs: identity, the contract, and the resolution verdict.
package dispute

import (
	"time"

	"github.com/google/uuid"
)

// Status defines dispute lifecycle states
type Status string

const (
	StatusOpen               Status = "open"
	StatusUnderReview        Status = "under_review"
	StatusResolvedClient     Status = "resolved_client"
	StatusResolvedFreelancer Status = "resolved_freelancer"
	StatusResolvedSplit      Status = "resolved_split"
	StatusClosed             Status = "closed"
)

// IsResolution reports whether the status is a financial verdict
func (s Status) IsResolution() bool {
	switch s {
	case StatusResolvedClient, StatusResolvedFreelancer, StatusResolvedSplit:
		return true
	}
	return false
}

// IsActive reports whether the dispute still blocks the contract
func (s Status) IsActive() bool {
	return s == StatusOpen || s == StatusUnderReview
}

// Dispute represents a raised dispute on a contract
type Dispute struct {
	ID         uuid.UUID  `json:"id"`
	ContractID uuid.UUID  `json:"contract_id"`
	RaisedBy   uuid.UUID  `json:"raised_by"`
	Reason     string     `json:"reason,omitempty"`
	Status     Status     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// Active is the lightweight listing projection of an unresolved dispute
type Active struct {
	DisputeID     uuid.UUID `json:"dispute_id"`
	ContractID    uuid.UUID `json:"contract_id"`
	ContractTitle string    `json:"contract_title"`
}
