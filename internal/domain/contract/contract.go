// Package contract defines the marketplace contract projection the billing
// system reads and the status lifecycle it is allowed to drive.
package contract

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status defines contract lifecycle states
type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusDisputed  Status = "disputed"
	StatusSuspended Status = "suspended"
)

// validTransitions is the closed set of permitted status changes. Anything
// not listed is rejected.
var validTransitions = map[Status][]Status{
	StatusActive:    {StatusPaused, StatusCompleted, StatusCancelled, StatusDisputed, StatusSuspended},
	StatusPaused:    {StatusActive, StatusCancelled, StatusSuspended},
	StatusDisputed:  {StatusActive, StatusCancelled, StatusCompleted},
	StatusSuspended: {StatusActive, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
}

// CanTransitionTo reports whether moving from s to target is permitted
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further status changes are permitted
func (s Status) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

// Contract is the billing-side view of a marketplace contract
type Contract struct {
	ID           uuid.UUID       `json:"id"`
	Title        string          `json:"title"`
	ClientID     uuid.UUID       `json:"client_id"`
	FreelancerID uuid.UUID       `json:"freelancer_id"`
	HourlyRate   decimal.Decimal `json:"hourly_rate"`
	Currency     string          `json:"currency"`
	Status       Status          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
