// Package billing tracks the cumulative amount billed between a client and a
// freelancer. The cumulative total is the sole input to commission tier
// selection and is monotonically non-decreasing.
package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Relationship is keyed by the natural (client, freelancer) pair and persists
// across all contracts between them. It is created on the first successful
// charge between the pair.
type Relationship struct {
	ClientID         uuid.UUID       `json:"client_id"`
	FreelancerID     uuid.UUID       `json:"freelancer_id"`
	CumulativeBilled decimal.Decimal `json:"cumulative_billed"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
