package handler

// FeeQuoteParams represents query parameters for a fee quote
type FeeQuoteParams struct {
	Amount       string `form:"amount" binding:"required"`
	ClientID     string `form:"client_id" binding:"required,uuid"`
	FreelancerID string `form:"freelancer_id" binding:"required,uuid"`
}

// EffectiveRateParams represents query parameters for a rate lookup
type EffectiveRateParams struct {
	ClientID     string `form:"client_id" binding:"required,uuid"`
	FreelancerID string `form:"freelancer_id" binding:"required,uuid"`
}

// FeeQuoteResponse represents a fee quote in API responses
type FeeQuoteResponse struct {
	Amount            string `json:"amount"`
	ClientFee         string `json:"client_fee"`
	TotalClientCharge string `json:"total_client_charge"`
	Commission        string `json:"commission"`
	RateUsed          string `json:"rate_used"`
	CumulativeBefore  string `json:"cumulative_before"`
	CumulativeAfter   string `json:"cumulative_after"`
}

// EffectiveRateResponse represents a relationship's current rate in API responses
type EffectiveRateResponse struct {
	Rate                string `json:"rate"`
	CumulativeBilled    string `json:"cumulative_billed"`
	Threshold           string `json:"threshold"`
	RemainingAtHighRate string `json:"remaining_at_high_rate"`
}

// CreateChargeRequest represents a request to submit a weekly charge
type CreateChargeRequest struct {
	ContractID       string `json:"contract_id" binding:"required,uuid"`
	Amount           string `json:"amount" binding:"required"`
	Currency         string `json:"currency" binding:"required,len=3"`
	GatewayReference string `json:"gateway_reference" binding:"required"`
	IdempotencyKey   string `json:"idempotency_key,omitempty"`
}

// EntryResponse represents a ledger entry in API responses
type EntryResponse struct {
	ID               string            `json:"id"`
	ContractID       string            `json:"contract_id"`
	Type             string            `json:"type"`
	Amount           string            `json:"amount"`
	Currency         string            `json:"currency"`
	Status           string            `json:"status"`
	GatewayReference string            `json:"gateway_reference,omitempty"`
	GatewayMetadata  map[string]string `json:"gateway_metadata,omitempty"`
	CreatedAt        string            `json:"created_at"`
	ProcessedAt      string            `json:"processed_at,omitempty"`
}

// BalanceResponse represents a contract's derived balances in API responses
type BalanceResponse struct {
	ContractID      string `json:"contract_id"`
	Funded          string `json:"funded"`
	Released        string `json:"released"`
	Refunded        string `json:"refunded"`
	DisputeRefunded string `json:"dispute_refunded"`
	Unreleased      string `json:"unreleased"`
	DisputeHeld     string `json:"dispute_held"`
}

// HoldFundsRequest represents a request to hold funds for a dispute.
// Amount is optional: when omitted the full unreleased balance is held.
type HoldFundsRequest struct {
	Amount *string `json:"amount,omitempty"`
}

// HoldFundsResponse represents the outcome of a hold request
type HoldFundsResponse struct {
	DisputeID  string `json:"dispute_id"`
	ContractID string `json:"contract_id"`
	HeldAmount string `json:"held_amount"`
	EntryID    string `json:"entry_id,omitempty"`
}

// ResolveDisputeRequest represents a request to execute a dispute's
// financial resolution
type ResolveDisputeRequest struct {
	Resolution       string  `json:"resolution" binding:"required,oneof=resolved_client resolved_freelancer resolved_split"`
	ResolutionAmount *string `json:"resolution_amount,omitempty"`
}

// ResolveDisputeResponse represents the outcome of a resolution
type ResolveDisputeResponse struct {
	DisputeID           string `json:"dispute_id"`
	ContractID          string `json:"contract_id"`
	Resolution          string `json:"resolution"`
	RefundAmount        string `json:"refund_amount"`
	FreelancerAmount    string `json:"freelancer_amount"`
	HoldsReversed       int64  `json:"holds_reversed"`
	ContractReactivated bool   `json:"contract_reactivated"`
}

// ActiveDisputeResponse represents an unresolved dispute in API responses
type ActiveDisputeResponse struct {
	DisputeID     string `json:"dispute_id"`
	ContractID    string `json:"contract_id"`
	ContractTitle string `json:"contract_title"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}
