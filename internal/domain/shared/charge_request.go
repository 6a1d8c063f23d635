package shared

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChargeRequest defines a Kafka message for asynchronous charge processing.
// The charge itself has already been captured by the checkout flow; the
// request carries the gateway reference so later refunds can be issued
// against the original charge.
type ChargeRequest struct {
	ChargeID         uuid.UUID       `json:"charge_id"`
	ContractID       uuid.UUID       `json:"contract_id"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	GatewayReference string          `json:"gateway_reference"`
	IdempotencyKey   string          `json:"idempotency_key,omitempty"`
	CorrelationID    string          `json:"correlation_id"`
	Timestamp        time.Time       `json:"timestamp"`
}
