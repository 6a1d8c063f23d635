package shared

import "errors"

var (
	ErrInvalidAmount           = errors.New("amount must be positive")
	ErrInvalidCurrency         = errors.New("currency must be a 3-letter code")
	ErrMissingGatewayReference = errors.New("gateway reference is required")
	ErrContractNotBillable     = errors.New("contract status does not permit billing")
)

// OutboxStatus defines side-effect dispatch states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)

// FailureReason defines charge failure categories
type FailureReason string

const (
	FailureReasonContractNotFound        FailureReason = "CONTRACT_NOT_FOUND"
	FailureReasonContractNotBillable     FailureReason = "CONTRACT_NOT_BILLABLE"
	FailureReasonCurrencyMismatchFormat  FailureReason = "CURRENCY_MISMATCH:_REQUEST_%s_CONTRACT_%s" // To be used with fmt.Sprintf
	FailureReasonInvalidAmount           FailureReason = "INVALID_AMOUNT"
	FailureReasonMissingGatewayReference FailureReason = "MISSING_GATEWAY_REFERENCE"
	FailureReasonChargeCommitFailed      FailureReason = "CHARGE_COMMIT_FAILED"
	FailureReasonUnknownError            FailureReason = "UNKNOWN_ERROR"
)
