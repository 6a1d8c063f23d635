package invoice

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository manages invoice persistence
type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByContractID(ctx context.Context, contractID uuid.UUID) ([]*Invoice, error)

	// MarkRefundedForContract moves the contract's paid and sent invoices to
	// refunded. Returns the number of invoices updated.
	MarkRefundedForContract(ctx context.Context, contractID uuid.UUID) (int64, error)

	WithTx(tx pgx.Tx) Repository
}

// ErrInvoiceNotFound indicates missing invoice
type ErrInvoiceNotFound struct {
	InvoiceID uuid.UUID
}

func (e ErrInvoiceNotFound) Error() string {
	return "invoice not found: " + e.InvoiceID.String()
}

// Is implements the errors.Is interface for ErrInvoiceNotFound
func (e ErrInvoiceNotFound) Is(target error) bool {
	t, ok := target.(ErrInvoiceNotFound)
	if !ok {
		return false
	}
	if t.InvoiceID == uuid.Nil {
		return true
	}
	return e.InvoiceID == t.InvoiceID
}
