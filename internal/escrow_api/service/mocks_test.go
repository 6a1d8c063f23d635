package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/marketplace-escrow-ledger/internal/domain/billing"
	"github.com/marketplace-escrow-ledger/internal/domain/contract"
	"github.com/marketplace-escrow-ledger/internal/domain/dispute"
	"github.com/marketplace-escrow-ledger/internal/domain/escrow"
	"github.com/marketplace-escrow-ledger/internal/domain/invoice"
	"github.com/marketplace-escrow-ledger/internal/domain/outbox"
	"github.com/marketplace-escrow-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// fakeTxRunner runs the transaction function directly; the mocked
// repositories ignore the tx handle.
type fakeTxRunner struct {
	err error
}

func (r *fakeTxRunner) ExecuteTx(_ context.Context, fn func(tx pgx.Tx) error) error {
	if r.err != nil {
		return r.err
	}
	return fn(nil)
}

type MockEscrowRepository struct {
	mock.Mock
}

func (m *MockEscrowRepository) Create(ctx context.Context, entry *escrow.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockEscrowRepository) GetByID(ctx context.Context, id uuid.UUID) (*escrow.Entry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*escrow.Entry), args.Error(1)
}

func (m *MockEscrowRepository) GetByIdempotencyKey(ctx context.Context, idempotencyKey string) (*escrow.Entry, error) {
	args := m.Called(ctx, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*escrow.Entry), args.Error(1)
}

func (m *MockEscrowRepository) GetByContractID(ctx context.Context, contractID uuid.UUID, limit, offset int) ([]*escrow.Entry, error) {
	args := m.Called(ctx, contractID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*escrow.Entry), args.Error(1)
}

func (m *MockEscrowRepository) CountByContractID(ctx context.Context, contractID uuid.UUID) (int64, error) {
	args := m.Called(ctx, contractID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEscrowRepository) ContractBalance(ctx context.Context, contractID uuid.UUID) (*escrow.Balance, error) {
	args := m.Called(ctx, contractID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*escrow.Balance), args.Error(1)
}

func (m *MockEscrowRepository) DisputeHeldAmount(ctx context.Context, contractID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, contractID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockEscrowRepository) ReverseDisputeHolds(ctx context.Context, contractID uuid.UUID) (int64, error) {
	args := m.Called(ctx, contractID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEscrowRepository) FundedWithGatewayRef(ctx context.Context, contractID uuid.UUID) ([]*escrow.Entry, error) {
	args := m.Called(ctx, contractID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*escrow.Entry), args.Error(1)
}

func (m *MockEscrowRepository) LockContract(ctx context.Context, contractID uuid.UUID) error {
	args := m.Called(ctx, contractID)
	return args.Error(0)
}

func (m *MockEscrowRepository) WithTx(_ pgx.Tx) escrow.Repository {
	return m
}

type MockContractRepository struct {
	mock.Mock
}

func (m *MockContractRepository) GetByID(ctx context.Context, id uuid.UUID) (*contract.Contract, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contract.Contract), args.Error(1)
}

func (m *MockContractRepository) SetStatusIfCurrently(ctx context.Context, id uuid.UUID, expected, next contract.Status) (bool, error) {
	args := m.Called(ctx, id, expected, next)
	return args.Bool(0), args.Error(1)
}

func (m *MockContractRepository) WithTx(_ pgx.Tx) contract.Repository {
	return m
}

type MockDisputeRepository struct {
	mock.Mock
}

func (m *MockDisputeRepository) GetByID(ctx context.Context, id uuid.UUID) (*dispute.Dispute, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dispute.Dispute), args.Error(1)
}

func (m *MockDisputeRepository) GetActiveByFreelancer(ctx context.Context, freelancerID uuid.UUID) ([]*dispute.Active, error) {
	args := m.Called(ctx, freelancerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dispute.Active), args.Error(1)
}

func (m *MockDisputeRepository) SetResolved(ctx context.Context, id uuid.UUID, resolution dispute.Status) error {
	args := m.Called(ctx, id, resolution)
	return args.Error(0)
}

func (m *MockDisputeRepository) WithTx(_ pgx.Tx) dispute.Repository {
	return m
}

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockInvoiceRepository) GetByContractID(ctx context.Context, contractID uuid.UUID) ([]*invoice.Invoice, error) {
	args := m.Called(ctx, contractID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*invoice.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) MarkRefundedForContract(ctx context.Context, contractID uuid.UUID) (int64, error) {
	args := m.Called(ctx, contractID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) WithTx(_ pgx.Tx) invoice.Repository {
	return m
}

type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepository) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepository) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepository) WithTx(_ pgx.Tx) outbox.Repository {
	return m
}

type MockBillingRepository struct {
	mock.Mock
}

func (m *MockBillingRepository) Get(ctx context.Context, clientID, freelancerID uuid.UUID) (*billing.Relationship, error) {
	args := m.Called(ctx, clientID, freelancerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Relationship), args.Error(1)
}

func (m *MockBillingRepository) LockForPricing(ctx context.Context, clientID, freelancerID uuid.UUID) (*billing.Relationship, error) {
	args := m.Called(ctx, clientID, freelancerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Relationship), args.Error(1)
}

func (m *MockBillingRepository) AddToCumulative(ctx context.Context, clientID, freelancerID uuid.UUID, amount decimal.Decimal) error {
	args := m.Called(ctx, clientID, freelancerID, amount)
	return args.Error(0)
}

func (m *MockBillingRepository) WithTx(_ pgx.Tx) billing.Repository {
	return m
}

type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) Publish(ctx context.Context, key string, value interface{}) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockMessagePublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}
