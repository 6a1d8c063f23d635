package components

import (
	"context"
	"errors"
	"strings"
	"testing"

	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/marketplace-escrow-ledger/internal/billing_processor/service"
	"github.com/marketplace-escrow-ledger/internal/domain/contract"
	"github.com/marketplace-escrow-ledger/internal/domain/notification"
	"github.com/marketplace-escrow-ledger/internal/domain/outbox"
	"github.com/marketplace-escrow-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepo) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepo) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) WithTx(tx pgx.Tx) outbox.Repository {
	args := m.Called(tx)
	return args.Get(0).(outbox.Repository)
}

func TestOutboxManager_QueueReceipt(t *testing.T) {
	logger := slog.Default()
	contractID := uuid.New()
	clientID := uuid.New()

	request := &shared.ChargeRequest{
		ChargeID:      uuid.New(),
		ContractID:    contractID,
		Amount:        decimal.NewFromInt(1000),
		Currency:      "USD",
		CorrelationID: "corr1",
	}
	result := &service.PricingResult{
		Contract: &contract.Contract{
			ID:       contractID,
			Title:    "API integration",
			ClientID: clientID,
			Currency: "USD",
		},
		ClientFee: decimal.NewFromInt(50),
	}

	t.Run("queues a payment receipt for the client", func(t *testing.T) {
		mockRepo := &MockOutboxRepo{}
		manager := NewOutboxManager(mockRepo, logger)

		var queued *outbox.Message
		mockRepo.On("WithTx", mock.Anything).Return(mockRepo)
		mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(msg *outbox.Message) bool {
			return msg.Kind == outbox.KindNotification &&
				msg.ContractID == contractID &&
				msg.Status == shared.OutboxStatusPending
		})).Run(func(args mock.Arguments) {
			queued = args.Get(1).(*outbox.Message)
		}).Return(nil).Once()

		err := manager.QueueReceipt(context.Background(), nil, request, result)

		require.NoError(t, err)
		require.NotNil(t, queued)

		n, err := queued.GetNotification()
		require.NoError(t, err)
		assert.Equal(t, clientID, n.RecipientID)
		assert.Equal(t, notification.TypePaymentReceived, n.Type)
		assert.Equal(t, notification.PriorityNormal, n.Priority)
		assert.True(t, strings.Contains(n.Body, "$1050.00"))
		assert.Equal(t, billingDashboardLink, n.Data["link"])
		mockRepo.AssertExpectations(t)
	})

	t.Run("error creating outbox message", func(t *testing.T) {
		mockRepo := &MockOutboxRepo{}
		manager := NewOutboxManager(mockRepo, logger)

		mockRepo.On("WithTx", mock.Anything).Return(mockRepo)
		mockRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db error")).Once()

		err := manager.QueueReceipt(context.Background(), nil, request, result)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "db error")
		mockRepo.AssertExpectations(t)
	})
}
