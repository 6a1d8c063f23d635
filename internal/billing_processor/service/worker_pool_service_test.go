package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/marketplace-escrow-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockProcessingService mocks the ProcessingService interface
type MockProcessingService struct {
	mock.Mock
}

func (m *MockProcessingService) ProcessCharge(ctx context.Context, request *shared.ChargeRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func TestWorkerPoolProcessingService_ProcessCharge(t *testing.T) {
	logger := slog.Default()

	// Create a test request
	request := &shared.ChargeRequest{
		ChargeID:         uuid.New(),
		ContractID:       uuid.New(),
		Amount:           decimal.NewFromInt(1000),
		Currency:         "USD",
		GatewayReference: "ch_abc123",
		IdempotencyKey:   "key1",
		CorrelationID:    "corr1",
	}

	tests := []struct {
		name          string
		setupMocks    func(mockBaseService *MockProcessingService)
		expectedError error
	}{
		{
			name: "successful processing",
			setupMocks: func(mockBaseService *MockProcessingService) {
				mockBaseService.On("ProcessCharge", mock.Anything, request).Return(nil).Once()
			},
			expectedError: nil,
		},
		{
			name: "processing error",
			setupMocks: func(mockBaseService *MockProcessingService) {
				mockBaseService.On("ProcessCharge", mock.Anything, request).Return(errors.New("processing error")).Once()
			},
			expectedError: errors.New("processing error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockBaseService := &MockProcessingService{}

			workerPoolService, err := NewWorkerPoolProcessingService(
				mockBaseService,
				WorkerPoolConfig{
					Size: 2,
				},
				logger,
			)
			assert.NoError(t, err)
			defer workerPoolService.Shutdown()

			tt.setupMocks(mockBaseService)
			ctx := context.Background()

			err = workerPoolService.ProcessCharge(ctx, request)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError.Error())
			} else {
				assert.NoError(t, err)
			}

			mockBaseService.AssertExpectations(t)
		})
	}
}

func TestWorkerPoolProcessingService_Concurrency(t *testing.T) {
	mockBaseService := &MockProcessingService{}
	logger := slog.Default()

	workerPoolService, err := NewWorkerPoolProcessingService(
		mockBaseService,
		WorkerPoolConfig{
			Size: 5,
		},
		logger,
	)
	assert.NoError(t, err)
	defer workerPoolService.Shutdown()

	var mu sync.Mutex
	counter := 0

	mockBaseService.On("ProcessCharge", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		// Simulate some work
		time.Sleep(10 * time.Millisecond)

		mu.Lock()
		counter++
		mu.Unlock()
	}).Return(nil)

	numRequests := 10
	var wg sync.WaitGroup
	wg.Add(numRequests)

	for i := 0; i < numRequests; i++ {
		go func(i int) {
			defer wg.Done()

			request := &shared.ChargeRequest{
				ChargeID:         uuid.New(),
				ContractID:       uuid.New(),
				Amount:           decimal.NewFromInt(1000),
				Currency:         "USD",
				GatewayReference: "ch_" + strconv.Itoa(i),
				IdempotencyKey:   "key" + strconv.Itoa(i),
				CorrelationID:    "corr" + strconv.Itoa(i),
			}

			ctx := context.Background()
			err := workerPoolService.ProcessCharge(ctx, request)
			assert.NoError(t, err)
		}(i)
	}

	wg.Wait()

	assert.Equal(t, numRequests, counter)

	// The pool should still be usable after the burst
	assert.True(t, workerPoolService.Running() > 0)
	assert.Equal(t, 5, workerPoolService.Capacity())
}
