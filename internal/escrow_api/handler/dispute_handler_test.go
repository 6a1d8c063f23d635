package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/marketplace-escrow-ledger/internal/domain/dispute"
	"github.com/marketplace-escrow-ledger/internal/escrow_api/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDisputeService struct {
	mock.Mock
}

func (m *MockDisputeService) HoldFunds(ctx context.Context, disputeID uuid.UUID, amount *decimal.Decimal) (*service.HoldResult, error) {
	args := m.Called(ctx, disputeID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.HoldResult), args.Error(1)
}

func (m *MockDisputeService) Resolve(ctx context.Context, disputeID uuid.UUID, resolution dispute.Status, resolutionAmount *decimal.Decimal) (*service.ResolutionResult, error) {
	args := m.Called(ctx, disputeID, resolution, resolutionAmount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ResolutionResult), args.Error(1)
}

func (m *MockDisputeService) GetActiveByFreelancer(ctx context.Context, freelancerID uuid.UUID) ([]*dispute.Active, error) {
	args := m.Called(ctx, freelancerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dispute.Active), args.Error(1)
}

func newDisputeRouter(mockService *MockDisputeService) *gin.Engine {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	gin.SetMode(gin.TestMode)
	handler := NewDisputeHandler(mockService, logger)

	router := gin.Default()
	router.POST("/disputes/:id/hold", handler.HoldFunds)
	router.POST("/disputes/:id/resolve", handler.ResolveDispute)
	router.GET("/freelancers/:id/disputes", handler.GetActiveDisputes)
	return router
}

func dataField(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var topLevel map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &topLevel))
	data, ok := topLevel["data"].(map[string]interface{})
	require.True(t, ok, "'data' field should be a map")
	return data
}

func TestDisputeHandler_HoldFunds(t *testing.T) {
	t.Run("SuccessWithoutBody", func(t *testing.T) {
		mockService := new(MockDisputeService)
		router := newDisputeRouter(mockService)

		disputeID := uuid.New()
		contractID := uuid.New()
		entryID := uuid.New()
		mockService.On("HoldFunds", mock.Anything, disputeID, (*decimal.Decimal)(nil)).
			Return(&service.HoldResult{
				DisputeID:  disputeID,
				ContractID: contractID,
				HeldAmount: decimal.RequireFromString("600.00"),
				EntryID:    &entryID,
			}, nil)

		req, _ := http.NewRequest(http.MethodPost, "/disputes/"+disputeID.String()+"/hold", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		data := dataField(t, rr.Body.Bytes())
		assert.Equal(t, "600.00", data["held_amount"])
		assert.Equal(t, entryID.String(), data["entry_id"])
		mockService.AssertExpectations(t)
	})

	t.Run("SuccessWithExplicitAmount", func(t *testing.T) {
		mockService := new(MockDisputeService)
		router := newDisputeRouter(mockService)

		disputeID := uuid.New()
		mockService.On("HoldFunds", mock.Anything, disputeID, mock.MatchedBy(func(amount *decimal.Decimal) bool {
			return amount != nil && amount.Equal(decimal.RequireFromString("250.00"))
		})).Return(&service.HoldResult{
			DisputeID:  disputeID,
			ContractID: uuid.New(),
			HeldAmount: decimal.RequireFromString("250.00"),
		}, nil)

		body, _ := json.Marshal(HoldFundsRequest{Amount: strPtr("250.00")})
		req, _ := http.NewRequest(http.MethodPost, "/disputes/"+disputeID.String()+"/hold", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("NegativeAmount", func(t *testing.T) {
		mockService := new(MockDisputeService)
		router := newDisputeRouter(mockService)

		body, _ := json.Marshal(HoldFundsRequest{Amount: strPtr("-5.00")})
		req, _ := http.NewRequest(http.MethodPost, "/disputes/"+uuid.NewString()+"/hold", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("InvalidDisputeID", func(t *testing.T) {
		mockService := new(MockDisputeService)
		router := newDisputeRouter(mockService)

		req, _ := http.NewRequest(http.MethodPost, "/disputes/not-a-uuid/hold", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("DisputeNotFound", func(t *testing.T) {
		mockService := new(MockDisputeService)
		router := newDisputeRouter(mockService)

		disputeID := uuid.New()
		mockService.On("HoldFunds", mock.Anything, disputeID, (*decimal.Decimal)(nil)).
			Return(nil, dispute.ErrDisputeNotFound{DisputeID: disputeID})

		req, _ := http.NewRequest(http.MethodPost, "/disputes/"+disputeID.String()+"/hold", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestDisputeHandler_ResolveDispute(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := new(MockDisputeService)
		router := newDisputeRouter(mockService)

		disputeID := uuid.New()
		contractID := uuid.New()
		mockService.On("Resolve", mock.Anything, disputeID, dispute.StatusResolvedSplit, mock.MatchedBy(func(amount *decimal.Decimal) bool {
			return amount != nil && amount.Equal(decimal.RequireFromString("200.00"))
		})).Return(&service.ResolutionResult{
			DisputeID:           disputeID,
			ContractID:          contractID,
			Resolution:          dispute.StatusResolvedSplit,
			RefundAmount:        decimal.RequireFromString("200.00"),
			FreelancerAmount:    decimal.RequireFromString("400.00"),
			HoldsReversed:       1,
			ContractReactivated: true,
		}, nil)

		body, _ := json.Marshal(ResolveDisputeRequest{
			Resolution:       "resolved_split",
			ResolutionAmount: strPtr("200.00"),
		})
		req, _ := http.NewRequest(http.MethodPost, "/disputes/"+disputeID.String()+"/resolve", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		data := dataField(t, rr.Body.Bytes())
		assert.Equal(t, "resolved_split", data["resolution"])
		assert.Equal(t, "200.00", data["refund_amount"])
		assert.Equal(t, "400.00", data["freelancer_amount"])
		assert.Equal(t, true, data["contract_reactivated"])
		mockService.AssertExpectations(t)
	})

	t.Run("RejectsUnknownResolution", func(t *testing.T) {
		mockService := new(MockDisputeService)
		router := newDisputeRouter(mockService)

		body, _ := json.Marshal(ResolveDisputeRequest{Resolution: "closed"})
		req, _ := http.NewRequest(http.MethodPost, "/disputes/"+uuid.NewString()+"/resolve", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("MissingResolution", func(t *testing.T) {
		mockService := new(MockDisputeService)
		router := newDisputeRouter(mockService)

		req, _ := http.NewRequest(http.MethodPost, "/disputes/"+uuid.NewString()+"/resolve", bytes.NewBufferString(`{}`))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestDisputeHandler_GetActiveDisputes(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := new(MockDisputeService)
		router := newDisputeRouter(mockService)

		freelancerID := uuid.New()
		active := []*dispute.Active{
			{DisputeID: uuid.New(), ContractID: uuid.New(), ContractTitle: "Website redesign"},
		}
		mockService.On("GetActiveByFreelancer", mock.Anything, freelancerID).Return(active, nil)

		req, _ := http.NewRequest(http.MethodGet, "/freelancers/"+freelancerID.String()+"/disputes", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var topLevel map[string]interface{}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &topLevel))
		list, ok := topLevel["data"].([]interface{})
		require.True(t, ok)
		require.Len(t, list, 1)
		first := list[0].(map[string]interface{})
		assert.Equal(t, "Website redesign", first["contract_title"])
	})

	t.Run("EmptyList", func(t *testing.T) {
		mockService := new(MockDisputeService)
		router := newDisputeRouter(mockService)

		freelancerID := uuid.New()
		mockService.On("GetActiveByFreelancer", mock.Anything, freelancerID).Return([]*dispute.Active{}, nil)

		req, _ := http.NewRequest(http.MethodGet, "/freelancers/"+freelancerID.String()+"/disputes", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func strPtr(s string) *string {
	return &s
}
