package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/marketplace-escrow-ledger/internal/domain/escrow"
	"github.com/marketplace-escrow-ledger/internal/domain/shared"
	"github.com/marketplace-escrow-ledger/internal/escrow_api/middleware"
	"github.com/marketplace-escrow-ledger/internal/escrow_api/service"
	"github.com/shopspring/decimal"
)

// ChargeHandler handles weekly charge submission
type ChargeHandler struct {
	chargeService service.ChargeService
	escrowService service.EscrowService
	logger        *slog.Logger
}

func NewChargeHandler(chargeService service.ChargeService, escrowService service.EscrowService, logger *slog.Logger) *ChargeHandler {
	return &ChargeHandler{
		chargeService: chargeService,
		escrowService: escrowService,
		logger:        logger,
	}
}

// CreateCharge handles POST /api/v1/charges. Accepted charges are processed
// asynchronously; a repeat idempotency key returns the committed entry.
func (h *ChargeHandler) CreateCharge(c *gin.Context) {
	var req CreateChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		RespondBadRequest(c, "Invalid amount format")
		return
	}
	contractID, _ := uuid.Parse(req.ContractID)

	chargeReq := &shared.ChargeRequest{
		ContractID:       contractID,
		Amount:           amount,
		Currency:         req.Currency,
		GatewayReference: req.GatewayReference,
		IdempotencyKey:   req.IdempotencyKey,
		CorrelationID:    middleware.GetCorrelationID(c),
	}

	existing, err := h.chargeService.SubmitCharge(c.Request.Context(), chargeReq)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrInvalidAmount), errors.Is(err, shared.ErrInvalidCurrency):
			RespondBadRequest(c, err.Error())
		default:
			h.logger.Error("Failed to submit charge", "contract_id", req.ContractID, "error", err)
			RespondInternalError(c)
		}
		return
	}

	if existing != nil {
		RespondOK(c, toEntryResponse(existing))
		return
	}

	RespondAccepted(c, gin.H{
		"charge_id":       chargeReq.ChargeID.String(),
		"contract_id":     chargeReq.ContractID.String(),
		"idempotency_key": chargeReq.IdempotencyKey,
		"status":          "accepted",
	})
}

// GetCharge handles GET /api/v1/charges/:id, returning the ledger entry the
// charge produced once processing completes.
func (h *ChargeHandler) GetCharge(c *gin.Context) {
	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid charge ID format")
		return
	}

	entry, err := h.escrowService.GetEntry(c.Request.Context(), entryID)
	if err != nil {
		if errors.Is(err, escrow.ErrEntryNotFound{}) {
			RespondNotFound(c, "Charge not found")
			return
		}
		h.logger.Error("Failed to get charge", "entry_id", entryID, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, toEntryResponse(entry))
}
