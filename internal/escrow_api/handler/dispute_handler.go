package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/marketplace-escrow-ledger/internal/domain/contract"
	"github.com/marketplace-escrow-ledger/internal/domain/dispute"
	"github.com/marketplace-escrow-ledger/internal/escrow_api/service"
	"github.com/shopspring/decimal"
)

// DisputeHandler handles dispute financial endpoints
type DisputeHandler struct {
	disputeService service.DisputeService
	logger         *slog.Logger
}

func NewDisputeHandler(disputeService service.DisputeService, logger *slog.Logger) *DisputeHandler {
	return &DisputeHandler{
		disputeService: disputeService,
		logger:         logger,
	}
}

func (h *DisputeHandler) respondDisputeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, dispute.ErrDisputeNotFound{}):
		RespondNotFound(c, "Dispute not found")
	case errors.Is(err, contract.ErrContractNotFound{}):
		RespondNotFound(c, "Contract not found")
	case errors.Is(err, dispute.ErrInvalidResolutionStatus{}):
		RespondBadRequest(c, err.Error())
	case errors.Is(err, contract.ErrInvalidStatusTransition{}):
		RespondConflict(c, err.Error())
	default:
		h.logger.Error("Dispute operation failed", "error", err)
		RespondInternalError(c)
	}
}

// HoldFunds handles POST /api/v1/disputes/:id/hold
func (h *DisputeHandler) HoldFunds(c *gin.Context) {
	disputeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid dispute ID format")
		return
	}

	// The body is optional; an empty request holds the full unreleased balance
	var req HoldFundsRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondBadRequest(c, "Invalid request format: "+err.Error())
			return
		}
	}

	var amount *decimal.Decimal
	if req.Amount != nil {
		parsed, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			RespondBadRequest(c, "Invalid amount format")
			return
		}
		if !parsed.IsPositive() {
			RespondBadRequest(c, "Amount must be positive")
			return
		}
		amount = &parsed
	}

	result, err := h.disputeService.HoldFunds(c.Request.Context(), disputeID, amount)
	if err != nil {
		h.respondDisputeError(c, err)
		return
	}

	resp := HoldFundsResponse{
		DisputeID:  result.DisputeID.String(),
		ContractID: result.ContractID.String(),
		HeldAmount: result.HeldAmount.StringFixed(2),
	}
	if result.EntryID != nil {
		resp.EntryID = result.EntryID.String()
	}
	RespondCreated(c, resp)
}

// ResolveDispute handles POST /api/v1/disputes/:id/resolve
func (h *DisputeHandler) ResolveDispute(c *gin.Context) {
	disputeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid dispute ID format")
		return
	}

	var req ResolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	var resolutionAmount *decimal.Decimal
	if req.ResolutionAmount != nil {
		parsed, err := decimal.NewFromString(*req.ResolutionAmount)
		if err != nil {
			RespondBadRequest(c, "Invalid resolution amount format")
			return
		}
		resolutionAmount = &parsed
	}

	result, err := h.disputeService.Resolve(c.Request.Context(), disputeID, dispute.Status(req.Resolution), resolutionAmount)
	if err != nil {
		h.respondDisputeError(c, err)
		return
	}

	RespondOK(c, ResolveDisputeResponse{
		DisputeID:           result.DisputeID.String(),
		ContractID:          result.ContractID.String(),
		Resolution:          string(result.Resolution),
		RefundAmount:        result.RefundAmount.StringFixed(2),
		FreelancerAmount:    result.FreelancerAmount.StringFixed(2),
		HoldsReversed:       result.HoldsReversed,
		ContractReactivated: result.ContractReactivated,
	})
}

// GetActiveDisputes handles GET /api/v1/freelancers/:id/disputes
func (h *DisputeHandler) GetActiveDisputes(c *gin.Context) {
	freelancerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid freelancer ID format")
		return
	}

	active, err := h.disputeService.GetActiveByFreelancer(c.Request.Context(), freelancerID)
	if err != nil {
		h.logger.Error("Failed to list active disputes", "freelancer_id", freelancerID, "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]ActiveDisputeResponse, len(active))
	for i, a := range active {
		responses[i] = ActiveDisputeResponse{
			DisputeID:     a.DisputeID.String(),
			ContractID:    a.ContractID.String(),
			ContractTitle: a.ContractTitle,
		}
	}
	RespondOK(c, responses)
}
