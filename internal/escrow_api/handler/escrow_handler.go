package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/marketplace-escrow-ledger/internal/domain/contract"
	"github.com/marketplace-escrow-ledger/internal/domain/escrow"
	"github.com/marketplace-escrow-ledger/internal/escrow_api/service"
)

// EscrowHandler handles ledger read endpoints
type EscrowHandler struct {
	escrowService service.EscrowService
	logger        *slog.Logger
}

func NewEscrowHandler(escrowService service.EscrowService, logger *slog.Logger) *EscrowHandler {
	return &EscrowHandler{
		escrowService: escrowService,
		logger:        logger,
	}
}

func toEntryResponse(entry *escrow.Entry) EntryResponse {
	resp := EntryResponse{
		ID:              entry.ID.String(),
		ContractID:      entry.ContractID.String(),
		Type:            string(entry.Type),
		Amount:          entry.Amount.StringFixed(2),
		Currency:        entry.Currency,
		Status:          string(entry.Status),
		GatewayMetadata: entry.GatewayMetadata,
		CreatedAt:       entry.CreatedAt.Format(time.RFC3339),
	}
	if entry.GatewayReference != nil {
		resp.GatewayReference = *entry.GatewayReference
	}
	if entry.ProcessedAt != nil {
		resp.ProcessedAt = entry.ProcessedAt.Format(time.RFC3339)
	}
	return resp
}

// GetLedger handles GET /api/v1/contracts/:id/ledger
func (h *EscrowHandler) GetLedger(c *gin.Context) {
	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid contract ID format")
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}

	entries, total, err := h.escrowService.GetLedger(c.Request.Context(), contractID, pagination.Page, pagination.PerPage)
	if err != nil {
		if errors.Is(err, contract.ErrContractNotFound{}) {
			RespondNotFound(c, "Contract not found")
			return
		}
		h.logger.Error("Failed to get contract ledger", "contract_id", contractID, "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]EntryResponse, len(entries))
	for i, entry := range entries {
		responses[i] = toEntryResponse(entry)
	}

	RespondWithPaginatedData(c, 200, responses, pagination.Page, pagination.PerPage, int(total))
}

// GetBalance handles GET /api/v1/contracts/:id/balance
func (h *EscrowHandler) GetBalance(c *gin.Context) {
	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid contract ID format")
		return
	}

	summary, err := h.escrowService.GetBalance(c.Request.Context(), contractID)
	if err != nil {
		if errors.Is(err, contract.ErrContractNotFound{}) {
			RespondNotFound(c, "Contract not found")
			return
		}
		h.logger.Error("Failed to get contract balance", "contract_id", contractID, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, BalanceResponse{
		ContractID:      summary.ContractID.String(),
		Funded:          summary.Balance.Funded.StringFixed(2),
		Released:        summary.Balance.Released.StringFixed(2),
		Refunded:        summary.Balance.Refunded.StringFixed(2),
		DisputeRefunded: summary.Balance.DisputeRefunded.StringFixed(2),
		Unreleased:      summary.Unreleased.StringFixed(2),
		DisputeHeld:     summary.DisputeHeld.StringFixed(2),
	})
}
