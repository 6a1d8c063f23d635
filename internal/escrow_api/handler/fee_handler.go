package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/marketplace-escrow-ledger/internal/domain/shared"
	"github.com/marketplace-escrow-ledger/internal/escrow_api/service"
	"github.com/shopspring/decimal"
)

// FeeHandler handles fee quoting endpoints
type FeeHandler struct {
	feeService service.FeeService
	logger     *slog.Logger
}

func NewFeeHandler(feeService service.FeeService, logger *slog.Logger) *FeeHandler {
	return &FeeHandler{
		feeService: feeService,
		logger:     logger,
	}
}

// QuoteFees handles GET /api/v1/fees/quote
func (h *FeeHandler) QuoteFees(c *gin.Context) {
	var params FeeQuoteParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	amount, err := decimal.NewFromString(params.Amount)
	if err != nil {
		RespondBadRequest(c, "Invalid amount format")
		return
	}
	clientID, _ := uuid.Parse(params.ClientID)
	freelancerID, _ := uuid.Parse(params.FreelancerID)

	quote, err := h.feeService.QuoteFees(c.Request.Context(), clientID, freelancerID, amount)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidAmount) {
			RespondBadRequest(c, err.Error())
			return
		}
		h.logger.Error("Failed to quote fees", "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, FeeQuoteResponse{
		Amount:            quote.Amount.StringFixed(2),
		ClientFee:         quote.ClientFee.StringFixed(2),
		TotalClientCharge: quote.TotalClientCharge.StringFixed(2),
		Commission:        quote.Commission.Commission.StringFixed(2),
		RateUsed:          quote.Commission.RateUsed,
		CumulativeBefore:  quote.Commission.CumulativeBefore.StringFixed(2),
		CumulativeAfter:   quote.Commission.CumulativeAfter.StringFixed(2),
	})
}

// EffectiveRate handles GET /api/v1/fees/rate
func (h *FeeHandler) EffectiveRate(c *gin.Context) {
	var params EffectiveRateParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	clientID, _ := uuid.Parse(params.ClientID)
	freelancerID, _ := uuid.Parse(params.FreelancerID)

	info, err := h.feeService.EffectiveRate(c.Request.Context(), clientID, freelancerID)
	if err != nil {
		h.logger.Error("Failed to get effective rate", "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, EffectiveRateResponse{
		Rate:                info.Rate,
		CumulativeBilled:    info.CumulativeBilled.StringFixed(2),
		Threshold:           info.Threshold.StringFixed(2),
		RemainingAtHighRate: info.RemainingAtHighRate.StringFixed(2),
	})
}
