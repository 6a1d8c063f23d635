package escrow_api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/marketplace-escrow-ledger/internal/escrow_api/handler"
	"github.com/marketplace-escrow-ledger/internal/escrow_api/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	feeHandler *handler.FeeHandler,
	escrowHandler *handler.EscrowHandler,
	chargeHandler *handler.ChargeHandler,
	disputeHandler *handler.DisputeHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Fee quoting
		fees := v1.Group("/fees")
		{
			fees.GET("/quote", feeHandler.QuoteFees)
			fees.GET("/rate", feeHandler.EffectiveRate)
		}

		// Ledger reads
		contracts := v1.Group("/contracts")
		{
			contracts.GET("/:id/ledger", escrowHandler.GetLedger)
			contracts.GET("/:id/balance", escrowHandler.GetBalance)
		}

		// Weekly charge intake
		charges := v1.Group("/charges")
		{
			charges.POST("", chargeHandler.CreateCharge)
			charges.GET("/:id", chargeHandler.GetCharge)
		}

		// Dispute financial operations
		disputes := v1.Group("/disputes")
		{
			disputes.POST("/:id/hold", disputeHandler.HoldFunds)
			disputes.POST("/:id/resolve", disputeHandler.ResolveDispute)
		}

		v1.GET("/freelancers/:id/disputes", disputeHandler.GetActiveDisputes)
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
