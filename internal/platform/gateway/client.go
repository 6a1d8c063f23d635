// Package gateway wraps the payment provider's HTTP API. Only the refund
// surface is exposed here; charges arrive pre-settled on the charge request
// stream with a gateway reference already attached.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/marketplace-escrow-ledger/internal/config"
)

// Client issues refund commands against the payment gateway
type Client interface {
	// Refund returns the provider's refund reference on success. Amounts are
	// in minor units.
	Refund(ctx context.Context, chargeReference string, amountMinorUnits int64, currency string) (string, error)
}

type refundRequest struct {
	Charge   string `json:"charge"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type refundResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// HTTPClient implements Client over the provider's REST API
type HTTPClient struct {
	logger *slog.Logger
	client *resty.Client
}

func NewHTTPClient(logger *slog.Logger, cfg *config.GatewayConfig) *HTTPClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetHeader("Authorization", "Bearer "+cfg.APIKey)

	return &HTTPClient{
		logger: logger,
		client: client,
	}
}

func (c *HTTPClient) Refund(ctx context.Context, chargeReference string, amountMinorUnits int64, currency string) (string, error) {
	var result refundResponse
	var apiErr errorResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(refundRequest{
			Charge:   chargeReference,
			Amount:   amountMinorUnits,
			Currency: currency,
		}).
		SetResult(&result).
		SetError(&apiErr).
		Post("/v1/refunds")
	if err != nil {
		c.logger.Error("Refund request failed",
			"charge_reference", chargeReference,
			"amount_minor_units", amountMinorUnits,
			"error", err,
		)
		return "", fmt.Errorf("refund request failed: %w", err)
	}

	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		c.logger.Error("Refund rejected by gateway",
			"charge_reference", chargeReference,
			"status_code", resp.StatusCode(),
			"gateway_error", apiErr.Error,
		)
		return "", fmt.Errorf("refund rejected by gateway: status %d: %s", resp.StatusCode(), apiErr.Error)
	}

	c.logger.Info("Refund issued",
		"charge_reference", chargeReference,
		"refund_reference", result.ID,
		"amount_minor_units", amountMinorUnits,
	)
	return result.ID, nil
}
