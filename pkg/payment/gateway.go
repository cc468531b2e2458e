package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vendora/marketplace-api/pkg/config"
)

// InitRequest asks the gateway to open a payment session.
type InitRequest struct {
	OrderID  string          `json:"order_id"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	BuyerID  string          `json:"buyer_id"`
}

// InitResponse is the gateway's session descriptor.
type InitResponse struct {
	TransactionID string `json:"transaction_id"`
	RedirectURL   string `json:"redirect_url"`
}

// Gateway is a thin HTTP client for the external payment provider.
type Gateway struct {
	baseURL  string
	apiKey   string
	currency string
	client   *http.Client
	logger   *zap.Logger
}

// NewGateway constructs the client from payment config.
func NewGateway(cfg config.PaymentsConfig, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Gateway{
		baseURL:  cfg.GatewayURL,
		apiKey:   cfg.APIKey,
		currency: cfg.Currency,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// InitPayment opens a payment session for the given amount and returns
// the transaction handle plus the redirect URL for the buyer.
func (g *Gateway) InitPayment(ctx context.Context, req InitRequest) (*InitResponse, error) {
	if req.Currency == "" {
		req.Currency = g.currency
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal payment init: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/payments", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build payment request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call payment gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		g.logger.Warn("payment gateway rejected init", zap.Int("status", resp.StatusCode), zap.String("order_id", req.OrderID))
		return nil, fmt.Errorf("payment gateway returned status %d", resp.StatusCode)
	}

	var out InitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode payment response: %w", err)
	}
	if out.TransactionID == "" {
		return nil, fmt.Errorf("payment gateway returned empty transaction id")
	}
	return &out, nil
}
