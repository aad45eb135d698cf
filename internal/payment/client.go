package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	dErrors "foodbridge/pkg/domain-errors"
	"foodbridge/pkg/platform/circuit"
)

// Client calls the provider's authorize endpoint over HTTP. A circuit
// breaker shields the rest of the system when the provider misbehaves:
// while open, authorize requests fail fast without a network call.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		breaker: circuit.New("payment-provider", circuit.WithFailureThreshold(5), circuit.WithSuccessThreshold(2)),
		logger:  logger,
	}
}

type authorizeRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Authorize reserves funds with the provider. Provider outages surface as
// external-service errors so the donation flow can report them distinctly
// from validation failures.
func (c *Client) Authorize(ctx context.Context, amount int64, currency string) (Authorization, error) {
	if c.breaker.IsOpen() {
		return Authorization{}, dErrors.New(dErrors.CodeExternalService, "payment provider unavailable")
	}

	body, err := json.Marshal(authorizeRequest{Amount: amount, Currency: currency})
	if err != nil {
		return Authorization{}, fmt.Errorf("marshal authorize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/authorizations", bytes.NewReader(body))
	if err != nil {
		return Authorization{}, fmt.Errorf("build authorize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.recordFailure(ctx)
		return Authorization{}, dErrors.Wrap(dErrors.CodeExternalService, "payment provider unreachable", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		// Fall through to decode.
	case resp.StatusCode >= 500:
		c.recordFailure(ctx)
		return Authorization{}, dErrors.New(dErrors.CodeExternalService, fmt.Sprintf("payment provider returned %d", resp.StatusCode))
	default:
		// 4xx means the provider is healthy but rejected this request.
		c.recordSuccess(ctx)
		return Authorization{}, dErrors.New(dErrors.CodeValidation, "payment was declined")
	}

	var auth Authorization
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		c.recordFailure(ctx)
		return Authorization{}, dErrors.Wrap(dErrors.CodeExternalService, "malformed provider response", err)
	}
	c.recordSuccess(ctx)
	return auth, nil
}

func (c *Client) recordFailure(ctx context.Context) {
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.WarnContext(ctx, "payment provider circuit opened", "breaker", c.breaker.Name())
	}
}

func (c *Client) recordSuccess(ctx context.Context) {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "payment provider circuit closed", "breaker", c.breaker.Name())
	}
}
