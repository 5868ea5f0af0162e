package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Chase295/pump-platform-sub002/internal/config"
	"github.com/Chase295/pump-platform-sub002/internal/logger"
)

// QuoteClient is a Quoter over the platform's quote service.
type QuoteClient struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *logger.Logger
}

func NewQuoteClient(cfg *config.Config, log *logger.Logger) *QuoteClient {
	return &QuoteClient{
		baseURL:    cfg.Quote.BaseURL,
		httpClient: &http.Client{Timeout: cfg.QuoteTimeout()},
		timeout:    cfg.QuoteTimeout(),
		logger:     log,
	}
}

type quoteResponse struct {
	Proceeds  float64 `json:"proceeds"`
	Available bool    `json:"available"`
}

func (c *QuoteClient) Quote(ctx context.Context, assetID string, quantity float64) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := fmt.Sprintf("%s/api/v1/quote?asset_id=%s&quantity=%s",
		c.baseURL,
		url.QueryEscape(assetID),
		strconv.FormatFloat(quantity, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("build quote request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// A timeout is data-unavailable, not an engine fault.
		return 0, ErrQuoteUnavailable
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusServiceUnavailable:
		return 0, ErrQuoteUnavailable
	default:
		return 0, fmt.Errorf("quote service returned %s", resp.Status)
	}

	var qr quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return 0, fmt.Errorf("decode quote response: %w", err)
	}
	if !qr.Available {
		return 0, ErrQuoteUnavailable
	}
	c.logger.Debug("quote", "asset", assetID, "quantity", quantity, "proceeds", qr.Proceeds)
	return qr.Proceeds, nil
}
