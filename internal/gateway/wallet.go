package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Chase295/pump-platform-sub002/internal/config"
	"github.com/Chase295/pump-platform-sub002/internal/logger"
)

// WalletClient is an Executor over the platform's wallet service.
type WalletClient struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *logger.Logger
}

func NewWalletClient(cfg *config.Config, log *logger.Logger) *WalletClient {
	return &WalletClient{
		baseURL:    cfg.Wallet.BaseURL,
		httpClient: &http.Client{Timeout: cfg.WalletTimeout()},
		timeout:    cfg.WalletTimeout(),
		logger:     log,
	}
}

type openRequest struct {
	AssetID        string  `json:"asset_id"`
	Amount         float64 `json:"amount"`
	IdempotencyKey string  `json:"idempotency_key"`
}

type closeRequest struct {
	AssetID        string  `json:"asset_id"`
	Percent        float64 `json:"percent"`
	IdempotencyKey string  `json:"idempotency_key"`
}

type tradeResponse struct {
	TradeRef string `json:"trade_ref"`
	Error    string `json:"error"`
}

func (c *WalletClient) OpenPosition(ctx context.Context, walletID uint, assetID string, amount float64) (string, error) {
	return c.trade(ctx, fmt.Sprintf("%s/api/v1/wallets/%d/positions/open", c.baseURL, walletID),
		openRequest{AssetID: assetID, Amount: amount, IdempotencyKey: uuid.NewString()})
}

func (c *WalletClient) ClosePosition(ctx context.Context, walletID uint, assetID string, percent float64) (string, error) {
	return c.trade(ctx, fmt.Sprintf("%s/api/v1/wallets/%d/positions/close", c.baseURL, walletID),
		closeRequest{AssetID: assetID, Percent: percent, IdempotencyKey: uuid.NewString()})
}

func (c *WalletClient) trade(ctx context.Context, url string, payload any) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode trade request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build trade request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("wallet service call: %w", err)
	}
	defer resp.Body.Close()

	var tr tradeResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("decode trade response (%s): %w", resp.Status, err)
	}

	if resp.StatusCode != http.StatusOK {
		if tr.Error != "" {
			return "", fmt.Errorf("wallet service: %s", tr.Error)
		}
		return "", fmt.Errorf("wallet service returned %s", resp.Status)
	}
	c.logger.Debug("trade accepted", "url", url, "trade_ref", tr.TradeRef)
	return tr.TradeRef, nil
}

type balanceResponse struct {
	Available float64 `json:"available"`
}

func (c *WalletClient) AvailableBalance(ctx context.Context, walletID uint) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/api/v1/wallets/%d/balance", c.baseURL, walletID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build balance request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("wallet service call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("wallet service returned %s: %s", resp.Status, bytes.TrimSpace(b))
	}

	var br balanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&br); err != nil {
		return 0, fmt.Errorf("decode balance response: %w", err)
	}
	return br.Available, nil
}
