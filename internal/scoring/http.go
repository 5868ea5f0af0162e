// Package scoring provides Scoring Gateway clients: the platform's
// prediction service over HTTP, and an LLM-backed scorer for models served
// through an OpenAI-compatible endpoint.
package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Chase295/pump-platform-sub002/internal/config"
	"github.com/Chase295/pump-platform-sub002/internal/logger"
)

// HTTPClient scores assets through the prediction service.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *logger.Logger
}

func NewHTTPClient(cfg *config.Config, log *logger.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:    cfg.Scoring.BaseURL,
		httpClient: &http.Client{Timeout: cfg.ScoringTimeout()},
		timeout:    cfg.ScoringTimeout(),
		logger:     log,
	}
}

type scoreRequest struct {
	AssetID string    `json:"asset_id"`
	ModelID int       `json:"model_id"`
	At      time.Time `json:"at"`
}

type scoreResponse struct {
	Confidence float64 `json:"confidence"`
}

func (c *HTTPClient) Score(ctx context.Context, assetID string, modelID int, at time.Time) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(scoreRequest{AssetID: assetID, ModelID: modelID, At: at})
	if err != nil {
		return 0, fmt.Errorf("encode score request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/score", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build score request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("prediction service call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("prediction service returned %s", resp.Status)
	}

	var sr scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return 0, fmt.Errorf("decode score response: %w", err)
	}
	if sr.Confidence < 0 || sr.Confidence > 1 {
		return 0, fmt.Errorf("prediction service returned confidence %v outside [0,1]", sr.Confidence)
	}
	c.logger.Debug("score", "asset", assetID, "model", modelID, "confidence", sr.Confidence)
	return sr.Confidence, nil
}
