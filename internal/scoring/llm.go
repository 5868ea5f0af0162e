package scoring

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Chase295/pump-platform-sub002/internal/config"
	"github.com/Chase295/pump-platform-sub002/internal/logger"
)

const llmSystemPrompt = `You are a scoring backend for a micro-cap token trading platform.
Given an asset and a model profile, reply with a single JSON object of the form
{"confidence": <number between 0 and 1>} and nothing else.`

// LLMClient scores assets through an OpenAI-compatible completion endpoint.
// Used when a model is served as a prompt profile instead of the platform's
// own prediction service.
type LLMClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *logger.Logger
}

func NewLLMClient(cfg *config.Config, log *logger.Logger) *LLMClient {
	ocfg := openai.DefaultConfig(cfg.Scoring.APIKey)
	if cfg.Scoring.BaseURL != "" {
		ocfg.BaseURL = cfg.Scoring.BaseURL
	}

	return &LLMClient{
		client:  openai.NewClientWithConfig(ocfg),
		model:   cfg.Scoring.Model,
		timeout: cfg.ScoringTimeout(),
		logger:  log,
	}
}

func (c *LLMClient) Score(ctx context.Context, assetID string, modelID int, at time.Time) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	userPrompt := fmt.Sprintf("Asset: %s\nModel profile: %d\nAs of: %s\nScore this asset.",
		assetID, modelID, at.UTC().Format(time.RFC3339))

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: llmSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("llm scoring call: %w", err)
	}

	if len(resp.Choices) == 0 {
		return 0, fmt.Errorf("llm scoring returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	c.logger.Debug("llm score response", "asset", assetID, "model", modelID, "content", raw)

	confidence, err := ParseConfidence(raw)
	if err != nil {
		return 0, fmt.Errorf("parse llm score: %w", err)
	}
	return confidence, nil
}
