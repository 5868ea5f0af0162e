// Package chain defines the kind-specific workflow chain payloads and
// their evaluation primitives. A BUY chain is one trigger plus an ordered
// AND-chain of conditions; a SELL chain is a first-match-wins rule set.
package chain

import (
	"encoding/json"
	"fmt"
)

type Op string

const (
	OpGTE Op = "gte"
	OpGT  Op = "gt"
	OpLTE Op = "lte"
	OpLT  Op = "lt"
)

// Trigger is the single entry condition of a BUY workflow.
type Trigger struct {
	ModelID       int     `json:"model_id"`
	MinConfidence float64 `json:"min_confidence"`
}

// Condition is one ordered gate in a BUY chain. Each condition re-scores
// the asset against its own model.
type Condition struct {
	ModelID   int     `json:"model_id"`
	Op        Op      `json:"op"`
	Threshold float64 `json:"threshold"`
}

type BuyChain struct {
	Trigger    Trigger     `json:"trigger"`
	Conditions []Condition `json:"conditions,omitempty"`
}

type RuleType string

const (
	RuleStopLoss     RuleType = "stop_loss"     // fires at pct-from-entry <= threshold (negative)
	RuleTrailingStop RuleType = "trailing_stop" // fires at pct-from-peak <= threshold (negative)
	RuleTakeProfit   RuleType = "take_profit"   // fires at pct-from-entry >= threshold
	RuleTimeout      RuleType = "timeout"       // fires at minutes-since-open >= threshold
)

// Rule is one exit condition of a SELL workflow.
type Rule struct {
	Type      RuleType `json:"type"`
	Threshold float64  `json:"threshold"`
}

type SellChain struct {
	Rules []Rule `json:"rules"`
}

func DecodeBuy(raw string) (*BuyChain, error) {
	var c BuyChain
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("decode buy chain: %w", err)
	}
	return &c, nil
}

func (c *BuyChain) Encode() (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode buy chain: %w", err)
	}
	return string(data), nil
}

func DecodeSell(raw string) (*SellChain, error) {
	var c SellChain
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("decode sell chain: %w", err)
	}
	return &c, nil
}

func (c *SellChain) Encode() (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode sell chain: %w", err)
	}
	return string(data), nil
}
