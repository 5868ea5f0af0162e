package chain

import "fmt"

// Chains are validated here, at the workflow-edit boundary, and trusted
// by the engines during evaluation.

func (c *BuyChain) Validate() error {
	if c.Trigger.ModelID <= 0 {
		return fmt.Errorf("trigger: model_id must be positive")
	}
	if c.Trigger.MinConfidence < 0 || c.Trigger.MinConfidence > 1 {
		return fmt.Errorf("trigger: min_confidence must be within [0,1]")
	}
	for i, cond := range c.Conditions {
		if cond.ModelID <= 0 {
			return fmt.Errorf("condition %d: model_id must be positive", i)
		}
		switch cond.Op {
		case OpGTE, OpGT, OpLTE, OpLT:
		default:
			return fmt.Errorf("condition %d: unknown operator %q", i, cond.Op)
		}
	}
	return nil
}

func (c *SellChain) Validate() error {
	if len(c.Rules) == 0 {
		return fmt.Errorf("sell chain needs at least one rule")
	}
	for i, rule := range c.Rules {
		switch rule.Type {
		case RuleStopLoss, RuleTrailingStop:
			if rule.Threshold >= 0 {
				return fmt.Errorf("rule %d: %s threshold must be negative", i, rule.Type)
			}
		case RuleTakeProfit:
			if rule.Threshold <= 0 {
				return fmt.Errorf("rule %d: take_profit threshold must be positive", i)
			}
		case RuleTimeout:
			if rule.Threshold <= 0 {
				return fmt.Errorf("rule %d: timeout threshold must be positive minutes", i)
			}
		default:
			return fmt.Errorf("rule %d: unknown rule type %q", i, rule.Type)
		}
	}
	return nil
}
