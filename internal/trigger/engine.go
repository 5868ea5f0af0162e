// Package trigger implements the Buy Trigger Engine: event-driven
// evaluation of BUY workflows against incoming prediction signals.
package trigger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Chase295/pump-platform-sub002/internal/chain"
	"github.com/Chase295/pump-platform-sub002/internal/gateway"
	"github.com/Chase295/pump-platform-sub002/internal/logger"
	"github.com/Chase295/pump-platform-sub002/internal/metrics"
	"github.com/Chase295/pump-platform-sub002/internal/storage"
	"github.com/Chase295/pump-platform-sub002/internal/telegram"
)

// Signal is one prediction event emitted by the model subsystem.
type Signal struct {
	AssetID        string    `json:"asset_id"`
	ModelID        int       `json:"model_id"`
	ConfirmModelID int       `json:"confirm_model_id,omitempty"`
	Confidence     float64   `json:"confidence"`
	RawOutcome     string    `json:"raw_outcome,omitempty"`
	Tag            string    `json:"tag,omitempty"`
	ObservedAt     time.Time `json:"observed_at"`
}

// Store is the slice of the repository the engine reads and appends to.
type Store interface {
	ActiveBuyWorkflows() ([]storage.Workflow, error)
	CountOpenPositions(walletID uint) (int64, error)
	OpenPositionByAsset(walletID uint, assetID string) (*storage.Position, error)
	SaveExecutionRecord(rec *storage.ExecutionRecord) error
}

type Engine struct {
	store    Store
	scorer   gateway.Scorer
	exec     gateway.Executor
	notifier *telegram.Notifier
	logger   *logger.Logger

	// Per-workflow cooldown state. Process-local and volatile: a restart
	// risks at most one extra capacity-checked trade.
	cooldownMu sync.Mutex
	cooldowns  map[uint]time.Time

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewEngine(store Store, scorer gateway.Scorer, exec gateway.Executor, notifier *telegram.Notifier, log *logger.Logger) *Engine {
	return &Engine{
		store:     store,
		scorer:    scorer,
		exec:      exec,
		notifier:  notifier,
		logger:    log,
		cooldowns: make(map[uint]time.Time),
	}
}

// OnSignal dispatches one prediction event. It never blocks the caller;
// evaluation runs in its own goroutine. After Close no new events are
// dispatched.
func (e *Engine) OnSignal(sig Signal) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		e.logger.Debug("signal dropped, engine closed", "asset", sig.AssetID)
		return
	}
	e.wg.Add(1)
	e.mu.Unlock()

	metrics.SignalReceived()

	go func() {
		defer e.wg.Done()
		e.process(sig)
	}()
}

// Close stops accepting signals and waits for in-flight evaluations.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.wg.Wait()
}

func (e *Engine) process(sig Signal) {
	workflows, err := e.store.ActiveBuyWorkflows()
	if err != nil {
		// Fatal for this event only; the next signal retries the read.
		e.logger.Error("list buy workflows", "asset", sig.AssetID, "error", err)
		return
	}

	for _, wf := range workflows {
		func() {
			defer func() {
				if r := recover(); r != nil {
					e.logger.Error("panic in buy evaluation",
						"workflow", wf.ID, "asset", sig.AssetID, "panic", fmt.Sprint(r))
				}
			}()
			e.evaluate(wf, sig)
		}()
	}
}

func (e *Engine) evaluate(wf storage.Workflow, sig Signal) {
	buyChain, err := chain.DecodeBuy(wf.ChainJSON)
	if err != nil {
		e.logger.Error("corrupt buy chain", "workflow", wf.ID, "error", err)
		return
	}

	// Silent filters: no record until a guarded rule runs.
	if buyChain.Trigger.ModelID != sig.ModelID {
		return
	}
	if sig.Confidence < buyChain.Trigger.MinConfidence {
		e.logger.Debug("signal below trigger confidence",
			"workflow", wf.ID, "asset", sig.AssetID,
			"confidence", sig.Confidence, "min", buyChain.Trigger.MinConfidence)
		return
	}
	if e.underCooldown(wf) {
		e.logger.Debug("workflow in cooldown", "workflow", wf.ID, "asset", sig.AssetID)
		return
	}

	openCount, err := e.store.CountOpenPositions(wf.WalletID)
	if err != nil {
		e.logger.Error("count open positions", "workflow", wf.ID, "error", err)
		return
	}
	if wf.MaxOpenPositions > 0 && openCount >= int64(wf.MaxOpenPositions) {
		steps := []chain.Step{{
			Name:      "capacity",
			Status:    chain.StepFail,
			Value:     float64(openCount),
			Threshold: float64(wf.MaxOpenPositions),
		}}
		e.writeRecord(wf, sig, storage.OutcomeRejected, steps, "", "capacity")
		return
	}

	existing, err := e.store.OpenPositionByAsset(wf.WalletID, sig.AssetID)
	if err != nil {
		e.logger.Error("check open position", "workflow", wf.ID, "asset", sig.AssetID, "error", err)
		return
	}
	if existing != nil {
		e.logger.Debug("position already open", "workflow", wf.ID, "asset", sig.AssetID)
		return
	}

	steps := []chain.Step{{
		Name:      "capacity",
		Status:    chain.StepPass,
		Value:     float64(openCount),
		Threshold: float64(wf.MaxOpenPositions),
	}}

	ctx := context.Background()

	// Ordered condition chain, short-circuiting on first failure.
	for i, cond := range buyChain.Conditions {
		name := fmt.Sprintf("condition_%d", i+1)

		score, err := e.scorer.Score(ctx, sig.AssetID, cond.ModelID, sig.ObservedAt)
		if err != nil {
			steps = append(steps, chain.Step{Name: name, Status: chain.StepError, Threshold: cond.Threshold, Error: err.Error()})
			e.writeRecord(wf, sig, storage.OutcomeError, steps, "", fmt.Sprintf("%s: %v", name, err))
			return
		}

		if !chain.Compare(score, cond.Op, cond.Threshold) {
			steps = append(steps, chain.Step{Name: name, Status: chain.StepFail, Value: score, Threshold: cond.Threshold})
			e.writeRecord(wf, sig, storage.OutcomeRejected, steps, "", "")
			return
		}
		steps = append(steps, chain.Step{Name: name, Status: chain.StepPass, Value: score, Threshold: cond.Threshold})
	}

	amount, err := e.buyAmount(ctx, wf)
	if err != nil {
		steps = append(steps, chain.Step{Name: "amount", Status: chain.StepError, Error: err.Error()})
		e.writeRecord(wf, sig, storage.OutcomeError, steps, "", err.Error())
		return
	}
	if amount <= 0 {
		steps = append(steps, chain.Step{Name: "amount", Status: chain.StepFail, Value: amount})
		e.writeRecord(wf, sig, storage.OutcomeRejected, steps, "", "zero buy amount")
		return
	}

	tradeRef, err := e.exec.OpenPosition(ctx, wf.WalletID, sig.AssetID, amount)
	if err != nil {
		// Cooldown is deliberately not stamped: the next qualifying
		// signal retries cleanly.
		steps = append(steps, chain.Step{Name: "execute", Status: chain.StepError, Value: amount, Error: err.Error()})
		e.writeRecord(wf, sig, storage.OutcomeError, steps, "", err.Error())
		e.notifier.NotifyError("open "+sig.AssetID, err)
		return
	}

	e.stampCooldown(wf.ID)
	steps = append(steps, chain.Step{Name: "execute", Status: chain.StepPass, Value: amount})
	e.writeRecord(wf, sig, storage.OutcomeExecuted, steps, tradeRef, "")
	e.notifier.NotifyOpen(wf.Name, sig.AssetID, amount, tradeRef)

	e.logger.Info("buy executed",
		"workflow", wf.ID, "asset", sig.AssetID, "amount", amount, "trade_ref", tradeRef)
}

func (e *Engine) buyAmount(ctx context.Context, wf storage.Workflow) (float64, error) {
	switch wf.AmountMode {
	case storage.AmountPercent:
		available, err := e.exec.AvailableBalance(ctx, wf.WalletID)
		if err != nil {
			return 0, fmt.Errorf("available balance: %w", err)
		}
		return available * wf.AmountValue / 100, nil
	default:
		return wf.AmountValue, nil
	}
}

func (e *Engine) underCooldown(wf storage.Workflow) bool {
	if wf.CooldownSeconds <= 0 {
		return false
	}
	e.cooldownMu.Lock()
	defer e.cooldownMu.Unlock()
	last, ok := e.cooldowns[wf.ID]
	if !ok {
		return false
	}
	return time.Since(last) < time.Duration(wf.CooldownSeconds)*time.Second
}

func (e *Engine) stampCooldown(workflowID uint) {
	e.cooldownMu.Lock()
	e.cooldowns[workflowID] = time.Now()
	e.cooldownMu.Unlock()
}

func (e *Engine) writeRecord(wf storage.Workflow, sig Signal, outcome string, steps []chain.Step, tradeRef, errMsg string) {
	triggerJSON, _ := json.Marshal(sig)

	rec := &storage.ExecutionRecord{
		WorkflowID:   wf.ID,
		AssetID:      sig.AssetID,
		TriggerJSON:  string(triggerJSON),
		StepsJSON:    chain.EncodeSteps(steps),
		Outcome:      outcome,
		TradeRef:     tradeRef,
		ErrorMessage: errMsg,
	}
	if err := e.store.SaveExecutionRecord(rec); err != nil {
		e.logger.Error("save execution record", "workflow", wf.ID, "error", err)
	}
	metrics.BuyEvaluation(outcome)
}
