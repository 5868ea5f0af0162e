// Package monitor implements the Sell Monitor: a single-flight poller that
// evaluates SELL workflow rules against every open position.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Chase295/pump-platform-sub002/internal/chain"
	"github.com/Chase295/pump-platform-sub002/internal/config"
	"github.com/Chase295/pump-platform-sub002/internal/gateway"
	"github.com/Chase295/pump-platform-sub002/internal/logger"
	"github.com/Chase295/pump-platform-sub002/internal/metrics"
	"github.com/Chase295/pump-platform-sub002/internal/storage"
	"github.com/Chase295/pump-platform-sub002/internal/telegram"
)

// Store is the slice of the repository the monitor reads and writes.
type Store interface {
	SellCandidates() ([]storage.SellCandidate, error)
	UpdatePeakPrice(positionID uint, price float64) error
	SaveExecutionRecord(rec *storage.ExecutionRecord) error
}

type Monitor struct {
	store    Store
	quoter   gateway.Quoter
	exec     gateway.Executor
	notifier *telegram.Notifier
	logger   *logger.Logger

	interval    time.Duration
	concurrency int

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewMonitor(store Store, quoter gateway.Quoter, exec gateway.Executor, notifier *telegram.Notifier, cfg *config.Config, log *logger.Logger) *Monitor {
	return &Monitor{
		store:       store,
		quoter:      quoter,
		exec:        exec,
		notifier:    notifier,
		logger:      log,
		interval:    cfg.MonitorInterval(),
		concurrency: cfg.Monitor.Concurrency,
	}
}

// Start launches the polling loop. Idempotent: a second Start while
// running is a no-op.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	m.running = true

	go m.run(ctx)
}

// Stop cancels the loop and waits for the in-flight cycle to drain.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel, done := m.cancel, m.done
	m.mu.Unlock()

	cancel()
	<-done

	m.mu.Lock()
	m.running = false
	m.mu.Unlock()
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Info("sell monitor started", "interval", m.interval.String())

	// Run immediately on start. Cycles execute synchronously in this
	// loop, so a new cycle never starts while one is running. Cycles run
	// on their own context: Stop only exits the loop between cycles and
	// never cancels an in-flight quote or close; the per-call gateway
	// timeouts bound the drain.
	m.runCycle(context.Background())

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("sell monitor stopped")
			return
		case <-ticker.C:
			m.runCycle(context.Background())
		}
	}
}

func (m *Monitor) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("panic in sell monitor cycle", "panic", fmt.Sprint(r))
			m.notifier.NotifyError("sell monitor panic", fmt.Errorf("%v", r))
		}
	}()

	start := time.Now()
	defer func() { metrics.ObserveCycle(time.Since(start)) }()

	candidates, err := m.store.SellCandidates()
	if err != nil {
		// Fatal for this cycle only; the next tick retries.
		m.logger.Error("load sell candidates", "error", err)
		return
	}
	if len(candidates) == 0 {
		return
	}

	concurrency := m.concurrency
	if concurrency <= 0 {
		concurrency = 10
	}

	// One goroutine per position, so peak-price writes for a position
	// are naturally linearized within the cycle.
	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency)

	for _, cand := range candidates {
		wg.Add(1)
		sem <- struct{}{}

		go func(cand storage.SellCandidate) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					m.logger.Error("panic in position evaluation",
						"position", cand.Position.ID, "panic", fmt.Sprint(r))
				}
			}()

			m.evaluatePosition(ctx, cand)
		}(cand)
	}

	wg.Wait()
}

func (m *Monitor) evaluatePosition(ctx context.Context, cand storage.SellCandidate) {
	pos := cand.Position
	if pos.Quantity <= 0 || pos.EntryPrice <= 0 {
		m.logger.Debug("skipping degenerate position", "position", pos.ID)
		return
	}

	proceeds, err := m.quoter.Quote(ctx, pos.AssetID, pos.Quantity)
	if err != nil {
		// No quote is expected for illiquid assets: skip this cycle,
		// write nothing.
		if errors.Is(err, gateway.ErrQuoteUnavailable) {
			metrics.QuoteUnavailable()
			m.logger.Debug("quote unavailable", "position", pos.ID, "asset", pos.AssetID)
		} else {
			m.logger.Error("quote failed", "position", pos.ID, "asset", pos.AssetID, "error", err)
		}
		return
	}

	unitPrice := proceeds / pos.Quantity

	// The peak seeds with max(entry, unit) on the first quote and never
	// decreases. Persist a higher peak even when no rule fires; later
	// trailing-stop cycles depend on it.
	peak := unitPrice
	if pos.PeakPrice == nil && pos.EntryPrice > peak {
		peak = pos.EntryPrice
	}
	if pos.PeakPrice != nil && *pos.PeakPrice >= peak {
		peak = *pos.PeakPrice
	} else if err := m.store.UpdatePeakPrice(pos.ID, peak); err != nil {
		m.logger.Error("update peak price", "position", pos.ID, "error", err)
	}

	pctFromEntry := (unitPrice - pos.EntryPrice) / pos.EntryPrice * 100
	pctFromPeak := 0.0
	if peak > 0 {
		pctFromPeak = (unitPrice - peak) / peak * 100
	}
	minutesOpen := time.Since(pos.OpenedAt).Minutes()

	var steps []chain.Step

	for _, wf := range cand.Workflows {
		sellChain, err := chain.DecodeSell(wf.ChainJSON)
		if err != nil {
			m.logger.Error("corrupt sell chain", "workflow", wf.ID, "error", err)
			continue
		}

		// First matching rule wins, in declared order.
		for _, rule := range sellChain.Rules {
			value, fires := evaluateRule(rule, pctFromEntry, pctFromPeak, minutesOpen)
			status := chain.StepFail
			if fires {
				status = chain.StepPass
			}
			steps = append(steps, chain.Step{
				Name:      string(rule.Type),
				Status:    status,
				Value:     value,
				Threshold: rule.Threshold,
			})
			if fires {
				m.closePosition(ctx, wf, pos, rule, steps, unitPrice, pctFromEntry, pctFromPeak, minutesOpen)
				return
			}
		}
	}
	// No rule fired: no record.
}

// evaluateRule returns the metric a rule compares against and whether the
// rule fires. Thresholds for stop_loss and trailing_stop are negative
// percents.
func evaluateRule(rule chain.Rule, pctFromEntry, pctFromPeak, minutesOpen float64) (float64, bool) {
	switch rule.Type {
	case chain.RuleStopLoss:
		return pctFromEntry, chain.Compare(pctFromEntry, chain.OpLTE, rule.Threshold)
	case chain.RuleTrailingStop:
		return pctFromPeak, chain.Compare(pctFromPeak, chain.OpLTE, rule.Threshold)
	case chain.RuleTakeProfit:
		return pctFromEntry, chain.Compare(pctFromEntry, chain.OpGTE, rule.Threshold)
	case chain.RuleTimeout:
		return minutesOpen, chain.Compare(minutesOpen, chain.OpGTE, rule.Threshold)
	default:
		return 0, false
	}
}

type sellSnapshot struct {
	PositionID   uint    `json:"position_id"`
	AssetID      string  `json:"asset_id"`
	UnitPrice    float64 `json:"unit_price"`
	PctFromEntry float64 `json:"pct_from_entry"`
	PctFromPeak  float64 `json:"pct_from_peak"`
	MinutesOpen  float64 `json:"minutes_open"`
	Rule         string  `json:"rule"`
	SellPercent  float64 `json:"sell_percent"`
}

func (m *Monitor) closePosition(ctx context.Context, wf storage.Workflow, pos storage.Position, rule chain.Rule, steps []chain.Step, unitPrice, pctFromEntry, pctFromPeak, minutesOpen float64) {
	snapshot, _ := json.Marshal(sellSnapshot{
		PositionID:   pos.ID,
		AssetID:      pos.AssetID,
		UnitPrice:    unitPrice,
		PctFromEntry: pctFromEntry,
		PctFromPeak:  pctFromPeak,
		MinutesOpen:  minutesOpen,
		Rule:         string(rule.Type),
		SellPercent:  wf.SellPercent,
	})

	rec := &storage.ExecutionRecord{
		WorkflowID:  wf.ID,
		AssetID:     pos.AssetID,
		TriggerJSON: string(snapshot),
	}

	tradeRef, err := m.exec.ClosePosition(ctx, pos.WalletID, pos.AssetID, wf.SellPercent)
	if err != nil {
		// Position stays open; the next cycle retries.
		steps = append(steps, chain.Step{Name: "execute", Status: chain.StepError, Error: err.Error()})
		rec.StepsJSON = chain.EncodeSteps(steps)
		rec.Outcome = storage.OutcomeError
		rec.ErrorMessage = err.Error()
		m.saveRecord(rec)
		m.notifier.NotifyError("close "+pos.AssetID, err)
		m.logger.Error("close position failed",
			"workflow", wf.ID, "position", pos.ID, "rule", rule.Type, "error", err)
		return
	}

	steps = append(steps, chain.Step{Name: "execute", Status: chain.StepPass, Value: wf.SellPercent})
	rec.StepsJSON = chain.EncodeSteps(steps)
	rec.Outcome = storage.OutcomeExecuted
	rec.TradeRef = tradeRef
	m.saveRecord(rec)
	m.notifier.NotifyClose(wf.Name, pos.AssetID, string(rule.Type), pctFromEntry, tradeRef)

	m.logger.Info("position close executed",
		"workflow", wf.ID, "position", pos.ID, "asset", pos.AssetID,
		"rule", rule.Type, "pct_from_entry", pctFromEntry, "trade_ref", tradeRef)
}

func (m *Monitor) saveRecord(rec *storage.ExecutionRecord) {
	if err := m.store.SaveExecutionRecord(rec); err != nil {
		m.logger.Error("save execution record", "workflow", rec.WorkflowID, "error", err)
	}
	metrics.SellClose(rec.Outcome)
}
