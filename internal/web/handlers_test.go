package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Chase295/pump-platform-sub002/internal/config"
	"github.com/Chase295/pump-platform-sub002/internal/logger"
	"github.com/Chase295/pump-platform-sub002/internal/storage"
	"github.com/Chase295/pump-platform-sub002/internal/trigger"
)

type fakeSink struct {
	signals []trigger.Signal
}

func (f *fakeSink) OnSignal(sig trigger.Signal) {
	f.signals = append(f.signals, sig)
}

func newTestServer(t *testing.T) (*Server, *storage.Repository, *gorm.DB, *fakeSink) {
	t.Helper()
	db, err := storage.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	repo := storage.NewRepository(db)

	sink := &fakeSink{}
	cfg := &config.Config{}
	s := NewServer(repo, sink, cfg, logger.New("error"))
	return s, repo, db, sink
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func buyPayload() map[string]any {
	return map[string]any{
		"wallet_id":          1,
		"name":               "momentum-entry",
		"kind":               "BUY",
		"cooldown_seconds":   60,
		"max_open_positions": 5,
		"amount_mode":        "fixed",
		"amount_value":       0.05,
		"chain": map[string]any{
			"trigger": map[string]any{"model_id": 7, "min_confidence": 0.7},
			"conditions": []map[string]any{
				{"model_id": 9, "op": "gte", "threshold": 0.55},
			},
		},
	}
}

func TestCreateWorkflow(t *testing.T) {
	s, repo, _, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/workflows", buyPayload())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	wfs, err := repo.ListWorkflows()
	require.NoError(t, err)
	require.Len(t, wfs, 1)
	assert.Equal(t, storage.KindBuy, wfs[0].Kind)
	assert.True(t, wfs[0].Active)
	assert.Contains(t, wfs[0].ChainJSON, `"model_id":7`)
}

func TestCreateWorkflowRejectsBadChain(t *testing.T) {
	s, _, _, _ := newTestServer(t)

	payload := buyPayload()
	payload["chain"] = map[string]any{
		"trigger": map[string]any{"model_id": 7, "min_confidence": 3.5},
	}

	rec := doJSON(t, s, http.MethodPost, "/api/v1/workflows", payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateSellWorkflowRequiresSellPercent(t *testing.T) {
	s, _, _, _ := newTestServer(t)

	payload := map[string]any{
		"wallet_id": 1,
		"name":      "exit-rules",
		"kind":      "SELL",
		"chain": map[string]any{
			"rules": []map[string]any{{"type": "stop_loss", "threshold": -5}},
		},
	}

	rec := doJSON(t, s, http.MethodPost, "/api/v1/workflows", payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	payload["sell_percent"] = 100
	rec = doJSON(t, s, http.MethodPost, "/api/v1/workflows", payload)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestToggleWorkflow(t *testing.T) {
	s, repo, _, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/workflows", buyPayload())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/v1/workflows/1/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	wf, err := repo.GetWorkflow(1)
	require.NoError(t, err)
	assert.False(t, wf.Active)

	rec = doJSON(t, s, http.MethodPost, "/api/v1/workflows/1/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	wf, err = repo.GetWorkflow(1)
	require.NoError(t, err)
	assert.True(t, wf.Active)
}

func TestGetWorkflowNotFound(t *testing.T) {
	s, _, _, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/v1/workflows/99", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateWorkflowRevalidatesChain(t *testing.T) {
	s, repo, _, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/workflows", buyPayload())
	require.Equal(t, http.StatusCreated, rec.Code)

	payload := buyPayload()
	payload["name"] = "momentum-entry-v2"
	payload["chain"] = map[string]any{
		"trigger":    map[string]any{"model_id": 8, "min_confidence": 0.8},
		"conditions": []map[string]any{{"model_id": 9, "op": "above", "threshold": 0.5}},
	}

	rec = doJSON(t, s, http.MethodPut, "/api/v1/workflows/1", payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// The stored workflow is untouched after the rejected update.
	wf, err := repo.GetWorkflow(1)
	require.NoError(t, err)
	assert.Equal(t, "momentum-entry", wf.Name)
}

func TestListExecutionsFilters(t *testing.T) {
	s, repo, _, _ := newTestServer(t)

	require.NoError(t, repo.SaveExecutionRecord(&storage.ExecutionRecord{WorkflowID: 1, Outcome: storage.OutcomeExecuted, StepsJSON: "[]"}))
	require.NoError(t, repo.SaveExecutionRecord(&storage.ExecutionRecord{WorkflowID: 2, Outcome: storage.OutcomeRejected, StepsJSON: "[]"}))

	rec := doJSON(t, s, http.MethodGet, "/api/v1/executions?outcome=EXECUTED", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var records []storage.ExecutionRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.EqualValues(t, 1, records[0].WorkflowID)

	rec = doJSON(t, s, http.MethodGet, "/api/v1/executions?outcome=BOGUS", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWalletPositions(t *testing.T) {
	s, _, db, _ := newTestServer(t)

	// Positions are written by the wallet service; seed them directly.
	positionsFixture := []storage.Position{
		{WalletID: 1, AssetID: "TOK1", Status: storage.PositionOpen, Quantity: 5, EntryPrice: 1, OpenedAt: time.Now()},
		{WalletID: 1, AssetID: "TOK2", Status: storage.PositionClosed, Quantity: 5, EntryPrice: 1, OpenedAt: time.Now()},
	}
	for i := range positionsFixture {
		require.NoError(t, db.Create(&positionsFixture[i]).Error)
	}

	rec := doJSON(t, s, http.MethodGet, "/api/v1/wallets/1/positions", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var positions []storage.Position
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &positions))
	require.Len(t, positions, 1)
	assert.Equal(t, "TOK1", positions[0].AssetID)
}

func TestSignalAccepted(t *testing.T) {
	s, _, _, sink := newTestServer(t)

	payload := map[string]any{
		"asset_id":    "TOKX",
		"model_id":    7,
		"confidence":  0.82,
		"observed_at": time.Now().UTC().Format(time.RFC3339),
	}

	rec := doJSON(t, s, http.MethodPost, "/api/v1/signals", payload)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	require.Len(t, sink.signals, 1)
	assert.Equal(t, "TOKX", sink.signals[0].AssetID)
	assert.Equal(t, 7, sink.signals[0].ModelID)
}

func TestSignalRejectsBadConfidence(t *testing.T) {
	s, _, _, sink := newTestServer(t)

	payload := map[string]any{
		"asset_id":   "TOKX",
		"model_id":   7,
		"confidence": 1.5,
	}

	rec := doJSON(t, s, http.MethodPost, "/api/v1/signals", payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, sink.signals)
}
