package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Chase295/pump-platform-sub002/internal/chain"
	"github.com/Chase295/pump-platform-sub002/internal/storage"
	"github.com/Chase295/pump-platform-sub002/internal/trigger"
)

type signalRequest struct {
	AssetID        string  `json:"asset_id" validate:"required"`
	ModelID        int     `json:"model_id" validate:"required,gt=0"`
	ConfirmModelID int     `json:"confirm_model_id"`
	Confidence     float64 `json:"confidence" validate:"gte=0,lte=1"`
	RawOutcome     string  `json:"raw_outcome"`
	Tag            string  `json:"tag"`
	ObservedAt     string  `json:"observed_at"`
}

func (s *Server) handleSignal(c *gin.Context) {
	var req signalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	observedAt := time.Now()
	if req.ObservedAt != "" {
		t, err := time.Parse(time.RFC3339, req.ObservedAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid observed_at: %v", err)})
			return
		}
		observedAt = t
	}

	s.engine.OnSignal(trigger.Signal{
		AssetID:        req.AssetID,
		ModelID:        req.ModelID,
		ConfirmModelID: req.ConfirmModelID,
		Confidence:     req.Confidence,
		RawOutcome:     req.RawOutcome,
		Tag:            req.Tag,
		ObservedAt:     observedAt,
	})

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

type workflowRequest struct {
	WalletID         uint            `json:"wallet_id" validate:"required"`
	Name             string          `json:"name" validate:"required,min=1"`
	Kind             string          `json:"kind" validate:"required,oneof=BUY SELL"`
	Active           *bool           `json:"active"`
	Chain            json.RawMessage `json:"chain" validate:"required"`
	CooldownSeconds  int             `json:"cooldown_seconds" validate:"gte=0"`
	MaxOpenPositions int             `json:"max_open_positions" validate:"gte=0"`
	SellPercent      float64         `json:"sell_percent" validate:"gte=0,lte=100"`
	AmountMode       string          `json:"amount_mode" validate:"omitempty,oneof=fixed percent"`
	AmountValue      float64         `json:"amount_value" validate:"gte=0"`
}

// toModel validates the request, including the kind-specific chain, and
// normalizes it into a storage row. Chains are checked only here, at the
// edit boundary.
func (s *Server) toModel(req *workflowRequest) (*storage.Workflow, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	wf := &storage.Workflow{
		WalletID:         req.WalletID,
		Name:             req.Name,
		Kind:             req.Kind,
		Active:           true,
		CooldownSeconds:  req.CooldownSeconds,
		MaxOpenPositions: req.MaxOpenPositions,
		SellPercent:      req.SellPercent,
		AmountMode:       req.AmountMode,
		AmountValue:      req.AmountValue,
	}
	if req.Active != nil {
		wf.Active = *req.Active
	}

	switch req.Kind {
	case storage.KindBuy:
		buyChain, err := chain.DecodeBuy(string(req.Chain))
		if err != nil {
			return nil, err
		}
		if err := buyChain.Validate(); err != nil {
			return nil, err
		}
		if wf.AmountMode == "" {
			wf.AmountMode = storage.AmountFixed
		}
		if wf.AmountValue <= 0 {
			return nil, fmt.Errorf("amount_value must be positive for BUY workflows")
		}
		encoded, err := buyChain.Encode()
		if err != nil {
			return nil, err
		}
		wf.ChainJSON = encoded
	case storage.KindSell:
		sellChain, err := chain.DecodeSell(string(req.Chain))
		if err != nil {
			return nil, err
		}
		if err := sellChain.Validate(); err != nil {
			return nil, err
		}
		if wf.SellPercent <= 0 {
			return nil, fmt.Errorf("sell_percent must be positive for SELL workflows")
		}
		encoded, err := sellChain.Encode()
		if err != nil {
			return nil, err
		}
		wf.ChainJSON = encoded
	}

	return wf, nil
}

func (s *Server) handleCreateWorkflow(c *gin.Context) {
	var req workflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	wf, err := s.toModel(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.repo.CreateWorkflow(wf); err != nil {
		s.logger.Error("create workflow", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create workflow failed"})
		return
	}
	c.JSON(http.StatusCreated, wf)
}

func (s *Server) handleListWorkflows(c *gin.Context) {
	wfs, err := s.repo.ListWorkflows()
	if err != nil {
		s.logger.Error("list workflows", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list workflows failed"})
		return
	}
	c.JSON(http.StatusOK, wfs)
}

func (s *Server) handleGetWorkflow(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	wf, err := s.repo.GetWorkflow(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "workflow not found"})
		return
	}
	if err != nil {
		s.logger.Error("get workflow", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get workflow failed"})
		return
	}
	c.JSON(http.StatusOK, wf)
}

func (s *Server) handleUpdateWorkflow(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	existing, err := s.repo.GetWorkflow(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "workflow not found"})
		return
	}
	if err != nil {
		s.logger.Error("get workflow", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get workflow failed"})
		return
	}

	var req workflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	wf, err := s.toModel(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	wf.ID = existing.ID
	wf.CreatedAt = existing.CreatedAt
	if err := s.repo.UpdateWorkflow(wf); err != nil {
		s.logger.Error("update workflow", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update workflow failed"})
		return
	}
	c.JSON(http.StatusOK, wf)
}

func (s *Server) handleDeleteWorkflow(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := s.repo.DeleteWorkflow(id); err != nil {
		s.logger.Error("delete workflow", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete workflow failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleToggleWorkflow(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	wf, err := s.repo.GetWorkflow(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "workflow not found"})
		return
	}
	if err != nil {
		s.logger.Error("get workflow", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get workflow failed"})
		return
	}

	if err := s.repo.SetWorkflowActive(id, !wf.Active); err != nil {
		s.logger.Error("toggle workflow", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "toggle workflow failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "active": !wf.Active})
}

func (s *Server) handleListExecutions(c *gin.Context) {
	var workflowID uint
	if raw := c.Query("workflow_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid workflow_id"})
			return
		}
		workflowID = uint(parsed)
	}

	outcome := c.Query("outcome")
	switch outcome {
	case "", storage.OutcomeExecuted, storage.OutcomeRejected, storage.OutcomeError:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid outcome"})
		return
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	records, err := s.repo.ListExecutionRecords(workflowID, outcome, limit)
	if err != nil {
		s.logger.Error("list executions", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list executions failed"})
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) handleWalletPositions(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	positions, err := s.repo.OpenPositionsByWallet(id)
	if err != nil {
		s.logger.Error("list wallet positions", "wallet", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list positions failed"})
		return
	}
	c.JSON(http.StatusOK, positions)
}

func parseID(c *gin.Context) (uint, bool) {
	parsed, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(parsed), true
}
