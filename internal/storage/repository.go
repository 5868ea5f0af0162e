package storage

import (
	"errors"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Workflows

func (r *Repository) CreateWorkflow(wf *Workflow) error {
	return r.db.Create(wf).Error
}

func (r *Repository) UpdateWorkflow(wf *Workflow) error {
	return r.db.Save(wf).Error
}

func (r *Repository) DeleteWorkflow(id uint) error {
	return r.db.Delete(&Workflow{}, id).Error
}

func (r *Repository) GetWorkflow(id uint) (*Workflow, error) {
	var wf Workflow
	err := r.db.First(&wf, id).Error
	if err != nil {
		return nil, err
	}
	return &wf, nil
}

func (r *Repository) ListWorkflows() ([]Workflow, error) {
	var wfs []Workflow
	err := r.db.Order("id").Find(&wfs).Error
	return wfs, err
}

func (r *Repository) SetWorkflowActive(id uint, active bool) error {
	return r.db.Model(&Workflow{}).Where("id = ?", id).Update("active", active).Error
}

// ActiveBuyWorkflows returns every active BUY workflow whose wallet has
// trading enabled, in id order.
func (r *Repository) ActiveBuyWorkflows() ([]Workflow, error) {
	var wfs []Workflow
	err := r.db.
		Joins("JOIN wallets ON wallets.id = workflows.wallet_id").
		Where("workflows.kind = ? AND workflows.active = ? AND wallets.trading_enabled = ?",
			KindBuy, true, true).
		Order("workflows.id").
		Find(&wfs).Error
	return wfs, err
}

// SellCandidate pairs one open position with the active SELL workflows of
// its wallet, in workflow id order.
type SellCandidate struct {
	Position  Position
	Workflows []Workflow
}

// SellCandidates loads, in one pass, every open position on a
// trading-enabled wallet that has at least one active SELL workflow.
func (r *Repository) SellCandidates() ([]SellCandidate, error) {
	var wfs []Workflow
	err := r.db.
		Joins("JOIN wallets ON wallets.id = workflows.wallet_id").
		Where("workflows.kind = ? AND workflows.active = ? AND wallets.trading_enabled = ?",
			KindSell, true, true).
		Order("workflows.id").
		Find(&wfs).Error
	if err != nil {
		return nil, err
	}
	if len(wfs) == 0 {
		return nil, nil
	}

	byWallet := make(map[uint][]Workflow)
	walletIDs := make([]uint, 0, len(wfs))
	for _, wf := range wfs {
		if _, seen := byWallet[wf.WalletID]; !seen {
			walletIDs = append(walletIDs, wf.WalletID)
		}
		byWallet[wf.WalletID] = append(byWallet[wf.WalletID], wf)
	}

	var positions []Position
	err = r.db.
		Where("status = ? AND wallet_id IN ?", PositionOpen, walletIDs).
		Order("id").
		Find(&positions).Error
	if err != nil {
		return nil, err
	}

	candidates := make([]SellCandidate, 0, len(positions))
	for _, pos := range positions {
		candidates = append(candidates, SellCandidate{
			Position:  pos,
			Workflows: byWallet[pos.WalletID],
		})
	}
	return candidates, nil
}

// Positions

func (r *Repository) CountOpenPositions(walletID uint) (int64, error) {
	var count int64
	err := r.db.Model(&Position{}).
		Where("wallet_id = ? AND status = ?", walletID, PositionOpen).
		Count(&count).Error
	return count, err
}

// OpenPositionByAsset returns nil without error when the wallet holds no
// open position in the asset.
func (r *Repository) OpenPositionByAsset(walletID uint, assetID string) (*Position, error) {
	var pos Position
	err := r.db.
		Where("wallet_id = ? AND asset_id = ? AND status = ?", walletID, assetID, PositionOpen).
		First(&pos).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pos, nil
}

func (r *Repository) OpenPositionsByWallet(walletID uint) ([]Position, error) {
	var positions []Position
	err := r.db.
		Where("wallet_id = ? AND status = ?", walletID, PositionOpen).
		Order("opened_at DESC").
		Find(&positions).Error
	return positions, err
}

func (r *Repository) AllOpenPositions() ([]Position, error) {
	var positions []Position
	err := r.db.Where("status = ?", PositionOpen).Order("id").Find(&positions).Error
	return positions, err
}

// UpdatePeakPrice persists a new peak for an open position. Callers only
// invoke it with prices above the stored peak, so it never lowers one.
func (r *Repository) UpdatePeakPrice(positionID uint, price float64) error {
	return r.db.Model(&Position{}).
		Where("id = ? AND status = ?", positionID, PositionOpen).
		Update("peak_price", price).Error
}

// Wallets

func (r *Repository) GetWallet(id uint) (*Wallet, error) {
	var w Wallet
	err := r.db.First(&w, id).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Execution records

func (r *Repository) SaveExecutionRecord(rec *ExecutionRecord) error {
	return r.db.Create(rec).Error
}

// ListExecutionRecords filters by workflow and outcome when non-zero.
func (r *Repository) ListExecutionRecords(workflowID uint, outcome string, limit int) ([]ExecutionRecord, error) {
	q := r.db.Model(&ExecutionRecord{}).Order("created_at DESC, id DESC")
	if workflowID != 0 {
		q = q.Where("workflow_id = ?", workflowID)
	}
	if outcome != "" {
		q = q.Where("outcome = ?", outcome)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var records []ExecutionRecord
	err := q.Find(&records).Error
	return records, err
}
