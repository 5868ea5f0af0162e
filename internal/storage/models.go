package storage

import "time"

// Workflow kinds.
const (
	KindBuy  = "BUY"
	KindSell = "SELL"
)

// Position statuses. Positions are created and closed by the wallet
// service; the engine only reads them and maintains PeakPrice.
const (
	PositionOpen   = "open"
	PositionClosed = "closed"
)

// Execution record outcomes.
const (
	OutcomeExecuted = "EXECUTED"
	OutcomeRejected = "REJECTED"
	OutcomeError    = "ERROR"
)

// Buy amount modes.
const (
	AmountFixed   = "fixed"
	AmountPercent = "percent"
)

type Wallet struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name           string `gorm:"not null" json:"name"`
	TradingEnabled bool   `gorm:"not null;default:true" json:"trading_enabled"`
}

type Workflow struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	WalletID uint   `gorm:"index;not null" json:"wallet_id"`
	Name     string `gorm:"not null" json:"name"`
	Kind     string `gorm:"index;not null" json:"kind"` // BUY or SELL
	Active   bool   `gorm:"not null;default:true" json:"active"`

	// Kind-specific chain payload, validated at the management API
	// boundary and trusted during evaluation.
	ChainJSON string `gorm:"type:text;not null" json:"chain_json"`

	CooldownSeconds  int     `json:"cooldown_seconds"`
	MaxOpenPositions int     `json:"max_open_positions"`
	SellPercent      float64 `json:"sell_percent"`
	AmountMode       string  `json:"amount_mode"` // fixed or percent
	AmountValue      float64 `json:"amount_value"`
}

type Position struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	WalletID uint   `gorm:"index;not null" json:"wallet_id"`
	AssetID  string `gorm:"index;not null" json:"asset_id"`
	Status   string `gorm:"index;not null;default:'open'" json:"status"`

	Quantity     float64   `gorm:"not null" json:"quantity"`
	EntryPrice   float64   `gorm:"not null" json:"entry_price"`
	CapitalSpent float64   `json:"capital_spent"`
	PeakPrice    *float64  `json:"peak_price"`
	OpenedAt     time.Time `json:"opened_at"`
}

type ExecutionRecord struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	WorkflowID uint   `gorm:"index;not null" json:"workflow_id"`
	AssetID    string `gorm:"index" json:"asset_id"`

	TriggerJSON string `gorm:"type:text" json:"trigger_json"`
	StepsJSON   string `gorm:"type:text" json:"steps_json"`

	Outcome      string `gorm:"index;not null" json:"outcome"` // EXECUTED, REJECTED, ERROR
	TradeRef     string `json:"trade_ref"`
	ErrorMessage string `json:"error_message"`
}
