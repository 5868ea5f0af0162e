// Package gateway defines the collaborator interfaces the engine consumes
// and HTTP clients for the platform's quote and wallet services.
package gateway

import (
	"context"
	"errors"
	"time"
)

// ErrQuoteUnavailable marks a transient no-quote response. Expected for
// illiquid assets; callers skip the affected position for the cycle.
var ErrQuoteUnavailable = errors.New("quote unavailable")

// Scorer scores an asset against a predictive model.
type Scorer interface {
	Score(ctx context.Context, assetID string, modelID int, at time.Time) (float64, error)
}

// Quoter returns the proceeds of selling a quantity of an asset right now.
type Quoter interface {
	Quote(ctx context.Context, assetID string, quantity float64) (float64, error)
}

// Executor opens and closes positions through the wallet service. The
// wallet service owns position rows; the engine never writes them.
type Executor interface {
	OpenPosition(ctx context.Context, walletID uint, assetID string, amount float64) (string, error)
	ClosePosition(ctx context.Context, walletID uint, assetID string, percent float64) (string, error)
	AvailableBalance(ctx context.Context, walletID uint) (float64, error)
}
