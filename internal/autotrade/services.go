package autotrade

import (
	"context"
	"time"

	"github.com/czhen/papertrader/internal/quote"
	"github.com/czhen/papertrader/internal/strategy"
)

// The controller talks to its collaborators through these contracts so tests
// can substitute fakes. The production implementations are the strategy
// engine, the quote client and the simulated brokerage.

// SignalService produces a trade signal for a stock under a strategy.
type SignalService interface {
	Analyze(ctx context.Context, stockCode, strategyID string) (*strategy.Result, error)
}

// QuoteService supplies the current price used for sizing.
type QuoteService interface {
	GetQuote(ctx context.Context, stockCode string) (*quote.Quote, error)
}

// AccountService reports the cash available for the all-cash funding mode.
type AccountService interface {
	AvailableCash() (float64, error)
}

// PositionService reports the current holding used to size sell orders.
// shares is 0 when the stock is not held.
type PositionService interface {
	HeldShares(stockCode string) (stockName string, shares int64, err error)
}

// OrderExecutor places orders and reports a human-readable outcome.
type OrderExecutor interface {
	ExecuteBuy(stockCode, stockName string, price float64, shares int64) (message string, err error)
	ExecuteSell(stockCode, stockName string, price float64, shares int64) (message string, err error)
}

// MarketClock gates the loop on trading hours.
type MarketClock interface {
	IsOpen(t time.Time) bool
}

// Notifier receives loop lifecycle and order events. Optional.
type Notifier interface {
	NotifyStatus(message string)
	NotifyBuy(stockCode string, price float64, shares int64, message string)
	NotifySell(stockCode string, price float64, shares int64, message string)
	NotifyError(context string, err error)
}

// Snapshot is the durable mirror of the loop configuration used for
// resume-after-restart.
type Snapshot struct {
	Config  Config
	Running bool
}

// SnapshotStore persists the snapshot across process restarts. Load returns
// nil when nothing is saved.
type SnapshotStore interface {
	Save(snap Snapshot) error
	Load() (*Snapshot, error)
	Clear() error
}
