package autotrade

import (
	"time"

	"github.com/czhen/papertrader/internal/strategy"
)

// FundingMode selects how each tick sizes its orders.
type FundingMode string

const (
	// FundingFixed sizes orders from a fixed cash budget.
	FundingFixed FundingMode = "fixed"
	// FundingAllCash re-queries the account's available cash every tick.
	FundingAllCash FundingMode = "all_cash"
)

// Config is the user's intent for one auto-trading run. It is immutable for
// the duration of the run; changing it means stop and start again.
type Config struct {
	StockCode string `json:"stock_code" yaml:"stock_code"`
	// Strategy is a concrete strategy id or strategy.PolicyAuto to rotate.
	Strategy     string      `json:"strategy" yaml:"strategy"`
	Funding      FundingMode `json:"funding_mode" yaml:"funding_mode"`
	Amount       float64     `json:"amount" yaml:"amount"`
	PollInterval int         `json:"poll_interval" yaml:"poll_interval"` // seconds
}

func (c Config) Validate() error {
	if c.StockCode == "" {
		return &ValidationError{Field: "stock_code", Reason: "must not be empty"}
	}
	if !strategy.Known(c.Strategy) {
		return &ValidationError{Field: "strategy", Reason: "unknown strategy " + c.Strategy}
	}
	switch c.Funding {
	case FundingFixed:
		if c.Amount <= 0 {
			return &ValidationError{Field: "amount", Reason: "must be positive for fixed funding"}
		}
	case FundingAllCash:
	default:
		return &ValidationError{Field: "funding_mode", Reason: "must be fixed or all_cash"}
	}
	if c.PollInterval < 1 {
		return &ValidationError{Field: "poll_interval", Reason: "must be at least 1 second"}
	}
	return nil
}

func (c Config) pollDuration() time.Duration {
	return time.Duration(c.PollInterval) * time.Second
}
