package strategy

// Signal is a strategy's recommendation for a stock at a point in time.
type Signal string

const (
	SignalBuy  Signal = "buy"
	SignalSell Signal = "sell"
	SignalHold Signal = "hold"
)

// Strategy identifiers. PolicyAuto is not a strategy itself: it asks the
// controller to rotate through All() each tick.
const (
	StrategyMA        = "ma"
	StrategyMomentum  = "momentum"
	StrategyVolume    = "volume"
	StrategyMACD      = "macd"
	StrategyRSI       = "rsi"
	StrategyBollinger = "bollinger"

	PolicyAuto = "auto"
)

// All returns the fixed rotation order of the concrete strategies.
func All() []string {
	return []string{
		StrategyMA,
		StrategyMomentum,
		StrategyVolume,
		StrategyMACD,
		StrategyRSI,
		StrategyBollinger,
	}
}

// Known reports whether id names a concrete strategy or the auto policy.
func Known(id string) bool {
	if id == PolicyAuto {
		return true
	}
	for _, s := range All() {
		if s == id {
			return true
		}
	}
	return false
}

// Step records one stage of a strategy calculation so the caller can show
// how a signal was derived.
type Step struct {
	Step        int            `json:"step"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Values      map[string]any `json:"values,omitempty"`
}

// Result is the outcome of analyzing one stock with one strategy.
type Result struct {
	StockCode    string         `json:"stock_code"`
	StockName    string         `json:"stock_name"`
	CurrentPrice float64        `json:"current_price"`
	Strategy     string         `json:"strategy_type"`
	Signal       Signal         `json:"signal"`
	Reason       string         `json:"reason"`
	Steps        []Step         `json:"calculation_steps"`
	Indicators   map[string]any `json:"indicators,omitempty"`
}
