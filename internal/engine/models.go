package engine

import "time"

// Account is the single simulated brokerage account. One row per database.
type Account struct {
	ID        uint      `gorm:"primarykey" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`

	InitialCapital float64 `gorm:"not null" json:"initial_capital"`
	AvailableCash  float64 `gorm:"not null" json:"available_cash"`
	TotalAssets    float64 `gorm:"not null" json:"total_assets"`
	TotalProfit    float64 `json:"total_profit"`
	ProfitRate     float64 `json:"profit_rate"`
}

// Position is an open holding, carried at average cost.
type Position struct {
	ID        uint      `gorm:"primarykey" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`

	StockCode string `gorm:"uniqueIndex;not null" json:"stock_code"`
	StockName string `json:"stock_name"`
	Shares    int64  `gorm:"not null" json:"shares"`

	CostPrice  float64 `json:"cost_price"`
	CostAmount float64 `json:"cost_amount"`

	CurrentPrice float64 `json:"current_price"`
	MarketValue  float64 `json:"market_value"`
	Profit       float64 `json:"profit"`
	ProfitRate   float64 `json:"profit_rate"`
}

// revalue updates the mark-to-market fields from a fresh price.
func (p *Position) revalue(price float64) {
	p.CurrentPrice = price
	p.MarketValue = float64(p.Shares) * price
	p.Profit = p.MarketValue - p.CostAmount
	if p.CostAmount > 0 {
		p.ProfitRate = p.Profit / p.CostAmount * 100
	} else {
		p.ProfitRate = 0
	}
}

// Trade is one executed order, buy or sell. Immutable once written.
type Trade struct {
	ID        string    `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Type      string `gorm:"not null" json:"trade_type"` // "buy" or "sell"
	StockCode string `gorm:"index;not null" json:"stock_code"`
	StockName string `json:"stock_name"`
	Shares    int64  `gorm:"not null" json:"shares"`
	Price     float64 `gorm:"not null" json:"price"`

	Amount     float64 `json:"amount"`
	Commission float64 `json:"commission"`
	// Cash actually moved: amount plus commission on buys, minus on sells.
	TotalAmount float64 `json:"total_amount"`
}
