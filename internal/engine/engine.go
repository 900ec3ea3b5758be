package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"

	"github.com/czhen/papertrader/internal/logger"
)

var (
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrNoPosition         = errors.New("no position in stock")
	ErrInsufficientShares = errors.New("insufficient shares held")
)

// Engine is the simulated brokerage: it keeps the account, the open
// positions and the trade ledger, and settles buy/sell orders against them.
type Engine struct {
	mu sync.Mutex

	db             *gorm.DB
	logger         *logger.Logger
	initialCapital float64
	commissionRate float64
	minCommission  float64
}

func New(db *gorm.DB, initialCapital, commissionRate, minCommission float64, log *logger.Logger) (*Engine, error) {
	e := &Engine{
		db:             db,
		logger:         log,
		initialCapital: initialCapital,
		commissionRate: commissionRate,
		minCommission:  minCommission,
	}

	if err := e.ensureAccount(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) ensureAccount() error {
	var count int64
	if err := e.db.Model(&Account{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count accounts: %w", err)
	}
	if count > 0 {
		return nil
	}

	acct := &Account{
		InitialCapital: e.initialCapital,
		AvailableCash:  e.initialCapital,
		TotalAssets:    e.initialCapital,
	}
	if err := e.db.Create(acct).Error; err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	e.logger.Info("account created", "initial_capital", e.initialCapital)
	return nil
}

// Commission is amount * rate with a floor.
func (e *Engine) Commission(amount float64) float64 {
	commission := amount * e.commissionRate
	if commission < e.minCommission {
		commission = e.minCommission
	}
	return commission
}

func (e *Engine) Account() (*Account, error) {
	var acct Account
	if err := e.db.First(&acct).Error; err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	return &acct, nil
}

func (e *Engine) Positions() ([]Position, error) {
	var positions []Position
	if err := e.db.Order("created_at").Find(&positions).Error; err != nil {
		return nil, fmt.Errorf("load positions: %w", err)
	}
	return positions, nil
}

func (e *Engine) Position(stockCode string) (*Position, error) {
	var pos Position
	err := e.db.Where("stock_code = ?", stockCode).First(&pos).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load position %s: %w", stockCode, err)
	}
	return &pos, nil
}

// Trades returns the ledger newest-first. limit <= 0 means everything.
func (e *Engine) Trades(limit int) ([]Trade, error) {
	var trades []Trade
	q := e.db.Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&trades).Error; err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}
	return trades, nil
}

// Buy settles a buy order: cash out, position created or cost-averaged in,
// trade appended.
func (e *Engine) Buy(stockCode, stockName string, price float64, shares int64) (*Trade, error) {
	if price <= 0 || shares <= 0 {
		return nil, fmt.Errorf("invalid order: price=%.2f shares=%d", price, shares)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	amount := price * float64(shares)
	commission := e.Commission(amount)
	totalCost := amount + commission

	trade := &Trade{
		ID:          ulid.Make().String(),
		Type:        "buy",
		StockCode:   stockCode,
		StockName:   stockName,
		Shares:      shares,
		Price:       price,
		Amount:      amount,
		Commission:  commission,
		TotalAmount: totalCost,
	}

	err := e.db.Transaction(func(tx *gorm.DB) error {
		var acct Account
		if err := tx.First(&acct).Error; err != nil {
			return fmt.Errorf("load account: %w", err)
		}
		if totalCost > acct.AvailableCash {
			return ErrInsufficientFunds
		}
		acct.AvailableCash -= totalCost

		var pos Position
		err := tx.Where("stock_code = ?", stockCode).First(&pos).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			pos = Position{
				StockCode:  stockCode,
				StockName:  stockName,
				Shares:     shares,
				CostPrice:  price,
				CostAmount: amount,
			}
		case err != nil:
			return fmt.Errorf("load position: %w", err)
		default:
			pos.Shares += shares
			pos.CostAmount += amount
			pos.CostPrice = pos.CostAmount / float64(pos.Shares)
		}
		pos.revalue(price)

		if err := tx.Save(&pos).Error; err != nil {
			return fmt.Errorf("save position: %w", err)
		}
		if err := tx.Create(trade).Error; err != nil {
			return fmt.Errorf("save trade: %w", err)
		}
		return refreshAccountStats(tx, &acct)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("buy executed",
		"stock", stockCode, "price", price, "shares", shares, "commission", commission)
	return trade, nil
}

// Sell settles a sell order against the held position. Selling every held
// share removes the position; a partial sale reduces it at average cost.
func (e *Engine) Sell(stockCode, stockName string, price float64, shares int64) (*Trade, error) {
	if price <= 0 || shares <= 0 {
		return nil, fmt.Errorf("invalid order: price=%.2f shares=%d", price, shares)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	amount := price * float64(shares)
	commission := e.Commission(amount)
	totalIncome := amount - commission

	trade := &Trade{
		ID:          ulid.Make().String(),
		Type:        "sell",
		StockCode:   stockCode,
		StockName:   stockName,
		Shares:      shares,
		Price:       price,
		Amount:      amount,
		Commission:  commission,
		TotalAmount: totalIncome,
	}

	err := e.db.Transaction(func(tx *gorm.DB) error {
		var pos Position
		err := tx.Where("stock_code = ?", stockCode).First(&pos).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoPosition
		}
		if err != nil {
			return fmt.Errorf("load position: %w", err)
		}
		if shares > pos.Shares {
			return ErrInsufficientShares
		}

		var acct Account
		if err := tx.First(&acct).Error; err != nil {
			return fmt.Errorf("load account: %w", err)
		}
		acct.AvailableCash += totalIncome

		if shares == pos.Shares {
			if err := tx.Delete(&pos).Error; err != nil {
				return fmt.Errorf("delete position: %w", err)
			}
		} else {
			pos.Shares -= shares
			pos.CostAmount -= pos.CostPrice * float64(shares)
			pos.revalue(price)
			if err := tx.Save(&pos).Error; err != nil {
				return fmt.Errorf("save position: %w", err)
			}
		}

		if err := tx.Create(trade).Error; err != nil {
			return fmt.Errorf("save trade: %w", err)
		}
		return refreshAccountStats(tx, &acct)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("sell executed",
		"stock", stockCode, "price", price, "shares", shares, "commission", commission)
	return trade, nil
}

// UpdatePrices revalues any held positions present in the price map and
// refreshes the account statistics.
func (e *Engine) UpdatePrices(prices map[string]float64) error {
	if len(prices) == 0 {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.db.Transaction(func(tx *gorm.DB) error {
		var positions []Position
		if err := tx.Find(&positions).Error; err != nil {
			return fmt.Errorf("load positions: %w", err)
		}

		for i := range positions {
			price, ok := prices[positions[i].StockCode]
			if !ok {
				continue
			}
			positions[i].revalue(price)
			if err := tx.Save(&positions[i]).Error; err != nil {
				return fmt.Errorf("save position: %w", err)
			}
		}

		var acct Account
		if err := tx.First(&acct).Error; err != nil {
			return fmt.Errorf("load account: %w", err)
		}
		return refreshAccountStats(tx, &acct)
	})
}

// Reset restores the account to its initial capital and drops all positions
// and trades.
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	err := e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&Position{}).Error; err != nil {
			return fmt.Errorf("clear positions: %w", err)
		}
		if err := tx.Where("1 = 1").Delete(&Trade{}).Error; err != nil {
			return fmt.Errorf("clear trades: %w", err)
		}

		var acct Account
		if err := tx.First(&acct).Error; err != nil {
			return fmt.Errorf("load account: %w", err)
		}
		acct.InitialCapital = e.initialCapital
		acct.AvailableCash = e.initialCapital
		acct.TotalAssets = e.initialCapital
		acct.TotalProfit = 0
		acct.ProfitRate = 0
		return tx.Save(&acct).Error
	})
	if err != nil {
		return err
	}

	e.logger.Info("account reset", "initial_capital", e.initialCapital)
	return nil
}

// refreshAccountStats recomputes total assets and profit from the current
// positions and persists the account. Caller provides the account with any
// cash movement already applied.
func refreshAccountStats(tx *gorm.DB, acct *Account) error {
	var marketValue float64
	if err := tx.Model(&Position{}).
		Select("COALESCE(SUM(market_value), 0)").Scan(&marketValue).Error; err != nil {
		return fmt.Errorf("sum market value: %w", err)
	}

	acct.TotalAssets = acct.AvailableCash + marketValue
	acct.TotalProfit = acct.TotalAssets - acct.InitialCapital
	if acct.InitialCapital > 0 {
		acct.ProfitRate = acct.TotalProfit / acct.InitialCapital * 100
	}
	return tx.Save(acct).Error
}
