package engine

import "fmt"

// Thin views over the engine matching the contracts the auto-trade
// controller consumes.

// AvailableCash reports the cash available for new orders.
func (e *Engine) AvailableCash() (float64, error) {
	acct, err := e.Account()
	if err != nil {
		return 0, err
	}
	return acct.AvailableCash, nil
}

// HeldShares reports the current holding of one stock; zero when not held.
func (e *Engine) HeldShares(stockCode string) (string, int64, error) {
	pos, err := e.Position(stockCode)
	if err != nil {
		return "", 0, err
	}
	if pos == nil {
		return "", 0, nil
	}
	return pos.StockName, pos.Shares, nil
}

// ExecuteBuy settles a buy and reports the outcome as a message.
func (e *Engine) ExecuteBuy(stockCode, stockName string, price float64, shares int64) (string, error) {
	trade, err := e.Buy(stockCode, stockName, price, shares)
	if err != nil {
		return "", err
	}
	return orderMessage(trade), nil
}

// ExecuteSell settles a sell and reports the outcome as a message.
func (e *Engine) ExecuteSell(stockCode, stockName string, price float64, shares int64) (string, error) {
	trade, err := e.Sell(stockCode, stockName, price, shares)
	if err != nil {
		return "", err
	}
	return orderMessage(trade), nil
}

func orderMessage(t *Trade) string {
	return fmt.Sprintf("order %s filled, commission %.2f", t.ID, t.Commission)
}
