package quote

// Quote is a realtime snapshot of one listed stock. Prices are in yuan; the
// upstream API reports them in fen and they are divided by 100 on the way in.
type Quote struct {
	StockCode     string  `json:"stock_code"`
	StockName     string  `json:"stock_name"`
	CurrentPrice  float64 `json:"current_price"`
	OpenPrice     float64 `json:"open_price"`
	HighPrice     float64 `json:"high_price"`
	LowPrice      float64 `json:"low_price"`
	PreClose      float64 `json:"pre_close"`
	Volume        float64 `json:"volume"`
	Amount        float64 `json:"amount"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Timestamp     int64   `json:"timestamp"`
}

type SearchResult struct {
	StockCode string `json:"stock_code"`
	StockName string `json:"stock_name"`
	Market    string `json:"market"`
}

// Kline is one bar of historical data.
type Kline struct {
	Date          string  `json:"date"`
	Open          float64 `json:"open"`
	Close         float64 `json:"close"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Volume        float64 `json:"volume"`
	Amount        float64 `json:"amount"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
}

type IndexQuote struct {
	IndexCode     string  `json:"index_code"`
	CurrentPrice  float64 `json:"current_price"`
	OpenPrice     float64 `json:"open_price"`
	HighPrice     float64 `json:"high_price"`
	LowPrice      float64 `json:"low_price"`
	PreClose      float64 `json:"pre_close"`
	ChangePercent float64 `json:"change_percent"`
}
