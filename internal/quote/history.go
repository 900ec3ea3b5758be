package quote

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var periodKlt = map[string]string{
	"day":   "101",
	"week":  "102",
	"month": "103",
}

type klineResponse struct {
	Data struct {
		Klines []string `json:"klines"`
	} `json:"data"`
}

// GetHistory fetches the last count bars for a stock, front-adjusted.
func (c *Client) GetHistory(ctx context.Context, stockCode, period string, count int) ([]Kline, error) {
	id, err := secID(stockCode)
	if err != nil {
		return nil, err
	}
	return c.fetchKlines(ctx, id, period, count, "1")
}

// GetIndexHistory fetches the last count bars for an index, unadjusted.
func (c *Client) GetIndexHistory(ctx context.Context, indexCode, period string, count int) ([]Kline, error) {
	return c.fetchKlines(ctx, "1."+indexCode, period, count, "0")
}

func (c *Client) fetchKlines(ctx context.Context, secid, period string, count int, fqt string) ([]Kline, error) {
	klt, ok := periodKlt[period]
	if !ok {
		klt = periodKlt["day"]
	}

	params := url.Values{}
	params.Set("secid", secid)
	params.Set("fields1", "f1,f2,f3,f4,f5,f6")
	params.Set("fields2", "f51,f52,f53,f54,f55,f56,f57,f58,f59,f60,f61")
	params.Set("klt", klt)
	params.Set("fqt", fqt)
	params.Set("end", time.Now().Format("20060102"))
	params.Set("lmt", strconv.Itoa(count))

	var resp klineResponse
	if err := c.getJSON(ctx, c.historyBase, params, &resp); err != nil {
		return nil, fmt.Errorf("history %s: %w", secid, err)
	}

	bars := make([]Kline, 0, len(resp.Data.Klines))
	for _, line := range resp.Data.Klines {
		parts := strings.Split(line, ",")
		if len(parts) < 11 {
			continue
		}

		open, _ := strconv.ParseFloat(parts[1], 64)
		closePrice, _ := strconv.ParseFloat(parts[2], 64)
		high, _ := strconv.ParseFloat(parts[3], 64)
		low, _ := strconv.ParseFloat(parts[4], 64)
		volume, _ := strconv.ParseFloat(parts[5], 64)
		amount, _ := strconv.ParseFloat(parts[6], 64)

		bar := Kline{
			Date:   parts[0],
			Open:   open,
			Close:  closePrice,
			High:   high,
			Low:    low,
			Volume: volume,
			Amount: amount,
			Change: closePrice - open,
		}
		if open > 0 {
			bar.ChangePercent = (closePrice - open) / open * 100
		}
		bars = append(bars, bar)
	}
	return bars, nil
}
