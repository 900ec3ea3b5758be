package quote

import (
	"context"
	"fmt"
	"net/url"
)

type stockGetResponse struct {
	Data map[string]any `json:"data"`
}

// GetQuote fetches the realtime quote for a single stock.
func (c *Client) GetQuote(ctx context.Context, stockCode string) (*Quote, error) {
	id, err := secID(stockCode)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("secid", id)
	params.Set("fields", quoteFields)

	var resp stockGetResponse
	if err := c.getJSON(ctx, c.pushBase+"/stock/get", params, &resp); err != nil {
		return nil, fmt.Errorf("stock quote %s: %w", stockCode, err)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("stock quote %s: empty response", stockCode)
	}

	d := resp.Data
	return &Quote{
		StockCode:     stockCode,
		StockName:     toString(d["f58"]),
		CurrentPrice:  toFloat64(d["f43"]) / 100,
		OpenPrice:     toFloat64(d["f46"]) / 100,
		HighPrice:     toFloat64(d["f44"]) / 100,
		LowPrice:      toFloat64(d["f45"]) / 100,
		PreClose:      toFloat64(d["f60"]) / 100,
		Volume:        toFloat64(d["f47"]),
		Amount:        toFloat64(d["f48"]),
		Change:        toFloat64(d["f169"]) / 100,
		ChangePercent: toFloat64(d["f170"]) / 100,
		Timestamp:     int64(toFloat64(d["f107"])),
	}, nil
}

// GetIndex fetches the realtime quote of a market index. Indexes always live
// on market 1 regardless of code prefix.
func (c *Client) GetIndex(ctx context.Context, indexCode string) (*IndexQuote, error) {
	params := url.Values{}
	params.Set("secid", "1."+indexCode)
	params.Set("fields", indexFields)

	var resp stockGetResponse
	if err := c.getJSON(ctx, c.pushBase+"/stock/get", params, &resp); err != nil {
		return nil, fmt.Errorf("index quote %s: %w", indexCode, err)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("index quote %s: empty response", indexCode)
	}

	d := resp.Data
	return &IndexQuote{
		IndexCode:     indexCode,
		CurrentPrice:  toFloat64(d["f43"]) / 100,
		OpenPrice:     toFloat64(d["f46"]) / 100,
		HighPrice:     toFloat64(d["f44"]) / 100,
		LowPrice:      toFloat64(d["f45"]) / 100,
		PreClose:      toFloat64(d["f60"]) / 100,
		ChangePercent: toFloat64(d["f170"]) / 100,
	}, nil
}
