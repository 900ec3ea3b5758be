package quote

import (
	"context"
	"fmt"
	"net/url"
)

const maxSearchResults = 10

type suggestResponse struct {
	QuotationCodeTable struct {
		Data []struct {
			Code   string `json:"Code"`
			Name   string `json:"Name"`
			Market string `json:"Market"`
		} `json:"Data"`
	} `json:"QuotationCodeTable"`
}

// Search looks up stocks by code or name fragment.
func (c *Client) Search(ctx context.Context, keyword string) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("input", keyword)
	params.Set("type", "14")

	var resp suggestResponse
	if err := c.getJSON(ctx, c.searchBase, params, &resp); err != nil {
		return nil, fmt.Errorf("search %q: %w", keyword, err)
	}

	results := make([]SearchResult, 0, maxSearchResults)
	for _, item := range resp.QuotationCodeTable.Data {
		results = append(results, SearchResult{
			StockCode: item.Code,
			StockName: item.Name,
			Market:    item.Market,
		})
		if len(results) >= maxSearchResults {
			break
		}
	}
	return results, nil
}
