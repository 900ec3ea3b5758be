package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/czhen/papertrader/internal/logger"
)

const (
	pushBaseURL    = "http://push2.eastmoney.com/api/qt"
	historyBaseURL = "https://push2his.eastmoney.com/api/qt/stock/kline/get"
	searchBaseURL  = "http://searchapi.eastmoney.com/api/suggest/get"

	quoteFields = "f43,f44,f45,f46,f47,f48,f49,f50,f51,f52,f57,f58,f60,f107,f116,f117,f168,f169,f170"
	indexFields = "f43,f44,f45,f46,f60,f170"
)

// Client talks to the EastMoney public market-data endpoints.
type Client struct {
	httpClient *http.Client
	logger     *logger.Logger

	pushBase    string
	historyBase string
	searchBase  string
}

func NewClient(timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		logger:      log,
		pushBase:    pushBaseURL,
		historyBase: historyBaseURL,
		searchBase:  searchBaseURL,
	}
}

// secID maps a bare stock code to the EastMoney market-qualified id:
// Shanghai codes start with 6 (market 1), Shenzhen with 0 or 3 (market 0).
func secID(stockCode string) (string, error) {
	switch {
	case strings.HasPrefix(stockCode, "6"):
		return "1." + stockCode, nil
	case strings.HasPrefix(stockCode, "0"), strings.HasPrefix(stockCode, "3"):
		return "0." + stockCode, nil
	default:
		return "", fmt.Errorf("unsupported stock code %q", stockCode)
	}
}

func (c *Client) getJSON(ctx context.Context, rawURL string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("eastmoney returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// The push2 endpoints report numbers, but suspended instruments come back as
// the string "-", so fields are decoded loosely.
func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}
