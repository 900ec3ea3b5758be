package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/czhen/papertrader/internal/autotrade"
	"github.com/czhen/papertrader/internal/config"
	"github.com/czhen/papertrader/internal/engine"
	"github.com/czhen/papertrader/internal/logger"
	"github.com/czhen/papertrader/internal/market"
	"github.com/czhen/papertrader/internal/quote"
	"github.com/czhen/papertrader/internal/strategy"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := config.Default()
	log := logger.New("error")

	db, err := engine.NewDatabase(filepath.Join(t.TempDir(), "test.db"), autotrade.SnapshotModel())
	require.NoError(t, err)

	eng, err := engine.New(db, 100000, 0.0003, 5, log)
	require.NoError(t, err)

	quotes := quote.NewClient(time.Second, log)
	strategies := strategy.NewEngine(quotes, log)

	controller := autotrade.NewController(
		strategies,
		quotes,
		eng,
		eng,
		eng,
		autotrade.NewGormSnapshotStore(db),
		market.NewClock(time.UTC),
		strategy.NewRoundRobin(strategy.All()),
		autotrade.NewActivityLog(),
		log,
	)

	s := NewServer(eng, quotes, strategies, controller, cfg, log)
	srv := httptest.NewServer(s.httpServer.Handler)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/health", nil)
	assert.True(t, resp.Success)
	assert.Equal(t, "server is running", resp.Message)
}

func TestAccountEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/account", nil)
	require.True(t, resp.Success)

	acct := resp.Data.(map[string]any)
	assert.InDelta(t, 100000, acct["available_cash"].(float64), 1e-9)
	assert.InDelta(t, 100000, acct["total_assets"].(float64), 1e-9)
}

func TestBuySellRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	order := map[string]any{
		"stock_code": "600036",
		"stock_name": "CMB",
		"price":      10.0,
		"shares":     100,
	}

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/trade/buy", order)
	require.True(t, resp.Success, resp.Message)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/positions", nil)
	require.True(t, resp.Success)
	positions := resp.Data.([]any)
	require.Len(t, positions, 1)
	pos := positions[0].(map[string]any)
	assert.Equal(t, "600036", pos["stock_code"])
	assert.InDelta(t, 100, pos["shares"].(float64), 1e-9)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/trade/sell", order)
	require.True(t, resp.Success, resp.Message)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/trades", nil)
	require.True(t, resp.Success)
	assert.Len(t, resp.Data.([]any), 2)
}

func TestBuyRejectsIncompleteOrder(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/trade/buy", map[string]any{
		"stock_code": "600036",
	})
	assert.False(t, resp.Success)
	assert.Equal(t, "incomplete order parameters", resp.Message)
}

func TestSellWithoutPositionFails(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/trade/sell", map[string]any{
		"stock_code": "600036",
		"stock_name": "CMB",
		"price":      10.0,
		"shares":     100,
	})
	assert.False(t, resp.Success)
	assert.Equal(t, "no position in stock", resp.Message)
}

func TestAccountReset(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, http.MethodPost, srv.URL+"/api/trade/buy", map[string]any{
		"stock_code": "600036",
		"stock_name": "CMB",
		"price":      10.0,
		"shares":     100,
	})

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/account/reset", nil)
	require.True(t, resp.Success)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/account", nil)
	acct := resp.Data.(map[string]any)
	assert.InDelta(t, 100000, acct["available_cash"].(float64), 1e-9)
}

func TestStockSearchRequiresKeyword(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/stock/search", nil)
	assert.False(t, resp.Success)
	assert.Equal(t, "keyword is required", resp.Message)
}

func TestAutoTradeStartRejectsBadConfig(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/autotrade/start", map[string]any{
		"stock_code": "600036",
		"strategy":   "astrology",
	})
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "strategy")
}

func TestAutoTradeStatusIdle(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/autotrade/status", nil)
	require.True(t, resp.Success)

	data := resp.Data.(map[string]any)
	assert.Equal(t, false, data["running"])
	assert.NotContains(t, data, "config")
}

func TestAutoTradeStopWhenIdle(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/autotrade/stop", nil)
	assert.True(t, resp.Success)
}

func TestAutoTradeLogClear(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/autotrade/log/clear", nil)
	require.True(t, resp.Success)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/autotrade/log", nil)
	require.True(t, resp.Success)
	assert.Empty(t, resp.Data)
}
