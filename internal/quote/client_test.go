package quote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/czhen/papertrader/internal/logger"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := NewClient(5*time.Second, logger.New("error"))
	c.pushBase = srv.URL
	c.historyBase = srv.URL
	c.searchBase = srv.URL
	return c, srv
}

func TestSecID(t *testing.T) {
	id, err := secID("600036")
	require.NoError(t, err)
	assert.Equal(t, "1.600036", id)

	id, err = secID("000001")
	require.NoError(t, err)
	assert.Equal(t, "0.000001", id)

	id, err = secID("300750")
	require.NoError(t, err)
	assert.Equal(t, "0.300750", id)

	_, err = secID("900001")
	assert.Error(t, err)
}

func TestGetQuote(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1.600036", r.URL.Query().Get("secid"))
		w.Write([]byte(`{"data":{
			"f58":"CMB","f43":3650,"f46":3600,"f44":3700,"f45":3580,
			"f60":3620,"f47":123456,"f48":4500000,"f169":30,"f170":83,"f107":1}}`))
	}))
	defer srv.Close()

	q, err := c.GetQuote(context.Background(), "600036")
	require.NoError(t, err)
	assert.Equal(t, "600036", q.StockCode)
	assert.Equal(t, "CMB", q.StockName)
	assert.InDelta(t, 36.50, q.CurrentPrice, 1e-9)
	assert.InDelta(t, 36.00, q.OpenPrice, 1e-9)
	assert.InDelta(t, 37.00, q.HighPrice, 1e-9)
	assert.InDelta(t, 35.80, q.LowPrice, 1e-9)
	assert.InDelta(t, 36.20, q.PreClose, 1e-9)
	assert.InDelta(t, 123456, q.Volume, 1e-9)
	assert.InDelta(t, 0.30, q.Change, 1e-9)
	assert.InDelta(t, 0.83, q.ChangePercent, 1e-9)
}

func TestGetQuoteSuspendedInstrument(t *testing.T) {
	// suspended instruments report "-" instead of numbers
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"f58":"ST Something","f43":"-","f60":1000}}`))
	}))
	defer srv.Close()

	q, err := c.GetQuote(context.Background(), "600036")
	require.NoError(t, err)
	assert.Zero(t, q.CurrentPrice)
	assert.InDelta(t, 10, q.PreClose, 1e-9)
}

func TestGetQuoteEmptyResponse(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":null}`))
	}))
	defer srv.Close()

	_, err := c.GetQuote(context.Background(), "600036")
	assert.ErrorContains(t, err, "empty response")
}

func TestGetQuoteUpstreamError(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := c.GetQuote(context.Background(), "600036")
	assert.ErrorContains(t, err, "status 502")
}

func TestGetQuoteRejectsUnknownMarket(t *testing.T) {
	c := NewClient(time.Second, logger.New("error"))

	_, err := c.GetQuote(context.Background(), "900001")
	assert.ErrorContains(t, err, "unsupported stock code")
}

func TestGetIndex(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// indexes always query market 1
		assert.Equal(t, "1.000001", r.URL.Query().Get("secid"))
		w.Write([]byte(`{"data":{"f43":312450,"f46":312000,"f44":313000,"f45":311000,"f60":312300,"f170":5}}`))
	}))
	defer srv.Close()

	q, err := c.GetIndex(context.Background(), "000001")
	require.NoError(t, err)
	assert.Equal(t, "000001", q.IndexCode)
	assert.InDelta(t, 3124.50, q.CurrentPrice, 1e-9)
	assert.InDelta(t, 0.05, q.ChangePercent, 1e-9)
}

func TestSearch(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bank", r.URL.Query().Get("input"))
		w.Write([]byte(`{"QuotationCodeTable":{"Data":[
			{"Code":"600036","Name":"CMB","Market":"SH"},
			{"Code":"000001","Name":"PAB","Market":"SZ"}]}}`))
	}))
	defer srv.Close()

	results, err := c.Search(context.Background(), "bank")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "600036", results[0].StockCode)
	assert.Equal(t, "CMB", results[0].StockName)
	assert.Equal(t, "SH", results[0].Market)
}

func TestSearchCapsResults(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"QuotationCodeTable":{"Data":[
			{"Code":"1"},{"Code":"2"},{"Code":"3"},{"Code":"4"},{"Code":"5"},{"Code":"6"},
			{"Code":"7"},{"Code":"8"},{"Code":"9"},{"Code":"10"},{"Code":"11"},{"Code":"12"}]}}`))
	}))
	defer srv.Close()

	results, err := c.Search(context.Background(), "x")
	require.NoError(t, err)
	assert.Len(t, results, maxSearchResults)
}

func TestGetHistory(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "1.600036", q.Get("secid"))
		assert.Equal(t, "101", q.Get("klt"))
		assert.Equal(t, "1", q.Get("fqt"))
		assert.Equal(t, "60", q.Get("lmt"))
		w.Write([]byte(`{"data":{"klines":[
			"2024-01-02,36.00,36.50,37.00,35.80,123456,4500000.0,3.35,1.39,0.50,0.85",
			"short,line",
			"2024-01-03,36.50,36.00,36.80,35.90,100000,3600000.0,2.47,-1.37,-0.50,0.70"]}}`))
	}))
	defer srv.Close()

	bars, err := c.GetHistory(context.Background(), "600036", "day", 60)
	require.NoError(t, err)
	require.Len(t, bars, 2) // the malformed line is skipped

	assert.Equal(t, "2024-01-02", bars[0].Date)
	assert.InDelta(t, 36.00, bars[0].Open, 1e-9)
	assert.InDelta(t, 36.50, bars[0].Close, 1e-9)
	assert.InDelta(t, 37.00, bars[0].High, 1e-9)
	assert.InDelta(t, 35.80, bars[0].Low, 1e-9)
	assert.InDelta(t, 123456, bars[0].Volume, 1e-9)
	assert.InDelta(t, 0.50, bars[0].Change, 1e-9)
	assert.InDelta(t, 0.50/36.00*100, bars[0].ChangePercent, 1e-9)

	assert.InDelta(t, -0.50, bars[1].Change, 1e-9)
}

func TestGetHistoryUnknownPeriodFallsBackToDaily(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "101", r.URL.Query().Get("klt"))
		w.Write([]byte(`{"data":{"klines":[]}}`))
	}))
	defer srv.Close()

	_, err := c.GetHistory(context.Background(), "600036", "fortnight", 10)
	require.NoError(t, err)
}

func TestGetIndexHistoryUnadjusted(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "1.000001", q.Get("secid"))
		assert.Equal(t, "0", q.Get("fqt"))
		assert.Equal(t, "102", q.Get("klt"))
		w.Write([]byte(`{"data":{"klines":[]}}`))
	}))
	defer srv.Close()

	bars, err := c.GetIndexHistory(context.Background(), "000001", "week", 30)
	require.NoError(t, err)
	assert.Empty(t, bars)
}
