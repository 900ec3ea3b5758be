package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/czhen/papertrader/internal/autotrade"
)

// Every response carries the same envelope the UI expects.
type response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func (s *Server) respond(w http.ResponseWriter, resp response) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Server) respondData(w http.ResponseWriter, data any) {
	s.respond(w, response{Success: true, Data: data})
}

func (s *Server) respondMessage(w http.ResponseWriter, message string) {
	s.respond(w, response{Success: true, Message: message})
}

func (s *Server) respondError(w http.ResponseWriter, message string) {
	s.respond(w, response{Success: false, Message: message})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondMessage(w, "server is running")
}

func (s *Server) handleAccount(w http.ResponseWriter, _ *http.Request) {
	acct, err := s.engine.Account()
	if err != nil {
		s.logger.Error("load account", "error", err)
		s.respondError(w, "failed to load account")
		return
	}
	s.respondData(w, acct)
}

func (s *Server) handleAccountReset(w http.ResponseWriter, _ *http.Request) {
	if err := s.engine.Reset(); err != nil {
		s.logger.Error("reset account", "error", err)
		s.respondError(w, "failed to reset account")
		return
	}
	s.respondMessage(w, "account reset")
}

func (s *Server) handlePositions(w http.ResponseWriter, _ *http.Request) {
	positions, err := s.engine.Positions()
	if err != nil {
		s.logger.Error("load positions", "error", err)
		s.respondError(w, "failed to load positions")
		return
	}
	s.respondData(w, positions)
}

func (s *Server) handleTrades(w http.ResponseWriter, _ *http.Request) {
	trades, err := s.engine.Trades(0)
	if err != nil {
		s.logger.Error("load trades", "error", err)
		s.respondError(w, "failed to load trades")
		return
	}
	s.respondData(w, trades)
}

func (s *Server) handleStockSearch(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")
	if keyword == "" {
		s.respondError(w, "keyword is required")
		return
	}

	results, err := s.quotes.Search(r.Context(), keyword)
	if err != nil {
		s.logger.Error("stock search", "keyword", keyword, "error", err)
		s.respondError(w, "stock search failed")
		return
	}
	s.respondData(w, results)
}

func (s *Server) handleStockQuote(w http.ResponseWriter, r *http.Request) {
	stockCode := r.URL.Query().Get("stock_code")
	if stockCode == "" {
		s.respondError(w, "stock_code is required")
		return
	}

	q, err := s.quotes.GetQuote(r.Context(), stockCode)
	if err != nil {
		s.logger.Error("stock quote", "stock", stockCode, "error", err)
		s.respondError(w, "failed to fetch quote")
		return
	}

	// keep held positions marked to the freshest price
	if err := s.engine.UpdatePrices(map[string]float64{stockCode: q.CurrentPrice}); err != nil {
		s.logger.Error("update position price", "stock", stockCode, "error", err)
	}

	s.respondData(w, q)
}

func (s *Server) handleStockQuotes(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StockCodes []string `json:"stock_codes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.StockCodes) == 0 {
		s.respondError(w, "stock_codes list is required")
		return
	}

	quotes := make(map[string]any, len(req.StockCodes))
	prices := make(map[string]float64, len(req.StockCodes))
	for _, code := range req.StockCodes {
		q, err := s.quotes.GetQuote(r.Context(), code)
		if err != nil {
			s.logger.Warn("stock quote skipped", "stock", code, "error", err)
			continue
		}
		quotes[code] = q
		prices[code] = q.CurrentPrice
	}

	if len(prices) > 0 {
		if err := s.engine.UpdatePrices(prices); err != nil {
			s.logger.Error("update position prices", "error", err)
		}
	}

	s.respondData(w, quotes)
}

func (s *Server) handleStockHistory(w http.ResponseWriter, r *http.Request) {
	stockCode := r.URL.Query().Get("stock_code")
	if stockCode == "" {
		s.respondError(w, "stock_code is required")
		return
	}
	period, count := historyParams(r)

	bars, err := s.quotes.GetHistory(r.Context(), stockCode, period, count)
	if err != nil {
		s.logger.Error("stock history", "stock", stockCode, "error", err)
		s.respondError(w, "failed to fetch history")
		return
	}
	s.respondData(w, bars)
}

func (s *Server) handleMarketIndex(w http.ResponseWriter, r *http.Request) {
	indexCode := r.URL.Query().Get("index_code")
	if indexCode == "" {
		indexCode = "000001"
	}

	idx, err := s.quotes.GetIndex(r.Context(), indexCode)
	if err != nil {
		s.logger.Error("market index", "index", indexCode, "error", err)
		s.respondError(w, "failed to fetch index")
		return
	}
	s.respondData(w, idx)
}

func (s *Server) handleIndexHistory(w http.ResponseWriter, r *http.Request) {
	indexCode := r.URL.Query().Get("index_code")
	if indexCode == "" {
		indexCode = "000001"
	}
	period, count := historyParams(r)

	bars, err := s.quotes.GetIndexHistory(r.Context(), indexCode, period, count)
	if err != nil {
		s.logger.Error("index history", "index", indexCode, "error", err)
		s.respondError(w, "failed to fetch index history")
		return
	}
	s.respondData(w, bars)
}

func historyParams(r *http.Request) (string, int) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "day"
	}
	count := 30
	if v := r.URL.Query().Get("count"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			count = n
		}
	}
	return period, count
}

type orderRequest struct {
	StockCode string  `json:"stock_code"`
	StockName string  `json:"stock_name"`
	Price     float64 `json:"price"`
	Shares    int64   `json:"shares"`
}

func (req orderRequest) valid() bool {
	return req.StockCode != "" && req.StockName != "" && req.Price > 0 && req.Shares > 0
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.valid() {
		s.respondError(w, "incomplete order parameters")
		return
	}

	if _, err := s.engine.Buy(req.StockCode, req.StockName, req.Price, req.Shares); err != nil {
		s.respondError(w, err.Error())
		return
	}
	s.respondMessage(w, "buy order filled")
}

func (s *Server) handleSell(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.valid() {
		s.respondError(w, "incomplete order parameters")
		return
	}

	if _, err := s.engine.Sell(req.StockCode, req.StockName, req.Price, req.Shares); err != nil {
		s.respondError(w, err.Error())
		return
	}
	s.respondMessage(w, "sell order filled")
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StockCode    string `json:"stock_code"`
		StrategyType string `json:"strategy_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.StockCode == "" {
		s.respondError(w, "stock_code is required")
		return
	}
	if req.StrategyType == "" {
		req.StrategyType = "ma"
	}

	result, err := s.strategies.Analyze(r.Context(), req.StockCode, req.StrategyType)
	if err != nil {
		s.logger.Error("strategy analysis", "stock", req.StockCode, "error", err)
		s.respondError(w, "strategy analysis failed")
		return
	}
	s.respondData(w, result)
}

func (s *Server) handleAutoTradeStart(w http.ResponseWriter, r *http.Request) {
	var cfg autotrade.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		s.respondError(w, "invalid auto-trade config")
		return
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = s.config.AutoTrade.DefaultPollInterval
	}

	if err := s.controller.Start(cfg); err != nil {
		var vErr *autotrade.ValidationError
		switch {
		case errors.As(err, &vErr):
			s.respondError(w, vErr.Error())
		case errors.Is(err, autotrade.ErrAlreadyRunning):
			s.respondError(w, "auto trading is already running")
		case errors.Is(err, autotrade.ErrMarketClosed):
			s.respondError(w, "market is closed")
		default:
			s.logger.Error("auto-trade start", "error", err)
			s.respondError(w, "failed to start auto trading")
		}
		return
	}
	s.respondMessage(w, "auto trading started")
}

func (s *Server) handleAutoTradeStop(w http.ResponseWriter, _ *http.Request) {
	s.controller.Stop()
	s.respondMessage(w, "auto trading stopped")
}

func (s *Server) handleAutoTradeStatus(w http.ResponseWriter, _ *http.Request) {
	running, cfg, startedAt := s.controller.Status()

	data := map[string]any{"running": running}
	if running {
		data["config"] = cfg
		data["started_at"] = startedAt.Format(time.RFC3339)
	}
	s.respondData(w, data)
}

func (s *Server) handleAutoTradeLog(w http.ResponseWriter, _ *http.Request) {
	s.respondData(w, s.controller.Activity().Entries())
}

func (s *Server) handleAutoTradeLogClear(w http.ResponseWriter, _ *http.Request) {
	s.controller.Activity().Clear()
	s.respondMessage(w, "activity log cleared")
}
