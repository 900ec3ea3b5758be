package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/czhen/papertrader/internal/autotrade"
	"github.com/czhen/papertrader/internal/config"
	"github.com/czhen/papertrader/internal/engine"
	"github.com/czhen/papertrader/internal/logger"
	"github.com/czhen/papertrader/internal/quote"
	"github.com/czhen/papertrader/internal/strategy"
)

// Server exposes the JSON API the trading UI talks to.
type Server struct {
	httpServer *http.Server
	engine     *engine.Engine
	quotes     *quote.Client
	strategies *strategy.Engine
	controller *autotrade.Controller
	config     *config.Config
	logger     *logger.Logger
}

func NewServer(
	eng *engine.Engine,
	quotes *quote.Client,
	strategies *strategy.Engine,
	controller *autotrade.Controller,
	cfg *config.Config,
	log *logger.Logger,
) *Server {
	s := &Server{
		engine:     eng,
		quotes:     quotes,
		strategies: strategies,
		controller: controller,
		config:     cfg,
		logger:     log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)

	mux.HandleFunc("GET /api/account", s.handleAccount)
	mux.HandleFunc("POST /api/account/reset", s.handleAccountReset)
	mux.HandleFunc("GET /api/positions", s.handlePositions)
	mux.HandleFunc("GET /api/trades", s.handleTrades)

	mux.HandleFunc("GET /api/stock/search", s.handleStockSearch)
	mux.HandleFunc("GET /api/stock/quote", s.handleStockQuote)
	mux.HandleFunc("POST /api/stock/quotes", s.handleStockQuotes)
	mux.HandleFunc("GET /api/stock/history", s.handleStockHistory)
	mux.HandleFunc("GET /api/market/index", s.handleMarketIndex)
	mux.HandleFunc("GET /api/market/index/history", s.handleIndexHistory)

	mux.HandleFunc("POST /api/trade/buy", s.handleBuy)
	mux.HandleFunc("POST /api/trade/sell", s.handleSell)
	mux.HandleFunc("POST /api/strategy/analyze", s.handleAnalyze)

	mux.HandleFunc("POST /api/autotrade/start", s.handleAutoTradeStart)
	mux.HandleFunc("POST /api/autotrade/stop", s.handleAutoTradeStop)
	mux.HandleFunc("GET /api/autotrade/status", s.handleAutoTradeStatus)
	mux.HandleFunc("GET /api/autotrade/log", s.handleAutoTradeLog)
	mux.HandleFunc("POST /api/autotrade/log/clear", s.handleAutoTradeLogClear)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Web.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	return s
}

func (s *Server) Start() error {
	s.logger.Info("web server starting", "port", s.config.Web.Port)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
