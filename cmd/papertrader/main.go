package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/czhen/papertrader/internal/autotrade"
	"github.com/czhen/papertrader/internal/config"
	"github.com/czhen/papertrader/internal/engine"
	"github.com/czhen/papertrader/internal/logger"
	"github.com/czhen/papertrader/internal/market"
	"github.com/czhen/papertrader/internal/quote"
	"github.com/czhen/papertrader/internal/strategy"
	"github.com/czhen/papertrader/internal/telegram"
	"github.com/czhen/papertrader/internal/web"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dbPath := flag.String("db", "", "path to SQLite database (overrides config)")
	flag.Parse()

	var cfg *config.Config
	if _, err := os.Stat(*configPath); err == nil {
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config error: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg = config.Default()
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	log := logger.New(cfg.Logging.Level)
	log.Info("starting papertrader", "db", cfg.Database.Path)

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		log.Error("create data dir", "error", err)
		os.Exit(1)
	}

	db, err := engine.NewDatabase(cfg.Database.Path, autotrade.SnapshotModel())
	if err != nil {
		log.Error("database init failed", "error", err)
		os.Exit(1)
	}

	eng, err := engine.New(db,
		cfg.Account.InitialCapital, cfg.Account.CommissionRate, cfg.Account.MinCommission, log)
	if err != nil {
		log.Error("engine init failed", "error", err)
		os.Exit(1)
	}

	quotes := quote.NewClient(cfg.QuoteTimeout(), log)
	strategies := strategy.NewEngine(quotes, log)
	clock := market.NewClock(cfg.MarketLocation())
	notifier := telegram.NewNotifier(cfg, log)

	controller := autotrade.NewController(
		strategies,
		quotes,
		eng,
		eng,
		eng,
		autotrade.NewGormSnapshotStore(db),
		clock,
		strategy.NewRoundRobin(strategy.All()),
		autotrade.NewActivityLog(),
		log,
	)
	controller.SetNotifier(notifier)

	monitor := autotrade.NewHoursMonitor(controller, cfg.AutoTrade.MonitorCron)
	if err := monitor.Start(); err != nil {
		log.Error("hours monitor init failed", "error", err)
		os.Exit(1)
	}
	// resume a saved loop right away instead of waiting for the first firing
	monitor.Check()

	webServer := web.NewServer(eng, quotes, strategies, controller, cfg, log)
	go func() {
		if err := webServer.Start(); err != nil {
			log.Error("web server error", "error", err)
		}
	}()

	notifier.NotifyStatus("papertrader started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutdown signal received", "signal", sig.String())

	monitor.Stop()
	// keep the snapshot so the next process resumes the loop
	controller.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := webServer.Shutdown(shutdownCtx); err != nil {
		log.Error("web server shutdown error", "error", err)
	}

	notifier.NotifyStatus("papertrader stopped")
	log.Info("papertrader stopped")
}
