package autotrade

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/czhen/papertrader/internal/logger"
	"github.com/czhen/papertrader/internal/strategy"
)

// Controller is the auto-trading state machine. It is either idle or
// running; while running, a single timer drives the per-tick pipeline
// analyze -> size -> execute -> log. Start and stop are mutually exclusive,
// ticks never overlap, and a tick already in flight when the loop stops is
// allowed to finish.
type Controller struct {
	signals   SignalService
	quotes    QuoteService
	accounts  AccountService
	positions PositionService
	orders    OrderExecutor
	store     SnapshotStore
	clock     MarketClock
	rotator   strategy.Rotator
	activity  *ActivityLog
	logger    *logger.Logger

	notifier      Notifier
	onStateChange func(running bool)
	// positions refresh hook fired after an executed order; the UI layer
	// uses it to re-pull holdings
	onOrderFilled func()

	now func() time.Time
	// interval overrides the tick period; nil means the config's poll interval
	interval func(Config) time.Duration

	// lifecycle serializes Start/Stop/Pause/Shutdown so a state transition
	// and its snapshot write land as one unit
	lifecycle sync.Mutex

	mu        sync.Mutex
	running   bool
	cfg       Config
	startedAt time.Time
	cancel    context.CancelFunc
	loopDone  chan struct{}
}

func NewController(
	signals SignalService,
	quotes QuoteService,
	accounts AccountService,
	positions PositionService,
	orders OrderExecutor,
	store SnapshotStore,
	clock MarketClock,
	rotator strategy.Rotator,
	activity *ActivityLog,
	log *logger.Logger,
) *Controller {
	return &Controller{
		signals:   signals,
		quotes:    quotes,
		accounts:  accounts,
		positions: positions,
		orders:    orders,
		store:     store,
		clock:     clock,
		rotator:   rotator,
		activity:  activity,
		logger:    log,
		now:       time.Now,
	}
}

func (c *Controller) SetNotifier(n Notifier) { c.notifier = n }

func (c *Controller) OnStateChange(fn func(running bool)) { c.onStateChange = fn }

func (c *Controller) OnOrderFilled(fn func()) { c.onOrderFilled = fn }

// Status reports the live run state for the UI.
func (c *Controller) Status() (running bool, cfg Config, startedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running, c.cfg, c.startedAt
}

func (c *Controller) Activity() *ActivityLog { return c.activity }

// Start validates the config, transitions to running and schedules the tick
// timer. It fails without side effects when the config is invalid, the loop
// already runs, or the market is closed.
func (c *Controller) Start(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	if !c.clock.IsOpen(c.now()) {
		c.mu.Unlock()
		return ErrMarketClosed
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.running = true
	c.cfg = cfg
	c.startedAt = c.now()
	c.cancel = cancel
	c.loopDone = done
	c.mu.Unlock()

	if err := c.store.Save(Snapshot{Config: cfg, Running: true}); err != nil {
		c.logger.Error("persist auto-trade snapshot", "error", err)
	}

	c.activity.Append(SeveritySuccess, "auto trading started")
	c.activity.Appendf(SeverityInfo, "stock %s, strategy %s, funding %s, every %ds",
		cfg.StockCode, cfg.Strategy, c.describeFunding(cfg), cfg.PollInterval)
	c.logger.Info("auto trading started",
		"stock", cfg.StockCode, "strategy", cfg.Strategy, "interval_s", cfg.PollInterval)

	if c.notifier != nil {
		c.notifier.NotifyStatus(fmt.Sprintf("auto trading started: %s / %s", cfg.StockCode, cfg.Strategy))
	}
	c.notifyStateChange(true)

	go c.run(ctx, cfg, done)
	return nil
}

// Stop is the user-initiated stop: it cancels the timer, clears the
// persisted snapshot and returns once no future tick can begin. Stopping an
// idle controller is a no-op.
func (c *Controller) Stop() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if !c.halt("auto trading stopped") {
		return
	}
	if err := c.store.Clear(); err != nil {
		c.logger.Error("clear auto-trade snapshot", "error", err)
	}
	if c.notifier != nil {
		c.notifier.NotifyStatus("auto trading stopped")
	}
}

// Pause stops the loop but keeps the snapshot, so the hours monitor (or the
// next process) can resume it. Used for market-close auto-pause.
func (c *Controller) Pause(reason string) {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if !c.halt("auto trading paused: " + reason) {
		return
	}
	if c.notifier != nil {
		c.notifier.NotifyStatus("auto trading paused: " + reason)
	}
}

// Shutdown halts the loop for process exit without touching the snapshot and
// waits for an in-flight tick to finish.
func (c *Controller) Shutdown() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	done := c.loopDone
	c.mu.Unlock()

	if !c.halt("auto trading suspended") {
		return
	}
	if done != nil {
		<-done
	}
}

// halt performs the running -> idle transition shared by the stop variants.
// Returns false when already idle.
func (c *Controller) halt(logLine string) bool {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return false
	}
	c.running = false
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	cancel()
	c.activity.Append(SeverityInfo, logLine)
	c.logger.Info(logLine)
	c.notifyStateChange(false)
	return true
}

func (c *Controller) run(ctx context.Context, cfg Config, done chan struct{}) {
	defer close(done)

	period := cfg.pollDuration()
	if c.interval != nil {
		period = c.interval(cfg)
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// re-check so a tick scheduled concurrently with a stop
			// never starts after it
			if ctx.Err() != nil {
				return
			}
			c.tick(ctx, cfg)
		}
	}
}

// tick is one pass of the pipeline. Every collaborator failure is absorbed
// here: it is logged and ends this tick only, the schedule keeps going.
func (c *Controller) tick(ctx context.Context, cfg Config) {
	defer func() {
		if r := recover(); r != nil {
			c.activity.Appendf(SeverityError, "tick aborted: %v", r)
			c.logger.Error("panic in auto-trade tick", "panic", fmt.Sprint(r))
		}
	}()

	// 1. funding
	funds := cfg.Amount
	if cfg.Funding == FundingAllCash {
		cash, err := c.accounts.AvailableCash()
		if err != nil {
			c.activity.Appendf(SeverityError, "account lookup failed: %v", err)
			c.logger.Error("account lookup", "error", err)
			return
		}
		funds = cash
	}

	// 2. effective strategy
	strategyID := cfg.Strategy
	if strategyID == strategy.PolicyAuto {
		strategyID = c.rotator.Pick(c.now())
		c.activity.Appendf(SeverityInfo, "auto policy picked strategy %s", strategyID)
	}

	// 3. signal
	res, err := c.signals.Analyze(ctx, cfg.StockCode, strategyID)
	if err != nil {
		c.activity.Appendf(SeverityError, "strategy analysis failed: %v", err)
		c.logger.Error("strategy analysis", "stock", cfg.StockCode, "error", err)
		return
	}

	// 4. price
	q, err := c.quotes.GetQuote(ctx, cfg.StockCode)
	if err != nil {
		c.activity.Appendf(SeverityError, "quote lookup failed: %v", err)
		c.logger.Error("quote lookup", "stock", cfg.StockCode, "error", err)
		return
	}
	price := q.CurrentPrice
	if price <= 0 {
		c.activity.Appendf(SeverityError, "quote for %s has no price", cfg.StockCode)
		return
	}

	// 5. board-lot sizing
	shares := int64(funds/price/100) * 100

	// calculation trace ahead of the outcome line
	c.logSteps(strategyID, res.Steps)
	c.activity.Appendf(SeverityInfo, "[%s] %s: signal %s, %s",
		strategyID, cfg.StockCode, res.Signal, res.Reason)

	// 6. act on the signal
	switch res.Signal {
	case strategy.SignalBuy:
		c.executeBuy(cfg, q.StockName, price, shares, funds)
	case strategy.SignalSell:
		c.executeSell(cfg, q.StockName, price)
	default:
		c.activity.Append(SeverityInfo, "hold signal, no action")
	}
}

func (c *Controller) executeBuy(cfg Config, stockName string, price float64, shares int64, funds float64) {
	if shares == 0 {
		lotCost := price * 100
		c.activity.Appendf(SeverityWarning,
			"insufficient funds to buy: price %.2f, funds %.2f, one lot needs %.2f",
			price, funds, lotCost)
		return
	}

	msg, err := c.orders.ExecuteBuy(cfg.StockCode, stockName, price, shares)
	if err != nil {
		c.activity.Appendf(SeverityError, "buy %d %s @ %.2f failed: %v",
			shares, cfg.StockCode, price, err)
		c.logger.Error("buy order", "stock", cfg.StockCode, "error", err)
		if c.notifier != nil {
			c.notifier.NotifyError("buy "+cfg.StockCode, err)
		}
		return
	}

	c.activity.Appendf(SeveritySuccess, "bought %d %s @ %.2f: %s",
		shares, cfg.StockCode, price, msg)
	c.logger.Info("buy order filled", "stock", cfg.StockCode, "price", price, "shares", shares)
	if c.notifier != nil {
		c.notifier.NotifyBuy(cfg.StockCode, price, shares, msg)
	}
	c.notifyOrderFilled()
}

func (c *Controller) executeSell(cfg Config, stockName string, price float64) {
	heldName, held, err := c.positions.HeldShares(cfg.StockCode)
	if err != nil {
		c.activity.Appendf(SeverityError, "position lookup failed: %v", err)
		c.logger.Error("position lookup", "stock", cfg.StockCode, "error", err)
		return
	}
	if held == 0 {
		c.activity.Appendf(SeverityInfo, "nothing to sell for %s", cfg.StockCode)
		return
	}
	if heldName != "" {
		stockName = heldName
	}

	// a sell always liquidates the full held position
	msg, err := c.orders.ExecuteSell(cfg.StockCode, stockName, price, held)
	if err != nil {
		c.activity.Appendf(SeverityError, "sell %d %s @ %.2f failed: %v",
			held, cfg.StockCode, price, err)
		c.logger.Error("sell order", "stock", cfg.StockCode, "error", err)
		if c.notifier != nil {
			c.notifier.NotifyError("sell "+cfg.StockCode, err)
		}
		return
	}

	c.activity.Appendf(SeveritySuccess, "sold %d %s @ %.2f: %s",
		held, cfg.StockCode, price, msg)
	c.logger.Info("sell order filled", "stock", cfg.StockCode, "price", price, "shares", held)
	if c.notifier != nil {
		c.notifier.NotifySell(cfg.StockCode, price, held, msg)
	}
	c.notifyOrderFilled()
}

// logSteps emits a condensed line per calculation step: name, description
// and any recorded values.
func (c *Controller) logSteps(strategyID string, steps []strategy.Step) {
	for _, step := range steps {
		line := fmt.Sprintf("[%s] step %d %s: %s", strategyID, step.Step, step.Name, step.Description)
		if len(step.Values) > 0 {
			line += " (" + formatStepValues(step.Values) + ")"
		}
		c.activity.Append(SeverityInfo, line)
	}
}

func formatStepValues(values map[string]any) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, values[k]))
	}
	return strings.Join(parts, ", ")
}

func (c *Controller) describeFunding(cfg Config) string {
	if cfg.Funding == FundingAllCash {
		return "all available cash"
	}
	return fmt.Sprintf("fixed %.2f", cfg.Amount)
}

func (c *Controller) notifyStateChange(running bool) {
	if c.onStateChange != nil {
		c.onStateChange(running)
	}
}

func (c *Controller) notifyOrderFilled() {
	if c.onOrderFilled != nil {
		c.onOrderFilled()
	}
}
