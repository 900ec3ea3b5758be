package strategy

import (
	"context"
	"fmt"
	"math"

	"github.com/czhen/papertrader/internal/logger"
	"github.com/czhen/papertrader/internal/quote"
)

const historyDays = 60

// MarketData is the slice of the quote client the engine needs.
type MarketData interface {
	GetQuote(ctx context.Context, stockCode string) (*quote.Quote, error)
	GetHistory(ctx context.Context, stockCode, period string, count int) ([]quote.Kline, error)
}

// Engine evaluates a stock against one of the built-in strategies and
// reports a signal together with the calculation trail behind it.
type Engine struct {
	market MarketData
	logger *logger.Logger
}

func NewEngine(market MarketData, log *logger.Logger) *Engine {
	return &Engine{market: market, logger: log}
}

type evaluation struct {
	signal     Signal
	reason     string
	steps      []Step
	indicators map[string]any
}

func (e *Engine) Analyze(ctx context.Context, stockCode, strategyID string) (*Result, error) {
	q, err := e.market.GetQuote(ctx, stockCode)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", stockCode, err)
	}

	// Indicators degrade gracefully without history, so a history failure
	// is logged and analysis continues on the live quote alone.
	history, err := e.market.GetHistory(ctx, stockCode, "day", historyDays)
	if err != nil {
		e.logger.Warn("history unavailable, analyzing on quote only",
			"stock", stockCode, "error", err)
		history = nil
	}

	closes := make([]float64, 0, len(history))
	for _, bar := range history {
		closes = append(closes, bar.Close)
	}

	var ev evaluation
	switch strategyID {
	case StrategyMA:
		ev = evaluateMA(q, closes)
	case StrategyMomentum:
		ev = evaluateMomentum(q)
	case StrategyVolume:
		ev = evaluateVolume(q)
	case StrategyMACD:
		ev = evaluateMACD(q, closes)
	case StrategyRSI:
		ev = evaluateRSI(q, closes)
	case StrategyBollinger:
		ev = evaluateBollinger(q, closes)
	default:
		return nil, fmt.Errorf("unknown strategy %q", strategyID)
	}

	return &Result{
		StockCode:    stockCode,
		StockName:    q.StockName,
		CurrentPrice: q.CurrentPrice,
		Strategy:     strategyID,
		Signal:       ev.signal,
		Reason:       ev.reason,
		Steps:        ev.steps,
		Indicators:   ev.indicators,
	}, nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }

func evaluateMA(q *quote.Quote, closes []float64) evaluation {
	steps := []Step{{
		Step: 1, Name: "base data",
		Description: "realtime quote fields used by the strategy",
		Values: map[string]any{
			"current_price":  q.CurrentPrice,
			"pre_close":      q.PreClose,
			"change_percent": q.ChangePercent,
		},
	}}

	ma5, ma10, ma20 := q.CurrentPrice, q.CurrentPrice, q.CurrentPrice
	if len(closes) >= 5 {
		ma5 = SMA(closes, 5)
	}
	if len(closes) >= 10 {
		ma10 = SMA(closes, 10)
	}
	if len(closes) >= 20 {
		ma20 = SMA(closes, 20)
	}

	steps = append(steps, Step{
		Step: 2, Name: "moving averages",
		Description: "simple averages of the last 5/10/20 daily closes",
		Values: map[string]any{
			"MA5":  round2(ma5),
			"MA10": round2(ma10),
			"MA20": round2(ma20),
		},
	})

	steps = append(steps, Step{
		Step: 3, Name: "price vs averages",
		Description: "position of the current price against each average",
		Values: map[string]any{
			"price>MA5":  q.CurrentPrice > ma5,
			"price>MA10": q.CurrentPrice > ma10,
			"price>MA20": q.CurrentPrice > ma20,
			"MA5>MA10":   ma5 > ma10,
			"MA10>MA20":  ma10 > ma20,
		},
	})

	var signal Signal
	var reason string
	switch {
	case q.CurrentPrice > ma5 && q.CurrentPrice > ma10 && q.CurrentPrice > ma20:
		signal = SignalBuy
		if q.ChangePercent > 3 {
			reason = fmt.Sprintf("price broke above all averages, rallying %.2f%%", q.ChangePercent)
		} else {
			reason = "price above all averages, bullish alignment"
		}
	case q.CurrentPrice < ma5 && q.CurrentPrice < ma10:
		signal = SignalSell
		reason = "price fell below the short averages, trend weakening"
	case ma5 < ma10 && ma10 < ma20:
		signal = SignalSell
		reason = "bearish average alignment, downtrend"
	default:
		signal = SignalHold
		reason = "price oscillating around the averages, stay flat"
	}

	steps = append(steps, signalStep(4, signal, reason))

	return evaluation{
		signal: signal,
		reason: reason,
		steps:  steps,
		indicators: map[string]any{
			"ma5":  round2(ma5),
			"ma10": round2(ma10),
			"ma20": round2(ma20),
		},
	}
}

func evaluateMomentum(q *quote.Quote) evaluation {
	steps := []Step{{
		Step: 1, Name: "base data",
		Description: "change percent and traded volume",
		Values: map[string]any{
			"change_percent": q.ChangePercent,
			"volume":         q.Volume,
		},
	}}

	strongBuy := q.ChangePercent > 7
	buy := q.ChangePercent > 3
	strongSell := q.ChangePercent < -7
	sell := q.ChangePercent < -3

	steps = append(steps, Step{
		Step: 2, Name: "momentum bands",
		Description: "change percent classified against the ±3%/±7% bands",
		Values: map[string]any{
			"strong_buy":  strongBuy,
			"buy":         buy,
			"strong_sell": strongSell,
			"sell":        sell,
		},
	})

	highVolume := q.Volume > 10000000

	steps = append(steps, Step{
		Step: 3, Name: "volume check",
		Description: "whether volume is heavy enough to back the move",
		Values:      map[string]any{"volume>10M": highVolume},
	})

	var signal Signal
	var reason string
	switch {
	case strongBuy && highVolume:
		signal = SignalBuy
		reason = fmt.Sprintf("surging %.2f%% on heavy volume", q.ChangePercent)
	case buy:
		signal = SignalBuy
		reason = fmt.Sprintf("up %.2f%%, strong momentum", q.ChangePercent)
	case strongSell:
		signal = SignalSell
		reason = fmt.Sprintf("down %.2f%%, severe risk", -q.ChangePercent)
	case sell:
		signal = SignalSell
		reason = fmt.Sprintf("down %.2f%%, momentum fading", -q.ChangePercent)
	default:
		signal = SignalHold
		reason = "small move, not enough momentum"
	}

	steps = append(steps, signalStep(4, signal, reason))

	return evaluation{
		signal: signal,
		reason: reason,
		steps:  steps,
		indicators: map[string]any{
			"change_percent": q.ChangePercent,
			"volume":         q.Volume,
		},
	}
}

func evaluateVolume(q *quote.Quote) evaluation {
	steps := []Step{{
		Step: 1, Name: "base data",
		Description: "volume, turnover and change percent",
		Values: map[string]any{
			"volume":         q.Volume,
			"amount":         q.Amount,
			"change_percent": q.ChangePercent,
		},
	}}

	const avgVolume = 10000000.0
	volumeRatio := q.Volume / avgVolume

	steps = append(steps, Step{
		Step: 2, Name: "volume ratio",
		Description: "current volume relative to the baseline average",
		Values: map[string]any{
			"avg_volume":   avgVolume,
			"volume_ratio": round2(volumeRatio),
		},
	})

	highVolume := volumeRatio > 2
	moderateVolume := volumeRatio > 1.5 && volumeRatio <= 2
	lowVolume := volumeRatio < 0.5
	priceUp := q.ChangePercent > 0

	steps = append(steps, Step{
		Step: 3, Name: "volume state",
		Description: "volume regime and price direction",
		Values: map[string]any{
			"heavy(>2x)":       highVolume,
			"moderate(1.5-2x)": moderateVolume,
			"shrinking(<0.5x)": lowVolume,
			"price_up":         priceUp,
		},
	})

	var signal Signal
	var reason string
	switch {
	case highVolume && priceUp:
		signal = SignalBuy
		reason = fmt.Sprintf("rising on %.1fx volume, money flowing in", volumeRatio)
	case highVolume && !priceUp:
		signal = SignalSell
		reason = fmt.Sprintf("falling on %.1fx volume, money flowing out", volumeRatio)
	case lowVolume:
		signal = SignalHold
		reason = "volume drying up, no direction"
	case moderateVolume && priceUp:
		signal = SignalBuy
		reason = "moderate volume expansion with rising price"
	default:
		signal = SignalHold
		reason = "volume unremarkable, stay flat"
	}

	steps = append(steps, signalStep(4, signal, reason))

	return evaluation{
		signal: signal,
		reason: reason,
		steps:  steps,
		indicators: map[string]any{
			"volume":         q.Volume,
			"volume_ratio":   round2(volumeRatio),
			"change_percent": q.ChangePercent,
		},
	}
}

func evaluateMACD(q *quote.Quote, closes []float64) evaluation {
	steps := []Step{{
		Step: 1, Name: "base data",
		Description: "current price and change percent",
		Values: map[string]any{
			"current_price":  q.CurrentPrice,
			"pre_close":      q.PreClose,
			"change_percent": q.ChangePercent,
		},
	}}

	ema12, ema26 := q.CurrentPrice, q.CurrentPrice
	dif, dea, bar := 0.0, 0.0, 0.0
	if len(closes) > 0 {
		ema12, ema26 = EMAPair(closes)
		dif, dea, bar = MACD(closes)
	}

	steps = append(steps, Step{
		Step: 2, Name: "exponential averages",
		Description: "EMA12 and EMA26 over the daily closes",
		Values: map[string]any{
			"EMA12": round2(ema12),
			"EMA26": round2(ema26),
		},
	})
	steps = append(steps, Step{
		Step: 3, Name: "DIF/DEA",
		Description: "DIF = EMA12-EMA26; DEA = 9-period EMA of DIF; bar = 2*(DIF-DEA)",
		Values: map[string]any{
			"DIF":      round4(dif),
			"DEA":      round4(dea),
			"MACD_bar": round4(bar),
		},
	})

	difAboveDea := dif > dea
	difAboveZero := dif > 0
	deaAboveZero := dea > 0

	steps = append(steps, Step{
		Step: 4, Name: "MACD state",
		Description: "fast/slow line positions against each other and the zero axis",
		Values: map[string]any{
			"DIF>DEA": difAboveDea,
			"DIF>0":   difAboveZero,
			"DEA>0":   deaAboveZero,
		},
	})

	var signal Signal
	var reason string
	switch {
	case difAboveZero && deaAboveZero && difAboveDea:
		signal = SignalBuy
		if q.ChangePercent > 2 {
			reason = "MACD golden cross pointing up, bullish alignment"
		} else {
			reason = "MACD above the zero axis, bullish trend"
		}
	case !difAboveZero && !deaAboveZero && !difAboveDea:
		signal = SignalSell
		reason = "MACD dead cross pointing down, bearish alignment"
	case difAboveZero && !deaAboveZero:
		signal = SignalBuy
		reason = "MACD golden cross, trend reversing up"
	case !difAboveZero && deaAboveZero:
		signal = SignalSell
		reason = "MACD dead cross, trend reversing down"
	default:
		signal = SignalHold
		reason = "MACD inconclusive, stay flat"
	}

	steps = append(steps, signalStep(5, signal, reason))

	return evaluation{
		signal: signal,
		reason: reason,
		steps:  steps,
		indicators: map[string]any{
			"DIF":      round4(dif),
			"DEA":      round4(dea),
			"MACD_bar": round4(bar),
			"EMA12":    round2(ema12),
			"EMA26":    round2(ema26),
		},
	}
}

func evaluateRSI(q *quote.Quote, closes []float64) evaluation {
	steps := []Step{{
		Step: 1, Name: "base data",
		Description: "current price and change percent",
		Values: map[string]any{
			"current_price":  q.CurrentPrice,
			"pre_close":      q.PreClose,
			"change_percent": q.ChangePercent,
		},
	}}

	rsi := RSI(closes)

	steps = append(steps, Step{
		Step: 2, Name: "RSI",
		Description: "14-period RSI with Wilder smoothing over the daily closes",
		Values: map[string]any{
			"history_bars": len(closes),
			"RSI":          round2(rsi),
		},
	})

	oversold := rsi < 30
	overbought := rsi > 70
	leanLow := rsi >= 30 && rsi < 40
	leanHigh := rsi > 60 && rsi <= 70

	steps = append(steps, Step{
		Step: 3, Name: "RSI state",
		Description: "overbought/oversold classification",
		Values: map[string]any{
			"oversold(<30)":    oversold,
			"overbought(>70)":  overbought,
			"lean_low(30-40)":  leanLow,
			"lean_high(60-70)": leanHigh,
		},
	})

	var signal Signal
	var reason string
	switch {
	case oversold:
		if q.ChangePercent < -3 {
			reason = fmt.Sprintf("RSI oversold (%.1f), rebound likely", rsi)
		} else {
			reason = fmt.Sprintf("RSI oversold (%.1f)", rsi)
		}
		signal = SignalBuy
	case overbought:
		if q.ChangePercent > 3 {
			reason = fmt.Sprintf("RSI overbought (%.1f), pullback likely", rsi)
		} else {
			reason = fmt.Sprintf("RSI overbought (%.1f)", rsi)
		}
		signal = SignalSell
	case leanLow:
		signal = SignalBuy
		reason = fmt.Sprintf("RSI leaning low (%.1f)", rsi)
	case leanHigh:
		signal = SignalSell
		reason = fmt.Sprintf("RSI leaning high (%.1f)", rsi)
	default:
		signal = SignalHold
		reason = fmt.Sprintf("RSI neutral (%.1f), stay flat", rsi)
	}

	steps = append(steps, signalStep(4, signal, reason))

	change := q.CurrentPrice - q.PreClose
	gain, loss := 0.0, 0.0
	if change > 0 {
		gain = change
	} else {
		loss = -change
	}

	return evaluation{
		signal: signal,
		reason: reason,
		steps:  steps,
		indicators: map[string]any{
			"RSI":  round2(rsi),
			"gain": round2(gain),
			"loss": round2(loss),
		},
	}
}

func evaluateBollinger(q *quote.Quote, closes []float64) evaluation {
	steps := []Step{{
		Step: 1, Name: "base data",
		Description: "price range of the session",
		Values: map[string]any{
			"current_price": q.CurrentPrice,
			"high_price":    q.HighPrice,
			"low_price":     q.LowPrice,
			"pre_close":     q.PreClose,
		},
	}}

	mid, std, upper, lower := Bollinger(closes, q.CurrentPrice)

	steps = append(steps, Step{
		Step: 2, Name: "bands",
		Description: "20-period middle band with ±2σ envelope",
		Values: map[string]any{
			"MA20":       round2(mid),
			"std":        round2(std),
			"upper_band": round2(upper),
			"lower_band": round2(lower),
		},
	})

	var bandwidth float64
	if mid > 0 {
		bandwidth = (upper - lower) / mid * 100
	}

	steps = append(steps, Step{
		Step: 3, Name: "bandwidth",
		Description: "band spread relative to the middle band",
		Values:      map[string]any{"bandwidth": round2(bandwidth)},
	})

	aboveUpper := q.CurrentPrice > upper
	belowLower := q.CurrentPrice < lower
	aboveMid := q.CurrentPrice > mid
	wide := bandwidth > 10
	narrow := bandwidth < 5

	steps = append(steps, Step{
		Step: 4, Name: "band position",
		Description: "price against the band envelope",
		Values: map[string]any{
			"above_upper":  aboveUpper,
			"below_lower":  belowLower,
			"above_mid":    aboveMid,
			"wide(>10%)":   wide,
			"squeeze(<5%)": narrow,
		},
	})

	var signal Signal
	var reason string
	switch {
	case aboveUpper:
		signal = SignalSell
		reason = "price broke the upper band, overbought"
	case belowLower:
		signal = SignalBuy
		reason = "price broke the lower band, oversold"
	case aboveMid && wide:
		signal = SignalBuy
		reason = "price above the middle band with the bands opening"
	case !aboveMid && wide:
		signal = SignalSell
		reason = "price below the middle band with the bands opening"
	case narrow:
		signal = SignalHold
		reason = "bands squeezing, wait for the breakout"
	default:
		signal = SignalHold
		reason = "price near the middle band, stay flat"
	}

	steps = append(steps, signalStep(5, signal, reason))

	return evaluation{
		signal: signal,
		reason: reason,
		steps:  steps,
		indicators: map[string]any{
			"MA20":       round2(mid),
			"std":        round2(std),
			"upper_band": round2(upper),
			"lower_band": round2(lower),
			"bandwidth":  round2(bandwidth),
		},
	}
}

func signalStep(n int, signal Signal, reason string) Step {
	return Step{
		Step: n, Name: "signal",
		Description: "final recommendation from the rules above",
		Values: map[string]any{
			"signal": string(signal),
			"reason": reason,
		},
	}
}
