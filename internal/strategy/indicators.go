package strategy

import "math"

// SMA is the simple average of the last n values. Returns 0 when there are
// fewer than n values.
func SMA(values []float64, n int) float64 {
	if n <= 0 || len(values) < n {
		return 0
	}
	var sum float64
	for _, v := range values[len(values)-n:] {
		sum += v
	}
	return sum / float64(n)
}

// ema runs an exponential moving average across the whole series, seeded
// with the first value.
func ema(values []float64, period int) float64 {
	if len(values) == 0 {
		return 0
	}
	k := 2.0 / float64(period+1)
	out := values[0]
	for _, v := range values[1:] {
		out = v*k + out*(1-k)
	}
	return out
}

// MACD returns DIF (EMA12-EMA26), DEA (9-period EMA of the DIF series) and
// the histogram bar 2*(DIF-DEA).
func MACD(closes []float64) (dif, dea, bar float64) {
	if len(closes) == 0 {
		return 0, 0, 0
	}

	k12 := 2.0 / 13.0
	k26 := 2.0 / 27.0

	ema12 := closes[0]
	ema26 := closes[0]
	var difs []float64
	for _, c := range closes[1:] {
		ema12 = c*k12 + ema12*(1-k12)
		ema26 = c*k26 + ema26*(1-k26)
		difs = append(difs, ema12-ema26)
	}

	dif = ema12 - ema26
	dea = dif
	if len(difs) > 0 {
		dea = ema(difs, 9)
	}
	bar = (dif - dea) * 2
	return dif, dea, bar
}

// EMAPair returns the final EMA12 and EMA26 values for the series.
func EMAPair(closes []float64) (ema12, ema26 float64) {
	if len(closes) == 0 {
		return 0, 0
	}
	return ema(closes, 12), ema(closes, 26)
}

// RSI computes the 14-period relative strength index with Wilder smoothing:
// a simple average seeds the first window, then avg = (prev*13 + cur)/14.
// With no usable data it returns the neutral 50.
func RSI(closes []float64) float64 {
	if len(closes) < 2 {
		return 50
	}

	var gains, losses []float64
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains = append(gains, change)
			losses = append(losses, 0)
		} else {
			gains = append(gains, 0)
			losses = append(losses, -change)
		}
	}

	var avgGain, avgLoss float64
	if len(gains) >= 14 {
		for i := 0; i < 14; i++ {
			avgGain += gains[i]
			avgLoss += losses[i]
		}
		avgGain /= 14
		avgLoss /= 14
		for i := 14; i < len(gains); i++ {
			avgGain = (avgGain*13 + gains[i]) / 14
			avgLoss = (avgLoss*13 + losses[i]) / 14
		}
	} else {
		for i := range gains {
			avgGain += gains[i]
			avgLoss += losses[i]
		}
		avgGain /= float64(len(gains))
		avgLoss /= float64(len(losses))
	}

	switch {
	case avgLoss == 0:
		return 100
	case avgGain == 0:
		return 0
	default:
		rs := avgGain / avgLoss
		return 100 - 100/(1+rs)
	}
}

// Bollinger returns the 20-period middle band, the population standard
// deviation, and the ±2σ bands. Falls back to whatever history exists when
// fewer than 20 values are available.
func Bollinger(closes []float64, fallback float64) (mid, std, upper, lower float64) {
	mid = fallback

	window := closes
	if len(closes) >= 20 {
		window = closes[len(closes)-20:]
	}
	if len(window) > 0 {
		var sum float64
		for _, c := range window {
			sum += c
		}
		mid = sum / float64(len(window))
	}
	if len(window) > 1 {
		var variance float64
		for _, c := range window {
			variance += (c - mid) * (c - mid)
		}
		variance /= float64(len(window))
		std = math.Sqrt(variance)
	}

	upper = mid + 2*std
	lower = mid - 2*std
	return mid, std, upper, lower
}
