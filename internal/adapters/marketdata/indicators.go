package marketdata

// indicators.go — technical indicators derived from the quote series.
// Each indicator is nil until enough history has accumulated to compute
// it, matching the optional fields on domain.Indicators.

import (
	"math"

	"github.com/alejandrodnm/backsim/internal/domain"
)

const (
	rsiPeriod       = 14
	bollingerPeriod = 20
	bollingerWidth  = 2.0
)

// DeriveIndicators computes the indicator series for a chronological
// quote series. Output is index-aligned with the input.
func DeriveIndicators(symbol string, quotes []domain.Quote) []domain.Indicators {
	closes := make([]float64, len(quotes))
	for i, q := range quotes {
		closes[i] = q.Price
	}

	ema12 := emaSeries(closes, 12)
	ema26 := emaSeries(closes, 26)

	out := make([]domain.Indicators, len(quotes))
	for i := range quotes {
		ind := domain.Indicators{Symbol: symbol, Timestamp: quotes[i].Timestamp}
		ind.RSI = rsiAt(closes, i)
		ind.EMA12 = ema12[i]
		ind.EMA26 = ema26[i]
		ind.SMA20 = smaAt(closes, i, 20)
		ind.SMA50 = smaAt(closes, i, 50)
		ind.Bollinger = bollingerAt(closes, i)
		out[i] = ind
	}
	return out
}

// smaAt is the simple moving average of the period ending at index i.
func smaAt(closes []float64, i, period int) *float64 {
	if i+1 < period {
		return nil
	}
	sum := 0.0
	for _, c := range closes[i+1-period : i+1] {
		sum += c
	}
	v := sum / float64(period)
	return &v
}

// emaSeries computes the exponential moving average over the whole
// series, seeded with the SMA of the first period.
func emaSeries(closes []float64, period int) []*float64 {
	out := make([]*float64, len(closes))
	if len(closes) < period {
		return out
	}
	k := 2.0 / float64(period+1)

	seed := 0.0
	for _, c := range closes[:period] {
		seed += c
	}
	ema := seed / float64(period)
	v := ema
	out[period-1] = &v

	for i := period; i < len(closes); i++ {
		ema = closes[i]*k + ema*(1-k)
		v := ema
		out[i] = &v
	}
	return out
}

// rsiAt is the Wilder RSI of the window ending at index i.
func rsiAt(closes []float64, i int) *float64 {
	if i < rsiPeriod {
		return nil
	}
	gains, losses := 0.0, 0.0
	for j := i - rsiPeriod + 1; j <= i; j++ {
		delta := closes[j] - closes[j-1]
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}
	if losses == 0 {
		v := 100.0
		return &v
	}
	rs := (gains / float64(rsiPeriod)) / (losses / float64(rsiPeriod))
	v := 100 - 100/(1+rs)
	return &v
}

// bollingerAt is the 20-period, 2-sigma Bollinger band at index i.
func bollingerAt(closes []float64, i int) *domain.Bollinger {
	if i+1 < bollingerPeriod {
		return nil
	}
	window := closes[i+1-bollingerPeriod : i+1]
	mean := 0.0
	for _, c := range window {
		mean += c
	}
	mean /= float64(bollingerPeriod)

	variance := 0.0
	for _, c := range window {
		variance += (c - mean) * (c - mean)
	}
	sd := math.Sqrt(variance / float64(bollingerPeriod))

	return &domain.Bollinger{
		Upper:  mean + bollingerWidth*sd,
		Middle: mean,
		Lower:  mean - bollingerWidth*sd,
	}
}
