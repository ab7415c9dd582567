package marketdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/backsim/internal/domain"
)

func quoteSeries(closes ...float64) []domain.Quote {
	base := time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC)
	out := make([]domain.Quote, len(closes))
	for i, c := range closes {
		out[i] = domain.Quote{Symbol: "AAPL", Price: c, Timestamp: base.Add(time.Duration(i) * time.Hour)}
	}
	return out
}

func constSeries(n int, price float64) []domain.Quote {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = price
	}
	return quoteSeries(closes...)
}

func TestDeriveIndicators_Alignment(t *testing.T) {
	quotes := quoteSeries(1, 2, 3)
	inds := DeriveIndicators("AAPL", quotes)

	require.Len(t, inds, 3)
	for i, ind := range inds {
		assert.Equal(t, "AAPL", ind.Symbol)
		assert.True(t, quotes[i].Timestamp.Equal(ind.Timestamp))
		// Three points is not enough for any indicator.
		assert.Nil(t, ind.RSI)
		assert.Nil(t, ind.EMA12)
		assert.Nil(t, ind.SMA20)
		assert.Nil(t, ind.Bollinger)
	}
}

func TestDeriveIndicators_SMA(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = float64(i + 1) // 1..20
	}
	inds := DeriveIndicators("AAPL", quoteSeries(closes...))

	assert.Nil(t, inds[18].SMA20)
	require.NotNil(t, inds[19].SMA20)
	assert.InDelta(t, 10.5, *inds[19].SMA20, 1e-9)
	assert.Nil(t, inds[19].SMA50)
}

func TestDeriveIndicators_EMAOnFlatSeries(t *testing.T) {
	inds := DeriveIndicators("AAPL", constSeries(30, 100))

	assert.Nil(t, inds[10].EMA12)
	require.NotNil(t, inds[11].EMA12)
	assert.InDelta(t, 100, *inds[11].EMA12, 1e-9)
	require.NotNil(t, inds[29].EMA26)
	assert.InDelta(t, 100, *inds[29].EMA26, 1e-9)
}

func TestDeriveIndicators_RSI(t *testing.T) {
	// Strictly rising closes: no losses, RSI pegs at 100.
	rising := make([]float64, 16)
	for i := range rising {
		rising[i] = 100 + float64(i)
	}
	inds := DeriveIndicators("AAPL", quoteSeries(rising...))
	assert.Nil(t, inds[13].RSI)
	require.NotNil(t, inds[14].RSI)
	assert.InDelta(t, 100, *inds[14].RSI, 1e-9)

	// Alternating +1/-1: gains equal losses, RSI is 50.
	alternating := make([]float64, 16)
	alternating[0] = 100
	for i := 1; i < len(alternating); i++ {
		if i%2 == 1 {
			alternating[i] = alternating[i-1] + 1
		} else {
			alternating[i] = alternating[i-1] - 1
		}
	}
	inds = DeriveIndicators("AAPL", quoteSeries(alternating...))
	require.NotNil(t, inds[14].RSI)
	assert.InDelta(t, 50, *inds[14].RSI, 1e-9)
}

func TestDeriveIndicators_BollingerOnFlatSeries(t *testing.T) {
	inds := DeriveIndicators("AAPL", constSeries(25, 50))

	assert.Nil(t, inds[18].Bollinger)
	bb := inds[19].Bollinger
	require.NotNil(t, bb)
	// Zero variance collapses the bands onto the mean.
	assert.InDelta(t, 50, bb.Middle, 1e-9)
	assert.InDelta(t, 50, bb.Upper, 1e-9)
	assert.InDelta(t, 50, bb.Lower, 1e-9)
}
