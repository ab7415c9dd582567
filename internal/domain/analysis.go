package domain

import "time"

// AnalystRating is the aggregate analyst recommendation for a symbol.
type AnalystRating string

const (
	RatingBuy  AnalystRating = "buy"
	RatingHold AnalystRating = "hold"
	RatingSell AnalystRating = "sell"
)

// TechnicalLevels are the computed support/resistance levels for a symbol.
// These are point-in-time state, not a time series.
type TechnicalLevels struct {
	Symbol     string
	Support    float64
	Resistance float64
	Trend      string // "up" | "down" | "sideways"
}

// Fundamentals is the financial summary for a symbol.
type Fundamentals struct {
	Symbol        string
	ROE           float64 // return on equity, 0.15 == 15%
	DebtToEquity  float64 // percentage, 100 == 100%
	PERatio       float64
	AnalystRating AnalystRating
}

// Sentiment is the aggregate market sentiment score for a symbol.
type Sentiment struct {
	Symbol string
	Score  float64 // -1 (bearish) .. +1 (bullish)
	Label  string  // "bullish" | "bearish" | "neutral"
}

// Analysis merges the three static per-symbol summaries consumed by the
// signal engine. Each part is optional — upstream may not cover every
// symbol. Analyses have no time dimension: they are refreshed on their
// own TTL, independently of the quote/indicator series.
type Analysis struct {
	Symbol       string
	Technical    *TechnicalLevels
	Fundamentals *Fundamentals
	Sentiment    *Sentiment
	FetchedAt    time.Time
}
