package domain

import "time"

// Quote is one recorded price point for a symbol. Immutable once stored:
// there is exactly one Quote per (symbol, timestamp).
type Quote struct {
	Symbol        string
	Price         float64
	Change        float64
	ChangePercent float64
	Volume        int64
	DayHigh       float64
	DayLow        float64
	Open          float64
	PreviousClose float64
	Timestamp     time.Time
}

// Bollinger holds the three bands of a Bollinger indicator.
type Bollinger struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// Indicators are the technical indicators computed for a symbol at one
// timestamp. Every indicator is optional — nil means "not enough history
// to compute it". Same immutability contract as Quote.
type Indicators struct {
	Symbol    string
	Timestamp time.Time
	RSI       *float64
	EMA12     *float64
	EMA26     *float64
	SMA20     *float64
	SMA50     *float64
	Bollinger *Bollinger
}
