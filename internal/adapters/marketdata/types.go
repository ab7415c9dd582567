package marketdata

// types.go — wire DTOs for the upstream API, mapped to domain types at
// this boundary so nothing loosely-typed leaks into the engine.

import (
	"strings"
	"time"

	"github.com/alejandrodnm/backsim/internal/domain"
)

type quoteDTO struct {
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Volume        int64   `json:"volume"`
	DayHigh       float64 `json:"day_high"`
	DayLow        float64 `json:"day_low"`
	Open          float64 `json:"open"`
	PreviousClose float64 `json:"previous_close"`
	Timestamp     int64   `json:"ts"` // unix seconds
}

func (d quoteDTO) toDomain(symbol string) domain.Quote {
	return domain.Quote{
		Symbol:        symbol,
		Price:         d.Price,
		Change:        d.Change,
		ChangePercent: d.ChangePercent,
		Volume:        d.Volume,
		DayHigh:       d.DayHigh,
		DayLow:        d.DayLow,
		Open:          d.Open,
		PreviousClose: d.PreviousClose,
		Timestamp:     time.Unix(d.Timestamp, 0),
	}
}

type candleDTO struct {
	Open   float64 `json:"o"`
	High   float64 `json:"h"`
	Low    float64 `json:"l"`
	Close  float64 `json:"c"`
	Volume int64   `json:"v"`
	Time   int64   `json:"t"` // unix seconds
}

type historyDTO struct {
	Candles []candleDTO `json:"candles"`
}

// toDomain turns the candle series into a quote series. Change fields
// are derived candle-to-candle since the upstream does not repeat them
// per bar.
func (d historyDTO) toDomain(symbol string) []domain.Quote {
	quotes := make([]domain.Quote, 0, len(d.Candles))
	prevClose := 0.0
	for i, c := range d.Candles {
		q := domain.Quote{
			Symbol:        symbol,
			Price:         c.Close,
			Volume:        c.Volume,
			DayHigh:       c.High,
			DayLow:        c.Low,
			Open:          c.Open,
			PreviousClose: prevClose,
			Timestamp:     time.Unix(c.Time, 0),
		}
		if i > 0 && prevClose != 0 {
			q.Change = c.Close - prevClose
			q.ChangePercent = (c.Close - prevClose) / prevClose * 100
		}
		quotes = append(quotes, q)
		prevClose = c.Close
	}
	return quotes
}

type analysisDTO struct {
	Technical *struct {
		Support    float64 `json:"support"`
		Resistance float64 `json:"resistance"`
		Trend      string  `json:"trend"`
	} `json:"technical"`
	Fundamentals *struct {
		ROE          float64 `json:"roe"`
		DebtToEquity float64 `json:"debt_to_equity"`
		PERatio      float64 `json:"pe_ratio"`
		Rating       string  `json:"analyst_rating"`
	} `json:"fundamentals"`
	Sentiment *struct {
		Score float64 `json:"score"`
		Label string  `json:"label"`
	} `json:"sentiment"`
}

func (d analysisDTO) toDomain(symbol string) domain.Analysis {
	an := domain.Analysis{Symbol: symbol, FetchedAt: time.Now().UTC()}
	if d.Technical != nil {
		an.Technical = &domain.TechnicalLevels{
			Symbol:     symbol,
			Support:    d.Technical.Support,
			Resistance: d.Technical.Resistance,
			Trend:      d.Technical.Trend,
		}
	}
	if d.Fundamentals != nil {
		an.Fundamentals = &domain.Fundamentals{
			Symbol:        symbol,
			ROE:           d.Fundamentals.ROE,
			DebtToEquity:  d.Fundamentals.DebtToEquity,
			PERatio:       d.Fundamentals.PERatio,
			AnalystRating: domain.AnalystRating(strings.ToLower(d.Fundamentals.Rating)),
		}
	}
	if d.Sentiment != nil {
		an.Sentiment = &domain.Sentiment{
			Symbol: symbol,
			Score:  d.Sentiment.Score,
			Label:  d.Sentiment.Label,
		}
	}
	return an
}
