// Package models defines the core data structures used throughout stockinsight.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock identifies an instrument to analyze.
type Stock struct {
	Name string `json:"name" mapstructure:"name" yaml:"name"` // e.g., "融发核电"
	Code string `json:"code" mapstructure:"code" yaml:"code"` // e.g., "SZ002366"
}

// DisplayName returns "name (code)", or just the code when no name is known.
func (s Stock) DisplayName() string {
	if s.Name == "" || s.Name == s.Code {
		return s.Code
	}
	return s.Name + " (" + s.Code + ")"
}

// DailyBar represents one trading day of price data.
// Bars are immutable once fetched; a history is ordered by Date ascending.
type DailyBar struct {
	Date   time.Time       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// DateKey returns the bar's calendar day as YYYY-MM-DD.
func (b DailyBar) DateKey() string {
	return b.Date.Format(DateLayout)
}

// DateLayout is the canonical date key format.
const DateLayout = "2006-01-02"

// OHLCV is the float64 view of a bar history consumed by the indicator library.
type OHLCV struct {
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64
}

// Len returns the number of rows.
func (o OHLCV) Len() int { return len(o.Close) }

// ToOHLCV converts bars into equal-length float arrays.
func ToOHLCV(bars []DailyBar) OHLCV {
	n := len(bars)
	o := OHLCV{
		Open:   make([]float64, n),
		High:   make([]float64, n),
		Low:    make([]float64, n),
		Close:  make([]float64, n),
		Volume: make([]float64, n),
	}
	for i, b := range bars {
		o.Open[i] = b.Open.InexactFloat64()
		o.High[i] = b.High.InexactFloat64()
		o.Low[i] = b.Low.InexactFloat64()
		o.Close[i] = b.Close.InexactFloat64()
		o.Volume[i] = float64(b.Volume)
	}
	return o
}

// BarDates returns the dates of a bar history in order.
func BarDates(bars []DailyBar) []time.Time {
	dates := make([]time.Time, len(bars))
	for i, b := range bars {
		dates[i] = b.Date
	}
	return dates
}
