package models

import (
	"math"
	"time"
)

// Indicator names. Values in an IndicatorTable are keyed by these.
const (
	IndClose    = "close"
	IndMACD     = "MACD"
	IndDIF      = "DIF"
	IndDEA      = "DEA"
	IndK        = "K"
	IndD        = "D"
	IndJ        = "J"
	IndRSI      = "RSI"
	IndBollUp   = "BOLL_UP"
	IndBollMid  = "BOLL_MID"
	IndBollLow  = "BOLL_LOW"
	IndPDI      = "PDI"
	IndMDI      = "MDI"
	IndADX      = "ADX"
	IndADXR     = "ADXR"
	IndVR       = "VR"
	IndAR       = "AR"
	IndBR       = "BR"
	IndROC      = "ROC"
	IndMAROC    = "MAROC"
	IndMTM      = "MTM"
	IndMTMMA    = "MTMMA"
	IndTRIX     = "TRIX"
	IndTRMA     = "TRMA"
	IndBIAS1    = "BIAS1"
	IndBIAS2    = "BIAS2"
	IndBIAS3    = "BIAS3"
	IndCCI      = "CCI"
	IndDPO      = "DPO"
	IndMADPO    = "MADPO"
	IndEMV      = "EMV"
	IndMAEMV    = "MAEMV"
	IndDIFDMA   = "DIF_DMA"
	IndDIFMADMA = "DIFMA_DMA"
	IndMA5      = "MA5"
	IndMA10     = "MA10"
	IndMA20     = "MA20"
	IndMA60     = "MA60"
)

// IndicatorTable holds one numeric series per indicator, aligned by row with Dates.
// Undefined values (look-back window unfilled) are NaN. The table is read-only once
// computed.
type IndicatorTable struct {
	Dates  []time.Time
	series map[string][]float64
}

// NewIndicatorTable creates an empty table for the given dates.
func NewIndicatorTable(dates []time.Time) *IndicatorTable {
	return &IndicatorTable{Dates: dates, series: make(map[string][]float64)}
}

// Set stores a series. It must have the same length as Dates.
func (t *IndicatorTable) Set(name string, values []float64) {
	t.series[name] = values
}

// Series returns the named series, or nil.
func (t *IndicatorTable) Series(name string) []float64 {
	return t.series[name]
}

// Len returns the number of rows.
func (t *IndicatorTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Dates)
}

// At returns the value of name at row i, NaN when absent or out of range.
func (t *IndicatorTable) At(name string, i int) float64 {
	s := t.series[name]
	if i < 0 || i >= len(s) {
		return math.NaN()
	}
	return s[i]
}

// Back returns the value of name counted from the end: Back(name, 1) is the latest row.
func (t *IndicatorTable) Back(name string, n int) float64 {
	return t.At(name, t.Len()-n)
}
