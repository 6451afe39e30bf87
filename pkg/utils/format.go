// Package utils provides common utility functions for stockinsight.
package utils

import (
	"math"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	printerOnce sync.Once
	printer     *message.Printer
)

func groupingPrinter() *message.Printer {
	printerOnce.Do(func() {
		printer = message.NewPrinter(language.English)
	})
	return printer
}

// Fixed2 formats v with exactly two decimals. Undefined values render as "nan",
// infinities as "inf" / "-inf".
func Fixed2(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Price formats a decimal price with two decimals, e.g. 12.3 → "12.30".
func Price(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// GroupInt formats an integer with thousands separators, e.g. 1234567 → "1,234,567".
func GroupInt(n int64) string {
	return groupingPrinter().Sprintf("%d", n)
}

// PercentChange returns (cur-prev)/prev*100. ok is false when prev is zero.
func PercentChange(cur, prev decimal.Decimal) (pct decimal.Decimal, ok bool) {
	if prev.IsZero() {
		return decimal.Zero, false
	}
	return cur.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)), true
}

// PctDecimal formats a decimal percentage with two decimals and a suffix,
// e.g. -1.2 → "-1.20%".
func PctDecimal(d decimal.Decimal) string {
	return d.StringFixed(2) + "%"
}
