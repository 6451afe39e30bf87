package utils

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFixed2(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{0, "0.00"},
		{1.005, "1.00"},
		{12.345678, "12.35"},
		{-0.5, "-0.50"},
		{1234567.891, "1234567.89"},
		{math.NaN(), "nan"},
		{math.Inf(1), "inf"},
		{math.Inf(-1), "-inf"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, Fixed2(tt.input))
		})
	}
}

func TestGroupInt(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-45000, "-45,000"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, GroupInt(tt.input))
		})
	}
}

func TestPriceAndPct(t *testing.T) {
	assert.Equal(t, "12.30", Price(decimal.RequireFromString("12.3")))
	assert.Equal(t, "-1.20%", PctDecimal(decimal.RequireFromString("-1.2")))
}

func TestPercentChange(t *testing.T) {
	pct, ok := PercentChange(decimal.RequireFromString("11"), decimal.RequireFromString("10"))
	assert.True(t, ok)
	assert.Equal(t, "10.00", pct.StringFixed(2))

	_, ok = PercentChange(decimal.RequireFromString("11"), decimal.Zero)
	assert.False(t, ok)
}
