package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"SZ002366", "002366"},
		{"sh600519", "600519"},
		{"600519.SH", "600519"},
		{" 000001 ", "000001"},
		{"bj430047", "430047"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NormalizeCode(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNormalizeCodeInvalid(t *testing.T) {
	for _, in := range []string{"", "AAPL", "60051", "SZ00236X", "6005190"} {
		_, err := NormalizeCode(in)
		assert.ErrorIs(t, err, ErrInvalidCode, in)
	}
}

func TestSecID(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"600519", "1.600519"},
		{"SH510300", "1.510300"},
		{"SZ002366", "0.002366"},
		{"300750", "0.300750"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := SecID(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	_, err := SecID("bogus")
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestExchangeOf(t *testing.T) {
	assert.Equal(t, ExchangeSH, ExchangeOf("600519"))
	assert.Equal(t, ExchangeSZ, ExchangeOf("000001"))
	assert.Equal(t, ExchangeBJ, ExchangeOf("830799"))
	assert.Equal(t, ExchangeSZ, ExchangeOf(""))
}
