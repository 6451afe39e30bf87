package technical

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/stockinsight/pkg/models"
)

// neutralTable returns an n-row table in which no rule can fire: every series
// holds NaN except values that sit between all thresholds.
func neutralTable(n int) *models.IndicatorTable {
	table := models.NewIndicatorTable(models.BarDates(makeBars(n, 100, 0.1)))
	fill := func(name string, v float64) {
		s := make([]float64, n)
		for i := range s {
			s[i] = v
		}
		table.Set(name, s)
	}
	fill(models.IndClose, 100)
	fill(models.IndMACD, 0.1)
	fill(models.IndK, 50)
	fill(models.IndD, 50)
	fill(models.IndRSI, 50)
	fill(models.IndBollUp, 110)
	fill(models.IndBollLow, 90)
	fill(models.IndPDI, 20)
	fill(models.IndMDI, 25)
	fill(models.IndVR, 100)
	fill(models.IndROC, 1)
	fill(models.IndMAROC, 2)
	return table
}

// setLast overwrites the last two rows of a series.
func setLast(table *models.IndicatorTable, name string, prev, last float64) {
	s := append([]float64(nil), table.Series(name)...)
	s[len(s)-2] = prev
	s[len(s)-1] = last
	table.Set(name, s)
}

func TestGenerateSignalsNeutral(t *testing.T) {
	signals, err := GenerateSignals(neutralTable(10))
	require.NoError(t, err)
	assert.Equal(t, models.SignalList{models.NoSignal}, signals)
	assert.False(t, signals.HasSignals())
}

func TestGenerateSignalsAllNaN(t *testing.T) {
	table := models.NewIndicatorTable(models.BarDates(makeBars(5, 100, 1)))
	signals, err := GenerateSignals(table)
	require.NoError(t, err)
	assert.Equal(t, models.SignalList{models.NoSignal}, signals)
}

func TestGenerateSignalsDegenerate(t *testing.T) {
	_, err := GenerateSignals(neutralTable(1))
	assert.ErrorIs(t, err, models.ErrDegenerateInput)

	_, err = GenerateSignals(nil)
	assert.ErrorIs(t, err, models.ErrDegenerateInput)
}

func TestGenerateSignalsEachRule(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(table *models.IndicatorTable)
		expected string
	}{
		{"macd golden", func(tb *models.IndicatorTable) { setLast(tb, models.IndMACD, 0, 0.2) }, SignalMACDGolden},
		{"macd death", func(tb *models.IndicatorTable) { setLast(tb, models.IndMACD, 0, -0.2) }, SignalMACDDeath},
		{"kdj oversold", func(tb *models.IndicatorTable) {
			setLast(tb, models.IndK, 50, 15)
			setLast(tb, models.IndD, 50, 18)
		}, SignalKDJOversold},
		{"kdj overbought", func(tb *models.IndicatorTable) {
			setLast(tb, models.IndK, 50, 85)
			setLast(tb, models.IndD, 50, 81)
		}, SignalKDJOverbought},
		{"rsi oversold", func(tb *models.IndicatorTable) { setLast(tb, models.IndRSI, 50, 19.9) }, SignalRSIOversold},
		{"rsi overbought", func(tb *models.IndicatorTable) { setLast(tb, models.IndRSI, 50, 80.1) }, SignalRSIOverbought},
		{"boll break up", func(tb *models.IndicatorTable) { setLast(tb, models.IndClose, 100, 111) }, SignalBollBreakUp},
		{"boll break low", func(tb *models.IndicatorTable) { setLast(tb, models.IndClose, 100, 89) }, SignalBollBreakLow},
		{"dmi golden", func(tb *models.IndicatorTable) { setLast(tb, models.IndPDI, 25, 30) }, SignalDMIGolden},
		{"dmi death", func(tb *models.IndicatorTable) {
			setLast(tb, models.IndPDI, 30, 20)
		}, SignalDMIDeath},
		{"vr high", func(tb *models.IndicatorTable) { setLast(tb, models.IndVR, 100, 161) }, SignalVRHigh},
		{"vr low", func(tb *models.IndicatorTable) { setLast(tb, models.IndVR, 100, 39) }, SignalVRLow},
		{"roc up", func(tb *models.IndicatorTable) { setLast(tb, models.IndROC, 2, 3) }, SignalROCUp},
		{"roc down", func(tb *models.IndicatorTable) {
			setLast(tb, models.IndROC, 2, 3)
			setLast(tb, models.IndMAROC, 2, 4)
		}, SignalROCDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := neutralTable(10)
			tt.mutate(table)
			signals, err := GenerateSignals(table)
			require.NoError(t, err)
			assert.Equal(t, models.SignalList{tt.expected}, signals)
		})
	}
}

func TestGenerateSignalsOrderAndPurity(t *testing.T) {
	table := neutralTable(10)
	setLast(table, models.IndVR, 100, 20)
	setLast(table, models.IndRSI, 50, 90)
	setLast(table, models.IndMACD, 0.5, -0.1)

	first, err := GenerateSignals(table)
	require.NoError(t, err)
	second, err := GenerateSignals(table)
	require.NoError(t, err)

	assert.Equal(t, models.SignalList{SignalMACDDeath, SignalRSIOverbought, SignalVRLow}, first)
	assert.Equal(t, first, second)
}

func TestGenerateSignalsNaNNeverFires(t *testing.T) {
	table := neutralTable(10)
	setLast(table, models.IndMACD, math.NaN(), 0.3)
	setLast(table, models.IndRSI, 50, math.NaN())
	signals, err := GenerateSignals(table)
	require.NoError(t, err)
	assert.Equal(t, models.SignalList{models.NoSignal}, signals)
}

func TestGenerateSignalsMACDCrossOnComputedHistory(t *testing.T) {
	table := Compute(makeBars(120, 100, 0.3))
	setLast(table, models.IndMACD, -0.5, 0.3)

	signals, err := GenerateSignals(table)
	require.NoError(t, err)
	assert.Contains(t, signals, SignalMACDGolden)
	assert.NotContains(t, signals, SignalMACDDeath)
	assert.Equal(t, SignalMACDGolden, signals[0])
}
