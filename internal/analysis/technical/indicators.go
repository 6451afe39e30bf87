// Package technical implements the technical indicators used by the analysis
// pipeline and the signal rules evaluated over them. Series are aligned with the input
// bars; values inside an unfilled look-back window are NaN.
package technical

import (
	"math"
)

// MACDResult holds the MACD family: DIF, its signal line DEA and the histogram.
type MACDResult struct {
	DIF  []float64
	DEA  []float64
	MACD []float64
}

// MACD calculates the Moving Average Convergence Divergence.
// Default parameters: short=12, long=26, signal=9. The histogram is (DIF-DEA)*2.
func MACD(closes []float64, short, long, signal int) MACDResult {
	dif := sub(EMA(closes, short), EMA(closes, long))
	dea := EMA(dif, signal)
	hist := zip(dif, dea, func(d, e float64) float64 { return (d - e) * 2 })
	return MACDResult{DIF: round3(dif), DEA: round3(dea), MACD: round3(hist)}
}

// KDJResult holds the stochastic K, D and J lines.
type KDJResult struct {
	K []float64
	D []float64
	J []float64
}

// KDJ calculates the stochastic oscillator. Default parameters: n=9, m1=3, m2=3.
func KDJ(closes, highs, lows []float64, n, m1, m2 int) KDJResult {
	llv := LLV(lows, n)
	hhv := HHV(highs, n)
	rsv := make([]float64, len(closes))
	for i := range closes {
		rsv[i] = (closes[i] - llv[i]) / (hhv[i] - llv[i]) * 100
	}
	k := EMA(rsv, m1*2-1)
	d := EMA(k, m2*2-1)
	j := zip(k, d, func(kv, dv float64) float64 { return kv*3 - dv*2 })
	return KDJResult{K: k, D: d, J: j}
}

// RSI calculates the Relative Strength Index for the given period. Returns values 0–100,
// NaN for the first row and for flat stretches where no movement occurred.
func RSI(closes []float64, period int) []float64 {
	diff := sub(closes, Ref(closes, 1))
	gains := apply(diff, func(x float64) float64 { return nanMax(x, 0) })
	moves := apply(diff, math.Abs)
	return round3(ratio(SMA(gains, period, 1), SMA(moves, period, 1), 100))
}

// BollingerResult holds the Bollinger bands.
type BollingerResult struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// Bollinger calculates Bollinger bands with a population standard deviation.
// Default parameters: period=20, width=2.
func Bollinger(closes []float64, period int, width float64) BollingerResult {
	mid := MA(closes, period)
	std := Std(closes, period)
	upper := zip(mid, std, func(m, s float64) float64 { return m + s*width })
	lower := zip(mid, std, func(m, s float64) float64 { return m - s*width })
	return BollingerResult{Upper: round3(upper), Middle: round3(mid), Lower: round3(lower)}
}

// Bias calculates the percentage deviation of closes from their n-row average.
func Bias(closes []float64, n int) []float64 {
	ma := MA(closes, n)
	return round3(ratio(sub(closes, ma), ma, 100))
}

// CCI calculates the Commodity Channel Index. Default period is 14.
func CCI(closes, highs, lows []float64, period int) []float64 {
	tp := make([]float64, len(closes))
	for i := range closes {
		tp[i] = (highs[i] + lows[i] + closes[i]) / 3
	}
	dev := apply(AveDev(tp, period), func(x float64) float64 { return 0.015 * x })
	return ratio(sub(tp, MA(tp, period)), dev, 1)
}

// PairResult is an indicator line together with its moving average.
type PairResult struct {
	Line []float64
	MA   []float64
}

// EMV calculates Ease of Movement. Default parameters: n=14, m=9.
func EMV(highs, lows, volumes []float64, n, m int) PairResult {
	size := len(highs)
	hl := make([]float64, size)
	rng := make([]float64, size)
	for i := range highs {
		hl[i] = highs[i] + lows[i]
		rng[i] = highs[i] - lows[i]
	}
	volume := ratio(MA(volumes, n), volumes, 1)
	prevHL := Ref(hl, 1)
	maRng := MA(rng, n)
	raw := make([]float64, size)
	for i := range raw {
		mid := 100 * (hl[i] - prevHL[i]) / hl[i]
		raw[i] = mid * volume[i] * rng[i] / maRng[i]
	}
	line := MA(raw, n)
	return PairResult{Line: line, MA: MA(line, m)}
}

// DPO calculates the Detrended Price Oscillator. Default parameters: 20, 10, 6.
func DPO(closes []float64, m1, m2, m3 int) PairResult {
	line := sub(closes, Ref(MA(closes, m1), m2))
	return PairResult{Line: line, MA: MA(line, m3)}
}

// TRIX calculates the triple exponential average rate of change. Default: 12, 20.
func TRIX(closes []float64, m1, m2 int) PairResult {
	tr := EMA(EMA(EMA(closes, m1), m1), m1)
	prev := Ref(tr, 1)
	line := ratio(sub(tr, prev), prev, 100)
	return PairResult{Line: line, MA: MA(line, m2)}
}

// DMIResult holds the directional movement lines.
type DMIResult struct {
	PDI  []float64
	MDI  []float64
	ADX  []float64
	ADXR []float64
}

// DMI calculates the Directional Movement Index. Default parameters: m1=14, m2=6.
func DMI(closes, highs, lows []float64, m1, m2 int) DMIResult {
	size := len(closes)
	prevClose := Ref(closes, 1)
	prevHigh := Ref(highs, 1)
	prevLow := Ref(lows, 1)

	trueRange := make([]float64, size)
	plusDM := make([]float64, size)
	minusDM := make([]float64, size)
	for i := 0; i < size; i++ {
		trueRange[i] = nanMax(nanMax(highs[i]-lows[i], math.Abs(highs[i]-prevClose[i])), math.Abs(lows[i]-prevClose[i]))
		hd := highs[i] - prevHigh[i]
		ld := prevLow[i] - lows[i]
		// NaN comparisons are false, so the first row contributes zero movement.
		if hd > 0 && hd > ld {
			plusDM[i] = hd
		}
		if ld > 0 && ld > hd {
			minusDM[i] = ld
		}
	}

	tr := Sum(trueRange, m1)
	pdi := ratio(Sum(plusDM, m1), tr, 100)
	mdi := ratio(Sum(minusDM, m1), tr, 100)
	dx := zip(pdi, mdi, func(p, m float64) float64 { return math.Abs(m-p) / (p + m) * 100 })
	adx := MA(dx, m2)
	adxr := zip(adx, Ref(adx, m2), func(a, b float64) float64 { return (a + b) / 2 })
	return DMIResult{PDI: pdi, MDI: mdi, ADX: adx, ADXR: adxr}
}

// VR calculates the Volume Ratio: up-day volume over down-day volume. Default period 26.
func VR(closes, volumes []float64, period int) []float64 {
	prev := Ref(closes, 1)
	up := make([]float64, len(closes))
	down := make([]float64, len(closes))
	for i := range closes {
		if closes[i] > prev[i] {
			up[i] = volumes[i]
		}
		if closes[i] <= prev[i] {
			down[i] = volumes[i]
		}
	}
	return ratio(Sum(up, period), Sum(down, period), 100)
}

// BRARResult holds the popularity (AR) and willingness (BR) indicators.
type BRARResult struct {
	AR []float64
	BR []float64
}

// BRAR calculates the AR and BR sentiment indicators. Default period 26.
func BRAR(opens, closes, highs, lows []float64, period int) BRARResult {
	size := len(closes)
	prevClose := Ref(closes, 1)
	ho := make([]float64, size)
	ol := make([]float64, size)
	hc := make([]float64, size)
	cl := make([]float64, size)
	for i := 0; i < size; i++ {
		ho[i] = highs[i] - opens[i]
		ol[i] = opens[i] - lows[i]
		hc[i] = nanMax(0, highs[i]-prevClose[i])
		cl[i] = nanMax(0, prevClose[i]-lows[i])
	}
	return BRARResult{
		AR: ratio(Sum(ho, period), Sum(ol, period), 100),
		BR: ratio(Sum(hc, period), Sum(cl, period), 100),
	}
}

// ROC calculates the Rate of Change and its average. Default parameters: 12, 6.
func ROC(closes []float64, n, m int) PairResult {
	prev := Ref(closes, n)
	line := ratio(sub(closes, prev), prev, 100)
	return PairResult{Line: line, MA: MA(line, m)}
}

// MTM calculates Momentum and its average. Default parameters: 12, 6.
func MTM(closes []float64, n, m int) PairResult {
	line := sub(closes, Ref(closes, n))
	return PairResult{Line: line, MA: MA(line, m)}
}

// DMA calculates the Different of Moving Average. Default parameters: 10, 50, 10.
func DMA(closes []float64, n1, n2, m int) PairResult {
	line := sub(MA(closes, n1), MA(closes, n2))
	return PairResult{Line: line, MA: MA(line, m)}
}
