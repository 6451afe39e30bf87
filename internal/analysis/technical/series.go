package technical

import "math"

// Series primitives. Every function returns a new slice with the same length as its
// input. A value is NaN where the look-back window is not yet filled or contains NaN.

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// rolling applies fn to every complete window of length n that contains no NaN.
func rolling(data []float64, n int, fn func(window []float64) float64) []float64 {
	out := nanSeries(len(data))
	if n <= 0 {
		return out
	}
	for i := n - 1; i < len(data); i++ {
		window := data[i-n+1 : i+1]
		if hasNaN(window) {
			continue
		}
		out[i] = fn(window)
	}
	return out
}

func hasNaN(data []float64) bool {
	for _, v := range data {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

func mean(window []float64) float64 {
	return sum(window) / float64(len(window))
}

func sum(window []float64) float64 {
	s := 0.0
	for _, v := range window {
		s += v
	}
	return s
}

// MA is the simple moving average over n rows.
func MA(data []float64, n int) []float64 {
	return rolling(data, n, mean)
}

// Sum is the rolling sum over n rows.
func Sum(data []float64, n int) []float64 {
	return rolling(data, n, sum)
}

// Std is the rolling population standard deviation over n rows.
func Std(data []float64, n int) []float64 {
	return rolling(data, n, func(w []float64) float64 {
		m := mean(w)
		ss := 0.0
		for _, v := range w {
			ss += (v - m) * (v - m)
		}
		return math.Sqrt(ss / float64(len(w)))
	})
}

// AveDev is the rolling mean absolute deviation over n rows.
func AveDev(data []float64, n int) []float64 {
	return rolling(data, n, func(w []float64) float64 {
		m := mean(w)
		d := 0.0
		for _, v := range w {
			d += math.Abs(v - m)
		}
		return d / float64(len(w))
	})
}

// HHV is the rolling highest value over n rows.
func HHV(data []float64, n int) []float64 {
	return rolling(data, n, func(w []float64) float64 {
		m := w[0]
		for _, v := range w[1:] {
			m = math.Max(m, v)
		}
		return m
	})
}

// LLV is the rolling lowest value over n rows.
func LLV(data []float64, n int) []float64 {
	return rolling(data, n, func(w []float64) float64 {
		m := w[0]
		for _, v := range w[1:] {
			m = math.Min(m, v)
		}
		return m
	})
}

// Ref shifts data n rows into the future: Ref(x, 1)[i] == x[i-1].
func Ref(data []float64, n int) []float64 {
	out := nanSeries(len(data))
	for i := n; i < len(data); i++ {
		out[i] = data[i-n]
	}
	return out
}

// ewm is an exponentially weighted mean without bias adjustment. Leading NaNs stay
// NaN; the first defined value seeds the average; later NaNs repeat the last value
// and keep decaying the previous weight.
func ewm(data []float64, alpha float64) []float64 {
	out := make([]float64, len(data))
	avg := math.NaN()
	seeded := false
	oldWeight := 1.0
	for i, v := range data {
		if seeded {
			oldWeight *= 1 - alpha
		}
		if !math.IsNaN(v) {
			if !seeded {
				avg = v
				seeded = true
			} else {
				avg = (oldWeight*avg + alpha*v) / (oldWeight + alpha)
			}
			oldWeight = 1
		}
		out[i] = avg
	}
	return out
}

// EMA is the exponential moving average with span n (alpha = 2/(n+1)).
func EMA(data []float64, n int) []float64 {
	return ewm(data, 2/float64(n+1))
}

// SMA is the weighted moving average used by Chinese charting software:
// Y = (M*X + (N-M)*Y') / N, i.e. alpha = m/n.
func SMA(data []float64, n, m int) []float64 {
	return ewm(data, float64(m)/float64(n))
}

// zip combines two series element-wise. NaN operands propagate through fn.
func zip(a, b []float64, fn func(x, y float64) float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = fn(a[i], b[i])
	}
	return out
}

// apply maps fn over data.
func apply(data []float64, fn func(x float64) float64) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = fn(v)
	}
	return out
}

func sub(a, b []float64) []float64 {
	return zip(a, b, func(x, y float64) float64 { return x - y })
}

// ratio returns a/b*scale element-wise.
func ratio(a, b []float64, scale float64) []float64 {
	return zip(a, b, func(x, y float64) float64 { return x / y * scale })
}

// nanMax is the element-wise maximum that propagates NaN.
func nanMax(x, y float64) float64 {
	if math.IsNaN(x) || math.IsNaN(y) {
		return math.NaN()
	}
	return math.Max(x, y)
}

// round3 rounds half to even at three decimals.
func round3(data []float64) []float64 {
	return apply(data, func(x float64) float64 {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return x
		}
		return math.RoundToEven(x*1000) / 1000
	})
}
