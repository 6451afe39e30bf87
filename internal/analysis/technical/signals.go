package technical

import (
	"fmt"

	"github.com/seenimoa/stockinsight/pkg/models"
)

// Advisory strings emitted by the signal rules.
const (
	SignalMACDGolden    = "MACD金叉形成，可能上涨"
	SignalMACDDeath     = "MACD死叉形成，可能下跌"
	SignalKDJOversold   = "KDJ超卖，可能反弹"
	SignalKDJOverbought = "KDJ超买，注意回调"
	SignalRSIOversold   = "RSI超卖，可能反弹"
	SignalRSIOverbought = "RSI超买，注意回调"
	SignalBollBreakUp   = "股价突破布林上轨，超买状态"
	SignalBollBreakLow  = "股价跌破布林下轨，超卖状态"
	SignalDMIGolden     = "DMI金叉，上升趋势形成"
	SignalDMIDeath      = "DMI死叉，下降趋势形成"
	SignalVRHigh        = "VR大于160，市场活跃度高"
	SignalVRLow         = "VR小于40，市场活跃度低"
	SignalROCUp         = "ROC上穿均线，上升动能增强"
	SignalROCDown       = "ROC下穿均线，上升动能减弱"
)

// window exposes the two most recent rows of an indicator table.
type window struct {
	t *models.IndicatorTable
}

func (w window) last(name string) float64 { return w.t.Back(name, 1) }
func (w window) prev(name string) float64 { return w.t.Back(name, 2) }

// crossedAbove reports a moving above b between the previous and the latest row.
func (w window) crossedAbove(a, b string) bool {
	return w.last(a) > w.last(b) && w.prev(a) <= w.prev(b)
}

// crossedBelow reports a moving below b between the previous and the latest row.
func (w window) crossedBelow(a, b string) bool {
	return w.last(a) < w.last(b) && w.prev(a) >= w.prev(b)
}

// rule is one mutually exclusive pair: at most one of its signals fires.
type rule func(w window) (string, bool)

func pair(bull, bear string, isBull, isBear func(w window) bool) rule {
	return func(w window) (string, bool) {
		switch {
		case isBull(w):
			return bull, true
		case isBear(w):
			return bear, true
		}
		return "", false
	}
}

// rules are evaluated in this order; it is also the order of the resulting list.
var rules = []rule{
	pair(SignalMACDGolden, SignalMACDDeath,
		func(w window) bool { return w.last(models.IndMACD) > 0 && w.prev(models.IndMACD) <= 0 },
		func(w window) bool { return w.last(models.IndMACD) < 0 && w.prev(models.IndMACD) >= 0 },
	),
	pair(SignalKDJOversold, SignalKDJOverbought,
		func(w window) bool { return w.last(models.IndK) < 20 && w.last(models.IndD) < 20 },
		func(w window) bool { return w.last(models.IndK) > 80 && w.last(models.IndD) > 80 },
	),
	pair(SignalRSIOversold, SignalRSIOverbought,
		func(w window) bool { return w.last(models.IndRSI) < 20 },
		func(w window) bool { return w.last(models.IndRSI) > 80 },
	),
	pair(SignalBollBreakUp, SignalBollBreakLow,
		func(w window) bool { return w.last(models.IndClose) > w.last(models.IndBollUp) },
		func(w window) bool { return w.last(models.IndClose) < w.last(models.IndBollLow) },
	),
	pair(SignalDMIGolden, SignalDMIDeath,
		func(w window) bool { return w.crossedAbove(models.IndPDI, models.IndMDI) },
		func(w window) bool { return w.crossedBelow(models.IndPDI, models.IndMDI) },
	),
	pair(SignalVRHigh, SignalVRLow,
		func(w window) bool { return w.last(models.IndVR) > 160 },
		func(w window) bool { return w.last(models.IndVR) < 40 },
	),
	pair(SignalROCUp, SignalROCDown,
		func(w window) bool { return w.crossedAbove(models.IndROC, models.IndMAROC) },
		func(w window) bool { return w.crossedBelow(models.IndROC, models.IndMAROC) },
	),
}

// GenerateSignals evaluates the rule battery over the two most recent rows of t.
// The result is never empty: when no rule fires it holds only models.NoSignal.
// Undefined (NaN) values never satisfy a condition.
func GenerateSignals(t *models.IndicatorTable) (models.SignalList, error) {
	if t.Len() < 2 {
		return nil, fmt.Errorf("%w: signals need 2 rows, have %d", models.ErrDegenerateInput, t.Len())
	}

	w := window{t: t}
	var signals models.SignalList
	for _, r := range rules {
		if s, ok := r(w); ok {
			signals = append(signals, s)
		}
	}
	if len(signals) == 0 {
		return models.SignalList{models.NoSignal}, nil
	}
	return signals, nil
}
