package narrative

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/stockinsight/pkg/models"
	"github.com/seenimoa/stockinsight/pkg/utils"
)

// Look-back rows for the weekly and monthly trend deltas.
const (
	weekRows  = 5
	monthRows = 20
)

// Payload is the structured market snapshot sent to the narrative service.
// Date-keyed maps serialize in key order, which for YYYY-MM-DD keys is chronological.
type Payload struct {
	History    map[string]barView       `json:"历史数据"`
	Indicators map[string]indicatorView `json:"技术指标"`
	Trend      trendView                `json:"市场趋势"`
}

type barView struct {
	Open   string `json:"开盘价"`
	Close  string `json:"收盘价"`
	High   string `json:"最高价"`
	Low    string `json:"最低价"`
	Volume string `json:"成交量"`
}

type indicatorView struct {
	Trend      trendGroup      `json:"趋势指标"`
	Oscillator oscillatorGroup `json:"摆动指标"`
	Bollinger  bollingerGroup  `json:"布林带"`
	Direction  directionGroup  `json:"动向指标"`
	Volume     volumeGroup     `json:"成交量指标"`
	Momentum   momentumGroup   `json:"动量指标"`
	Other      otherGroup      `json:"其他指标"`
}

type trendGroup struct {
	MACD string `json:"MACD"`
	DIF  string `json:"DIF"`
	DEA  string `json:"DEA"`
	MA5  string `json:"MA5"`
	MA10 string `json:"MA10"`
	MA20 string `json:"MA20"`
	MA60 string `json:"MA60"`
	TRIX string `json:"TRIX"`
	TRMA string `json:"TRMA"`
}

type oscillatorGroup struct {
	K     string `json:"KDJ-K"`
	D     string `json:"KDJ-D"`
	J     string `json:"KDJ-J"`
	RSI   string `json:"RSI"`
	CCI   string `json:"CCI"`
	BIAS1 string `json:"BIAS1"`
	BIAS2 string `json:"BIAS2"`
	BIAS3 string `json:"BIAS3"`
}

type bollingerGroup struct {
	Upper  string `json:"上轨"`
	Middle string `json:"中轨"`
	Lower  string `json:"下轨"`
}

type directionGroup struct {
	PDI  string `json:"PDI"`
	MDI  string `json:"MDI"`
	ADX  string `json:"ADX"`
	ADXR string `json:"ADXR"`
}

type volumeGroup struct {
	VR string `json:"VR"`
	AR string `json:"AR"`
	BR string `json:"BR"`
}

type momentumGroup struct {
	ROC   string `json:"ROC"`
	MAROC string `json:"MAROC"`
	MTM   string `json:"MTM"`
	MTMMA string `json:"MTMMA"`
	DPO   string `json:"DPO"`
	MADPO string `json:"MADPO"`
}

type otherGroup struct {
	EMV      string `json:"EMV"`
	MAEMV    string `json:"MAEMV"`
	DIFDMA   string `json:"DIF_DMA"`
	DIFMADMA string `json:"DIFMA_DMA"`
}

type trendView struct {
	Daily     string `json:"日涨跌幅"`
	Weekly    string `json:"周涨跌幅"`
	Monthly   string `json:"月涨跌幅"`
	Latest    string `json:"最新收盘价"`
	High      string `json:"最高价"`
	Low       string `json:"最低价"`
	AvgVolume string `json:"平均成交量"`
}

// BuildPayload assembles the payload for the sampled rows of bars. table must be
// computed from the same bars. It fails with models.ErrDegenerateInput for fewer than
// two rows, a misaligned table or a zero base close in any trend delta.
func BuildPayload(bars []models.DailyBar, table *models.IndicatorTable) (*Payload, error) {
	if len(bars) < 2 {
		return nil, fmt.Errorf("%w: need 2 rows, have %d", models.ErrDegenerateInput, len(bars))
	}
	if table.Len() != len(bars) {
		return nil, fmt.Errorf("%w: %d bars but %d indicator rows", models.ErrDegenerateInput, len(bars), table.Len())
	}

	trend, err := marketTrend(bars)
	if err != nil {
		return nil, err
	}

	p := &Payload{
		History:    make(map[string]barView),
		Indicators: make(map[string]indicatorView),
		Trend:      trend,
	}
	for _, i := range SampleIndices(len(bars)) {
		b := bars[i]
		key := b.DateKey()
		p.History[key] = barView{
			Open:   utils.Price(b.Open),
			Close:  utils.Price(b.Close),
			High:   utils.Price(b.High),
			Low:    utils.Price(b.Low),
			Volume: utils.GroupInt(b.Volume),
		}
		p.Indicators[key] = indicatorRow(table, i)
	}
	return p, nil
}

func indicatorRow(t *models.IndicatorTable, i int) indicatorView {
	f := func(name string) string { return utils.Fixed2(t.At(name, i)) }
	return indicatorView{
		Trend: trendGroup{
			MACD: f(models.IndMACD),
			DIF:  f(models.IndDIF),
			DEA:  f(models.IndDEA),
			MA5:  f(models.IndMA5),
			MA10: f(models.IndMA10),
			MA20: f(models.IndMA20),
			MA60: f(models.IndMA60),
			TRIX: f(models.IndTRIX),
			TRMA: f(models.IndTRMA),
		},
		Oscillator: oscillatorGroup{
			K:     f(models.IndK),
			D:     f(models.IndD),
			J:     f(models.IndJ),
			RSI:   f(models.IndRSI),
			CCI:   f(models.IndCCI),
			BIAS1: f(models.IndBIAS1),
			BIAS2: f(models.IndBIAS2),
			BIAS3: f(models.IndBIAS3),
		},
		Bollinger: bollingerGroup{
			Upper:  f(models.IndBollUp),
			Middle: f(models.IndBollMid),
			Lower:  f(models.IndBollLow),
		},
		Direction: directionGroup{
			PDI:  f(models.IndPDI),
			MDI:  f(models.IndMDI),
			ADX:  f(models.IndADX),
			ADXR: f(models.IndADXR),
		},
		Volume: volumeGroup{
			VR: f(models.IndVR),
			AR: f(models.IndAR),
			BR: f(models.IndBR),
		},
		Momentum: momentumGroup{
			ROC:   f(models.IndROC),
			MAROC: f(models.IndMAROC),
			MTM:   f(models.IndMTM),
			MTMMA: f(models.IndMTMMA),
			DPO:   f(models.IndDPO),
			MADPO: f(models.IndMADPO),
		},
		Other: otherGroup{
			EMV:      f(models.IndEMV),
			MAEMV:    f(models.IndMAEMV),
			DIFDMA:   f(models.IndDIFDMA),
			DIFMADMA: f(models.IndDIFMADMA),
		},
	}
}

// marketTrend computes the full-window deltas. When the history is too short for the
// weekly or monthly look-back, the previous close is used as the base instead.
func marketTrend(bars []models.DailyBar) (trendView, error) {
	n := len(bars)
	latest := bars[n-1].Close
	prev := bars[n-2].Close
	week, month := prev, prev
	if n > weekRows {
		week = bars[n-1-weekRows].Close
	}
	if n > monthRows {
		month = bars[n-1-monthRows].Close
	}

	var deltas [3]string
	for i, base := range []decimal.Decimal{prev, week, month} {
		pct, ok := utils.PercentChange(latest, base)
		if !ok {
			return trendView{}, fmt.Errorf("%w: zero base close", models.ErrDegenerateInput)
		}
		deltas[i] = utils.PctDecimal(pct)
	}

	high, low := bars[0].High, bars[0].Low
	var volume int64
	for _, b := range bars {
		high = decimal.Max(high, b.High)
		low = decimal.Min(low, b.Low)
		volume += b.Volume
	}

	return trendView{
		Daily:     deltas[0],
		Weekly:    deltas[1],
		Monthly:   deltas[2],
		Latest:    utils.Price(latest),
		High:      utils.Price(high),
		Low:       utils.Price(low),
		AvgVolume: utils.GroupInt(volume / int64(n)),
	}, nil
}

// Encode renders the payload as indented JSON without HTML escaping.
func (p *Payload) Encode() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return "", fmt.Errorf("encoding payload: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// Build is BuildPayload followed by Encode.
func Build(bars []models.DailyBar, table *models.IndicatorTable) (string, error) {
	p, err := BuildPayload(bars, table)
	if err != nil {
		return "", err
	}
	return p.Encode()
}
