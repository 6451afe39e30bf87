package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/seenimoa/stockinsight/pkg/models"
	"github.com/seenimoa/stockinsight/pkg/utils"
)

// ValueClass tags a displayed value for colouring.
type ValueClass string

const (
	ClassPositive ValueClass = "positive"
	ClassNegative ValueClass = "negative"
	ClassNeutral  ValueClass = "neutral"
)

// ClassOf classifies a number by sign. Undefined values are neutral.
func ClassOf(v float64) ValueClass {
	switch {
	case math.IsNaN(v) || v == 0:
		return ClassNeutral
	case v > 0:
		return ClassPositive
	default:
		return ClassNegative
	}
}

// ClassOfText classifies a displayed string. Only percentages carry a sign class;
// any other text is neutral.
func ClassOfText(s string) ValueClass {
	if !strings.HasSuffix(s, "%") {
		return ClassNeutral
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return ClassNeutral
	}
	return ClassOf(v)
}

// Field is one labelled value of a report table.
type Field struct {
	Label string
	Value string
	Class ValueClass
}

// Group is a named block of indicator fields.
type Group struct {
	Name   string
	Fields []Field
}

// Basic data labels.
const (
	LabelCode   = "股票代码"
	LabelClose  = "最新收盘价"
	LabelChange = "涨跌幅"
	LabelHigh   = "最高价"
	LabelLow    = "最低价"
	LabelVolume = "成交量"
)

type fieldSpec struct {
	label     string
	indicator string
}

type groupSpec struct {
	name   string
	fields []fieldSpec
}

// indicatorGroups fixes the order and labels of the 技术指标 table.
var indicatorGroups = []groupSpec{
	{"MA指标", []fieldSpec{
		{"MA5", models.IndMA5},
		{"MA10", models.IndMA10},
		{"MA20", models.IndMA20},
		{"MA60", models.IndMA60},
	}},
	{"趋势指标", []fieldSpec{
		{"MACD (指数平滑异同移动平均线)", models.IndMACD},
		{"DIF (差离值)", models.IndDIF},
		{"DEA (讯号线)", models.IndDEA},
		{"TRIX (三重指数平滑平均线)", models.IndTRIX},
		{"PDI (上升方向线)", models.IndPDI},
		{"MDI (下降方向线)", models.IndMDI},
		{"ADX (趋向指标)", models.IndADX},
	}},
	{"摆动指标", []fieldSpec{
		{"RSI (相对强弱指标)", models.IndRSI},
		{"KDJ-K (随机指标K值)", models.IndK},
		{"KDJ-D (随机指标D值)", models.IndD},
		{"KDJ-J (随机指标J值)", models.IndJ},
		{"BIAS (乖离率)", models.IndBIAS1},
		{"CCI (顺势指标)", models.IndCCI},
	}},
	{"成交量指标", []fieldSpec{
		{"VR (成交量比率)", models.IndVR},
		{"AR (人气指标)", models.IndAR},
		{"BR (意愿指标)", models.IndBR},
	}},
	{"动量指标", []fieldSpec{
		{"ROC (变动率)", models.IndROC},
		{"MTM (动量指标)", models.IndMTM},
		{"DPO (区间振荡)", models.IndDPO},
	}},
	{"布林带", []fieldSpec{
		{"BOLL上轨", models.IndBollUp},
		{"BOLL中轨", models.IndBollMid},
		{"BOLL下轨", models.IndBollLow},
	}},
}

// StockReport is the report block of one instrument.
type StockReport struct {
	Stock      models.Stock
	Date       time.Time
	Basic      []Field
	Indicators []Group
	Signals    models.SignalList
	Narrative  *models.NarrativeResult // nil when no narrative service is configured

	table *models.IndicatorTable
}

// Input carries everything computed for one instrument.
type Input struct {
	Stock     models.Stock
	Bars      []models.DailyBar
	Table     *models.IndicatorTable
	Signals   models.SignalList
	Narrative *models.NarrativeResult
}

// Build assembles the report block of one instrument. It fails with
// models.ErrDegenerateInput when the history has fewer than two rows, the table is not
// aligned with the bars, or the previous close is zero.
func Build(in Input) (*StockReport, error) {
	n := len(in.Bars)
	if n < 2 {
		return nil, fmt.Errorf("%w: %d rows", models.ErrDegenerateInput, n)
	}
	if in.Table.Len() != n {
		return nil, fmt.Errorf("%w: %d indicator rows for %d bars", models.ErrDegenerateInput, in.Table.Len(), n)
	}

	last, prev := in.Bars[n-1], in.Bars[n-2]
	change, ok := utils.PercentChange(last.Close, prev.Close)
	if !ok {
		return nil, fmt.Errorf("%w: zero previous close", models.ErrDegenerateInput)
	}
	changeText := utils.PctDecimal(change)

	sr := &StockReport{
		Stock: in.Stock,
		Date:  last.Date,
		Basic: []Field{
			{Label: LabelCode, Value: in.Stock.Code, Class: ClassNeutral},
			{Label: LabelClose, Value: utils.Price(last.Close), Class: ClassNeutral},
			{Label: LabelChange, Value: changeText, Class: ClassOfText(changeText)},
			{Label: LabelHigh, Value: utils.Price(last.High), Class: ClassNeutral},
			{Label: LabelLow, Value: utils.Price(last.Low), Class: ClassNeutral},
			{Label: LabelVolume, Value: utils.GroupInt(last.Volume), Class: ClassNeutral},
		},
		Indicators: latestIndicators(in.Table),
		Signals:    in.Signals,
		Narrative:  in.Narrative,
		table:      in.Table,
	}
	if len(sr.Signals) == 0 {
		sr.Signals = models.SignalList{models.NoSignal}
	}
	return sr, nil
}

func latestIndicators(t *models.IndicatorTable) []Group {
	groups := make([]Group, 0, len(indicatorGroups))
	for _, g := range indicatorGroups {
		fields := make([]Field, 0, len(g.fields))
		for _, f := range g.fields {
			v := t.Back(f.indicator, 1)
			fields = append(fields, Field{Label: f.label, Value: utils.Fixed2(v), Class: ClassOf(v)})
		}
		groups = append(groups, Group{Name: g.name, Fields: fields})
	}
	return groups
}

// Charts renders the indicator panels of the instrument.
func (sr *StockReport) Charts(cfg ChartConfig) []Chart {
	if sr.table == nil {
		return nil
	}
	return IndicatorCharts(sr.table, cfg)
}

// Field looks up a basic-data value by label.
func (sr *StockReport) Field(label string) (Field, bool) {
	for _, f := range sr.Basic {
		if f.Label == label {
			return f, true
		}
	}
	return Field{}, false
}
