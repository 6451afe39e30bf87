package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/seenimoa/stockinsight/pkg/models"
	"github.com/seenimoa/stockinsight/pkg/utils"
)

// ChartConfig holds rendering parameters for SVG charts.
type ChartConfig struct {
	Width        int    // SVG width in pixels (default: 800)
	Height       int    // SVG height in pixels (default: 260)
	MarginTop    int    // top margin
	MarginRight  int    // right margin
	MarginBottom int    // bottom margin
	MarginLeft   int    // left margin
	BgColor      string // background color
	GridColor    string // grid line color
	TextColor    string // axis label color
	FontSize     int    // axis label font size
	Title        string // chart title
}

// DefaultChartConfig returns the panel size used in HTML reports.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:        800,
		Height:       260,
		MarginTop:    36,
		MarginRight:  30,
		MarginBottom: 36,
		MarginLeft:   60,
		BgColor:      "#ffffff",
		GridColor:    "#e8e8e8",
		TextColor:    "#333333",
		FontSize:     11,
	}
}

// plotArea returns the usable drawing area dimensions.
func (c ChartConfig) plotArea() (x, y, w, h int) {
	return c.MarginLeft, c.MarginTop,
		c.Width - c.MarginLeft - c.MarginRight,
		c.Height - c.MarginTop - c.MarginBottom
}

// LineChartSeries represents a named data series for line charts.
type LineChartSeries struct {
	Name   string
	Values []float64
	Color  string // hex color (optional, auto-assigned if empty)
	Dashed bool
}

// Chart is one rendered indicator panel.
type Chart struct {
	Title string `json:"title"`
	SVG   string `json:"-"`
}

type seriesSpec struct {
	indicator string
	label     string
	color     string
}

type panelSpec struct {
	title  string
	series []seriesSpec
	levels []float64
}

// panels lists the indicator panels of the HTML report, top to bottom.
var panels = []panelSpec{
	{title: "股价走势", series: []seriesSpec{
		{models.IndClose, "收盘价", "#1f77b4"},
		{models.IndMA5, "MA5", "#ff7f0e"},
		{models.IndMA10, "MA10", "#2ca02c"},
		{models.IndMA20, "MA20", "#d62728"},
		{models.IndBollUp, "BOLL上轨", "#9467bd"},
		{models.IndBollMid, "BOLL中轨", "#8c564b"},
		{models.IndBollLow, "BOLL下轨", "#9467bd"},
	}},
	{title: "MACD", series: []seriesSpec{
		{models.IndDIF, "DIF", "#1f77b4"},
		{models.IndDEA, "DEA", "#ff7f0e"},
		{models.IndMACD, "MACD", "#7f7f7f"},
	}, levels: []float64{0}},
	{title: "KDJ", series: []seriesSpec{
		{models.IndK, "K", "#1f77b4"},
		{models.IndD, "D", "#ff7f0e"},
		{models.IndJ, "J", "#2ca02c"},
	}},
	{title: "RSI", series: []seriesSpec{
		{models.IndRSI, "RSI", "#9467bd"},
	}, levels: []float64{80, 20}},
	{title: "BIAS", series: []seriesSpec{
		{models.IndBIAS1, "BIAS1", "#1f77b4"},
		{models.IndBIAS2, "BIAS2", "#ff7f0e"},
		{models.IndBIAS3, "BIAS3", "#2ca02c"},
	}},
	{title: "DMI", series: []seriesSpec{
		{models.IndPDI, "PDI", "#1f77b4"},
		{models.IndMDI, "MDI", "#ff7f0e"},
		{models.IndADX, "ADX", "#2ca02c"},
		{models.IndADXR, "ADXR", "#d62728"},
	}},
	{title: "TRIX", series: []seriesSpec{
		{models.IndTRIX, "TRIX", "#1f77b4"},
		{models.IndTRMA, "TRMA", "#ff7f0e"},
	}},
	{title: "ROC", series: []seriesSpec{
		{models.IndROC, "ROC", "#1f77b4"},
		{models.IndMAROC, "MAROC", "#ff7f0e"},
	}},
	{title: "VR/AR/BR", series: []seriesSpec{
		{models.IndVR, "VR", "#1f77b4"},
		{models.IndAR, "AR", "#ff7f0e"},
		{models.IndBR, "BR", "#2ca02c"},
	}},
	{title: "MTM", series: []seriesSpec{
		{models.IndMTM, "MTM", "#1f77b4"},
		{models.IndMTMMA, "MTMMA", "#ff7f0e"},
	}},
	{title: "DMA", series: []seriesSpec{
		{models.IndDIFDMA, "DIF", "#1f77b4"},
		{models.IndDIFMADMA, "DIFMA", "#ff7f0e"},
	}},
}

// IndicatorCharts renders one SVG panel per indicator family of t.
func IndicatorCharts(t *models.IndicatorTable, cfg ChartConfig) []Chart {
	if t.Len() == 0 {
		return nil
	}
	labels := make([]string, t.Len())
	for i, d := range t.Dates {
		labels[i] = d.In(utils.CST).Format("01-02")
	}

	charts := make([]Chart, 0, len(panels))
	for _, p := range panels {
		var series []LineChartSeries
		for _, s := range p.series {
			values := t.Series(s.indicator)
			if values == nil {
				continue
			}
			series = append(series, LineChartSeries{Name: s.label, Values: values, Color: s.color})
		}
		for _, level := range p.levels {
			series = append(series, LineChartSeries{
				Name:   utils.Fixed2(level),
				Values: constant(level, t.Len()),
				Color:  "#999999",
				Dashed: true,
			})
		}
		c := cfg
		c.Title = p.title
		charts = append(charts, Chart{Title: p.title, SVG: LineChart(series, labels, c)})
	}
	return charts
}

func constant(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// LineChart generates an SVG line chart with one or more series.
// Labels are optional X-axis labels corresponding to data points.
func LineChart(series []LineChartSeries, labels []string, cfg ChartConfig) string {
	if len(series) == 0 {
		return emptySVG(cfg, "无数据")
	}

	if cfg.Width == 0 {
		title := cfg.Title
		cfg = DefaultChartConfig()
		cfg.Title = title
	}

	px, py, pw, ph := cfg.plotArea()

	minVal, maxVal := math.MaxFloat64, -math.MaxFloat64
	maxLen := 0
	for _, s := range series {
		if len(s.Values) > maxLen {
			maxLen = len(s.Values)
		}
		for _, v := range s.Values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			minVal = math.Min(minVal, v)
			maxVal = math.Max(maxVal, v)
		}
	}
	if maxLen < 2 || minVal > maxVal {
		return emptySVG(cfg, "数据点不足")
	}

	vRange := maxVal - minVal
	if vRange < 0.001 {
		vRange = 1
	}
	minVal -= vRange * 0.05
	maxVal += vRange * 0.05
	vRange = maxVal - minVal

	var sb strings.Builder
	sb.WriteString(svgHeader(cfg))
	fmt.Fprintf(&sb, `<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`,
		cfg.Width, cfg.Height, cfg.BgColor)
	if cfg.Title != "" {
		fmt.Fprintf(&sb, `<text x="%d" y="20" font-size="14" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
			cfg.Width/2, cfg.TextColor, escapeXML(cfg.Title))
	}

	gridLines := 4
	for i := 0; i <= gridLines; i++ {
		val := minVal + vRange*float64(i)/float64(gridLines)
		y := py + ph - int(float64(ph)*float64(i)/float64(gridLines))
		fmt.Fprintf(&sb, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-dasharray="3,3"/>`,
			px, y, px+pw, y, cfg.GridColor)
		fmt.Fprintf(&sb, `<text x="%d" y="%d" font-size="%d" fill="%s" text-anchor="end">%.2f</text>`,
			px-5, y+4, cfg.FontSize, cfg.TextColor, val)
	}

	defaultColors := []string{"#2196f3", "#ff9800", "#4caf50", "#e91e63", "#9c27b0", "#00bcd4"}
	legend := 0
	for si, s := range series {
		color := s.Color
		if color == "" {
			color = defaultColors[si%len(defaultColors)]
		}

		var pathParts []string
		for i, v := range s.Values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			cx := float64(px) + float64(i)*float64(pw)/float64(maxLen-1)
			cy := float64(py+ph) - (v-minVal)/vRange*float64(ph)
			cmd := "L"
			if len(pathParts) == 0 {
				cmd = "M"
			}
			pathParts = append(pathParts, fmt.Sprintf("%s%.1f,%.1f", cmd, cx, cy))
		}
		if len(pathParts) > 1 {
			dash := ""
			width := "1.5"
			if s.Dashed {
				dash = ` stroke-dasharray="6,4"`
				width = "1"
			}
			fmt.Fprintf(&sb, `<path d="%s" fill="none" stroke="%s" stroke-width="%s"%s/>`,
				strings.Join(pathParts, " "), color, width, dash)
		}
		if s.Dashed {
			continue
		}

		lx := px + 10 + legend*80
		legend++
		fmt.Fprintf(&sb, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="2"/>`,
			lx, py-6, lx+18, py-6, color)
		fmt.Fprintf(&sb, `<text x="%d" y="%d" font-size="10" fill="%s">%s</text>`,
			lx+22, py-2, cfg.TextColor, escapeXML(s.Name))
	}

	if len(labels) > 0 {
		interval := maxLen / 6
		if interval < 1 {
			interval = 1
		}
		for i := 0; i < len(labels) && i < maxLen; i += interval {
			cx := float64(px) + float64(i)*float64(pw)/float64(maxLen-1)
			fmt.Fprintf(&sb, `<text x="%.1f" y="%d" font-size="%d" fill="%s" text-anchor="middle">%s</text>`,
				cx, py+ph+18, cfg.FontSize-1, cfg.TextColor, escapeXML(labels[i]))
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func svgHeader(cfg ChartConfig) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height)
}

func emptySVG(cfg ChartConfig, msg string) string {
	if cfg.Width == 0 {
		cfg.Width = 400
	}
	if cfg.Height == 0 {
		cfg.Height = 200
	}
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><rect width="%d" height="%d" fill="#f5f5f5"/><text x="%d" y="%d" text-anchor="middle" fill="#999" font-size="14">%s</text></svg>`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height, cfg.Width/2, cfg.Height/2, escapeXML(msg))
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}
