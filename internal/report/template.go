package report

import (
	"fmt"
	"html/template"
	"io"

	"github.com/seenimoa/stockinsight/pkg/utils"
)

// pageTemplate is the standalone HTML report. Narrative sections and chart SVGs are
// trusted markup; everything else is escaped by html/template.
const pageTemplate = `<!DOCTYPE html>
<html lang="zh-CN">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  :root {
    --bg: #ffffff;
    --text: #1a1a2e;
    --muted: #6b7280;
    --border: #e5e7eb;
    --accent: #2563eb;
    --up: #dc2626;
    --down: #16a34a;
    --section-bg: #f8fafc;
  }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'PingFang SC', 'Microsoft YaHei', sans-serif;
    color: var(--text);
    background: var(--bg);
    line-height: 1.6;
    max-width: 960px;
    margin: 0 auto;
    padding: 20px;
  }
  h1 { font-size: 1.6rem; color: var(--accent); }
  h2 { font-size: 1.2rem; margin: 24px 0 12px; padding-bottom: 6px; border-bottom: 2px solid var(--accent); }
  h3 { font-size: 1rem; margin: 12px 0 8px; }
  .header { border-bottom: 3px solid var(--accent); padding-bottom: 12px; margin-bottom: 16px; }
  .muted { color: var(--muted); font-size: 0.85rem; }
  .stock-container { margin-bottom: 48px; }
  .data-grid { display: grid; grid-template-columns: 1fr 1fr; gap: 16px; }
  .indicator-section { background: var(--section-bg); border-radius: 8px; padding: 12px; margin-bottom: 12px; }
  .data-table { width: 100%; border-collapse: collapse; font-size: 0.9rem; }
  .data-table th, .data-table td { padding: 4px 8px; border-bottom: 1px solid var(--border); text-align: left; }
  .data-table td:last-child { text-align: right; font-variant-numeric: tabular-nums; }
  .positive { color: var(--up); }
  .negative { color: var(--down); }
  .signal-list { padding-left: 20px; }
  .chart-container svg { width: 100%; height: auto; margin-bottom: 8px; }
  .analysis-content .section-title { font-weight: 600; margin-top: 8px; }
  .analysis-content .item-title { color: var(--muted); }
  .analysis-content .item-content { margin-left: 12px; }
  .analysis-failed { color: var(--up); font-weight: 600; }
  .disclaimer { margin-top: 32px; font-size: 0.8rem; color: var(--muted); border-top: 1px solid var(--border); padding-top: 12px; }
</style>
</head>
<body>
<div class="header">
  <h1>{{.Title}}</h1>
  <p class="muted">生成时间：{{.GeneratedAt}}</p>
</div>
{{range .Stocks}}
<div class="stock-container">
  <h2>{{.Name}} ({{.Code}}) 分析报告</h2>
  <p class="muted">数据日期：{{.Date}}</p>

  <div class="section-divider"><h2>基础技术分析</h2></div>
  <div class="data-grid">
    <div class="indicator-section">
      <h3>基础数据</h3>
      <table class="data-table">
        <tr><th>指标</th><th>数值</th></tr>
        {{range .Basic}}<tr><td>{{.Label}}</td><td class="{{.Class}}">{{.Value}}</td></tr>
        {{end}}
      </table>
    </div>
    <div class="indicator-section">
      <h3>交易信号</h3>
      <ul class="signal-list">
        {{range .Signals}}<li>{{.}}</li>
        {{end}}
      </ul>
    </div>
  </div>

  <div class="section-divider"><h2>技术指标详情</h2></div>
  {{range .Groups}}
  <div class="indicator-section">
    <h3>{{.Name}}</h3>
    <table class="data-table">
      <tr><th>指标</th><th>数值</th></tr>
      {{range .Fields}}<tr><td>{{.Label}}</td><td class="{{.Class}}">{{.Value}}</td></tr>
      {{end}}
    </table>
  </div>
  {{end}}

  {{if .Charts}}
  <div class="section-divider"><h2>技术指标图表</h2></div>
  <div class="chart-container">
    {{range .Charts}}<div class="chart" title="{{.Title}}">{{.SVG}}</div>
    {{end}}
  </div>
  {{end}}

  {{if .HasNarrative}}
  <div class="section-divider"><h2>人工智能分析报告</h2></div>
  {{if .Placeholder}}<p class="analysis-failed">{{.Placeholder}}</p>{{end}}
  {{range .Sections}}
  <div class="indicator-section">
    <h3>{{.Name}}</h3>
    <div class="analysis-content">{{.Body}}</div>
  </div>
  {{end}}
  {{end}}
</div>
{{end}}
{{if .Failures}}
<h2>未能完成分析</h2>
<ul>
  {{range .Failures}}<li>{{.Name}} ({{.Code}})：{{.Error}}</li>
  {{end}}
</ul>
{{end}}
<p class="disclaimer">本报告由程序自动生成，仅供学习研究参考，不构成任何投资建议。</p>
</body>
</html>
`

var page = template.Must(template.New("report").Parse(pageTemplate))

type pageView struct {
	Title       string
	GeneratedAt string
	Stocks      []stockView
	Failures    []failureView
}

type stockView struct {
	Name         string
	Code         string
	Date         string
	Basic        []Field
	Signals      []string
	Groups       []Group
	Charts       []chartView
	HasNarrative bool
	Placeholder  string
	Sections     []sectionView
}

type chartView struct {
	Title string
	SVG   template.HTML
}

type sectionView struct {
	Name string
	Body template.HTML
}

type failureView struct {
	Name  string
	Code  string
	Error string
}

// WriteHTML renders the report as a standalone HTML page.
func (r *Report) WriteHTML(w io.Writer, cfg ChartConfig) error {
	view := pageView{
		Title:       Title,
		GeneratedAt: r.GeneratedAtText(),
	}
	for _, sr := range r.Stocks {
		view.Stocks = append(view.Stocks, newStockView(sr, cfg))
	}
	for _, f := range r.Failures {
		view.Failures = append(view.Failures, failureView{
			Name:  f.Stock.Name,
			Code:  f.Stock.Code,
			Error: errorText(f.Err),
		})
	}
	if err := page.Execute(w, view); err != nil {
		return fmt.Errorf("rendering html report: %w", err)
	}
	return nil
}

func newStockView(sr *StockReport, cfg ChartConfig) stockView {
	v := stockView{
		Name:    sr.Stock.Name,
		Code:    sr.Stock.Code,
		Date:    utils.FormatDateCST(sr.Date),
		Basic:   sr.Basic,
		Signals: sr.Signals,
		Groups:  sr.Indicators,
	}
	if v.Name == "" {
		v.Name = v.Code
	}
	for _, c := range sr.Charts(cfg) {
		// SVG is generated locally with escaped labels.
		v.Charts = append(v.Charts, chartView{Title: c.Title, SVG: template.HTML(c.SVG)})
	}
	if n := sr.Narrative; n != nil {
		v.HasNarrative = true
		v.Placeholder = n.Placeholder()
		for _, key := range n.Sections.Keys() {
			v.Sections = append(v.Sections, sectionView{Name: key, Body: template.HTML(n.Sections.Get(key))})
		}
	}
	return v
}
