// Package report assembles per-instrument technical analysis reports and renders
// them as JSON, plain text or a standalone HTML page with SVG indicator charts.
package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/seenimoa/stockinsight/pkg/models"
	"github.com/seenimoa/stockinsight/pkg/utils"
)

// Format specifies the output format.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
	FormatHTML Format = "html"
)

// ErrUnknownFormat is returned for output formats other than json, text and html.
var ErrUnknownFormat = errors.New("unknown report format")

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatText, FormatHTML:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Title is the heading printed on every report.
const Title = "股票技术分析报告"

// Report section names.
const (
	SectionBasic      = "基础数据"
	SectionIndicators = "技术指标"
	SectionSignals    = "技术分析建议"
	SectionNarrative  = "AI分析结果"
)

// Report is the output of one analysis run.
type Report struct {
	GeneratedAt time.Time
	Stocks      []*StockReport
	Failures    []Failure
}

// Failure records an instrument whose report could not be built.
type Failure struct {
	Stock models.Stock
	Err   error
}

// New creates an empty report stamped with generatedAt.
func New(generatedAt time.Time) *Report {
	return &Report{GeneratedAt: generatedAt}
}

// GeneratedAtText returns the generation time in China Standard Time.
func (r *Report) GeneratedAtText() string {
	return utils.FormatReportTime(r.GeneratedAt)
}

// Add appends a built instrument report.
func (r *Report) Add(sr *StockReport) {
	r.Stocks = append(r.Stocks, sr)
}

// AddFailure records an instrument that could not be analyzed.
func (r *Report) AddFailure(stock models.Stock, err error) {
	r.Failures = append(r.Failures, Failure{Stock: stock, Err: err})
}

// Write renders the report in format f.
func (r *Report) Write(w io.Writer, f Format) error {
	switch f {
	case FormatJSON:
		return r.WriteJSON(w)
	case FormatText:
		_, err := io.WriteString(w, r.Text())
		return err
	case FormatHTML:
		return r.WriteHTML(w, DefaultChartConfig())
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// WriteFile renders the report to path, creating parent directories.
func (r *Report) WriteFile(path string, f Format) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	if err := r.Write(file, f); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// FormatDuration formats a run duration for display.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}
