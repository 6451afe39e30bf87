package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/stockinsight/internal/analysis/technical"
	"github.com/seenimoa/stockinsight/internal/datasource"
	"github.com/seenimoa/stockinsight/internal/report"
	"github.com/seenimoa/stockinsight/pkg/models"
	"github.com/seenimoa/stockinsight/pkg/utils"
)

// DefaultHistoryDays is the number of daily bars fetched per instrument.
const DefaultHistoryDays = 120

// Orchestrator runs the analysis pipeline for each instrument:
// fetch → indicators → signals → narrative → report block.
// Instruments are independent; up to Concurrency of them run at once.
type Orchestrator struct {
	source      datasource.HistoryProvider
	analyst     *NarrativeAnalyst
	historyDays int
	concurrency int
	log         zerolog.Logger
	now         func() time.Time
}

// OrchestratorConfig holds configuration for creating an Orchestrator.
type OrchestratorConfig struct {
	Source      datasource.HistoryProvider
	Analyst     *NarrativeAnalyst // nil when no API key is configured
	HistoryDays int
	Concurrency int
	Logger      zerolog.Logger
}

// NewOrchestrator creates an Orchestrator, filling defaults for unset limits.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	o := &Orchestrator{
		source:      cfg.Source,
		analyst:     cfg.Analyst,
		historyDays: cfg.HistoryDays,
		concurrency: cfg.Concurrency,
		log:         cfg.Logger,
		now:         utils.NowCST,
	}
	if o.historyDays < 2 {
		o.historyDays = DefaultHistoryDays
	}
	if o.concurrency < 1 {
		o.concurrency = 1
	}
	return o
}

// HasAnalyst reports whether narrative analysis is enabled.
func (o *Orchestrator) HasAnalyst() bool { return o.analyst != nil }

// AnalyzeStock runs the full pipeline for one instrument. Remote narrative failures
// degrade to the failure template; fetch errors and unusable histories are returned.
func (o *Orchestrator) AnalyzeStock(ctx context.Context, stock models.Stock) (*report.StockReport, error) {
	start := time.Now()
	log := o.log.With().Str("code", stock.Code).Str("name", stock.Name).Logger()

	bars, err := o.source.DailyBars(ctx, stock.Code, o.historyDays)
	if err != nil {
		return nil, fmt.Errorf("fetching %s from %s: %w", stock.Code, o.source.Name(), err)
	}
	log.Debug().Int("bars", len(bars)).Msg("history fetched")

	table := technical.Compute(bars)
	signals, err := technical.GenerateSignals(table)
	if err != nil {
		return nil, fmt.Errorf("signals for %s: %w", stock.Code, err)
	}

	var narr *models.NarrativeResult
	if o.analyst != nil {
		narr, err = o.analyst.Analyze(ctx, stock, bars, table)
		if err != nil {
			return nil, err
		}
	}

	sr, err := report.Build(report.Input{
		Stock:     stock,
		Bars:      bars,
		Table:     table,
		Signals:   signals,
		Narrative: narr,
	})
	if err != nil {
		return nil, fmt.Errorf("report for %s: %w", stock.Code, err)
	}

	log.Info().
		Int("bars", len(bars)).
		Int("signals", len(signals)).
		Bool("signal_fired", signals.HasSignals()).
		Bool("narrative", narr != nil && !narr.Failed).
		Dur("elapsed", time.Since(start)).
		Msg("analysis complete")
	return sr, nil
}

// Run analyzes every instrument and collects the results in input order. An
// instrument that fails is recorded in the report's failures; Run itself only fails
// when ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context, stocks []models.Stock) (*report.Report, error) {
	start := time.Now()
	results := make([]*report.StockReport, len(stocks))
	errs := make([]error, len(stocks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, stock := range stocks {
		i, stock := i, stock
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i], errs[i] = o.AnalyzeStock(gctx, stock)
			if errs[i] != nil {
				o.log.Error().Err(errs[i]).Str("code", stock.Code).Msg("analysis failed")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r := report.New(o.now())
	for i, stock := range stocks {
		if errs[i] != nil {
			r.AddFailure(stock, errs[i])
			continue
		}
		r.Add(results[i])
	}

	o.log.Info().
		Int("stocks", len(stocks)).
		Int("failed", len(r.Failures)).
		Str("elapsed", report.FormatDuration(time.Since(start))).
		Msg("run complete")
	return r, nil
}
