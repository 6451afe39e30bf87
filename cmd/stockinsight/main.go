// stockinsight: technical and narrative analysis reports for A-share stocks.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/seenimoa/stockinsight/internal/agent"
	"github.com/seenimoa/stockinsight/internal/config"
	"github.com/seenimoa/stockinsight/internal/datasource"
	"github.com/seenimoa/stockinsight/internal/infra"
	"github.com/seenimoa/stockinsight/internal/llm"
	"github.com/seenimoa/stockinsight/internal/report"
	"github.com/seenimoa/stockinsight/pkg/models"
	"github.com/seenimoa/stockinsight/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Process-wide configuration and logger, built once in the pre-run hook.
var (
	cfg *config.Config
	log zerolog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "stockinsight",
	Short: "Technical and AI narrative analysis reports for A-share stocks",
	Long: `stockinsight fetches daily price history, computes a fixed battery of
technical indicators, evaluates trading-signal rules and, when a DeepSeek API
key is configured, asks the model for a structured written analysis.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Logging.Level = level
		}
		log = infra.NewLogger(cfg.Logging, os.Stderr)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(stocksCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("stockinsight %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [CODE|NAME=CODE ...]",
	Short: "Analyze instruments and write a report",
	Long: `Analyze the given instruments, or every configured STOCK_<NAME>=<CODE>
instrument when none are given, and write the report to --out.
Use --out - to print the report to stdout.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("out", "", "output path (default: output.path from config)")
	analyzeCmd.Flags().String("format", "", "report format: json, text or html (default: output.format from config)")
	analyzeCmd.Flags().Int("days", 0, "trading days of history to fetch (default: analysis.history_days)")
	analyzeCmd.Flags().Int("concurrency", 0, "instruments analyzed in parallel (default: analysis.concurrency)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	stocks, err := resolveStocks(args, cfg.Stocks)
	if err != nil {
		return err
	}

	out := flagOr(cmd, "out", cfg.Output.Path)
	format, err := report.ParseFormat(flagOr(cmd, "format", cfg.Output.Format))
	if err != nil {
		return err
	}
	days := intFlagOr(cmd, "days", cfg.Analysis.HistoryDays)
	concurrency := intFlagOr(cmd, "concurrency", cfg.Analysis.Concurrency)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch := agent.NewOrchestrator(agent.OrchestratorConfig{
		Source:      newHistoryProvider(),
		Analyst:     newAnalyst(),
		HistoryDays: days,
		Concurrency: concurrency,
		Logger:      log,
	})
	if !orch.HasAnalyst() {
		log.Warn().Msg("no DeepSeek API key configured, narrative analysis disabled")
	}

	log.Info().Int("stocks", len(stocks)).Int("days", days).Int("concurrency", concurrency).Msg("starting analysis")
	r, err := orch.Run(ctx, stocks)
	if err != nil {
		return fmt.Errorf("analysis interrupted: %w", err)
	}

	if out == "-" {
		return r.Write(os.Stdout, format)
	}
	if err := r.WriteFile(out, format); err != nil {
		return err
	}
	fmt.Printf("报告已生成: %s (%d 成功, %d 失败)\n", out, len(r.Stocks), len(r.Failures))
	return nil
}

// resolveStocks turns command-line instruments into stocks, defaulting to the
// configured list.
func resolveStocks(args []string, configured []models.Stock) ([]models.Stock, error) {
	if len(args) == 0 {
		if len(configured) == 0 {
			return nil, errors.New("no instruments: pass codes or set STOCK_<NAME>=<CODE> in .env")
		}
		return configured, nil
	}
	stocks := make([]models.Stock, 0, len(args))
	for _, arg := range args {
		s, err := config.ParseStockArg(arg, configured)
		if err != nil {
			return nil, err
		}
		if _, err := utils.NormalizeCode(s.Code); err != nil {
			return nil, err
		}
		stocks = append(stocks, s)
	}
	return stocks, nil
}

func newHistoryProvider() datasource.HistoryProvider {
	em := datasource.NewEastMoney(
		datasource.WithBaseURL(cfg.DataSource.BaseURL),
		datasource.WithTimeout(time.Duration(cfg.DataSource.TimeoutSec)*time.Second),
	)
	return datasource.NewCached(em, time.Duration(cfg.DataSource.CacheTTL)*time.Second)
}

// newAnalyst returns nil when no credential is configured.
func newAnalyst() *agent.NarrativeAnalyst {
	if !cfg.HasAPIKey() {
		return nil
	}
	provider, err := newProvider()
	if err != nil {
		return nil
	}
	return agent.NewNarrativeAnalyst(agent.AnalystConfig{
		Provider:    provider,
		Limiter:     infra.NewRateLimiter(cfg.LLM.RequestsPerMinute),
		ChatOptions: &llm.ChatOptions{Model: cfg.LLM.Model, Temperature: llm.Float64(cfg.LLM.Temperature)},
		Logger:      log,
	})
}

func newProvider() (*llm.DeepSeekProvider, error) {
	return llm.NewDeepSeekProvider(strings.TrimSpace(cfg.LLM.APIKey),
		llm.WithBaseURL(cfg.LLM.BaseURL),
		llm.WithModel(cfg.LLM.Model),
	)
}

func flagOr(cmd *cobra.Command, name, fallback string) string {
	if v, _ := cmd.Flags().GetString(name); v != "" {
		return v
	}
	return fallback
}

func intFlagOr(cmd *cobra.Command, name string, fallback int) int {
	if v, _ := cmd.Flags().GetInt(name); v > 0 {
		return v
	}
	return fallback
}

// --- Stocks Command ---

var stocksCmd = &cobra.Command{
	Use:   "stocks",
	Short: "List configured instruments",
	Run: func(cmd *cobra.Command, args []string) {
		if len(cfg.Stocks) == 0 {
			fmt.Println("No instruments configured. Add one with: stockinsight stocks add NAME=CODE")
			return
		}
		for _, s := range cfg.Stocks {
			fmt.Printf("  %-12s %s\n", s.Code, s.Name)
		}
	},
}

var stocksAddCmd = &cobra.Command{
	Use:   "add NAME=CODE ...",
	Short: "Add instruments to the .env file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("env")
		n, err := addStocks(path, args)
		if err != nil {
			return err
		}
		fmt.Printf("Saved %d instruments to %s\n", n, path)
		return nil
	},
}

var stocksRemoveCmd = &cobra.Command{
	Use:   "remove CODE|NAME ...",
	Short: "Remove instruments from the .env file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("env")
		n, err := removeStocks(path, args)
		if err != nil {
			return err
		}
		fmt.Printf("Saved %d instruments to %s\n", n, path)
		return nil
	},
}

// addStocks merges args into the instruments of the .env file at path and returns
// the resulting count.
func addStocks(path string, args []string) (int, error) {
	current, err := config.ReadStocks(path)
	if err != nil {
		return 0, err
	}
	added := make([]models.Stock, 0, len(args))
	for _, arg := range args {
		s, err := config.ParseStockArg(arg, current)
		if err != nil {
			return 0, err
		}
		if _, err := utils.NormalizeCode(s.Code); err != nil {
			return 0, err
		}
		added = append(added, s)
	}
	merged := config.MergeStocks(current, added)
	return len(merged), config.SaveStocks(path, merged)
}

// removeStocks drops the instruments matching keys from the .env file at path.
func removeStocks(path string, keys []string) (int, error) {
	current, err := config.ReadStocks(path)
	if err != nil {
		return 0, err
	}
	kept := make([]models.Stock, 0, len(current))
	for _, s := range current {
		if !matchesAny(s, keys) {
			kept = append(kept, s)
		}
	}
	if len(kept) == len(current) {
		return 0, fmt.Errorf("no instrument in %s matches %s", path, strings.Join(keys, ", "))
	}
	return len(kept), config.SaveStocks(path, kept)
}

func init() {
	stocksCmd.PersistentFlags().String("env", ".env", "path of the .env file holding STOCK_ entries")
	stocksCmd.AddCommand(stocksAddCmd)
	stocksCmd.AddCommand(stocksRemoveCmd)
}

func matchesAny(s models.Stock, keys []string) bool {
	for _, k := range keys {
		if strings.EqualFold(s.Code, k) || s.Name == k {
			return true
		}
	}
	return false
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and credential status",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  stockinsight — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:     %s (%s)\n", version, commit)
		fmt.Printf("  Time (CST):  %s\n", utils.FormatReportTime(utils.NowCST()))
		fmt.Printf("  Trading day: %v\n", utils.IsTradingDay(utils.NowCST()))
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    LLM:         %s (model: %s, temperature: %.1f)\n", cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.Temperature)
		fmt.Printf("    Market data: %s (timeout: %ds, cache: %ds)\n", cfg.DataSource.BaseURL, cfg.DataSource.TimeoutSec, cfg.DataSource.CacheTTL)
		fmt.Printf("    Analysis:    %d days, %d workers\n", cfg.Analysis.HistoryDays, cfg.Analysis.Concurrency)
		fmt.Printf("    Output:      %s (%s)\n", cfg.Output.Path, cfg.Output.Format)
		fmt.Printf("    Instruments: %d\n", len(cfg.Stocks))
		fmt.Println()

		fmt.Println("  API Keys:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "not set"
			if k.IsSet {
				status = fmt.Sprintf("set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-25s %s\n", k.Name+":", status)
		}

		if ping, _ := cmd.Flags().GetBool("ping"); ping {
			fmt.Printf("    %-25s %s\n", "Connectivity:", pingProvider(cmd.Context()))
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

func init() {
	statusCmd.Flags().Bool("ping", false, "check that the DeepSeek API key is accepted")
}

func pingProvider(ctx context.Context) string {
	provider, err := newProvider()
	if err != nil {
		return "skipped (" + err.Error() + ")"
	}
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := provider.Ping(ctx); err != nil {
		return "failed (" + err.Error() + ")"
	}
	return "ok"
}
