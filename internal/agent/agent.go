// Package agent implements the narrative analyst that asks the remote chat service
// for a written market analysis, and the orchestrator that runs the per-instrument
// analysis pipeline over a list of instruments.
package agent

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/seenimoa/stockinsight/internal/agent/prompts"
	"github.com/seenimoa/stockinsight/internal/infra"
	"github.com/seenimoa/stockinsight/internal/llm"
	"github.com/seenimoa/stockinsight/internal/narrative"
	"github.com/seenimoa/stockinsight/pkg/models"
)

// errNoChoices marks a well-formed envelope without a usable first choice.
var errNoChoices = errors.New("response carried no usable choice")

// NarrativeAnalyst turns a bar history and its indicator table into a parsed
// narrative analysis. Every remote failure degrades to the canonical failure result;
// only unusable input is returned as an error.
type NarrativeAnalyst struct {
	provider llm.LLMProvider
	limiter  *infra.RateLimiter
	opts     *llm.ChatOptions
	log      zerolog.Logger
}

// AnalystConfig configures a NarrativeAnalyst.
type AnalystConfig struct {
	Provider    llm.LLMProvider
	Limiter     *infra.RateLimiter // nil means unlimited
	ChatOptions *llm.ChatOptions
	Logger      zerolog.Logger
}

// NewNarrativeAnalyst creates an analyst. The provider is required.
func NewNarrativeAnalyst(cfg AnalystConfig) *NarrativeAnalyst {
	return &NarrativeAnalyst{
		provider: cfg.Provider,
		limiter:  cfg.Limiter,
		opts:     cfg.ChatOptions,
		log:      cfg.Logger.With().Str("agent", prompts.AgentNarrative).Logger(),
	}
}

// Name returns the analyst's identifier.
func (a *NarrativeAnalyst) Name() string { return prompts.AgentNarrative }

// SystemPrompt returns the instruction template sent with every request.
func (a *NarrativeAnalyst) SystemPrompt() string { return prompts.NarrativeSystemPrompt }

// Request sends one encoded payload to the chat service. It never fails: transport
// and service faults come back as a RemoteResult carrying the failure kind.
func (a *NarrativeAnalyst) Request(ctx context.Context, payload string) models.RemoteResult {
	if err := a.limiter.Wait(ctx); err != nil {
		return models.RemoteResult{Kind: models.FailureServiceError, Err: fmt.Errorf("rate limiter: %w", err)}
	}

	messages := []llm.Message{
		llm.SystemMessage(a.SystemPrompt()),
		llm.UserMessage(prompts.NarrativeUserPrompt(payload)),
	}
	resp, err := a.provider.Chat(ctx, messages, a.opts)
	if err != nil {
		return models.RemoteResult{Kind: Classify(err), Err: err}
	}
	if !resp.HasChoices() {
		return models.RemoteResult{Kind: models.FailureEmptyEnvelope, Err: errNoChoices}
	}

	a.log.Debug().
		Str("model", resp.Model).
		Int("tokens", resp.Usage.TotalTokens).
		Dur("latency", resp.Latency).
		Msg("narrative response received")
	return models.RemoteResult{Text: resp.Content}
}

// Classify maps a chat error to the failure kind shown in reports.
func Classify(err error) models.FailureKind {
	var netErr net.Error
	switch {
	case err == nil:
		return models.FailureNone
	case errors.Is(err, llm.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return models.FailureTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return models.FailureTimeout
	case errors.Is(err, llm.ErrProviderDown):
		return models.FailureConnection
	case errors.Is(err, llm.ErrRateLimit):
		return models.FailureRateLimited
	case errors.Is(err, llm.ErrEmptyBody):
		return models.FailureServiceBusy
	default:
		return models.FailureServiceError
	}
}

// Analyze builds the prompt payload for stock, requests the narrative and parses it
// into sections. It returns models.ErrDegenerateInput when no payload can be built.
func (a *NarrativeAnalyst) Analyze(ctx context.Context, stock models.Stock, bars []models.DailyBar, table *models.IndicatorTable) (*models.NarrativeResult, error) {
	payload, err := narrative.Build(bars, table)
	if err != nil {
		return nil, fmt.Errorf("building narrative payload for %s: %w", stock.Code, err)
	}

	start := time.Now()
	res := a.Request(ctx, payload)
	if !res.OK() {
		a.log.Error().
			Str("kind", string(res.Kind)).
			Str("code", stock.Code).
			Err(res.Err).
			Msg("narrative analysis failed")
		return models.FailedNarrative(res.Kind), nil
	}

	sections := narrative.Parse(res.Text)
	a.log.Info().
		Str("code", stock.Code).
		Dur("elapsed", time.Since(start)).
		Bool("empty", sections.IsEmpty()).
		Msg("narrative analysis complete")
	return &models.NarrativeResult{Sections: sections}, nil
}
