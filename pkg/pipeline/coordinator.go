package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vinnybarbs/craycray-parlay/pkg/content"
	"github.com/vinnybarbs/craycray-parlay/pkg/generate"
	"github.com/vinnybarbs/craycray-parlay/pkg/odds"
)

// Stage identifies a phase of the generation workflow.
type Stage string

const (
	StageOdds     Stage = "odds_aggregation"
	StageResearch Stage = "research"
	StageGenerate Stage = "generation"
	StageCorrect  Stage = "correction"
	StageValidate Stage = "validation"
)

// StageResult holds the result of a stage execution.
type StageResult struct {
	Stage     Stage         `json:"stage"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	Data      interface{}   `json:"data,omitempty"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}

// Request is the user-facing boundary of one pipeline run.
type Request struct {
	SelectedSports   []string `json:"selected_sports"`
	SelectedBetTypes []string `json:"selected_bet_types"`
	NumLegs          int      `json:"num_legs"`
	RiskLevel        string   `json:"risk_level"`
	OddsPlatform     string   `json:"odds_platform"`
	AIModel          string   `json:"ai_model"`
	DateRange        int      `json:"date_range"`
}

// Metadata describes how a run's content was produced.
type Metadata struct {
	RequestID       string                    `json:"request_id"`
	OddsSource      string                    `json:"odds_source"`
	FallbackUsed    bool                      `json:"fallback_used"`
	FallbackReason  string                    `json:"fallback_reason,omitempty"`
	OddsWarning     string                    `json:"odds_warning,omitempty"`
	DataQuality     float64                   `json:"data_quality"`
	TotalGames      int                       `json:"total_games"`
	ResearchedGames int                       `json:"researched_games"`
	AIModel         string                    `json:"ai_model"`
	Attempts        int                       `json:"attempts"`
	GenerationState generate.State            `json:"generation_state"`
	Validation      *content.ValidationResult `json:"validation,omitempty"`
}

// Result is the outcome of one pipeline run.
type Result struct {
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
}

// Fetcher resolves an odds request to games, fallback included.
type Fetcher interface {
	Fetch(ctx context.Context, req *odds.Request) (*odds.FetchResult, error)
}

// Enricher annotates games with research. Implementations never fail the
// run; a lookup that produces nothing leaves the game unannotated.
type Enricher interface {
	Enrich(ctx context.Context, games []odds.Game) []odds.Game
}

// Generator drives generation attempts to a terminal state.
type Generator interface {
	Run(ctx context.Context, req *generate.Request, games []odds.Game) (*generate.Outcome, error)
}

// Coordinator sequences the five pipeline stages. All per-request state is
// local to Generate; a Coordinator is safe for concurrent use.
type Coordinator struct {
	fetcher  Fetcher
	enricher Enricher // nil skips the research stage
	loop     Generator
	metrics  *Metrics // nil disables metrics

	onStageComplete func(*StageResult)
	onError         func(error)
}

// NewCoordinator creates a pipeline coordinator. enricher and metrics may be
// nil.
func NewCoordinator(fetcher Fetcher, enricher Enricher, loop Generator, metrics *Metrics) *Coordinator {
	return &Coordinator{
		fetcher:  fetcher,
		enricher: enricher,
		loop:     loop,
		metrics:  metrics,
	}
}

// OnStageComplete sets a callback for stage completions.
func (c *Coordinator) OnStageComplete(fn func(*StageResult)) {
	c.onStageComplete = fn
}

// OnError sets a callback for errors, fatal and degraded alike.
func (c *Coordinator) OnError(fn func(error)) {
	c.onError = fn
}

// Generate runs odds, research, generation, correction, and validation for
// one request. Only two failures are fatal: no odds data at all, and a hard
// generator failure. Everything else degrades into Metadata.
func (c *Coordinator) Generate(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()

	meta := Metadata{
		RequestID: uuid.NewString(),
		AIModel:   req.AIModel,
	}

	// Stage 1: odds aggregation. The only stage whose total failure kills
	// the run: without games there is nothing to generate from.
	fetch, err := c.runOdds(ctx, req)
	if err != nil {
		c.finishRun("odds_failed", start)
		return nil, err
	}
	meta.OddsSource = fetch.Source
	meta.FallbackUsed = fetch.FallbackUsed
	meta.FallbackReason = fetch.FallbackReason
	meta.OddsWarning = fetch.Warning
	meta.DataQuality = fetch.DataQuality
	meta.TotalGames = len(fetch.Games)

	// Stage 2: research. Best effort, never fatal.
	games := c.runResearch(ctx, fetch.Games)
	meta.ResearchedGames = countResearched(games)

	// Stage 3: generation.
	outcome, err := c.runGenerate(ctx, req, games)
	if err != nil {
		c.finishRun("generation_failed", start)
		return nil, err
	}
	meta.Attempts = outcome.Attempts
	meta.GenerationState = outcome.State

	// Stage 4: correction.
	corrected := c.runCorrect(outcome.Text)

	// Stage 5: validation.
	meta.Validation = c.runValidate(corrected, req.NumLegs, req.AIModel)

	c.finishRun("ok", start)
	return &Result{Content: corrected, Metadata: meta}, nil
}

func (c *Coordinator) runOdds(ctx context.Context, req *Request) (*odds.FetchResult, error) {
	start := time.Now()

	fetch, err := c.fetcher.Fetch(ctx, &odds.Request{
		Sports:        req.SelectedSports,
		BetTypes:      req.SelectedBetTypes,
		Bookmaker:     req.OddsPlatform,
		NumLegs:       req.NumLegs,
		DateRangeDays: req.DateRange,
	})
	if err != nil {
		err = fmt.Errorf("odds aggregation: %w", err)
		c.emitStage(StageOdds, start, err, nil)
		c.handleError(err)
		return nil, err
	}

	if c.metrics != nil {
		c.metrics.RecordFetch(req.OddsPlatform, fetch.Source, fetch.FallbackUsed, fetch.DataQuality, len(fetch.Games))
	}
	c.emitStage(StageOdds, start, nil, map[string]interface{}{
		"source":        fetch.Source,
		"games":         len(fetch.Games),
		"fallback_used": fetch.FallbackUsed,
		"data_quality":  fetch.DataQuality,
		"warning":       fetch.Warning,
	})
	return fetch, nil
}

func (c *Coordinator) runResearch(ctx context.Context, games []odds.Game) []odds.Game {
	if c.enricher == nil {
		return games
	}
	start := time.Now()

	enriched := c.enricher.Enrich(ctx, games)

	c.emitStage(StageResearch, start, nil, map[string]interface{}{
		"researched": countResearched(enriched),
		"total":      len(enriched),
	})
	return enriched
}

func (c *Coordinator) runGenerate(ctx context.Context, req *Request, games []odds.Game) (*generate.Outcome, error) {
	start := time.Now()

	outcome, err := c.loop.Run(ctx, &generate.Request{
		Sports:        req.SelectedSports,
		BetTypes:      req.SelectedBetTypes,
		NumLegs:       req.NumLegs,
		RiskLevel:     req.RiskLevel,
		Bookmaker:     req.OddsPlatform,
		Model:         req.AIModel,
		DateRangeDays: req.DateRange,
	}, games)
	if err != nil {
		err = fmt.Errorf("generation: %w", err)
		if c.metrics != nil {
			c.metrics.RecordLLMError(req.AIModel)
		}
		c.emitStage(StageGenerate, start, err, nil)
		c.handleError(err)
		return nil, err
	}

	if c.metrics != nil {
		c.metrics.RecordGeneration(req.AIModel, outcome.Attempts)
	}
	c.emitStage(StageGenerate, start, nil, map[string]interface{}{
		"attempts":  outcome.Attempts,
		"state":     outcome.State,
		"leg_count": outcome.LegCount,
	})
	return outcome, nil
}

func (c *Coordinator) runCorrect(text string) string {
	start := time.Now()
	corrected := content.Correct(text)
	c.emitStage(StageCorrect, start, nil, map[string]interface{}{
		"changed": corrected != text,
	})
	return corrected
}

func (c *Coordinator) runValidate(text string, numLegs int, model string) *content.ValidationResult {
	start := time.Now()
	validation := content.Validate(text, numLegs)
	if c.metrics != nil {
		c.metrics.RecordValidation(model, validation.HasConflicts, validation.WrongDates)
	}
	c.emitStage(StageValidate, start, nil, validation)
	return validation
}

func (c *Coordinator) emitStage(stage Stage, start time.Time, err error, data interface{}) {
	duration := time.Since(start)
	if c.metrics != nil {
		c.metrics.RecordStage(string(stage), duration.Seconds())
	}
	if c.onStageComplete == nil {
		return
	}
	result := &StageResult{
		Stage:     stage,
		Success:   err == nil,
		Data:      data,
		Duration:  duration,
		Timestamp: time.Now(),
	}
	if err != nil {
		result.Error = err.Error()
	}
	c.onStageComplete(result)
}

func (c *Coordinator) handleError(err error) {
	if c.onError != nil {
		c.onError(err)
	}
}

func (c *Coordinator) finishRun(status string, start time.Time) {
	if c.metrics != nil {
		c.metrics.RecordRun(status, time.Since(start).Seconds())
	}
}

func countResearched(games []odds.Game) int {
	n := 0
	for i := range games {
		if games[i].Research != nil {
			n++
		}
	}
	return n
}
