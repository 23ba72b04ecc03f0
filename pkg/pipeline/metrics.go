// Package pipeline coordinates the parlay generation workflow.
package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects and exposes pipeline Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	// Run metrics
	RunsTotal    *prometheus.CounterVec
	RunDuration  *prometheus.HistogramVec
	StageLatency *prometheus.HistogramVec

	// Odds metrics
	FallbacksTotal *prometheus.CounterVec
	DataQuality    *prometheus.GaugeVec
	GamesFetched   *prometheus.HistogramVec

	// Generation metrics
	GenerationAttempts *prometheus.HistogramVec
	LLMErrors          *prometheus.CounterVec

	// Validation metrics
	ConflictsTotal  *prometheus.CounterVec
	WrongDatesTotal *prometheus.CounterVec
}

// NewMetrics creates a pipeline metrics collector with its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parlay_runs_total",
				Help: "Total pipeline runs",
			},
			[]string{"status"},
		),
		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "parlay_run_duration_seconds",
				Help:    "End to end pipeline run duration",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~3.5min
			},
			[]string{"status"},
		),
		StageLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "parlay_stage_duration_seconds",
				Help:    "Per stage execution duration",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
			},
			[]string{"stage"},
		),

		FallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parlay_odds_fallbacks_total",
				Help: "Fetches that resolved on an alternate bookmaker",
			},
			[]string{"primary"},
		),
		DataQuality: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "parlay_odds_data_quality_pct",
				Help: "Percent of fetched games with at least two markets",
			},
			[]string{"bookmaker"},
		),
		GamesFetched: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "parlay_odds_games_fetched",
				Help:    "Games returned per fetch",
				Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
			},
			[]string{"bookmaker"},
		),

		GenerationAttempts: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "parlay_generation_attempts",
				Help:    "Generation attempts used per run",
				Buckets: []float64{1, 2, 3},
			},
			[]string{"model"},
		),
		LLMErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parlay_llm_errors_total",
				Help: "Hard text generator failures",
			},
			[]string{"model"},
		),

		ConflictsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parlay_validation_conflicts_total",
				Help: "Runs whose final content contained conflicting legs",
			},
			[]string{"model"},
		),
		WrongDatesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parlay_validation_wrong_dates_total",
				Help: "Runs whose final content carried suspect dates",
			},
			[]string{"model"},
		),
	}

	m.registerAll()

	return m
}

func (m *Metrics) registerAll() {
	m.registry.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.StageLatency,
		m.FallbacksTotal,
		m.DataQuality,
		m.GamesFetched,
		m.GenerationAttempts,
		m.LLMErrors,
		m.ConflictsTotal,
		m.WrongDatesTotal,
	)
}

// Registry returns the prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRun records a completed pipeline run.
func (m *Metrics) RecordRun(status string, durationSec float64) {
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.WithLabelValues(status).Observe(durationSec)
}

// RecordStage records a stage execution.
func (m *Metrics) RecordStage(stage string, durationSec float64) {
	m.StageLatency.WithLabelValues(stage).Observe(durationSec)
}

// RecordFetch records the odds stage outcome.
func (m *Metrics) RecordFetch(primary, source string, fallbackUsed bool, quality float64, games int) {
	if fallbackUsed {
		m.FallbacksTotal.WithLabelValues(primary).Inc()
	}
	m.DataQuality.WithLabelValues(source).Set(quality)
	m.GamesFetched.WithLabelValues(source).Observe(float64(games))
}

// RecordGeneration records attempts used by a finished generation loop.
func (m *Metrics) RecordGeneration(model string, attempts int) {
	m.GenerationAttempts.WithLabelValues(model).Observe(float64(attempts))
}

// RecordLLMError records a hard generator failure.
func (m *Metrics) RecordLLMError(model string) {
	m.LLMErrors.WithLabelValues(model).Inc()
}

// RecordValidation records validation findings for a run.
func (m *Metrics) RecordValidation(model string, hasConflicts, wrongDates bool) {
	if hasConflicts {
		m.ConflictsTotal.WithLabelValues(model).Inc()
	}
	if wrongDates {
		m.WrongDatesTotal.WithLabelValues(model).Inc()
	}
}
