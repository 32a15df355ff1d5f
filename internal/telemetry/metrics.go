// Package telemetry holds the Prometheus metrics registry shared by the
// orchestrator, reasoner, and HTTP API. Structure follows the teacher's
// MetricsRegistry: one struct grouping related Vec/Gauge/Counter metrics,
// registered once at construction, plus a StageTimer helper for per-stage
// duration observations.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Registry holds every metric the bidding engine exposes.
type Registry struct {
	StageDuration    *prometheus.HistogramVec
	StagesTotal      *prometheus.CounterVec
	DecisionsTotal   *prometheus.CounterVec
	DecisionDuration prometheus.Histogram
	ActiveDecisions  prometheus.Gauge
	BreakerState     *prometheus.GaugeVec
	CacheHits        *prometheus.CounterVec
	CacheMisses      *prometheus.CounterVec
}

// NewRegistry builds and registers every metric.
func NewRegistry() *Registry {
	r := &Registry{
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "biddingengine_stage_duration_seconds",
				Help:    "Duration of each orchestrator stage in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"stage", "result"},
		),
		StagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "biddingengine_stages_total",
				Help: "Total number of orchestrator stages executed",
			},
			[]string{"stage", "result"},
		),
		DecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "biddingengine_decisions_total",
				Help: "Total number of decisions produced, by decision_source",
			},
			[]string{"decision_source", "strategy"},
		),
		DecisionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "biddingengine_decision_duration_seconds",
				Help:    "End-to-end duration of a single decide() call",
				Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
		),
		ActiveDecisions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "biddingengine_active_decisions",
				Help: "Number of decide() calls currently in flight",
			},
		),
		BreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "biddingengine_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"breaker"},
		),
		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "biddingengine_cache_hits_total",
				Help: "Total cache hits by cache type",
			},
			[]string{"cache_type"},
		),
		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "biddingengine_cache_misses_total",
				Help: "Total cache misses by cache type",
			},
			[]string{"cache_type"},
		),
	}

	prometheus.MustRegister(
		r.StageDuration,
		r.StagesTotal,
		r.DecisionsTotal,
		r.DecisionDuration,
		r.ActiveDecisions,
		r.BreakerState,
		r.CacheHits,
		r.CacheMisses,
	)

	return r
}

// StageTimer times a single orchestrator stage.
type StageTimer struct {
	r     *Registry
	stage string
	start time.Time
}

// StartStage begins timing a stage.
func (r *Registry) StartStage(stage string) *StageTimer {
	return &StageTimer{r: r, stage: stage, start: time.Now()}
}

// Stop completes stage timing and records the result.
func (st *StageTimer) Stop(result string) {
	duration := time.Since(st.start)
	st.r.StageDuration.WithLabelValues(st.stage, result).Observe(duration.Seconds())
	st.r.StagesTotal.WithLabelValues(st.stage, result).Inc()
	log.Debug().Str("stage", st.stage).Str("result", result).Dur("duration", duration).Msg("orchestrator stage completed")
}

// RecordDecision records the terminal decision_source/strategy pair for a
// completed call.
func (r *Registry) RecordDecision(source, strategy string) {
	r.DecisionsTotal.WithLabelValues(source, strategy).Inc()
}

// SetBreakerState records a circuit breaker's current state as a gauge
// value (0=closed, 1=half-open, 2=open).
func (r *Registry) SetBreakerState(name string, value float64) {
	r.BreakerState.WithLabelValues(name).Set(value)
}

// Handler returns the Prometheus scrape endpoint handler.
func (r *Registry) Handler() http.Handler {
	return promhttp.Handler()
}
