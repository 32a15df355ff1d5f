// Package orchestrator wires the full decision pipeline together as a
// small state machine: enrich, safety-gate, reason, validate, fall back to
// rules when needed, compute proxy math, and finalize. The step-table
// execution style (named stages, each timed and logged independently, with
// the loop stopping at the first stage that needs to short-circuit) is
// grounded on the teacher's pipeline executor
// (internal/application/pipeline/executor.go), generalized from its
// fixed eight-step scan pipeline to this five/six-step decision pipeline
// with stage-dependent branching instead of a uniform linear walk.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/domainauction/biddingengine/internal/application/intelligence"
	"github.com/domainauction/biddingengine/internal/application/proxy"
	"github.com/domainauction/biddingengine/internal/application/reasoner"
	"github.com/domainauction/biddingengine/internal/application/rules"
	"github.com/domainauction/biddingengine/internal/domain/auction"
	"github.com/domainauction/biddingengine/internal/domain/gates"
	"github.com/domainauction/biddingengine/internal/telemetry"
)

// stageResult names the outcome recorded against a stage's timer/counter.
const (
	resultSuccess = "success"
	resultError   = "error"
	resultBlocked = "blocked"
)

// RoundHistory is the thin read surface the orchestrator needs from the
// History Recorder: a short, human-readable summary of previous attempts
// in the current thread, to fold into the reasoner prompt. A nil
// RoundHistory is treated as "no history available".
type RoundHistory interface {
	PreviousAttempts(threadID string) []string
}

// Orchestrator runs a single decide() call end to end.
type Orchestrator struct {
	intel    *intelligence.Engine
	reasoner *reasoner.Reasoner
	rules    *rules.Selector
	history  RoundHistory
	metrics  *telemetry.Registry
	log      zerolog.Logger
}

// New constructs an Orchestrator. history and metrics may be nil.
func New(intel *intelligence.Engine, reason *reasoner.Reasoner, selector *rules.Selector, history RoundHistory, metrics *telemetry.Registry, log zerolog.Logger) *Orchestrator {
	if selector == nil {
		selector = rules.NewSelector()
	}
	return &Orchestrator{
		intel:    intel,
		reasoner: reason,
		rules:    selector,
		history:  history,
		metrics:  metrics,
		log:      log.With().Str("component", "orchestrator").Logger(),
	}
}

// Decide runs the full pipeline for a single auction context and always
// returns a usable FinalDecision — it never panics or errors outward. Any
// unhandled exception inside a stage is converted to a system_error,
// do_not_bid decision.
func (o *Orchestrator) Decide(ctx context.Context, actx auction.Context) (decision auction.FinalDecision) {
	start := time.Now()
	decisionID := uuid.New()

	if o.metrics != nil {
		o.metrics.ActiveDecisions.Inc()
		defer o.metrics.ActiveDecisions.Dec()
	}

	defer func() {
		if rec := recover(); rec != nil {
			o.log.Error().Interface("panic", rec).Str("domain", actx.Domain).Msg("orchestrator stage panicked")
			decision = systemErrorDecision(decisionID, fmt.Sprintf("internal error: %v", rec))
		}
		decision.Elapsed = time.Since(start)
		if o.metrics != nil {
			o.metrics.DecisionDuration.Observe(decision.Elapsed.Seconds())
			o.metrics.RecordDecision(string(decision.DecisionSource), string(decision.Strategy))
		}
	}()

	intel := o.stageEnrich(actx)

	if safety := o.stageSafety(actx); safety.Blocked {
		return finalize(decisionID, auction.StrategyDecision{
			Strategy:   auction.StrategyDoNotBid,
			Confidence: 0.95,
			RiskLevel:  auction.RiskHigh,
			Reasoning:  safety.Reason,
		}, auction.ProxyDecision{}, auction.SourceSafetyBlock, safety.Reason)
	}

	previousAttempts := o.previousAttempts(actx.ThreadID)

	chosen, source := o.stageReasonAndValidate(ctx, actx, intel, previousAttempts)

	result := proxy.Compute(actx, chosen)
	chosen.Strategy = result.Strategy
	chosen.RecommendedBidAmount = result.Amount

	return finalize(decisionID, chosen, result.Proxy, source, "")
}

func (o *Orchestrator) stageEnrich(actx auction.Context) auction.Intelligence {
	timer := o.startStage("enrich")
	if o.intel == nil {
		timer.stop(resultSuccess)
		return auction.Intelligence{}
	}
	intel := o.intel.Enrich(actx)
	timer.stop(resultSuccess)
	return intel
}

func (o *Orchestrator) stageSafety(actx auction.Context) gates.SafetyResult {
	timer := o.startStage("safety")
	result := gates.EvaluateSafety(actx)
	if result.Blocked {
		timer.stop(resultBlocked)
	} else {
		timer.stop(resultSuccess)
	}
	return result
}

// stageReasonAndValidate runs REASON -> VALIDATE, falling back to RULES on
// an invalid or missing reasoner proposal.
func (o *Orchestrator) stageReasonAndValidate(ctx context.Context, actx auction.Context, intel auction.Intelligence, previousAttempts []string) (auction.StrategyDecision, auction.DecisionSource) {
	reasonTimer := o.startStage("reason")
	var proposed auction.StrategyDecision
	var ok bool
	if o.reasoner != nil {
		proposed, ok = o.reasoner.Propose(ctx, actx, intel, previousAttempts)
	}
	if ok {
		reasonTimer.stop(resultSuccess)
	} else {
		reasonTimer.stop(resultError)
	}

	if ok {
		validateTimer := o.startStage("validate")
		result := gates.Validate(actx, proposed)
		if result.Valid {
			validateTimer.stop(resultSuccess)
			return proposed, auction.SourceLLM
		}
		validateTimer.stop(resultBlocked)
		o.log.Info().Str("reason", result.Reason).Str("domain", actx.Domain).Msg("reasoner proposal rejected by validator, falling back to rules")
	}

	rulesTimer := o.startStage("rules")
	fallback := o.rules.Select(actx)
	rulesTimer.stop(resultSuccess)
	return fallback, auction.SourceRulesFallback
}

func (o *Orchestrator) previousAttempts(threadID string) []string {
	if o.history == nil || threadID == "" {
		return nil
	}
	return o.history.PreviousAttempts(threadID)
}

type stageTimer struct {
	inner *telemetry.StageTimer
}

func (o *Orchestrator) startStage(name string) stageTimer {
	if o.metrics == nil {
		return stageTimer{}
	}
	return stageTimer{inner: o.metrics.StartStage(name)}
}

func (s stageTimer) stop(result string) {
	if s.inner != nil {
		s.inner.Stop(result)
	}
}

func finalize(id uuid.UUID, d auction.StrategyDecision, p auction.ProxyDecision, source auction.DecisionSource, blockReason string) auction.FinalDecision {
	return auction.FinalDecision{
		DecisionID:           id,
		Strategy:             d.Strategy,
		RecommendedBidAmount: d.RecommendedBidAmount,
		Confidence:           d.Confidence,
		RiskLevel:            d.RiskLevel,
		Reasoning:            d.Reasoning,
		CurrentProxy:         p.CurrentProxy,
		CurrentBid:           p.CurrentBid,
		SafeMax:              p.SafeMax,
		NewProxyMax:          p.NewProxyMax,
		NextBidAmount:        p.NextBidAmount,
		MaxBudgetForDomain:   p.MaxBudgetForDomain,
		ShouldIncreaseProxy:  p.ShouldIncreaseProxy,
		ProxyAction:          p.ProxyAction,
		ProxyExplanation:     p.Explanation,
		DecisionSource:       source,
		BlockReason:          blockReason,
	}
}

func systemErrorDecision(id uuid.UUID, reason string) auction.FinalDecision {
	return auction.FinalDecision{
		DecisionID:           id,
		Strategy:             auction.StrategyDoNotBid,
		RecommendedBidAmount: 0,
		Confidence:           0,
		RiskLevel:            auction.RiskHigh,
		Reasoning:            reason,
		DecisionSource:       auction.SourceSystemError,
		BlockReason:          reason,
	}
}
