package persistence

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// OrchestratorHistory adapts a HistoryStore to the orchestrator's narrow,
// synchronous RoundHistory read — a short summary string per previous
// attempt, never an error. A store failure degrades to an empty history
// rather than interrupting the call in flight, matching Market
// Intelligence's fail-open contract for the same reason: a missing
// enrichment signal should never block a decision.
type OrchestratorHistory struct {
	store HistoryStore
	log   zerolog.Logger
}

// NewOrchestratorHistory wraps store for use as an orchestrator.RoundHistory.
func NewOrchestratorHistory(store HistoryStore, log zerolog.Logger) *OrchestratorHistory {
	return &OrchestratorHistory{store: store, log: log.With().Str("component", "history").Logger()}
}

// PreviousAttempts summarizes every recorded round for threadID.
func (h *OrchestratorHistory) PreviousAttempts(threadID string) []string {
	if h.store == nil {
		return nil
	}
	rounds, err := h.store.RoundsForThread(context.Background(), threadID)
	if err != nil {
		h.log.Warn().Err(err).Str("thread_id", threadID).Msg("failed to load round history, proceeding without it")
		return nil
	}
	summaries := make([]string, 0, len(rounds))
	for _, r := range rounds {
		summaries = append(summaries, fmt.Sprintf("round %d: %s @ %.2f -> %s", r.RoundNumber, r.Strategy, r.Amount, r.InterimResult))
	}
	return summaries
}
