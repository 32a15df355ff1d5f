package reasoner

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/domainauction/biddingengine/internal/domain/auction"
	"github.com/domainauction/biddingengine/internal/telemetry"
	"github.com/domainauction/biddingengine/infra/breakers"
)

// Client is the minimal LLM completion surface the Reasoner Adapter needs.
// A concrete implementation (OpenAI, Anthropic, a local model server, ...)
// adapts its own SDK to this interface; none of the domain logic here
// depends on which one is wired in.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// DefaultTimeout bounds a single reasoner call; it is independent of
// whatever deadline the caller's context already carries; the tighter of
// the two wins.
const DefaultTimeout = 10 * time.Second

// DefaultRateLimit throttles outbound reasoner calls to avoid tripping the
// upstream provider's own rate limiting.
const DefaultRateLimit = 5 // requests per second

// Settings bundles the resilience knobs New builds a Reasoner from. The CLI
// converts internal/config's ReasonerConfig into one (every field but
// Model, with the Breaker* fields folded into a breakers.Policy).
type Settings struct {
	Timeout            time.Duration
	RateLimitPerSecond float64
	Breaker            breakers.Policy
}

// DefaultSettings is what a Reasoner gets when built via New — the
// ReasonerPolicy breaker plus the package's default timeout and rate
// limit.
func DefaultSettings() Settings {
	return Settings{
		Timeout:            DefaultTimeout,
		RateLimitPerSecond: DefaultRateLimit,
		Breaker:            breakers.ReasonerPolicy(),
	}
}

// Reasoner is the Reasoner Adapter: it proposes a StrategyDecision from an
// external LLM, or reports no proposal, and never returns an error to the
// orchestrator.
type Reasoner struct {
	client  Client
	breaker *breakers.Breaker
	limiter *rate.Limiter
	timeout time.Duration
	log     zerolog.Logger
	metrics *telemetry.Registry
}

// New constructs a Reasoner around client with DefaultSettings.
func New(client Client, log zerolog.Logger) *Reasoner {
	return NewWithSettings(client, log, DefaultSettings())
}

// NewWithSettings constructs a Reasoner around client, with its own circuit
// breaker and rate limiter configured from s — the path a loaded Config's
// ReasonerConfig feeds into.
func NewWithSettings(client Client, log zerolog.Logger, s Settings) *Reasoner {
	return &Reasoner{
		client:  client,
		breaker: breakers.New("reasoner", s.Breaker),
		limiter: rate.NewLimiter(rate.Limit(s.RateLimitPerSecond), int(s.RateLimitPerSecond)),
		timeout: s.Timeout,
		log:     log.With().Str("component", "reasoner").Logger(),
	}
}

// SetMetrics wires a telemetry registry so the breaker's state is recorded
// as biddingengine_breaker_state after every call. A nil registry (the
// default) means the adapter runs uninstrumented.
func (r *Reasoner) SetMetrics(m *telemetry.Registry) { r.metrics = m }

func (r *Reasoner) recordBreakerState() {
	if r.metrics != nil {
		r.metrics.SetBreakerState(r.breaker.Name(), r.breaker.StateValue())
	}
}

// Propose builds a prompt from ctx/intel/history, calls the LLM client
// through the rate limiter and circuit breaker, and parses the response
// into a StrategyDecision. It returns ok=false — never an error — for any
// of: rate limiting, an open circuit, a context deadline, a network error,
// unparseable output, schema mismatch, or a semantically impossible
// decision (negative bid, unknown strategy label).
func (r *Reasoner) Propose(ctx context.Context, actx auction.Context, intel auction.Intelligence, previousAttempts []string) (auction.StrategyDecision, bool) {
	if err := r.limiter.Wait(ctx); err != nil {
		r.log.Warn().Err(err).Msg("reasoner rate limiter aborted wait")
		return auction.StrategyDecision{}, false
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	system, user := BuildPrompt(actx, intel, previousAttempts)

	raw, err := r.breaker.Execute(func() (any, error) {
		return r.client.Complete(callCtx, system, user)
	})
	r.recordBreakerState()
	if err != nil {
		r.log.Warn().Err(err).Msg("reasoner call failed or circuit open")
		return auction.StrategyDecision{}, false
	}

	content, ok := raw.(string)
	if !ok {
		r.log.Warn().Msg("reasoner client returned non-string content")
		return auction.StrategyDecision{}, false
	}

	decision, err := parseAndCoerce(content, actx)
	if err != nil {
		r.log.Warn().Err(err).Msg("reasoner output rejected")
		return auction.StrategyDecision{}, false
	}

	return decision, true
}

// rawDecision mirrors the JSON shape demanded of the model, accepting
// loosely-typed numeric/string fields before coercion into the strict
// domain type.
type rawDecision struct {
	Strategy             string      `json:"strategy"`
	RecommendedBidAmount json.Number `json:"recommended_bid_amount"`
	Confidence           json.Number `json:"confidence"`
	RiskLevel            string      `json:"risk_level"`
	Reasoning            string      `json:"reasoning"`
}

// parseAndCoerce extracts a JSON object from content (tolerating prose
// wrapped around it), validates every field against the domain's
// constraints, and returns a usable StrategyDecision or an error
// describing why the output was rejected.
func parseAndCoerce(content string, actx auction.Context) (auction.StrategyDecision, error) {
	jsonStr := extractJSONObject(content)
	if jsonStr == "" {
		return auction.StrategyDecision{}, errNoJSON
	}

	dec := json.NewDecoder(strings.NewReader(jsonStr))
	dec.UseNumber()
	var raw rawDecision
	if err := dec.Decode(&raw); err != nil {
		return auction.StrategyDecision{}, err
	}

	strategy := auction.Strategy(strings.ToLower(strings.TrimSpace(raw.Strategy)))
	if !validStrategy(strategy) {
		return auction.StrategyDecision{}, errUnknownStrategy
	}

	amount, err := floatOf(raw.RecommendedBidAmount)
	if err != nil || amount < 0 {
		return auction.StrategyDecision{}, errBadAmount
	}

	confidence, err := floatOf(raw.Confidence)
	if err != nil || confidence < 0 || confidence > 1 {
		return auction.StrategyDecision{}, errBadConfidence
	}

	risk := auction.RiskLevel(strings.ToLower(strings.TrimSpace(raw.RiskLevel)))
	if risk != auction.RiskLow && risk != auction.RiskMedium && risk != auction.RiskHigh {
		return auction.StrategyDecision{}, errBadRisk
	}

	decision := auction.StrategyDecision{
		Strategy:             strategy,
		RecommendedBidAmount: amount,
		Confidence:           confidence,
		RiskLevel:            risk,
		Reasoning:            strings.TrimSpace(raw.Reasoning),
	}

	if !decision.Valid() {
		return auction.StrategyDecision{}, errSemanticallyImpossible
	}
	if amount > actx.BudgetAvailable {
		return auction.StrategyDecision{}, errSemanticallyImpossible
	}

	return decision, nil
}

func validStrategy(s auction.Strategy) bool {
	for _, allowed := range AllowedStrategies {
		if s == allowed {
			return true
		}
	}
	return false
}

func floatOf(n json.Number) (float64, error) {
	if n == "" {
		return 0, errMissingNumber
	}
	return strconv.ParseFloat(n.String(), 64)
}

// extractJSONObject returns the substring spanning the first '{' and the
// last '}' in content, or "" if either is absent. Models routinely wrap
// their JSON answer in prose or a markdown fence despite instructions.
func extractJSONObject(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return content[start : end+1]
}
