package intelligence

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/domainauction/biddingengine/internal/cache"
	"github.com/domainauction/biddingengine/internal/domain/auction"
	"github.com/domainauction/biddingengine/internal/telemetry"
)

// Engine is the Market Intelligence component: the loaded tables plus an
// optional cache in front of the raw lookups. Tables are read-only after
// load; Reload swaps a freshly loaded set in with a single atomic pointer
// store, the "swap-in-place via a single writer" the spec's concurrency
// model requires for shared, read-mostly resources — concurrent Enrich
// calls never observe a half-updated table set.
type Engine struct {
	tables     atomic.Pointer[Tables]
	cache      cache.Cache
	thresholds Thresholds
	metrics    *telemetry.Registry

	bidderPath, domainPath, archetypePath string
}

// NewEngine wraps loaded Tables with the given cache, using DefaultThresholds.
// Pass cache.New() for an in-process cache or cache.NewAuto() to pick up
// REDIS_ADDR. Call SetThresholds afterward to apply a loaded Config's
// IntelligenceConfig.
func NewEngine(tables *Tables, c cache.Cache) *Engine {
	e := &Engine{cache: c, thresholds: DefaultThresholds()}
	e.tables.Store(tables)
	return e
}

// NewEngineFromFiles loads the three tables from disk and remembers their
// paths so a later Reload can re-read them.
func NewEngineFromFiles(bidderPath, domainPath, archetypePath string, c cache.Cache) (*Engine, error) {
	tables, err := LoadTables(bidderPath, domainPath, archetypePath)
	if err != nil {
		return nil, err
	}
	e := NewEngine(tables, c)
	e.bidderPath, e.domainPath, e.archetypePath = bidderPath, domainPath, archetypePath
	return e, nil
}

// SetThresholds replaces the engine's cluster-match, resource-score, and
// cache-TTL tunables — the live counterpart of loading a new Config.
func (e *Engine) SetThresholds(th Thresholds) { e.thresholds = th }

// SetMetrics wires a telemetry registry so cache hits and misses are
// recorded as biddingengine_cache_{hits,misses}_total by table kind. A nil
// registry (the default) means enrichment runs uninstrumented.
func (e *Engine) SetMetrics(m *telemetry.Registry) { e.metrics = m }

// Reload re-reads the three table files and atomically swaps them in,
// implementing the http interface's TableReloader contract (POST
// /tables/reload and the serve-mode periodic reload loop). It returns an
// error if the engine was not constructed with NewEngineFromFiles.
func (e *Engine) Reload(ctx context.Context) error {
	if e.bidderPath == "" {
		return fmt.Errorf("intelligence: engine has no configured table paths to reload from")
	}
	tables, err := LoadTables(e.bidderPath, e.domainPath, e.archetypePath)
	if err != nil {
		return fmt.Errorf("intelligence: reload: %w", err)
	}
	e.tables.Store(tables)
	return nil
}

func (e *Engine) currentTables() *Tables {
	t := e.tables.Load()
	if t == nil {
		return &Tables{}
	}
	return t
}

// Enrich computes the full Intelligence block for ctx. It never returns an
// error: any lookup failure degrades to an "unknown" intel fragment rather
// than aborting the call, per the fail-open contract.
func (e *Engine) Enrich(ctx auction.Context) auction.Intelligence {
	bidder := e.bidderIntel(ctx)
	domain := e.domainIntel(ctx)
	archetype := e.archetypeIntel(ctx)

	winProbability := computeWinProbability(ctx, bidder, domain)
	ev := computeExpectedValue(ctx, domain, winProbability)
	resourceScore, priority := computeResourceScore(ctx, winProbability, ev, e.thresholds)

	return auction.Intelligence{
		Bidder:                bidder,
		Domain:                domain,
		Archetype:             archetype,
		WinProbability:        winProbability,
		ExpectedValueAnalysis: ev,
		ResourceScore:         resourceScore,
		ResourcePriority:      priority,
	}
}

func (e *Engine) bidderIntel(ctx auction.Context) auction.BidderIntel {
	key := fmt.Sprintf("bidder:%s:%.2f:%.1f:%t:%t", ctx.LastBidderID,
		ctx.BidderAnalysis.AggressionScore, ctx.BidderAnalysis.ReactionTimeAvgS,
		ctx.BidderAnalysis.BotDetected, ctx.BidderAnalysis.CorporateBuyer)

	if cached, ok := e.getCached(cache.KindBidder, key); ok {
		var intel auction.BidderIntel
		if err := json.Unmarshal(cached, &intel); err == nil {
			return intel
		}
	}

	intel := lookupBidder(e.currentTables(), ctx, e.thresholds)
	e.setCached(cache.KindBidder, key, intel)
	return intel
}

func (e *Engine) domainIntel(ctx auction.Context) auction.DomainIntel {
	key := fmt.Sprintf("domain:%s:%.2f", ctx.Domain, ctx.EstimatedValue)

	if cached, ok := e.getCached(cache.KindDomain, key); ok {
		var intel auction.DomainIntel
		if err := json.Unmarshal(cached, &intel); err == nil {
			return intel
		}
	}

	intel := lookupDomain(e.currentTables(), ctx)
	e.setCached(cache.KindDomain, key, intel)
	return intel
}

func (e *Engine) archetypeIntel(ctx auction.Context) auction.ArchetypeIntel {
	key := "archetype:" + string(ctx.Platform)

	if cached, ok := e.getCached(cache.KindArchetype, key); ok {
		var intel auction.ArchetypeIntel
		if err := json.Unmarshal(cached, &intel); err == nil {
			return intel
		}
	}

	intel := lookupArchetype(e.currentTables(), ctx)
	e.setCached(cache.KindArchetype, key, intel)
	return intel
}

func (e *Engine) getCached(kind cache.Kind, key string) ([]byte, bool) {
	if e.cache == nil {
		return nil, false
	}
	v, ok := e.cache.Get(kind, key)
	if e.metrics != nil {
		if ok {
			e.metrics.CacheHits.WithLabelValues(string(kind)).Inc()
		} else {
			e.metrics.CacheMisses.WithLabelValues(string(kind)).Inc()
		}
	}
	return v, ok
}

func (e *Engine) setCached(kind cache.Kind, key string, v any) {
	if e.cache == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	e.cache.Set(kind, key, b, e.thresholds.LookupCacheTTL)
}
