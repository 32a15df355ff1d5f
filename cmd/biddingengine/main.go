// Command biddingengine is the CLI surface around the decision engine,
// structured like cmd/cryptorun/main.go: a cobra root command plus
// subcommands, zerolog console output on a TTY and JSON output otherwise.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/domainauction/biddingengine/infra/breakers"
	"github.com/domainauction/biddingengine/internal/application/intelligence"
	"github.com/domainauction/biddingengine/internal/application/orchestrator"
	"github.com/domainauction/biddingengine/internal/application/reasoner"
	"github.com/domainauction/biddingengine/internal/application/rules"
	"github.com/domainauction/biddingengine/internal/cache"
	"github.com/domainauction/biddingengine/internal/config"
	"github.com/domainauction/biddingengine/internal/domain/auction"
	bhttp "github.com/domainauction/biddingengine/internal/interfaces/http"
	"github.com/domainauction/biddingengine/internal/persistence"
	"github.com/domainauction/biddingengine/internal/persistence/postgres"
	"github.com/domainauction/biddingengine/internal/telemetry"
)

const (
	appName = "biddingengine"
	version = "v1.0.0"
)

var (
	cfgPath    string
	contextPath string
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	var log zerolog.Logger
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	} else {
		log = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, relying on process environment")
	}

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Domain-auction bidding decision engine",
		Version: version,
		Long: `biddingengine is a decision engine that, given the live state of a
single domain-name auction, recommends a bidding action: a strategy, a
bid amount, a proxy-adjustment directive, and a confidence score. It never
executes bids and never polls auction sites — it is consumed by an outer
loop that does.`,
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config file (optional; defaults apply)")

	rootCmd.AddCommand(newDecideCmd(&log), newServeCmd(&log), newTablesCmd(&log))

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newDecideCmd(log *zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decide",
		Short: "Run one decision for a single auction context and print the result as JSON",
		Long: `Reads an AuctionContext from --context (a JSON file) and runs it through
the full decision pipeline, printing the resulting FinalDecision as JSON on
stdout for the outer poll loop to consume.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecide(cmd.Context(), *log)
		},
	}
	cmd.Flags().StringVar(&contextPath, "context", "", "path to a JSON file containing the AuctionContext (required)")
	cmd.MarkFlagRequired("context")
	return cmd
}

func runDecide(ctx context.Context, log zerolog.Logger) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	raw, err := os.ReadFile(contextPath)
	if err != nil {
		return fmt.Errorf("read context file: %w", err)
	}
	var actx auction.Context
	if err := json.Unmarshal(raw, &actx); err != nil {
		return fmt.Errorf("parse context file: %w", err)
	}

	orch := buildOrchestrator(cfg, log)

	deadlineCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Reasoner.TimeoutSeconds+5)*time.Second)
	defer cancel()

	decision := orch.Decide(deadlineCtx, actx)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(decision)
}

func newServeCmd(log *zerolog.Logger) *cobra.Command {
	var host string
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a long-lived HTTP server exposing /decide, /health, /tables/reload, and /metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if port != 0 {
				cfg.Server.Port = port
			}

			metrics := telemetry.NewRegistry()
			engine, orch := buildOrchestratorWithMetrics(cfg, *log, metrics)

			srv := bhttp.NewServer(bhttp.Config{
				Host:         cfg.Server.Host,
				Port:         cfg.Server.Port,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 10 * time.Second,
				IdleTimeout:  60 * time.Second,
			}, orch, engine, metrics, *log)

			reloadInterval := time.Duration(cfg.Tables.ReloadIntervalSec) * time.Second
			srv.StartPeriodicReload(cmd.Context(), reloadInterval)

			return srv.ListenAndServe()
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "override the configured listen host")
	cmd.Flags().IntVar(&port, "port", 0, "override the configured listen port")
	return cmd
}

func newTablesCmd(log *zerolog.Logger) *cobra.Command {
	tablesCmd := &cobra.Command{
		Use:   "tables",
		Short: "Market Intelligence table management",
	}
	reloadCmd := &cobra.Command{
		Use:   "reload",
		Short: "Load and validate the Market Intelligence tables (no running server is touched)",
		Long: `Loads fresh copies of the bidder/domain/archetype CSV tables from the
configured directory and validates them. In serve mode, POST /tables/reload
performs the same reload against the running engine; this subcommand is a
standalone validation pass useful before restarting the server.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			_, err = intelligence.NewEngineFromFiles(
				tablePath(cfg, cfg.Tables.BidderFile),
				tablePath(cfg, cfg.Tables.DomainFile),
				tablePath(cfg, cfg.Tables.ArchetypeFile),
				cache.New(),
			)
			if err != nil {
				return fmt.Errorf("tables failed to load: %w", err)
			}
			log.Info().Msg("tables loaded and validated successfully")
			return nil
		},
	}
	tablesCmd.AddCommand(reloadCmd)
	return tablesCmd
}

func tablePath(cfg *config.Config, file string) string {
	return cfg.Tables.Dir + "/" + file
}

func buildOrchestrator(cfg *config.Config, log zerolog.Logger) *orchestrator.Orchestrator {
	_, orch := buildOrchestratorWithMetrics(cfg, log, nil)
	return orch
}

// buildOrchestratorWithMetrics wires the Market Intelligence engine, the
// reasoner, the rule selector, and round history into one Orchestrator. It
// also returns the engine itself so callers (the HTTP server) can expose it
// as a TableReloader — both the running orchestrator and /tables/reload
// must act on the exact same *intelligence.Engine, never a second copy.
func buildOrchestratorWithMetrics(cfg *config.Config, log zerolog.Logger, metrics *telemetry.Registry) (*intelligence.Engine, *orchestrator.Orchestrator) {
	engine, err := intelligence.NewEngineFromFiles(
		tablePath(cfg, cfg.Tables.BidderFile),
		tablePath(cfg, cfg.Tables.DomainFile),
		tablePath(cfg, cfg.Tables.ArchetypeFile),
		cache.NewAuto(),
	)
	if err != nil {
		log.Warn().Err(err).Msg("market intelligence tables unavailable; decisions will use unknown/fail-open enrichment")
		engine = intelligence.NewEngine(&intelligence.Tables{}, cache.NewAuto())
	}
	engine.SetThresholds(thresholdsFromConfig(cfg.Intelligence))
	engine.SetMetrics(metrics)

	var r *reasoner.Reasoner
	if client := newReasonerClient(log); client != nil {
		r = reasoner.NewWithSettings(client, log, reasonerSettingsFromConfig(cfg.Reasoner))
		r.SetMetrics(metrics)
	} else {
		log.Info().Msg("no reasoner credentials configured; running in rules-only mode")
	}

	selector := rules.NewSelector()
	orch := orchestrator.New(engine, r, selector, buildRoundHistory(log), metrics, log)
	return engine, orch
}

// thresholdsFromConfig converts a loaded Config's IntelligenceConfig into
// the intelligence.Thresholds the engine reads its cluster-match and
// resource-score cutoffs from.
func thresholdsFromConfig(c config.IntelligenceConfig) intelligence.Thresholds {
	return intelligence.Thresholds{
		MinClusterSamples:          c.MinClusterSamples,
		ClusterAggressionTolerance: c.ClusterAggressionTolerance,
		ClusterReactionToleranceS:  c.ClusterReactionToleranceS,
		ResourceScoreHighThreshold: c.ResourceScoreHighThreshold,
		ResourceScoreMedThreshold:  c.ResourceScoreMedThreshold,
		LookupCacheTTL:             time.Duration(c.LookupCacheTTLSeconds) * time.Second,
	}
}

// reasonerSettingsFromConfig converts a loaded Config's ReasonerConfig into
// the reasoner.Settings (timeout, rate limit, breaker policy) NewWithSettings
// builds a Reasoner from.
func reasonerSettingsFromConfig(c config.ReasonerConfig) reasoner.Settings {
	return reasoner.Settings{
		Timeout:            time.Duration(c.TimeoutSeconds) * time.Second,
		RateLimitPerSecond: c.RateLimitPerSecond,
		Breaker: breakers.Policy{
			ConsecutiveFailures: uint32(c.BreakerConsecutiveFails),
			MinRequests:         uint32(c.BreakerMinRequests),
			FailureRate:         c.BreakerFailureRate,
			Interval:            time.Duration(c.BreakerTimeoutSeconds) * time.Second,
			OpenTimeout:         time.Duration(c.BreakerTimeoutSeconds) * time.Second,
		},
	}
}

// buildRoundHistory connects to Postgres when STORAGE_DSN is set, so the
// orchestrator can fold previous-attempt summaries into the reasoner
// prompt. A missing DSN degrades to no history, the same fail-open posture
// Market Intelligence and the History Recorder both take on a missing
// collaborator.
func buildRoundHistory(log zerolog.Logger) orchestrator.RoundHistory {
	dsn := os.Getenv("STORAGE_DSN")
	if dsn == "" {
		return nil
	}
	store, _, err := postgres.Open(context.Background(), postgres.DefaultConnConfig(dsn))
	if err != nil {
		log.Warn().Err(err).Msg("failed to connect to history store; proceeding without round history")
		return nil
	}
	return persistence.NewOrchestratorHistory(store, log)
}

// newReasonerClient returns nil when no reasoner API key is configured, so
// the engine degrades to rules-only mode rather than failing startup, per
// the spec's environment contract. A production build wires a concrete
// vendor SDK behind reasoner.Client here.
func newReasonerClient(log zerolog.Logger) reasoner.Client {
	if os.Getenv("REASONER_API_KEY") == "" {
		return nil
	}
	log.Warn().Msg("REASONER_API_KEY is set but no concrete reasoner.Client is wired into this binary; running in rules-only mode")
	return nil
}
