// Package http exposes the bidding engine over HTTP for the outer poll
// loop: a decide endpoint, a reload endpoint for the Market Intelligence
// tables, and the Prometheus scrape endpoint. Structured like the teacher's
// internal/interfaces/http/server.go: a gorilla/mux router wrapping a
// config struct and a set of handlers, built with NewServer(config) and
// driven by ListenAndServe/Shutdown from the caller.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/domainauction/biddingengine/internal/application/orchestrator"
	"github.com/domainauction/biddingengine/internal/domain/auction"
	"github.com/domainauction/biddingengine/internal/telemetry"
)

// Config holds the server's listener settings.
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultConfig mirrors the teacher's DefaultServerConfig defaults.
func DefaultConfig() Config {
	return Config{
		Host:         "127.0.0.1",
		Port:         8080,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// TableReloader swaps the Market Intelligence tables in place.
type TableReloader interface {
	Reload(ctx context.Context) error
}

// Server wires the orchestrator behind an HTTP API.
type Server struct {
	router *mux.Router
	http   *http.Server
	orch   *orchestrator.Orchestrator
	tables TableReloader
	metrics *telemetry.Registry
	log    zerolog.Logger
}

// NewServer constructs a Server. tables and metrics may be nil.
func NewServer(cfg Config, orch *orchestrator.Orchestrator, tables TableReloader, metrics *telemetry.Registry, log zerolog.Logger) *Server {
	router := mux.NewRouter()
	s := &Server{
		router:  router,
		orch:    orch,
		tables:  tables,
		metrics: metrics,
		log:     log.With().Str("component", "http_server").Logger(),
	}
	s.routes()
	s.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/decide", s.handleDecide).Methods(http.MethodPost)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/tables/reload", s.handleTablesReload).Methods(http.MethodPost)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}
}

// StartPeriodicReload launches a background reload loop against the
// configured TableReloader, the same time.NewTicker/select pattern the
// teacher's scheduled commands use. It is a no-op when no reloader is
// configured or interval is non-positive, and stops when ctx is done.
func (s *Server) StartPeriodicReload(ctx context.Context, interval time.Duration) {
	if s.tables == nil || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.tables.Reload(ctx); err != nil {
					s.log.Warn().Err(err).Msg("periodic table reload failed")
				} else {
					s.log.Info().Msg("periodic table reload succeeded")
				}
			}
		}
	}()
}

// ListenAndServe blocks serving HTTP until the server is shut down.
func (s *Server) ListenAndServe() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server listening")
	return s.http.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	var actx auction.Context
	if err := json.NewDecoder(r.Body).Decode(&actx); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid auction context: "+err.Error())
		return
	}

	ctx := r.Context()
	if deadline, ok := r.Context().Deadline(); !ok || deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()
	}

	decision := s.orch.Decide(ctx, actx)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(decision)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

func (s *Server) handleTablesReload(w http.ResponseWriter, r *http.Request) {
	if s.tables == nil {
		writeJSONError(w, http.StatusNotImplemented, "no table reloader configured")
		return
	}
	if err := s.tables.Reload(r.Context()); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "reload failed: "+err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "reloaded"})
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
