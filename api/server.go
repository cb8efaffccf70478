// Package api provides the HTTP REST API for edgarlens.
//
// It exposes the caller-facing query surface: single-match resolution of a
// free-form identifier, ranked autocomplete suggestions, and enriched
// filing listings per registrant.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/seenimoa/edgarlens/internal/config"
	"github.com/seenimoa/edgarlens/internal/filings"
	"github.com/seenimoa/edgarlens/internal/infra"
	"github.com/seenimoa/edgarlens/internal/refindex"
	"github.com/seenimoa/edgarlens/internal/store"
)

// respCacheTTL bounds how long enriched filing listings and feed snapshots
// are served without refetching. EDGAR data changes on filing cadence, so a
// short window removes most duplicate upstream traffic without staleness.
const respCacheTTL = 5 * time.Minute

// Server is the HTTP API server.
type Server struct {
	router    chi.Router
	cfg       *config.Config
	resolver  *refindex.Resolver
	client    *filings.Client
	enricher  *filings.Enricher
	feed      *filings.Feed
	respCache *infra.Cache
	kv        *store.BadgerStore // nil when the external tier is off
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config) (*Server, error) {
	fetcher := infra.NewFetcher(
		infra.WithUserAgent(cfg.Edgar.UserAgent),
		infra.WithRateLimit(cfg.Edgar.RateLimit, time.Second),
	)

	var cacheOpts []refindex.CacheOption
	if cfg.Index.CacheTTL > 0 {
		cacheOpts = append(cacheOpts, refindex.WithTTL(time.Duration(cfg.Index.CacheTTL)*time.Second))
	}

	var kv *store.BadgerStore
	if cfg.Store.Enabled {
		opened, err := store.Open(cfg.Store.Path, cfg.Store.InMemory)
		if err != nil {
			// The external tier is optional infrastructure; its absence
			// degrades to memory-only caching.
			log.Printf("external store unavailable, continuing memory-only: %v", err)
		} else {
			kv = opened
			cacheOpts = append(cacheOpts, refindex.WithStore(kv))
		}
	}

	builder := refindex.NewBuilder(fetcher, cfg.Edgar.BaseURL)
	cache := refindex.NewIndexCache(builder, cacheOpts...)

	srv := &Server{
		cfg:       cfg,
		resolver:  refindex.NewResolver(cache),
		client:    filings.NewClient(fetcher, cfg.Edgar.DataBaseURL, cfg.Edgar.ArchiveBaseURL),
		enricher:  filings.NewEnricher(fetcher, cfg.Enrich.Concurrency),
		feed:      filings.NewFeed(fetcher, cfg.Edgar.ArchiveBaseURL),
		respCache: infra.NewCache(respCacheTTL),
		kv:        kv,
	}
	srv.router = srv.buildRouter()
	return srv, nil
}

// NewServerWith wires a server from pre-built components. Used by tests.
func NewServerWith(cfg *config.Config, resolver *refindex.Resolver, client *filings.Client, enricher *filings.Enricher, feed *filings.Feed) *Server {
	srv := &Server{
		cfg:       cfg,
		resolver:  resolver,
		client:    client,
		enricher:  enricher,
		feed:      feed,
		respCache: infra.NewCache(respCacheTTL),
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Close releases server-held resources.
func (s *Server) Close() error {
	if s.kv != nil {
		return s.kv.Close()
	}
	return nil
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/resolve", s.handleResolve)
		r.Get("/suggest", s.handleSuggest)
		r.Get("/filings/{cik}", s.handleFilings)
		r.Get("/feed/{cik}", s.handleFeed)
	})

	return r
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}

	cik, err := s.resolver.Resolve(r.Context(), query)
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"cik": cik})
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	rows, err := s.resolver.Suggest(r.Context(), query, limit)
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleFilings(w http.ResponseWriter, r *http.Request) {
	cik, ok := s.registrantID(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = s.cfg.Enrich.FilingLimit
	}

	key := fmt.Sprintf("filings:%s:%d", cik, limit)
	if cached, ok := s.respCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	recent, err := s.client.Recent(r.Context(), cik, limit)
	if err != nil {
		writeLookupError(w, err)
		return
	}
	enriched := s.enricher.Enrich(r.Context(), recent)
	s.respCache.Set(key, enriched)
	writeJSON(w, http.StatusOK, enriched)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	cik, ok := s.registrantID(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	key := fmt.Sprintf("feed:%s:%d", cik, limit)
	if cached, ok := s.respCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	entries, err := s.feed.Latest(r.Context(), cik, limit)
	if err != nil {
		writeLookupError(w, err)
		return
	}
	s.respCache.Set(key, entries)
	writeJSON(w, http.StatusOK, entries)
}

// registrantID resolves the {cik} path segment: a numeric id is normalized
// directly, anything else goes through full resolution.
func (s *Server) registrantID(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "cik")
	if cik, ok := refindex.NormalizeCIK(raw); ok {
		return cik, true
	}
	cik, err := s.resolver.Resolve(r.Context(), raw)
	if err != nil {
		writeLookupError(w, err)
		return "", false
	}
	return cik, true
}

// --- Response helpers ---

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeLookupError maps the error taxonomy to HTTP statuses: no match is a
// 404, an exhausted upstream is a 502, anything else a 500.
func writeLookupError(w http.ResponseWriter, err error) {
	var ue *infra.UpstreamError
	switch {
	case errors.Is(err, refindex.ErrNotFound):
		writeError(w, http.StatusNotFound, "no matching registrant")
	case errors.As(err, &ue):
		writeError(w, http.StatusBadGateway, fmt.Sprintf("upstream failure: %v", ue))
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
