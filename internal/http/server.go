// Package http serves the JSON API for the finance tracker: transactions,
// budgets, categories, and the monthly summary.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"bilancio/internal/backend"
	"bilancio/internal/cache"
	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/middleware/ratelimit"
	"bilancio/internal/middleware/security"
	"bilancio/internal/middleware/trace"
)

// maxBodyBytes caps request bodies. Finance payloads are tiny; anything
// larger than this is not a client of ours.
const maxBodyBytes = 64 << 10

const (
	summaryCacheTTL      = 5 * time.Minute
	cacheCleanupInterval = 10 * time.Minute
	summaryQueryTimeout  = 7 * time.Second
)

// Options configures the server. Zero values fall back to sane defaults.
type Options struct {
	Addr               string
	OwnerEmail         string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	SummaryCacheSize   int
	RateLimitPerMinute int
	Logger             *log.Logger
}

// appMetrics holds application-level counters exposed at /metrics.
type appMetrics struct {
	started           time.Time
	totalTransactions int64
	cacheHits         int64
	cacheMisses       int64
}

type Server struct {
	http.Server

	backend    backend.Backend
	ownerEmail string
	logger     *log.Logger

	// Summary responses are cached per (owner, month, year); concurrent
	// misses for the same key collapse into one backend query.
	summaryCache cache.Cache[core.MonthlySummary]
	cacheManager *cache.Manager
	summaryGroup singleflight.Group

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	appMetrics appMetrics

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(b backend.Backend, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.SummaryCacheSize < 1 {
		opts.SummaryCacheSize = 128
	}

	summaryCache := cache.NewLRUCache[core.MonthlySummary](opts.SummaryCacheSize, summaryCacheTTL)
	manager := cache.NewManager()
	manager.Register(summaryCache)
	manager.StartCleanup(cacheCleanupInterval)

	logger := opts.Logger.WithComponent(log.ComponentHTTP)
	detector := security.NewDetector()

	s := &Server{
		backend:      b,
		ownerEmail:   opts.OwnerEmail,
		logger:       logger,
		summaryCache: summaryCache,
		cacheManager: manager,
		limiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:     detector,
		tracer:       trace.NewMiddleware(detector.ExtractClientIP, log.NewStructuredLogger(logger)),
		appMetrics:   appMetrics{started: time.Now()},
	}

	mux := http.NewServeMux()
	s.routes(mux)

	s.Server = http.Server{
		Addr:         opts.Addr,
		Handler:      s.middleware(mux),
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /api/health", s.handleAPIHealth)
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/profile", s.handleProfile)
	mux.HandleFunc("GET /api/categories", s.handleListCategories)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/budgets", s.handleListBudgets)
	mux.HandleFunc("POST /api/budgets", s.handleCreateBudget)
	mux.HandleFunc("PUT /api/budgets/{id}", s.handleUpdateBudget)
	mux.HandleFunc("DELETE /api/budgets/{id}", s.handleDeleteBudget)

	mux.HandleFunc("GET /api/summary/monthly", s.handleMonthlySummary)
}

// middleware builds the chain around the mux. Order matters: security
// headers go on every response including 429s, the tracer assigns the
// request id before anything logs, and the rate limiter sits innermost so
// denied requests still carry headers and an id.
func (s *Server) middleware(next http.Handler) http.Handler {
	h := next
	h = s.limiter.Middleware(s.detector.ExtractClientIP, nil)(h)
	h = bodyLimit(maxBodyBytes)(h)
	h = s.detectProbes(h)
	h = log.ComponentMiddleware(log.ComponentHTTP)(h)
	h = log.RequestIDMiddleware(func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	})(h)
	h = log.Middleware(s.logger)(h)
	h = s.tracer.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	return h
}

// bodyLimit caps the request body so a rogue client cannot stream
// unbounded JSON at the decoder.
func bodyLimit(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}

// detectProbes logs requests matching scanner signatures. They are served
// normally; the log line is for operators watching traffic.
func (s *Server) detectProbes(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			s.logger.WarnContext(r.Context(), "Suspicious request pattern",
				"method", r.Method,
				"path", r.URL.Path,
				"client_ip", s.detector.ExtractClientIP(r))
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown stops the listener plus the background cache and limiter loops.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.cacheManager != nil {
			s.cacheManager.Stop()
		}
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
