package http

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"bilancio/internal/core"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Personal Finance Tracker API"})
}

func (s *Server) handleAPIHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.started).String(),
	})
}

// handleHealthz is the bare liveness probe.
func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReadyz verifies the backend answers before reporting ready.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.Ping(r.Context()); err != nil {
		s.logger.WarnContext(r.Context(), "Readiness check failed", "error", err)
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.tracer.GetMetrics()
	rateLimitMetrics := s.limiter.GetMetrics()
	securityMetrics := s.detector.GetMetrics()

	totalTransactions := atomic.LoadInt64(&s.appMetrics.totalTransactions)
	cacheHits := atomic.LoadInt64(&s.appMetrics.cacheHits)
	cacheMisses := atomic.LoadInt64(&s.appMetrics.cacheMisses)
	uptime := time.Since(s.appMetrics.started)

	w.WriteHeader(http.StatusOK)

	// Prometheus-like exposition, hand-written
	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_request_duration_us_avg Mean response time in microseconds\n")
	fmt.Fprintf(w, "# TYPE http_request_duration_us_avg gauge\n")
	fmt.Fprintf(w, "http_request_duration_us_avg %d\n\n", traceMetrics.AverageResponseTimeUs())

	fmt.Fprintf(w, "# HELP transactions_total Transactions created minus deleted\n")
	fmt.Fprintf(w, "# TYPE transactions_total counter\n")
	fmt.Fprintf(w, "transactions_total %d\n\n", totalTransactions)

	fmt.Fprintf(w, "# HELP summary_cache_hits_total Total summary cache hits\n")
	fmt.Fprintf(w, "# TYPE summary_cache_hits_total counter\n")
	fmt.Fprintf(w, "summary_cache_hits_total %d\n\n", cacheHits)

	fmt.Fprintf(w, "# HELP summary_cache_misses_total Total summary cache misses\n")
	fmt.Fprintf(w, "# TYPE summary_cache_misses_total counter\n")
	fmt.Fprintf(w, "summary_cache_misses_total %d\n\n", cacheMisses)

	fmt.Fprintf(w, "# HELP summary_cache_entries Current summary cache entries\n")
	fmt.Fprintf(w, "# TYPE summary_cache_entries gauge\n")
	fmt.Fprintf(w, "summary_cache_entries %d\n\n", s.summaryCache.Size())

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rateLimitMetrics.TotalHits)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", s.limiter.ActiveClients())

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", uptime.Seconds())
}

// owner resolves the configured account for this request. Every /api/ route
// goes through here; a missing owner row answers 401 and the caller stops.
func (s *Server) owner(w http.ResponseWriter, r *http.Request) (core.User, bool) {
	u, err := s.backend.UserByEmail(r.Context(), s.ownerEmail)
	if err != nil {
		s.logger.WarnContext(r.Context(), "Owner lookup failed", "email", s.ownerEmail, "error", err)
		respondError(w, err)
		return core.User{}, false
	}
	return u, true
}

// fail answers the request with the mapped status. Server faults get logged
// with their details; client errors just go back to the caller.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, msg string, err error, args ...any) {
	if statusFromError(err) == http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), msg, append([]any{"error", err}, args...)...)
	}
	respondError(w, err)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	u, ok := s.owner(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(u))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	u, ok := s.owner(w, r)
	if !ok {
		return
	}
	categories, err := s.backend.ListCategories(r.Context(), u.ID)
	if err != nil {
		s.fail(w, r, "Category list failed", err, "user_id", u.ID)
		return
	}
	writeJSON(w, http.StatusOK, newCategoryList(categories))
}
