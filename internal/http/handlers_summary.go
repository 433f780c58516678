package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"bilancio/internal/core"
)

func summaryCacheKey(ownerID int64, month, year int) string {
	return fmt.Sprintf("summary:%d:%04d-%02d", ownerID, year, month)
}

func ownerCachePrefix(ownerID int64) string {
	return fmt.Sprintf("summary:%d:", ownerID)
}

// invalidateSummaries drops every cached month for the owner. Mutations can
// move spending between months, so one key is never enough.
func (s *Server) invalidateSummaries(ctx context.Context, ownerID int64) {
	if n := s.summaryCache.DeletePrefix(ownerCachePrefix(ownerID)); n > 0 {
		s.logger.DebugContext(ctx, "Summary cache invalidated", "user_id", ownerID, "entries", n)
	}
}

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	u, ok := s.owner(w, r)
	if !ok {
		return
	}
	month, year, err := parseMonthYearDefaults(r, time.Now())
	if err != nil {
		respondError(w, err)
		return
	}

	key := summaryCacheKey(u.ID, month, year)
	if cached, found := s.summaryCache.Get(key); found {
		atomic.AddInt64(&s.appMetrics.cacheHits, 1)
		s.logger.DebugContext(r.Context(), "Summary cache hit", "user_id", u.ID, "month", month, "year", year)
		writeJSON(w, http.StatusOK, newSummaryResponse(cached))
		return
	}
	atomic.AddInt64(&s.appMetrics.cacheMisses, 1)

	// Concurrent misses for the same scope collapse into one query.
	v, err, _ := s.summaryGroup.Do(key, func() (any, error) {
		cctx, cancel := context.WithTimeout(r.Context(), summaryQueryTimeout)
		defer cancel()
		summary, err := s.backend.MonthlySummary(cctx, u.ID, month, year)
		if err != nil {
			return nil, err
		}
		s.summaryCache.Set(key, summary)
		return summary, nil
	})
	if err != nil {
		s.fail(w, r, "Monthly summary failed", err, "user_id", u.ID, "month", month, "year", year)
		return
	}
	writeJSON(w, http.StatusOK, newSummaryResponse(v.(core.MonthlySummary)))
}
