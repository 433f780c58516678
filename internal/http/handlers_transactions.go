package http

import (
	"net/http"
	"sync/atomic"
	"time"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	u, ok := s.owner(w, r)
	if !ok {
		return
	}
	month, year, err := parseMonthYear(r)
	if err != nil {
		respondError(w, err)
		return
	}
	transactions, err := s.backend.ListTransactions(r.Context(), u.ID, month, year)
	if err != nil {
		s.fail(w, r, "Transaction list failed", err, "user_id", u.ID, "month", month, "year", year)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionList(transactions))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	u, ok := s.owner(w, r)
	if !ok {
		return
	}
	var req transactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := req.toCore(time.Now())
	if err != nil {
		respondError(w, err)
		return
	}
	created, err := s.backend.CreateTransaction(r.Context(), u.ID, t)
	if err != nil {
		s.fail(w, r, "Transaction create failed", err, "user_id", u.ID)
		return
	}
	atomic.AddInt64(&s.appMetrics.totalTransactions, 1)
	s.invalidateSummaries(r.Context(), u.ID)
	writeJSON(w, http.StatusCreated, newTransactionResponse(created))
}

// handleUpdateTransaction replaces every client-settable field. Partial
// updates are not supported; callers resend the whole record.
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	u, ok := s.owner(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	var req transactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := req.toCore(time.Now())
	if err != nil {
		respondError(w, err)
		return
	}
	updated, err := s.backend.UpdateTransaction(r.Context(), u.ID, id, t)
	if err != nil {
		s.fail(w, r, "Transaction update failed", err, "user_id", u.ID, "transaction_id", id)
		return
	}
	s.invalidateSummaries(r.Context(), u.ID)
	writeJSON(w, http.StatusOK, newTransactionResponse(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	u, ok := s.owner(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err := s.backend.DeleteTransaction(r.Context(), u.ID, id); err != nil {
		s.fail(w, r, "Transaction delete failed", err, "user_id", u.ID, "transaction_id", id)
		return
	}
	atomic.AddInt64(&s.appMetrics.totalTransactions, -1)
	s.invalidateSummaries(r.Context(), u.ID)
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": id})
}
