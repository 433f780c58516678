package http

import (
	"net/http"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	u, ok := s.owner(w, r)
	if !ok {
		return
	}
	month, year, err := parseMonthYear(r)
	if err != nil {
		respondError(w, err)
		return
	}
	budgets, err := s.backend.ListBudgets(r.Context(), u.ID, month, year)
	if err != nil {
		s.fail(w, r, "Budget list failed", err, "user_id", u.ID, "month", month, "year", year)
		return
	}
	writeJSON(w, http.StatusOK, newBudgetList(budgets))
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	u, ok := s.owner(w, r)
	if !ok {
		return
	}
	var req budgetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	b, err := req.toCore()
	if err != nil {
		respondError(w, err)
		return
	}
	created, err := s.backend.CreateBudget(r.Context(), u.ID, b)
	if err != nil {
		s.fail(w, r, "Budget create failed", err, "user_id", u.ID)
		return
	}
	s.invalidateSummaries(r.Context(), u.ID)
	writeJSON(w, http.StatusCreated, newBudgetResponse(created))
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	u, ok := s.owner(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	var req budgetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	b, err := req.toCore()
	if err != nil {
		respondError(w, err)
		return
	}
	updated, err := s.backend.UpdateBudget(r.Context(), u.ID, id, b)
	if err != nil {
		s.fail(w, r, "Budget update failed", err, "user_id", u.ID, "budget_id", id)
		return
	}
	s.invalidateSummaries(r.Context(), u.ID)
	writeJSON(w, http.StatusOK, newBudgetResponse(updated))
}

// handleDeleteBudget removes the budget without touching spending; nothing
// is left to re-evaluate once the row is gone.
func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	u, ok := s.owner(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err := s.backend.DeleteBudget(r.Context(), u.ID, id); err != nil {
		s.fail(w, r, "Budget delete failed", err, "user_id", u.ID, "budget_id", id)
		return
	}
	s.invalidateSummaries(r.Context(), u.ID)
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": id})
}
