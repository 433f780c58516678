package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bilancio/internal/ledger/memory"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv := NewServer(memory.New(), Options{
		Addr:               ":0",
		OwnerEmail:         "demo@example.com",
		RateLimitPerMinute: 1000,
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
	return out
}

// foodCategoryID looks the seeded Food category up through the API so tests
// never hardcode seed row ids.
func foodCategoryID(t *testing.T, srv *Server) int64 {
	t.Helper()
	rr := doJSON(t, srv, http.MethodGet, "/api/categories", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("categories status = %d", rr.Code)
	}
	for _, c := range decodeBody[[]categoryResponse](t, rr) {
		if c.Name == "Food" {
			return c.ID
		}
	}
	t.Fatal("seeded Food category not found")
	return 0
}

func TestRootAndHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodGet, "/", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("root status = %d", rr.Code)
	}
	root := decodeBody[map[string]string](t, rr)
	if root["message"] != "Personal Finance Tracker API" {
		t.Errorf("root message = %q", root["message"])
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("/api/health status = %d", rr.Code)
	}
	if health := decodeBody[map[string]string](t, rr); health["status"] != "ok" {
		t.Errorf("health status = %q, want ok", health["status"])
	}

	rr = doJSON(t, srv, http.MethodGet, "/healthz", "")
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Errorf("/healthz = %d %q", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodGet, "/readyz", "")
	if rr.Code != http.StatusOK {
		t.Errorf("/readyz status = %d", rr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/transactions", `{"amount": 1, "type": "expense"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content type = %q", ct)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"http_requests_total",
		"transactions_total 1",
		"summary_cache_entries",
		"rate_limit_hits_total",
		"suspicious_requests_total",
		"uptime_seconds",
	} {
		if !strings.Contains(body, metric) {
			t.Errorf("metrics output missing %q", metric)
		}
	}
}

func TestRequestIDAndSecurityHeaders(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodGet, "/api/health", "")
	if id := rr.Header().Get("X-Request-ID"); !strings.HasPrefix(id, "req_") {
		t.Errorf("X-Request-ID = %q, want req_ prefix", id)
	}
	if v := rr.Header().Get("X-Content-Type-Options"); v != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", v)
	}
	if v := rr.Header().Get("X-Frame-Options"); v != "DENY" {
		t.Errorf("X-Frame-Options = %q", v)
	}
}

func TestProfileAndCategories(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodGet, "/api/profile", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("profile status = %d: %s", rr.Code, rr.Body.String())
	}
	profile := decodeBody[userResponse](t, rr)
	if profile.Email != "demo@example.com" {
		t.Errorf("profile email = %q", profile.Email)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/categories", "")
	categories := decodeBody[[]categoryResponse](t, rr)
	if len(categories) != 6 {
		t.Fatalf("category count = %d, want 6", len(categories))
	}
	// income sorts before expense, then names ascending
	if categories[0].Name != "Salary" || categories[1].Name != "Entertainment" {
		t.Errorf("category order = %q, %q", categories[0].Name, categories[1].Name)
	}
}

func TestUnknownOwnerIs401(t *testing.T) {
	srv := NewServer(memory.New(), Options{
		Addr:               ":0",
		OwnerEmail:         "ghost@example.com",
		RateLimitPerMinute: 1000,
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	rr := doJSON(t, srv, http.MethodGet, "/api/profile", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
	body := decodeBody[map[string]string](t, rr)
	if body["error"] == "" {
		t.Error("401 must carry an error message")
	}
}

func TestTransactionCRUDFlow(t *testing.T) {
	srv := newTestServer(t)
	foodID := foodCategoryID(t, srv)

	rr := doJSON(t, srv, http.MethodPost, "/api/transactions",
		fmt.Sprintf(`{"amount": "42.50", "type": "expense", "category_id": %d, "description": "groceries", "transaction_date": "2025-03-10"}`, foodID))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rr.Code, rr.Body.String())
	}
	created := decodeBody[transactionResponse](t, rr)
	if created.ID == 0 {
		t.Fatal("created transaction has no id")
	}
	if created.Amount != 42.50 || created.TransactionDate != "2025-03-10" {
		t.Errorf("created = %+v", created)
	}
	if created.CreatedAt == "" {
		t.Error("created_at missing")
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/transactions?month=3&year=2025", "")
	if got := decodeBody[[]transactionResponse](t, rr); len(got) != 1 {
		t.Fatalf("march list = %d entries, want 1", len(got))
	}

	rr = doJSON(t, srv, http.MethodPut, fmt.Sprintf("/api/transactions/%d", created.ID),
		`{"amount": 99, "type": "expense", "description": "rent", "transaction_date": "2025-04-01"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rr.Code, rr.Body.String())
	}
	updated := decodeBody[transactionResponse](t, rr)
	if updated.Amount != 99 || updated.Description != "rent" {
		t.Errorf("updated = %+v", updated)
	}
	if updated.CategoryID != nil {
		t.Error("full replace should clear the category when absent")
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/transactions?month=3&year=2025", "")
	if got := decodeBody[[]transactionResponse](t, rr); len(got) != 0 {
		t.Fatalf("march still holds %d entries after the move", len(got))
	}

	rr = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", created.ID), "")
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status = %d: %s", rr.Code, rr.Body.String())
	}
	if del := decodeBody[map[string]int64](t, rr); del["deleted"] != created.ID {
		t.Errorf("deleted = %d, want %d", del["deleted"], created.ID)
	}

	rr = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", created.ID), "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rr.Code)
	}
}

func TestTransactionValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing amount", `{"type": "expense"}`},
		{"negative amount", `{"amount": -1, "type": "expense"}`},
		{"bad type", `{"amount": 1, "type": "transfer"}`},
		{"bad date", `{"amount": 1, "type": "expense", "transaction_date": "soon"}`},
		{"unknown category", `{"amount": 1, "type": "expense", "category_id": 999}`},
		{"malformed body", `{"amount": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, srv, http.MethodPost, "/api/transactions", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400: %s", rr.Code, rr.Body.String())
			}
			if body := decodeBody[map[string]string](t, rr); body["error"] == "" {
				t.Error("400 must carry an error message")
			}
		})
	}

	rr := doJSON(t, srv, http.MethodGet, "/api/transactions?month=abc", "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("non-integer month: status = %d, want 400", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodPut, "/api/transactions/999", `{"amount": 1, "type": "expense"}`)
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown id: status = %d, want 404", rr.Code)
	}
}

func TestBudgetAlertOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/budgets",
		`{"month": 5, "year": 2025, "limit_amount": "50.00"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("budget create status = %d: %s", rr.Code, rr.Body.String())
	}
	budget := decodeBody[budgetResponse](t, rr)
	if budget.AlertSent {
		t.Error("fresh budget must not be flagged")
	}
	if budget.Spent != 0 || budget.Remaining != 50.00 {
		t.Errorf("fresh budget spent/remaining = %v/%v", budget.Spent, budget.Remaining)
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/transactions",
		`{"amount": "60.00", "type": "expense", "transaction_date": "2025-05-10"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("transaction create status = %d: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/budgets?month=5&year=2025", "")
	budgets := decodeBody[[]budgetResponse](t, rr)
	if len(budgets) != 1 {
		t.Fatalf("budget list = %d entries, want 1", len(budgets))
	}
	if !budgets[0].AlertSent {
		t.Error("overspent budget should be flagged")
	}
	if budgets[0].Spent != 60.00 || budgets[0].Remaining != -10.00 {
		t.Errorf("spent/remaining = %v/%v, want 60/-10", budgets[0].Spent, budgets[0].Remaining)
	}

	// Raising the limit above spending re-arms the alert silently.
	rr = doJSON(t, srv, http.MethodPut, fmt.Sprintf("/api/budgets/%d", budgets[0].ID),
		`{"month": 5, "year": 2025, "limit_amount": "100.00"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("budget update status = %d: %s", rr.Code, rr.Body.String())
	}
	if updated := decodeBody[budgetResponse](t, rr); updated.AlertSent {
		t.Error("alert should reset once spending is back under the limit")
	}
}

func TestBudgetValidationAndNotFound(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/budgets", `{"month": 13, "year": 2025, "limit_amount": 10}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("month 13: status = %d, want 400", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/budgets", `{"month": 5, "year": 2025}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("missing limit: status = %d, want 400", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodDelete, "/api/budgets/42", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown budget: status = %d, want 404", rr.Code)
	}
}

func TestMonthlySummaryEndpoint(t *testing.T) {
	srv := newTestServer(t)
	foodID := foodCategoryID(t, srv)

	rr := doJSON(t, srv, http.MethodPost, "/api/transactions",
		fmt.Sprintf(`{"amount": "120.00", "type": "expense", "category_id": %d, "transaction_date": "2025-06-05"}`, foodID))
	if rr.Code != http.StatusCreated {
		t.Fatalf("transaction create status = %d", rr.Code)
	}
	rr = doJSON(t, srv, http.MethodPost, "/api/transactions",
		`{"amount": "2000.00", "type": "income", "transaction_date": "2025-06-01"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("income create status = %d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/summary/monthly?month=6&year=2025", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("summary status = %d: %s", rr.Code, rr.Body.String())
	}
	summary := decodeBody[summaryResponse](t, rr)
	if summary.TotalIncome != 2000.00 || summary.TotalExpense != 120.00 || summary.Net != 1880.00 {
		t.Errorf("totals = %v/%v/%v", summary.TotalIncome, summary.TotalExpense, summary.Net)
	}
	if len(summary.ByCategory) != 6 {
		t.Fatalf("by_category rows = %d, want all 6 categories", len(summary.ByCategory))
	}
	var foodTotal, housingTotal float64
	for _, row := range summary.ByCategory {
		switch row.Name {
		case "Food":
			foodTotal = row.Total
		case "Housing":
			housingTotal = row.Total
		}
	}
	if foodTotal != 120.00 {
		t.Errorf("Food total = %v, want 120", foodTotal)
	}
	if housingTotal != 0 {
		t.Errorf("Housing total = %v, want zero row", housingTotal)
	}

	// A mutation invalidates the cached summary.
	rr = doJSON(t, srv, http.MethodPost, "/api/transactions",
		`{"amount": "30.00", "type": "expense", "transaction_date": "2025-06-20"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("second transaction status = %d", rr.Code)
	}
	rr = doJSON(t, srv, http.MethodGet, "/api/summary/monthly?month=6&year=2025", "")
	if summary = decodeBody[summaryResponse](t, rr); summary.TotalExpense != 150.00 {
		t.Errorf("post-mutation expense total = %v, want 150", summary.TotalExpense)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/summary/monthly?month=0", "")
	if rr.Code != http.StatusOK {
		t.Errorf("month=0 should fall back to the current month, got %d", rr.Code)
	}
	rr = doJSON(t, srv, http.MethodGet, "/api/summary/monthly?month=13", "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("month=13 status = %d, want 400", rr.Code)
	}
}

func TestRateLimitOnMutations(t *testing.T) {
	srv := NewServer(memory.New(), Options{
		Addr:               ":0",
		OwnerEmail:         "demo@example.com",
		RateLimitPerMinute: 2,
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	for i := 0; i < 2; i++ {
		rr := doJSON(t, srv, http.MethodPost, "/api/transactions",
			`{"amount": 1, "type": "expense"}`)
		if rr.Code != http.StatusCreated {
			t.Fatalf("request %d status = %d", i, rr.Code)
		}
	}

	rr := doJSON(t, srv, http.MethodPost, "/api/transactions", `{"amount": 1, "type": "expense"}`)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("third mutation status = %d, want 429", rr.Code)
	}

	// Reads keep flowing while mutations are throttled.
	rr = doJSON(t, srv, http.MethodGet, "/api/transactions", "")
	if rr.Code != http.StatusOK {
		t.Errorf("read during throttle status = %d", rr.Code)
	}
}
