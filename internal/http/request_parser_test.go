package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bilancio/internal/core"
)

func TestAmountValueUnmarshal(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantCents int64
		wantSet   bool
		wantErr   bool
	}{
		{"number", `12.34`, 1234, true, false},
		{"numeric string", `"12.34"`, 1234, true, false},
		{"string rounds half up", `"12.345"`, 1235, true, false},
		{"integer", `7`, 700, true, false},
		{"zero", `0`, 0, true, false},
		{"null stays unset", `null`, 0, false, false},
		{"negative rejected", `-5`, 0, false, true},
		{"word rejected", `"abc"`, 0, false, true},
		{"bool rejected", `true`, 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a amountValue
			err := json.Unmarshal([]byte(tt.raw), &a)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("Unmarshal(%s) expected error, got none", tt.raw)
				}
				if !errors.Is(err, core.ErrInvalidAmount) {
					t.Errorf("Unmarshal(%s) error = %v, want ErrInvalidAmount", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal(%s) error = %v", tt.raw, err)
			}
			if a.set != tt.wantSet {
				t.Errorf("set = %v, want %v", a.set, tt.wantSet)
			}
			if a.money.Cents != tt.wantCents {
				t.Errorf("cents = %d, want %d", a.money.Cents, tt.wantCents)
			}
		})
	}
}

func TestTransactionRequestToCore(t *testing.T) {
	now := time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC)

	t.Run("date defaults to today", func(t *testing.T) {
		var req transactionRequest
		body := `{"amount": "25.50", "type": "expense", "description": "groceries"}`
		if err := json.Unmarshal([]byte(body), &req); err != nil {
			t.Fatalf("Unmarshal error = %v", err)
		}

		tx, err := req.toCore(now)
		if err != nil {
			t.Fatalf("toCore() error = %v", err)
		}
		if tx.Amount.Cents != 2550 {
			t.Errorf("Amount = %d cents, want 2550", tx.Amount.Cents)
		}
		if tx.Date.Year() != 2025 || tx.Date.Month() != 3 || tx.Date.Day() != 15 {
			t.Errorf("Date = %v, want 2025-03-15", tx.Date)
		}
	})

	t.Run("explicit date wins", func(t *testing.T) {
		var req transactionRequest
		body := `{"amount": 10, "type": "income", "transaction_date": "2024-12-31"}`
		if err := json.Unmarshal([]byte(body), &req); err != nil {
			t.Fatalf("Unmarshal error = %v", err)
		}

		tx, err := req.toCore(now)
		if err != nil {
			t.Fatalf("toCore() error = %v", err)
		}
		if tx.Date.Year() != 2024 || tx.Date.Month() != 12 || tx.Date.Day() != 31 {
			t.Errorf("Date = %v, want 2024-12-31", tx.Date)
		}
	})

	errTests := []struct {
		name string
		body string
		want error
	}{
		{"missing amount", `{"type": "expense"}`, core.ErrInvalidAmount},
		{"bad type", `{"amount": 1, "type": "transfer"}`, core.ErrInvalidType},
		{"missing type", `{"amount": 1}`, core.ErrInvalidType},
		{"bad date", `{"amount": 1, "type": "expense", "transaction_date": "31/12/2024"}`, core.ErrInvalidDate},
		{"long description", `{"amount": 1, "type": "expense", "description": "` + strings.Repeat("x", 256) + `"}`, core.ErrInvalidDescription},
	}
	for _, tt := range errTests {
		t.Run(tt.name, func(t *testing.T) {
			var req transactionRequest
			if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
				t.Fatalf("Unmarshal error = %v", err)
			}
			if _, err := req.toCore(now); !errors.Is(err, tt.want) {
				t.Errorf("toCore() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBudgetRequestToCore(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		var req budgetRequest
		body := `{"month": 5, "year": 2025, "limit_amount": "300"}`
		if err := json.Unmarshal([]byte(body), &req); err != nil {
			t.Fatalf("Unmarshal error = %v", err)
		}

		b, err := req.toCore()
		if err != nil {
			t.Fatalf("toCore() error = %v", err)
		}
		if b.Limit.Cents != 30000 {
			t.Errorf("Limit = %d cents, want 30000", b.Limit.Cents)
		}
		if b.AlertSent {
			t.Error("AlertSent must start false")
		}
	})

	errTests := []struct {
		name string
		body string
		want error
	}{
		{"missing limit", `{"month": 5, "year": 2025}`, core.ErrInvalidLimit},
		{"missing month", `{"year": 2025, "limit_amount": 100}`, core.ErrInvalidMonth},
		{"month thirteen", `{"month": 13, "year": 2025, "limit_amount": 100}`, core.ErrInvalidMonth},
		{"missing year", `{"month": 5, "limit_amount": 100}`, core.ErrInvalidYear},
		{"negative limit", `{"month": 5, "year": 2025, "limit_amount": -1}`, core.ErrInvalidAmount},
	}
	for _, tt := range errTests {
		t.Run(tt.name, func(t *testing.T) {
			var req budgetRequest
			err := json.Unmarshal([]byte(tt.body), &req)
			if err == nil {
				_, err = req.toCore()
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseMonthYear(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantMonth int
		wantYear  int
		wantErr   error
	}{
		{"both given", "month=3&year=2025", 3, 2025, nil},
		{"absent means zero", "", 0, 0, nil},
		{"month only", "month=7", 7, 0, nil},
		{"month not a number", "month=abc", 0, 0, core.ErrInvalidMonth},
		{"year not a number", "year=20x5", 0, 0, core.ErrInvalidYear},
		{"month out of range", "month=13&year=2025", 0, 0, core.ErrInvalidMonth},
		{"month zero given", "month=0&year=2025", 0, 2025, nil},
		{"negative year", "year=-3", 0, 0, core.ErrInvalidYear},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/transactions?"+tt.query, nil)
			month, year, err := parseMonthYear(r)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if month != tt.wantMonth || year != tt.wantYear {
				t.Errorf("got (%d, %d), want (%d, %d)", month, year, tt.wantMonth, tt.wantYear)
			}
		})
	}
}

func TestParseMonthYearDefaults(t *testing.T) {
	now := time.Date(2025, 8, 25, 12, 0, 0, 0, time.UTC)

	r := httptest.NewRequest(http.MethodGet, "/api/summary/monthly", nil)
	month, year, err := parseMonthYearDefaults(r, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if month != 8 || year != 2025 {
		t.Errorf("got (%d, %d), want current (8, 2025)", month, year)
	}

	r = httptest.NewRequest(http.MethodGet, "/api/summary/monthly?month=2", nil)
	month, year, err = parseMonthYearDefaults(r, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if month != 2 || year != 2025 {
		t.Errorf("got (%d, %d), want (2, 2025)", month, year)
	}
}
