package core

import (
	"testing"
	"time"
)

func TestTransactionTypeValidate(t *testing.T) {
	cases := []struct {
		tt TransactionType
		ok bool
	}{
		{Income, true},
		{Expense, true},
		{"transfer", false},
		{"", false},
	}
	for i, tc := range cases {
		err := tc.tt.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestMonthWindow(t *testing.T) {
	cases := []struct {
		year, month int
		start, end  Date
	}{
		{2025, 1, NewDate(2025, 1, 1), NewDate(2025, 2, 1)},
		{2025, 6, NewDate(2025, 6, 1), NewDate(2025, 7, 1)},
		{2025, 12, NewDate(2025, 12, 1), NewDate(2026, 1, 1)}, // year rollover
	}
	for i, tc := range cases {
		start, end := MonthWindow(tc.year, tc.month)
		if !start.Equal(tc.start.Time) || !end.Equal(tc.end.Time) {
			t.Fatalf("case %d expected [%v, %v), got [%v, %v)", i, tc.start, tc.end, start, end)
		}
	}
}

func TestDateIn(t *testing.T) {
	start, end := MonthWindow(2025, 12)
	cases := []struct {
		d  Date
		in bool
	}{
		{NewDate(2025, 12, 1), true},  // start is inclusive
		{NewDate(2025, 12, 31), true}, // last day of the month
		{NewDate(2026, 1, 1), false},  // end is exclusive
		{NewDate(2025, 11, 30), false},
	}
	for i, tc := range cases {
		if got := tc.d.In(start, end); got != tc.in {
			t.Fatalf("case %d %v expected in=%v, got %v", i, tc.d, tc.in, got)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Type:   Expense,
		Amount: Money{Cents: 100},
		Date:   NewDate(2025, 1, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	zeroAmount := good
	zeroAmount.Amount = Money{}
	if err := zeroAmount.Validate(); err != nil {
		t.Fatalf("zero amount expected ok, got %v", err)
	}

	long := make([]byte, 256)
	for i := range long {
		long[i] = 'x'
	}
	bads := []Transaction{
		{Type: "transfer", Amount: Money{Cents: 1}, Date: NewDate(2025, 1, 1)},
		{Type: Expense, Amount: Money{Cents: -1}, Date: NewDate(2025, 1, 1)},
		{Type: Expense, Amount: Money{Cents: 1}, Date: Date{Time: time.Time{}}}, // zero date
		{Type: Expense, Amount: Money{Cents: 1}, Date: NewDate(2025, 1, 1), Description: string(long)},
	}
	for i, tr := range bads {
		if err := tr.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestBudgetValidate(t *testing.T) {
	good := Budget{Month: 1, Year: 2025, Limit: Money{Cents: 10000}}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	zeroLimit := Budget{Month: 12, Year: 2025}
	if err := zeroLimit.Validate(); err != nil {
		t.Fatalf("zero limit expected ok, got %v", err)
	}

	bads := []Budget{
		{Month: 0, Year: 2025, Limit: Money{Cents: 1}},
		{Month: 13, Year: 2025, Limit: Money{Cents: 1}},
		{Month: 5, Year: 0, Limit: Money{Cents: 1}},
		{Month: 5, Year: 2025, Limit: Money{Cents: -1}},
	}
	for i, b := range bads {
		if err := b.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestBudgetCategoryLabel(t *testing.T) {
	catID := int64(3)
	cases := []struct {
		b    Budget
		name string
		out  string
	}{
		{Budget{CategoryID: &catID}, "Food", "Food"},
		{Budget{CategoryID: nil}, "", OverallCategory},
		{Budget{CategoryID: &catID}, "", OverallCategory}, // name lost, fall back
	}
	for i, tc := range cases {
		if got := tc.b.CategoryLabel(tc.name); got != tc.out {
			t.Fatalf("case %d expected %q, got %q", i, tc.out, got)
		}
	}
}

func TestValidationFailed(t *testing.T) {
	if !ValidationFailed(ErrInvalidAmount) || !ValidationFailed(ErrUnknownCategory) {
		t.Fatalf("expected validation errors to be recognized")
	}
	if ValidationFailed(ErrNotFound) || ValidationFailed(ErrNoOwner) {
		t.Fatalf("lookup errors must not read as validation failures")
	}
}
