package storage

import (
	"context"
	"testing"

	"bilancio/internal/core"
)

func TestCreateTransactionFiresAlert(t *testing.T) {
	repo := newTestRepo(t)
	owner := demoOwner(t, repo)
	food := categoryID(t, repo, owner.ID, "Food")

	mustCreateBudget(t, repo, owner.ID, core.Budget{
		CategoryID: &food, Month: 8, Year: 2025, Limit: core.Money{Cents: 10000},
	})

	_, alerts := mustCreateTransaction(t, repo, owner.ID, core.Transaction{
		CategoryID: &food, Type: core.Expense,
		Amount: core.Money{Cents: 15000}, Date: core.NewDate(2025, 8, 10),
	})
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	a := alerts[0]
	if a.Category != "Food" || a.Month != 8 || a.Year != 2025 {
		t.Fatalf("unexpected alert scope: %+v", a)
	}
	if a.Spent.Cents != 15000 || a.Limit.Cents != 10000 {
		t.Fatalf("unexpected alert figures: %+v", a)
	}

	statuses, err := repo.ListBudgets(context.Background(), owner.ID, 8, 2025)
	if err != nil {
		t.Fatalf("list budgets: %v", err)
	}
	if !statuses[0].AlertSent {
		t.Fatalf("alert_sent must be true after the alert fired")
	}
}

func TestBudgetCreatedOverSpentMonthAlerts(t *testing.T) {
	repo := newTestRepo(t)
	owner := demoOwner(t, repo)

	mustCreateTransaction(t, repo, owner.ID, core.Transaction{
		Type: core.Expense, Amount: core.Money{Cents: 20000}, Date: core.NewDate(2025, 4, 2),
	})

	// The budget arrives after the spending: evaluation on create must fire.
	status, alerts := mustCreateBudget(t, repo, owner.ID, core.Budget{
		Month: 4, Year: 2025, Limit: core.Money{Cents: 10000},
	})
	if len(alerts) != 1 {
		t.Fatalf("expected alert on budget creation, got %d", len(alerts))
	}
	if alerts[0].Category != core.OverallCategory {
		t.Fatalf("overall budget alert expected %q, got %q", core.OverallCategory, alerts[0].Category)
	}
	if !status.AlertSent {
		t.Fatalf("returned status must carry the evaluated alert flag")
	}
	if status.Spent.Cents != 20000 || status.Remaining.Cents != -10000 {
		t.Fatalf("unexpected status figures: spent=%d remaining=%d", status.Spent.Cents, status.Remaining.Cents)
	}
}

func TestEvaluateScopeIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	owner := demoOwner(t, repo)

	mustCreateBudget(t, repo, owner.ID, core.Budget{Month: 8, Year: 2025, Limit: core.Money{Cents: 10000}})
	_, alerts := mustCreateTransaction(t, repo, owner.ID, core.Transaction{
		Type: core.Expense, Amount: core.Money{Cents: 15000}, Date: core.NewDate(2025, 8, 1),
	})
	if len(alerts) != 1 {
		t.Fatalf("expected initial alert, got %d", len(alerts))
	}

	// Re-running the evaluator against unchanged data emits nothing.
	for i := 0; i < 3; i++ {
		again, err := repo.EvaluateScope(context.Background(), owner.ID, 8, 2025)
		if err != nil {
			t.Fatalf("evaluate scope: %v", err)
		}
		if len(again) != 0 {
			t.Fatalf("run %d: idempotent evaluation fired %d alerts", i+1, len(again))
		}
	}
}

func TestSpentEqualLimitIsNotOver(t *testing.T) {
	repo := newTestRepo(t)
	owner := demoOwner(t, repo)

	mustCreateBudget(t, repo, owner.ID, core.Budget{Month: 8, Year: 2025, Limit: core.Money{Cents: 10000}})
	_, alerts := mustCreateTransaction(t, repo, owner.ID, core.Transaction{
		Type: core.Expense, Amount: core.Money{Cents: 10000}, Date: core.NewDate(2025, 8, 1),
	})
	if len(alerts) != 0 {
		t.Fatalf("spending exactly the limit must not alert, got %d", len(alerts))
	}

	statuses, err := repo.ListBudgets(context.Background(), owner.ID, 8, 2025)
	if err != nil {
		t.Fatalf("list budgets: %v", err)
	}
	if statuses[0].AlertSent {
		t.Fatalf("alert_sent must stay false at the limit")
	}
	if statuses[0].Remaining.Cents != 0 {
		t.Fatalf("expected zero remaining, got %d", statuses[0].Remaining.Cents)
	}
}

func TestAlertRearmsAfterDelete(t *testing.T) {
	repo := newTestRepo(t)
	owner := demoOwner(t, repo)
	food := categoryID(t, repo, owner.ID, "Food")

	budget, _ := mustCreateBudget(t, repo, owner.ID, core.Budget{
		CategoryID: &food, Month: 8, Year: 2025, Limit: core.Money{Cents: 10000},
	})

	_, alerts := mustCreateTransaction(t, repo, owner.ID, core.Transaction{
		CategoryID: &food, Type: core.Expense,
		Amount: core.Money{Cents: 5000}, Date: core.NewDate(2025, 8, 5),
	})
	if len(alerts) != 0 {
		t.Fatalf("under the limit must not alert")
	}

	second, alerts := mustCreateTransaction(t, repo, owner.ID, core.Transaction{
		CategoryID: &food, Type: core.Expense,
		Amount: core.Money{Cents: 6000}, Date: core.NewDate(2025, 8, 6),
	})
	if len(alerts) != 1 || alerts[0].Spent.Cents != 11000 {
		t.Fatalf("crossing the limit expected one alert at 11000 spent, got %+v", alerts)
	}

	// Deleting the crossing transaction drops spending back under the
	// limit: the flag resets silently, no event fires.
	alerts, err := repo.DeleteTransaction(context.Background(), owner.ID, second.ID)
	if err != nil {
		t.Fatalf("delete transaction: %v", err)
	}
	if len(alerts) != 0 {
		t.Fatalf("re-arming must be silent, got %d alerts", len(alerts))
	}

	got, err := repo.GetBudget(context.Background(), owner.ID, budget.ID)
	if err != nil {
		t.Fatalf("get budget: %v", err)
	}
	if got.AlertSent {
		t.Fatalf("alert_sent must reset once spending drops back")
	}

	// Crossing again fires again.
	_, alerts = mustCreateTransaction(t, repo, owner.ID, core.Transaction{
		CategoryID: &food, Type: core.Expense,
		Amount: core.Money{Cents: 7000}, Date: core.NewDate(2025, 8, 7),
	})
	if len(alerts) != 1 {
		t.Fatalf("re-armed budget must fire again, got %d", len(alerts))
	}
}

func TestUpdateAcrossMonthsEvaluatesBothScopes(t *testing.T) {
	repo := newTestRepo(t)
	owner := demoOwner(t, repo)

	jan, _ := mustCreateBudget(t, repo, owner.ID, core.Budget{Month: 1, Year: 2025, Limit: core.Money{Cents: 10000}})
	feb, _ := mustCreateBudget(t, repo, owner.ID, core.Budget{Month: 2, Year: 2025, Limit: core.Money{Cents: 10000}})

	tr, alerts := mustCreateTransaction(t, repo, owner.ID, core.Transaction{
		Type: core.Expense, Amount: core.Money{Cents: 15000}, Date: core.NewDate(2025, 1, 15),
	})
	if len(alerts) != 1 {
		t.Fatalf("january budget should alert, got %d", len(alerts))
	}

	// Moving the transaction into February drains January (silent re-arm)
	// and overruns February (new alert).
	_, alerts, err := repo.UpdateTransaction(context.Background(), owner.ID, tr.ID, core.Transaction{
		Type: core.Expense, Amount: core.Money{Cents: 15000}, Date: core.NewDate(2025, 2, 15),
	})
	if err != nil {
		t.Fatalf("update transaction: %v", err)
	}
	if len(alerts) != 1 || alerts[0].Month != 2 {
		t.Fatalf("expected exactly the february alert, got %+v", alerts)
	}

	janBudget, err := repo.GetBudget(context.Background(), owner.ID, jan.ID)
	if err != nil {
		t.Fatalf("get january budget: %v", err)
	}
	if janBudget.AlertSent {
		t.Fatalf("january budget must re-arm when the transaction moves out")
	}
	febBudget, err := repo.GetBudget(context.Background(), owner.ID, feb.ID)
	if err != nil {
		t.Fatalf("get february budget: %v", err)
	}
	if !febBudget.AlertSent {
		t.Fatalf("february budget must be marked alerted")
	}
}

func TestOverallBudgetCountsAllCategories(t *testing.T) {
	repo := newTestRepo(t)
	owner := demoOwner(t, repo)
	food := categoryID(t, repo, owner.ID, "Food")
	transport := categoryID(t, repo, owner.ID, "Transport")

	mustCreateBudget(t, repo, owner.ID, core.Budget{Month: 8, Year: 2025, Limit: core.Money{Cents: 10000}})

	mustCreateTransaction(t, repo, owner.ID, core.Transaction{
		CategoryID: &food, Type: core.Expense, Amount: core.Money{Cents: 4000}, Date: core.NewDate(2025, 8, 1),
	})
	mustCreateTransaction(t, repo, owner.ID, core.Transaction{
		CategoryID: &transport, Type: core.Expense, Amount: core.Money{Cents: 4000}, Date: core.NewDate(2025, 8, 2),
	})
	// Income never counts toward spending.
	mustCreateTransaction(t, repo, owner.ID, core.Transaction{
		Type: core.Income, Amount: core.Money{Cents: 100000}, Date: core.NewDate(2025, 8, 3),
	})
	// Uncategorized expense still counts for the overall budget.
	_, alerts := mustCreateTransaction(t, repo, owner.ID, core.Transaction{
		Type: core.Expense, Amount: core.Money{Cents: 3000}, Date: core.NewDate(2025, 8, 4),
	})
	if len(alerts) != 1 || alerts[0].Spent.Cents != 11000 {
		t.Fatalf("overall budget expected alert at 11000 spent, got %+v", alerts)
	}
	if alerts[0].Category != core.OverallCategory {
		t.Fatalf("expected %q label, got %q", core.OverallCategory, alerts[0].Category)
	}
}

func TestCategoryBudgetIgnoresOtherCategories(t *testing.T) {
	repo := newTestRepo(t)
	owner := demoOwner(t, repo)
	food := categoryID(t, repo, owner.ID, "Food")
	transport := categoryID(t, repo, owner.ID, "Transport")

	mustCreateBudget(t, repo, owner.ID, core.Budget{
		CategoryID: &food, Month: 8, Year: 2025, Limit: core.Money{Cents: 10000},
	})

	_, alerts := mustCreateTransaction(t, repo, owner.ID, core.Transaction{
		CategoryID: &transport, Type: core.Expense,
		Amount: core.Money{Cents: 50000}, Date: core.NewDate(2025, 8, 1),
	})
	if len(alerts) != 0 {
		t.Fatalf("spending in another category must not alert the food budget")
	}
}

func TestDecemberWindowRollsIntoJanuary(t *testing.T) {
	repo := newTestRepo(t)
	owner := demoOwner(t, repo)

	mustCreateBudget(t, repo, owner.ID, core.Budget{Month: 12, Year: 2025, Limit: core.Money{Cents: 10000}})

	// Last day of December counts toward the December scope.
	_, alerts := mustCreateTransaction(t, repo, owner.ID, core.Transaction{
		Type: core.Expense, Amount: core.Money{Cents: 10500}, Date: core.NewDate(2025, 12, 31),
	})
	if len(alerts) != 1 {
		t.Fatalf("december 31 spend must hit the december budget")
	}

	// January 1 of the next year does not.
	statusesBefore, err := repo.ListBudgets(context.Background(), owner.ID, 12, 2025)
	if err != nil {
		t.Fatalf("list budgets: %v", err)
	}
	mustCreateTransaction(t, repo, owner.ID, core.Transaction{
		Type: core.Expense, Amount: core.Money{Cents: 99999}, Date: core.NewDate(2026, 1, 1),
	})
	statusesAfter, err := repo.ListBudgets(context.Background(), owner.ID, 12, 2025)
	if err != nil {
		t.Fatalf("list budgets: %v", err)
	}
	if statusesAfter[0].Spent.Cents != statusesBefore[0].Spent.Cents {
		t.Fatalf("january spend leaked into the december window")
	}
}

func TestListBudgetScopes(t *testing.T) {
	repo := newTestRepo(t)
	owner := demoOwner(t, repo)

	mustCreateBudget(t, repo, owner.ID, core.Budget{Month: 1, Year: 2025, Limit: core.Money{Cents: 100}})
	mustCreateBudget(t, repo, owner.ID, core.Budget{Month: 1, Year: 2025, Limit: core.Money{Cents: 200}})
	mustCreateBudget(t, repo, owner.ID, core.Budget{Month: 2, Year: 2025, Limit: core.Money{Cents: 300}})

	scopes, err := repo.ListBudgetScopes(context.Background())
	if err != nil {
		t.Fatalf("list budget scopes: %v", err)
	}
	if len(scopes) != 2 {
		t.Fatalf("expected 2 distinct scopes, got %d", len(scopes))
	}
	if scopes[0].Month != 1 || scopes[1].Month != 2 {
		t.Fatalf("unexpected scope order: %+v", scopes)
	}
}
