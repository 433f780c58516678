// Package memory is an in-memory ledger backend for development and tests.
// It applies the same validation and budget evaluation rules as the SQLite
// backend; fired alerts are logged but never published anywhere.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/log"
)

type Store struct {
	mu           sync.Mutex
	users        []core.User
	categories   []core.Category
	transactions []core.Transaction
	budgets      []core.Budget
	nextTxID     int64
	nextBudgetID int64
}

// New returns a store seeded with the demo owner and the default category
// set, matching what the SQLite migrations seed.
func New() *Store {
	s := &Store{}
	owner := s.addUser("demo@example.com", "Demo User")
	for _, c := range []struct {
		name string
		typ  core.TransactionType
	}{
		{"Food", core.Expense},
		{"Transport", core.Expense},
		{"Housing", core.Expense},
		{"Utilities", core.Expense},
		{"Entertainment", core.Expense},
		{"Salary", core.Income},
	} {
		s.addCategory(owner, c.name, c.typ)
	}
	return s
}

func (s *Store) addUser(email, name string) int64 {
	id := int64(len(s.users)) + 1
	s.users = append(s.users, core.User{
		ID:              id,
		Email:           email,
		Name:            name,
		ProfilePhotoURL: "/static/img/profile.jpg",
		CreatedAt:       time.Now().UTC(),
	})
	return id
}

func (s *Store) addCategory(ownerID int64, name string, typ core.TransactionType) {
	s.categories = append(s.categories, core.Category{
		ID:      int64(len(s.categories)) + 1,
		OwnerID: ownerID,
		Name:    name,
		Type:    typ,
	})
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) UserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return core.User{}, fmt.Errorf("user %s: %w", email, core.ErrNoOwner)
}

func (s *Store) ListCategories(_ context.Context, ownerID int64) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Category
	for _, c := range s.categories {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	// Same order as the SQLite backend: type descending, name ascending.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type > out[j].Type
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) ListTransactions(_ context.Context, ownerID int64, month, year int) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	filtered := month != 0 && year != 0
	var start, end core.Date
	if filtered {
		start, end = core.MonthWindow(year, month)
	}
	var out []core.Transaction
	for _, t := range s.transactions {
		if t.OwnerID != ownerID {
			continue
		}
		if filtered && !t.Date.In(start, end) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, ownerID, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, _, err := s.findTransaction(ownerID, id)
	return t, err
}

func (s *Store) CreateTransaction(ctx context.Context, ownerID int64, t core.Transaction) (core.Transaction, error) {
	t.OwnerID = ownerID
	t.CreatedAt = time.Now().UTC()
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.categoryOwned(ownerID, t.CategoryID); err != nil {
		return core.Transaction{}, err
	}
	s.nextTxID++
	t.ID = s.nextTxID
	s.transactions = append(s.transactions, t)

	month, year := t.Scope()
	s.evaluate(ctx, ownerID, month, year)
	return t, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, ownerID, id int64, t core.Transaction) (core.Transaction, error) {
	t.OwnerID = ownerID
	t.ID = id
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	old, idx, err := s.findTransaction(ownerID, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := s.categoryOwned(ownerID, t.CategoryID); err != nil {
		return core.Transaction{}, err
	}
	t.CreatedAt = old.CreatedAt
	s.transactions[idx] = t

	oldMonth, oldYear := old.Scope()
	newMonth, newYear := t.Scope()
	s.evaluate(ctx, ownerID, oldMonth, oldYear)
	if newMonth != oldMonth || newYear != oldYear {
		s.evaluate(ctx, ownerID, newMonth, newYear)
	}
	return t, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, ownerID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, idx, err := s.findTransaction(ownerID, id)
	if err != nil {
		return err
	}
	s.transactions = append(s.transactions[:idx], s.transactions[idx+1:]...)

	month, year := old.Scope()
	s.evaluate(ctx, ownerID, month, year)
	return nil
}

func (s *Store) ListBudgets(_ context.Context, ownerID int64, month, year int) ([]core.BudgetStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []core.Budget
	for _, b := range s.budgets {
		if b.OwnerID != ownerID {
			continue
		}
		if month != 0 && b.Month != month {
			continue
		}
		if year != 0 && b.Year != year {
			continue
		}
		matched = append(matched, b)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Year != matched[j].Year {
			return matched[i].Year > matched[j].Year
		}
		if matched[i].Month != matched[j].Month {
			return matched[i].Month > matched[j].Month
		}
		return matched[i].ID < matched[j].ID
	})
	out := make([]core.BudgetStatus, 0, len(matched))
	for _, b := range matched {
		out = append(out, s.status(b))
	}
	return out, nil
}

func (s *Store) CreateBudget(ctx context.Context, ownerID int64, b core.Budget) (core.BudgetStatus, error) {
	b.OwnerID = ownerID
	b.AlertSent = false
	if err := b.Validate(); err != nil {
		return core.BudgetStatus{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.categoryOwned(ownerID, b.CategoryID); err != nil {
		return core.BudgetStatus{}, err
	}
	s.nextBudgetID++
	b.ID = s.nextBudgetID
	s.budgets = append(s.budgets, b)

	s.evaluate(ctx, ownerID, b.Month, b.Year)
	stored, _, _ := s.findBudget(ownerID, b.ID)
	return s.status(stored), nil
}

func (s *Store) UpdateBudget(ctx context.Context, ownerID, id int64, b core.Budget) (core.BudgetStatus, error) {
	b.OwnerID = ownerID
	b.ID = id
	if err := b.Validate(); err != nil {
		return core.BudgetStatus{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	old, idx, err := s.findBudget(ownerID, id)
	if err != nil {
		return core.BudgetStatus{}, err
	}
	if err := s.categoryOwned(ownerID, b.CategoryID); err != nil {
		return core.BudgetStatus{}, err
	}
	// The evaluator owns the alert flag; input never overwrites it.
	b.AlertSent = old.AlertSent
	s.budgets[idx] = b

	s.evaluate(ctx, ownerID, old.Month, old.Year)
	if b.Month != old.Month || b.Year != old.Year {
		s.evaluate(ctx, ownerID, b.Month, b.Year)
	}
	stored, _, _ := s.findBudget(ownerID, id)
	return s.status(stored), nil
}

func (s *Store) DeleteBudget(_ context.Context, ownerID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, idx, err := s.findBudget(ownerID, id)
	if err != nil {
		return err
	}
	s.budgets = append(s.budgets[:idx], s.budgets[idx+1:]...)
	return nil
}

func (s *Store) MonthlySummary(_ context.Context, ownerID int64, month, year int) (core.MonthlySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start, end := core.MonthWindow(year, month)
	summary := core.MonthlySummary{Month: month, Year: year}

	totals := map[int64]core.Money{}
	for _, t := range s.transactions {
		if t.OwnerID != ownerID || !t.Date.In(start, end) {
			continue
		}
		switch t.Type {
		case core.Income:
			summary.TotalIncome = summary.TotalIncome.Add(t.Amount)
		case core.Expense:
			summary.TotalExpense = summary.TotalExpense.Add(t.Amount)
		}
		if t.CategoryID != nil {
			totals[*t.CategoryID] = totals[*t.CategoryID].Add(t.Amount)
		}
	}
	summary.Net = summary.TotalIncome.Sub(summary.TotalExpense)

	// Every category appears, zero when silent, name ascending.
	for _, c := range s.categories {
		if c.OwnerID != ownerID {
			continue
		}
		summary.ByCategory = append(summary.ByCategory, core.CategoryTotal{
			ID:    c.ID,
			Name:  c.Name,
			Type:  c.Type,
			Total: totals[c.ID],
		})
	}
	sort.Slice(summary.ByCategory, func(i, j int) bool {
		return summary.ByCategory[i].Name < summary.ByCategory[j].Name
	})

	var scoped []core.Budget
	for _, b := range s.budgets {
		if b.OwnerID == ownerID && b.Month == month && b.Year == year {
			scoped = append(scoped, b)
		}
	}
	// Overall budgets ahead of category budgets.
	sort.Slice(scoped, func(i, j int) bool {
		oi, oj := scoped[i].CategoryID == nil, scoped[j].CategoryID == nil
		if oi != oj {
			return oi
		}
		return scoped[i].ID < scoped[j].ID
	})
	for _, b := range scoped {
		summary.Budgets = append(summary.Budgets, s.status(b))
	}
	return summary, nil
}

// Callers below hold s.mu.

func (s *Store) findTransaction(ownerID, id int64) (core.Transaction, int, error) {
	for i, t := range s.transactions {
		if t.ID == id && t.OwnerID == ownerID {
			return t, i, nil
		}
	}
	return core.Transaction{}, 0, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
}

func (s *Store) findBudget(ownerID, id int64) (core.Budget, int, error) {
	for i, b := range s.budgets {
		if b.ID == id && b.OwnerID == ownerID {
			return b, i, nil
		}
	}
	return core.Budget{}, 0, fmt.Errorf("budget %d: %w", id, core.ErrNotFound)
}

func (s *Store) categoryOwned(ownerID int64, categoryID *int64) error {
	if categoryID == nil {
		return nil
	}
	for _, c := range s.categories {
		if c.ID == *categoryID && c.OwnerID == ownerID {
			return nil
		}
	}
	return fmt.Errorf("category %d: %w", *categoryID, core.ErrUnknownCategory)
}

func (s *Store) spent(ownerID int64, categoryID *int64, month, year int) core.Money {
	start, end := core.MonthWindow(year, month)
	var total core.Money
	for _, t := range s.transactions {
		if t.OwnerID != ownerID || t.Type != core.Expense || !t.Date.In(start, end) {
			continue
		}
		if categoryID != nil && (t.CategoryID == nil || *t.CategoryID != *categoryID) {
			continue
		}
		total = total.Add(t.Amount)
	}
	return total
}

func (s *Store) status(b core.Budget) core.BudgetStatus {
	spent := s.spent(b.OwnerID, b.CategoryID, b.Month, b.Year)
	return core.BudgetStatus{Budget: b, Spent: spent, Remaining: b.Limit.Sub(spent)}
}

func (s *Store) categoryLabel(b core.Budget) string {
	var name string
	if b.CategoryID != nil {
		for _, c := range s.categories {
			if c.ID == *b.CategoryID {
				name = c.Name
				break
			}
		}
	}
	return b.CategoryLabel(name)
}

// evaluate applies the alert transition to every budget in the scope, in id
// order as the SQLite evaluator does. Fired alerts only go to the log.
func (s *Store) evaluate(ctx context.Context, ownerID int64, month, year int) {
	idx := make([]int, 0, len(s.budgets))
	for i, b := range s.budgets {
		if b.OwnerID == ownerID && b.Month == month && b.Year == year {
			idx = append(idx, i)
		}
	}
	sort.Slice(idx, func(i, j int) bool { return s.budgets[idx[i]].ID < s.budgets[idx[j]].ID })

	for _, i := range idx {
		b := s.budgets[i]
		spent := s.spent(ownerID, b.CategoryID, month, year)
		newState, fire := core.EvaluateBudget(b.AlertSent, spent, b.Limit)
		s.budgets[i].AlertSent = newState
		if fire {
			log.LogBudgetAlert(ctx, b.ID, ownerID, s.categoryLabel(b),
				month, year, spent.Cents, b.Limit.Cents)
		}
	}
}
