package adapters

import (
	"context"

	"bilancio/internal/core"
	"bilancio/internal/services"
	"bilancio/internal/storage"
)

// SQLiteAdapter implements the ledger ports over the SQLite repository.
// Reads go straight to storage; writes go through the services so alerts
// get logged and published.
type SQLiteAdapter struct {
	storage      *storage.SQLiteRepository
	transactions *services.TransactionService
	budgets      *services.BudgetService
}

func NewSQLiteAdapter(storage *storage.SQLiteRepository, transactions *services.TransactionService, budgets *services.BudgetService) *SQLiteAdapter {
	return &SQLiteAdapter{
		storage:      storage,
		transactions: transactions,
		budgets:      budgets,
	}
}

// Ping implements ledger.Pinger
func (a *SQLiteAdapter) Ping(ctx context.Context) error {
	return a.storage.Ping(ctx)
}

// UserByEmail implements ledger.OwnerResolver
func (a *SQLiteAdapter) UserByEmail(ctx context.Context, email string) (core.User, error) {
	return a.storage.UserByEmail(ctx, email)
}

// ListCategories implements ledger.CategoryReader
func (a *SQLiteAdapter) ListCategories(ctx context.Context, ownerID int64) ([]core.Category, error) {
	return a.storage.ListCategories(ctx, ownerID)
}

// ListTransactions implements ledger.TransactionStore
func (a *SQLiteAdapter) ListTransactions(ctx context.Context, ownerID int64, month, year int) ([]core.Transaction, error) {
	return a.storage.ListTransactions(ctx, ownerID, month, year)
}

// GetTransaction implements ledger.TransactionStore
func (a *SQLiteAdapter) GetTransaction(ctx context.Context, ownerID, id int64) (core.Transaction, error) {
	return a.storage.GetTransaction(ctx, ownerID, id)
}

// CreateTransaction implements ledger.TransactionStore
func (a *SQLiteAdapter) CreateTransaction(ctx context.Context, ownerID int64, t core.Transaction) (core.Transaction, error) {
	return a.transactions.Create(ctx, ownerID, t)
}

// UpdateTransaction implements ledger.TransactionStore
func (a *SQLiteAdapter) UpdateTransaction(ctx context.Context, ownerID, id int64, t core.Transaction) (core.Transaction, error) {
	return a.transactions.Update(ctx, ownerID, id, t)
}

// DeleteTransaction implements ledger.TransactionStore
func (a *SQLiteAdapter) DeleteTransaction(ctx context.Context, ownerID, id int64) error {
	return a.transactions.Delete(ctx, ownerID, id)
}

// ListBudgets implements ledger.BudgetStore
func (a *SQLiteAdapter) ListBudgets(ctx context.Context, ownerID int64, month, year int) ([]core.BudgetStatus, error) {
	return a.storage.ListBudgets(ctx, ownerID, month, year)
}

// CreateBudget implements ledger.BudgetStore
func (a *SQLiteAdapter) CreateBudget(ctx context.Context, ownerID int64, b core.Budget) (core.BudgetStatus, error) {
	return a.budgets.Create(ctx, ownerID, b)
}

// UpdateBudget implements ledger.BudgetStore
func (a *SQLiteAdapter) UpdateBudget(ctx context.Context, ownerID, id int64, b core.Budget) (core.BudgetStatus, error) {
	return a.budgets.Update(ctx, ownerID, id, b)
}

// DeleteBudget implements ledger.BudgetStore
func (a *SQLiteAdapter) DeleteBudget(ctx context.Context, ownerID, id int64) error {
	return a.budgets.Delete(ctx, ownerID, id)
}

// MonthlySummary implements ledger.SummaryReader
func (a *SQLiteAdapter) MonthlySummary(ctx context.Context, ownerID int64, month, year int) (core.MonthlySummary, error) {
	return a.storage.MonthlySummary(ctx, ownerID, month, year)
}
