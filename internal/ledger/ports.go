package ledger

import (
	"context"

	"bilancio/internal/core"
)

// Ports for ledger backends. Write operations run the budget evaluation
// for the affected scope before returning.
type (
	OwnerResolver interface {
		UserByEmail(ctx context.Context, email string) (core.User, error)
	}

	CategoryReader interface {
		ListCategories(ctx context.Context, ownerID int64) ([]core.Category, error)
	}

	TransactionStore interface {
		// ListTransactions filters by month and year when both are set;
		// zero values return the full history.
		ListTransactions(ctx context.Context, ownerID int64, month, year int) ([]core.Transaction, error)
		GetTransaction(ctx context.Context, ownerID, id int64) (core.Transaction, error)
		CreateTransaction(ctx context.Context, ownerID int64, t core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, ownerID, id int64, t core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, ownerID, id int64) error
	}

	BudgetStore interface {
		// ListBudgets applies month and year filters independently;
		// zero means no filter on that column.
		ListBudgets(ctx context.Context, ownerID int64, month, year int) ([]core.BudgetStatus, error)
		CreateBudget(ctx context.Context, ownerID int64, b core.Budget) (core.BudgetStatus, error)
		UpdateBudget(ctx context.Context, ownerID, id int64, b core.Budget) (core.BudgetStatus, error)
		DeleteBudget(ctx context.Context, ownerID, id int64) error
	}

	// SummaryReader aggregates one month of activity for an owner.
	SummaryReader interface {
		MonthlySummary(ctx context.Context, ownerID int64, month, year int) (core.MonthlySummary, error)
	}

	Pinger interface {
		Ping(ctx context.Context) error
	}
)
