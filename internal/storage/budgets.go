package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bilancio/internal/core"
)

const budgetColumns = `id, user_id, category_id, month, year, limit_cents, alert_sent`

func scanBudget(row interface{ Scan(...any) error }) (core.Budget, error) {
	var (
		b          core.Budget
		categoryID sql.NullInt64
	)
	err := row.Scan(&b.ID, &b.OwnerID, &categoryID, &b.Month, &b.Year, &b.Limit.Cents, &b.AlertSent)
	if err != nil {
		return core.Budget{}, err
	}
	b.CategoryID = idPointer(categoryID)
	return b, nil
}

func getBudget(ctx context.Context, q dbtx, ownerID, id int64) (core.Budget, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = ? AND user_id = ?`,
		id, ownerID,
	)
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, fmt.Errorf("budget %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

// statusForBudget enriches a budget with its current spending. Read only:
// alert state is never touched here.
func statusForBudget(ctx context.Context, q dbtx, b core.Budget) (core.BudgetStatus, error) {
	spent, err := spentForBudget(ctx, q, b.OwnerID, b.CategoryID, b.Month, b.Year)
	if err != nil {
		return core.BudgetStatus{}, err
	}
	return core.BudgetStatus{
		Budget:    b,
		Spent:     spent,
		Remaining: b.Limit.Sub(spent),
	}, nil
}

// ListBudgets returns enriched budgets ordered year descending then month
// descending. Month and year filter independently; zero means no filter.
func (r *SQLiteRepository) ListBudgets(ctx context.Context, ownerID int64, month, year int) ([]core.BudgetStatus, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE user_id = ?`
	args := []any{ownerID}
	if month != 0 {
		query += ` AND month = ?`
		args = append(args, month)
	}
	if year != 0 {
		query += ` AND year = ?`
		args = append(args, year)
	}
	query += ` ORDER BY year DESC, month DESC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	out := make([]core.BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		status, err := statusForBudget(ctx, r.db, b)
		if err != nil {
			return nil, err
		}
		out = append(out, status)
	}
	return out, nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, ownerID, id int64) (core.Budget, error) {
	return getBudget(ctx, r.db, ownerID, id)
}

// CreateBudget inserts the budget and immediately evaluates its scope, so a
// budget created over an already-spent month alerts on creation.
func (r *SQLiteRepository) CreateBudget(ctx context.Context, ownerID int64, b core.Budget) (core.BudgetStatus, []core.BudgetAlert, error) {
	b.OwnerID = ownerID
	b.AlertSent = false
	if err := b.Validate(); err != nil {
		return core.BudgetStatus{}, nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.BudgetStatus{}, nil, fmt.Errorf("begin create budget: %w", err)
	}
	defer tx.Rollback()

	if b.CategoryID != nil {
		if err := categoryOwnedTx(ctx, tx, ownerID, *b.CategoryID); err != nil {
			return core.BudgetStatus{}, nil, err
		}
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO budgets (user_id, category_id, month, year, limit_cents, alert_sent)
		 VALUES (?, ?, ?, ?, ?, 0)`,
		ownerID, nullableID(b.CategoryID), b.Month, b.Year, b.Limit.Cents,
	)
	if err != nil {
		return core.BudgetStatus{}, nil, fmt.Errorf("insert budget: %w", err)
	}
	b.ID, err = res.LastInsertId()
	if err != nil {
		return core.BudgetStatus{}, nil, fmt.Errorf("insert budget id: %w", err)
	}

	alerts, err := evaluateScope(ctx, tx, ownerID, b.Month, b.Year)
	if err != nil {
		return core.BudgetStatus{}, nil, err
	}

	stored, err := getBudget(ctx, tx, ownerID, b.ID)
	if err != nil {
		return core.BudgetStatus{}, nil, err
	}
	status, err := statusForBudget(ctx, tx, stored)
	if err != nil {
		return core.BudgetStatus{}, nil, err
	}

	if err := tx.Commit(); err != nil {
		return core.BudgetStatus{}, nil, fmt.Errorf("commit create budget: %w", err)
	}
	return status, alerts, nil
}

// UpdateBudget replaces category, month, year, and limit. The alert flag is
// never taken from input; the evaluator owns it and runs before commit for
// both the old and (when moved) the new scope.
func (r *SQLiteRepository) UpdateBudget(ctx context.Context, ownerID, id int64, b core.Budget) (core.BudgetStatus, []core.BudgetAlert, error) {
	b.OwnerID = ownerID
	b.ID = id
	if err := b.Validate(); err != nil {
		return core.BudgetStatus{}, nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.BudgetStatus{}, nil, fmt.Errorf("begin update budget: %w", err)
	}
	defer tx.Rollback()

	old, err := getBudget(ctx, tx, ownerID, id)
	if err != nil {
		return core.BudgetStatus{}, nil, err
	}
	if b.CategoryID != nil {
		if err := categoryOwnedTx(ctx, tx, ownerID, *b.CategoryID); err != nil {
			return core.BudgetStatus{}, nil, err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE budgets SET category_id = ?, month = ?, year = ?, limit_cents = ?
		 WHERE id = ? AND user_id = ?`,
		nullableID(b.CategoryID), b.Month, b.Year, b.Limit.Cents, id, ownerID,
	); err != nil {
		return core.BudgetStatus{}, nil, fmt.Errorf("update budget: %w", err)
	}

	alerts, err := evaluateScope(ctx, tx, ownerID, old.Month, old.Year)
	if err != nil {
		return core.BudgetStatus{}, nil, err
	}
	if b.Month != old.Month || b.Year != old.Year {
		more, err := evaluateScope(ctx, tx, ownerID, b.Month, b.Year)
		if err != nil {
			return core.BudgetStatus{}, nil, err
		}
		alerts = append(alerts, more...)
	}

	stored, err := getBudget(ctx, tx, ownerID, id)
	if err != nil {
		return core.BudgetStatus{}, nil, err
	}
	status, err := statusForBudget(ctx, tx, stored)
	if err != nil {
		return core.BudgetStatus{}, nil, err
	}

	if err := tx.Commit(); err != nil {
		return core.BudgetStatus{}, nil, fmt.Errorf("commit update budget: %w", err)
	}
	return status, alerts, nil
}

// DeleteBudget removes the row. No evaluation runs; the budget is gone.
func (r *SQLiteRepository) DeleteBudget(ctx context.Context, ownerID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("budget %d: %w", id, core.ErrNotFound)
	}
	return nil
}
