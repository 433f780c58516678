package storage

import (
	"context"
	"database/sql"
	"fmt"

	"bilancio/internal/core"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so the evaluation queries
// can run inside a mutation's transaction or standalone.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Scope identifies one (owner, month, year) evaluation unit.
type Scope struct {
	UserID int64
	Month  int
	Year   int
}

func windowBounds(year, month int) (string, string) {
	start, end := core.MonthWindow(year, month)
	return start.Format(dateLayout), end.Format(dateLayout)
}

// spentForBudget sums the owner's expenses in the month window, restricted
// to the budget's category when it has one. Missing data sums to zero.
func spentForBudget(ctx context.Context, q dbtx, ownerID int64, categoryID *int64, month, year int) (core.Money, error) {
	startDate, endDate := windowBounds(year, month)

	var cents int64
	var err error
	if categoryID == nil {
		err = q.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(amount_cents), 0) FROM transactions
			 WHERE user_id = ? AND type = 'expense' AND tx_date >= ? AND tx_date < ?`,
			ownerID, startDate, endDate,
		).Scan(&cents)
	} else {
		err = q.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(amount_cents), 0) FROM transactions
			 WHERE user_id = ? AND type = 'expense' AND category_id = ? AND tx_date >= ? AND tx_date < ?`,
			ownerID, *categoryID, startDate, endDate,
		).Scan(&cents)
	}
	if err != nil {
		return core.Money{}, fmt.Errorf("sum spent: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

// evaluateScope walks every budget in the scope in row order, applies the
// alert transition, persists state flips, and collects the alerts to emit.
// Budgets outside the touched category still get visited; their figures are
// unchanged so the transition is a no-op.
func evaluateScope(ctx context.Context, q dbtx, ownerID int64, month, year int) ([]core.BudgetAlert, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT b.id, b.category_id, b.limit_cents, b.alert_sent, COALESCE(c.name, '')
		 FROM budgets b
		 LEFT JOIN categories c ON c.id = b.category_id
		 WHERE b.user_id = ? AND b.month = ? AND b.year = ?
		 ORDER BY b.id`,
		ownerID, month, year,
	)
	if err != nil {
		return nil, fmt.Errorf("list budgets for scope: %w", err)
	}

	type budgetRow struct {
		id         int64
		categoryID sql.NullInt64
		limitCents int64
		alertSent  bool
		category   string
	}
	var budgets []budgetRow
	for rows.Next() {
		var b budgetRow
		if err := rows.Scan(&b.id, &b.categoryID, &b.limitCents, &b.alertSent, &b.category); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("list budgets for scope: %w", err)
	}
	rows.Close()

	var alerts []core.BudgetAlert
	for _, b := range budgets {
		spent, err := spentForBudget(ctx, q, ownerID, idPointer(b.categoryID), month, year)
		if err != nil {
			return nil, err
		}
		limit := core.Money{Cents: b.limitCents}

		newState, fire := core.EvaluateBudget(b.alertSent, spent, limit)
		if newState != b.alertSent {
			if _, err := q.ExecContext(ctx,
				`UPDATE budgets SET alert_sent = ? WHERE id = ?`, newState, b.id,
			); err != nil {
				return nil, fmt.Errorf("update alert state: %w", err)
			}
		}
		if fire {
			label := b.category
			if !b.categoryID.Valid || label == "" {
				label = core.OverallCategory
			}
			alerts = append(alerts, core.BudgetAlert{
				BudgetID: b.id,
				UserID:   ownerID,
				Category: label,
				Month:    month,
				Year:     year,
				Spent:    spent,
				Limit:    limit,
			})
		}
	}
	return alerts, nil
}

// EvaluateScope runs the evaluator for one scope in its own transaction.
// This is the worker's reconciliation entry point; mutations run the same
// logic inside their own transactions instead.
func (r *SQLiteRepository) EvaluateScope(ctx context.Context, ownerID int64, month, year int) ([]core.BudgetAlert, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin evaluate: %w", err)
	}
	defer tx.Rollback()

	alerts, err := evaluateScope(ctx, tx, ownerID, month, year)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit evaluate: %w", err)
	}
	return alerts, nil
}

// ListBudgetScopes returns every distinct (owner, month, year) that has at
// least one budget, for the periodic reconciliation sweep.
func (r *SQLiteRepository) ListBudgetScopes(ctx context.Context) ([]Scope, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT user_id, month, year FROM budgets ORDER BY user_id, year, month`,
	)
	if err != nil {
		return nil, fmt.Errorf("list budget scopes: %w", err)
	}
	defer rows.Close()

	var scopes []Scope
	for rows.Next() {
		var s Scope
		if err := rows.Scan(&s.UserID, &s.Month, &s.Year); err != nil {
			return nil, fmt.Errorf("scan scope: %w", err)
		}
		scopes = append(scopes, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list budget scopes: %w", err)
	}
	return scopes, nil
}
