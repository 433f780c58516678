package storage

import (
	"context"
	"fmt"

	"bilancio/internal/core"
)

// MonthlySummary assembles the full report for one scope: totals, the
// per-category breakdown, and every budget enriched with spending. Reading
// the report never touches alert state.
func (r *SQLiteRepository) MonthlySummary(ctx context.Context, ownerID int64, month, year int) (core.MonthlySummary, error) {
	startDate, endDate := windowBounds(year, month)

	summary := core.MonthlySummary{Month: month, Year: year}

	err := r.db.QueryRowContext(ctx,
		`SELECT
		   COALESCE(SUM(CASE WHEN type = 'income' THEN amount_cents ELSE 0 END), 0),
		   COALESCE(SUM(CASE WHEN type = 'expense' THEN amount_cents ELSE 0 END), 0)
		 FROM transactions
		 WHERE user_id = ? AND tx_date >= ? AND tx_date < ?`,
		ownerID, startDate, endDate,
	).Scan(&summary.TotalIncome.Cents, &summary.TotalExpense.Cents)
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("sum month totals: %w", err)
	}
	summary.Net = summary.TotalIncome.Sub(summary.TotalExpense)

	// Outer join: every category of the owner appears, zero when silent.
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.name, c.type, COALESCE(SUM(t.amount_cents), 0)
		 FROM categories c
		 LEFT JOIN transactions t
		   ON t.category_id = c.id AND t.user_id = c.user_id
		   AND t.tx_date >= ? AND t.tx_date < ?
		 WHERE c.user_id = ?
		 GROUP BY c.id, c.name, c.type
		 ORDER BY c.name ASC`,
		startDate, endDate, ownerID,
	)
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("category breakdown: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ct core.CategoryTotal
		if err := rows.Scan(&ct.ID, &ct.Name, &ct.Type, &ct.Total.Cents); err != nil {
			return core.MonthlySummary{}, fmt.Errorf("scan category total: %w", err)
		}
		summary.ByCategory = append(summary.ByCategory, ct)
	}
	if err := rows.Err(); err != nil {
		return core.MonthlySummary{}, fmt.Errorf("category breakdown: %w", err)
	}

	// Overall budgets sort ahead of category budgets.
	budgetRows, err := r.db.QueryContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets
		 WHERE user_id = ? AND month = ? AND year = ?
		 ORDER BY (category_id IS NULL) DESC, id ASC`,
		ownerID, month, year,
	)
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("list scope budgets: %w", err)
	}
	defer budgetRows.Close()

	var budgets []core.Budget
	for budgetRows.Next() {
		b, err := scanBudget(budgetRows)
		if err != nil {
			return core.MonthlySummary{}, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	if err := budgetRows.Err(); err != nil {
		return core.MonthlySummary{}, fmt.Errorf("list scope budgets: %w", err)
	}

	for _, b := range budgets {
		status, err := statusForBudget(ctx, r.db, b)
		if err != nil {
			return core.MonthlySummary{}, err
		}
		summary.Budgets = append(summary.Budgets, status)
	}

	return summary, nil
}
