package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bilancio/internal/core"
)

const transactionColumns = `id, user_id, category_id, type, amount_cents, tx_date, description, created_at`

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var (
		t          core.Transaction
		categoryID sql.NullInt64
		txDate     string
		createdAt  string
	)
	err := row.Scan(&t.ID, &t.OwnerID, &categoryID, &t.Type, &t.Amount.Cents, &txDate, &t.Description, &createdAt)
	if err != nil {
		return core.Transaction{}, err
	}
	t.CategoryID = idPointer(categoryID)
	t.Date = parseDate(txDate)
	t.CreatedAt = parseTime(createdAt)
	return t, nil
}

func getTransaction(ctx context.Context, q dbtx, ownerID, id int64) (core.Transaction, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`,
		id, ownerID,
	)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// ListTransactions returns the owner's transactions newest first. A non-zero
// month/year pair restricts the result to that calendar month.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, ownerID int64, month, year int) ([]core.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = ?`
	args := []any{ownerID}
	if month != 0 && year != 0 {
		startDate, endDate := windowBounds(year, month)
		query += ` AND tx_date >= ? AND tx_date < ?`
		args = append(args, startDate, endDate)
	}
	query += ` ORDER BY tx_date DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, ownerID, id int64) (core.Transaction, error) {
	return getTransaction(ctx, r.db, ownerID, id)
}

// CreateTransaction inserts the record and evaluates the affected scope in
// one transaction. Returned alerts are ready to emit; state is committed.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, ownerID int64, t core.Transaction) (core.Transaction, []core.BudgetAlert, error) {
	t.OwnerID = ownerID
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, nil, fmt.Errorf("begin create transaction: %w", err)
	}
	defer tx.Rollback()

	if t.CategoryID != nil {
		if err := categoryOwnedTx(ctx, tx, ownerID, *t.CategoryID); err != nil {
			return core.Transaction{}, nil, err
		}
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (user_id, category_id, type, amount_cents, tx_date, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ownerID, nullableID(t.CategoryID), t.Type, t.Amount.Cents,
		t.Date.Format(dateLayout), t.Description, t.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return core.Transaction{}, nil, fmt.Errorf("insert transaction: %w", err)
	}
	t.ID, err = res.LastInsertId()
	if err != nil {
		return core.Transaction{}, nil, fmt.Errorf("insert transaction id: %w", err)
	}

	month, year := t.Scope()
	alerts, err := evaluateScope(ctx, tx, ownerID, month, year)
	if err != nil {
		return core.Transaction{}, nil, err
	}

	if err := tx.Commit(); err != nil {
		return core.Transaction{}, nil, fmt.Errorf("commit create transaction: %w", err)
	}
	return t, alerts, nil
}

// UpdateTransaction replaces the record wholesale. When the date moves
// across months both the old and the new scope get evaluated, so a budget
// left behind in the old month re-arms or fires correctly too.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, ownerID, id int64, t core.Transaction) (core.Transaction, []core.BudgetAlert, error) {
	t.OwnerID = ownerID
	t.ID = id
	if err := t.Validate(); err != nil {
		return core.Transaction{}, nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, nil, fmt.Errorf("begin update transaction: %w", err)
	}
	defer tx.Rollback()

	old, err := getTransaction(ctx, tx, ownerID, id)
	if err != nil {
		return core.Transaction{}, nil, err
	}
	if t.CategoryID != nil {
		if err := categoryOwnedTx(ctx, tx, ownerID, *t.CategoryID); err != nil {
			return core.Transaction{}, nil, err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE transactions SET category_id = ?, type = ?, amount_cents = ?, tx_date = ?, description = ?
		 WHERE id = ? AND user_id = ?`,
		nullableID(t.CategoryID), t.Type, t.Amount.Cents,
		t.Date.Format(dateLayout), t.Description, id, ownerID,
	); err != nil {
		return core.Transaction{}, nil, fmt.Errorf("update transaction: %w", err)
	}
	t.CreatedAt = old.CreatedAt

	oldMonth, oldYear := old.Scope()
	newMonth, newYear := t.Scope()

	alerts, err := evaluateScope(ctx, tx, ownerID, oldMonth, oldYear)
	if err != nil {
		return core.Transaction{}, nil, err
	}
	if newMonth != oldMonth || newYear != oldYear {
		more, err := evaluateScope(ctx, tx, ownerID, newMonth, newYear)
		if err != nil {
			return core.Transaction{}, nil, err
		}
		alerts = append(alerts, more...)
	}

	if err := tx.Commit(); err != nil {
		return core.Transaction{}, nil, fmt.Errorf("commit update transaction: %w", err)
	}
	return t, alerts, nil
}

// DeleteTransaction captures the row's scope before deleting so the freed
// spending re-evaluates the right month.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, ownerID, id int64) ([]core.BudgetAlert, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	old, err := getTransaction(ctx, tx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, ownerID,
	); err != nil {
		return nil, fmt.Errorf("delete transaction: %w", err)
	}

	month, year := old.Scope()
	alerts, err := evaluateScope(ctx, tx, ownerID, month, year)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete transaction: %w", err)
	}
	return alerts, nil
}
