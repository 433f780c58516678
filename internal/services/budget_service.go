package services

import (
	"context"
	"fmt"
	"log/slog"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/storage"
)

// BudgetService orchestrates budget writes. Creating or moving a budget
// evaluates its scope immediately, so a budget defined over an already-spent
// month alerts right away.
type BudgetService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

// NewBudgetService wires the service. amqpClient may be nil.
func NewBudgetService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *BudgetService {
	return &BudgetService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// Create saves the budget and emits any alert its first evaluation raised.
func (s *BudgetService) Create(ctx context.Context, ownerID int64, b core.Budget) (core.BudgetStatus, error) {
	status, alerts, err := s.storage.CreateBudget(ctx, ownerID, b)
	if err != nil {
		return core.BudgetStatus{}, fmt.Errorf("create budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget created",
		"budget_id", status.ID,
		"month", status.Month,
		"year", status.Year,
		"limit_cents", status.Limit.Cents)
	emitAlerts(ctx, s.amqpClient, alerts)
	requestEvaluation(ctx, s.amqpClient, ownerID, status.Month, status.Year)

	return status, nil
}

// Update replaces category, month, year, and limit. The alert flag is owned
// by the evaluator and never taken from input.
func (s *BudgetService) Update(ctx context.Context, ownerID, id int64, b core.Budget) (core.BudgetStatus, error) {
	old, err := s.storage.GetBudget(ctx, ownerID, id)
	if err != nil {
		return core.BudgetStatus{}, err
	}

	status, alerts, err := s.storage.UpdateBudget(ctx, ownerID, id, b)
	if err != nil {
		return core.BudgetStatus{}, fmt.Errorf("update budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget updated",
		"budget_id", status.ID,
		"month", status.Month,
		"year", status.Year,
		"limit_cents", status.Limit.Cents)
	emitAlerts(ctx, s.amqpClient, alerts)

	requestEvaluation(ctx, s.amqpClient, ownerID, old.Month, old.Year)
	if status.Month != old.Month || status.Year != old.Year {
		requestEvaluation(ctx, s.amqpClient, ownerID, status.Month, status.Year)
	}

	return status, nil
}

// Delete removes the budget. Nothing is evaluated; there is no budget left
// to alert on.
func (s *BudgetService) Delete(ctx context.Context, ownerID, id int64) error {
	if err := s.storage.DeleteBudget(ctx, ownerID, id); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Budget deleted", "budget_id", id)
	return nil
}
