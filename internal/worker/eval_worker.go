// Package worker consumes queued evaluation requests and reconciles budget
// alert state against stored spending.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/storage"
)

// EvalWorker re-runs budget evaluation for queued scopes. Evaluation is
// idempotent, so duplicate or redelivered messages are harmless.
type EvalWorker struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewEvalWorker(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *EvalWorker {
	return &EvalWorker{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// Run consumes evaluation requests until the context is canceled.
func (w *EvalWorker) Run(ctx context.Context) error {
	return w.amqpClient.ConsumeEvaluationRequests(ctx, func(msg *amqp.EvaluationRequestMessage) error {
		return w.HandleEvaluationRequest(ctx, msg)
	})
}

// HandleEvaluationRequest processes a single evaluation request from AMQP.
func (w *EvalWorker) HandleEvaluationRequest(ctx context.Context, msg *amqp.EvaluationRequestMessage) error {
	slog.InfoContext(ctx, "Processing evaluation request",
		"event_id", msg.EventID,
		"user_id", msg.UserID,
		"month", msg.Month,
		"year", msg.Year)

	alerts, err := w.storage.EvaluateScope(ctx, msg.UserID, msg.Month, msg.Year)
	if err != nil {
		return fmt.Errorf("evaluate scope: %w", err)
	}

	w.emitAlerts(ctx, alerts)
	return nil
}

// StartupCheck reconciles every known budget scope at worker boot.
// This recovers alerts missed while the worker was down or messages were lost.
func (w *EvalWorker) StartupCheck(ctx context.Context) error {
	scopes, err := w.storage.ListBudgetScopes(ctx)
	if err != nil {
		return fmt.Errorf("list budget scopes for startup check: %w", err)
	}

	if len(scopes) == 0 {
		slog.InfoContext(ctx, "No budget scopes found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Reconciling budget scopes on startup", "count", len(scopes))

	successCount := 0
	errorCount := 0
	alertCount := 0

	for _, scope := range scopes {
		alerts, err := w.storage.EvaluateScope(ctx, scope.UserID, scope.Month, scope.Year)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to evaluate scope during startup",
				"user_id", scope.UserID,
				"month", scope.Month,
				"year", scope.Year,
				"error", err)
			errorCount++
			continue
		}

		w.emitAlerts(ctx, alerts)
		alertCount += len(alerts)
		successCount++
	}

	slog.InfoContext(ctx, "Startup reconciliation completed",
		"total", len(scopes),
		"evaluated", successCount,
		"errors", errorCount,
		"alerts", alertCount)

	return nil
}

// emitAlerts logs and publishes alerts raised during reconciliation. The
// state flip is already committed when this runs, so the log line is the
// durable record; publish failures are logged and dropped.
func (w *EvalWorker) emitAlerts(ctx context.Context, alerts []core.BudgetAlert) {
	for _, alert := range alerts {
		log.LogBudgetAlert(ctx, alert.BudgetID, alert.UserID, alert.Category,
			alert.Month, alert.Year, alert.Spent.Cents, alert.Limit.Cents)

		if w.amqpClient == nil {
			continue
		}
		msg := amqp.NewBudgetAlertMessage(alert.BudgetID, alert.UserID, alert.Category,
			alert.Month, alert.Year, alert.Spent.Cents, alert.Limit.Cents)
		if err := w.amqpClient.PublishBudgetAlert(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "Failed to publish budget alert",
				"budget_id", alert.BudgetID, "error", err)
		}
	}
}
