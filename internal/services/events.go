package services

import (
	"context"
	"log/slog"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/log"
)

// emitAlerts logs every alert the evaluator raised and publishes it to the
// alert queue. Publish failures are logged and swallowed; the state flip is
// already committed and the sweep will not re-fire it, so the log line is
// the durable record.
func emitAlerts(ctx context.Context, client *amqp.Client, alerts []core.BudgetAlert) {
	for _, alert := range alerts {
		log.LogBudgetAlert(ctx, alert.BudgetID, alert.UserID, alert.Category,
			alert.Month, alert.Year, alert.Spent.Cents, alert.Limit.Cents)

		if client == nil {
			continue
		}
		msg := amqp.NewBudgetAlertMessage(alert.BudgetID, alert.UserID, alert.Category,
			alert.Month, alert.Year, alert.Spent.Cents, alert.Limit.Cents)
		if err := client.PublishBudgetAlert(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "Failed to publish budget alert",
				"budget_id", alert.BudgetID, "error", err)
		}
	}
}

// requestEvaluation queues an async re-run for a scope that was just
// evaluated inline. The worker's run is idempotent; this only matters if
// something slipped between the inline evaluation and commit visibility.
func requestEvaluation(ctx context.Context, client *amqp.Client, userID int64, month, year int) {
	if client == nil {
		return
	}
	if err := client.PublishEvaluationRequest(ctx, userID, month, year); err != nil {
		slog.ErrorContext(ctx, "Failed to publish evaluation request",
			"user_id", userID, "month", month, "year", year, "error", err)
	}
}
