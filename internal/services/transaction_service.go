package services

import (
	"context"
	"fmt"
	"log/slog"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/storage"
)

// TransactionService orchestrates transaction writes across SQLite and AMQP.
// The repository evaluates budgets inside the mutation's transaction; this
// layer emits the resulting alerts and queues the async re-run.
type TransactionService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

// NewTransactionService wires the service. amqpClient may be nil; alerts are
// then logged but not published.
func NewTransactionService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *TransactionService {
	return &TransactionService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// Create saves the transaction and emits whatever alerts the evaluation of
// its month raised.
func (s *TransactionService) Create(ctx context.Context, ownerID int64, t core.Transaction) (core.Transaction, error) {
	saved, alerts, err := s.storage.CreateTransaction(ctx, ownerID, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	log.LogTransactionSaved(ctx, log.OpCreate, saved.ID, string(saved.Type), saved.Amount.Cents)
	emitAlerts(ctx, s.amqpClient, alerts)

	month, year := saved.Scope()
	requestEvaluation(ctx, s.amqpClient, ownerID, month, year)

	return saved, nil
}

// Update replaces the transaction wholesale. When the date moves across
// months, both the old and the new month get re-queued for evaluation.
func (s *TransactionService) Update(ctx context.Context, ownerID, id int64, t core.Transaction) (core.Transaction, error) {
	old, err := s.storage.GetTransaction(ctx, ownerID, id)
	if err != nil {
		return core.Transaction{}, err
	}

	updated, alerts, err := s.storage.UpdateTransaction(ctx, ownerID, id, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	log.LogTransactionSaved(ctx, log.OpUpdate, updated.ID, string(updated.Type), updated.Amount.Cents)
	emitAlerts(ctx, s.amqpClient, alerts)

	oldMonth, oldYear := old.Scope()
	requestEvaluation(ctx, s.amqpClient, ownerID, oldMonth, oldYear)
	if newMonth, newYear := updated.Scope(); newMonth != oldMonth || newYear != oldYear {
		requestEvaluation(ctx, s.amqpClient, ownerID, newMonth, newYear)
	}

	return updated, nil
}

// Delete removes the transaction. Its month is re-evaluated, which can
// silently re-arm budgets that drop back under their limit.
func (s *TransactionService) Delete(ctx context.Context, ownerID, id int64) error {
	old, err := s.storage.GetTransaction(ctx, ownerID, id)
	if err != nil {
		return err
	}

	alerts, err := s.storage.DeleteTransaction(ctx, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction deleted", "transaction_id", id)
	emitAlerts(ctx, s.amqpClient, alerts)

	month, year := old.Scope()
	requestEvaluation(ctx, s.amqpClient, ownerID, month, year)

	return nil
}
