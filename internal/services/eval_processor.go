package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/storage"
)

// EvalProcessorConfig holds configuration for the reconciliation sweep
type EvalProcessorConfig struct {
	// SweepInterval is how often every budget scope is re-evaluated (default: 5m)
	SweepInterval time.Duration
}

// DefaultEvalProcessorConfig returns sensible defaults
func DefaultEvalProcessorConfig() EvalProcessorConfig {
	return EvalProcessorConfig{
		SweepInterval: 5 * time.Minute,
	}
}

// EvalProcessor periodically re-runs budget evaluation for every scope that
// has budgets. Evaluation is idempotent, so the sweep only does visible work
// when an evaluation command was lost or state drifted underneath the API.
type EvalProcessor struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
	config     EvalProcessorConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewEvalProcessor creates a new sweep processor. amqpClient may be nil;
// alerts raised by the sweep are then logged but not published.
func NewEvalProcessor(storage *storage.SQLiteRepository, amqpClient *amqp.Client, config EvalProcessorConfig) *EvalProcessor {
	return &EvalProcessor{
		storage:    storage,
		amqpClient: amqpClient,
		config:     config,
	}
}

// Start begins the sweep loop. Returns an error if already running.
func (p *EvalProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("eval processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Eval processor started",
		"sweep_interval", p.config.SweepInterval)

	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *EvalProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	// Signal stop
	close(p.stopCh)

	// Wait for completion or context cancellation
	select {
	case <-p.doneCh:
		slog.InfoContext(ctx, "Eval processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Eval processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

// IsRunning returns whether the processor is currently running
func (p *EvalProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// runLoop is the main sweep loop
func (p *EvalProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.SweepInterval)
	defer ticker.Stop()

	// Sweep immediately on startup
	p.Sweep(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Sweep(ctx)
		}
	}
}

// Sweep evaluates every known budget scope once.
func (p *EvalProcessor) Sweep(ctx context.Context) {
	scopes, err := p.storage.ListBudgetScopes(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list budget scopes", "error", err)
		return
	}

	if len(scopes) == 0 {
		return
	}

	slog.DebugContext(ctx, "Sweeping budget scopes", "count", len(scopes))

	for _, scope := range scopes {
		// Check if we should stop
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		alerts, err := p.storage.EvaluateScope(ctx, scope.UserID, scope.Month, scope.Year)
		if err != nil {
			slog.ErrorContext(ctx, "Sweep evaluation failed",
				"user_id", scope.UserID,
				"month", scope.Month,
				"year", scope.Year,
				"error", err)
			continue
		}

		emitAlerts(ctx, p.amqpClient, alerts)
	}
}
