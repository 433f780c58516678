package backend

import (
	"context"

	"bilancio/internal/ledger"
)

// Backend bundles every ledger port the HTTP layer needs
type Backend interface {
	ledger.OwnerResolver
	ledger.CategoryReader
	ledger.TransactionStore
	ledger.BudgetStore
	ledger.SummaryReader
	ledger.Pinger
}

// CleanupFunc releases the resources a backend holds
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath   string
	AMQPURL        string
	AMQPExchange   string
	AMQPEvalQueue  string
	AMQPAlertQueue string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
