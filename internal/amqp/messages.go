package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const messageVersion = 1

// EvaluationRequestMessage asks the worker to re-run budget evaluation for
// one (user, month, year) scope. Evaluation is idempotent, so duplicate or
// redelivered requests are harmless.
type EvaluationRequestMessage struct {
	EventID     string    `json:"event_id"`
	UserID      int64     `json:"user_id"`
	Month       int       `json:"month"`
	Year        int       `json:"year"`
	RequestedAt time.Time `json:"requested_at"`
	Version     int       `json:"version"`
}

// NewEvaluationRequestMessage creates a request for one scope with a fresh event ID.
func NewEvaluationRequestMessage(userID int64, month, year int) *EvaluationRequestMessage {
	return &EvaluationRequestMessage{
		EventID:     uuid.NewString(),
		UserID:      userID,
		Month:       month,
		Year:        year,
		RequestedAt: time.Now().UTC(),
		Version:     messageVersion,
	}
}

// ToJSON converts the message to JSON bytes
func (m *EvaluationRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EvaluationRequestMessageFromJSON parses and validates a consumed payload.
// Invalid scope fields are an error so the consumer can drop the delivery
// instead of requeueing it forever.
func EvaluationRequestMessageFromJSON(data []byte) (*EvaluationRequestMessage, error) {
	var msg EvaluationRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal evaluation request: %w", err)
	}
	if msg.UserID <= 0 {
		return nil, fmt.Errorf("evaluation request has invalid user_id %d", msg.UserID)
	}
	if msg.Month < 1 || msg.Month > 12 {
		return nil, fmt.Errorf("evaluation request has invalid month %d", msg.Month)
	}
	if msg.Year < 1 {
		return nil, fmt.Errorf("evaluation request has invalid year %d", msg.Year)
	}
	return &msg, nil
}

// BudgetAlertMessage is the event emitted when a budget first crosses its
// limit. Amounts are integer cents; Category is "Overall" for budgets with
// no category.
type BudgetAlertMessage struct {
	EventID    string    `json:"event_id"`
	BudgetID   int64     `json:"budget_id"`
	UserID     int64     `json:"user_id"`
	Category   string    `json:"category"`
	Month      int       `json:"month"`
	Year       int       `json:"year"`
	SpentCents int64     `json:"spent_cents"`
	LimitCents int64     `json:"limit_cents"`
	EmittedAt  time.Time `json:"emitted_at"`
	Version    int       `json:"version"`
}

// NewBudgetAlertMessage creates an alert event with a fresh event ID.
func NewBudgetAlertMessage(budgetID, userID int64, category string, month, year int, spentCents, limitCents int64) *BudgetAlertMessage {
	return &BudgetAlertMessage{
		EventID:    uuid.NewString(),
		BudgetID:   budgetID,
		UserID:     userID,
		Category:   category,
		Month:      month,
		Year:       year,
		SpentCents: spentCents,
		LimitCents: limitCents,
		EmittedAt:  time.Now().UTC(),
		Version:    messageVersion,
	}
}

// ToJSON converts the message to JSON bytes
func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BudgetAlertMessageFromJSON creates a message from JSON bytes
func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal budget alert: %w", err)
	}
	return &msg, nil
}
