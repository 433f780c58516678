package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bilancio/internal/core"
)

// decodeJSON decodes the request body into dst and answers the request
// itself when the body is malformed, invalid, or too large.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
	case core.ValidationFailed(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusBadRequest, "invalid JSON body")
	}
	return false
}

// amountValue accepts a JSON number or a numeric string for money fields.
// Clients send both forms; either way the value becomes integer cents.
type amountValue struct {
	money core.Money
	set   bool
}

func (a *amountValue) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		return nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %s", core.ErrInvalidAmount, raw)
		}
		raw = s
	}
	m, err := core.ParseAmount(raw)
	if err != nil {
		return err
	}
	a.money = m
	a.set = true
	return nil
}

// transactionRequest is the JSON payload for creating or replacing a
// transaction. The id, owner, and created_at fields are never client-supplied.
type transactionRequest struct {
	CategoryID      *int64      `json:"category_id"`
	Type            string      `json:"type"`
	Amount          amountValue `json:"amount"`
	Description     string      `json:"description"`
	TransactionDate string      `json:"transaction_date"`
}

// toCore validates the payload and builds the domain transaction. The date
// defaults to today when the client leaves it out.
func (req transactionRequest) toCore(now time.Time) (core.Transaction, error) {
	if !req.Amount.set {
		return core.Transaction{}, fmt.Errorf("%w: amount is required", core.ErrInvalidAmount)
	}
	date := core.NewDate(now.Year(), int(now.Month()), now.Day())
	if v := strings.TrimSpace(req.TransactionDate); v != "" {
		var err error
		if date, err = parseDate(v); err != nil {
			return core.Transaction{}, err
		}
	}
	t := core.Transaction{
		CategoryID:  req.CategoryID,
		Type:        core.TransactionType(strings.TrimSpace(req.Type)),
		Amount:      req.Amount.money,
		Date:        date,
		Description: sanitizeInput(req.Description),
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// budgetRequest is the JSON payload for creating or replacing a budget.
// The alert flag is not part of the payload; the evaluator owns it.
type budgetRequest struct {
	CategoryID  *int64      `json:"category_id"`
	Month       int         `json:"month"`
	Year        int         `json:"year"`
	LimitAmount amountValue `json:"limit_amount"`
}

func (req budgetRequest) toCore() (core.Budget, error) {
	if !req.LimitAmount.set {
		return core.Budget{}, fmt.Errorf("%w: limit_amount is required", core.ErrInvalidLimit)
	}
	b := core.Budget{
		CategoryID: req.CategoryID,
		Month:      req.Month,
		Year:       req.Year,
		Limit:      req.LimitAmount.money,
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}
