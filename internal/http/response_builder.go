package http

import (
	"time"

	"bilancio/internal/core"
)

// Response DTOs. Amounts leave the API as floats with two meaningful
// decimals; everything internal stays in integer cents.

type userResponse struct {
	ID              int64  `json:"id"`
	Email           string `json:"email"`
	Name            string `json:"name"`
	ProfilePhotoURL string `json:"profile_photo_url,omitempty"`
	CreatedAt       string `json:"created_at"`
}

type categoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type transactionResponse struct {
	ID              int64   `json:"id"`
	CategoryID      *int64  `json:"category_id"`
	Type            string  `json:"type"`
	Amount          float64 `json:"amount"`
	Description     string  `json:"description"`
	TransactionDate string  `json:"transaction_date"`
	CreatedAt       string  `json:"created_at"`
}

type budgetResponse struct {
	ID          int64   `json:"id"`
	CategoryID  *int64  `json:"category_id"`
	Month       int     `json:"month"`
	Year        int     `json:"year"`
	LimitAmount float64 `json:"limit_amount"`
	AlertSent   bool    `json:"alert_sent"`
	Spent       float64 `json:"spent"`
	Remaining   float64 `json:"remaining"`
}

type categoryTotalResponse struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Type  string  `json:"type"`
	Total float64 `json:"total"`
}

type summaryResponse struct {
	Month        int                     `json:"month"`
	Year         int                     `json:"year"`
	TotalIncome  float64                 `json:"total_income"`
	TotalExpense float64                 `json:"total_expense"`
	Net          float64                 `json:"net"`
	ByCategory   []categoryTotalResponse `json:"by_category"`
	Budgets      []budgetResponse        `json:"budgets"`
}

func newUserResponse(u core.User) userResponse {
	return userResponse{
		ID:              u.ID,
		Email:           u.Email,
		Name:            u.Name,
		ProfilePhotoURL: u.ProfilePhotoURL,
		CreatedAt:       u.CreatedAt.Format(time.RFC3339),
	}
}

func newCategoryList(categories []core.Category) []categoryResponse {
	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryResponse{ID: c.ID, Name: c.Name, Type: string(c.Type)})
	}
	return out
}

func newTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:              t.ID,
		CategoryID:      t.CategoryID,
		Type:            string(t.Type),
		Amount:          t.Amount.Float(),
		Description:     t.Description,
		TransactionDate: t.Date.Format("2006-01-02"),
		CreatedAt:       t.CreatedAt.Format(time.RFC3339),
	}
}

func newTransactionList(transactions []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(transactions))
	for _, t := range transactions {
		out = append(out, newTransactionResponse(t))
	}
	return out
}

func newBudgetResponse(s core.BudgetStatus) budgetResponse {
	return budgetResponse{
		ID:          s.ID,
		CategoryID:  s.CategoryID,
		Month:       s.Month,
		Year:        s.Year,
		LimitAmount: s.Limit.Float(),
		AlertSent:   s.AlertSent,
		Spent:       s.Spent.Float(),
		Remaining:   s.Remaining.Float(),
	}
}

func newBudgetList(statuses []core.BudgetStatus) []budgetResponse {
	out := make([]budgetResponse, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, newBudgetResponse(s))
	}
	return out
}

func newSummaryResponse(s core.MonthlySummary) summaryResponse {
	byCategory := make([]categoryTotalResponse, 0, len(s.ByCategory))
	for _, ct := range s.ByCategory {
		byCategory = append(byCategory, categoryTotalResponse{
			ID:    ct.ID,
			Name:  ct.Name,
			Type:  string(ct.Type),
			Total: ct.Total.Float(),
		})
	}
	return summaryResponse{
		Month:        s.Month,
		Year:         s.Year,
		TotalIncome:  s.TotalIncome.Float(),
		TotalExpense: s.TotalExpense.Float(),
		Net:          s.Net.Float(),
		ByCategory:   byCategory,
		Budgets:      newBudgetList(s.Budgets),
	}
}
