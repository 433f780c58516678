package core

// BudgetAlert is the event emitted when a budget first crosses its limit.
// There is no matching "resolved" event; dropping back under the limit only
// re-arms the budget.
type BudgetAlert struct {
	BudgetID int64
	UserID   int64
	Category string // category name, or OverallCategory
	Month    int
	Year     int
	Spent    Money
	Limit    Money
}

// EvaluateBudget applies the alert transition for a single budget and
// returns the new alert_sent state plus whether an alert fires now.
//
// Over means strictly greater: spending exactly the limit stays in budget.
// The transition is idempotent, so re-running it against unchanged figures
// never fires twice and never flips state.
func EvaluateBudget(alertSent bool, spent, limit Money) (newState, fire bool) {
	over := spent.Cents > limit.Cents
	switch {
	case over && !alertSent:
		return true, true
	case !over && alertSent:
		return false, false
	default:
		return alertSent, false
	}
}
