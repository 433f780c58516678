package core

// CategoryTotal is one row of the per-category breakdown. Categories with no
// transactions in the window still appear with a zero total.
type CategoryTotal struct {
	ID    int64
	Name  string
	Type  TransactionType
	Total Money
}

// BudgetStatus is a budget enriched with the spending computed for its
// window. Remaining goes negative when the budget is over.
type BudgetStatus struct {
	Budget
	Spent     Money
	Remaining Money
}

// MonthlySummary is the full report for one (owner, month, year) scope.
type MonthlySummary struct {
	Month        int
	Year         int
	TotalIncome  Money
	TotalExpense Money
	Net          Money
	ByCategory   []CategoryTotal
	Budgets      []BudgetStatus
}
