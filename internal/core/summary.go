package core

import "github.com/shopspring/decimal"

// MonthlyData is one point of the server-provided monthly series.
type MonthlyData struct {
	Month    string          `json:"month"` // YYYY-MM
	Revenue  decimal.Decimal `json:"revenue"`
	Expenses decimal.Decimal `json:"expenses"`
}

// CategoryData is an amount aggregated by category name.
type CategoryData struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Count    int             `json:"count"`
}

// UserExpenseData is the expense total of one user.
type UserExpenseData struct {
	UserID           string          `json:"user_id"`
	TotalExpenses    decimal.Decimal `json:"totalExpenses"`
	TransactionCount int             `json:"transactionCount"`
}

// DashboardSummary holds the aggregate totals and series for the summary view.
// It is read-only and fetched once per page load.
type DashboardSummary struct {
	TotalRevenue      decimal.Decimal   `json:"totalRevenue"`
	TotalExpenses     decimal.Decimal   `json:"totalExpenses"`
	TotalBalance      decimal.Decimal   `json:"totalBalance"`
	TotalTransactions int               `json:"totalTransactions"`
	MonthlyData       []MonthlyData     `json:"monthlyData"`
	CategoryData      []CategoryData    `json:"categoryData"`
	UserExpenses      []UserExpenseData `json:"userExpenses"`
}
