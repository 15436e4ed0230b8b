package splitapi

import "time"

// Repayment is one per-party share attached to an expense.
type Repayment struct {
	FromUserID string `json:"from"`
	ToUserID   string `json:"to"`
	Amount     string `json:"amount"`
}

// Expense is the Split-Expense API wire representation.
type Expense struct {
	ID          string      `json:"id"`
	GroupID     string      `json:"group_id"`
	Description string      `json:"description"`
	Details     string      `json:"details"`
	Cost        string      `json:"cost"`
	Date        time.Time   `json:"date"`
	UpdatedAt   time.Time   `json:"updated_at"`
	DeletedAt   *time.Time  `json:"deleted_at"`
	Repayments  []Repayment `json:"repayments"`
}

// NewExpense is the payload for creating an expense. The service
// computes per-party shares from the ratio.
type NewExpense struct {
	GroupID      string `json:"group_id"`
	Description  string `json:"description"`
	Details      string `json:"details,omitempty"`
	Cost         string `json:"cost"`
	Date         string `json:"date"`
	PaidByUserID string `json:"paid_by_user_id"`
	SplitRatio   string `json:"split_ratio"`
}

type expensesResponse struct {
	Expenses []Expense `json:"expenses"`
}

type expenseResponse struct {
	Expenses []Expense `json:"expenses"`
	Errors   any       `json:"errors,omitempty"`
}
