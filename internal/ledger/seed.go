package ledger

import (
	"github.com/shopspring/decimal"

	"masarif/internal/core"
)

// Seed returns the sample log shown on first start, newest first.
func Seed() []core.Expense {
	return []core.Expense{
		{ID: 5, Amount: decimal.NewFromInt(10), Category: core.CategoryFood, Description: "coffee and snacks", Date: "2025-11-19", Time: "16:45"},
		{ID: 4, Amount: decimal.NewFromInt(6), Category: core.CategoryTransport, Description: "bus ticket", Date: "2025-11-19", Time: "09:10"},
		{ID: 3, Amount: decimal.NewFromInt(12), Category: core.CategoryFood, Description: "light dinner", Date: "2025-11-19", Time: "20:00"},
		{ID: 2, Amount: decimal.NewFromInt(8), Category: core.CategoryTransport, Description: "round-trip bus ticket", Date: "2025-11-18", Time: "08:15"},
		{ID: 1, Amount: decimal.NewFromInt(15), Category: core.CategoryFood, Description: "lunch at the university cafeteria", Date: "2025-11-18", Time: "13:30"},
	}
}
