package http

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"masarif/internal/core"
)

type expenseView struct {
	ID          int64       `json:"id"`
	Amount      json.Number `json:"amount"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Date        string      `json:"date"`
	Time        string      `json:"time"`
}

type categoryTotalView struct {
	core.Category
	Total      json.Number `json:"total"`
	Percentage json.Number `json:"percentage"`
}

type dateTotalView struct {
	Date  string      `json:"date"`
	Total json.Number `json:"total"`
}

type summaryView struct {
	Count      int                 `json:"count"`
	Total      json.Number         `json:"total"`
	Today      json.Number         `json:"today"`
	TodayDate  string              `json:"today_date"`
	ByCategory []categoryTotalView `json:"by_category"`
	ByDate     []dateTotalView     `json:"by_date"`
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func toExpenseView(e core.Expense) expenseView {
	return expenseView{
		ID:          e.ID,
		Amount:      number(e.Amount),
		Category:    e.Category,
		Description: e.Description,
		Date:        e.Date.String(),
		Time:        e.Time.String(),
	}
}

func toExpenseViews(log []core.Expense) []expenseView {
	out := make([]expenseView, 0, len(log))
	for _, e := range log {
		out = append(out, toExpenseView(e))
	}
	return out
}

// toSummaryView renders percentages with two decimals and keeps only the
// first days date rows (days <= 0 keeps all).
func toSummaryView(s core.Summary, days int) summaryView {
	v := summaryView{
		Count:      s.Count,
		Total:      number(s.Total),
		Today:      number(s.Today),
		TodayDate:  s.TodayDate.String(),
		ByCategory: make([]categoryTotalView, 0, len(s.ByCategory)),
		ByDate:     []dateTotalView{},
	}
	for _, c := range s.ByCategory {
		v.ByCategory = append(v.ByCategory, categoryTotalView{
			Category:   c.Meta,
			Total:      number(c.Total),
			Percentage: number(c.Percentage.Round(2)),
		})
	}
	for _, d := range s.RecentDates(days) {
		v.ByDate = append(v.ByDate, dateTotalView{Date: d.Date.String(), Total: number(d.Total)})
	}
	return v
}

// sanitizeInput removes control characters (except tab, newline and carriage
// return) and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
