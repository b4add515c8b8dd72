package core

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exp(id int64, amount, category string, date Date) Expense {
	return Expense{ID: id, Amount: decimal.RequireFromString(amount), Category: category, Date: date, Time: "12:00"}
}

func sumCategories(rows []CategoryTotal) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Total)
	}
	return total
}

func sumDates(rows []DateTotal) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Total)
	}
	return total
}

func TestEmptyLogAggregates(t *testing.T) {
	assert.True(t, TotalSpent(nil).IsZero())
	assert.True(t, TodaySpent(nil, "2025-11-18").IsZero())
	assert.Empty(t, TotalsByCategory(nil))
	assert.Empty(t, TotalsByDate(nil))

	s := Summarize(nil, "2025-11-18", DefaultRegistry())
	assert.Equal(t, 0, s.Count)
	assert.True(t, s.Total.IsZero())
	assert.Empty(t, s.ByCategory)
}

func TestPercentageOfTotalZeroTotal(t *testing.T) {
	for _, x := range []string{"0", "5", "123.45"} {
		got := PercentageOfTotal(decimal.RequireFromString(x), decimal.Zero)
		assert.True(t, got.IsZero(), "percentage of %s over zero total", x)
	}
	got := PercentageOfTotal(decimal.NewFromInt(15), decimal.NewFromInt(60))
	assert.True(t, got.Equal(decimal.NewFromInt(25)), "got %s", got)
}

func TestScenarioSameDayTwoCategories(t *testing.T) {
	log := []Expense{
		exp(1, "15", "food", "2025-11-18"),
		exp(2, "8", "transport", "2025-11-18"),
	}

	assert.True(t, TotalSpent(log).Equal(decimal.NewFromInt(23)))

	byDate := TotalsByDate(log)
	require.Len(t, byDate, 1)
	assert.Equal(t, Date("2025-11-18"), byDate[0].Date)
	assert.True(t, byDate[0].Total.Equal(decimal.NewFromInt(23)))

	assert.True(t, TodaySpent(log, "2025-11-18").Equal(decimal.NewFromInt(23)))
	assert.True(t, TodaySpent(log, "2025-11-19").IsZero())
}

func TestUnknownCategoryKeepsOwnGroup(t *testing.T) {
	log := []Expense{
		exp(3, "4.25", "legacy-unknown", "2025-10-01"),
		exp(2, "10", "food", "2025-10-01"),
		exp(1, "1.75", "legacy-unknown", "2025-09-30"),
	}
	rows := TotalsByCategory(log)
	require.Len(t, rows, 2)
	assert.Equal(t, "legacy-unknown", rows[0].Category)
	assert.True(t, rows[0].Total.Equal(decimal.NewFromInt(6)))
	assert.Equal(t, "food", rows[1].Category)

	s := Summarize(log, "2025-10-01", DefaultRegistry())
	require.Len(t, s.ByCategory, 2)
	assert.False(t, s.ByCategory[0].Meta.Known)
	assert.Equal(t, "legacy-unknown", s.ByCategory[0].Meta.ID)
}

func TestGroupingPreservesFirstSeenOrder(t *testing.T) {
	log := []Expense{
		exp(5, "1", "study", "2025-11-20"),
		exp(4, "1", "food", "2025-11-19"),
		exp(3, "1", "study", "2025-11-18"),
		exp(2, "1", "health", "2025-11-19"),
		exp(1, "1", "food", "2025-11-20"),
	}
	var cats []string
	for _, r := range TotalsByCategory(log) {
		cats = append(cats, r.Category)
	}
	assert.Equal(t, []string{"study", "food", "health"}, cats)

	var dates []Date
	for _, r := range TotalsByDate(log) {
		dates = append(dates, r.Date)
	}
	assert.Equal(t, []Date{"2025-11-20", "2025-11-19", "2025-11-18"}, dates)

	// Same log, same order on every call.
	assert.Equal(t, TotalsByDate(log), TotalsByDate(log))
}

func TestGroupedSumsMatchTotal(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	categories := []string{"food", "transport", "study", "legacy-unknown"}
	for round := 0; round < 50; round++ {
		n := rng.Intn(40)
		log := make([]Expense, 0, n)
		for i := 0; i < n; i++ {
			amount := fmt.Sprintf("%d.%02d", rng.Intn(500), rng.Intn(100))
			date := Date(fmt.Sprintf("2025-11-%02d", 1+rng.Intn(28)))
			log = append(log, exp(int64(i+1), amount, categories[rng.Intn(len(categories))], date))
		}
		total := TotalSpent(log)
		assert.True(t, sumCategories(TotalsByCategory(log)).Equal(total), "round %d categories", round)
		assert.True(t, sumDates(TotalsByDate(log)).Equal(total), "round %d dates", round)
	}
}

func TestSummarizePercentagesAndRecentDates(t *testing.T) {
	log := []Expense{
		exp(3, "30", "food", "2025-11-20"),
		exp(2, "10", "transport", "2025-11-19"),
		exp(1, "60", "food", "2025-11-18"),
	}
	s := Summarize(log, "2025-11-20", DefaultRegistry())
	assert.Equal(t, 3, s.Count)
	assert.True(t, s.Today.Equal(decimal.NewFromInt(30)))
	require.Len(t, s.ByCategory, 2)
	assert.True(t, s.ByCategory[0].Percentage.Equal(decimal.NewFromInt(90)))
	assert.True(t, s.ByCategory[1].Percentage.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "Food", s.ByCategory[0].Meta.Label)

	assert.Len(t, s.RecentDates(2), 2)
	assert.Len(t, s.RecentDates(7), 3)
	assert.Len(t, s.RecentDates(0), 3)
}
