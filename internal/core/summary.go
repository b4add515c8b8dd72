package core

import "github.com/shopspring/decimal"

// CategoryTotal is the summed amount of one category key.
type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
}

// DateTotal is the summed amount of one calendar date.
type DateTotal struct {
	Date  Date
	Total decimal.Decimal
}

// CategoryShare is a category total with its share of the overall spend and
// the registry metadata used to render it.
type CategoryShare struct {
	CategoryTotal
	Percentage decimal.Decimal
	Meta       Category
}

// Summary bundles the derived views of one log snapshot.
type Summary struct {
	Count      int
	Total      decimal.Decimal
	Today      decimal.Decimal
	TodayDate  Date
	ByCategory []CategoryShare
	ByDate     []DateTotal
}

// TotalSpent sums every amount in log.
func TotalSpent(log []Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range log {
		total = total.Add(e.Amount)
	}
	return total
}

// TodaySpent sums the amounts whose date is exactly today.
func TodaySpent(log []Expense, today Date) decimal.Decimal {
	total := decimal.Zero
	for _, e := range log {
		if e.Date == today {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// TotalsByCategory groups by category key in first-seen order. Keys outside
// the registry form their own groups.
func TotalsByCategory(log []Expense) []CategoryTotal {
	out := []CategoryTotal{}
	index := map[string]int{}
	for _, e := range log {
		i, ok := index[e.Category]
		if !ok {
			i = len(out)
			index[e.Category] = i
			out = append(out, CategoryTotal{Category: e.Category, Total: decimal.Zero})
		}
		out[i].Total = out[i].Total.Add(e.Amount)
	}
	return out
}

// TotalsByDate groups by the raw date string in first-seen order.
func TotalsByDate(log []Expense) []DateTotal {
	out := []DateTotal{}
	index := map[Date]int{}
	for _, e := range log {
		i, ok := index[e.Date]
		if !ok {
			i = len(out)
			index[e.Date] = i
			out = append(out, DateTotal{Date: e.Date, Total: decimal.Zero})
		}
		out[i].Total = out[i].Total.Add(e.Amount)
	}
	return out
}

// PercentageOfTotal returns part/total*100. A zero total yields 0 so an
// empty log renders without a division fault.
func PercentageOfTotal(part, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(total)
}

// Summarize computes every derived view from one snapshot. reg may be nil.
func Summarize(log []Expense, today Date, reg *Registry) Summary {
	total := TotalSpent(log)
	cats := TotalsByCategory(log)
	shares := make([]CategoryShare, 0, len(cats))
	for _, c := range cats {
		share := CategoryShare{
			CategoryTotal: c,
			Percentage:    PercentageOfTotal(c.Total, total),
			Meta:          Category{ID: c.Category, Label: c.Category},
		}
		if reg != nil {
			share.Meta = reg.Lookup(c.Category)
		}
		shares = append(shares, share)
	}
	return Summary{
		Count:      len(log),
		Total:      total,
		Today:      TodaySpent(log, today),
		TodayDate:  today,
		ByCategory: shares,
		ByDate:     TotalsByDate(log),
	}
}

// RecentDates returns at most n leading entries of ByDate. n <= 0 returns
// all of them.
func (s Summary) RecentDates(n int) []DateTotal {
	if n <= 0 || n >= len(s.ByDate) {
		return s.ByDate
	}
	return s.ByDate[:n]
}
