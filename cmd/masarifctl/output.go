package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"masarif/internal/core"
)

func printJSON(rc *runContext, v any) error {
	enc := json.NewEncoder(rc.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type expenseJSON struct {
	ID          int64       `json:"id"`
	Amount      json.Number `json:"amount"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Date        string      `json:"date"`
	Time        string      `json:"time"`
}

func printExpenses(rc *runContext, log []core.Expense) error {
	if rc.json {
		out := make([]expenseJSON, 0, len(log))
		for _, e := range log {
			out = append(out, expenseJSON{
				ID:          e.ID,
				Amount:      json.Number(e.Amount.String()),
				Category:    e.Category,
				Description: e.Description,
				Date:        e.Date.String(),
				Time:        e.Time.String(),
			})
		}
		return printJSON(rc, out)
	}

	tw := tabwriter.NewWriter(rc.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTIME\tCATEGORY\tAMOUNT\tDESCRIPTION")
	for _, e := range log {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", e.ID, e.Date, e.Time, e.Category, e.Amount.StringFixed(2), e.Description)
	}
	return tw.Flush()
}

func printSummary(rc *runContext, s core.Summary, days int) error {
	dates := s.RecentDates(days)
	if rc.json {
		type share struct {
			Category   string      `json:"category"`
			Label      string      `json:"label"`
			Total      json.Number `json:"total"`
			Percentage json.Number `json:"percentage"`
		}
		type day struct {
			Date  string      `json:"date"`
			Total json.Number `json:"total"`
		}
		out := struct {
			Count      int         `json:"count"`
			Total      json.Number `json:"total"`
			Today      json.Number `json:"today"`
			TodayDate  string      `json:"today_date"`
			ByCategory []share     `json:"by_category"`
			ByDate     []day       `json:"by_date"`
		}{
			Count:      s.Count,
			Total:      json.Number(s.Total.String()),
			Today:      json.Number(s.Today.String()),
			TodayDate:  s.TodayDate.String(),
			ByCategory: []share{},
			ByDate:     []day{},
		}
		for _, c := range s.ByCategory {
			out.ByCategory = append(out.ByCategory, share{
				Category:   c.Category,
				Label:      c.Meta.Label,
				Total:      json.Number(c.Total.String()),
				Percentage: json.Number(c.Percentage.Round(2).String()),
			})
		}
		for _, d := range dates {
			out.ByDate = append(out.ByDate, day{Date: d.Date.String(), Total: json.Number(d.Total.String())})
		}
		return printJSON(rc, out)
	}

	tw := tabwriter.NewWriter(rc.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Expenses:\t%d\n", s.Count)
	fmt.Fprintf(tw, "Total spent:\t%s\n", s.Total.StringFixed(2))
	fmt.Fprintf(tw, "Today (%s):\t%s\n", s.TodayDate, s.Today.StringFixed(2))
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "CATEGORY\tTOTAL\tSHARE")
	for _, c := range s.ByCategory {
		label := c.Meta.Label
		if !c.Meta.Known {
			label = c.Category
		}
		fmt.Fprintf(tw, "%s %s\t%s\t%s%%\n", c.Meta.Icon, label, c.Total.StringFixed(2), c.Percentage.StringFixed(1))
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "DATE\tTOTAL")
	for _, d := range dates {
		fmt.Fprintf(tw, "%s\t%s\n", d.Date, d.Total.StringFixed(2))
	}
	return tw.Flush()
}

func printCategories(rc *runContext, cats []core.Category, defaultCategory string) error {
	if rc.json {
		return printJSON(rc, cats)
	}
	tw := tabwriter.NewWriter(rc.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tLABEL\tICON\tCOLOR\t")
	for _, c := range cats {
		mark := ""
		if c.ID == defaultCategory {
			mark = "(default)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Label, c.Icon, c.Color, mark)
	}
	return tw.Flush()
}
