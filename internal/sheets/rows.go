package sheets

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"masarif/internal/core"
)

// Header is the first row of an exported sheet.
var Header = []string{"ID", "Date", "Time", "Category", "Description", "Amount"}

// ToRow renders a record in Header column order. Rows are written with the
// RAW input option, so text cells are stored verbatim and never parsed as
// formulas; the amount goes out as a JSON number to stay numeric.
func ToRow(e core.Expense) []any {
	return []any{
		strconv.FormatInt(e.ID, 10),
		e.Date.String(),
		e.Time.String(),
		e.Category,
		e.Description,
		json.Number(e.Amount.String()),
	}
}

// HeaderRow returns Header as a sheet row.
func HeaderRow() []any {
	row := make([]any, len(Header))
	for i, h := range Header {
		row[i] = h
	}
	return row
}

// FromRow parses a row written by ToRow. Header and short rows fail.
func FromRow(row []any) (core.Expense, error) {
	cols := toStrings(row)
	if len(cols) < len(Header) {
		return core.Expense{}, fmt.Errorf("row has %d columns, want %d", len(cols), len(Header))
	}
	id, err := strconv.ParseInt(cols[0], 10, 64)
	if err != nil {
		return core.Expense{}, fmt.Errorf("id %q: %w", cols[0], err)
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(cols[5], ",", "."))
	if err != nil {
		return core.Expense{}, fmt.Errorf("amount %q: %w", cols[5], err)
	}
	e := core.Expense{
		ID:          id,
		Amount:      amount,
		Category:    cols[3],
		Description: cols[4],
		Date:        core.Date(cols[1]),
		Time:        core.TimeOfDay(cols[2]),
	}
	return e, e.Validate()
}

// RowIDs extracts the IDs from the first column, skipping rows that do not
// hold one (the header, blanks).
func RowIDs(values [][]any) map[int64]int {
	ids := make(map[int64]int, len(values))
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(fmt.Sprint(row[0])), 10, 64)
		if err != nil {
			continue
		}
		ids[id] = i + 1
	}
	return ids
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
