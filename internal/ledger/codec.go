package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"masarif/internal/core"
)

// record is the persisted shape of one expense. Amounts are written as
// JSON numbers with their exact decimal digits.
type record struct {
	ID          json.Number `json:"id"`
	Amount      json.Number `json:"amount"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Date        string      `json:"date"`
	Time        string      `json:"time"`
}

// Encode serializes log as a JSON array, newest first. An empty log encodes
// as [].
func Encode(log []core.Expense) ([]byte, error) {
	out := make([]record, 0, len(log))
	for _, e := range log {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("encode expense %d: %w", e.ID, err)
		}
		out = append(out, record{
			ID:          json.Number(fmt.Sprint(e.ID)),
			Amount:      json.Number(e.Amount.String()),
			Category:    e.Category,
			Description: e.Description,
			Date:        e.Date.String(),
			Time:        e.Time.String(),
		})
	}
	return json.Marshal(out)
}

// Decode parses a persisted log. Any shape problem, including a null or
// non-array document, trailing data, a negative amount or a blank category,
// is reported as core.ErrStorageCorrupt.
func Decode(data []byte) ([]core.Expense, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: expected a JSON array", core.ErrStorageCorrupt)
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var raw []record
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStorageCorrupt, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after array", core.ErrStorageCorrupt)
	}

	log := make([]core.Expense, 0, len(raw))
	for i, r := range raw {
		e, err := r.expense()
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", core.ErrStorageCorrupt, i, err)
		}
		log = append(log, e)
	}
	return log, nil
}

func (r record) expense() (core.Expense, error) {
	id, err := r.ID.Int64()
	if err != nil {
		return core.Expense{}, fmt.Errorf("id %q: %w", r.ID, err)
	}
	if r.Amount == "" {
		return core.Expense{}, core.ErrInvalidAmount
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(r.Amount.String()))
	if err != nil {
		return core.Expense{}, fmt.Errorf("amount %q: %w", r.Amount, err)
	}
	e := core.Expense{
		ID:          id,
		Amount:      amount,
		Category:    r.Category,
		Description: r.Description,
		Date:        core.Date(r.Date),
		Time:        core.TimeOfDay(r.Time),
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}
