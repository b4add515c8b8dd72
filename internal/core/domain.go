package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DateLayout is the calendar date format stored in every record.
	DateLayout = "2006-01-02"
	// TimeLayout is the 24-hour, minute precision time-of-day format.
	TimeLayout = "15:04"

	// PlaceholderDescription replaces an empty description at creation.
	PlaceholderDescription = "general expense"
)

type (
	// Date is a calendar date without time zone (YYYY-MM-DD). Records keep
	// the value verbatim, so grouping compares the raw strings.
	Date string

	// TimeOfDay is a local 24-hour time with minute precision (HH:MM).
	TimeOfDay string

	// Expense is one logged spending event. Records are created once and
	// never mutated afterwards.
	Expense struct {
		ID          int64
		Amount      decimal.Decimal
		Category    string
		Description string
		Date        Date
		Time        TimeOfDay
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrMissingCategory = errors.New("missing category")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidTime     = errors.New("invalid time")
	ErrDuplicateID     = errors.New("duplicate expense id")
	ErrStorageCorrupt  = errors.New("storage corrupt")
)

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

// TimeOfDayOf returns the HH:MM time of t in t's own location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay(t.Format(TimeLayout))
}

// ParseDate validates s as YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if _, err := time.Parse(DateLayout, s); err != nil {
		return "", ErrInvalidDate
	}
	return Date(s), nil
}

// ParseTimeOfDay validates s as HH:MM.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	if len(s) != len(TimeLayout) {
		return "", ErrInvalidTime
	}
	if _, err := time.Parse(TimeLayout, s); err != nil {
		return "", ErrInvalidTime
	}
	return TimeOfDay(s), nil
}

func (d Date) String() string { return string(d) }

func (t TimeOfDay) String() string { return string(t) }

// Validate checks the invariants every stored record must hold. Unknown
// categories are accepted: the registry only affects display.
func (e Expense) Validate() error {
	if e.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrMissingCategory
	}
	return nil
}

// Equal compares two records field by field, amounts by value.
func (e Expense) Equal(o Expense) bool {
	return e.ID == o.ID &&
		e.Amount.Equal(o.Amount) &&
		e.Category == o.Category &&
		e.Description == o.Description &&
		e.Date == o.Date &&
		e.Time == o.Time
}

// CloneLog returns a copy of log that shares no backing array with it.
func CloneLog(log []Expense) []Expense {
	out := make([]Expense, len(log))
	copy(out, log)
	return out
}
