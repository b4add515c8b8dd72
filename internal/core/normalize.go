package core

import (
	"strings"
	"sync"
	"time"
)

// Clock returns the current time. The normalizer never reads the system
// clock directly.
type Clock func() time.Time

// IDSource hands out record identifiers.
type IDSource interface {
	NextID() int64
}

// RawInput holds the form fields exactly as the user typed them.
type RawInput struct {
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Time        string `json:"time"`
}

// MonotonicIDs issues unix-millisecond IDs, bumped when two records land in
// the same millisecond so IDs stay strictly increasing.
type MonotonicIDs struct {
	mu    sync.Mutex
	clock Clock
	last  int64
}

// NewMonotonicIDs creates an ID source driven by clock.
func NewMonotonicIDs(clock Clock) *MonotonicIDs {
	if clock == nil {
		clock = time.Now
	}
	return &MonotonicIDs{clock: clock}
}

// Observe makes sure future IDs are greater than id.
func (m *MonotonicIDs) Observe(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id > m.last {
		m.last = id
	}
}

func (m *MonotonicIDs) NextID() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.clock().UnixMilli()
	if id <= m.last {
		id = m.last + 1
	}
	m.last = id
	return id
}

// Normalizer turns raw form input into a well-formed Expense.
type Normalizer struct {
	Clock    Clock
	IDs      IDSource
	Location *time.Location
}

// NewNormalizer returns a normalizer using clock for defaults and IDs.
func NewNormalizer(clock Clock, loc *time.Location) *Normalizer {
	if clock == nil {
		clock = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &Normalizer{Clock: clock, IDs: NewMonotonicIDs(clock), Location: loc}
}

func (n *Normalizer) now() time.Time {
	clock := n.Clock
	if clock == nil {
		clock = time.Now
	}
	t := clock()
	if n.Location != nil {
		t = t.In(n.Location)
	}
	return t
}

// Normalize validates in and applies the creation defaults. It has no side
// effects: the caller passes the result to the store.
func (n *Normalizer) Normalize(in RawInput) (Expense, error) {
	if strings.TrimSpace(in.Amount) == "" {
		return Expense{}, ErrInvalidAmount
	}
	category := cleanText(in.Category)
	if category == "" {
		return Expense{}, ErrMissingCategory
	}
	amount, err := ParseAmount(in.Amount)
	if err != nil {
		return Expense{}, err
	}

	now := n.now()
	date := DateOf(now)
	if v := strings.TrimSpace(in.Date); v != "" {
		if date, err = ParseDate(v); err != nil {
			return Expense{}, err
		}
	}
	tod := TimeOfDayOf(now)
	if v := strings.TrimSpace(in.Time); v != "" {
		if tod, err = ParseTimeOfDay(v); err != nil {
			return Expense{}, err
		}
	}

	desc := cleanText(in.Description)
	if desc == "" {
		desc = PlaceholderDescription
	}

	ids := n.IDs
	if ids == nil {
		ids = NewMonotonicIDs(n.Clock)
		n.IDs = ids
	}

	return Expense{
		ID:          ids.NextID(),
		Amount:      amount,
		Category:    category,
		Description: desc,
		Date:        date,
		Time:        tod,
	}, nil
}

// cleanText trims s and replaces invalid UTF-8 with U+FFFD, leaving the
// JSON encoder nothing to rewrite so a stored record reads back equal.
func cleanText(s string) string {
	return strings.TrimSpace(strings.ToValidUTF8(s, "\uFFFD"))
}

// NewForm returns the pre-filled form a shell shows before the user types:
// default category, today's date and the current time.
func NewForm(clock Clock, loc *time.Location, defaultCategory string) RawInput {
	if clock == nil {
		clock = time.Now
	}
	now := clock()
	if loc != nil {
		now = now.In(loc)
	}
	return RawInput{
		Category: defaultCategory,
		Date:     DateOf(now).String(),
		Time:     TimeOfDayOf(now).String(),
	}
}
