package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2025-11-18", true},
		{" 2024-02-29 ", true},
		{"2025-02-30", false},
		{"18/11/2025", false},
		{"2025-11-18T10:00", false},
		{"", false},
	}
	for i, tc := range cases {
		_, err := ParseDate(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("case %d expected ErrInvalidDate, got %v", i, err)
		}
	}
}

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"13:30", true},
		{"00:00", true},
		{"23:59", true},
		{"24:00", false},
		{"9:05", false},
		{"13:30:00", false},
		{"", false},
	}
	for i, tc := range cases {
		_, err := ParseTimeOfDay(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidTime) {
			t.Fatalf("case %d expected ErrInvalidTime, got %v", i, err)
		}
	}
}

func TestDateOfUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	instant := time.Date(2025, 11, 18, 22, 30, 0, 0, time.UTC)
	if got := DateOf(instant.In(loc)); got != "2025-11-19" {
		t.Fatalf("expected local date 2025-11-19, got %s", got)
	}
	if got := TimeOfDayOf(instant.In(loc)); got != "01:30" {
		t.Fatalf("expected local time 01:30, got %s", got)
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{ID: 1, Amount: decimal.NewFromInt(3), Category: "legacy-unknown", Date: "2025-11-18"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	zero := good
	zero.Amount = decimal.Zero
	if err := zero.Validate(); err != nil {
		t.Fatalf("zero amount should be allowed, got %v", err)
	}

	neg := good
	neg.Amount = decimal.NewFromInt(-1)
	if err := neg.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	blank := good
	blank.Category = "  "
	if err := blank.Validate(); !errors.Is(err, ErrMissingCategory) {
		t.Fatalf("expected ErrMissingCategory, got %v", err)
	}
}

func TestExpenseEqualComparesAmountByValue(t *testing.T) {
	a := Expense{ID: 7, Amount: decimal.RequireFromString("12.50"), Category: "food"}
	b := Expense{ID: 7, Amount: decimal.RequireFromString("12.5"), Category: "food"}
	if !a.Equal(b) {
		t.Fatalf("expected equal records")
	}
	b.Description = "x"
	if a.Equal(b) {
		t.Fatalf("expected records to differ")
	}
}

func TestRegistryLookup(t *testing.T) {
	reg := DefaultRegistry()
	if len(reg.List()) != 6 {
		t.Fatalf("expected 6 categories, got %d", len(reg.List()))
	}
	food := reg.Lookup(CategoryFood)
	if !food.Known || food.Label != "Food" {
		t.Fatalf("unexpected food metadata: %+v", food)
	}
	legacy := reg.Lookup("legacy-unknown")
	if legacy.Known || legacy.ID != "legacy-unknown" {
		t.Fatalf("unknown key must keep its ID and be flagged: %+v", legacy)
	}
	if legacy.Label != "legacy-unknown" {
		t.Fatalf("unknown key should be labelled with its ID, got %q", legacy.Label)
	}
	other := reg.Lookup(CategoryOther)
	if legacy.Icon != other.Icon || legacy.Color != other.Color {
		t.Fatalf("unknown key should borrow the fallback icon and color")
	}
	if reg.Has("legacy-unknown") {
		t.Fatalf("unknown key must not be reported as active")
	}
}
