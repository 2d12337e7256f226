package headcount

import (
	"errors"
	"testing"
	"time"
)

func TestParsePeriod(t *testing.T) {
	t.Parallel()

	valid := map[string]Period{
		"2025-10":   {2025, time.October},
		"10/2025":   {2025, time.October},
		" 01/2024 ": {2024, time.January},
	}
	for raw, want := range valid {
		got, err := ParsePeriod(raw)
		if err != nil {
			t.Fatalf("ParsePeriod(%q) returned error: %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParsePeriod(%q) = %v, want %v", raw, got, want)
		}
	}

	for _, raw := range []string{"", "2025-13", "13/2025", "2025/10", "Out/2025", "2025-1"} {
		if _, err := ParsePeriod(raw); !errors.Is(err, ErrInvalidPeriod) {
			t.Fatalf("ParsePeriod(%q): expected ErrInvalidPeriod, got %v", raw, err)
		}
	}
}

func TestPeriod_Format(t *testing.T) {
	t.Parallel()

	p := Period{Year: 2025, Month: time.September}
	if p.String() != "2025-09" || p.Label() != "09/2025" {
		t.Fatalf("unexpected formats %s %s", p.String(), p.Label())
	}
}

func TestBudgetHistory_Lookup(t *testing.T) {
	t.Parallel()

	h := NewBudgetHistory(map[string]int{
		"09/2025": 2,
		"10/2025": 3,
		"2025-12": 5,
		"total":   99,
	})

	if len(h) != 3 {
		t.Fatalf("expected malformed labels to be skipped, got %v", h)
	}

	cases := []struct {
		period Period
		want   int
	}{
		{Period{2025, time.October}, 3},
		{Period{2025, time.September}, 2},
		{Period{2025, time.November}, 3},
		{Period{2026, time.March}, 5},
		{Period{2025, time.August}, 0},
	}
	for _, tc := range cases {
		if got := h.Lookup(tc.period); got != tc.want {
			t.Errorf("Lookup(%s) = %d, want %d", tc.period, got, tc.want)
		}
	}

	if got := BudgetHistory(nil).Lookup(Period{2025, time.October}); got != 0 {
		t.Fatalf("empty history must yield 0, got %d", got)
	}
}

func TestBudgetHistory_Map(t *testing.T) {
	t.Parallel()

	m := NewBudgetHistory(map[string]int{"10/2025": 3}).Map()
	if len(m) != 1 || m["2025-10"] != 3 {
		t.Fatalf("unexpected map %v", m)
	}
}

func TestPeriodPolicy(t *testing.T) {
	t.Parallel()

	brt := time.FixedZone("BRT", -3*60*60)
	now := time.Date(2025, 11, 1, 2, 0, 0, 0, time.UTC)

	wall, err := NewPeriodPolicy("", brt)
	if err != nil {
		t.Fatalf("NewPeriodPolicy returned error: %v", err)
	}
	if got := wall.Current(now); got != (Period{2025, time.October}) {
		t.Fatalf("expected the local month October, got %v", got)
	}

	fixed, err := NewPeriodPolicy("2025-09", brt)
	if err != nil {
		t.Fatalf("NewPeriodPolicy returned error: %v", err)
	}
	if got := fixed.Current(now); got != (Period{2025, time.September}) {
		t.Fatalf("expected the pinned period, got %v", got)
	}

	if _, err := NewPeriodPolicy("setembro", brt); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}

	var zero PeriodPolicy
	if got := zero.Current(now); got != (Period{2025, time.November}) {
		t.Fatalf("zero policy must use UTC wall clock, got %v", got)
	}
}
