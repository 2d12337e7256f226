package headcount

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Period is a calendar month.
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf returns the month containing t, in t's location.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// ParsePeriod accepts "YYYY-MM" and the legacy "MM/YYYY" label.
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)

	var year, month string
	switch {
	case len(s) == 7 && s[4] == '-':
		year, month = s[:4], s[5:]
	case len(s) == 7 && s[2] == '/':
		month, year = s[:2], s[3:]
	default:
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}

	y, err := strconv.Atoi(year)
	if err != nil || y < 1 {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return Period{Year: y, Month: time.Month(m)}, nil
}

// String formats the period as YYYY-MM.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Label formats the period as MM/YYYY, the form stored in budget histories.
func (p Period) Label() string {
	return fmt.Sprintf("%02d/%04d", int(p.Month), p.Year)
}

// Before reports whether p is earlier than o.
func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Month < o.Month
}

// IsZero reports whether p is unset.
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// BudgetEntry is the authorized headcount of one month.
type BudgetEntry struct {
	Period Period
	Count  int
}

// BudgetHistory is ordered by period, oldest first, without duplicates.
type BudgetHistory []BudgetEntry

// NewBudgetHistory builds a history from stored labels. Labels that are not
// periods are skipped; when two labels name the same month the larger wins.
func NewBudgetHistory(raw map[string]int) BudgetHistory {
	byPeriod := make(map[Period]int, len(raw))
	for label, count := range raw {
		p, err := ParsePeriod(label)
		if err != nil {
			continue
		}
		if prev, ok := byPeriod[p]; !ok || count > prev {
			byPeriod[p] = count
		}
	}

	h := make(BudgetHistory, 0, len(byPeriod))
	for p, c := range byPeriod {
		h = append(h, BudgetEntry{Period: p, Count: c})
	}
	sort.Slice(h, func(i, j int) bool { return h[i].Period.Before(h[j].Period) })
	return h
}

// Lookup returns the count for p, else the most recent count before p, else 0.
func (h BudgetHistory) Lookup(p Period) int {
	i := sort.Search(len(h), func(i int) bool { return !h[i].Period.Before(p) })
	if i < len(h) && h[i].Period == p {
		return h[i].Count
	}
	if i == 0 {
		return 0
	}
	return h[i-1].Count
}

// Map returns the history keyed by YYYY-MM.
func (h BudgetHistory) Map() map[string]int {
	out := make(map[string]int, len(h))
	for _, e := range h {
		out[e.Period.String()] = e.Count
	}
	return out
}

// PeriodPolicy decides which month "current" budgets are read from.
type PeriodPolicy struct {
	fixed Period
	loc   *time.Location
}

// NewPeriodPolicy pins reporting to fixed when it is non-empty; otherwise the
// wall-clock month in loc is used.
func NewPeriodPolicy(fixed string, loc *time.Location) (PeriodPolicy, error) {
	if loc == nil {
		loc = time.UTC
	}
	policy := PeriodPolicy{loc: loc}
	if strings.TrimSpace(fixed) == "" {
		return policy, nil
	}
	p, err := ParsePeriod(fixed)
	if err != nil {
		return PeriodPolicy{}, err
	}
	policy.fixed = p
	return policy, nil
}

// Current returns the reporting period at now.
func (p PeriodPolicy) Current(now time.Time) Period {
	if !p.fixed.IsZero() {
		return p.fixed
	}
	loc := p.loc
	if loc == nil {
		loc = time.UTC
	}
	return PeriodOf(now.In(loc))
}
