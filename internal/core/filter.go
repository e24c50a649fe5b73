package core

import "strings"

// FilterOptions narrows a set of expenses. A zero-valued field (empty
// string or 0) places no constraint on its dimension.
type FilterOptions struct {
	Category  Category `json:"category,omitempty"`
	StartDate string   `json:"startDate,omitempty"` // inclusive; date or RFC 3339, compared by UTC day
	EndDate   string   `json:"endDate,omitempty"`   // inclusive; date or RFC 3339, compared by UTC day
	MinAmount float64  `json:"minAmount,omitempty"` // inclusive
	MaxAmount float64  `json:"maxAmount,omitempty"` // inclusive
	Search    string   `json:"search,omitempty"`    // case-insensitive substring of Description
}

// IsZero reports whether no constraint is set.
func (o FilterOptions) IsZero() bool {
	return o == FilterOptions{}
}

// Match reports whether e satisfies every set constraint.
func (o FilterOptions) Match(e Expense) bool {
	return o.withCalendarBounds().match(e)
}

// withCalendarBounds reduces the date bounds to UTC calendar days.
// Unparseable bounds are left as given.
func (o FilterOptions) withCalendarBounds() FilterOptions {
	for _, d := range []*string{&o.StartDate, &o.EndDate} {
		if *d == "" {
			continue
		}
		if day, err := CalendarDate(*d); err == nil {
			*d = day
		}
	}
	return o
}

func (o FilterOptions) match(e Expense) bool {
	if o.Category != "" && e.Category != o.Category {
		return false
	}
	if o.StartDate != "" || o.EndDate != "" {
		// ISO calendar dates order lexicographically.
		day := e.Day()
		if o.StartDate != "" && day < o.StartDate {
			return false
		}
		if o.EndDate != "" && day > o.EndDate {
			return false
		}
	}
	if o.MinAmount != 0 && e.Amount < o.MinAmount {
		return false
	}
	if o.MaxAmount != 0 && e.Amount > o.MaxAmount {
		return false
	}
	if o.Search != "" && !strings.Contains(strings.ToLower(e.Description), strings.ToLower(o.Search)) {
		return false
	}
	return true
}

// Filter returns the expenses matching opts in their original order. The
// input is never modified and the result never aliases it.
func Filter(expenses []Expense, opts FilterOptions) []Expense {
	opts = opts.withCalendarBounds()
	out := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		if opts.match(e) {
			out = append(out, e)
		}
	}
	return out
}
