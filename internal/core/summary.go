package core

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// DateRange holds formatted first and last dates; both are empty when the
// summarized set is empty.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// CategoryTotal aggregates the expenses of one category.
type CategoryTotal struct {
	Category Category `json:"-"`
	Amount   float64  `json:"amount"`
	Count    int      `json:"count"`
}

// Summary is a derived, never persisted projection of a set of expenses.
type Summary struct {
	TotalAmount float64                  `json:"totalAmount"`
	TotalCount  int                      `json:"totalCount"`
	DateRange   DateRange                `json:"dateRange"`
	Categories  map[string]CategoryTotal `json:"categorySummary"` // keyed by FormatCategory label
	Expenses    []Expense                `json:"-"`
}

// Summarize computes totals, the covered date range and the per-category
// breakdown of expenses. The input slice is not modified.
func Summarize(expenses []Expense) Summary {
	s := Summary{
		Categories: make(map[string]CategoryTotal),
		Expenses:   make([]Expense, len(expenses)),
	}
	copy(s.Expenses, expenses)
	if len(expenses) == 0 {
		return s
	}

	total := decimal.Zero
	byCategory := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		amount := toDecimal(e.Amount)
		total = total.Add(amount)

		label := FormatCategory(e.Category)
		byCategory[label] = byCategory[label].Add(amount)
		ct := s.Categories[label]
		ct.Category = e.Category
		ct.Count++
		s.Categories[label] = ct
	}
	for label, amount := range byCategory {
		ct := s.Categories[label]
		ct.Amount = amount.InexactFloat64()
		s.Categories[label] = ct
	}
	s.TotalAmount = total.InexactFloat64()
	s.TotalCount = len(expenses)

	sorted := SortByDate(expenses)
	s.DateRange = DateRange{
		Start: FormatDate(sorted[0].Date),
		End:   FormatDate(sorted[len(sorted)-1].Date),
	}
	return s
}

// SortByDate returns a copy of expenses ordered by calendar date ascending;
// records on the same day keep their relative order.
func SortByDate(expenses []Expense) []Expense {
	out := make([]Expense, len(expenses))
	copy(out, expenses)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Day() < out[j].Day()
	})
	return out
}

// Average returns the mean expense amount rounded to cents.
func (s Summary) Average() float64 {
	return AverageAmount(s.TotalAmount, s.TotalCount)
}

// SortedCategories returns the category labels ordered by amount
// descending, ties broken by label.
func (s Summary) SortedCategories() []string {
	labels := make([]string, 0, len(s.Categories))
	for label := range s.Categories {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		a, b := s.Categories[labels[i]], s.Categories[labels[j]]
		if a.Amount != b.Amount {
			return a.Amount > b.Amount
		}
		return labels[i] < labels[j]
	})
	return labels
}

// NewestFirst orders expenses the way stored lists are kept: calendar date
// descending, then creation time descending, then ID.
func NewestFirst(a, b Expense) int {
	if d := strings.Compare(b.Day(), a.Day()); d != 0 {
		return d
	}
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}
