package export

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"tally/internal/core"
)

const (
	reportWidth = 60
	recentLimit = 10
)

func renderSummary(s core.Summary, generatedAt time.Time) string {
	var b strings.Builder
	rule := strings.Repeat("=", reportWidth)
	line := strings.Repeat("-", reportWidth)

	b.WriteString(rule + "\n")
	b.WriteString(center("EXPENSE REPORT", reportWidth) + "\n")
	b.WriteString(rule + "\n")
	b.WriteString("Generated: " + generatedAt.Format(core.DisplayDateLayout) + "\n")
	if s.DateRange.Start != "" {
		b.WriteString("Period: " + s.DateRange.Start + " - " + s.DateRange.End + "\n")
	}

	b.WriteString("\nOverview\n" + line + "\n")
	fmt.Fprintf(&b, "Total Expenses: %d\n", s.TotalCount)
	fmt.Fprintf(&b, "Total Amount: %s\n", core.FormatCurrency(s.TotalAmount))
	fmt.Fprintf(&b, "Average Amount: %s\n", core.FormatCurrency(s.Average()))

	if s.TotalCount == 0 {
		return b.String()
	}

	b.WriteString("\nCategory Breakdown\n" + line + "\n")
	for _, label := range s.SortedCategories() {
		ct := s.Categories[label]
		fmt.Fprintf(&b, "%-14s %14s %7s  %d %s\n",
			label,
			core.FormatCurrency(ct.Amount),
			percentOf(ct.Amount, s.TotalAmount),
			ct.Count,
			plural(ct.Count, "expense", "expenses"))
	}

	b.WriteString("\nRecent Expenses (Top 10)\n" + line + "\n")
	for _, e := range mostRecent(s.Expenses, recentLimit) {
		fmt.Fprintf(&b, "%-12s  %-14s %14s  %s\n",
			core.FormatDate(e.Date),
			core.FormatCategory(e.Category),
			core.FormatCurrency(e.Amount),
			singleLine(e.Description))
	}
	return b.String()
}

// singleLine replaces control characters so a description cannot break the
// report's one-line-per-expense layout.
func singleLine(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
}

// mostRecent returns up to n expenses ordered by calendar date descending;
// same-day records keep their input order.
func mostRecent(expenses []core.Expense, n int) []core.Expense {
	out := make([]core.Expense, len(expenses))
	copy(out, expenses)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Day() > out[j].Day()
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func percentOf(part, total float64) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", part/total*100)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func center(s string, width int) string {
	pad := (width - len(s)) / 2
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad) + s
}
