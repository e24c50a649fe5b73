package export

import (
	"strconv"
	"strings"
	"time"

	"tally/internal/core"
)

const csvHeader = "Date,Description,Category,Amount"

// renderCSV writes every data field quoted. encoding/csv only quotes fields
// that need it, which would change the bytes spreadsheet users diff against.
func renderCSV(s core.Summary, generatedAt time.Time, headers bool) string {
	var b strings.Builder

	if headers {
		b.WriteString("# Expense Report\n")
		b.WriteString("# Generated: " + generatedAt.Format(time.RFC3339) + "\n")
		b.WriteString("# Total Expenses: " + strconv.Itoa(s.TotalCount) + "\n")
		b.WriteString("# Total Amount: " + csvAmount(s.TotalAmount) + "\n")
		if s.TotalCount > 0 {
			b.WriteString("# Date Range: " + s.DateRange.Start + " - " + s.DateRange.End + "\n")
		}
		b.WriteString("#\n")
	}

	b.WriteString(csvHeader + "\n")
	for _, e := range s.Expenses {
		writeCSVRow(&b,
			core.FormatDate(e.Date),
			e.Description,
			core.FormatCategory(e.Category),
			csvAmount(e.Amount))
	}

	if headers {
		b.WriteString("\n# Category Summary\n")
		b.WriteString("Category,Count,Total Amount\n")
		for _, label := range s.SortedCategories() {
			ct := s.Categories[label]
			writeCSVRow(&b, label, strconv.Itoa(ct.Count), csvAmount(ct.Amount))
		}
	}
	return b.String()
}

func writeCSVRow(b *strings.Builder, fields ...string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(quoteCSV(f))
	}
	b.WriteByte('\n')
}

func quoteCSV(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// csvAmount renders "$X.XX" without grouping so spreadsheets parse it.
func csvAmount(amount float64) string {
	return "$" + core.FixedAmount(amount)
}
