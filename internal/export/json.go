package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"tally/internal/core"
)

// jsonVersion tags the document layout for consumers.
const jsonVersion = "1.0"

type (
	jsonDocument struct {
		Metadata jsonMetadata  `json:"metadata"`
		Summary  jsonSummary   `json:"summary"`
		Expenses []jsonExpense `json:"expenses"`
	}

	jsonMetadata struct {
		GeneratedAt   string         `json:"generatedAt"`
		TotalExpenses int            `json:"totalExpenses"`
		TotalAmount   float64        `json:"totalAmount"`
		DateRange     core.DateRange `json:"dateRange"`
		ExportFormat  Format         `json:"exportFormat"`
		Version       string         `json:"version"`
	}

	jsonSummary struct {
		TotalAmount     float64                       `json:"totalAmount"`
		TotalCount      int                           `json:"totalCount"`
		AverageAmount   float64                       `json:"averageAmount"`
		CategorySummary map[string]core.CategoryTotal `json:"categorySummary"`
	}

	jsonExpense struct {
		ID                string        `json:"id"`
		Amount            float64       `json:"amount"`
		FormattedAmount   string        `json:"formattedAmount"`
		Category          core.Category `json:"category"`
		FormattedCategory string        `json:"formattedCategory"`
		CategoryEmoji     string        `json:"categoryEmoji"`
		Description       string        `json:"description"`
		Date              string        `json:"date"`
		FormattedDate     string        `json:"formattedDate"`
		PhotoURL          string        `json:"photoUrl,omitempty"`
	}
)

func renderJSON(s core.Summary, generatedAt time.Time) (string, error) {
	doc := jsonDocument{
		Metadata: jsonMetadata{
			GeneratedAt:   generatedAt.Format(time.RFC3339Nano),
			TotalExpenses: s.TotalCount,
			TotalAmount:   s.TotalAmount,
			DateRange:     s.DateRange,
			ExportFormat:  FormatJSON,
			Version:       jsonVersion,
		},
		Summary: jsonSummary{
			TotalAmount:     s.TotalAmount,
			TotalCount:      s.TotalCount,
			AverageAmount:   s.Average(),
			CategorySummary: s.Categories,
		},
		Expenses: make([]jsonExpense, 0, len(s.Expenses)),
	}
	for _, e := range s.Expenses {
		doc.Expenses = append(doc.Expenses, jsonExpense{
			ID:                e.ID,
			Amount:            e.Amount,
			FormattedAmount:   core.FormatCurrency(e.Amount),
			Category:          e.Category,
			FormattedCategory: core.FormatCategory(e.Category),
			CategoryEmoji:     core.CategoryEmoji(e.Category),
			Description:       e.Description,
			Date:              e.Date,
			FormattedDate:     core.FormatDate(e.Date),
			PhotoURL:          e.PhotoURL,
		})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("encode json export: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
