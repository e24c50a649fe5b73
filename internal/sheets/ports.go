package sheets

import (
	"context"

	"tally/internal/core"
)

// RowMirror keeps one spreadsheet row per expense, keyed by expense ID.
type RowMirror interface {
	// UpsertRow writes e to its existing row or appends a new one.
	UpsertRow(ctx context.Context, userID string, e core.Expense) error
	// DeleteRow clears the expense's row. Unknown IDs are ignored.
	DeleteRow(ctx context.Context, userID, expenseID string) error
}
