// Package store defines the per-user expense persistence port.
package store

import (
	"context"
	"errors"

	"tally/internal/core"
)

// ErrNotFound is returned when an expense does not exist for the user.
var ErrNotFound = errors.New("expense not found")

// ExpenseStore persists expenses scoped by user. List returns the user's
// expenses ordered by core.NewestFirst.
//
//go:generate mockgen -destination=mocks/mock_store.go -package=mocks -source=store.go ExpenseStore
type ExpenseStore interface {
	Create(ctx context.Context, userID string, in core.NewExpense) (core.Expense, error)
	Get(ctx context.Context, userID, id string) (core.Expense, error)
	Update(ctx context.Context, userID, id string, patch core.ExpensePatch) (core.Expense, error)
	Delete(ctx context.Context, userID, id string) (core.Expense, error)
	List(ctx context.Context, userID string) ([]core.Expense, error)
	Close() error
}
