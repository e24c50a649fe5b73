// Package realtime carries expense change notifications from the service
// layer to live subscribers and out-of-process consumers.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"tally/internal/core"
)

type EventType string

const (
	Insert EventType = "INSERT"
	Update EventType = "UPDATE"
	Delete EventType = "DELETE"
)

// ChangeEvent describes one mutation of a user's expense list. Expense is
// nil for deletes.
type ChangeEvent struct {
	Type      EventType     `json:"type"`
	UserID    string        `json:"user_id"`
	ExpenseID string        `json:"expense_id"`
	Expense   *core.Expense `json:"expense,omitempty"`
	At        time.Time     `json:"at"`
}

var ErrInvalidEvent = errors.New("invalid change event")

// Publisher delivers change events.
type Publisher interface {
	PublishChange(ctx context.Context, ev ChangeEvent) error
}

// Subscription yields the change events of a single user until closed.
type Subscription interface {
	Events() <-chan ChangeEvent
	Close()
}

// NewEvent builds an event for e. Delete events drop the payload.
func NewEvent(t EventType, userID string, e core.Expense, at time.Time) ChangeEvent {
	ev := ChangeEvent{Type: t, UserID: userID, ExpenseID: e.ID, At: at.UTC()}
	if t != Delete {
		ev.Expense = &e
	}
	return ev
}

func (ev ChangeEvent) Validate() error {
	if ev.UserID == "" || ev.ExpenseID == "" {
		return fmt.Errorf("%w: missing user or expense id", ErrInvalidEvent)
	}
	switch ev.Type {
	case Insert, Update:
		if ev.Expense == nil {
			return fmt.Errorf("%w: %s without expense", ErrInvalidEvent, ev.Type)
		}
		if ev.Expense.ID != ev.ExpenseID {
			return fmt.Errorf("%w: expense id mismatch", ErrInvalidEvent)
		}
	case Delete:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, ev.Type)
	}
	return nil
}

// Apply returns a copy of list, ordered by core.NewestFirst, with ev
// applied. An insert of a known ID replaces it; deleting an unknown ID
// changes nothing.
func Apply(list []core.Expense, ev ChangeEvent) []core.Expense {
	out := slices.DeleteFunc(slices.Clone(list), func(e core.Expense) bool {
		return e.ID == ev.ExpenseID
	})
	if out == nil {
		out = []core.Expense{}
	}
	switch ev.Type {
	case Insert, Update:
		if ev.Expense == nil {
			return out
		}
		i, _ := slices.BinarySearchFunc(out, *ev.Expense, core.NewestFirst)
		out = slices.Insert(out, i, *ev.Expense)
	}
	return out
}

// Fanout publishes to every publisher and joins their errors.
type Fanout []Publisher

func (f Fanout) PublishChange(ctx context.Context, ev ChangeEvent) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.PublishChange(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
