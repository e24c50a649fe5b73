package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"tally/internal/core"
	"tally/internal/store"
)

// DefaultUser owns seed records that do not name a user.
const DefaultUser = "local"

// Store keeps expenses in memory, keyed by user.
type Store struct {
	mu    sync.RWMutex
	items map[string][]core.Expense
	now   func() time.Time
	newID func() string
}

var _ store.ExpenseStore = (*Store)(nil)

func New() *Store {
	return &Store{
		items: make(map[string][]core.Expense),
		now:   time.Now,
		newID: uuid.NewString,
	}
}

type seedRecord struct {
	UserID string `json:"user_id"`
	core.Expense
}

// NewFromFile loads a JSON array of expenses. Records may carry a user_id;
// missing IDs and timestamps are filled in.
func NewFromFile(path string) (*Store, error) {
	s := New()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var records []seedRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	for i, r := range records {
		if err := r.Expense.Validate(); err != nil {
			return nil, fmt.Errorf("seed record %d: %w", i, err)
		}
		if r.UserID == "" {
			r.UserID = DefaultUser
		}
		if r.ID == "" {
			r.ID = s.newID()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = s.now().UTC()
		}
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = r.CreatedAt
		}
		s.items[r.UserID] = append(s.items[r.UserID], r.Expense)
	}
	for _, list := range s.items {
		slices.SortFunc(list, core.NewestFirst)
	}
	return s, nil
}

func (s *Store) Create(_ context.Context, userID string, in core.NewExpense) (core.Expense, error) {
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}
	now := s.now().UTC()
	e := core.Expense{
		ID:          s.newID(),
		Amount:      in.Amount,
		Category:    in.Category,
		Description: in.Description,
		Date:        in.Date,
		PhotoURL:    in.PhotoURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.insert(userID, e)
	return e, nil
}

func (s *Store) Get(_ context.Context, userID, id string) (core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.index(userID, id)
	if i < 0 {
		return core.Expense{}, store.ErrNotFound
	}
	return s.items[userID][i], nil
}

func (s *Store) Update(_ context.Context, userID, id string, patch core.ExpensePatch) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(userID, id)
	if i < 0 {
		return core.Expense{}, store.ErrNotFound
	}
	updated := patch.Apply(s.items[userID][i])
	if err := updated.ValidateWrite(); err != nil {
		return core.Expense{}, err
	}
	updated.UpdatedAt = s.now().UTC()

	s.items[userID] = slices.Delete(s.items[userID], i, i+1)
	s.insert(userID, updated)
	return updated, nil
}

func (s *Store) Delete(_ context.Context, userID, id string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(userID, id)
	if i < 0 {
		return core.Expense{}, store.ErrNotFound
	}
	removed := s.items[userID][i]
	s.items[userID] = slices.Delete(s.items[userID], i, i+1)
	return removed, nil
}

func (s *Store) List(_ context.Context, userID string) ([]core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Expense{}, s.items[userID]...), nil
}

func (s *Store) Close() error { return nil }

func (s *Store) index(userID, id string) int {
	return slices.IndexFunc(s.items[userID], func(e core.Expense) bool { return e.ID == id })
}

// insert keeps the user's list sorted. Callers hold mu.
func (s *Store) insert(userID string, e core.Expense) {
	list := s.items[userID]
	i, _ := slices.BinarySearchFunc(list, e, core.NewestFirst)
	s.items[userID] = slices.Insert(list, i, e)
}
