package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Food          Category = "food"
	Transport     Category = "transport"
	Entertainment Category = "entertainment"
	Shopping      Category = "shopping"
	Utilities     Category = "utilities"
	Health        Category = "health"
	Education     Category = "education"
	Travel        Category = "travel"
	Other         Category = "other"
)

// CalendarLayout is the layout of a normalized calendar date.
const CalendarLayout = "2006-01-02"

const maxDescriptionLen = 200

type (
	Category string

	// Expense is a single spending record as supplied by the data store.
	// Date holds either a bare calendar date or an RFC 3339 datetime.
	Expense struct {
		ID          string    `json:"id"`
		Amount      float64   `json:"amount"`
		Category    Category  `json:"category"`
		Description string    `json:"description"`
		Date        string    `json:"date"`
		PhotoURL    string    `json:"photo_url,omitempty"`
		CreatedAt   time.Time `json:"created_at"`
		UpdatedAt   time.Time `json:"updated_at"`
	}

	// NewExpense carries the user-editable fields of an expense to be created.
	NewExpense struct {
		Amount      float64  `json:"amount"`
		Category    Category `json:"category"`
		Description string   `json:"description"`
		Date        string   `json:"date"`
		PhotoURL    string   `json:"photo_url,omitempty"`
	}

	// ExpensePatch holds a partial update; nil fields are left untouched.
	ExpensePatch struct {
		Amount      *float64  `json:"amount,omitempty"`
		Category    *Category `json:"category,omitempty"`
		Description *string   `json:"description,omitempty"`
		Date        *string   `json:"date,omitempty"`
		PhotoURL    *string   `json:"photo_url,omitempty"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrUnknownCategory  = errors.New("unknown category")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidDate      = errors.New("invalid date")

	ErrDescriptionTooLong = errors.New("description too long")
)

// Categories returns the closed category set in display order.
func Categories() []Category {
	return []Category{Food, Transport, Entertainment, Shopping, Utilities, Health, Education, Travel, Other}
}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	switch c {
	case Food, Transport, Entertainment, Shopping, Utilities, Health, Education, Travel, Other:
		return true
	}
	return false
}

// ParseCategory accepts a category key in any letter case.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// CalendarDate normalizes a date or datetime string to its UTC calendar
// date in YYYY-MM-DD form.
func CalendarDate(s string) (string, error) {
	t, err := ParseDate(s)
	if err != nil {
		return "", err
	}
	return t.Format(CalendarLayout), nil
}

// ParseDate parses a bare calendar date or an RFC 3339 datetime and returns
// it in UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(CalendarLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// Day returns the normalized calendar date of the expense. Unparseable
// dates fall back to the raw value so ordering stays deterministic.
func (e Expense) Day() string {
	d, err := CalendarDate(e.Date)
	if err != nil {
		return e.Date
	}
	return d
}

// validateRecord checks the fields every expense must carry to be
// aggregated or exported.
func validateRecord(amount float64, category Category, description, date string) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return ErrInvalidAmount
	}
	if !category.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	if len(strings.TrimSpace(description)) == 0 {
		return ErrEmptyDescription
	}
	if _, err := ParseDate(date); err != nil {
		return err
	}
	return nil
}

// validateWrite adds the limits enforced when an expense is created or
// edited.
func validateWrite(amount float64, category Category, description, date string) error {
	if err := validateRecord(amount, category, description, date); err != nil {
		return err
	}
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return fmt.Errorf("%w (max %d characters)", ErrDescriptionTooLong, maxDescriptionLen)
	}
	return nil
}

// Validate reports whether a stored expense is well formed. Descriptions
// have no length limit here.
func (e Expense) Validate() error {
	return validateRecord(e.Amount, e.Category, e.Description, e.Date)
}

// ValidateWrite applies the create and update rules to an edited expense.
func (e Expense) ValidateWrite() error {
	return validateWrite(e.Amount, e.Category, e.Description, e.Date)
}

func (n NewExpense) Validate() error {
	return validateWrite(n.Amount, n.Category, n.Description, n.Date)
}

// Apply returns a copy of e with the patch applied. The result is not
// validated.
func (p ExpensePatch) Apply(e Expense) Expense {
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.PhotoURL != nil {
		e.PhotoURL = *p.PhotoURL
	}
	return e
}

// IsEmpty reports whether the patch changes nothing.
func (p ExpensePatch) IsEmpty() bool {
	return p.Amount == nil && p.Category == nil && p.Description == nil && p.Date == nil && p.PhotoURL == nil
}
