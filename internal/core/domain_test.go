package core

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestCalendarDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-01-05", "2024-01-05", true},
		{"2024-01-05T12:00:00.000Z", "2024-01-05", true},
		{"2024-01-05T23:30:00-05:00", "2024-01-06", true}, // UTC day wins
		{"2024-01-05T00:30:00+02:00", "2024-01-04", true},
		{"05/01/2024", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := CalendarDate(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("%q expected %q, got %q (err=%v)", tc.in, tc.want, got, err)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q expected ErrInvalidDate, got %v", tc.in, err)
		}
	}
}

func TestParseCategory(t *testing.T) {
	for _, c := range Categories() {
		got, err := ParseCategory(" " + FormatCategory(c) + " ")
		if err != nil || got != c {
			t.Fatalf("ParseCategory(%q) = %q, %v", c, got, err)
		}
	}
	if _, err := ParseCategory("groceries"); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{Amount: 12.5, Category: Food, Description: "Lunch", Date: "2024-01-05"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		e    Expense
		want error
	}{
		{Expense{Amount: 0, Category: Food, Description: "a", Date: "2024-01-05"}, ErrInvalidAmount},
		{Expense{Amount: -3, Category: Food, Description: "a", Date: "2024-01-05"}, ErrInvalidAmount},
		{Expense{Amount: math.NaN(), Category: Food, Description: "a", Date: "2024-01-05"}, ErrInvalidAmount},
		{Expense{Amount: 1, Category: "rent", Description: "a", Date: "2024-01-05"}, ErrUnknownCategory},
		{Expense{Amount: 1, Category: Food, Description: "  ", Date: "2024-01-05"}, ErrEmptyDescription},
		{Expense{Amount: 1, Category: Food, Description: "a", Date: "yesterday"}, ErrInvalidDate},
	}
	for i, tc := range bads {
		if err := tc.e.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestDescriptionLengthLimit(t *testing.T) {
	long := Expense{Amount: 5, Category: Food, Description: strings.Repeat("x", 250), Date: "2024-01-05"}
	if err := long.Validate(); err != nil {
		t.Fatalf("stored expense with long description rejected: %v", err)
	}
	if err := long.ValidateWrite(); !errors.Is(err, ErrDescriptionTooLong) {
		t.Fatalf("expected ErrDescriptionTooLong on write, got %v", err)
	}

	cases := []struct {
		desc string
		ok   bool
	}{
		{strings.Repeat("寿", 70), true},
		{strings.Repeat("寿", maxDescriptionLen), true},
		{strings.Repeat("é", maxDescriptionLen+1), false},
		{strings.Repeat("a", maxDescriptionLen), true},
	}
	for _, tc := range cases {
		err := NewExpense{Amount: 1, Category: Food, Description: tc.desc, Date: "2024-01-05"}.Validate()
		if tc.ok && err != nil {
			t.Fatalf("%d runes rejected: %v", len([]rune(tc.desc)), err)
		}
		if !tc.ok && !errors.Is(err, ErrDescriptionTooLong) {
			t.Fatalf("%d runes expected ErrDescriptionTooLong, got %v", len([]rune(tc.desc)), err)
		}
	}
}

func TestExpensePatchApply(t *testing.T) {
	e := Expense{ID: "x", Amount: 1, Category: Food, Description: "a", Date: "2024-01-05"}
	amount := 9.99
	cat := Travel
	got := ExpensePatch{Amount: &amount, Category: &cat}.Apply(e)
	if got.Amount != 9.99 || got.Category != Travel || got.Description != "a" || got.ID != "x" {
		t.Fatalf("unexpected patch result: %+v", got)
	}
	if e.Amount != 1 {
		t.Fatalf("original modified: %+v", e)
	}
	if !(ExpensePatch{}).IsEmpty() {
		t.Fatalf("zero patch should be empty")
	}
}
