package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		ok  bool
	}{
		{"1", 1, true},
		{"1.0", 1, true},
		{"1.23", 1.23, true},
		{"1,23", 1.23, true},
		{"0.01", 0.01, true},
		{"1.005", 1.01, true}, // half away from zero
		{" 2.50 ", 2.5, true},
		{"$12.50", 12.5, true},
		{"1,234.50", 1234.5, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"0.001", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"1e3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestAverageAmount(t *testing.T) {
	if got := AverageAmount(52.5, 2); got != 26.25 {
		t.Fatalf("expected 26.25, got %v", got)
	}
	if got := AverageAmount(10, 3); got != 3.33 {
		t.Fatalf("expected 3.33, got %v", got)
	}
	if got := AverageAmount(0, 0); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
}

func TestFixedAmount(t *testing.T) {
	cases := map[float64]string{12.5: "12.50", 40: "40.00", 1234.5: "1234.50", 0.1: "0.10"}
	for in, want := range cases {
		if got := FixedAmount(in); got != want {
			t.Fatalf("FixedAmount(%v) = %q, want %q", in, got, want)
		}
	}
}
