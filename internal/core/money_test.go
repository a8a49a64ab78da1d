package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"0", 0, true},
		{"0.00", 0, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"99999999999999999999", 0, false},
		// iv*100 fits but the fractional cents push past MaxInt64
		{"92233720368547758.99", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error (got %d)", tc.in, got)
			}
			if got != 0 {
				t.Fatalf("%q should return 0 on error, got %d", tc.in, got)
			}
		}
	}
}

func TestFormatCents(t *testing.T) {
	cases := []struct {
		in  int64
		out string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{1234, "12.34"},
		{10000, "100.00"},
		{-150, "-1.50"},
	}
	for _, tc := range cases {
		if got := FormatCents(tc.in); got != tc.out {
			t.Fatalf("FormatCents(%d) = %q, want %q", tc.in, got, tc.out)
		}
	}
}
