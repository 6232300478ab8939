package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  int
		want int
	}{
		// empty -> default
		{"", 10, 10},
		// valid ints
		{"42", 0, 42},
		{"-13", 1, -13},
		{"0012", 99, 12},
		// invalid -> default (no trim)
		{"x", 5, 5},
		{" 42", 7, 7},
		// overflow -> default
		{"999999999999999999999999", -1, -1},
	}

	for _, tc := range cases {
		if got := AtoiDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
		}
	}
}

func TestClamp(t *testing.T) {
	cases := []struct{ v, lo, hi, want int }{
		{5, 1, 10, 5},
		{0, 1, 10, 1},
		{11, 1, 10, 10},
		{1, 1, 1, 1},
	}
	for _, tc := range cases {
		if got := Clamp(tc.v, tc.lo, tc.hi); got != tc.want {
			t.Fatalf("Clamp(%d,%d,%d) = %d; want %d", tc.v, tc.lo, tc.hi, got, tc.want)
		}
	}
	if got := Clamp(2.5, 0, 2); got != 2 {
		t.Fatalf("float clamp = %v", got)
	}
}

func TestPageOffset(t *testing.T) {
	cases := []struct {
		page, size, def     int
		wantP, wantS, wantO int
	}{
		{1, 20, 20, 1, 20, 0},
		{3, 10, 20, 3, 10, 20},
		{0, 0, 20, 1, 20, 0},
		{-4, -1, 5, 1, 5, 0},
	}
	for _, tc := range cases {
		p, s, o := PageOffset(tc.page, tc.size, tc.def)
		if p != tc.wantP || s != tc.wantS || o != tc.wantO {
			t.Fatalf("PageOffset(%d,%d,%d) = %d,%d,%d", tc.page, tc.size, tc.def, p, s, o)
		}
	}
}
