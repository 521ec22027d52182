package common

import "testing"

func TestSqr(t *testing.T) {
	if Sqr(2) != 4 {
		t.Errorf("Sqr(2) = %d, want 4", Sqr(2))
	}
	if Sqr(-4) != 16 {
		t.Errorf("Sqr(-4) = %d, want 16", Sqr(-4))
	}
	if Sqr(0.0) != 0.0 {
		t.Errorf("Sqr(0) = %v, want 0", Sqr(0.0))
	}
}

func TestClamp(t *testing.T) {
	cases := []struct {
		value, lo, hi, want float64
	}{
		{2, 0, 1, 1},
		{1, 0, 2, 1},
		{0, 1, 2, 1},
		{-5, -1, 1, -1},
	}
	for _, c := range cases {
		if got := Clamp(c.value, c.lo, c.hi); got != c.want {
			t.Errorf("Clamp(%v, %v, %v) = %v, want %v", c.value, c.lo, c.hi, got, c.want)
		}
	}
}
