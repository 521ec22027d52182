package orca

import (
	"testing"

	"orca3d/common"
)

func TestPlaneSatisfiedBy(t *testing.T) {
	p := Plane{Point: common.Vector3{1, 0, 0}, Normal: common.Vector3{1, 0, 0}}

	cases := []struct {
		v    common.Vector3
		want bool
	}{
		{common.Vector3{2, 0, 0}, true},
		{common.Vector3{1, 5, -5}, true}, // on the boundary regardless of the tangential components
		{common.Vector3{0, 0, 0}, false},
	}

	for _, c := range cases {
		if got := p.satisfiedBy(c.v); got != c.want {
			t.Errorf("satisfiedBy(%v) = %v, want %v", c.v, got, c.want)
		}
	}
}
