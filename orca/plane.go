package orca

import "orca3d/common"

// Plane is an ORCA half-space constraint on an agent's next velocity.
// The permitted region is { v : (v - Point) . Normal >= 0 }.
type Plane struct {
	Point  common.Vector3
	Normal common.Vector3
}

// satisfiedBy reports whether v lies inside (or on the boundary of) the
// permitted half-space of p.
func (p Plane) satisfiedBy(v common.Vector3) bool {
	return p.Normal.Dot(v.Sub(p.Point)) >= 0
}

// line is a directed line used by the lower levels of the constrained
// velocity optimizer.
type line struct {
	direction common.Vector3
	point     common.Vector3
}
