package common

import "github.com/go-gl/mathgl/mgl64"

// Vector3 is the shared three-dimensional vector type used throughout the
// avoidance engine: agent positions, velocities and ORCA plane geometry.
type Vector3 = mgl64.Vec3

// IT is the generic numeric constraint shared by the small set of scalar
// helpers in this package.
type IT interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}
