package orca

import (
	"math"

	"orca3d/common"
)

// linearProgram1 solves a one-dimensional linear program on the given line,
// subject to the planes with index < planeNo and the sphere |v| <= radius.
// It reports false when the line's feasible interval is empty.
func linearProgram1(planes []Plane, planeNo int, ln line, radius float64, optVelocity common.Vector3, directionOpt bool, result *common.Vector3) bool {
	dotProduct := ln.point.Dot(ln.direction)
	discriminant := common.Sqr(dotProduct) + common.Sqr(radius) - ln.point.LenSqr()

	if discriminant < 0 {
		// The max-speed sphere fully invalidates the line.
		return false
	}

	sqrtDiscriminant := common.Sqrt(discriminant)
	tLeft := -dotProduct - sqrtDiscriminant
	tRight := -dotProduct + sqrtDiscriminant

	for i := 0; i < planeNo; i++ {
		numerator := planes[i].Point.Sub(ln.point).Dot(planes[i].Normal)
		denominator := ln.direction.Dot(planes[i].Normal)

		if denominator*denominator <= epsilon {
			// The line is (almost) parallel to plane i.
			if numerator > 0 {
				return false
			}
			continue
		}

		t := numerator / denominator
		if denominator >= 0 {
			tLeft = math.Max(tLeft, t)
		} else {
			tRight = math.Min(tRight, t)
		}

		if tLeft > tRight {
			return false
		}
	}

	if directionOpt {
		if optVelocity.Dot(ln.direction) > 0 {
			*result = ln.point.Add(ln.direction.Mul(tRight))
		} else {
			*result = ln.point.Add(ln.direction.Mul(tLeft))
		}
	} else {
		t := ln.direction.Dot(optVelocity.Sub(ln.point))
		switch {
		case t < tLeft:
			*result = ln.point.Add(ln.direction.Mul(tLeft))
		case t > tRight:
			*result = ln.point.Add(ln.direction.Mul(tRight))
		default:
			*result = ln.point.Add(ln.direction.Mul(t))
		}
	}

	return true
}

// linearProgram2 solves a two-dimensional linear program on planes[planeNo],
// subject to the planes with index < planeNo and the max-speed sphere.
func linearProgram2(planes []Plane, planeNo int, radius float64, optVelocity common.Vector3, directionOpt bool, result *common.Vector3) bool {
	planeDist := planes[planeNo].Point.Dot(planes[planeNo].Normal)
	planeDistSq := common.Sqr(planeDist)
	radiusSq := common.Sqr(radius)

	if planeDistSq > radiusSq {
		// The max-speed sphere fully invalidates plane planeNo.
		return false
	}

	planeRadiusSq := radiusSq - planeDistSq
	planeCenter := planes[planeNo].Normal.Mul(planeDist)

	if directionOpt {
		planeOptVelocity := optVelocity.Sub(planes[planeNo].Normal.Mul(optVelocity.Dot(planes[planeNo].Normal)))
		planeOptVelocityLengthSq := planeOptVelocity.LenSqr()

		if planeOptVelocityLengthSq <= epsilon {
			*result = planeCenter
		} else {
			*result = planeCenter.Add(planeOptVelocity.Mul(common.Sqrt(planeRadiusSq / planeOptVelocityLengthSq)))
		}
	} else {
		*result = optVelocity.Add(planes[planeNo].Normal.Mul(planes[planeNo].Point.Sub(optVelocity).Dot(planes[planeNo].Normal)))

		if result.LenSqr() > radiusSq {
			planeResult := result.Sub(planeCenter)
			planeResultLengthSq := planeResult.LenSqr()
			*result = planeCenter.Add(planeResult.Mul(common.Sqrt(planeRadiusSq / planeResultLengthSq)))
		}
	}

	for i := 0; i < planeNo; i++ {
		if planes[i].Normal.Dot(planes[i].Point.Sub(*result)) > 0 {
			// result violates constraint i; intersect plane i with
			// plane planeNo and resolve the 1-D subproblem on that line.
			crossProduct := planes[i].Normal.Cross(planes[planeNo].Normal)

			if crossProduct.LenSqr() <= epsilon {
				// The two planes are (almost) parallel, and plane i
				// fully invalidates plane planeNo.
				return false
			}

			var ln line
			ln.direction = safeNormalize(crossProduct)
			lineNormal := ln.direction.Cross(planes[planeNo].Normal)
			ln.point = planes[planeNo].Point.Add(lineNormal.Mul(
				planes[i].Point.Sub(planes[planeNo].Point).Dot(planes[i].Normal) / lineNormal.Dot(planes[i].Normal),
			))

			if !linearProgram1(planes, i, ln, radius, optVelocity, directionOpt, result) {
				return false
			}
		}
	}

	return true
}

// linearProgram3 solves the full three-dimensional program over all planes.
// It returns len(planes) on success, or the index of the first plane the
// program could not satisfy -- a normal control-flow signal, not an error,
// that tells the caller to fall back to linearProgram4.
func linearProgram3(planes []Plane, radius float64, optVelocity common.Vector3, directionOpt bool, result *common.Vector3) int {
	switch {
	case directionOpt:
		// optVelocity is of unit length in this case.
		*result = optVelocity.Mul(radius)
	case optVelocity.LenSqr() > common.Sqr(radius):
		*result = safeNormalize(optVelocity).Mul(radius)
	default:
		*result = optVelocity
	}

	for i := range planes {
		if planes[i].Normal.Dot(planes[i].Point.Sub(*result)) > 0 {
			tempResult := *result
			if !linearProgram2(planes, i, radius, optVelocity, directionOpt, result) {
				*result = tempResult
				return i
			}
		}
	}

	return len(planes)
}

// linearProgram4 is the projection fallback invoked when linearProgram3
// leaves the feasible region empty. It minimizes the maximum penetration
// into the planes at and beyond beginPlane while remaining feasible with
// respect to every earlier plane.
func linearProgram4(planes []Plane, beginPlane int, radius float64, result *common.Vector3) {
	distance := 0.0

	for i := beginPlane; i < len(planes); i++ {
		if planes[i].Normal.Dot(planes[i].Point.Sub(*result)) > distance {
			// result violates plane i; build the set of projected
			// planes that bound the penetration-minimizing search.
			var projPlanes []Plane

			for j := 0; j < i; j++ {
				var plane Plane

				crossProduct := planes[j].Normal.Cross(planes[i].Normal)

				if crossProduct.LenSqr() <= epsilon {
					if planes[i].Normal.Dot(planes[j].Normal) > 0 {
						// Planes i and j point the same way; plane j
						// adds nothing new.
						continue
					}
					plane.Point = planes[i].Point.Add(planes[j].Point).Mul(0.5)
				} else {
					lineNormal := crossProduct.Cross(planes[i].Normal)
					plane.Point = planes[i].Point.Add(lineNormal.Mul(
						planes[j].Point.Sub(planes[i].Point).Dot(planes[j].Normal) / lineNormal.Dot(planes[j].Normal),
					))
				}

				plane.Normal = safeNormalize(planes[j].Normal.Sub(planes[i].Normal))
				projPlanes = append(projPlanes, plane)
			}

			tempResult := *result
			if linearProgram3(projPlanes, radius, planes[i].Normal, true, result) < len(projPlanes) {
				// By construction result should already be feasible
				// for this sub-program; a failure here is floating
				// point noise, so keep the previous result.
				*result = tempResult
			}

			distance = planes[i].Normal.Dot(planes[i].Point.Sub(*result))
		}
	}
}
