package orca

import (
	"math"

	"orca3d/common"
)

// Tunables for the deadlock-avoidance behaviors in applyKinematics. The
// specification fixes the contract (§4.5) but not these constants; the
// values below are the implementation's choice, recorded in DESIGN.md.
const (
	lowMotionEpsilon       = 0.05 // |vcur| below this counts as "near rest"
	adaptiveBoostThreshold = 10   // consecutive low-motion steps before boosting vpref
	aggressiveThreshold    = 30   // consecutive low-motion steps before overriding v'
	adaptiveBoostFactor    = 2.0
	minEscapeSpeedFrac     = 0.1 // fraction of maxSpeed used as a floor for the boosted target
)

// applyKinematics is the kinematic post-filter (spec §4.5): it takes the
// optimizer's candidate velocity and enforces acceleration, deceleration,
// and directional speed bounds, including the deadlock-avoidance
// corrections near goals. dt is the simulator's fixed time step.
func (a *Agent) applyKinematics(dt float64) common.Vector3 {
	target := a.newVelocity

	wasLowMotion := a.velocity.Len() < lowMotionEpsilon

	// Step 1: adaptive preferred velocity near goal. Only meaningful when
	// the agent actually wants to go somewhere: a zero preferred velocity
	// is not a deadlock, it is the agent's goal, and must not be boosted
	// off a canonical axis by adaptivePrefVelocity's normalization.
	if wasLowMotion && a.hasTargetVelocity() && a.consecutiveLowMotionSteps >= adaptiveBoostThreshold {
		augmented := a.adaptivePrefVelocity()
		target = target.Add(augmented.Sub(a.prefVelocity).Mul(0.5))
	}

	// Step 2: acceleration / deceleration clamp.
	deltaV := target.Sub(a.velocity)
	chosenLimit := a.maxDeceleration
	if target.LenSqr() >= a.velocity.LenSqr() {
		chosenLimit = a.maxAcceleration
	}
	maxDelta := chosenLimit * dt
	if deltaVLen := deltaV.Len(); deltaVLen > maxDelta && deltaVLen > epsilon {
		deltaV = deltaV.Mul(maxDelta / deltaVLen)
	}
	result := a.velocity.Add(deltaV)

	// Step 3: directional or spherical speed limits.
	result = a.clampSpeed(result)

	// Step 4: aggressive motion correction. Same non-trivial-prefVelocity
	// gate as step 1: an agent stalled at its own zero-velocity goal is not
	// deadlocked and must not be shoved along safeNormalize's fallback axis.
	if a.hasTargetVelocity() && a.consecutiveLowMotionSteps >= aggressiveThreshold {
		result = a.aggressiveCorrection()
		a.consecutiveLowMotionSteps = 0
	}

	// Update the low-motion counter from the *observed* velocity going
	// into this step, per §4.5: increment on near-rest, reset on
	// recovered motion. Must not be disturbed by the ordinary path above.
	if wasLowMotion {
		a.consecutiveLowMotionSteps++
	} else {
		a.consecutiveLowMotionSteps = 0
	}

	return result
}

// hasTargetVelocity reports whether the agent's preferred velocity is large
// enough to have a meaningful direction. A near-zero prefVelocity is the
// agent's goal, not a stall, and must never be fed to safeNormalize by the
// deadlock-avoidance path below: its canonical-axis fallback would turn
// "stay put" into "drift every few steps".
func (a *Agent) hasTargetVelocity() bool {
	return a.prefVelocity.LenSqr() > epsilon
}

// adaptivePrefVelocity boosts the preferred velocity's magnitude along its
// own direction so the acceleration clamp in applyKinematics nudges the
// agent harder toward its goal instead of idling at a deadlock.
func (a *Agent) adaptivePrefVelocity() common.Vector3 {
	prefSpeed := a.prefVelocity.Len()
	dir := safeNormalize(a.prefVelocity)

	boosted := prefSpeed * adaptiveBoostFactor
	floor := minEscapeSpeedFrac * a.maxSpeed
	if boosted < floor {
		boosted = floor
	}
	if boosted > a.maxSpeed {
		boosted = a.maxSpeed
	}
	return dir.Mul(boosted)
}

// aggressiveCorrection overrides the filtered velocity with a larger step
// along the preferred direction, strong enough to break a stall, while
// still respecting the agent's directional or spherical speed caps.
func (a *Agent) aggressiveCorrection() common.Vector3 {
	dir := safeNormalize(a.prefVelocity)
	speedCap := a.maxSpeed
	if a.useDirectionalLimits {
		speedCap = math.Min(a.maxHorizontalSpeed, math.Max(a.maxVerticalUpSpeed, a.maxVerticalDownSpeed))
	}
	return a.clampSpeed(dir.Mul(speedCap))
}

// clampSpeed applies step 3 of the kinematic post-filter: directional
// horizontal/vertical caps when enabled, otherwise a single spherical cap.
func (a *Agent) clampSpeed(v common.Vector3) common.Vector3 {
	if !a.useDirectionalLimits {
		if speedSq := v.LenSqr(); speedSq > common.Sqr(a.maxSpeed) {
			return safeNormalize(v).Mul(a.maxSpeed)
		}
		return v
	}

	horizontal := math.Hypot(v[0], v[2])
	result := v
	if horizontal > a.maxHorizontalSpeed && horizontal > epsilon {
		scale := a.maxHorizontalSpeed / horizontal
		result[0] *= scale
		result[2] *= scale
	}
	result[1] = common.Clamp(result[1], -a.maxVerticalDownSpeed, a.maxVerticalUpSpeed)
	return result
}

// update installs the filtered velocity and advances the agent's position
// by velocity * dt. Called only from the simulator's sequential phase 3.
func (a *Agent) update(dt float64) {
	a.velocity = a.applyKinematics(dt)
	a.position = a.position.Add(a.velocity.Mul(dt))
}
