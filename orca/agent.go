package orca

import (
	"math"

	"go.uber.org/zap"

	"orca3d/common"
)

// epsilon is the small positive tolerance used throughout the solver for
// branch comparisons and near-zero-length checks.
const epsilon = 1e-5

// AgentID identifies an agent by its current dense index in the simulator's
// agent collection. Identifiers are remapped on removal: see
// Simulator.RemoveAgent.
type AgentID = uint32

// InvalidAgent is returned by identifier-producing operations that fail,
// e.g. AddAgent before agent defaults have been configured.
const InvalidAgent AgentID = math.MaxUint32

// neighborEntry pairs a candidate neighbor with its squared distance from
// the querying agent, kept for the bounded, distance-sorted neighbor list.
type neighborEntry struct {
	distSq float64
	agent  *Agent
}

// Agent is a spherical, point-kinematic entity with an independently
// computed collision-free velocity each step.
type Agent struct {
	id AgentID
	// sim is a borrowed, non-owning reference back to the owning
	// simulator, used to read the shared time step.
	sim *Simulator

	position     common.Vector3
	velocity     common.Vector3
	prefVelocity common.Vector3
	newVelocity  common.Vector3

	radius       float64
	neighborDist float64
	maxNeighbors int
	timeHorizon  float64
	maxSpeed     float64

	maxAcceleration float64
	maxDeceleration float64

	maxHorizontalSpeed   float64
	maxVerticalUpSpeed   float64
	maxVerticalDownSpeed float64
	useDirectionalLimits bool

	consecutiveLowMotionSteps int

	neighbors []neighborEntry
	planes    []Plane
}

// ID returns the agent's current dense index in the simulation.
func (a *Agent) ID() AgentID { return a.id }

func (a *Agent) Position() common.Vector3     { return a.position }
func (a *Agent) Velocity() common.Vector3     { return a.velocity }
func (a *Agent) PrefVelocity() common.Vector3 { return a.prefVelocity }
func (a *Agent) Radius() float64              { return a.radius }
func (a *Agent) NeighborDist() float64        { return a.neighborDist }
func (a *Agent) MaxNeighbors() int            { return a.maxNeighbors }
func (a *Agent) TimeHorizon() float64         { return a.timeHorizon }
func (a *Agent) MaxSpeed() float64            { return a.maxSpeed }
func (a *Agent) MaxAcceleration() float64     { return a.maxAcceleration }
func (a *Agent) MaxDeceleration() float64     { return a.maxDeceleration }

func (a *Agent) DirectionalSpeeds() (horizontal, up, down float64) {
	return a.maxHorizontalSpeed, a.maxVerticalUpSpeed, a.maxVerticalDownSpeed
}
func (a *Agent) UseDirectionalSpeedLimits() bool { return a.useDirectionalLimits }

func (a *Agent) SetPosition(p common.Vector3)         { a.position = p }
func (a *Agent) SetVelocity(v common.Vector3)         { a.velocity = v }
func (a *Agent) SetPrefVelocity(v common.Vector3)     { a.prefVelocity = v }
func (a *Agent) SetRadius(r float64)                  { a.radius = r }
func (a *Agent) SetNeighborDist(d float64)            { a.neighborDist = d }
func (a *Agent) SetMaxNeighbors(n int)                { a.maxNeighbors = n }
func (a *Agent) SetTimeHorizon(t float64)             { a.timeHorizon = t }
func (a *Agent) SetMaxSpeed(s float64)                { a.maxSpeed = s }
func (a *Agent) SetMaxAcceleration(v float64)         { a.maxAcceleration = v }
func (a *Agent) SetMaxDeceleration(v float64)         { a.maxDeceleration = v }
func (a *Agent) SetUseDirectionalSpeedLimits(b bool)  { a.useDirectionalLimits = b }
func (a *Agent) SetDirectionalSpeeds(horizontal, up, down float64) {
	a.maxHorizontalSpeed = horizontal
	a.maxVerticalUpSpeed = up
	a.maxVerticalDownSpeed = down
}

// NumNeighbors returns the count of agent neighbors considered when the
// current velocity was computed.
func (a *Agent) NumNeighbors() int { return len(a.neighbors) }

// Neighbor returns the identifier of the i-th selected neighbor, in
// ascending distance order.
func (a *Agent) Neighbor(i int) AgentID { return a.neighbors[i].agent.id }

// NumORCAPlanes returns the count of ORCA constraints used to compute the
// agent's current velocity.
func (a *Agent) NumORCAPlanes() int { return len(a.planes) }

// ORCAPlane returns the i-th ORCA constraint.
func (a *Agent) ORCAPlane(i int) Plane { return a.planes[i] }

// computeNeighbors queries the simulator's k-d tree for up to
// maxNeighbors agents within neighborDist, in ascending distance order.
func (a *Agent) computeNeighbors(tree *kdTree) {
	a.neighbors = a.neighbors[:0]

	if a.maxNeighbors <= 0 {
		return
	}

	rangeSq := common.Sqr(a.neighborDist)
	tree.computeAgentNeighbors(a, &rangeSq)
}

// insertAgentNeighbor maintains the bounded, distance-sorted neighbor list.
// rangeSq is tightened in place as the candidate set fills up, letting the
// caller (the k-d tree traversal) prune subtrees earlier.
func (a *Agent) insertAgentNeighbor(candidate *Agent, rangeSq *float64) {
	if a == candidate {
		return
	}

	distSq := a.position.Sub(candidate.position).LenSqr()
	if distSq >= *rangeSq {
		return
	}

	if len(a.neighbors) < a.maxNeighbors {
		a.neighbors = append(a.neighbors, neighborEntry{})
	}

	i := len(a.neighbors) - 1
	for i != 0 && distSq < a.neighbors[i-1].distSq {
		a.neighbors[i] = a.neighbors[i-1]
		i--
	}
	a.neighbors[i] = neighborEntry{distSq: distSq, agent: candidate}

	if len(a.neighbors) == a.maxNeighbors {
		*rangeSq = a.neighbors[len(a.neighbors)-1].distSq
	}
}

// computeNewVelocity builds one ORCA half-space per selected neighbor and
// solves the constrained velocity optimization, falling back to the
// minimum-penetration projection when the exact program is infeasible.
func (a *Agent) computeNewVelocity() {
	a.planes = a.planes[:0]
	invTimeHorizon := 1.0 / a.timeHorizon

	for _, n := range a.neighbors {
		other := n.agent

		relativePosition := other.position.Sub(a.position)
		relativeVelocity := a.velocity.Sub(other.velocity)
		distSq := relativePosition.LenSqr()
		combinedRadius := a.radius + other.radius
		combinedRadiusSq := common.Sqr(combinedRadius)

		var plane Plane
		var u common.Vector3

		if distSq > combinedRadiusSq {
			// No imminent collision: project relative velocity onto the
			// boundary of the truncated velocity-obstacle cone.
			w := relativeVelocity.Sub(relativePosition.Mul(invTimeHorizon))
			wLengthSq := w.LenSqr()
			dotProduct := w.Dot(relativePosition)

			if dotProduct < 0 && common.Sqr(dotProduct) > combinedRadiusSq*wLengthSq {
				// Project on the spherical cap.
				wLength := common.Sqrt(wLengthSq)
				unitW := safeNormalize(w)

				plane.Normal = unitW
				u = unitW.Mul(combinedRadius*invTimeHorizon - wLength)
			} else {
				// Project on the cone side.
				a2 := distSq
				b := relativePosition.Dot(relativeVelocity)
				cross := relativePosition.Cross(relativeVelocity)
				c := relativeVelocity.LenSqr() - cross.LenSqr()/(distSq-combinedRadiusSq)
				disc := common.Sqr(b) - a2*c
				if disc < 0 {
					disc = 0
				}
				t := (b + common.Sqrt(disc)) / a2
				w2 := relativeVelocity.Sub(relativePosition.Mul(t))
				wLength := w2.Len()
				unitW := safeNormalize(w2)

				plane.Normal = unitW
				u = unitW.Mul(combinedRadius*t - wLength)
			}
		} else {
			// Already overlapping: fall back to an instantaneous
			// separating-velocity constraint over one time step.
			invTimeStep := 1.0 / a.sim.timeStep
			w := relativeVelocity.Sub(relativePosition.Mul(invTimeStep))
			wLength := w.Len()
			unitW := safeNormalize(w)

			plane.Normal = unitW
			u = unitW.Mul(combinedRadius*invTimeStep - wLength)
		}

		plane.Point = a.velocity.Add(u.Mul(0.5))
		a.planes = append(a.planes, plane)
	}

	planeFail := linearProgram3(a.planes, a.maxSpeed, a.prefVelocity, false, &a.newVelocity)
	if planeFail < len(a.planes) {
		a.sim.logger.Warn("ORCA linear program infeasible, using projection fallback",
			zap.Uint32("agent", a.id), zap.Int("failingPlane", planeFail), zap.Int("numPlanes", len(a.planes)))
		linearProgram4(a.planes, planeFail, a.maxSpeed, &a.newVelocity)
	}
}

// safeNormalize normalizes v, falling back to a canonical axis when v is
// (numerically) the zero vector rather than propagating a NaN.
func safeNormalize(v common.Vector3) common.Vector3 {
	l := v.Len()
	if l < epsilon {
		return common.Vector3{1, 0, 0}
	}
	return v.Mul(1 / l)
}
