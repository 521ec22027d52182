// Package scenario turns a declarative description of a starting
// population into a configured orca.Simulator plus a per-step preferred
// velocity policy. It is a thin adapter used by the command-line harness
// and by integration tests; it holds no avoidance logic of its own.
package scenario

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"orca3d/common"
	"orca3d/orca"
)

// ErrInvalidScenario wraps every precondition violation reported by Load.
var ErrInvalidScenario = errors.New("scenario: invalid configuration")

// Defaults mirrors orca.Simulator.SetAgentDefaults.
type Defaults struct {
	NeighborDist float64        `json:"neighborDist"`
	MaxNeighbors int            `json:"maxNeighbors"`
	TimeHorizon  float64        `json:"timeHorizon"`
	Radius       float64        `json:"radius"`
	MaxSpeed     float64        `json:"maxSpeed"`
	Velocity     common.Vector3 `json:"velocity"`
}

// AgentSpec describes one initial agent. Exactly one of PrefVelocity or Goal
// should be set: an agent with a Goal has its preferred velocity recomputed
// every step by Steer (see Policy), rather than held fixed.
type AgentSpec struct {
	Position     common.Vector3  `json:"position"`
	PrefVelocity *common.Vector3 `json:"prefVelocity,omitempty"`
	Goal         *common.Vector3 `json:"goal,omitempty"`
}

// Scenario is the file-level description loaded by Load.
type Scenario struct {
	TimeStep float64     `json:"timeStep"`
	Steps    int         `json:"steps"`
	Defaults Defaults    `json:"defaults"`
	Agents   []AgentSpec `json:"agents"`
}

// goalTolerance is how close (in position) an agent must be to its goal
// before its derived preferred velocity is zeroed.
const goalTolerance = 0.05

// Policy drives the per-step preferred velocity of every goal-based agent
// in a loaded scenario. The caller (e.g. the cmd/orcasim run loop) calls
// Steer once per step, before DoStep.
type Policy struct {
	sim    *orca.Simulator
	goals  map[orca.AgentID]common.Vector3
	speeds map[orca.AgentID]float64
}

// Steer recomputes the preferred velocity of every goal-based agent from
// its current position, per SPEC_FULL.md §4.7: a unit step toward the goal
// scaled by the agent's max speed, zeroed within goalTolerance of the goal.
func (p *Policy) Steer() {
	for id, goal := range p.goals {
		a := p.sim.Agent(id)
		toGoal := goal.Sub(a.Position())
		if toGoal.Len() <= goalTolerance {
			a.SetPrefVelocity(common.Vector3{})
			continue
		}
		dir := toGoal.Normalize()
		a.SetPrefVelocity(dir.Mul(p.speeds[id]))
	}
}

// Load validates s and builds a Simulator with its initial population,
// returning a Policy that must be stepped alongside it. It does not repair
// invalid input: the first violation found is returned as an error. Any
// opts are forwarded to orca.NewSimulator.
func Load(s *Scenario, opts ...orca.Option) (*orca.Simulator, *Policy, error) {
	if err := validate(s); err != nil {
		return nil, nil, err
	}

	sim := orca.NewSimulator(s.TimeStep, opts...)
	sim.SetAgentDefaults(s.Defaults.NeighborDist, s.Defaults.MaxNeighbors, s.Defaults.TimeHorizon, s.Defaults.Radius, s.Defaults.MaxSpeed, s.Defaults.Velocity)

	policy := &Policy{sim: sim, goals: map[orca.AgentID]common.Vector3{}, speeds: map[orca.AgentID]float64{}}

	for _, spec := range s.Agents {
		id, err := sim.AddAgent(spec.Position)
		if err != nil {
			return nil, nil, fmt.Errorf("scenario: adding agent at %v: %w", spec.Position, err)
		}
		switch {
		case spec.Goal != nil:
			policy.goals[id] = *spec.Goal
			policy.speeds[id] = sim.Agent(id).MaxSpeed()
		case spec.PrefVelocity != nil:
			sim.Agent(id).SetPrefVelocity(*spec.PrefVelocity)
		}
	}

	policy.Steer()
	return sim, policy, nil
}

// Decode reads a JSON-encoded Scenario from r.
func Decode(r io.Reader) (*Scenario, error) {
	var s Scenario
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("scenario: decoding: %w", err)
	}
	return &s, nil
}

func validate(s *Scenario) error {
	switch {
	case s.TimeStep <= 0:
		return fmt.Errorf("%w: timeStep must be positive, got %v", ErrInvalidScenario, s.TimeStep)
	case s.Defaults.Radius < 0:
		return fmt.Errorf("%w: defaults.radius must be non-negative, got %v", ErrInvalidScenario, s.Defaults.Radius)
	case s.Defaults.MaxSpeed < 0:
		return fmt.Errorf("%w: defaults.maxSpeed must be non-negative, got %v", ErrInvalidScenario, s.Defaults.MaxSpeed)
	case s.Defaults.NeighborDist < 0:
		return fmt.Errorf("%w: defaults.neighborDist must be non-negative, got %v", ErrInvalidScenario, s.Defaults.NeighborDist)
	case s.Defaults.TimeHorizon <= 0:
		return fmt.Errorf("%w: defaults.timeHorizon must be positive, got %v", ErrInvalidScenario, s.Defaults.TimeHorizon)
	}
	for i, a := range s.Agents {
		if math.IsNaN(float64(a.Position[0])) || math.IsNaN(float64(a.Position[1])) || math.IsNaN(float64(a.Position[2])) {
			return fmt.Errorf("%w: agents[%d].position contains NaN", ErrInvalidScenario, i)
		}
	}
	return nil
}
