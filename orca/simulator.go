package orca

import (
	"go.uber.org/zap"

	"orca3d/common"
)

// agentDefaults holds the template applied to every agent created via
// AddAgent, until overridden per-agent via the setters.
type agentDefaults struct {
	neighborDist float64
	maxNeighbors int
	timeHorizon  float64
	radius       float64
	maxSpeed     float64
	velocity     common.Vector3
}

// Simulator is the discrete-time engine described in spec §2: it owns the
// global time step, the agent collection, and the k-d tree rebuilt once per
// step. A single external caller is expected to drive DoStep sequentially;
// internally, phase 2 (velocity selection) fans out across agents.
type Simulator struct {
	timeStep   float64
	globalTime float64

	agents   []*Agent
	defaults *agentDefaults

	tree    kdTree
	workers int

	logger *zap.Logger
}

// Option configures a Simulator at construction time.
type Option func(*Simulator)

// WithWorkers overrides the number of goroutines used for phase 2's
// per-agent fan-out. The default is runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(s *Simulator) { s.workers = n }
}

// NewSimulator constructs a simulator with the given fixed time step. No
// agent defaults are configured yet; AddAgent fails until SetAgentDefaults
// is called.
func NewSimulator(timeStep float64, opts ...Option) *Simulator {
	s := &Simulator{timeStep: timeStep}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = newNopLogger()
	}
	return s
}

// SetTimeStep sets the simulation's fixed time step. Must be positive; the
// caller is responsible for that precondition (spec §7).
func (s *Simulator) SetTimeStep(dt float64) { s.timeStep = dt }

// TimeStep returns the simulation's fixed time step.
func (s *Simulator) TimeStep() float64 { return s.timeStep }

// GlobalTime returns the simulation's elapsed time, zero initially.
func (s *Simulator) GlobalTime() float64 { return s.globalTime }

// NumAgents returns the count of agents currently in the simulation.
func (s *Simulator) NumAgents() int { return len(s.agents) }

// SetAgentDefaults configures the template used by AddAgent for any new
// agent's neighbor search, time horizon, radius, max speed, and initial
// velocity.
func (s *Simulator) SetAgentDefaults(neighborDist float64, maxNeighbors int, timeHorizon, radius, maxSpeed float64, velocity common.Vector3) {
	s.defaults = &agentDefaults{
		neighborDist: neighborDist,
		maxNeighbors: maxNeighbors,
		timeHorizon:  timeHorizon,
		radius:       radius,
		maxSpeed:     maxSpeed,
		velocity:     velocity,
	}
}

// AddAgent adds a new agent at position using the configured defaults,
// returning its identifier. It returns InvalidAgent and
// ErrDefaultsNotConfigured if SetAgentDefaults has not been called.
func (s *Simulator) AddAgent(position common.Vector3) (AgentID, error) {
	if s.defaults == nil {
		return InvalidAgent, ErrDefaultsNotConfigured
	}
	d := s.defaults
	return s.AddAgentWithParams(position, d.neighborDist, d.maxNeighbors, d.timeHorizon, d.radius, d.maxSpeed, d.velocity), nil
}

// AddAgentWithParams adds a new agent with explicit parameters, bypassing
// the configured defaults, and returns its identifier.
func (s *Simulator) AddAgentWithParams(position common.Vector3, neighborDist float64, maxNeighbors int, timeHorizon, radius, maxSpeed float64, velocity common.Vector3) AgentID {
	a := &Agent{
		sim:                  s,
		position:             position,
		velocity:             velocity,
		neighborDist:         neighborDist,
		maxNeighbors:         maxNeighbors,
		timeHorizon:          timeHorizon,
		radius:               radius,
		maxSpeed:             maxSpeed,
		maxAcceleration:      10.0,
		maxDeceleration:      15.0,
		maxHorizontalSpeed:   5.0,
		maxVerticalUpSpeed:   3.0,
		maxVerticalDownSpeed: 3.0,
	}
	a.id = AgentID(len(s.agents))
	s.agents = append(s.agents, a)

	s.logger.Debug("agent added", zap.Uint32("id", a.id), zap.Int("numAgents", len(s.agents)))
	return a.id
}

// RemoveAgent removes the agent with the given identifier using
// swap-with-last semantics: the agent that previously held identifier
// NumAgents()-1 now holds identifier id.
func (s *Simulator) RemoveAgent(id AgentID) {
	last := AgentID(len(s.agents) - 1)
	if id != last {
		s.agents[id] = s.agents[last]
		s.agents[id].id = id
	}
	s.agents = s.agents[:last]

	s.logger.Debug("agent removed", zap.Uint32("id", id), zap.Int("numAgents", len(s.agents)))
}

// Agent returns a pointer to the agent currently holding the given
// identifier. Callers must validate the identifier themselves (spec §7):
// passing one out of range panics, by design, rather than masking a caller
// bug.
func (s *Simulator) Agent(id AgentID) *Agent { return s.agents[id] }

// DoStep advances the simulation by one fixed time step: it rebuilds the
// spatial index, computes every agent's new velocity in parallel, then
// sequentially commits positions and velocities.
func (s *Simulator) DoStep() {
	// Phase 1: spatial indexing.
	s.tree.build(s.agents)

	// Phase 2: per-agent velocity selection, data-parallel across agents.
	// Every worker only reads the frozen pre-step snapshot (positions,
	// velocities, parameters, and the now-immutable tree) and writes only
	// to its own agent's scratch state.
	n := len(s.agents)
	parallelFor(n, s.workers, func(i int) {
		a := s.agents[i]
		a.computeNeighbors(&s.tree)
		a.computeNewVelocity()
	})

	// Phase 3: sequential state commit.
	for _, a := range s.agents {
		a.update(s.timeStep)
	}

	s.globalTime += s.timeStep
	s.logger.Debug("step complete", zap.Float64("globalTime", s.globalTime), zap.Int("numAgents", n))
}
