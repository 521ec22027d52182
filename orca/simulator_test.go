package orca

import (
	"errors"
	"math"
	"testing"

	"orca3d/common"
)

func TestAddAgentWithoutDefaultsFails(t *testing.T) {
	sim := NewSimulator(0.25)

	id, err := sim.AddAgent(common.Vector3{0, 0, 0})

	if !errors.Is(err, ErrDefaultsNotConfigured) {
		t.Fatalf("err = %v, want ErrDefaultsNotConfigured", err)
	}
	if id != InvalidAgent {
		t.Errorf("id = %v, want InvalidAgent", id)
	}
}

func TestSingleAgentReachesPreferredVelocity(t *testing.T) {
	sim := NewSimulator(0.25)
	sim.SetAgentDefaults(10, 10, 2, 0.5, 1, common.Vector3{})

	id, err := sim.AddAgent(common.Vector3{0, 0, 0})
	if err != nil {
		t.Fatalf("AddAgent: %v", err)
	}
	sim.Agent(id).SetPrefVelocity(common.Vector3{1, 0, 0})
	sim.Agent(id).SetMaxAcceleration(100)
	sim.Agent(id).SetMaxDeceleration(100)

	sim.DoStep()

	v := sim.Agent(id).Velocity()
	if math.Abs(v[0]-1) > 1e-6 || v[1] != 0 || v[2] != 0 {
		t.Errorf("velocity = %v, want (1,0,0)", v)
	}
	p := sim.Agent(id).Position()
	if math.Abs(p[0]-0.25) > 1e-6 {
		t.Errorf("position = %v, want (0.25,0,0)", p)
	}
}

func TestHeadOnPairNeverInterpenetrate(t *testing.T) {
	sim := NewSimulator(0.25)
	sim.SetAgentDefaults(10, 10, 2, 0.5, 1, common.Vector3{})

	a0, err := sim.AddAgent(common.Vector3{-5, 0, 0})
	if err != nil {
		t.Fatalf("AddAgent: %v", err)
	}
	a1, err := sim.AddAgent(common.Vector3{5, 0, 0})
	if err != nil {
		t.Fatalf("AddAgent: %v", err)
	}
	sim.Agent(a0).SetMaxAcceleration(100)
	sim.Agent(a0).SetMaxDeceleration(100)
	sim.Agent(a1).SetMaxAcceleration(100)
	sim.Agent(a1).SetMaxDeceleration(100)

	minDist := math.Inf(1)
	for i := 0; i < 80; i++ {
		sim.Agent(a0).SetPrefVelocity(common.Vector3{1, 0, 0})
		sim.Agent(a1).SetPrefVelocity(common.Vector3{-1, 0, 0})
		sim.DoStep()

		d := sim.Agent(a0).Position().Sub(sim.Agent(a1).Position()).Len()
		if d < minDist {
			minDist = d
		}
	}

	if minDist < 1 {
		t.Errorf("minimum inter-center distance = %v, want >= 1 (2*radius)", minDist)
	}
}

func TestRemoveAgentSwapsLast(t *testing.T) {
	sim := NewSimulator(0.25)
	sim.SetAgentDefaults(10, 10, 2, 0.5, 1, common.Vector3{})

	for i, pos := range []common.Vector3{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}} {
		id, err := sim.AddAgent(pos)
		if err != nil || int(id) != i {
			t.Fatalf("AddAgent(%v): id=%v err=%v", pos, id, err)
		}
	}

	lastPos := sim.Agent(2).Position()
	sim.RemoveAgent(1)

	if got := sim.NumAgents(); got != 2 {
		t.Fatalf("NumAgents() = %d, want 2", got)
	}
	if got := sim.Agent(1).Position(); got != lastPos {
		t.Errorf("Agent(1).Position() = %v, want %v (the former agent 2's position)", got, lastPos)
	}
}

func TestDoStepIsIdempotentOverFrozenInputs(t *testing.T) {
	build := func() *Simulator {
		sim := NewSimulator(0.25)
		sim.SetAgentDefaults(10, 10, 2, 0.5, 1, common.Vector3{})
		a0, _ := sim.AddAgent(common.Vector3{-2, 0, 0})
		a1, _ := sim.AddAgent(common.Vector3{2, 0, 0})
		sim.Agent(a0).SetPrefVelocity(common.Vector3{1, 0, 0})
		sim.Agent(a1).SetPrefVelocity(common.Vector3{-1, 0, 0})
		return sim
	}

	s1, s2 := build(), build()
	s1.DoStep()
	s2.DoStep()

	for id := AgentID(0); id < 2; id++ {
		if s1.Agent(id).Velocity() != s2.Agent(id).Velocity() {
			t.Errorf("agent %d velocity diverged: %v vs %v", id, s1.Agent(id).Velocity(), s2.Agent(id).Velocity())
		}
		if s1.Agent(id).Position() != s2.Agent(id).Position() {
			t.Errorf("agent %d position diverged: %v vs %v", id, s1.Agent(id).Position(), s2.Agent(id).Position())
		}
	}
}

func TestAgentAtRestWithNoNeighborsStaysAtRest(t *testing.T) {
	sim := NewSimulator(0.25)
	sim.SetAgentDefaults(10, 10, 2, 0.5, 1, common.Vector3{})
	id, _ := sim.AddAgent(common.Vector3{0, 0, 0})

	// Run well past both adaptiveBoostThreshold (10) and aggressiveThreshold
	// (30): a short-lived loop would stop before either deadlock-avoidance
	// stage ever has a chance to misfire on a genuinely at-rest agent.
	const steps = 50
	for i := 0; i < steps; i++ {
		sim.DoStep()
	}

	if v := sim.Agent(id).Velocity(); v != (common.Vector3{}) {
		t.Errorf("velocity after %d idle steps = %v, want zero", steps, v)
	}
	if p := sim.Agent(id).Position(); p != (common.Vector3{}) {
		t.Errorf("position after %d idle steps = %v, want zero", steps, p)
	}
}
