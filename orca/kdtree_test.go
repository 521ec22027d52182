package orca

import (
	"testing"

	"orca3d/common"
)

func newTestAgent(pos common.Vector3, maxNeighbors int, neighborDist float64) *Agent {
	return &Agent{
		position:     pos,
		maxNeighbors: maxNeighbors,
		neighborDist: neighborDist,
	}
}

// idAgents assigns dense identifiers matching slice position, the way
// Simulator.AddAgentWithParams does, so neighbor-identifier assertions are
// meaningful instead of comparing against the zero value of an unset id.
func idAgents(agents []*Agent) []*Agent {
	for i, a := range agents {
		a.id = AgentID(i)
	}
	return agents
}

func TestKdTreeNeighborsSortedAndBounded(t *testing.T) {
	agents := []*Agent{
		newTestAgent(common.Vector3{0, 0, 0}, 3, 100),
		newTestAgent(common.Vector3{1, 0, 0}, 3, 100),
		newTestAgent(common.Vector3{2, 0, 0}, 3, 100),
		newTestAgent(common.Vector3{5, 0, 0}, 3, 100),
		newTestAgent(common.Vector3{10, 0, 0}, 3, 100),
		newTestAgent(common.Vector3{-1, 0, 0}, 3, 100),
	}

	var tree kdTree
	tree.build(agents)

	query := agents[0]
	query.computeNeighbors(&tree)

	if got := query.NumNeighbors(); got != 3 {
		t.Fatalf("NumNeighbors() = %d, want 3 (maxNeighbors)", got)
	}

	for _, n := range query.neighbors {
		if n.agent == query {
			t.Fatalf("neighbor list includes the query agent itself")
		}
	}

	for i := 1; i < len(query.neighbors); i++ {
		if query.neighbors[i].distSq < query.neighbors[i-1].distSq {
			t.Fatalf("neighbor list not sorted ascending by squared distance: %v", query.neighbors)
		}
	}

	want := []common.Vector3{{1, 0, 0}, {-1, 0, 0}, {2, 0, 0}}
	for i, w := range want {
		if got := query.neighbors[i].agent.position; got != w {
			t.Errorf("neighbor[%d] = %v, want %v", i, got, w)
		}
	}
}

func TestKdTreeRespectsNeighborDist(t *testing.T) {
	agents := idAgents([]*Agent{
		newTestAgent(common.Vector3{0, 0, 0}, 10, 1.5),
		newTestAgent(common.Vector3{1, 0, 0}, 10, 1.5),
		newTestAgent(common.Vector3{5, 0, 0}, 10, 1.5),
	})

	var tree kdTree
	tree.build(agents)

	query := agents[0]
	query.computeNeighbors(&tree)

	if got := query.NumNeighbors(); got != 1 {
		t.Fatalf("NumNeighbors() = %d, want 1 (only the agent within neighborDist)", got)
	}
	if got := query.Neighbor(0); got != agents[1].id {
		t.Errorf("selected neighbor id = %d, want %d", got, agents[1].id)
	}
}

func TestKdTreeEmptyPopulation(t *testing.T) {
	var tree kdTree
	tree.build(nil)

	q := newTestAgent(common.Vector3{0, 0, 0}, 5, 10)
	q.computeNeighbors(&tree)

	if got := q.NumNeighbors(); got != 0 {
		t.Fatalf("NumNeighbors() = %d, want 0 on an empty tree", got)
	}
}
