package orca

import "orca3d/common"

// maxLeafSize bounds the number of agents held directly by a k-d tree leaf
// before the range is split further.
const maxLeafSize = 10

// kdNode is one node of the flat k-d tree array. Internal nodes describe
// the axis-aligned bounding box of the agent range they cover; leaves
// additionally own a contiguous [begin, end) slice of the tree's permuted
// agent array.
type kdNode struct {
	begin, end  int
	left, right int
	leaf        bool
	min, max    common.Vector3
}

// kdTree is a 3-D spatial index over agent positions, rebuilt from scratch
// at the start of every step. Ranges are split at the midpoint of their
// bounding box, not at the median, so the tree is not necessarily balanced. It never mutates agent state; queries
// only read positions.
type kdTree struct {
	agents []*Agent // permuted reference array backing leaf ranges
	nodes  []kdNode
}

// build constructs the tree over the given agent snapshot. The agents slice
// is copied and then permuted in place; the caller's slice is left
// untouched.
func (t *kdTree) build(agents []*Agent) {
	t.agents = append(t.agents[:0], agents...)
	n := len(t.agents)
	if n == 0 {
		t.nodes = t.nodes[:0]
		return
	}

	// A binary tree over n leaves needs at most 2n-1 nodes.
	if cap(t.nodes) < 2*n-1 {
		t.nodes = make([]kdNode, 2*n-1)
	} else {
		t.nodes = t.nodes[:2*n-1]
	}

	next := 0
	t.buildRecursive(0, n, &next)
}

// buildRecursive splits the agent range [begin, end) top-down, allocating
// nodes from the flat node array in pre-order, and returns the index of the
// node it created for this range.
func (t *kdTree) buildRecursive(begin, end int, next *int) int {
	nodeIdx := *next
	*next++

	node := &t.nodes[nodeIdx]
	node.begin = begin
	node.end = end

	node.min = t.agents[begin].position
	node.max = t.agents[begin].position
	for i := begin + 1; i < end; i++ {
		p := t.agents[i].position
		node.min = minVec(node.min, p)
		node.max = maxVec(node.max, p)
	}

	if end-begin <= maxLeafSize {
		node.leaf = true
		return nodeIdx
	}

	extent := node.max.Sub(node.min)
	axis := 0
	if extent[1] > extent[axis] {
		axis = 1
	}
	if extent[2] > extent[axis] {
		axis = 2
	}
	splitValue := 0.5 * (node.min[axis] + node.max[axis])

	left, right := begin, end
	for left < right {
		for left < right && t.agents[left].position[axis] < splitValue {
			left++
		}
		for right > left && t.agents[right-1].position[axis] >= splitValue {
			right--
		}
		if left < right {
			t.agents[left], t.agents[right-1] = t.agents[right-1], t.agents[left]
			left++
			right--
		}
	}

	leftSize := left - begin
	if leftSize == 0 {
		// Avoid an empty partition when every agent lands exactly on
		// the split value.
		leftSize = 1
		left++
	}

	leftIdx := t.buildRecursive(begin, begin+leftSize, next)
	rightIdx := t.buildRecursive(begin+leftSize, end, next)
	t.nodes[nodeIdx].left = leftIdx
	t.nodes[nodeIdx].right = rightIdx

	return nodeIdx
}

// computeAgentNeighbors performs the depth-first nearest-neighbor query for
// agent a, tightening rangeSq as closer candidates are discovered.
func (t *kdTree) computeAgentNeighbors(a *Agent, rangeSq *float64) {
	if len(t.nodes) == 0 {
		return
	}
	t.queryNode(0, a, rangeSq)
}

func (t *kdTree) queryNode(nodeIdx int, a *Agent, rangeSq *float64) {
	node := &t.nodes[nodeIdx]

	if node.leaf {
		for i := node.begin; i < node.end; i++ {
			a.insertAgentNeighbor(t.agents[i], rangeSq)
		}
		return
	}

	distSqLeft := distSqPointAABB(a.position, t.nodes[node.left])
	distSqRight := distSqPointAABB(a.position, t.nodes[node.right])

	if distSqLeft < distSqRight {
		if distSqLeft < *rangeSq {
			t.queryNode(node.left, a, rangeSq)
			if distSqRight < *rangeSq {
				t.queryNode(node.right, a, rangeSq)
			}
		}
	} else {
		if distSqRight < *rangeSq {
			t.queryNode(node.right, a, rangeSq)
			if distSqLeft < *rangeSq {
				t.queryNode(node.left, a, rangeSq)
			}
		}
	}
}

// distSqPointAABB returns the squared distance from p to the closest point
// of node's axis-aligned bounding box (zero if p is inside the box).
func distSqPointAABB(p common.Vector3, node kdNode) float64 {
	var d float64
	for axis := 0; axis < 3; axis++ {
		if p[axis] < node.min[axis] {
			d += common.Sqr(node.min[axis] - p[axis])
		} else if p[axis] > node.max[axis] {
			d += common.Sqr(p[axis] - node.max[axis])
		}
	}
	return d
}

func minVec(a, b common.Vector3) common.Vector3 {
	return common.Vector3{min(a[0], b[0]), min(a[1], b[1]), min(a[2], b[2])}
}

func maxVec(a, b common.Vector3) common.Vector3 {
	return common.Vector3{max(a[0], b[0]), max(a[1], b[1]), max(a[2], b[2])}
}
