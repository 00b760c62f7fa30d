package ring

import (
	"sort"

	"github.com/rfratto/dht"
)

// node is a single member of the ring. A node owns the primary keys in the
// section between its predecessor's value and its own value, and holds
// replicas of the primary keys of its predecessors.
type node struct {
	id     int
	value  int
	status dht.Status

	// primary is kept in ring order, starting just after the predecessor's
	// value. For the node whose section wraps through 0, keys near the end of
	// the ring come before 0.
	primary  []int
	replicas map[int]struct{}
}

func newNode(id, value int) *node {
	return &node{
		id:       id,
		value:    value,
		status:   dht.StatusRunning,
		replicas: make(map[int]struct{}),
	}
}

func (n *node) spaceUsed() int { return len(n.primary) + len(n.replicas) }

func (n *node) hasPrimary(key int) bool {
	for _, k := range n.primary {
		if k == key {
			return true
		}
	}
	return false
}

func (n *node) hasReplica(key int) bool {
	_, ok := n.replicas[key]
	return ok
}

func (n *node) addReplicas(keys []int) {
	for _, k := range keys {
		n.replicas[k] = struct{}{}
	}
}

func (n *node) dropReplicas(keys []int) {
	for _, k := range keys {
		delete(n.replicas, k)
	}
}

// sortedReplicas returns the replica keys in ascending order.
func (n *node) sortedReplicas() []int {
	res := make([]int, 0, len(n.replicas))
	for k := range n.replicas {
		res = append(res, k)
	}
	sort.Ints(res)
	return res
}

func (n *node) info() dht.NodeInfo {
	return dht.NodeInfo{
		ID:       n.id,
		Position: n.value,
		Status:   n.status,
		Keys:     append([]int(nil), n.primary...),
		Replicas: n.sortedReplicas(),
	}
}
