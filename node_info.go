package dht

// NodeInfo is a read-only snapshot of a single node. It is the only data a
// rendering layer needs; modifying it has no effect on the engine.
type NodeInfo struct {
	ID       int
	Position int     // Ring position. Always 0 for weighted nodes.
	Weight   float64 // Placement weight. Always 0 for ring nodes.
	Status   Status

	// Primary keys: keys owned on the ring, or keys placed with replica id 1
	// in the weighted table.
	Keys []int

	// Replica keys: keys held on behalf of ring predecessors, or keys placed
	// with a replica id above 1 in the weighted table.
	Replicas []int
}

// Held returns the number of primary keys held by n.
func (n NodeInfo) Held() int { return len(n.Keys) }

// SpaceUsed returns the total number of keys stored on n.
func (n NodeInfo) SpaceUsed() int { return len(n.Keys) + len(n.Replicas) }

// FindNode returns the node with the given ID.
func FindNode(nodes []NodeInfo, id int) (NodeInfo, bool) {
	for _, n := range nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeInfo{}, false
}
