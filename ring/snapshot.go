package ring

import (
	"github.com/go-kit/log/level"
	"github.com/rfratto/dht"
	"github.com/rfratto/dht/internal/snapshot"
)

type ringState struct {
	ReplicationFactor int
	Length            int
	NextID            int
	Nodes             []nodeState
}

type nodeState struct {
	ID       int
	Value    int
	Status   dht.Status
	Primary  []int
	Replicas []int
}

// Snapshot encodes the current state of the ring. The snapshot can be passed
// to Restore to roll the ring back.
func (r *Ring) Snapshot() ([]byte, error) {
	st := ringState{
		ReplicationFactor: r.cfg.ReplicationFactor,
		Length:            r.length,
		NextID:            r.nextID,
		Nodes:             make([]nodeState, len(r.nodes)),
	}
	for i, n := range r.nodes {
		st.Nodes[i] = nodeState{
			ID:       n.id,
			Value:    n.value,
			Status:   n.status,
			Primary:  n.primary,
			Replicas: n.sortedReplicas(),
		}
	}
	return snapshot.Encode(snapshot.KindRing, &st)
}

// Restore replaces the state of the ring with a snapshot taken by Snapshot.
// The snapshot must come from a ring with the same length and replication
// factor.
func (r *Ring) Restore(buf []byte) error {
	var st ringState
	if err := snapshot.Decode(buf, snapshot.KindRing, &st); err != nil {
		return dht.Invalidf("restoring ring: %s", err)
	}
	if st.Length != r.length || st.ReplicationFactor != r.cfg.ReplicationFactor {
		return dht.Invalidf("snapshot of ring with length %d and replication factor %d can't be restored into ring with length %d and replication factor %d",
			st.Length, st.ReplicationFactor, r.length, r.cfg.ReplicationFactor)
	}
	if len(st.Nodes) == 0 {
		return dht.Invalidf("snapshot has no nodes")
	}

	nodes := make([]*node, len(st.Nodes))
	for i, ns := range st.Nodes {
		n := newNode(ns.ID, ns.Value)
		n.status = ns.Status
		n.primary = append([]int{}, ns.Primary...)
		n.addReplicas(ns.Replicas)
		nodes[i] = n
	}
	r.nodes = nodes
	r.nextID = st.NextID

	level.Info(r.log).Log("msg", "restored ring", "nodes", len(nodes))
	r.metrics.nodes.Set(float64(len(nodes)))
	r.notifyObservers()
	return nil
}
