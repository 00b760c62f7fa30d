package rush

import (
	"github.com/go-kit/log/level"
	"github.com/rfratto/dht"
	"github.com/rfratto/dht/internal/snapshot"
)

type tableState struct {
	ReplicationFactor int
	Length            int
	Seed              uint64
	NextID            int
	Nodes             []nodeState
}

type nodeState struct {
	ID         int
	Weight     float64
	Threshold  int
	Status     dht.Status
	Placements []placement
}

// Snapshot encodes the current state of the table. The snapshot can be
// passed to Restore to roll the table back.
func (t *Table) Snapshot() ([]byte, error) {
	st := tableState{
		ReplicationFactor: t.cfg.ReplicationFactor,
		Length:            t.length,
		Seed:              t.cfg.Seed,
		NextID:            t.nextID,
		Nodes:             make([]nodeState, len(t.nodes)),
	}
	for i, n := range t.nodes {
		st.Nodes[i] = nodeState{
			ID:         n.id,
			Weight:     n.weight,
			Threshold:  n.threshold,
			Status:     n.status,
			Placements: n.data,
		}
	}
	return snapshot.Encode(snapshot.KindRush, &st)
}

// Restore replaces the state of the table with a snapshot taken by
// Snapshot. The snapshot must come from a table with the same key domain,
// replication factor and seed.
func (t *Table) Restore(buf []byte) error {
	var st tableState
	if err := snapshot.Decode(buf, snapshot.KindRush, &st); err != nil {
		return dht.Invalidf("restoring table: %s", err)
	}
	if st.Length != t.length || st.ReplicationFactor != t.cfg.ReplicationFactor || st.Seed != t.cfg.Seed {
		return dht.Invalidf("snapshot of table with %d keys, replication factor %d and seed %d can't be restored into table with %d keys, replication factor %d and seed %d",
			st.Length, st.ReplicationFactor, st.Seed, t.length, t.cfg.ReplicationFactor, t.cfg.Seed)
	}
	if len(st.Nodes) == 0 {
		return dht.Invalidf("snapshot has no nodes")
	}

	nodes := make([]*node, len(st.Nodes))
	for i, ns := range st.Nodes {
		nodes[i] = &node{
			id:        ns.ID,
			weight:    ns.Weight,
			threshold: ns.Threshold,
			status:    ns.Status,
			data:      append([]placement(nil), ns.Placements...),
		}
	}
	t.nodes = nodes
	t.nextID = st.NextID

	level.Info(t.log).Log("msg", "restored table", "nodes", len(nodes))
	t.metrics.nodes.Set(float64(len(nodes)))
	t.notifyObservers()
	return nil
}
