package rush

import (
	"sort"

	"github.com/rfratto/dht"
)

// Locate returns the ID of the node which the given key and replica ID are
// placed on with the current weights.
func (t *Table) Locate(key, replica int) int {
	return t.nodes[t.locate(key, replica)].id
}

// locate returns the index of the node accepting key and replica. Nodes are
// tested in order against a working copy of the weights. A node which
// rejects the pair gives each node after it an even share of its current
// working weight. The last node accepts whatever reaches it.
func (t *Table) locate(key, replica int) int {
	n := len(t.nodes)
	if cap(t.scratch) < n {
		t.scratch = make([]float64, n)
	}
	w := t.scratch[:n]
	for i, nd := range t.nodes {
		w[i] = nd.weight
	}

	for i := 0; i < n-1; i++ {
		if t.cfg.Prober.Probability(key, replica, t.nodes[i].id) <= w[i] {
			return i
		}

		share := w[i] / float64(n-(i+1))
		for j := i + 1; j < n; j++ {
			w[j] += share
		}
	}
	return n - 1
}

func (t *Table) place(p placement) *node {
	n := t.nodes[t.locate(p.Key, p.Replica)]
	n.data = append(n.data, p)
	t.metrics.placementsTotal.Inc()
	return n
}

type relocationKey struct {
	src, dst int
	replica  bool
}

// replace places every key copy held by the table, and by any nodes which
// were just removed from it, again with the current weights. The number of
// copies of each key is preserved. The returned records are grouped by
// source and destination node.
func (t *Table) replace(removed ...*node) []dht.Relocation {
	type held struct {
		placement
		owner int
	}

	var all []held
	for _, n := range append(t.nodes[:len(t.nodes):len(t.nodes)], removed...) {
		for _, p := range n.data {
			all = append(all, held{placement: p, owner: n.id})
		}
		n.data = nil
	}

	moved := make(map[relocationKey][]int)
	for _, h := range all {
		dst := t.place(h.placement)
		if dst.id == h.owner {
			continue
		}
		rk := relocationKey{src: h.owner, dst: dst.id, replica: h.Replica > 1}
		moved[rk] = append(moved[rk], h.Key)
	}

	records := make([]dht.Relocation, 0, len(moved))
	for rk, keys := range moved {
		sort.Ints(keys)
		records = append(records, dht.Relocation{
			Source:      rk.src,
			Destination: rk.dst,
			Keys:        keys,
			Replica:     rk.replica,
		})
	}
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		switch {
		case a.Source != b.Source:
			return a.Source < b.Source
		case a.Destination != b.Destination:
			return a.Destination < b.Destination
		default:
			return !a.Replica && b.Replica
		}
	})
	return records
}

// Hit is a replica of a key found by Hits.
type Hit struct {
	Replica int
	NodeID  int
}

// Hits locates every replica ID of key and reports the ones whose node
// holds key.
func (t *Table) Hits(key int) []Hit {
	var hits []Hit
	for replica := 1; replica <= t.cfg.ReplicationFactor; replica++ {
		n := t.nodes[t.locate(key, replica)]
		if n.holds(key) {
			hits = append(hits, Hit{Replica: replica, NodeID: n.id})
		}
	}
	return hits
}

// Search returns the IDs of the nodes holding key, in replica ID order. A
// node holding more than one replica is only listed once. An error wrapping
// dht.ErrNotFound is returned if no node holds key.
func (t *Table) Search(key int) ([]int, error) {
	if key < 0 || key >= t.length {
		t.metrics.lookupsTotal.WithLabelValues("not_found").Inc()
		return nil, dht.NotFoundf("key %d outside of table [0, %d)", key, t.length)
	}

	var (
		res  []int
		seen = make(map[int]struct{})
	)
	for _, h := range t.Hits(key) {
		if _, ok := seen[h.NodeID]; ok {
			continue
		}
		seen[h.NodeID] = struct{}{}
		res = append(res, h.NodeID)
	}

	if len(res) == 0 {
		t.metrics.lookupsTotal.WithLabelValues("not_found").Inc()
		return nil, dht.NotFoundf("key %d", key)
	}
	t.metrics.lookupsTotal.WithLabelValues("found").Inc()
	return res, nil
}
