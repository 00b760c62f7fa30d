package rush

import (
	"math"

	"github.com/go-kit/log/level"
	"github.com/rfratto/dht"
)

// LoadBalance pins the node overID to overWeight and the node underID to
// underWeight. The difference between the new weight total and 1 is spread
// evenly across every other node, and every stored key copy is placed
// again.
//
// With only two nodes there is nothing to spread the difference across, so
// the pinned weights must sum to 1. Every resulting weight must be in (0, 1].
// An error wrapping dht.ErrInvalidConfiguration is returned otherwise and the
// table is left unchanged. An error wrapping dht.ErrNotFound is returned if
// either node does not exist.
//
// The new weights are returned in placement order, along with records of
// the key copies which moved.
func (t *Table) LoadBalance(overID int, overWeight float64, underID int, underWeight float64) ([]Weight, []dht.Relocation, error) {
	if overID == underID {
		return nil, nil, dht.Invalidf("overloaded and underloaded node must differ, both are %d", overID)
	}

	oi, ui := t.indexByID(overID), t.indexByID(underID)
	if oi < 0 {
		return nil, nil, dht.NotFoundf("no node with id %d", overID)
	}
	if ui < 0 {
		return nil, nil, dht.NotFoundf("no node with id %d", underID)
	}

	weights, err := t.pinWeights(oi, overWeight, ui, underWeight)
	if err != nil {
		return nil, nil, err
	}
	for i, n := range t.nodes {
		n.weight = weights[i]
	}
	records := t.replace()

	level.Info(t.log).Log("msg", "load balanced", "over", overID, "over_weight", overWeight, "under", underID, "under_weight", underWeight, "moved", dht.MovedKeys(records))
	t.recordRelocations(records)
	t.notifyObservers()
	return t.Weights(), records, nil
}

// pinWeights computes the weights of every node after pinning the nodes at
// indices oi and ui, without modifying the table.
func (t *Table) pinWeights(oi int, overWeight float64, ui int, underWeight float64) ([]float64, error) {
	weights := make([]float64, len(t.nodes))
	for i, n := range t.nodes {
		weights[i] = n.weight
	}
	weights[oi], weights[ui] = overWeight, underWeight

	var total float64
	for _, w := range weights {
		total += w
	}
	diff := total - 1

	if others := len(weights) - 2; others == 0 {
		if math.Abs(diff) > weightTolerance {
			return nil, dht.Invalidf("weights of the only two nodes must sum to 1, got %g", total)
		}
	} else if math.Abs(diff) > weightTolerance {
		share := diff / float64(others)
		for i := range weights {
			if i != oi && i != ui {
				weights[i] -= share
			}
		}
	}

	for i, w := range weights {
		if w <= 0 || w > 1+weightTolerance {
			return nil, dht.Invalidf("weight of node %d would be %g, must be in (0, 1]", t.nodes[i].id, w)
		}
	}
	return weights, nil
}
