package ring

import (
	"github.com/go-kit/log/level"
	"github.com/rfratto/dht"
)

// minSlack is the number of positions a section must keep free beyond the
// ones being moved for a load balancing move to be considered.
const minSlack = 2

// LoadBalance moves section boundaries to take load from the node at
// position busy and give load to the node at position idle.
//
// Up to six independent moves are attempted, in order:
//
//  1. shrink busy's section on its right edge, handing keys to its successor;
//  2. shrink busy's section on its left edge, expanding its predecessor;
//  3. expand the node ReplicationFactor hops left of busy, so busy holds
//     fewer replicas;
//  4. expand idle's section on its right edge;
//  5. expand idle's section on its left edge, shrinking its predecessor;
//  6. shrink the node ReplicationFactor hops left of idle, so idle holds
//     more replicas.
//
// Each move shifts half the difference in space used between the two nodes
// being balanced, capped at half the slack of the section being shrunk. A
// move is skipped if the shift is not larger than 1 or the section has less
// than 2 positions of slack; skipping is not an error, and LoadBalance may
// return no records at all.
//
// An error wrapping dht.ErrNotFound is returned if either position has no
// node.
func (r *Ring) LoadBalance(busy, idle int) ([]dht.Relocation, error) {
	oi, ui := r.indexByValue(busy), r.indexByValue(idle)
	if oi < 0 {
		return nil, dht.NotFoundf("no node at busy position %d", busy)
	}
	if ui < 0 {
		return nil, dht.NotFoundf("no node at idle position %d", idle)
	}
	if len(r.nodes) < 2 {
		return nil, nil
	}

	var (
		o, u = r.nodes[oi], r.nodes[ui]
		R    = r.cfg.ReplicationFactor

		// Space used by the busy and idle nodes is measured once, before any
		// move is made.
		oSpace = o.spaceUsed()
		uSpace = u.spaceUsed()

		records []dht.Relocation
	)

	try := func(move string, section *node, shift int, apply func(k int) []dht.Relocation) {
		slack := r.sectionLen(r.indexOf(section)) - 1

		var reason string
		switch {
		case shift <= 1:
			reason = "shift too small"
		case slack < minSlack:
			reason = "not enough slack in section"
		}
		if reason != "" {
			skip := &dht.SkippedMove{Move: move, Shift: shift, Slack: slack, Reason: reason}
			level.Debug(r.log).Log("msg", "skipping load balance move", "err", skip)
			r.metrics.skippedMovesTotal.Inc()
			return
		}

		k := shift
		if half := slack / 2; half < k {
			k = half
		}
		records = append(records, apply(k)...)
	}

	try("shrink busy right", o, (oSpace-r.hop(o, R).spaceUsed())/2, func(k int) []dht.Relocation {
		return r.shrinkRight(o, k)
	})
	try("shrink busy left", o, (oSpace-r.hop(o, -1).spaceUsed())/2, func(k int) []dht.Relocation {
		return r.expandRight(r.hop(o, -1), k)
	})
	try("drop busy replicas", r.hop(o, -(R-1)), (oSpace-r.hop(o, -R).spaceUsed())/2, func(k int) []dht.Relocation {
		return r.expandRight(r.hop(o, -R), k)
	})
	try("expand idle right", r.hop(u, 1), (r.hop(u, R).spaceUsed()-uSpace)/2, func(k int) []dht.Relocation {
		return r.expandRight(u, k)
	})
	try("expand idle left", r.hop(u, -1), (r.hop(u, -1).spaceUsed()-uSpace)/2, func(k int) []dht.Relocation {
		return r.shrinkRight(r.hop(u, -1), k)
	})
	try("gain idle replicas", r.hop(u, -R), (r.hop(u, -R).spaceUsed()-uSpace)/2, func(k int) []dht.Relocation {
		return r.shrinkRight(r.hop(u, -R), k)
	})

	level.Info(r.log).Log("msg", "load balanced", "busy", o.id, "idle", u.id, "moves", len(records), "keys", dht.MovedKeys(records))
	r.recordRelocations(records)
	if len(records) > 0 {
		r.notifyObservers()
	}
	return records, nil
}

// hop returns the node n hops to the right of from. Negative values of n walk
// to the left.
func (r *Ring) hop(from *node, n int) *node {
	return r.at(r.indexOf(from) + n)
}

// shrinkRight hands the last k primary keys of n to its successor. The
// successor drops its replicas of those keys, and the node one past the end
// of the new replica window gains them.
func (r *Ring) shrinkRight(n *node, k int) []dht.Relocation {
	var (
		i    = r.indexOf(n)
		succ = r.at(i + 1)
		cut  = len(n.primary) - k
	)

	moved := append([]int(nil), n.primary[cut:]...)
	n.primary = n.primary[:cut]
	n.value = n.primary[len(n.primary)-1]
	succ.primary = append(append([]int(nil), moved...), succ.primary...)

	records := []dht.Relocation{{Source: n.id, Destination: succ.id, Keys: moved}}

	if h := r.holders(); h >= 2 {
		gainer := r.at(i + h)
		succ.dropReplicas(moved)
		gainer.addReplicas(moved)
		records = append(records, dht.Relocation{Source: succ.id, Destination: gainer.id, Keys: moved, Replica: true})
	}

	level.Debug(r.log).Log("msg", "shrunk section", "id", n.id, "value", n.value, "keys", k)
	return records
}

// expandRight takes the first k primary keys of n's successor. The furthest
// holder of those keys drops its replicas, and the successor holds them as
// replicas instead.
func (r *Ring) expandRight(n *node, k int) []dht.Relocation {
	var (
		i    = r.indexOf(n)
		succ = r.at(i + 1)
	)

	moved := append([]int(nil), succ.primary[:k]...)
	succ.primary = succ.primary[k:]
	n.primary = append(n.primary, moved...)
	n.value = n.primary[len(n.primary)-1]

	records := []dht.Relocation{{Source: succ.id, Destination: n.id, Keys: moved}}

	if h := r.holders(); h >= 2 {
		dropper := r.at(i + h)
		dropper.dropReplicas(moved)
		succ.addReplicas(moved)
		records = append(records, dht.Relocation{Source: dropper.id, Destination: succ.id, Keys: moved, Replica: true})
	}

	level.Debug(r.log).Log("msg", "expanded section", "id", n.id, "value", n.value, "keys", k)
	return records
}
