package dht

import (
	"github.com/emirpasic/gods/queues/priorityqueue"
	"github.com/emirpasic/gods/utils"
)

// RankByLoad orders nodes by space used, busiest first. Ties are broken by
// node ID so the ranking is deterministic.
func RankByLoad(nodes []NodeInfo) []NodeInfo {
	q := priorityqueue.NewWith(func(a, b interface{}) int {
		na, nb := a.(NodeInfo), b.(NodeInfo)
		if c := utils.IntComparator(nb.SpaceUsed(), na.SpaceUsed()); c != 0 {
			return c
		}
		return utils.IntComparator(na.ID, nb.ID)
	})
	for _, n := range nodes {
		q.Enqueue(n)
	}

	ranked := make([]NodeInfo, 0, len(nodes))
	for {
		v, ok := q.Dequeue()
		if !ok {
			break
		}
		ranked = append(ranked, v.(NodeInfo))
	}
	return ranked
}

// MostImbalanced returns the busiest and the idlest node. ok is false when
// there are fewer than two nodes.
func MostImbalanced(nodes []NodeInfo) (busy, idle NodeInfo, ok bool) {
	if len(nodes) < 2 {
		return NodeInfo{}, NodeInfo{}, false
	}
	ranked := RankByLoad(nodes)
	return ranked[0], ranked[len(ranked)-1], true
}
