package ring

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rfratto/dht"
	"github.com/stretchr/testify/require"
)

// requireAdjacent checks that every primary record moved keys between
// ring-adjacent nodes.
func requireAdjacent(t *testing.T, r *Ring, records []dht.Relocation) {
	t.Helper()

	index := make(map[int]int, len(r.nodes))
	for i, n := range r.nodes {
		index[n.id] = i
	}

	for _, rec := range records {
		if rec.Replica {
			continue
		}
		src, dst := index[rec.Source], index[rec.Destination]
		adjacent := r.at(src+1) == r.nodes[dst] || r.at(src-1) == r.nodes[dst]
		require.True(t, adjacent, "record %s moved keys between non-adjacent nodes", rec)
	}
}

func requireMinSections(t *testing.T, r *Ring) {
	t.Helper()

	for i, n := range r.nodes {
		require.GreaterOrEqual(t, r.sectionLen(i), minSlack, "section of node %d too small", n.id)
	}
}

func TestRing_LoadBalance(t *testing.T) {
	// Sections are evenly spaced 20 positions apart.
	r := newHundredRing(t)
	requireInvariants(t, r)

	// Unbalance the ring by splitting the section of node 1.
	_, err := r.AddNode(10)
	require.NoError(t, err)
	requireInvariants(t, r)

	busy, idle, ok := dht.MostImbalanced(r.Nodes())
	require.True(t, ok)
	require.Equal(t, 0, busy.ID)
	require.Equal(t, 2, idle.ID)

	records, err := r.LoadBalance(busy.Position, idle.Position)
	require.NoError(t, err)
	require.NotEmpty(t, records)

	requireAdjacent(t, r, records)
	requireMinSections(t, r)
	requireInvariants(t, r)

	after := r.Nodes()
	busyAfter, _ := dht.FindNode(after, busy.ID)
	idleAfter, _ := dht.FindNode(after, idle.ID)
	require.Less(t, busyAfter.SpaceUsed(), busy.SpaceUsed())
	require.Greater(t, idleAfter.SpaceUsed(), idle.SpaceUsed())

	// Moves 2, 5 and 6 have nothing to shift.
	require.Equal(t, 3.0, testutil.ToFloat64(r.metrics.skippedMovesTotal))
}

// newHundredRing builds the 5 node ring of length 100 with replication
// factor 3. Length 100 is not a power of two, so the ring is built from a
// ring of length 128 by rebuilding its nodes.
func newHundredRing(t *testing.T) *Ring {
	t.Helper()

	r := newTestRing(t, 5, 7, 3)
	r.length = 100
	r.provision(5)
	return r
}

func TestRing_LoadBalance_Balanced(t *testing.T) {
	r := newTestRing(t, 4, 6, 2)

	records, err := r.LoadBalance(0, 16)
	require.NoError(t, err)
	require.Empty(t, records)
	requireInvariants(t, r)
	require.Equal(t, 6.0, testutil.ToFloat64(r.metrics.skippedMovesTotal))
}

func TestRing_LoadBalance_NotFound(t *testing.T) {
	r := newTestRing(t, 4, 4, 2)

	_, err := r.LoadBalance(1, 4)
	require.ErrorIs(t, err, dht.ErrNotFound)
	_, err = r.LoadBalance(4, 1)
	require.ErrorIs(t, err, dht.ErrNotFound)
}

func TestRing_shrinkRight(t *testing.T) {
	r := newTestRing(t, 4, 5, 3)
	n0, n1, n2 := r.nodes[0], r.nodes[1], r.nodes[2]

	records := r.shrinkRight(n1, 3)
	require.Equal(t, []dht.Relocation{
		{Source: 1, Destination: 2, Keys: []int{6, 7, 8}},
		{Source: 2, Destination: 0, Keys: []int{6, 7, 8}, Replica: true},
	}, records)

	require.Equal(t, 5, n1.value)
	require.Equal(t, []int{6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}, n2.primary)
	require.True(t, n0.hasReplica(6))
	require.False(t, n2.hasReplica(6))
	requireInvariants(t, r)
}

func TestRing_expandRight(t *testing.T) {
	r := newTestRing(t, 4, 5, 3)
	n1, n2 := r.nodes[1], r.nodes[2]

	records := r.expandRight(n1, 3)
	require.Equal(t, []dht.Relocation{
		{Source: 2, Destination: 1, Keys: []int{9, 10, 11}},
		{Source: 0, Destination: 2, Keys: []int{9, 10, 11}, Replica: true},
	}, records)

	require.Equal(t, 11, n1.value)
	require.Equal(t, []int{12, 13, 14, 15, 16}, n2.primary)
	require.True(t, n2.hasReplica(9))
	requireInvariants(t, r)
}

func TestRing_LoadBalance_FewNodes(t *testing.T) {
	// Removing nodes below the replication factor leaves every node holding
	// every key; moves must keep that true.
	r := newTestRing(t, 4, 6, 4)
	_, err := r.RemoveNode(16)
	require.NoError(t, err)
	_, err = r.AddNode(40)
	require.NoError(t, err)

	_, err = r.LoadBalance(40, 48)
	require.NoError(t, err)
	requireInvariants(t, r)
	requireMinSections(t, r)
}
