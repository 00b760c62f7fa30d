package rush

import (
	"testing"

	"github.com/rfratto/dht"
	"github.com/stretchr/testify/require"
)

func TestTable_LoadBalance(t *testing.T) {
	tbl := newTestTable(t, 3, 3, 2)

	weights, records, err := tbl.LoadBalance(0, 0.6, 1, 0.3)
	require.NoError(t, err)
	requireInvariants(t, tbl)

	require.Len(t, weights, 3)
	expect := map[int]float64{0: 0.6, 1: 0.3, 2: 0.1}
	for _, w := range weights {
		require.InDelta(t, expect[w.ID], w.Weight, 1e-9, "weight of node %d", w.ID)
	}
	require.Equal(t, 8*2, tbl.TotalKeys())

	var moved int
	for _, rec := range records {
		require.NotEqual(t, rec.Source, rec.Destination)
		moved += len(rec.Keys)
	}
	require.LessOrEqual(t, moved, 8*2)
}

func TestTable_LoadBalance_Renormalizes(t *testing.T) {
	tbl := newTestTable(t, 5, 4, 2)

	// The weights now sum to 0.9; the other three nodes share the missing 0.1
	// evenly on top of their 0.2.
	weights, _, err := tbl.LoadBalance(4, 0.2, 0, 0.1)
	require.NoError(t, err)
	requireInvariants(t, tbl)

	for _, w := range weights {
		switch w.ID {
		case 4:
			require.InDelta(t, 0.2, w.Weight, 1e-9)
		case 0:
			require.InDelta(t, 0.1, w.Weight, 1e-9)
		default:
			require.InDelta(t, 0.2+0.1/3, w.Weight, 1e-9)
		}
	}
}

func TestTable_LoadBalance_TwoNodes(t *testing.T) {
	tbl := newTestTable(t, 2, 4, 1)

	weights, _, err := tbl.LoadBalance(1, 0.75, 0, 0.25)
	require.NoError(t, err)
	require.Equal(t, []Weight{{ID: 1, Weight: 0.75}, {ID: 0, Weight: 0.25}}, weights)
	requireInvariants(t, tbl)
}

func TestTable_LoadBalance_Invalid(t *testing.T) {
	tt := []struct {
		name        string
		nodes       int
		overID      int
		overWeight  float64
		underID     int
		underWeight float64
		expect      error
	}{
		{
			name:   "same node",
			nodes:  3,
			overID: 1, overWeight: 0.5,
			underID: 1, underWeight: 0.2,
			expect: dht.ErrInvalidConfiguration,
		},
		{
			name:   "missing overloaded node",
			nodes:  3,
			overID: 9, overWeight: 0.5,
			underID: 1, underWeight: 0.2,
			expect: dht.ErrNotFound,
		},
		{
			name:   "missing underloaded node",
			nodes:  3,
			overID: 0, overWeight: 0.5,
			underID: 9, underWeight: 0.2,
			expect: dht.ErrNotFound,
		},
		{
			name:   "two nodes not summing to one",
			nodes:  2,
			overID: 0, overWeight: 0.5,
			underID: 1, underWeight: 0.2,
			expect: dht.ErrInvalidConfiguration,
		},
		{
			name:   "other nodes pushed below zero",
			nodes:  3,
			overID: 0, overWeight: 0.9,
			underID: 1, underWeight: 0.9,
			expect: dht.ErrInvalidConfiguration,
		},
		{
			name:   "zero weight",
			nodes:  3,
			overID: 0, overWeight: 0.7,
			underID: 1, underWeight: 0,
			expect: dht.ErrInvalidConfiguration,
		},
		{
			name:   "weight above one",
			nodes:  4,
			overID: 0, overWeight: 1.5,
			underID: 1, underWeight: 0.1,
			expect: dht.ErrInvalidConfiguration,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			tbl := newTestTable(t, tc.nodes, 4, 1)
			before := tbl.Nodes()

			_, _, err := tbl.LoadBalance(tc.overID, tc.overWeight, tc.underID, tc.underWeight)
			require.ErrorIs(t, err, tc.expect)
			require.Equal(t, before, tbl.Nodes())
		})
	}
}
