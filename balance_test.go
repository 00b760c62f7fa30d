package dht

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRankByLoad(t *testing.T) {
	nodes := []NodeInfo{
		{ID: 0, Keys: make([]int, 3), Replicas: make([]int, 3)},
		{ID: 1, Keys: make([]int, 8)},
		{ID: 2, Keys: make([]int, 1), Replicas: make([]int, 1)},
		{ID: 3, Keys: make([]int, 2), Replicas: make([]int, 4)},
	}

	var ids []int
	for _, n := range RankByLoad(nodes) {
		ids = append(ids, n.ID)
	}
	require.Equal(t, []int{1, 0, 3, 2}, ids)

	// The input is left untouched.
	require.Equal(t, 0, nodes[0].ID)
}

func TestMostImbalanced(t *testing.T) {
	t.Run("too few nodes", func(t *testing.T) {
		_, _, ok := MostImbalanced([]NodeInfo{{ID: 0}})
		require.False(t, ok)
	})

	t.Run("picks extremes", func(t *testing.T) {
		busy, idle, ok := MostImbalanced([]NodeInfo{
			{ID: 0, Keys: make([]int, 5)},
			{ID: 1, Keys: make([]int, 9)},
			{ID: 2, Keys: make([]int, 2)},
		})
		require.True(t, ok)
		require.Equal(t, 1, busy.ID)
		require.Equal(t, 2, idle.ID)
	})

	t.Run("equal load", func(t *testing.T) {
		busy, idle, ok := MostImbalanced([]NodeInfo{{ID: 4}, {ID: 2}, {ID: 7}})
		require.True(t, ok)
		require.Equal(t, 2, busy.ID)
		require.Equal(t, 7, idle.ID)
	})
}
