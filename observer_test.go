package dht

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMembershipObserver(t *testing.T) {
	tt := []struct {
		name          string
		before, after []NodeInfo
		shouldCall    bool
	}{
		{
			name:       "no nodes",
			before:     nil,
			after:      nil,
			shouldCall: false,
		},
		{
			name:       "new node",
			before:     nil,
			after:      []NodeInfo{{ID: 0, Position: 4}},
			shouldCall: true,
		},
		{
			name:       "existing node",
			before:     []NodeInfo{{ID: 0, Position: 4}},
			after:      []NodeInfo{{ID: 0, Position: 4}},
			shouldCall: false,
		},
		{
			name:       "existing node with new keys",
			before:     []NodeInfo{{ID: 0, Position: 4, Keys: []int{1, 2}}},
			after:      []NodeInfo{{ID: 0, Position: 4, Keys: []int{1, 2, 3}}},
			shouldCall: false,
		},
		{
			name:       "existing node with new weight",
			before:     []NodeInfo{{ID: 0, Weight: 0.5}, {ID: 1, Weight: 0.5}},
			after:      []NodeInfo{{ID: 0, Weight: 0.25}, {ID: 1, Weight: 0.75}},
			shouldCall: false,
		},
		{
			name:       "existing node moved",
			before:     []NodeInfo{{ID: 0, Position: 4}},
			after:      []NodeInfo{{ID: 0, Position: 3}},
			shouldCall: true,
		},
		{
			name:       "node removed",
			before:     []NodeInfo{{ID: 0}, {ID: 1}},
			after:      []NodeInfo{{ID: 1}},
			shouldCall: true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			var called bool

			obs := MembershipObserver(FuncObserver(func([]NodeInfo) {
				called = true
			}))
			obs.NotifyNodesChanged(tc.before)
			called = false

			obs.NotifyNodesChanged(tc.after)
			require.Equal(t, tc.shouldCall, called)
		})
	}
}

func TestObservers_Notify(t *testing.T) {
	var calls []string

	os := Observers{
		FuncObserver(func([]NodeInfo) { calls = append(calls, "a") }),
		FuncObserver(func([]NodeInfo) { calls = append(calls, "b") }),
	}
	os.Notify([]NodeInfo{{ID: 0}})

	require.Equal(t, []string{"a", "b"}, calls)
}
