package chash

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyBuilder(t *testing.T) {
	t.Run("Generates the same hash with no change", func(t *testing.T) {
		kb := NewKeyBuilder(0)
		_, _ = fmt.Fprint(kb, "Testing")

		hash1 := kb.Key()
		hash2 := kb.Key()
		require.Equal(t, hash1, hash2)
	})

	t.Run("Generates new key after write", func(t *testing.T) {
		kb := NewKeyBuilder(0)
		beforeWrite := kb.Key()

		kb.WriteInt(42)

		afterWrite := kb.Key()

		require.NotEqual(t, beforeWrite, afterWrite)
	})

	t.Run("Resets to seeded state", func(t *testing.T) {
		kb := NewKeyBuilder(7)
		initialState := kb.Key()

		kb.WriteInt(42)
		kb.Reset()

		currentState := kb.Key()
		require.Equal(t, currentState, initialState)
	})

	t.Run("Seed changes the key", func(t *testing.T) {
		require.NotEqual(t, Key(1, 10, 20), Key(2, 10, 20))
	})
}

func TestKeyBuilder_Key_Equivalence(t *testing.T) {
	kb := NewKeyBuilder(99)
	kb.WriteInt(1)
	kb.WriteInt(2)
	kb.WriteInt(3)

	require.Equal(t, kb.Key(), Key(99, 1, 2, 3))
}

func TestUnit(t *testing.T) {
	require.Equal(t, 0.0, Unit(0))
	require.Less(t, Unit(^uint64(0)), 1.0)
	require.InDelta(t, 0.5, Unit(1<<63), 1e-12)
}

func TestSeeded_Probability(t *testing.T) {
	p := NewSeeded(0)

	t.Run("Deterministic", func(t *testing.T) {
		for key := 0; key < 100; key++ {
			require.Equal(t, p.Probability(key, 1, 3), NewSeeded(0).Probability(key, 1, 3))
		}
	})

	t.Run("Depends on every input", func(t *testing.T) {
		base := p.Probability(5, 1, 0)
		require.NotEqual(t, base, p.Probability(6, 1, 0))
		require.NotEqual(t, base, p.Probability(5, 2, 0))
		require.NotEqual(t, base, p.Probability(5, 1, 1))
	})

	t.Run("Roughly uniform", func(t *testing.T) {
		const (
			samples = 100_000
			buckets = 10
		)
		var counts [buckets]int
		for i := 0; i < samples; i++ {
			v := p.Probability(i, 1, 0)
			require.True(t, v >= 0 && v < 1, "probability %f out of range", v)
			counts[int(v*buckets)]++
		}
		for b, c := range counts {
			require.InDelta(t, samples/buckets, c, samples/buckets*0.05, "bucket %d", b)
		}
	})
}
