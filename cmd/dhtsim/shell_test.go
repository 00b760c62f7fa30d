package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-kit/log"
	"github.com/rfratto/dht"
	"github.com/rfratto/dht/ring"
	"github.com/rfratto/dht/rush"
	"github.com/stretchr/testify/require"
)

func newTestShell(t *testing.T, b *backend) (*shell, *bytes.Buffer) {
	t.Helper()

	var out bytes.Buffer
	sh, err := newShell(log.NewNopLogger(), b, &out)
	require.NoError(t, err)
	return sh, &out
}

func newTestRingBackend(t *testing.T) *backend {
	t.Helper()

	r, err := ring.New(ring.Config{
		Params: dht.Params{Nodes: 4, HashSpaceSize: 4, ReplicationFactor: 2},
	})
	require.NoError(t, err)
	return newRingBackend(r)
}

func newTestRushBackend(t *testing.T) *backend {
	t.Helper()

	tbl, err := rush.New(rush.Config{
		Params: dht.Params{Nodes: 3, HashSpaceSize: 3, ReplicationFactor: 2},
	})
	require.NoError(t, err)
	return newRushBackend(tbl)
}

func TestShell_Ring(t *testing.T) {
	sh, out := newTestShell(t, newTestRingBackend(t))

	script := strings.Join([]string{
		"search 5",
		"add 6",
		"search 5",
		"remove 9",
		"search 99",
		"add 6",
		"frobnicate",
		"",
		"exit",
		"search 5",
	}, "\n")
	require.NoError(t, sh.Run(strings.NewReader(script)))

	lines := out.String()
	require.Contains(t, lines, "key 5 is held by nodes 2, 3")
	require.Contains(t, lines, "key 5 is held by nodes 4, 2")
	require.Contains(t, lines, "node 9 was not found")
	require.Contains(t, lines, "key 99 was not found")
	require.Contains(t, lines, "error: position 6 already taken by node 4")
	require.Contains(t, lines, `error: unknown command "frobnicate", try help`)

	// Commands after exit are never run.
	require.Equal(t, 2, strings.Count(lines, "key 5 is held"))
}

func TestShell_CheckpointRollback(t *testing.T) {
	b := newTestRingBackend(t)
	sh, out := newTestShell(t, b)
	before := b.engine.Nodes()

	require.EqualError(t, sh.Exec("rollback", nil), "no checkpoint to roll back to")

	require.NoError(t, sh.Exec("checkpoint", nil))
	require.NoError(t, sh.Exec("add", []string{"6"}))
	require.NotEqual(t, before, b.engine.Nodes())

	require.NoError(t, sh.Exec("rollback", nil))
	require.Equal(t, before, b.engine.Nodes())
	require.Contains(t, out.String(), "rolled back to checkpoint")
}

func TestShell_Plan(t *testing.T) {
	b := newTestRingBackend(t)
	sh, out := newTestShell(t, b)

	require.NoError(t, sh.Exec("add", []string{"2"}))
	before := b.engine.Nodes()
	out.Reset()

	require.NoError(t, sh.Exec("plan", []string{"4", "8"}))
	require.Contains(t, out.String(), "planned, not applied:")
	require.Equal(t, before, b.engine.Nodes())

	require.Error(t, sh.Exec("plan", []string{"4"}))
	require.Equal(t, before, b.engine.Nodes())
}

func TestShell_Autobalance(t *testing.T) {
	b := newTestRingBackend(t)
	sh, _ := newTestShell(t, b)

	require.NoError(t, sh.Exec("add", []string{"2"}))
	require.NoError(t, sh.Exec("autobalance", nil))

	// The ring must still cover every key.
	for key := 0; key < 16; key++ {
		holders, err := b.engine.Search(key)
		require.NoError(t, err)
		require.Len(t, holders, 2)
	}
}

func TestShell_Rush(t *testing.T) {
	b := newTestRushBackend(t)
	sh, out := newTestShell(t, b)

	require.NoError(t, sh.Exec("balance", []string{"0", "0.6", "1", "0.3"}))
	require.Contains(t, out.String(), "node 2: 0.1000")

	require.EqualError(t, sh.Exec("balance", []string{"0", "0.6"}), "usage: balance <over id> <over weight> <under id> <under weight>")
	require.Error(t, sh.Exec("balance", []string{"0", "heavy", "1", "0.3"}))

	require.NoError(t, sh.Exec("add", nil))
	_, ok := dht.FindNode(b.engine.Nodes(), 3)
	require.True(t, ok)

	require.NoError(t, sh.Exec("autobalance", nil))

	var total float64
	for _, n := range b.engine.Nodes() {
		total += n.Weight
	}
	require.InDelta(t, 1.0, total, 1e-9)
}

func TestShell_List(t *testing.T) {
	sh, out := newTestShell(t, newTestRingBackend(t))

	require.NoError(t, sh.Exec("list", []string{"keys"}))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 6)
	require.Equal(t, []string{"ID", "POSITION", "STATUS", "PRIMARY", "REPLICAS", "KEYS"}, strings.Fields(lines[0]))
	require.Equal(t, []string{"1", "4", "RUNNING", "4", "4", "1", "2", "3", "4", "0", "13", "14", "15"}, strings.Fields(lines[2]))
	require.True(t, strings.HasPrefix(lines[5], "4 nodes, checksum "))
}

func TestShell_Metrics(t *testing.T) {
	sh, out := newTestShell(t, newTestRushBackend(t))

	require.NoError(t, sh.Exec("search", []string{"3"}))
	require.NoError(t, sh.Exec("metrics", nil))

	require.Contains(t, out.String(), "dht_rush_nodes 3")
	require.Contains(t, out.String(), `dht_rush_lookups_total{result="found"} 1`)
}

func TestFormatKeys(t *testing.T) {
	require.Equal(t, "", formatKeys(nil))
	require.Equal(t, "1 2 3", formatKeys([]int{1, 2, 3}))
	require.Equal(t, "(33 keys)", formatKeys(make([]int, 33)))
}
