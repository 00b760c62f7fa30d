// Package rush implements weighted placement by recursive elimination, as
// used by RUSH-style placement tables.
//
// Every node has a weight, and the weights of all nodes sum to 1. A key and a
// replica ID are placed by testing nodes in order: a node accepts the pair
// when the pair's hash for that node falls under the node's weight. A node
// which rejects the pair spreads its weight evenly over the nodes left to
// test. Any change to the nodes or their weights re-places every key.
package rush

import (
	"fmt"
	"sort"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rfratto/dht"
	"github.com/rfratto/dht/chash"
)

// DefaultThreshold is the capacity given to nodes when Config.Threshold is
// unset.
const DefaultThreshold = 10

// weightTolerance is the floating point tolerance when comparing weight sums.
const weightTolerance = 1e-9

// Config configures a Table.
type Config struct {
	dht.Params

	// Optional logger to use.
	Log log.Logger

	// Seed for the default placement hash. Tables with the same seed and
	// nodes place keys identically.
	Seed uint64

	// Capacity of each node. Informational only; placement never consults
	// it. Defaults to DefaultThreshold.
	Threshold int

	// Optional hash used for placement. Defaults to chash.NewSeeded(Seed).
	Prober chash.Prober
}

func (c *Config) validate() error {
	if err := c.Params.Validate(); err != nil {
		return err
	}

	if c.Threshold < 0 {
		return dht.Invalidf("threshold must not be negative, got %d", c.Threshold)
	} else if c.Threshold == 0 {
		c.Threshold = DefaultThreshold
	}

	if c.Log == nil {
		c.Log = log.NewNopLogger()
	}
	if c.Prober == nil {
		c.Prober = chash.NewSeeded(c.Seed)
	}

	return nil
}

// placement is a single copy of a key. A key is stored once per replica ID.
type placement struct {
	Key     int
	Replica int
}

type node struct {
	id        int
	weight    float64
	threshold int
	status    dht.Status
	data      []placement
}

func (n *node) holds(key int) bool {
	for _, p := range n.data {
		if p.Key == key {
			return true
		}
	}
	return false
}

func (n *node) info() dht.NodeInfo {
	info := dht.NodeInfo{
		ID:       n.id,
		Weight:   n.weight,
		Status:   n.status,
		Keys:     []int{},
		Replicas: []int{},
	}
	for _, p := range n.data {
		if p.Replica == 1 {
			info.Keys = append(info.Keys, p.Key)
		} else {
			info.Replicas = append(info.Replicas, p.Key)
		}
	}
	sort.Ints(info.Keys)
	sort.Ints(info.Replicas)
	return info
}

// Table is a weighted placement table. Table is not goroutine safe.
type Table struct {
	log     log.Logger
	cfg     Config
	length  int
	metrics *metrics

	// nodes is kept in placement order: the most recently added node is
	// tested first.
	nodes  []*node
	nextID int

	// scratch holds the working weights of a single placement.
	scratch []float64

	observers dht.Observers
}

var _ dht.Engine = (*Table)(nil)

// New creates a table of cfg.Nodes nodes with IDs 0 through cfg.Nodes-1 and
// equal weights. Every key in [0, Length) is placed ReplicationFactor times,
// once per replica ID.
func New(cfg Config) (*Table, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	t := &Table{
		log:     cfg.Log,
		cfg:     cfg,
		length:  cfg.Length(),
		metrics: newMetrics(),
	}

	for id := 0; id < cfg.Nodes; id++ {
		t.insert(id)
	}
	t.resetWeights()

	for key := 0; key < t.length; key++ {
		for replica := 1; replica <= cfg.ReplicationFactor; replica++ {
			t.place(placement{Key: key, Replica: replica})
		}
	}

	t.metrics.nodes.Set(float64(len(t.nodes)))
	level.Info(t.log).Log("msg", "provisioned table", "nodes", cfg.Nodes, "keys", t.length, "replication_factor", cfg.ReplicationFactor)
	return t, nil
}

// insert puts a new node with the given id at the front of the table.
func (t *Table) insert(id int) *node {
	n := &node{
		id:        id,
		threshold: t.cfg.Threshold,
		status:    dht.StatusRunning,
	}
	t.nodes = append([]*node{n}, t.nodes...)
	if id >= t.nextID {
		t.nextID = id + 1
	}
	return n
}

// resetWeights gives every node the same weight.
func (t *Table) resetWeights() {
	for _, n := range t.nodes {
		n.weight = 1 / float64(len(t.nodes))
	}
}

// Length returns the number of keys in the table's key domain.
func (t *Table) Length() int { return t.length }

// ReplicationFactor returns the number of copies placed for every key.
func (t *Table) ReplicationFactor() int { return t.cfg.ReplicationFactor }

// Threshold returns the informational capacity of each node.
func (t *Table) Threshold() int { return t.cfg.Threshold }

// NextID returns the lowest ID above every ID ever used by the table.
func (t *Table) NextID() int { return t.nextID }

// Metrics returns the table's metrics.
func (t *Table) Metrics() prometheus.Collector { return t.metrics }

// Observe registers o to be notified after every mutation of the table.
func (t *Table) Observe(o dht.Observer) {
	t.observers = append(t.observers, o)
}

func (t *Table) notifyObservers() {
	if len(t.observers) == 0 {
		return
	}
	t.observers.Notify(t.Nodes())
}

// Nodes returns a snapshot of every node in placement order.
func (t *Table) Nodes() []dht.NodeInfo {
	res := make([]dht.NodeInfo, len(t.nodes))
	for i, n := range t.nodes {
		res[i] = n.info()
	}
	return res
}

// Weights returns the weight of every node in placement order.
func (t *Table) Weights() []Weight {
	res := make([]Weight, len(t.nodes))
	for i, n := range t.nodes {
		res[i] = Weight{ID: n.id, Weight: n.weight}
	}
	return res
}

// TotalKeys returns the number of key copies stored across all nodes.
func (t *Table) TotalKeys() int {
	var total int
	for _, n := range t.nodes {
		total += len(n.data)
	}
	return total
}

func (t *Table) indexByID(id int) int {
	for i, n := range t.nodes {
		if n.id == id {
			return i
		}
	}
	return -1
}

// AddNode adds a node to the front of the table. If id is already used, the
// next free ID above it is taken instead. Weights are reset so every node has
// the same weight, and every stored key copy is placed again. The records
// describe copies which moved.
//
// An error wrapping dht.ErrInvalidConfiguration is returned if id is
// negative.
func (t *Table) AddNode(id int) ([]dht.Relocation, error) {
	if id < 0 {
		return nil, dht.Invalidf("node id must not be negative, got %d", id)
	}

	requested := id
	for t.indexByID(id) >= 0 {
		id++
	}
	if id != requested {
		level.Debug(t.log).Log("msg", "node id taken, probing", "requested", requested, "id", id)
	}

	n := t.insert(id)
	t.resetWeights()
	records := t.replace()

	level.Info(t.log).Log("msg", "added node", "id", n.id, "keys", len(n.data), "moved", dht.MovedKeys(records))
	t.metrics.nodes.Set(float64(len(t.nodes)))
	t.recordRelocations(records)
	t.notifyObservers()
	return records, nil
}

// RemoveNode removes the node with the given id. Weights are reset so every
// remaining node has the same weight, and every stored key copy is placed
// again, including the copies held by the removed node.
//
// An error wrapping dht.ErrNotFound is returned if there is no node with id.
// An error wrapping dht.ErrInvalidConfiguration is returned when removing the
// last node.
func (t *Table) RemoveNode(id int) ([]dht.Relocation, error) {
	i := t.indexByID(id)
	if i < 0 {
		return nil, dht.NotFoundf("no node with id %d", id)
	}
	if len(t.nodes) == 1 {
		return nil, dht.Invalidf("cannot remove the last node")
	}

	removed := t.nodes[i]
	t.nodes = append(t.nodes[:i], t.nodes[i+1:]...)
	removed.status = dht.StatusRemoved

	t.resetWeights()
	records := t.replace(removed)

	level.Info(t.log).Log("msg", "removed node", "id", id, "keys", len(removed.data), "moved", dht.MovedKeys(records))
	t.metrics.nodes.Set(float64(len(t.nodes)))
	t.recordRelocations(records)
	t.notifyObservers()
	return records, nil
}

func (t *Table) recordRelocations(records []dht.Relocation) {
	for _, rec := range records {
		level.Debug(t.log).Log("msg", "relocated keys", "relocation", rec)
		t.metrics.relocationsTotal.Inc()
		t.metrics.relocatedKeysTotal.Add(float64(len(rec.Keys)))
	}
}

// Weight is the placement weight of a single node.
type Weight struct {
	ID     int
	Weight float64
}

// String returns the weight formatted to four decimal places.
func (w Weight) String() string {
	return fmt.Sprintf("node %d: %.4f", w.ID, w.Weight)
}
