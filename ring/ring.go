// Package ring implements a token ring with successor replication.
//
// Nodes are placed on a ring of positions [0, Length). A node owns every key
// in the half-open section between its predecessor's position and its own,
// and the next ReplicationFactor-1 successors hold a replica of each of those
// keys. Adding, removing and load balancing nodes moves section boundaries
// and slides replica windows incrementally instead of rescanning the ring.
package ring

import (
	"fmt"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rfratto/dht"
)

// Config configures a Ring.
type Config struct {
	dht.Params

	// Optional logger to use.
	Log log.Logger
}

func (c *Config) validate() error {
	if err := c.Params.Validate(); err != nil {
		return err
	}

	if c.Nodes > c.Length() {
		return dht.Invalidf("%d nodes do not fit on a ring of length %d", c.Nodes, c.Length())
	}

	if c.Log == nil {
		c.Log = log.NewNopLogger()
	}

	return nil
}

// Ring is a consistent hashing ring with successor replication. Ring is not
// goroutine safe.
type Ring struct {
	log     log.Logger
	cfg     Config
	length  int
	metrics *metrics

	// nodes is kept in ring order: the successor of nodes[i] is nodes[i+1],
	// wrapping around at the end. Positions increase along the slice except
	// for at most one wrap through 0.
	nodes  []*node
	nextID int

	observers dht.Observers
}

var _ dht.Engine = (*Ring)(nil)

// New creates a ring of cfg.Nodes evenly spaced nodes. Node i is placed at
// position i*floor(Length/Nodes). Every key of the ring is assigned to its
// owner and replicated to the owner's successors.
func New(cfg Config) (*Ring, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	r := &Ring{
		log:     cfg.Log,
		cfg:     cfg,
		length:  cfg.Length(),
		metrics: newMetrics(),
	}
	r.provision(cfg.Nodes)

	level.Info(r.log).Log("msg", "provisioned ring", "nodes", cfg.Nodes, "length", r.length, "replication_factor", cfg.ReplicationFactor)
	return r, nil
}

func (r *Ring) provision(count int) {
	distance := r.length / count

	r.nodes = make([]*node, 0, count)
	for i := 0; i < count; i++ {
		r.nodes = append(r.nodes, newNode(i, distance*i))
	}
	r.nextID = count

	for i := 1; i < count; i++ {
		r.nodes[i].primary = keyRange(distance*(i-1)+1, distance*i)
	}
	// Node 0 owns the tail of the ring and key 0.
	r.nodes[0].primary = append(keyRange(distance*(count-1)+1, r.length-1), 0)

	h := r.holders()
	for i, n := range r.nodes {
		for hop := 1; hop < h; hop++ {
			r.at(i + hop).addReplicas(n.primary)
		}
	}

	r.metrics.nodes.Set(float64(len(r.nodes)))
}

// keyRange returns the keys [from, to]. It returns an empty slice if to <
// from.
func keyRange(from, to int) []int {
	if to < from {
		return []int{}
	}
	keys := make([]int, 0, to-from+1)
	for k := from; k <= to; k++ {
		keys = append(keys, k)
	}
	return keys
}

// Length returns the number of positions on the ring.
func (r *Ring) Length() int { return r.length }

// ReplicationFactor returns the total number of holders for each key.
func (r *Ring) ReplicationFactor() int { return r.cfg.ReplicationFactor }

// Metrics returns the ring's metrics.
func (r *Ring) Metrics() prometheus.Collector { return r.metrics }

// Observe registers o to be notified after every mutation of the ring.
func (r *Ring) Observe(o dht.Observer) {
	r.observers = append(r.observers, o)
}

func (r *Ring) notifyObservers() {
	if len(r.observers) == 0 {
		return
	}
	r.observers.Notify(r.Nodes())
}

// Nodes returns a snapshot of every node in ring order.
func (r *Ring) Nodes() []dht.NodeInfo {
	res := make([]dht.NodeInfo, len(r.nodes))
	for i, n := range r.nodes {
		res[i] = n.info()
	}
	return res
}

// at returns the node i positions from the start of the ring, wrapping in
// both directions.
func (r *Ring) at(i int) *node {
	n := len(r.nodes)
	return r.nodes[((i%n)+n)%n]
}

// holders returns how many nodes hold each key: the replication factor, or
// every node when there are fewer nodes than that.
func (r *Ring) holders() int {
	if len(r.nodes) < r.cfg.ReplicationFactor {
		return len(r.nodes)
	}
	return r.cfg.ReplicationFactor
}

func (r *Ring) indexOf(n *node) int {
	for i, cand := range r.nodes {
		if cand == n {
			return i
		}
	}
	panic(fmt.Sprintf("node %d is not part of the ring", n.id))
}

// indexByValue returns the index of the node at position value, or -1.
func (r *Ring) indexByValue(value int) int {
	for i, n := range r.nodes {
		if n.value == value {
			return i
		}
	}
	return -1
}

// isCorrectOwner reports whether the node at index i owns key: key must fall
// in (predecessor.value, node.value], wrapping through 0 when the
// predecessor's value is larger.
func (r *Ring) isCorrectOwner(i int, key int) bool {
	if len(r.nodes) == 1 {
		return true
	}
	return dht.InSection(r.at(i-1).value, r.at(i).value, key)
}

// ownerIndex returns the index of the node owning key.
func (r *Ring) ownerIndex(key int) int {
	for i := range r.nodes {
		if r.isCorrectOwner(i, key) {
			return i
		}
	}
	panic(fmt.Sprintf("no owner for key %d", key))
}

// sectionLen returns the distance between the node at index i and its
// predecessor.
func (r *Ring) sectionLen(i int) int {
	if len(r.nodes) == 1 {
		return r.length
	}
	return dht.Distance(r.at(i-1).value, r.at(i).value, r.length)
}

func (r *Ring) checkKey(key int) error {
	if key < 0 || key >= r.length {
		return dht.NotFoundf("key %d outside of ring [0, %d)", key, r.length)
	}
	return nil
}

// Owner returns the node which owns key.
func (r *Ring) Owner(key int) (dht.NodeInfo, error) {
	if err := r.checkKey(key); err != nil {
		return dht.NodeInfo{}, err
	}
	return r.nodes[r.ownerIndex(key)].info(), nil
}

// Search returns the IDs of every node holding key: the owner first, if it
// holds key as a primary key, followed by the successors holding a replica.
// An error wrapping dht.ErrNotFound is returned if no node holds key.
func (r *Ring) Search(key int) ([]int, error) {
	if err := r.checkKey(key); err != nil {
		r.metrics.lookupsTotal.WithLabelValues("not_found").Inc()
		return nil, err
	}

	var (
		oi  = r.ownerIndex(key)
		res []int
	)

	if r.nodes[oi].hasPrimary(key) {
		res = append(res, r.nodes[oi].id)
	}
	for hop := 0; hop < r.cfg.ReplicationFactor && hop < len(r.nodes); hop++ {
		if n := r.at(oi + hop); n.hasReplica(key) {
			res = append(res, n.id)
		}
	}

	if len(res) == 0 {
		r.metrics.lookupsTotal.WithLabelValues("not_found").Inc()
		return nil, dht.NotFoundf("key %d", key)
	}
	r.metrics.lookupsTotal.WithLabelValues("found").Inc()
	return res, nil
}

// AddNode creates a new node at position value and splices it in front of
// the node currently owning value. The owner's primary keys up to value are
// handed to the new node, and replica windows slide so that every key is
// still held by exactly ReplicationFactor nodes.
//
// An error wrapping dht.ErrInvalidConfiguration is returned if value is
// outside of the ring or already taken by another node.
func (r *Ring) AddNode(value int) ([]dht.Relocation, error) {
	if value < 0 || value >= r.length {
		return nil, dht.Invalidf("position %d outside of ring [0, %d)", value, r.length)
	}
	if i := r.indexByValue(value); i >= 0 {
		return nil, dht.Invalidf("position %d already taken by node %d", value, r.nodes[i].id)
	}

	var (
		oi = r.ownerIndex(value)
		nn = newNode(r.nextID, value)
	)
	r.nextID++

	// Splicing in front of the first node is the same as appending to the end
	// of the ring; appending keeps the first node in place.
	idx := oi
	if idx == 0 {
		idx = len(r.nodes)
	}
	r.nodes = append(r.nodes, nil)
	copy(r.nodes[idx+1:], r.nodes[idx:])
	r.nodes[idx] = nn

	records := r.shiftLeft(idx)

	level.Info(r.log).Log("msg", "added node", "id", nn.id, "value", value, "keys", len(nn.primary))
	r.metrics.nodes.Set(float64(len(r.nodes)))
	r.recordRelocations(records)
	r.notifyObservers()
	return records, nil
}

// shiftLeft moves the primary keys of the successor of the node at index i
// which fall inside that node's section, then slides the replica windows
// affected by inserting the node.
func (r *Ring) shiftLeft(i int) []dht.Relocation {
	var (
		nn    = r.nodes[i]
		owner = r.at(i + 1)
		prev  = r.at(i - 1).value
	)

	cut := 0
	for cut < len(owner.primary) && dht.InSection(prev, nn.value, owner.primary[cut]) {
		cut++
	}
	moved := append([]int(nil), owner.primary[:cut]...)
	owner.primary = owner.primary[cut:]
	nn.primary = moved

	records := []dht.Relocation{{Source: owner.id, Destination: nn.id, Keys: moved}}

	var (
		h = r.holders()
		R = r.cfg.ReplicationFactor

		// When there were fewer nodes than the replication factor, every node
		// held every key. The new node extends the set of holders instead of
		// displacing the furthest one.
		grew = len(r.nodes) <= R
	)

	// The moved keys were primary on the owner and are now its replicas. The
	// furthest holder drops them.
	if h >= 2 {
		owner.addReplicas(moved)
		if !grew {
			dropper := r.at(i + R)
			dropper.dropReplicas(moved)
			records = append(records, dht.Relocation{Source: dropper.id, Destination: owner.id, Keys: moved, Replica: true})
		}
	}

	// The new node sits inside the replica windows of its h-1 predecessors.
	// It takes over the replicas of the node which has fallen out of each
	// window.
	for j := 1; j < h; j++ {
		pred := r.at(i - j)
		nn.addReplicas(pred.primary)
		if grew {
			continue
		}
		dropper := r.at(i + R - j)
		dropper.dropReplicas(pred.primary)
		records = append(records, dht.Relocation{
			Source:      dropper.id,
			Destination: nn.id,
			Keys:        append([]int(nil), pred.primary...),
			Replica:     true,
		})
	}

	return records
}

// RemoveNode unlinks the node at position value. The removed node's primary
// keys merge into its successor, and the nodes which enter the replica
// windows of the affected keys take over the missing replicas.
//
// An error wrapping dht.ErrNotFound is returned if no node is at value. An
// error wrapping dht.ErrInvalidConfiguration is returned when removing the
// last node.
func (r *Ring) RemoveNode(value int) ([]dht.Relocation, error) {
	i := r.indexByValue(value)
	if i < 0 {
		return nil, dht.NotFoundf("no node at position %d", value)
	}
	if len(r.nodes) == 1 {
		return nil, dht.Invalidf("cannot remove the last node")
	}

	var (
		x    = r.nodes[i]
		succ = r.at(i + 1)
		h    = r.holders()
		R    = r.cfg.ReplicationFactor

		// When the ring is at or below the replication factor, every node
		// already holds every key and no replicas need to be created.
		shrunk = len(r.nodes) <= R
	)

	moved := append([]int(nil), x.primary...)
	records := []dht.Relocation{{Source: x.id, Destination: succ.id, Keys: moved}}

	if h >= 2 {
		succ.dropReplicas(moved)
	}
	succ.primary = append(append([]int(nil), moved...), succ.primary...)

	if !shrunk {
		if h >= 2 {
			gainer := r.at(i + R)
			gainer.addReplicas(moved)
			records = append(records, dht.Relocation{Source: x.id, Destination: gainer.id, Keys: moved, Replica: true})
		}
		for j := 1; j < h; j++ {
			pred := r.at(i - j)
			gainer := r.at(i + R - j)
			gainer.addReplicas(pred.primary)
			records = append(records, dht.Relocation{
				Source:      x.id,
				Destination: gainer.id,
				Keys:        append([]int(nil), pred.primary...),
				Replica:     true,
			})
		}
	}

	r.nodes = append(r.nodes[:i], r.nodes[i+1:]...)
	x.status = dht.StatusRemoved

	level.Info(r.log).Log("msg", "removed node", "id", x.id, "value", value, "successor", succ.id, "keys", len(moved))
	r.metrics.nodes.Set(float64(len(r.nodes)))
	r.recordRelocations(records)
	r.notifyObservers()
	return records, nil
}

func (r *Ring) recordRelocations(records []dht.Relocation) {
	for _, rec := range records {
		level.Debug(r.log).Log("msg", "relocated keys", "relocation", rec)
		r.metrics.relocationsTotal.Inc()
		r.metrics.relocatedKeysTotal.Add(float64(len(rec.Keys)))
	}
}
