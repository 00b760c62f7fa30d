package dht

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Engine is the operation surface shared by both placement engines. Load
// balancing takes engine-specific parameters and is not part of Engine.
type Engine interface {
	// AddNode adds a node. For the ring, v is the position of the new node;
	// for the weighted table, v is the requested node ID. The returned
	// records describe keys that changed owner.
	AddNode(v int) ([]Relocation, error)

	// RemoveNode removes the node at position (ring) or with ID (weighted
	// table) v. An error wrapping ErrNotFound is returned if there is no
	// such node.
	RemoveNode(v int) ([]Relocation, error)

	// Search returns the IDs of every node holding key, in holder order. An
	// error wrapping ErrNotFound is returned if no node holds key.
	Search(key int) ([]int, error)

	// Nodes returns a snapshot of all nodes in engine order.
	Nodes() []NodeInfo

	// Observe registers an Observer to be notified after each mutation.
	Observe(o Observer)

	// Snapshot encodes the engine state. Restore replaces the engine state
	// with a previously taken snapshot.
	Snapshot() ([]byte, error)
	Restore(buf []byte) error

	// Metrics returns the engine's metrics.
	Metrics() prometheus.Collector
}
