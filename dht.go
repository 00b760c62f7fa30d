// Package dht models how keys are distributed across a set of storage nodes
// under two placement strategies:
//
// 1. A token ring with successor replication (package ring). Every node owns
// the span of the hash space between its predecessor and itself, and the
// next ReplicationFactor-1 successors hold replicas of that span.
//
// 2. A weighted recursive elimination hash (package rush). Every key and
// replica id is tested against each node in turn with a probability given by
// the node's weight; failed tests hand the node's weight to the remaining
// candidates.
//
// Both engines are single-process simulations. They are not safe for
// concurrent use; callers must serialize access to an engine.
package dht
