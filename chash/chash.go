// Package chash implements the hashing primitives used for weighted key
// placement.
package chash

// Prober maps a (key, replica, node) triple onto the unit interval [0, 1).
// The same triple must always map to the same value.
type Prober interface {
	Probability(key, replica, node int) float64
}
