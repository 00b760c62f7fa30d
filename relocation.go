package dht

import "fmt"

// Relocation is an audit record of keys that changed owner during a
// rebalancing or rebalancing-triggered operation.
//
// A primary record (Replica false) moves ownership of Keys from Source to
// Destination; on the ring the two nodes are always adjacent. A replica
// record moves a replica copy of Keys from Source to Destination as a side
// effect of a primary move.
type Relocation struct {
	Source      int
	Destination int
	Keys        []int
	Replica     bool
}

// String returns a short description of r.
func (r Relocation) String() string {
	kind := "primary"
	if r.Replica {
		kind = "replica"
	}
	return fmt.Sprintf("%s %d -> %d (%d keys)", kind, r.Source, r.Destination, len(r.Keys))
}

// MovedKeys returns the total number of keys across all primary records.
func MovedKeys(rs []Relocation) int {
	var n int
	for _, r := range rs {
		if !r.Replica {
			n += len(r.Keys)
		}
	}
	return n
}

// InSection reports whether key falls in the half-open ring section
// (prev, cur]. When prev > cur the section wraps through 0. When prev ==
// cur the section covers the whole ring.
func InSection(prev, cur, key int) bool {
	switch {
	case prev == cur:
		return true
	case prev > cur:
		return key > prev || key <= cur
	default:
		return key > prev && key <= cur
	}
}

// Distance returns the number of positions walked clockwise from prev to cur
// on a ring of the given length. Distance(x, x, length) is length.
func Distance(prev, cur, length int) int {
	if prev >= cur {
		return cur + length - prev
	}
	return cur - prev
}
